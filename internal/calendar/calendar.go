// Package calendar writes daily recurring prayer events as iCalendar files
// into a directory that a calendar client can subscribe to or import.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"github.com/julianstephens/vigil/internal/constants"
	"github.com/julianstephens/vigil/internal/logger"
	"github.com/julianstephens/vigil/internal/services"
)

const (
	icsTimeFormat = "20060102T150405"
	prodID        = "-//julianstephens//vigil//EN"
)

// Store implements services.Calendar with one .ics file per event.
type Store struct {
	dir  string
	auth *services.Authorizer
	now  func() time.Time
}

func New(dir string, auth *services.Authorizer) *Store {
	return &Store{dir: dir, auth: auth, now: time.Now}
}

var _ services.Calendar = (*Store)(nil)

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".ics")
}

func (s *Store) CreateRecurringEvent(ctx context.Context, ev services.CalendarEvent) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create calendar directory: %w", err)
	}

	id := uuid.New().String()
	data := Render(id, ev, s.now())
	if err := os.WriteFile(s.path(id), []byte(data), 0600); err != nil {
		return "", fmt.Errorf("failed to write calendar event: %w", err)
	}
	logger.Debug("Created calendar event", "id", id, "title", ev.Title)
	return id, nil
}

func (s *Store) DeleteEvent(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if strings.ContainsAny(id, `/\`) || id == "" {
		return false, fmt.Errorf("invalid calendar event id %q", id)
	}
	err := os.Remove(s.path(id))
	if errors.Is(err, os.ErrNotExist) {
		logger.Debug("Calendar event already gone", "id", id)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to delete calendar event %s: %w", id, err)
	}
	return true, nil
}

// Events lists the ids of every event in the directory.
func (s *Store) Events() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".ics") {
			ids = append(ids, strings.TrimSuffix(e.Name(), ".ics"))
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) AuthorizationStatus(ctx context.Context) (services.AuthStatus, error) {
	return s.auth.Status(ctx)
}

func (s *Store) RequestAuthorization(ctx context.Context) (bool, error) {
	return s.auth.Request(ctx)
}

// Render produces the VCALENDAR document for a daily event with an alert at
// the start time. A start in UTC is written as UTC; any other start is
// written as floating local time so the event keeps its wall-clock time
// across DST changes without a VTIMEZONE.
func Render(uid string, ev services.CalendarEvent, stamp time.Time) string {
	cal := ics.NewCalendar()
	cal.SetProductId(prodID)
	cal.SetMethod(ics.MethodPublish)

	event := cal.AddEvent(uid + "@" + constants.AppName)
	event.SetDtStampTime(stamp)
	if ev.Start.Location() == time.UTC {
		event.SetStartAt(ev.Start)
	} else {
		event.SetProperty(ics.ComponentPropertyDtStart, ev.Start.Format(icsTimeFormat))
	}
	event.SetProperty(ics.ComponentPropertyDuration, duration(ev.Duration))
	event.AddRrule("FREQ=DAILY")
	event.SetSummary(ev.Title)
	if ev.Notes != "" {
		event.SetDescription(ev.Notes)
	}

	alarm := event.AddAlarm()
	alarm.SetAction(ics.ActionDisplay)
	alarm.SetTrigger("PT0M")
	alarm.SetProperty(ics.ComponentPropertyDescription, ev.Title)

	return cal.Serialize()
}

func duration(d time.Duration) string {
	if d <= 0 {
		return "PT0M"
	}
	minutes := int(d.Round(time.Minute) / time.Minute)
	if minutes == 0 {
		minutes = 1
	}
	return fmt.Sprintf("PT%dM", minutes)
}
