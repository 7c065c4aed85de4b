package calendar

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/julianstephens/vigil/internal/constants"
	"github.com/julianstephens/vigil/internal/kvstore"
	"github.com/julianstephens/vigil/internal/services"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	kv, err := kvstore.NewFileStore(filepath.Join(t.TempDir(), "kv"))
	if err != nil {
		t.Fatal(err)
	}
	auth := services.NewAuthorizer(kv, constants.KeyCalendarAuth, nil, "", "")
	return New(filepath.Join(t.TempDir(), "calendar"), auth)
}

func TestCreateAndDeleteEvent(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	ev := services.CalendarEvent{
		Title:    "🙏 Lauds",
		Notes:    "Prayer time - 10 minutes",
		Start:    time.Date(2026, time.June, 1, 7, 0, 0, 0, time.UTC),
		Duration: 10 * time.Minute,
	}
	id, err := s.CreateRecurringEvent(ctx, ev)
	if err != nil {
		t.Fatalf("CreateRecurringEvent() error: %v", err)
	}

	data, err := os.ReadFile(s.path(id))
	if err != nil {
		t.Fatal(err)
	}
	body := string(data)
	for _, want := range []string{
		"BEGIN:VEVENT\r\n",
		"DTSTART:20260601T070000Z\r\n",
		"DURATION:PT10M\r\n",
		"RRULE:FREQ=DAILY\r\n",
		"SUMMARY:🙏 Lauds\r\n",
		"DESCRIPTION:Prayer time - 10 minutes\r\n",
		"TRIGGER:PT0M\r\n",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("event is missing %q", strings.TrimSpace(want))
		}
	}

	ids, err := s.Events()
	if err != nil || len(ids) != 1 || ids[0] != id {
		t.Errorf("Events() = %v, %v", ids, err)
	}

	deleted, err := s.DeleteEvent(ctx, id)
	if err != nil || !deleted {
		t.Fatalf("DeleteEvent() = %v, %v", deleted, err)
	}
	deleted, err = s.DeleteEvent(ctx, id)
	if err != nil || deleted {
		t.Errorf("second DeleteEvent() = %v, %v; want false, nil", deleted, err)
	}
	if _, err := s.DeleteEvent(ctx, "../escape"); err == nil {
		t.Error("DeleteEvent() accepted a path")
	}
}

func TestRenderTimeZones(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}

	tests := []struct {
		name  string
		start time.Time
		want  string
	}{
		{name: "utc", start: time.Date(2026, time.June, 1, 7, 0, 0, 0, time.UTC), want: "DTSTART:20260601T070000Z\r\n"},
		{name: "zoned is floating", start: time.Date(2026, time.June, 1, 7, 0, 0, 0, ny), want: "DTSTART:20260601T070000\r\n"},
		{name: "local is floating", start: time.Date(2026, time.June, 1, 7, 0, 0, 0, time.Local), want: "DTSTART:20260601T070000\r\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Render("x", services.CalendarEvent{Title: "a", Start: tt.start, Duration: 5 * time.Minute}, time.Now())
			if !strings.Contains(out, tt.want) {
				t.Errorf("missing %q in:\n%s", strings.TrimSpace(tt.want), out)
			}
			if strings.Contains(out, "TZID") && !strings.Contains(out, "BEGIN:VTIMEZONE") {
				t.Errorf("TZID without a VTIMEZONE in:\n%s", out)
			}
		})
	}
}

func TestRenderFoldsLongLines(t *testing.T) {
	title := "🙏 " + strings.Repeat("Litany of the Saints and Prayers for the Faithful Departed ", 2)
	title = strings.TrimSpace(title)
	notes := "Prayer time - 30 minutes, then silence; " + strings.Repeat("rest in quiet ", 6)
	out := Render("long", services.CalendarEvent{
		Title:    title,
		Notes:    notes,
		Start:    time.Date(2026, time.June, 1, 21, 0, 0, 0, time.UTC),
		Duration: 30 * time.Minute,
	}, time.Now())

	for _, line := range strings.Split(strings.TrimSuffix(out, "\r\n"), "\r\n") {
		if n := len(strings.TrimPrefix(line, " ")); n > 75 {
			t.Errorf("line of %d octets: %q", n, line)
		}
	}

	cal, err := ics.ParseCalendar(strings.NewReader(out))
	if err != nil {
		t.Fatalf("ParseCalendar() error: %v", err)
	}
	events := cal.Events()
	if len(events) != 1 {
		t.Fatalf("parsed %d events, want 1", len(events))
	}
	summary := events[0].GetProperty(ics.ComponentPropertySummary)
	if summary == nil || summary.Value != title {
		t.Errorf("summary = %+v, want %q", summary, title)
	}
	if events[0].Id() != "long@"+constants.AppName {
		t.Errorf("uid = %q", events[0].Id())
	}
}

func TestEventsOnMissingDir(t *testing.T) {
	s := newStore(t)
	if ids, err := s.Events(); err != nil || ids != nil {
		t.Errorf("Events() on missing dir = %v, %v", ids, err)
	}
}
