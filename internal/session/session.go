// Package session models one firing of a prayer alarm.
//
// A session moves through warning, ready, active and completed. Progress is
// always derived from the wall clock and the recorded start time, so a missed
// tick is corrected by the next one.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/vigil/internal/constants"
	"github.com/julianstephens/vigil/internal/models"
)

var ErrInvalidTransition = errors.New("invalid session transition")

// Prayer is the prayer metadata captured when the session was created.
// Later edits to the prayer do not change a session in flight.
type Prayer struct {
	ID       string
	Title    string
	Subtitle string
	IconName string
	ColorHex string
}

// Session is a single alarm firing. It is not safe for concurrent use; the
// Driver serializes access.
type Session struct {
	ID           string
	AlarmID      string
	Prayer       Prayer
	AlarmTime    time.Time
	TotalSeconds int

	phase       models.Phase
	startTime   *time.Time
	completedAt *time.Time
	remaining   int
	progress    float64
}

// New builds a session in the warning phase from a notification payload.
// Nothing but the payload is consulted, so it works after a cold start.
func New(id string, payload models.NotificationPayload, alarmTime time.Time) *Session {
	icon := payload.IconName
	if icon == "" {
		icon = constants.DefaultIconName
	}
	color := payload.ColorHex
	if color == "" {
		color = constants.DefaultColorHex
	}
	total := payload.DurationMinutes * 60
	if total < 0 {
		total = 0
	}

	return &Session{
		ID:      id,
		AlarmID: payload.AlarmID,
		Prayer: Prayer{
			ID:       payload.PrayerID,
			Title:    payload.AlarmTitle,
			Subtitle: payload.PrayerSubtitle,
			IconName: icon,
			ColorHex: color,
		},
		AlarmTime:    alarmTime,
		TotalSeconds: total,
		phase:        models.PhaseWarning,
		remaining:    total,
	}
}

func (s *Session) Phase() models.Phase {
	return s.phase
}

// StartTime is nil until the countdown begins.
func (s *Session) StartTime() *time.Time {
	return s.startTime
}

// CompletedAt is the instant the countdown reached zero.
func (s *Session) CompletedAt() *time.Time {
	return s.completedAt
}

func (s *Session) RemainingSeconds() int {
	return s.remaining
}

func (s *Session) Progress() float64 {
	return s.progress
}

// AlarmFired moves a warning session forward when the at-time notification
// arrives. With requireStart the session waits in ready for an explicit
// BeginCountdown; otherwise the countdown starts at now.
func (s *Session) AlarmFired(now time.Time, requireStart bool) error {
	if s.phase != models.PhaseWarning {
		return fmt.Errorf("%w: alarm fired while %s", ErrInvalidTransition, s.phase)
	}
	s.phase = models.PhaseReady
	if requireStart {
		return nil
	}
	return s.BeginCountdown(now)
}

// BeginCountdown moves a ready session to active and records the start time.
func (s *Session) BeginCountdown(now time.Time) error {
	if s.phase != models.PhaseReady {
		return fmt.Errorf("%w: begin countdown while %s", ErrInvalidTransition, s.phase)
	}
	start := now
	s.startTime = &start
	s.phase = models.PhaseActive
	s.Tick(now)
	return nil
}

// Tick recomputes remaining time and progress from now. It reports whether
// this call completed the session. Ticks outside the active phase are no-ops.
func (s *Session) Tick(now time.Time) bool {
	if s.phase != models.PhaseActive || s.startTime == nil {
		return false
	}

	elapsed := int(now.Sub(*s.startTime) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}

	if s.TotalSeconds <= 0 {
		s.complete(*s.startTime)
		return true
	}

	s.remaining = max(0, s.TotalSeconds-elapsed)
	s.progress = min(1.0, float64(elapsed)/float64(s.TotalSeconds))
	if s.remaining <= 0 {
		s.complete(s.startTime.Add(time.Duration(s.TotalSeconds) * time.Second))
		return true
	}
	return false
}

func (s *Session) complete(at time.Time) {
	s.phase = models.PhaseCompleted
	s.remaining = 0
	s.progress = 1.0
	s.completedAt = &at
}

// Attributes returns the static surface description of the session.
func (s *Session) Attributes() models.ActivityAttributes {
	return models.ActivityAttributes{
		SessionID:       s.ID,
		AlarmID:         s.AlarmID,
		PrayerID:        s.Prayer.ID,
		PrayerTitle:     s.Prayer.Title,
		PrayerSubtitle:  s.Prayer.Subtitle,
		IconName:        s.Prayer.IconName,
		ColorHex:        s.Prayer.ColorHex,
		AlarmTime:       s.AlarmTime,
		DurationMinutes: s.TotalSeconds / 60,
	}
}

// State returns the dynamic surface state as of now. The stale instant is
// the expected end of the countdown while active, and the auto-dismiss
// deadline once completed.
func (s *Session) State(now time.Time) models.ActivityState {
	st := models.ActivityState{
		Phase:            s.phase,
		RemainingSeconds: s.remaining,
		TotalSeconds:     s.TotalSeconds,
		Progress:         s.progress,
		LastUpdate:       now,
	}
	if s.startTime != nil {
		start := *s.startTime
		st.StartTime = &start
	}
	switch s.phase {
	case models.PhaseActive:
		stale := s.startTime.Add(time.Duration(s.TotalSeconds) * time.Second)
		st.StaleAt = &stale
	case models.PhaseCompleted:
		stale := s.completedAt.Add(constants.SessionAutoDismiss)
		st.StaleAt = &stale
	}
	return st
}
