package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/vigil/internal/constants"
)

// Alarm is a recurring daily trigger, optionally bound to a prayer.
//
// The four handle fields reference resources owned by external services. A
// non-nil handle means the resource currently exists; the orchestrator is the
// only writer of these fields.
type Alarm struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	PrayerID        *string   `json:"prayer_id,omitempty"`
	Hour            int       `json:"hour"`
	Minute          int       `json:"minute"`
	DurationMinutes int       `json:"duration_minutes"`
	Enabled         bool      `json:"enabled"`
	HasReminder     bool      `json:"has_reminder"`
	ReminderMinutes int       `json:"reminder_minutes"`
	AddToCalendar   bool      `json:"add_to_calendar"`
	CreatedAt       time.Time `json:"created_at"`

	NotificationID        *string `json:"notification_id,omitempty"`
	WarningNotificationID *string `json:"warning_notification_id,omitempty"`
	CalendarEventID       *string `json:"calendar_event_id,omitempty"`
	LiveActivityID        *string `json:"live_activity_id,omitempty"`

	// Prayer is populated by the orchestrator when the alarm is bound; it is
	// not persisted with the alarm row.
	Prayer *Prayer `json:"-"`
}

func (a *Alarm) Validate() error {
	if a.Hour < 0 || a.Hour > 23 {
		return fmt.Errorf("alarm hour must be between 0 and 23, got %d", a.Hour)
	}
	if a.Minute < 0 || a.Minute > 59 {
		return fmt.Errorf("alarm minute must be between 0 and 59, got %d", a.Minute)
	}
	if a.DurationMinutes < 1 || a.DurationMinutes > constants.MaxDurationMin {
		return fmt.Errorf("alarm duration must be between 1 and %d minutes, got %d", constants.MaxDurationMin, a.DurationMinutes)
	}
	if a.HasReminder && (a.ReminderMinutes < 1 || a.ReminderMinutes > constants.MaxReminderMin) {
		return fmt.Errorf("reminder must be between 1 and %d minutes before the alarm, got %d", constants.MaxReminderMin, a.ReminderMinutes)
	}
	if a.PrayerID == nil && strings.TrimSpace(a.Title) == "" {
		return fmt.Errorf("alarm needs a title or a prayer")
	}
	return nil
}

// TimeString returns the alarm time as HH:MM.
func (a *Alarm) TimeString() string {
	return fmt.Sprintf("%02d:%02d", a.Hour, a.Minute)
}

// DisplayTitle prefers the bound prayer's title over the alarm's own.
func (a *Alarm) DisplayTitle() string {
	if a.Prayer != nil && a.Prayer.Title != "" {
		return a.Prayer.Title
	}
	return a.Title
}

// HasExternalHandles reports whether any external resource is still referenced.
func (a *Alarm) HasExternalHandles() bool {
	return a.NotificationID != nil || a.WarningNotificationID != nil ||
		a.CalendarEventID != nil || a.LiveActivityID != nil
}

// Payload builds the notification payload for the given kind. The payload
// carries everything needed to rebuild a session after a cold start.
func (a *Alarm) Payload(kind NotificationKind) NotificationPayload {
	p := NotificationPayload{
		Kind:            kind,
		AlarmID:         a.ID,
		AlarmTitle:      a.DisplayTitle(),
		Hour:            a.Hour,
		Minute:          a.Minute,
		DurationMinutes: a.DurationMinutes,
		IconName:        constants.DefaultIconName,
		ColorHex:        constants.DefaultColorHex,
	}
	if a.Prayer != nil {
		p.PrayerID = a.Prayer.ID
		p.PrayerSubtitle = a.Prayer.Subtitle
		if a.Prayer.IconName != "" {
			p.IconName = a.Prayer.IconName
		}
		if a.Prayer.ColorHex != "" {
			p.ColorHex = a.Prayer.ColorHex
		}
	} else if a.PrayerID != nil {
		p.PrayerID = *a.PrayerID
	}
	return p
}
