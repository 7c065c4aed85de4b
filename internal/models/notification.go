package models

import (
	"fmt"
	"time"
)

type NotificationKind string

const (
	NotificationWarning NotificationKind = "warning"
	NotificationAlarm   NotificationKind = "alarm"
)

// NotificationPayload travels with a scheduled notification and is handed
// back when it fires. It must be self-sufficient: the receiving process may
// have been started by the firing itself.
type NotificationPayload struct {
	Kind            NotificationKind `json:"notificationType"`
	AlarmID         string           `json:"alarmID,omitempty"`
	AlarmTitle      string           `json:"alarmTitle"`
	Hour            int              `json:"hour"`
	Minute          int              `json:"minute"`
	DurationMinutes int              `json:"durationMinutes"`
	PrayerID        string           `json:"prayerID,omitempty"`
	PrayerSubtitle  string           `json:"prayerSubtitle,omitempty"`
	IconName        string           `json:"iconName,omitempty"`
	ColorHex        string           `json:"colorHex,omitempty"`
}

func (p NotificationPayload) Validate() error {
	switch p.Kind {
	case NotificationWarning, NotificationAlarm:
	default:
		return fmt.Errorf("unknown notification type %q", p.Kind)
	}
	if p.AlarmTitle == "" {
		return fmt.Errorf("notification payload is missing the alarm title")
	}
	if p.DurationMinutes < 1 {
		return fmt.Errorf("notification payload has invalid duration %d", p.DurationMinutes)
	}
	return nil
}

// NotificationRequest is a daily repeating notification at Hour:Minute.
type NotificationRequest struct {
	Title    string              `json:"title"`
	Body     string              `json:"body"`
	Category string              `json:"category"`
	Hour     int                 `json:"hour"`
	Minute   int                 `json:"minute"`
	Payload  NotificationPayload `json:"payload"`
}

// ScheduledNotification is a request that has been accepted by the
// notification service.
type ScheduledNotification struct {
	ID          string              `json:"id"`
	Request     NotificationRequest `json:"request"`
	ScheduledAt time.Time           `json:"scheduled_at"`
	LastFired   *time.Time          `json:"last_fired,omitempty"`
}
