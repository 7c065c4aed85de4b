package models

import "time"

type Phase string

const (
	PhaseWarning   Phase = "warning"
	PhaseReady     Phase = "ready"
	PhaseActive    Phase = "active"
	PhaseCompleted Phase = "completed"
)

// ActivityAttributes is the static part of a session surface.
type ActivityAttributes struct {
	SessionID       string    `json:"sessionID"`
	AlarmID         string    `json:"alarmID,omitempty"`
	PrayerID        string    `json:"prayerID,omitempty"`
	PrayerTitle     string    `json:"prayerTitle"`
	PrayerSubtitle  string    `json:"prayerSubtitle,omitempty"`
	IconName        string    `json:"iconName"`
	ColorHex        string    `json:"colorHex"`
	AlarmTime       time.Time `json:"alarmTime"`
	DurationMinutes int       `json:"durationMinutes"`
}

// ActivityState is the dynamic part of a session surface.
type ActivityState struct {
	Phase            Phase      `json:"phase"`
	StartTime        *time.Time `json:"startTime,omitempty"`
	RemainingSeconds int        `json:"remainingSeconds"`
	TotalSeconds     int        `json:"totalSeconds"`
	Progress         float64    `json:"currentProgress"`
	LastUpdate       time.Time  `json:"lastUpdateTime"`
	StaleAt          *time.Time `json:"staleDate,omitempty"`
}

// Activity is one live session surface as persisted in the shared store.
type Activity struct {
	ID         string             `json:"id"`
	Attributes ActivityAttributes `json:"attributes"`
	State      ActivityState      `json:"state"`
	StartedAt  time.Time          `json:"startedAt"`
}

// PendingCheckIn is a check-in recorded by a process that cannot write to
// the main store.
type PendingCheckIn struct {
	PrayerID  string    `json:"prayerID"`
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"activityID"`
	// Title overrides the prayer title on the stored check-in.
	Title string `json:"title,omitempty"`
}

// PendingStart asks the owning process to begin the countdown of a session.
type PendingStart struct {
	ActivityID string    `json:"activityID"`
	Timestamp  time.Time `json:"timestamp"`
}
