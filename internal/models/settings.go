package models

// Settings represents user preferences persisted in the main store
type Settings struct {
	Timezone              string `json:"timezone"`                // IANA timezone name, or "Local"
	WeekStart             int    `json:"week_start"`              // 0=Sunday ... 6=Saturday
	RequireStartTap       bool   `json:"require_start_tap"`       // sessions wait in "ready" for an explicit start
	DefaultDurationMin    int    `json:"default_duration_min"`    // session length for new alarms
	DefaultReminderMin    int    `json:"default_reminder_min"`    // lead time for new alarm reminders
	LiveActivitiesEnabled bool   `json:"live_activities_enabled"` // whether sessions get an external surface
}
