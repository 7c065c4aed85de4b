package constants

const (
	// General Settings
	SettingTimezone              = "timezone"
	SettingWeekStart             = "week_start"
	SettingRequireStartTap       = "require_start_tap"
	SettingDefaultDurationMin    = "default_duration_min"
	SettingDefaultReminderMin    = "default_reminder_min"
	SettingLiveActivitiesEnabled = "live_activities_enabled"

	// Default Settings Values
	DefaultTimezone              = "Local" // Use system local timezone by default
	DefaultWeekStart             = 0       // Sunday
	DefaultRequireStartTap       = true
	DefaultLiveActivitiesEnabled = true
)
