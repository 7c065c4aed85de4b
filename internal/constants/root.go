package constants

import "time"

const (
	AppName                 = "vigil"
	DefaultKeyringUser      = "database-connection"
	RemoteSecretKeyringUser = "remote-secret"
	DefaultConfigDir        = "~/.config/vigil"
	DefaultConfigPath       = "~/.config/vigil/vigil.db"
	Version                 = "v0.3.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "vigil-"
	BackupFileSuffix = ".db"

	// Notify constants
	NotifierLockfileName   = "vigil-notifier.lock"
	NotificationDurationMs = 8000
	TrayAppIdentifier      = "com.julianstephens.vigil"

	// Prayer defaults
	DefaultIconName = "hands.sparkles.fill"
	DefaultColorHex = "#9333EA"

	// Alarm defaults
	DefaultDurationMin      = 5
	DefaultReminderMin      = 5
	MaxReminderMin          = 120
	MaxDurationMin          = 240
	NotificationGracePeriod = 10 * time.Minute

	// Notification identifiers and categories
	WarningNotificationPrefix = "prayer-warning-"
	AlarmNotificationPrefix   = "prayer-alarm-"
	CategoryPrayerWarning     = "PRAYER_WARNING"
	CategoryPrayerAlarm       = "PRAYER_ALARM"

	// Session timing
	SessionTickInterval   = time.Second
	SessionAutoDismiss    = 5 * time.Minute
	PendingStartMaxAge    = 15 * time.Minute
	MaxConcurrentSessions = 5

	// Shared key-value store keys
	KeyPendingCheckIns        = "pendingCheckIns"
	KeyPendingStart           = "pendingStartPrayer"
	KeyActivities             = "activities"
	KeyScheduledNotifications = "scheduledNotifications"
	KeyNotificationAuth       = "authorization.notifications"
	KeyCalendarAuth           = "authorization.calendar"

	// Remote action server
	DefaultListenAddr = "127.0.0.1:7823"
	SecretHeader      = "X-Vigil-Secret"
)
