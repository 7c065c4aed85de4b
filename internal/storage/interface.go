package storage

import (
	"errors"

	"github.com/julianstephens/vigil/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Settings
	GetSettings() (models.Settings, error)
	SaveSettings(models.Settings) error

	// Prayers
	AddPrayer(models.Prayer) error
	GetPrayer(id string) (models.Prayer, error)
	GetAllPrayers() ([]models.Prayer, error)
	UpdatePrayer(models.Prayer) error
	// DeletePrayer removes the prayer together with its check-ins and alarms
	// in a single transaction.
	DeletePrayer(id string) error

	// Check-ins
	// AddCheckIn is a no-op when a check-in with the same ID already exists.
	AddCheckIn(models.CheckIn) error
	GetCheckIns() ([]models.CheckIn, error)
	GetCheckInsForPrayer(prayerID string) ([]models.CheckIn, error)
	DeleteCheckIn(id string) error

	// Alarms
	AddAlarm(models.Alarm) error
	GetAlarm(id string) (models.Alarm, error)
	GetAllAlarms() ([]models.Alarm, error)
	GetAlarmsForPrayer(prayerID string) ([]models.Alarm, error)
	UpdateAlarm(models.Alarm) error
	// UpdateAlarmSchedule saves only the notification and calendar handles.
	UpdateAlarmSchedule(models.Alarm) error
	SetAlarmLiveActivity(id string, activityID *string) error
	DeleteAlarm(id string) error

	// Utils
	GetConfigPath() string
}
