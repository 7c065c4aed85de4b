package models

import (
	"fmt"
	"strconv"

	"github.com/julianstephens/vigil/internal/constants"
)

// DefaultSettings returns the settings written by a fresh init.
func DefaultSettings() Settings {
	return Settings{
		Timezone:              constants.DefaultTimezone,
		WeekStart:             constants.DefaultWeekStart,
		RequireStartTap:       constants.DefaultRequireStartTap,
		DefaultDurationMin:    constants.DefaultDurationMin,
		DefaultReminderMin:    constants.DefaultReminderMin,
		LiveActivitiesEnabled: constants.DefaultLiveActivitiesEnabled,
	}
}

// MapToSettings converts a map of key-value pairs to a Settings struct.
// Keys missing from the map keep their default value.
func MapToSettings(data map[string]string) (Settings, error) {
	settings := DefaultSettings()

	for key, value := range data {
		var err error
		switch key {
		case constants.SettingTimezone:
			settings.Timezone = value
		case constants.SettingWeekStart:
			settings.WeekStart, err = strconv.Atoi(value)
		case constants.SettingRequireStartTap:
			settings.RequireStartTap = value == "true"
		case constants.SettingDefaultDurationMin:
			settings.DefaultDurationMin, err = strconv.Atoi(value)
		case constants.SettingDefaultReminderMin:
			settings.DefaultReminderMin, err = strconv.Atoi(value)
		case constants.SettingLiveActivitiesEnabled:
			settings.LiveActivitiesEnabled = value == "true"
		}
		if err != nil {
			return Settings{}, fmt.Errorf("parsing %s: %w", key, err)
		}
	}
	if settings.WeekStart < 0 || settings.WeekStart > 6 {
		return Settings{}, fmt.Errorf("week_start must be between 0 and 6, got %d", settings.WeekStart)
	}
	return settings, nil
}

// SettingsToMap converts a Settings struct to a map of key-value pairs.
func SettingsToMap(settings Settings) map[string]string {
	return map[string]string{
		constants.SettingTimezone:              settings.Timezone,
		constants.SettingWeekStart:             strconv.Itoa(settings.WeekStart),
		constants.SettingRequireStartTap:       strconv.FormatBool(settings.RequireStartTap),
		constants.SettingDefaultDurationMin:    strconv.Itoa(settings.DefaultDurationMin),
		constants.SettingDefaultReminderMin:    strconv.Itoa(settings.DefaultReminderMin),
		constants.SettingLiveActivitiesEnabled: strconv.FormatBool(settings.LiveActivitiesEnabled),
	}
}
