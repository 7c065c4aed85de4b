package settings

import (
	"fmt"
	"time"

	"github.com/julianstephens/vigil/internal/cli"
	"github.com/julianstephens/vigil/internal/constants"
	"github.com/julianstephens/vigil/internal/utils"
)

type SettingsCmd struct {
	List bool `help:"List current settings."`

	Timezone              *string `help:"IANA timezone used for alarms and statistics (e.g. Europe/Rome, Local)."`
	WeekStart             *int    `help:"First day of the week for statistics (0=Sunday ... 6=Saturday)."`
	RequireStartTap       *bool   `help:"Wait for an explicit start before the prayer countdown begins."`
	DefaultDurationMin    *int    `name:"default-duration" help:"Default session length in minutes for new alarms."`
	DefaultReminderMin    *int    `name:"default-reminder" help:"Default reminder lead time in minutes for new alarms."`
	LiveActivitiesEnabled *bool   `name:"live-activities" help:"Show running sessions on the watch surface."`
}

func (c *SettingsCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	if c.List {
		fmt.Println("Current Settings:")
		fmt.Printf("  Timezone:              %s\n", settings.Timezone)
		fmt.Printf("  Week Start:            %s\n", time.Weekday(settings.WeekStart))
		fmt.Printf("  Require Start Tap:     %v\n", settings.RequireStartTap)
		fmt.Println("\nAlarm Defaults:")
		fmt.Printf("  Duration:              %d min\n", settings.DefaultDurationMin)
		fmt.Printf("  Reminder:              %d min\n", settings.DefaultReminderMin)
		fmt.Println("\nSessions:")
		fmt.Printf("  Live Activities:       %v\n", settings.LiveActivitiesEnabled)
		return nil
	}

	updated := false
	if c.Timezone != nil {
		if !utils.ValidateTimezone(*c.Timezone) {
			return fmt.Errorf("unknown timezone %q", *c.Timezone)
		}
		settings.Timezone = *c.Timezone
		updated = true
	}
	if c.WeekStart != nil {
		if *c.WeekStart < 0 || *c.WeekStart > 6 {
			return fmt.Errorf("week start must be between 0 and 6, got %d", *c.WeekStart)
		}
		settings.WeekStart = *c.WeekStart
		updated = true
	}
	if c.RequireStartTap != nil {
		settings.RequireStartTap = *c.RequireStartTap
		updated = true
	}
	if c.DefaultDurationMin != nil {
		if *c.DefaultDurationMin < 1 || *c.DefaultDurationMin > constants.MaxDurationMin {
			return fmt.Errorf("default duration must be between 1 and %d minutes", constants.MaxDurationMin)
		}
		settings.DefaultDurationMin = *c.DefaultDurationMin
		updated = true
	}
	if c.DefaultReminderMin != nil {
		if *c.DefaultReminderMin < 1 || *c.DefaultReminderMin > constants.MaxReminderMin {
			return fmt.Errorf("default reminder must be between 1 and %d minutes", constants.MaxReminderMin)
		}
		settings.DefaultReminderMin = *c.DefaultReminderMin
		updated = true
	}
	if c.LiveActivitiesEnabled != nil {
		settings.LiveActivitiesEnabled = *c.LiveActivitiesEnabled
		updated = true
	}

	if updated {
		if err := ctx.Store.SaveSettings(settings); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		fmt.Println("Settings updated successfully.")
	} else {
		fmt.Println("No changes specified. Use --list to view settings or flags to update them.")
	}

	return nil
}
