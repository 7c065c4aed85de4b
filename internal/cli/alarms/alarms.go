package alarms

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/julianstephens/vigil/internal/cli"
	errs "github.com/julianstephens/vigil/internal/errors"
	"github.com/julianstephens/vigil/internal/models"
	"github.com/julianstephens/vigil/internal/orchestrator"
	"github.com/julianstephens/vigil/internal/utils"
)

type AlarmAddCmd struct {
	Time       string `arg:"" help:"Time of day (HH:MM)."`
	Title      string `short:"t" help:"Alarm title, used when no prayer is given."`
	Prayer     string `short:"p" help:"Prayer ID or title to bind the alarm to."`
	Duration   int    `short:"d" help:"Session length in minutes (defaults to the setting)."`
	Reminder   int    `short:"r" help:"Reminder lead time in minutes (defaults to the setting)."`
	NoReminder bool   `help:"Do not send a reminder before the alarm."`
	Calendar   bool   `help:"Add a recurring calendar event."`
	Disabled   bool   `help:"Create the alarm switched off."`
}

func (c *AlarmAddCmd) Run(ctx *cli.Context) error {
	hour, minute, err := utils.ParseClock(c.Time)
	if err != nil {
		return err
	}
	settings := ctx.Settings()

	alarm := models.Alarm{
		Title:           strings.TrimSpace(c.Title),
		Hour:            hour,
		Minute:          minute,
		DurationMinutes: settings.DefaultDurationMin,
		Enabled:         !c.Disabled,
		HasReminder:     !c.NoReminder,
		ReminderMinutes: settings.DefaultReminderMin,
		AddToCalendar:   c.Calendar,
	}
	if c.Duration != 0 {
		alarm.DurationMinutes = c.Duration
	}
	if c.Reminder != 0 {
		alarm.ReminderMinutes = c.Reminder
	}
	if c.Prayer != "" {
		p, err := ctx.ResolvePrayer(c.Prayer)
		if err != nil {
			return err
		}
		alarm.PrayerID = &p.ID
	}
	if !alarm.HasReminder {
		alarm.ReminderMinutes = 0
	}

	bg := context.Background()
	s, err := ctx.Services(bg, cli.Prompter())
	if err != nil {
		return err
	}
	alarm, err = s.Orchestrator.CreateAlarm(bg, alarm)
	if err != nil {
		return fmt.Errorf("failed to add alarm: %w", err)
	}

	fmt.Printf("✓ Added alarm: %s at %s (ID: %s)\n", alarm.DisplayTitle(), alarm.TimeString(), alarm.ID)
	printHandles(alarm)
	return nil
}

// printHandles reports which parts of an enabled alarm were set up.
func printHandles(a models.Alarm) {
	if !a.Enabled {
		return
	}
	if a.NotificationID == nil {
		fmt.Println("⚠ Notifications are not allowed, the alarm will not fire. See 'vigil permissions'.")
	}
	if a.AddToCalendar && a.CalendarEventID == nil {
		fmt.Println("⚠ Calendar access is not allowed, no event was added.")
	}
}

type AlarmListCmd struct{}

func (c *AlarmListCmd) Run(ctx *cli.Context) error {
	alarms, err := ctx.Store.GetAllAlarms()
	if err != nil {
		return fmt.Errorf("failed to get alarms: %w", err)
	}
	if len(alarms) == 0 {
		fmt.Println("No alarms configured.")
		return nil
	}

	titles := map[string]string{}
	if prayers, err := ctx.Store.GetAllPrayers(); err == nil {
		for _, p := range prayers {
			titles[p.ID] = p.Title
		}
	}
	now := ctx.Now()

	fmt.Printf("%-36s %-24s %-6s %-8s %-9s %-8s %-16s\n", "ID", "Title", "Time", "Length", "Reminder", "Enabled", "Next")
	fmt.Println(strings.Repeat("-", 113))
	for _, a := range alarms {
		title := a.Title
		if a.PrayerID != nil {
			if t, ok := titles[*a.PrayerID]; ok {
				title = t
			}
		}
		reminder := "-"
		if a.HasReminder {
			reminder = fmt.Sprintf("%dm", a.ReminderMinutes)
		}
		enabled, next := "No", "-"
		if a.Enabled {
			enabled = "Yes"
			next = formatNext(utils.NextOccurrence(a.Hour, a.Minute, now), now)
		}
		fmt.Printf("%-36s %-24s %-6s %-8s %-9s %-8s %-16s\n",
			a.ID, cli.Truncate(title, 24), a.TimeString(), fmt.Sprintf("%dm", a.DurationMinutes), reminder, enabled, next)
	}
	return nil
}

func formatNext(next, now time.Time) string {
	if next.YearDay() == now.YearDay() && next.Year() == now.Year() {
		return "today " + next.Format("15:04")
	}
	return "tomorrow " + next.Format("15:04")
}

type AlarmToggleCmd struct {
	ID  string `arg:"" help:"Alarm ID."`
	On  bool   `help:"Switch the alarm on." xor:"state"`
	Off bool   `help:"Switch the alarm off." xor:"state"`
}

func (c *AlarmToggleCmd) Run(ctx *cli.Context) error {
	current, err := ctx.Store.GetAlarm(c.ID)
	if err != nil {
		return fmt.Errorf("failed to find alarm with ID %s: %w", c.ID, err)
	}
	enabled := !current.Enabled
	switch {
	case c.On:
		enabled = true
	case c.Off:
		enabled = false
	}

	bg := context.Background()
	s, err := ctx.Services(bg, cli.Prompter())
	if err != nil {
		return err
	}
	alarm, err := s.Orchestrator.ToggleAlarm(bg, c.ID, enabled)
	if err := errs.Report(os.Stdout, err, orchestrator.ErrPartialCleanup); err != nil {
		return fmt.Errorf("failed to toggle alarm: %w", err)
	}

	state := "off"
	if alarm.Enabled {
		state = "on"
	}
	fmt.Printf("✓ Alarm %s at %s switched %s\n", alarm.DisplayTitle(), alarm.TimeString(), state)
	printHandles(alarm)
	return nil
}

type AlarmEditCmd struct {
	ID       string  `arg:"" help:"Alarm ID."`
	Time     *string `help:"New time of day (HH:MM)."`
	Title    *string `short:"t" help:"New title."`
	Prayer   *string `short:"p" help:"New prayer ID or title, empty to unbind."`
	Duration *int    `short:"d" help:"New session length in minutes."`
	Reminder *int    `short:"r" help:"New reminder lead time in minutes, 0 to turn it off."`
	Calendar *bool   `help:"Add or remove the calendar event."`
}

func (c *AlarmEditCmd) Run(ctx *cli.Context) error {
	alarm, err := ctx.Store.GetAlarm(c.ID)
	if err != nil {
		return fmt.Errorf("failed to find alarm: %w", err)
	}

	if c.Time != nil {
		if alarm.Hour, alarm.Minute, err = utils.ParseClock(*c.Time); err != nil {
			return err
		}
	}
	if c.Title != nil {
		alarm.Title = strings.TrimSpace(*c.Title)
	}
	if c.Prayer != nil {
		if *c.Prayer == "" {
			alarm.PrayerID = nil
		} else {
			p, err := ctx.ResolvePrayer(*c.Prayer)
			if err != nil {
				return err
			}
			alarm.PrayerID = &p.ID
		}
	}
	if c.Duration != nil {
		alarm.DurationMinutes = *c.Duration
	}
	if c.Reminder != nil {
		alarm.HasReminder = *c.Reminder > 0
		alarm.ReminderMinutes = *c.Reminder
	}
	if c.Calendar != nil {
		alarm.AddToCalendar = *c.Calendar
	}

	bg := context.Background()
	s, err := ctx.Services(bg, cli.Prompter())
	if err != nil {
		return err
	}
	alarm, err = s.Orchestrator.UpdateAlarm(bg, alarm)
	if err := errs.Report(os.Stdout, err, orchestrator.ErrPartialCleanup); err != nil {
		return fmt.Errorf("failed to update alarm: %w", err)
	}
	fmt.Printf("✓ Updated alarm: %s at %s\n", alarm.DisplayTitle(), alarm.TimeString())
	printHandles(alarm)
	return nil
}

type AlarmDeleteCmd struct {
	ID string `arg:"" help:"Alarm ID to delete."`
}

func (c *AlarmDeleteCmd) Run(ctx *cli.Context) error {
	alarm, err := ctx.Store.GetAlarm(c.ID)
	if err != nil {
		return fmt.Errorf("failed to find alarm with ID %s: %w", c.ID, err)
	}

	bg := context.Background()
	s, err := ctx.Services(bg, nil)
	if err != nil {
		return err
	}
	if err := s.Orchestrator.DeleteAlarm(bg, c.ID); err != nil {
		return fmt.Errorf("failed to delete alarm (run the command again to retry): %w", err)
	}
	fmt.Printf("Deleted alarm: %s (ID: %s)\n", alarm.TimeString(), c.ID)
	return nil
}
