package checkins

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/julianstephens/vigil/internal/cli"
	"github.com/julianstephens/vigil/internal/models"
)

type ExportCmd struct {
	Output string `short:"o" help:"Write the export to this file instead of stdout." type:"path"`
}

type exportAlarm struct {
	ID              string `yaml:"id"`
	Title           string `yaml:"title,omitempty"`
	Time            string `yaml:"time"`
	DurationMinutes int    `yaml:"duration_minutes"`
	Enabled         bool   `yaml:"enabled"`
	ReminderMinutes int    `yaml:"reminder_minutes,omitempty"`
	AddToCalendar   bool   `yaml:"add_to_calendar,omitempty"`
}

type exportPrayer struct {
	models.Prayer `yaml:",inline"`
	Alarms        []exportAlarm    `yaml:"alarms,omitempty"`
	CheckIns      []models.CheckIn `yaml:"check_ins,omitempty"`
}

type export struct {
	ExportedAt time.Time        `yaml:"exported_at"`
	Settings   exportSettings   `yaml:"settings"`
	Prayers    []exportPrayer   `yaml:"prayers"`
	Alarms     []exportAlarm    `yaml:"alarms,omitempty"`
	CheckIns   []models.CheckIn `yaml:"check_ins,omitempty"`
}

type exportSettings struct {
	Timezone           string `yaml:"timezone"`
	WeekStart          int    `yaml:"week_start"`
	RequireStartTap    bool   `yaml:"require_start_tap"`
	DefaultDurationMin int    `yaml:"default_duration_min"`
	DefaultReminderMin int    `yaml:"default_reminder_min"`
}

func toExportAlarm(a models.Alarm) exportAlarm {
	e := exportAlarm{
		ID:              a.ID,
		Title:           a.Title,
		Time:            a.TimeString(),
		DurationMinutes: a.DurationMinutes,
		Enabled:         a.Enabled,
		AddToCalendar:   a.AddToCalendar,
	}
	if a.HasReminder {
		e.ReminderMinutes = a.ReminderMinutes
	}
	return e
}

// buildExport groups alarms and check-ins under their prayer. Unbound
// alarms and generic check-ins are listed at the top level.
func buildExport(ctx *cli.Context) (export, error) {
	settings := ctx.Settings()
	out := export{
		ExportedAt: ctx.Now(),
		Settings: exportSettings{
			Timezone:           settings.Timezone,
			WeekStart:          settings.WeekStart,
			RequireStartTap:    settings.RequireStartTap,
			DefaultDurationMin: settings.DefaultDurationMin,
			DefaultReminderMin: settings.DefaultReminderMin,
		},
	}

	prayers, err := ctx.Store.GetAllPrayers()
	if err != nil {
		return export{}, fmt.Errorf("failed to get prayers: %w", err)
	}
	alarms, err := ctx.Store.GetAllAlarms()
	if err != nil {
		return export{}, fmt.Errorf("failed to get alarms: %w", err)
	}
	checkIns, err := ctx.Store.GetCheckIns()
	if err != nil {
		return export{}, fmt.Errorf("failed to get check-ins: %w", err)
	}

	index := make(map[string]int, len(prayers))
	for i, p := range prayers {
		index[p.ID] = i
		out.Prayers = append(out.Prayers, exportPrayer{Prayer: p})
	}
	for _, a := range alarms {
		if a.PrayerID != nil {
			if i, ok := index[*a.PrayerID]; ok {
				out.Prayers[i].Alarms = append(out.Prayers[i].Alarms, toExportAlarm(a))
				continue
			}
		}
		out.Alarms = append(out.Alarms, toExportAlarm(a))
	}
	for _, c := range checkIns {
		if c.PrayerID != nil {
			if i, ok := index[*c.PrayerID]; ok {
				out.Prayers[i].CheckIns = append(out.Prayers[i].CheckIns, c)
				continue
			}
		}
		out.CheckIns = append(out.CheckIns, c)
	}
	return out, nil
}

func (c *ExportCmd) Run(ctx *cli.Context) error {
	ctx.Reconcile()
	data, err := buildExport(ctx)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if c.Output != "" {
		f, err := os.Create(c.Output)
		if err != nil {
			return fmt.Errorf("failed to create export file: %w", err)
		}
		defer f.Close()
		w = f
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	if c.Output != "" {
		fmt.Fprintf(os.Stderr, "✓ Exported %d prayers to %s\n", len(data.Prayers), c.Output)
	}
	return nil
}
