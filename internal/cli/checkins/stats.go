package checkins

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/vigil/internal/cli"
	"github.com/julianstephens/vigil/internal/constants"
	"github.com/julianstephens/vigil/internal/models"
	"github.com/julianstephens/vigil/internal/stats"
)

type StatsCmd struct {
	Prayer string `short:"p" help:"Only count check-ins for this prayer (ID or title)."`
	Days   int    `short:"d" help:"Number of days shown in the activity grid." default:"28"`
	JSON   bool   `help:"Print the summary and grid as JSON."`
}

type statsReport struct {
	Prayer  string        `json:"prayer,omitempty"`
	Summary stats.Summary `json:"summary"`
	Grid    []stats.Day   `json:"grid"`
}

func (c *StatsCmd) Run(ctx *cli.Context) error {
	if c.Days < 1 {
		return fmt.Errorf("days must be at least 1")
	}
	ctx.Reconcile()

	var (
		checkIns []models.CheckIn
		err      error
		title    string
		color    = constants.DefaultColorHex
	)
	if c.Prayer != "" {
		p, err := ctx.ResolvePrayer(c.Prayer)
		if err != nil {
			return err
		}
		title, color = p.Title, p.ColorHex
		checkIns, err = ctx.Store.GetCheckInsForPrayer(p.ID)
		if err != nil {
			return fmt.Errorf("failed to get check-ins: %w", err)
		}
	} else {
		checkIns, err = ctx.Store.GetCheckIns()
		if err != nil {
			return fmt.Errorf("failed to get check-ins: %w", err)
		}
	}

	settings := ctx.Settings()
	now := ctx.Now()
	e := stats.New(models.Timestamps(checkIns), now,
		stats.WithWeekStart(time.Weekday(settings.WeekStart)),
		stats.WithLocation(now.Location()))

	report := statsReport{Prayer: title, Summary: e.Summary(), Grid: e.Grid(c.Days)}
	if c.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	if title != "" {
		fmt.Printf("Statistics for %s:\n", title)
	} else {
		fmt.Println("Statistics:")
	}
	s := report.Summary
	fmt.Printf("  Total:           %d\n", s.Total)
	fmt.Printf("  Today:           %d\n", s.Today)
	fmt.Printf("  Current Streak:  %d days\n", s.CurrentStreak)
	fmt.Printf("  Longest Streak:  %d days\n", s.LongestStreak)
	fmt.Printf("  This Week:       %d\n", s.ThisWeek)
	fmt.Printf("  This Month:      %d\n", s.ThisMonth)
	fmt.Printf("  Weekly Average:  %.1f\n", s.WeeklyAverage)
	fmt.Printf("\nLast %d days:\n", c.Days)
	fmt.Println(renderGrid(report.Grid, time.Weekday(settings.WeekStart), color))
	return nil
}

// renderGrid lays the days out in week rows starting on weekStart.
func renderGrid(days []stats.Day, weekStart time.Weekday, color string) string {
	if len(days) == 0 {
		return ""
	}
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
	var b strings.Builder
	b.WriteString("  ")
	lead := (int(days[0].Date.Weekday()) - int(weekStart) + 7) % 7
	b.WriteString(strings.Repeat("  ", lead))
	col := lead
	for _, d := range days {
		if col == 7 {
			b.WriteString("\n  ")
			col = 0
		}
		b.WriteString(style.Render(shade(d.Opacity)))
		b.WriteString(" ")
		col++
	}
	return b.String()
}

func shade(opacity float64) string {
	switch {
	case opacity >= 1.0:
		return "█"
	case opacity >= 0.75:
		return "▓"
	case opacity >= 0.55:
		return "▒"
	case opacity >= 0.35:
		return "░"
	default:
		return "·"
	}
}
