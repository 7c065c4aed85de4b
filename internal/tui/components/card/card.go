// Package card renders one running session.
package card

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/vigil/internal/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(8)

	phaseStyles = map[models.Phase]lipgloss.Style{
		models.PhaseWarning:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Italic(true),
		models.PhaseReady:     lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
		models.PhaseActive:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		models.PhaseCompleted: lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true),
	}

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)

	selectedBoxStyle = boxStyle.
				BorderForeground(lipgloss.Color("205"))
)

// Remaining is the countdown of a as of now. Only active sessions count
// down; the stored state is as of its last update.
func Remaining(a models.Activity, now time.Time) int {
	r := a.State.RemainingSeconds
	if a.State.Phase == models.PhaseActive && !a.State.LastUpdate.IsZero() {
		r -= int(now.Sub(a.State.LastUpdate) / time.Second)
	}
	if r < 0 {
		r = 0
	}
	return r
}

// Progress is the fraction of the countdown elapsed as of now.
func Progress(a models.Activity, now time.Time) float64 {
	switch {
	case a.State.Phase == models.PhaseCompleted:
		return 1
	case a.State.TotalSeconds <= 0:
		return 0
	}
	return 1 - float64(Remaining(a, now))/float64(a.State.TotalSeconds)
}

func Render(a models.Activity, bar progress.Model, now time.Time, selected bool, width int) string {
	var b strings.Builder

	icon := a.Attributes.IconName
	if icon == "" {
		icon = "🙏"
	}
	b.WriteString(titleStyle.Render(icon + " " + a.Attributes.PrayerTitle))
	if a.Attributes.PrayerSubtitle != "" {
		b.WriteString("  " + subtitleStyle.Render(a.Attributes.PrayerSubtitle))
	}
	b.WriteString("\n")

	phase := phaseStyles[a.State.Phase].Render(phaseLabel(a, now))
	b.WriteString(timeStyle.Render(a.Attributes.AlarmTime.Format("15:04")) + phase + "\n")

	remaining := Remaining(a, now)
	b.WriteString(bar.ViewAs(Progress(a, now)))
	b.WriteString(fmt.Sprintf("  %02d:%02d", remaining/60, remaining%60))

	style := boxStyle
	if selected {
		style = selectedBoxStyle
	}
	if width > 4 {
		style = style.Width(width - 4)
	}
	return style.Render(b.String())
}

func phaseLabel(a models.Activity, now time.Time) string {
	switch a.State.Phase {
	case models.PhaseWarning:
		mins := int(a.Attributes.AlarmTime.Sub(now).Round(time.Minute) / time.Minute)
		if mins <= 0 {
			return "Starting now"
		}
		return fmt.Sprintf("Starts in %d min", mins)
	case models.PhaseReady:
		return "Ready to begin"
	case models.PhaseActive:
		return "Praying"
	case models.PhaseCompleted:
		return "Complete"
	}
	return string(a.State.Phase)
}
