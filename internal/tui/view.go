package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/vigil/internal/tui/components/card"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	now := m.now()
	var cards []string
	for i, a := range m.activities {
		cards = append(cards, card.Render(a, m.bar, now, i == m.cursor, m.width))
	}

	content := statusStyle.Render("No prayers in progress.")
	if len(cards) > 0 {
		content = lipgloss.JoinVertical(lipgloss.Left, cards...)
	}

	footer := statusStyle.Render(m.status)
	if m.err != nil {
		footer = errorStyle.Render("⚠ " + m.err.Error())
	}

	return docStyle.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		headerStyle.Render("vigil"),
		"",
		content,
		"",
		footer,
		m.help.View(m.keys),
	))
}
