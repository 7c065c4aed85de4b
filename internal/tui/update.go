package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.bar.Width = max(10, msg.Width-24)

	case tickMsg:
		return m, tea.Batch(m.fetch(), tick())

	case activitiesMsg:
		m.err = msg.err
		if msg.err == nil {
			m.activities = msg.list
		}
		if m.cursor >= len(m.activities) {
			m.cursor = max(0, len(m.activities)-1)
		}

	case actionMsg:
		m.err = msg.err
		if msg.err == nil {
			m.status = msg.status
		}
		return m, m.fetch()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.activities)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Refresh):
			return m, m.fetch()
		case key.Matches(msg, m.keys.Start):
			if a, ok := m.Selected(); ok {
				return m, m.start(a)
			}
		case key.Matches(msg, m.keys.CheckIn):
			if a, ok := m.Selected(); ok {
				return m, m.checkIn(a)
			}
		}
	}

	return m, nil
}
