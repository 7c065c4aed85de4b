// Package tui is the watch view: the running sessions with their countdowns,
// and keys to begin a prayer or check in.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/vigil/internal/models"
	"github.com/julianstephens/vigil/internal/remote"
)

const (
	refreshInterval = time.Second
	requestTimeout  = 5 * time.Second
)

type activitiesMsg struct {
	list []models.Activity
	err  error
}

type actionMsg struct {
	status string
	err    error
}

type tickMsg time.Time

type Model struct {
	remote     remote.Remote
	keys       KeyMap
	help       help.Model
	bar        progress.Model
	now        func() time.Time
	activities []models.Activity
	cursor     int
	status     string
	err        error
	quitting   bool
	width      int
	height     int
}

// NewModel watches the activities r reports. now defaults to time.Now.
func NewModel(r remote.Remote, now func() time.Time) Model {
	if now == nil {
		now = time.Now
	}
	return Model{
		remote: r,
		keys:   DefaultKeyMap(),
		help:   help.New(),
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		now:    now,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetch(), tick())
}

// Selected returns the activity under the cursor.
func (m Model) Selected() (models.Activity, bool) {
	if m.cursor < 0 || m.cursor >= len(m.activities) {
		return models.Activity{}, false
	}
	return m.activities[m.cursor], true
}

func (m Model) fetch() tea.Cmd {
	r := m.remote
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		list, err := r.Activities(ctx)
		return activitiesMsg{list: list, err: err}
	}
}

func (m Model) start(a models.Activity) tea.Cmd {
	r := m.remote
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := r.Start(ctx, a.ID); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: "Beginning " + a.Attributes.PrayerTitle}
	}
}

func (m Model) checkIn(a models.Activity) tea.Cmd {
	r := m.remote
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := r.CheckIn(ctx, a.Attributes.PrayerID, a.ID); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: "Checked in: " + a.Attributes.PrayerTitle}
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}
