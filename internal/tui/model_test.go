package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/vigil/internal/models"
)

type fakeRemote struct {
	list     []models.Activity
	started  []string
	checked  []string
	startErr error
}

func (f *fakeRemote) CheckIn(_ context.Context, prayerID, activityID string) error {
	f.checked = append(f.checked, prayerID+"/"+activityID)
	return nil
}

func (f *fakeRemote) Start(_ context.Context, activityID string) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.started = append(f.started, activityID)
	return nil
}

func (f *fakeRemote) Activities(context.Context) ([]models.Activity, error) {
	return f.list, nil
}

var now = time.Date(2026, 5, 1, 21, 2, 0, 0, time.UTC)

func activity(id string, phase models.Phase) models.Activity {
	return models.Activity{
		ID: id,
		Attributes: models.ActivityAttributes{
			SessionID:       "s-" + id,
			PrayerID:        "p-" + id,
			PrayerTitle:     "Prayer " + id,
			AlarmTime:       now.Add(-2 * time.Minute),
			DurationMinutes: 5,
		},
		State: models.ActivityState{Phase: phase, RemainingSeconds: 300, TotalSeconds: 300, LastUpdate: now.Add(-time.Minute)},
	}
}

func press(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// load runs Init's fetch and feeds the result back into the model.
func load(t *testing.T, m Model) Model {
	t.Helper()
	next, _ := m.Update(m.fetch()())
	return next.(Model)
}

func TestModelActions(t *testing.T) {
	r := &fakeRemote{list: []models.Activity{activity("a", models.PhaseActive), activity("b", models.PhaseReady)}}
	m := load(t, NewModel(r, func() time.Time { return now }))

	if a, ok := m.Selected(); !ok || a.ID != "a" {
		t.Fatalf("Selected() = %v, %v", a.ID, ok)
	}

	next, _ := m.Update(press("j"))
	m = next.(Model)
	next, cmd := m.Update(press("s"))
	m = next.(Model)
	if cmd == nil {
		t.Fatal("start key returned no command")
	}
	next, _ = m.Update(cmd())
	m = next.(Model)
	if len(r.started) != 1 || r.started[0] != "b" {
		t.Errorf("started = %v", r.started)
	}
	if !strings.Contains(m.status, "Prayer b") {
		t.Errorf("status = %q", m.status)
	}

	next, _ = m.Update(press("k"))
	m = next.(Model)
	_, cmd = m.Update(press("c"))
	cmd()
	if len(r.checked) != 1 || r.checked[0] != "p-a/a" {
		t.Errorf("checked = %v", r.checked)
	}
}

func TestModelActionError(t *testing.T) {
	r := &fakeRemote{list: []models.Activity{activity("a", models.PhaseActive)}, startErr: errors.New("not ready")}
	m := load(t, NewModel(r, func() time.Time { return now }))

	_, cmd := m.Update(press("s"))
	next, _ := m.Update(cmd())
	m = next.(Model)
	if m.err == nil {
		t.Fatal("error not surfaced")
	}
	if !strings.Contains(m.View(), "not ready") {
		t.Error("View() does not show the error")
	}
}

func TestModelEmptyAndCursorClamp(t *testing.T) {
	r := &fakeRemote{list: []models.Activity{activity("a", models.PhaseActive), activity("b", models.PhaseReady)}}
	m := load(t, NewModel(r, func() time.Time { return now }))
	next, _ := m.Update(press("j"))
	m = next.(Model)

	r.list = nil
	m = load(t, m)
	if m.cursor != 0 {
		t.Errorf("cursor = %d after list emptied", m.cursor)
	}
	if _, cmd := m.Update(press("s")); cmd != nil {
		t.Error("start with no activity returned a command")
	}
	if !strings.Contains(m.View(), "No prayers in progress") {
		t.Error("empty view missing placeholder")
	}
}

func TestModelQuit(t *testing.T) {
	m := NewModel(&fakeRemote{}, nil)
	next, cmd := m.Update(press("q"))
	if cmd == nil || next.(Model).View() != "" {
		t.Error("q did not quit")
	}
}
