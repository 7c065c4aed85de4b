package settings

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/julianstephens/vigil/internal/cli"
	"github.com/julianstephens/vigil/internal/config"
	"github.com/julianstephens/vigil/internal/services"
	"github.com/julianstephens/vigil/internal/storage"
)

func setupTestDB(t *testing.T) *cli.Context {
	t.Helper()
	dir := t.TempDir()
	store := storage.NewSQLiteStore(filepath.Join(dir, "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	ctx := cli.NewContext(&config.Config{
		Dir:         dir,
		CalendarDir: filepath.Join(dir, "calendar"),
		KV:          config.KVConfig{Backend: config.KVBackendFile, Dir: filepath.Join(dir, "shared")},
	}, store)
	t.Cleanup(func() {
		if err := ctx.Close(); err != nil {
			t.Errorf("failed to close context: %v", err)
		}
	})
	return ctx
}

func TestSettingsCmd_List(t *testing.T) {
	ctx := setupTestDB(t)

	cmd := &SettingsCmd{List: true}
	if err := cmd.Run(ctx); err != nil {
		t.Errorf("settings list failed: %v", err)
	}
}

func TestSettingsCmd_UpdateMultiple(t *testing.T) {
	ctx := setupTestDB(t)

	tz := "Europe/Rome"
	weekStart := 1
	requireStart := true
	duration := 20
	live := false

	cmd := &SettingsCmd{
		Timezone:              &tz,
		WeekStart:             &weekStart,
		RequireStartTap:       &requireStart,
		DefaultDurationMin:    &duration,
		LiveActivitiesEnabled: &live,
	}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("settings update failed: %v", err)
	}

	got, err := ctx.Store.GetSettings()
	if err != nil {
		t.Fatalf("failed to get updated settings: %v", err)
	}
	if got.Timezone != tz {
		t.Errorf("expected Timezone %q, got %q", tz, got.Timezone)
	}
	if got.WeekStart != weekStart {
		t.Errorf("expected WeekStart %d, got %d", weekStart, got.WeekStart)
	}
	if !got.RequireStartTap {
		t.Error("expected RequireStartTap to be true")
	}
	if got.DefaultDurationMin != duration {
		t.Errorf("expected DefaultDurationMin %d, got %d", duration, got.DefaultDurationMin)
	}
	if got.LiveActivitiesEnabled {
		t.Error("expected LiveActivitiesEnabled to be false")
	}
}

func TestSettingsCmd_InvalidValues(t *testing.T) {
	badTZ := "Mars/Olympus"
	badWeek := 7
	zero := 0
	tooLong := 241

	tests := []struct {
		name string
		cmd  *SettingsCmd
	}{
		{name: "unknown timezone", cmd: &SettingsCmd{Timezone: &badTZ}},
		{name: "week start out of range", cmd: &SettingsCmd{WeekStart: &badWeek}},
		{name: "zero duration", cmd: &SettingsCmd{DefaultDurationMin: &zero}},
		{name: "duration too long", cmd: &SettingsCmd{DefaultDurationMin: &tooLong}},
		{name: "zero reminder", cmd: &SettingsCmd{DefaultReminderMin: &zero}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := setupTestDB(t)
			before, err := ctx.Store.GetSettings()
			if err != nil {
				t.Fatalf("failed to get settings: %v", err)
			}
			if err := tt.cmd.Run(ctx); err == nil {
				t.Error("expected an error, got nil")
			}
			after, err := ctx.Store.GetSettings()
			if err != nil {
				t.Fatalf("failed to get settings: %v", err)
			}
			if after != before {
				t.Errorf("settings changed after a rejected update: %+v", after)
			}
		})
	}
}

func TestPermissionsCmd(t *testing.T) {
	ctx := setupTestDB(t)

	cmd := &PermissionsCmd{Notifications: "authorized", Calendar: "denied"}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("permissions failed: %v", err)
	}

	s, err := ctx.Services(context.Background(), nil)
	if err != nil {
		t.Fatalf("failed to build services: %v", err)
	}
	if st, _ := s.NotificationAuth.Status(context.Background()); st != services.AuthAuthorized {
		t.Errorf("notification access = %s, want authorized", st)
	}
	if st, _ := s.CalendarAuth.Status(context.Background()); st != services.AuthDenied {
		t.Errorf("calendar access = %s, want denied", st)
	}

	reset := &PermissionsCmd{Notifications: "not_determined"}
	if err := reset.Run(ctx); err != nil {
		t.Fatalf("permissions reset failed: %v", err)
	}
	if st, _ := s.NotificationAuth.Status(context.Background()); st != services.AuthNotDetermined {
		t.Errorf("notification access after reset = %s", st)
	}
}
