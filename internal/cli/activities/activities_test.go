package activities

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/vigil/internal/cli"
	"github.com/julianstephens/vigil/internal/config"
	"github.com/julianstephens/vigil/internal/models"
	"github.com/julianstephens/vigil/internal/storage"
)

func setupTestDB(t *testing.T) (*cli.Context, *cli.Services) {
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
		Daemon:      config.DaemonConfig{Listen: "127.0.0.1:1"},
	}, store)
	t.Cleanup(func() {
		if err := ctx.Close(); err != nil {
			t.Errorf("failed to close context: %v", err)
		}
	})
	s, err := ctx.Services(context.Background(), nil)
	if err != nil {
		t.Fatalf("failed to build services: %v", err)
	}
	return ctx, s
}

func startActivity(t *testing.T, s *cli.Services, phase models.Phase) string {
	t.Helper()
	now := time.Now()
	s.Surface.SetEnabled(true)
	id, err := s.Surface.Start(context.Background(), models.ActivityAttributes{
		SessionID:       "session-1",
		PrayerID:        "p1",
		PrayerTitle:     "Compline",
		AlarmTime:       now,
		DurationMinutes: 10,
	}, models.ActivityState{Phase: phase, RemainingSeconds: 600, TotalSeconds: 600, LastUpdate: now})
	if err != nil {
		t.Fatalf("failed to start activity: %v", err)
	}
	return id
}

func TestActivityCommandsWithoutDaemon(t *testing.T) {
	ctx, s := setupTestDB(t)
	id := startActivity(t, s, models.PhaseReady)

	if err := (&ActivityListCmd{}).Run(ctx); err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if err := (&ActivityStartCmd{ID: id}).Run(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	sig, ok, err := s.Start.Take(context.Background())
	if err != nil || !ok {
		t.Fatalf("start request not recorded: ok=%v err=%v", ok, err)
	}
	if sig.ActivityID != id {
		t.Errorf("start request for %q, want %q", sig.ActivityID, id)
	}

	if err := (&ActivityCheckInCmd{ID: id}).Run(ctx); err != nil {
		t.Fatalf("check-in failed: %v", err)
	}
	entries := s.CheckIns.Entries(context.Background())
	if len(entries) != 1 || entries[0].PrayerID != "p1" {
		t.Errorf("queued check-ins = %+v, want one for p1", entries)
	}
}

func TestActivityStartRejectsActive(t *testing.T) {
	ctx, s := setupTestDB(t)
	id := startActivity(t, s, models.PhaseActive)

	if err := (&ActivityStartCmd{ID: id}).Run(ctx); err == nil {
		t.Error("expected an error starting an active session")
	}
	if err := (&ActivityStartCmd{ID: "missing"}).Run(ctx); err == nil {
		t.Error("expected an error starting an unknown session")
	}
}
