package checkins

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/julianstephens/vigil/internal/cli"
	"github.com/julianstephens/vigil/internal/config"
	"github.com/julianstephens/vigil/internal/models"
	"github.com/julianstephens/vigil/internal/stats"
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

func addPrayer(t *testing.T, ctx *cli.Context, title string) models.Prayer {
	t.Helper()
	p := models.Prayer{ID: strings.ToLower(title), Title: title, CreatedAt: time.Now()}
	p.ApplyDefaults()
	if err := ctx.Store.AddPrayer(p); err != nil {
		t.Fatalf("failed to add prayer: %v", err)
	}
	return p
}

func TestCheckInCmd(t *testing.T) {
	ctx := setupTestDB(t)
	p := addPrayer(t, ctx, "Angelus")

	tests := []struct {
		name      string
		cmd       *CheckInCmd
		wantTitle string
		wantBound bool
	}{
		{name: "by title", cmd: &CheckInCmd{Prayer: "angelus"}, wantTitle: "Angelus", wantBound: true},
		{name: "title override", cmd: &CheckInCmd{Prayer: p.ID, Title: "Noon Angelus"}, wantTitle: "Noon Angelus", wantBound: true},
		{name: "generic", cmd: &CheckInCmd{Title: "Quiet time"}, wantTitle: "Quiet time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, _ := ctx.Store.GetCheckIns()
			if err := tt.cmd.Run(ctx); err != nil {
				t.Fatalf("checkin failed: %v", err)
			}
			after, err := ctx.Store.GetCheckIns()
			if err != nil {
				t.Fatalf("failed to get check-ins: %v", err)
			}
			if len(after) != len(before)+1 {
				t.Fatalf("expected one new check-in, got %d", len(after)-len(before))
			}
			var added *models.CheckIn
			for i := range after {
				if after[i].Title != nil && *after[i].Title == tt.wantTitle {
					added = &after[i]
				}
			}
			if added == nil {
				t.Fatalf("no check-in titled %q", tt.wantTitle)
			}
			if bound := added.PrayerID != nil; bound != tt.wantBound {
				t.Errorf("check-in bound to prayer = %v, want %v", bound, tt.wantBound)
			}
		})
	}

	if err := (&CheckInCmd{Prayer: "missing"}).Run(ctx); err == nil {
		t.Error("expected an error for an unknown prayer")
	}
}

func TestStatsCmd(t *testing.T) {
	ctx := setupTestDB(t)
	p := addPrayer(t, ctx, "Rosary")
	if err := (&CheckInCmd{Prayer: p.ID}).Run(ctx); err != nil {
		t.Fatalf("checkin failed: %v", err)
	}

	tests := []struct {
		name    string
		cmd     *StatsCmd
		wantErr bool
	}{
		{name: "all prayers", cmd: &StatsCmd{Days: 28}},
		{name: "one prayer", cmd: &StatsCmd{Prayer: "Rosary", Days: 7}},
		{name: "json", cmd: &StatsCmd{Days: 14, JSON: true}},
		{name: "no days", cmd: &StatsCmd{Days: 0}, wantErr: true},
		{name: "unknown prayer", cmd: &StatsCmd{Prayer: "missing", Days: 7}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.Run(ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("Run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStatsCmd_IncludesQueuedCheckIns(t *testing.T) {
	ctx := setupTestDB(t)
	p := addPrayer(t, ctx, "Compline")
	bg := context.Background()

	// Left by a session surface while no daemon was running.
	s, err := ctx.Services(bg, nil)
	if err != nil {
		t.Fatalf("failed to build services: %v", err)
	}
	if _, err := s.CheckIns.Enqueue(bg, p.ID, "session-1"); err != nil {
		t.Fatalf("failed to queue check-in: %v", err)
	}

	if err := (&StatsCmd{Prayer: p.ID, Days: 7}).Run(ctx); err != nil {
		t.Fatalf("stats failed: %v", err)
	}

	checkIns, err := ctx.Store.GetCheckInsForPrayer(p.ID)
	if err != nil {
		t.Fatalf("failed to get check-ins: %v", err)
	}
	if len(checkIns) != 1 {
		t.Errorf("stored check-ins = %d, want the queued one", len(checkIns))
	}
	if left := s.CheckIns.Entries(bg); len(left) != 0 {
		t.Errorf("queue not drained: %+v", left)
	}

	// Exporting again does not duplicate it.
	if err := (&ExportCmd{Output: filepath.Join(t.TempDir(), "out.yaml")}).Run(ctx); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if again, _ := ctx.Store.GetCheckInsForPrayer(p.ID); len(again) != 1 {
		t.Errorf("check-ins after export = %d, want 1", len(again))
	}
}

func TestRenderGrid(t *testing.T) {
	loc := time.UTC
	// 2026-10-11 is a Sunday.
	start := time.Date(2026, 10, 11, 0, 0, 0, 0, loc)
	var days []stats.Day
	for i := 0; i < 8; i++ {
		count := 0
		if i == 0 {
			count = 5
		}
		days = append(days, stats.Day{Date: start.AddDate(0, 0, i), Count: count, Opacity: stats.Opacity(count)})
	}

	out := renderGrid(days, time.Sunday, "#9333EA")
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 week rows, got %d: %q", len(lines), out)
	}
	if !strings.Contains(lines[0], "█") {
		t.Errorf("first row missing full cell: %q", lines[0])
	}

	// Starting the week on Monday pushes Sunday to the end of a row.
	out = renderGrid(days, time.Monday, "#9333EA")
	if lines := strings.Split(out, "\n"); len(lines) != 2 || strings.Count(lines[0], "·") != 0 {
		t.Errorf("unexpected Monday layout: %q", out)
	}
}

func TestExportCmd(t *testing.T) {
	ctx := setupTestDB(t)
	p := addPrayer(t, ctx, "Vespers")
	if err := (&CheckInCmd{Prayer: p.ID}).Run(ctx); err != nil {
		t.Fatalf("checkin failed: %v", err)
	}
	if err := (&CheckInCmd{Title: "Walk"}).Run(ctx); err != nil {
		t.Fatalf("checkin failed: %v", err)
	}
	alarm := models.Alarm{ID: "a1", PrayerID: &p.ID, Hour: 18, DurationMinutes: 15, CreatedAt: time.Now()}
	if err := ctx.Store.AddAlarm(alarm); err != nil {
		t.Fatalf("failed to add alarm: %v", err)
	}

	out := filepath.Join(t.TempDir(), "export.yaml")
	if err := (&ExportCmd{Output: out}).Run(ctx); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	raw, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("failed to read export: %v", err)
	}
	var got export
	if err := yaml.Unmarshal(raw, &got); err != nil {
		t.Fatalf("export is not valid YAML: %v", err)
	}
	if len(got.Prayers) != 1 {
		t.Fatalf("expected 1 prayer, got %d", len(got.Prayers))
	}
	vespers := got.Prayers[0]
	if vespers.Title != "Vespers" || len(vespers.CheckIns) != 1 || len(vespers.Alarms) != 1 {
		t.Errorf("prayer not grouped: %+v", vespers)
	}
	if vespers.Alarms[0].Time != "18:00" {
		t.Errorf("alarm time = %q, want 18:00", vespers.Alarms[0].Time)
	}
	if len(got.CheckIns) != 1 {
		t.Errorf("expected 1 generic check-in, got %d", len(got.CheckIns))
	}
}
