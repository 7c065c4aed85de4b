package system

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/julianstephens/vigil/internal/backup"
	"github.com/julianstephens/vigil/internal/cli"
	"github.com/julianstephens/vigil/internal/constants"
	"github.com/julianstephens/vigil/internal/keyring"
	"github.com/julianstephens/vigil/internal/kvstore"
	"github.com/julianstephens/vigil/internal/migration"
	"github.com/julianstephens/vigil/internal/remote"
	"github.com/julianstephens/vigil/internal/storage"
	"github.com/julianstephens/vigil/internal/utils"
	"github.com/julianstephens/vigil/migrations"
)

type DoctorCmd struct{}

type checkLevel int

const (
	levelFail checkLevel = iota
	levelWarn
)

type check struct {
	name  string
	level checkLevel
	// needsDB checks are skipped when the database is not reachable.
	needsDB bool
	run     func(context.Context, *cli.Context) error
}

var checks = []check{
	{name: "Database reachable", level: levelFail, run: checkDBReachable},
	{name: "Schema version", level: levelFail, needsDB: true, run: checkSchemaVersion},
	{name: "Timezone setting", level: levelFail, needsDB: true, run: checkTimezone},
	{name: "Shared state store", level: levelFail, run: checkSharedStore},
	{name: "Alarm conflicts", level: levelWarn, needsDB: true, run: checkAlarmConflicts},
	{name: "Pending check-ins", level: levelWarn, run: checkPendingCheckIns},
	{name: "Backups present", level: levelWarn, run: checkBackupsPresent},
	{name: "OS keyring", level: levelWarn, run: checkKeyring},
	{name: "Daemon running", level: levelWarn, run: checkDaemon},
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	fmt.Println("Running diagnostics...")
	fmt.Println()

	bg, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	hasError := false
	dbReachable := true
	for _, c := range checks {
		if c.needsDB && !dbReachable {
			fmt.Printf("⊘ %s: SKIPPED (database not reachable)\n", c.name)
			continue
		}
		err := c.run(bg, ctx)
		switch {
		case err == nil:
			fmt.Printf("✓ %s: OK\n", c.name)
		case c.level == levelWarn:
			fmt.Printf("⚠ %s: WARNING\n", c.name)
			fmt.Printf("   %v\n", err)
		default:
			fmt.Printf("❌ %s: FAIL\n", c.name)
			fmt.Printf("   Error: %v\n", err)
			hasError = true
			if c.name == "Database reachable" {
				dbReachable = false
			}
		}
	}

	fmt.Println()
	if hasError {
		fmt.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}
	fmt.Println("All diagnostics passed!")
	return nil
}

func checkDBReachable(_ context.Context, ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}
	if _, err := ctx.Store.GetSettings(); err != nil {
		return fmt.Errorf("failed to query database: %w", err)
	}
	return nil
}

func checkSchemaVersion(_ context.Context, ctx *cli.Context) error {
	sqliteStore, ok := ctx.Store.(*storage.SQLiteStore)
	if !ok {
		// Load already validated the version for other backends.
		return nil
	}
	db := sqliteStore.GetDB()
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}
	sub, err := fs.Sub(migrations.FS, string(migration.DriverSQLite))
	if err != nil {
		return err
	}
	return migration.NewRunner(db, sub, migration.DriverSQLite).ValidateVersion()
}

func checkTimezone(_ context.Context, ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return err
	}
	if !utils.ValidateTimezone(settings.Timezone) {
		return fmt.Errorf("unknown timezone %q, fix it with 'vigil settings --timezone'", settings.Timezone)
	}
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	return nil
}

func checkSharedStore(bg context.Context, ctx *cli.Context) error {
	kv, err := ctx.KV(bg)
	if err != nil {
		return err
	}
	if _, err := kv.Get(bg, constants.KeyActivities); err != nil && !errors.Is(err, kvstore.ErrNotFound) {
		return fmt.Errorf("failed to read shared state: %w", err)
	}
	return nil
}

func checkAlarmConflicts(_ context.Context, ctx *cli.Context) error {
	result, err := validateAlarms(ctx)
	if err != nil {
		return err
	}
	if result.HasConflicts() {
		return fmt.Errorf("%d conflict(s) found, run 'vigil validate' for details", len(result.Conflicts))
	}
	return nil
}

func checkPendingCheckIns(bg context.Context, ctx *cli.Context) error {
	s, err := ctx.Services(bg, nil)
	if err != nil {
		return err
	}
	if n := len(s.CheckIns.Entries(bg)); n > 0 {
		return fmt.Errorf("%d check-in(s) waiting to be saved, they are applied when the daemon runs", n)
	}
	return nil
}

func checkBackupsPresent(_ context.Context, ctx *cli.Context) error {
	if _, ok := ctx.Store.(*storage.SQLiteStore); !ok {
		return nil
	}
	mgr := backup.NewManager(ctx.Store.GetConfigPath())
	backups, err := mgr.ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found - consider creating one with 'vigil backup create'")
	}
	return nil
}

func checkKeyring(_ context.Context, _ *cli.Context) error {
	if !keyring.IsAvailable() {
		return keyring.ErrKeyringUnavailable
	}
	return nil
}

func checkDaemon(bg context.Context, ctx *cli.Context) error {
	c := remote.NewClient(ctx.Config.Daemon.Listen, ctx.RemoteSecret())
	if err := c.Health(bg); err != nil {
		return fmt.Errorf("no daemon at %s, notifications will not fire until 'vigil daemon' runs", ctx.Config.Daemon.Listen)
	}
	return nil
}
