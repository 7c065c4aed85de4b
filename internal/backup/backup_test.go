package backup

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/vigil/internal/constants"
)

func setupTestDB(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "vigil.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE prayers (id TEXT PRIMARY KEY, title TEXT)`); err != nil {
		t.Fatalf("failed to create test table: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO prayers (id, title) VALUES ('p1', 'Lauds'), ('p2', 'Vespers')`); err != nil {
		t.Fatalf("failed to insert test data: %v", err)
	}
	return dbPath
}

func countPrayers(t *testing.T, path string) int {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM prayers").Scan(&n); err != nil {
		t.Fatalf("failed to count prayers in %s: %v", path, err)
	}
	return n
}

func TestCreateBackup(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)
	mgr.now = func() time.Time { return time.Date(2026, time.March, 1, 6, 30, 15, 0, time.Local) }

	backupPath, err := mgr.CreateBackup()
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}
	want := filepath.Join(filepath.Dir(dbPath), constants.BackupDirName, constants.BackupFilePrefix+"20260301-063015"+constants.BackupFileSuffix)
	if backupPath != want {
		t.Errorf("backup path = %s, want %s", backupPath, want)
	}
	if n := countPrayers(t, backupPath); n != 2 {
		t.Errorf("backup has %d prayers, want 2", n)
	}

	// Same second gets a counter suffix.
	second, err := mgr.CreateBackup()
	if err != nil {
		t.Fatal(err)
	}
	if second == backupPath {
		t.Error("second backup reused the first path")
	}

	backups, err := mgr.ListBackups()
	if err != nil || len(backups) != 2 {
		t.Fatalf("ListBackups() = %+v, %v", backups, err)
	}
}

func TestCreateBackupMissingDatabase(t *testing.T) {
	mgr := NewManager(filepath.Join(t.TempDir(), "missing.db"))
	if _, err := mgr.CreateBackup(); err == nil {
		t.Error("CreateBackup should fail when the database does not exist")
	}
}

func TestListBackupsIgnoresForeignFiles(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)

	if backups, err := mgr.ListBackups(); err != nil || len(backups) != 0 {
		t.Fatalf("ListBackups() on missing dir = %+v, %v", backups, err)
	}

	if err := os.MkdirAll(mgr.GetBackupDir(), 0700); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"notes.txt", constants.BackupFilePrefix + "garbage" + constants.BackupFileSuffix} {
		if err := os.WriteFile(filepath.Join(mgr.GetBackupDir(), name), []byte("x"), 0600); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := mgr.CreateBackup(); err != nil {
		t.Fatal(err)
	}
	backups, err := mgr.ListBackups()
	if err != nil || len(backups) != 1 {
		t.Errorf("ListBackups() = %+v, %v; want only the real backup", backups, err)
	}
}

func TestRotateBackups(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)

	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.Local)
	for i := 0; i < constants.MaxBackups+3; i++ {
		at := start.Add(time.Duration(i) * time.Hour)
		mgr.now = func() time.Time { return at }
		if _, err := mgr.CreateBackup(); err != nil {
			t.Fatalf("CreateBackup #%d failed: %v", i, err)
		}
	}

	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != constants.MaxBackups {
		t.Fatalf("kept %d backups, want %d", len(backups), constants.MaxBackups)
	}
	newest := start.Add(time.Duration(constants.MaxBackups+2) * time.Hour)
	if !backups[0].Timestamp.Equal(newest) {
		t.Errorf("newest backup = %v, want %v", backups[0].Timestamp, newest)
	}
	oldestKept := start.Add(3 * time.Hour)
	if !backups[len(backups)-1].Timestamp.Equal(oldestKept) {
		t.Errorf("oldest kept backup = %v, want %v", backups[len(backups)-1].Timestamp, oldestKept)
	}
}

func TestRestoreBackup(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)
	mgr.now = func() time.Time { return time.Date(2026, time.March, 1, 6, 0, 0, 0, time.Local) }

	backupPath, err := mgr.CreateBackup()
	if err != nil {
		t.Fatal(err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("DELETE FROM prayers"); err != nil {
		t.Fatal(err)
	}
	db.Close()

	mgr.now = func() time.Time { return time.Date(2026, time.March, 1, 7, 0, 0, 0, time.Local) }
	safety, err := mgr.RestoreBackup(backupPath)
	if err != nil {
		t.Fatalf("RestoreBackup failed: %v", err)
	}
	if n := countPrayers(t, dbPath); n != 2 {
		t.Errorf("restored database has %d prayers, want 2", n)
	}
	if safety == "" {
		t.Fatal("RestoreBackup did not back up the current database")
	}
	if n := countPrayers(t, safety); n != 0 {
		t.Errorf("safety backup has %d prayers, want 0", n)
	}

	if _, err := mgr.RestoreBackup(filepath.Join(t.TempDir(), "nope.db")); err == nil {
		t.Error("RestoreBackup should fail for a missing file")
	}
}
