package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/vigil/internal/constants"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.File != "" {
		t.Errorf("File = %q, want none", cfg.File)
	}
	if cfg.Database != filepath.Join(dir, "vigil.db") {
		t.Errorf("Database = %q", cfg.Database)
	}
	if cfg.KV.Backend != KVBackendFile || cfg.KV.Dir != filepath.Join(dir, "shared") {
		t.Errorf("KV = %+v", cfg.KV)
	}
	if cfg.Daemon.Listen != constants.DefaultListenAddr || cfg.Daemon.PollInterval != time.Minute {
		t.Errorf("Daemon = %+v", cfg.Daemon)
	}
	if cfg.Daemon.Grace != constants.NotificationGracePeriod {
		t.Errorf("Grace = %s", cfg.Daemon.Grace)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := `database: postgres://vigil@localhost/vigil
kv:
  backend: redis
  redis:
    addr: redis.internal:6380
    db: 2
daemon:
  listen: 127.0.0.1:9000
  poll_interval: 30s
debug: true
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("VIGIL_DAEMON_LISTEN", "127.0.0.1:9100")
	t.Setenv("VIGIL_KV_REDIS_PREFIX", "test:")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !strings.HasSuffix(cfg.File, "config.yaml") {
		t.Errorf("File = %q", cfg.File)
	}
	if cfg.Database != "postgres://vigil@localhost/vigil" {
		t.Errorf("Database = %q", cfg.Database)
	}
	if cfg.KV.Backend != KVBackendRedis || cfg.KV.Redis.Addr != "redis.internal:6380" || cfg.KV.Redis.DB != 2 {
		t.Errorf("KV = %+v", cfg.KV)
	}
	if cfg.KV.Redis.Prefix != "test:" {
		t.Errorf("env prefix override ignored: %q", cfg.KV.Redis.Prefix)
	}
	if cfg.Daemon.Listen != "127.0.0.1:9100" {
		t.Errorf("env listen override ignored: %q", cfg.Daemon.Listen)
	}
	if cfg.Daemon.PollInterval != 30*time.Second || !cfg.Debug {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown backend", "kv:\n  backend: etcd\n"},
		{"zero poll interval", "daemon:\n  poll_interval: 0s\n"},
		{"malformed yaml", "kv: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(tt.yaml), 0600); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(dir); err == nil {
				t.Error("Load() succeeded, want error")
			}
		})
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	got, err := ExpandHome("~/.config/vigil")
	if err != nil || got != filepath.Join(home, ".config", "vigil") {
		t.Errorf("ExpandHome() = %q, %v", got, err)
	}
	if got, _ := ExpandHome("/tmp/x"); got != "/tmp/x" {
		t.Errorf("ExpandHome(abs) = %q", got)
	}
}
