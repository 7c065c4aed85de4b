// Package config loads process configuration from config.yaml in the config
// directory, overridden by VIGIL_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/julianstephens/vigil/internal/constants"
)

const (
	KVBackendFile  = "file"
	KVBackendRedis = "redis"
)

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// KVConfig selects the store shared between vigil processes.
type KVConfig struct {
	Backend string      `mapstructure:"backend"`
	Dir     string      `mapstructure:"dir"`
	Redis   RedisConfig `mapstructure:"redis"`
}

type DaemonConfig struct {
	Listen       string        `mapstructure:"listen"`
	Secret       string        `mapstructure:"secret"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Grace        time.Duration `mapstructure:"grace"`
}

type Config struct {
	// Dir is the directory config.yaml was looked up in.
	Dir string `mapstructure:"-"`
	// File is the config file that was read, empty when none exists.
	File string `mapstructure:"-"`

	// Database is a SQLite path or a PostgreSQL connection string.
	Database    string       `mapstructure:"database"`
	CalendarDir string       `mapstructure:"calendar_dir"`
	KV          KVConfig     `mapstructure:"kv"`
	Daemon      DaemonConfig `mapstructure:"daemon"`
	Debug       bool         `mapstructure:"debug"`
}

// Load reads dir/config.yaml when present. Every key can be set through the
// environment, e.g. VIGIL_KV_BACKEND or VIGIL_DAEMON_LISTEN.
func Load(dir string) (*Config, error) {
	dir, err := ExpandHome(dir)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.SetEnvPrefix(strings.ToUpper(constants.AppName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("database", filepath.Join(dir, constants.AppName+".db"))
	v.SetDefault("calendar_dir", filepath.Join(dir, "calendar"))
	v.SetDefault("kv.backend", KVBackendFile)
	v.SetDefault("kv.dir", filepath.Join(dir, "shared"))
	v.SetDefault("kv.redis.addr", "localhost:6379")
	v.SetDefault("kv.redis.password", "")
	v.SetDefault("kv.redis.db", 0)
	v.SetDefault("kv.redis.prefix", constants.AppName+":")
	v.SetDefault("daemon.listen", constants.DefaultListenAddr)
	v.SetDefault("daemon.secret", "")
	v.SetDefault("daemon.poll_interval", time.Minute)
	v.SetDefault("daemon.grace", constants.NotificationGracePeriod)
	v.SetDefault("debug", false)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Dir = dir
	cfg.File = v.ConfigFileUsed()

	if !isConnString(cfg.Database) {
		if cfg.Database, err = ExpandHome(cfg.Database); err != nil {
			return nil, err
		}
	}
	if cfg.CalendarDir, err = ExpandHome(cfg.CalendarDir); err != nil {
		return nil, err
	}
	if cfg.KV.Dir, err = ExpandHome(cfg.KV.Dir); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.KV.Backend {
	case KVBackendFile:
		if c.KV.Dir == "" {
			return fmt.Errorf("kv.dir is required for the file backend")
		}
	case KVBackendRedis:
		if c.KV.Redis.Addr == "" {
			return fmt.Errorf("kv.redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown kv backend %q (expected %q or %q)", c.KV.Backend, KVBackendFile, KVBackendRedis)
	}
	if strings.TrimSpace(c.Database) == "" {
		return fmt.Errorf("database cannot be empty")
	}
	if c.Daemon.PollInterval <= 0 {
		return fmt.Errorf("daemon.poll_interval must be positive, got %s", c.Daemon.PollInterval)
	}
	if c.Daemon.Grace < 0 {
		return fmt.Errorf("daemon.grace cannot be negative, got %s", c.Daemon.Grace)
	}
	return nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

func isConnString(s string) bool {
	return strings.HasPrefix(s, "postgres://") || strings.HasPrefix(s, "postgresql://") || strings.Contains(s, "host=")
}
