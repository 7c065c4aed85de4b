package system

import (
	"context"
	"fmt"
	"os"

	"github.com/julianstephens/vigil/internal/cli"
	"github.com/julianstephens/vigil/internal/config"
	"github.com/julianstephens/vigil/internal/storage"
)

type InitCmd struct {
	Force bool `help:"Force reset by deleting existing database before initialization."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		if _, ok := ctx.Store.(*storage.SQLiteStore); !ok {
			return fmt.Errorf("--force is only supported for SQLite storage")
		}
		dbPath := ctx.Store.GetConfigPath()
		if _, err := os.Stat(dbPath); err == nil {
			if err := ctx.Store.Close(); err != nil {
				return fmt.Errorf("failed to close existing database: %w", err)
			}
			if err := os.Remove(dbPath); err != nil {
				return fmt.Errorf("failed to delete existing database: %w", err)
			}
			fmt.Printf("Deleted existing database at: %s\n", dbPath)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing database: %w", err)
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	fmt.Printf("Initialized vigil storage at: %s\n", ctx.Store.GetConfigPath())

	if _, err := ctx.KV(context.Background()); err != nil {
		return err
	}
	if ctx.Config.KV.Backend == config.KVBackendFile {
		fmt.Printf("Shared state directory: %s\n", ctx.Config.KV.Dir)
	}
	return nil
}
