package system

import (
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/vigil/internal/cli"
	"github.com/julianstephens/vigil/internal/keyring"
	"github.com/julianstephens/vigil/internal/storage"
)

// KeyringSetCmd stores a database connection string, or with --secret the
// remote-action secret, in the OS keyring.
type KeyringSetCmd struct {
	Value  string `arg:"" help:"PostgreSQL connection string, or the secret with --secret."`
	Secret bool   `help:"Store the remote-action secret instead of a connection string."`
}

func (cmd *KeyringSetCmd) Run(ctx *cli.Context) error {
	if cmd.Secret {
		if err := keyring.SetRemoteSecret(cmd.Value); err != nil {
			return err
		}
		fmt.Println("✓ Remote secret stored in OS keyring")
		fmt.Println("  Restart the daemon to use it")
		return nil
	}

	if !storage.IsPostgresConnString(cmd.Value) && !strings.Contains(cmd.Value, "host=") {
		return errors.New("connection string must be a valid PostgreSQL connection string")
	}
	if _, err := storage.ValidateConnString(cmd.Value); err != nil {
		if !errors.Is(err, storage.ErrEmbeddedCredentials) {
			return fmt.Errorf("invalid connection string: %w", err)
		}
		fmt.Println("⚠️  Warning: Connection string contains embedded credentials.")
		fmt.Println("   It will be stored as-is in the encrypted OS keyring.")
	}

	if err := keyring.SetConnectionString(cmd.Value); err != nil {
		return err
	}
	fmt.Println("✓ Connection string stored successfully in OS keyring")
	fmt.Println("  Set 'database: keyring' in config.yaml to use it")
	return nil
}

type KeyringDeleteCmd struct {
	Secret bool `help:"Delete the remote-action secret instead of the connection string."`
}

func (cmd *KeyringDeleteCmd) Run(ctx *cli.Context) error {
	what, del := "Connection string", keyring.DeleteConnectionString
	if cmd.Secret {
		what, del = "Remote secret", keyring.DeleteRemoteSecret
	}
	if err := del(); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("no %s found in keyring", strings.ToLower(what))
		}
		return err
	}
	fmt.Printf("✓ %s deleted from OS keyring\n", what)
	return nil
}

type KeyringStatusCmd struct{}

func (cmd *KeyringStatusCmd) Run(ctx *cli.Context) error {
	if !keyring.IsAvailable() {
		fmt.Println("❌ OS keyring is not available on this system")
		return keyring.ErrKeyringUnavailable
	}
	fmt.Println("✓ OS keyring is available")

	if connStr, err := keyring.GetConnectionString(); err == nil {
		fmt.Printf("✓ Connection string: %s\n", maskPassword(connStr))
	} else {
		fmt.Println("ℹ No connection string stored in keyring")
	}
	if _, err := keyring.GetRemoteSecret(); err == nil {
		fmt.Println("✓ Remote secret is stored in keyring")
	} else {
		fmt.Println("ℹ No remote secret stored in keyring")
	}
	return nil
}

// maskPassword masks passwords in connection strings for display
func maskPassword(connStr string) string {
	if storage.IsPostgresConnString(connStr) {
		if idx := strings.Index(connStr, "://"); idx != -1 {
			remaining := connStr[idx+3:]
			if atIdx := strings.LastIndex(remaining, "@"); atIdx != -1 {
				userInfo := remaining[:atIdx]
				if colonIdx := strings.Index(userInfo, ":"); colonIdx != -1 {
					return connStr[:idx+3] + userInfo[:colonIdx] + ":****" + connStr[idx+3+atIdx:]
				}
			}
		}
	}

	if strings.Contains(connStr, "password=") {
		parts := strings.Fields(connStr)
		for i, part := range parts {
			if strings.HasPrefix(part, "password=") {
				parts[i] = "password=****"
			}
		}
		return strings.Join(parts, " ")
	}
	return connStr
}
