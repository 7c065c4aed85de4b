package settings

import (
	"context"
	"fmt"

	"github.com/julianstephens/vigil/internal/cli"
	"github.com/julianstephens/vigil/internal/services"
)

// PermissionsCmd shows or records the notification and calendar decisions,
// for machines where vigil never runs attached to a terminal.
type PermissionsCmd struct {
	Notifications string `help:"Set notification access." enum:",authorized,denied,not_determined" default:""`
	Calendar      string `help:"Set calendar access." enum:",authorized,denied,not_determined" default:""`
}

func (c *PermissionsCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	s, err := ctx.Services(bg, nil)
	if err != nil {
		return err
	}

	perms := []struct {
		name  string
		auth  *services.Authorizer
		value string
	}{
		{"Notifications", s.NotificationAuth, c.Notifications},
		{"Calendar", s.CalendarAuth, c.Calendar},
	}

	for _, p := range perms {
		if p.value == "" {
			continue
		}
		if err := p.auth.Set(bg, services.AuthStatus(p.value)); err != nil {
			return fmt.Errorf("failed to update %s access: %w", p.name, err)
		}
		fmt.Printf("✓ %s access set to %s\n", p.name, p.value)
	}

	fmt.Println("Permissions:")
	for _, p := range perms {
		status, err := p.auth.Status(bg)
		if err != nil {
			return fmt.Errorf("failed to read %s access: %w", p.name, err)
		}
		fmt.Printf("  %-15s %s\n", p.name+":", status)
	}
	return nil
}
