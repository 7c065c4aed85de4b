package activities

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/vigil/internal/cli"
	"github.com/julianstephens/vigil/internal/remote"
)

// dial reaches the daemon, or acts on the shared store directly when it is
// not running.
func dial(ctx *cli.Context) (remote.Remote, error) {
	bg := context.Background()
	local, err := ctx.Actions(bg, nil)
	if err != nil {
		return nil, err
	}
	return remote.Dial(bg, ctx.Config.Daemon.Listen, ctx.RemoteSecret(), local), nil
}

type ActivityListCmd struct{}

func (c *ActivityListCmd) Run(ctx *cli.Context) error {
	r, err := dial(ctx)
	if err != nil {
		return err
	}
	list, err := r.Activities(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(list) == 0 {
		fmt.Println("No prayers in progress.")
		return nil
	}

	fmt.Printf("%-36s %-24s %-6s %-10s %-9s\n", "ID", "Prayer", "Time", "Phase", "Remaining")
	fmt.Println(strings.Repeat("-", 89))
	for _, a := range list {
		remaining := (time.Duration(a.State.RemainingSeconds) * time.Second).String()
		fmt.Printf("%-36s %-24s %-6s %-10s %-9s\n",
			a.ID, cli.Truncate(a.Attributes.PrayerTitle, 24), a.Attributes.AlarmTime.Format("15:04"), a.State.Phase, remaining)
	}
	return nil
}

type ActivityCheckInCmd struct {
	ID     string `arg:"" help:"Session surface ID."`
	Prayer string `short:"p" help:"Prayer ID, when the surface no longer exists."`
}

func (c *ActivityCheckInCmd) Run(ctx *cli.Context) error {
	r, err := dial(ctx)
	if err != nil {
		return err
	}
	if err := r.CheckIn(context.Background(), c.Prayer, c.ID); err != nil {
		return fmt.Errorf("check-in failed: %w", err)
	}
	fmt.Println("✓ Check-in recorded, it is saved the next time the daemon runs.")
	return nil
}

type ActivityStartCmd struct {
	ID string `arg:"" help:"Session surface ID."`
}

func (c *ActivityStartCmd) Run(ctx *cli.Context) error {
	r, err := dial(ctx)
	if err != nil {
		return err
	}
	if err := r.Start(context.Background(), c.ID); err != nil {
		return fmt.Errorf("start failed: %w", err)
	}
	fmt.Println("✓ Start requested.")
	return nil
}
