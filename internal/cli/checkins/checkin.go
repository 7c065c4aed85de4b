package checkins

import (
	"context"
	"fmt"
	"os"

	"github.com/julianstephens/vigil/internal/cli"
	errs "github.com/julianstephens/vigil/internal/errors"
	"github.com/julianstephens/vigil/internal/orchestrator"
)

// CheckInCmd records a check-in outside any running session.
type CheckInCmd struct {
	Prayer string `arg:"" optional:"" help:"Prayer ID or title. Omit for a generic check-in."`
	Title  string `short:"t" help:"Title to record instead of the prayer's."`
}

func (c *CheckInCmd) Run(ctx *cli.Context) error {
	prayerID := ""
	if c.Prayer != "" {
		p, err := ctx.ResolvePrayer(c.Prayer)
		if err != nil {
			return err
		}
		prayerID = p.ID
	}

	bg := context.Background()
	s, err := ctx.Services(bg, nil)
	if err != nil {
		return err
	}
	ctx.Reconcile()
	checkIn, err := s.Orchestrator.RecordCheckIn(bg, prayerID, c.Title)
	if err := errs.Report(os.Stdout, err, orchestrator.ErrCheckInQueued); err != nil {
		return fmt.Errorf("failed to check in: %w", err)
	}
	if err != nil {
		fmt.Println("Check-in queued, it will be saved when the database is reachable.")
		return nil
	}

	title := "Prayer"
	if checkIn.Title != nil {
		title = *checkIn.Title
	}
	fmt.Printf("✓ Checked in: %s at %s\n", title, checkIn.Timestamp.Format("15:04"))
	return nil
}
