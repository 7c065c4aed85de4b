package prayers

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/vigil/internal/cli"
	errs "github.com/julianstephens/vigil/internal/errors"
	"github.com/julianstephens/vigil/internal/models"
	"github.com/julianstephens/vigil/internal/orchestrator"
	"github.com/julianstephens/vigil/internal/prompt"
	"github.com/julianstephens/vigil/internal/stats"
)

type PrayerAddCmd struct {
	Title    string `arg:"" help:"Prayer title."`
	Subtitle string `short:"s" help:"Short description shown under the title."`
	Icon     string `help:"Icon name."`
	Color    string `short:"c" help:"Color as #RRGGBB."`
}

func (c *PrayerAddCmd) Run(ctx *cli.Context) error {
	existing, err := ctx.Store.GetAllPrayers()
	if err != nil {
		return fmt.Errorf("failed to get prayers: %w", err)
	}

	p := models.Prayer{
		ID:        uuid.New().String(),
		Title:     strings.TrimSpace(c.Title),
		Subtitle:  c.Subtitle,
		IconName:  c.Icon,
		ColorHex:  c.Color,
		CreatedAt: ctx.Now(),
		SortOrder: len(existing),
	}
	p.ApplyDefaults()
	if err := p.Validate(); err != nil {
		return err
	}
	if err := ctx.Store.AddPrayer(p); err != nil {
		return fmt.Errorf("failed to add prayer: %w", err)
	}

	fmt.Printf("✓ Added prayer: %s (ID: %s)\n", p.Title, p.ID)
	return nil
}

type PrayerListCmd struct {
	ShowIDs bool `help:"Show prayer IDs." name:"show-ids"`
}

func (c *PrayerListCmd) Run(ctx *cli.Context) error {
	prayers, err := ctx.Store.GetAllPrayers()
	if err != nil {
		return fmt.Errorf("failed to get prayers: %w", err)
	}
	if len(prayers) == 0 {
		fmt.Println("No prayers yet. Add one with 'vigil prayer add'.")
		return nil
	}

	settings := ctx.Settings()
	now := ctx.Now()

	fmt.Println("Prayers:")
	for _, p := range prayers {
		checkIns, err := ctx.Store.GetCheckInsForPrayer(p.ID)
		if err != nil {
			return fmt.Errorf("failed to get check-ins for %s: %w", p.Title, err)
		}
		e := stats.New(models.Timestamps(checkIns), now,
			stats.WithWeekStart(time.Weekday(settings.WeekStart)),
			stats.WithLocation(now.Location()))

		idStr := ""
		if c.ShowIDs {
			idStr = fmt.Sprintf(" (ID: %s)", p.ID)
		}
		fmt.Printf("  %s%s - %d check-ins, %d day streak\n", p.Title, idStr, e.Total(), e.CurrentStreak())
		if p.Subtitle != "" {
			fmt.Printf("      %s\n", p.Subtitle)
		}
	}
	return nil
}

type PrayerEditCmd struct {
	Prayer   string  `arg:"" help:"Prayer ID or title."`
	Title    *string `help:"New title."`
	Subtitle *string `short:"s" help:"New subtitle."`
	Icon     *string `help:"New icon name."`
	Color    *string `short:"c" help:"New color as #RRGGBB."`
	Order    *int    `help:"New position in lists."`
}

func (c *PrayerEditCmd) Run(ctx *cli.Context) error {
	p, err := ctx.ResolvePrayer(c.Prayer)
	if err != nil {
		return err
	}

	if c.Title != nil {
		p.Title = strings.TrimSpace(*c.Title)
	}
	if c.Subtitle != nil {
		p.Subtitle = *c.Subtitle
	}
	if c.Icon != nil {
		p.IconName = *c.Icon
	}
	if c.Color != nil {
		p.ColorHex = *c.Color
	}
	if c.Order != nil {
		p.SortOrder = *c.Order
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if err := ctx.Store.UpdatePrayer(p); err != nil {
		return fmt.Errorf("failed to update prayer: %w", err)
	}
	fmt.Printf("✓ Updated prayer: %s\n", p.Title)

	// Notifications carry the prayer's title, so enabled alarms are
	// rescheduled to pick up the edit.
	if c.Title == nil && c.Subtitle == nil && c.Icon == nil && c.Color == nil {
		return nil
	}
	alarms, err := ctx.Store.GetAlarmsForPrayer(p.ID)
	if err != nil {
		return fmt.Errorf("failed to get alarms: %w", err)
	}
	bg := context.Background()
	s, err := ctx.Services(bg, cli.Prompter())
	if err != nil {
		return err
	}
	for _, a := range alarms {
		if !a.Enabled {
			continue
		}
		if _, err := s.Orchestrator.RescheduleAlarm(bg, a.ID); err != nil {
			if err := errs.Report(os.Stdout, err, orchestrator.ErrPartialCleanup); err != nil {
				return fmt.Errorf("failed to reschedule alarm %s: %w", a.TimeString(), err)
			}
		}
	}
	return nil
}

type PrayerDeleteCmd struct {
	Prayer string `arg:"" help:"Prayer ID or title."`
	Yes    bool   `short:"y" help:"Delete without asking for confirmation."`
}

func (c *PrayerDeleteCmd) Run(ctx *cli.Context) error {
	p, err := ctx.ResolvePrayer(c.Prayer)
	if err != nil {
		return err
	}

	if !c.Yes {
		ok, err := confirmDelete(p)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Delete cancelled.")
			return nil
		}
	}

	ctx.PerformAutomaticBackup()

	bg := context.Background()
	s, err := ctx.Services(bg, nil)
	if err != nil {
		return err
	}
	if err := s.Orchestrator.DeletePrayer(bg, p.ID); err != nil {
		return fmt.Errorf("failed to delete prayer: %w", err)
	}
	fmt.Printf("Deleted prayer: %s (ID: %s)\n", p.Title, p.ID)
	return nil
}

func confirmDelete(p models.Prayer) (bool, error) {
	desc := "Its check-ins and alarms are deleted too."
	if prompt.Interactive() {
		confirm := &prompt.Confirmer{Affirmative: "Delete", Negative: "Cancel"}
		return confirm.Confirm(context.Background(), fmt.Sprintf("Delete %q?", p.Title), desc)
	}

	fmt.Printf("Delete %q? %s [y/N]: ", p.Title, desc)
	response, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false, nil
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}
