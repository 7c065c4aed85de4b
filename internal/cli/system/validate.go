package system

import (
	"fmt"

	"github.com/julianstephens/vigil/internal/cli"
	"github.com/julianstephens/vigil/internal/constants"
	"github.com/julianstephens/vigil/internal/validation"
)

type ValidateCmd struct{}

func (cmd *ValidateCmd) Run(ctx *cli.Context) error {
	result, err := validateAlarms(ctx)
	if err != nil {
		return err
	}
	if !result.HasConflicts() {
		fmt.Println("✓ " + result.FormatReport())
		return nil
	}
	fmt.Print(result.FormatReport())
	return fmt.Errorf("found %d conflict(s)", len(result.Conflicts))
}

func validateAlarms(ctx *cli.Context) (validation.ValidationResult, error) {
	prayers, err := ctx.Store.GetAllPrayers()
	if err != nil {
		return validation.ValidationResult{}, fmt.Errorf("failed to get prayers: %w", err)
	}
	alarms, err := ctx.Store.GetAllAlarms()
	if err != nil {
		return validation.ValidationResult{}, fmt.Errorf("failed to get alarms: %w", err)
	}
	return validation.New(constants.MaxConcurrentSessions).ValidateAlarms(prayers, alarms), nil
}
