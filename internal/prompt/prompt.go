// Package prompt asks the user questions on the terminal.
package prompt

import (
	"context"
	"errors"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
)

var ErrNotInteractive = errors.New("not attached to a terminal")

// Confirmer implements services.Prompter with a huh confirm dialog.
type Confirmer struct {
	Affirmative string
	Negative    string
}

func NewConfirmer() *Confirmer {
	return &Confirmer{Affirmative: "Allow", Negative: "Don't Allow"}
}

// Interactive reports whether stdin is a terminal.
func Interactive() bool {
	return isatty.IsTerminal(os.Stdin.Fd())
}

func (c *Confirmer) Confirm(ctx context.Context, title, description string) (bool, error) {
	if !Interactive() {
		return false, ErrNotInteractive
	}

	var ok bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative(c.Affirmative).
				Negative(c.Negative).
				Value(&ok),
		),
	)
	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}
