package system

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/vigil/internal/cli"
	"github.com/julianstephens/vigil/internal/remote"
	"github.com/julianstephens/vigil/internal/tui"
)

type WatchCmd struct{}

func (c *WatchCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	local, err := ctx.Actions(bg, nil)
	if err != nil {
		return err
	}
	r := remote.Dial(bg, ctx.Config.Daemon.Listen, ctx.RemoteSecret(), local)

	p := tea.NewProgram(tui.NewModel(r, ctx.Now), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("watch view failed: %w", err)
	}
	return nil
}
