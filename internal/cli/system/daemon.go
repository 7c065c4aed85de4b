package system

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/julianstephens/vigil/internal/cli"
	"github.com/julianstephens/vigil/internal/daemon"
	"github.com/julianstephens/vigil/internal/logger"
	"github.com/julianstephens/vigil/internal/notifier"
	"github.com/julianstephens/vigil/internal/remote"
)

type DaemonCmd struct {
	Listen string        `help:"Address for the remote-action server (overrides config)."`
	Poll   time.Duration `help:"Maximum time between wakes (overrides config)."`
}

func (c *DaemonCmd) Run(ctx *cli.Context) error {
	listen := ctx.Config.Daemon.Listen
	if c.Listen != "" {
		listen = c.Listen
	}
	poll := ctx.Config.Daemon.PollInterval
	if c.Poll > 0 {
		poll = c.Poll
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := ctx.Services(runCtx, nil)
	if err != nil {
		return err
	}
	o := s.Orchestrator

	w := daemon.NewWorker(s.Notifications, notifier.New(), o, daemon.Options{
		PollInterval: poll,
		Grace:        ctx.Config.Daemon.Grace,
		Now:          o.Now,
	})
	actions := remote.NewActions(s.CheckIns, s.Start, s.Surface, w.Refresh)

	secret := ctx.RemoteSecret()
	if secret == "" && !isLoopback(listen) {
		return fmt.Errorf("refusing to serve remote actions on %s without a secret; set daemon.secret or run 'vigil keyring set --secret'", listen)
	}
	if secret == "" {
		logger.Warn("Remote actions are not protected by a secret", "addr", listen)
	}

	fmt.Printf("vigil daemon running, remote actions on %s\n", listen)
	if err := daemon.Serve(runCtx, w, listen, remote.NewRouter(actions, secret)); err != nil {
		return err
	}
	fmt.Println("vigil daemon stopped")
	return nil
}

func isLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
