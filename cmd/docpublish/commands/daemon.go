package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/docpublish/internal/config"
	"git.home.luguber.info/inful/docpublish/internal/daemon"
)

// DaemonCmd implements the 'daemon' command.
type DaemonCmd struct {
	Listen string `help:"Override daemon.listen"`
}

func (d *DaemonCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	if d.Listen != "" {
		cfg.Daemon.Listen = d.Listen
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dmn, err := daemon.New(root.Config, cfg)
	if err != nil {
		return err
	}
	slog.Info("Starting daemon", slog.String("listen", cfg.Daemon.Listen), slog.String("config", root.Config))
	if err := dmn.Run(ctx); err != nil {
		return err
	}
	slog.Info("Daemon stopped")
	return nil
}
