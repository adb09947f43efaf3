package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/sitebuilder/internal/daemon"
)

// DaemonCmd implements the 'daemon' command.
type DaemonCmd struct {
	Addr    string `help:"Listen address (overrides daemon.addr)"`
	NoWatch bool   `name:"no-watch" help:"Rebuild on schedule only"`
}

func (d *DaemonCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if d.Addr != "" {
		cfg.Daemon.Addr = d.Addr
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	slog.Info("Starting daemon mode", slog.String("addr", cfg.Daemon.Addr))
	err = RunDaemon(ctx, cfg, root.baseDir(), daemon.Options{Watch: !d.NoWatch, Schedule: true, Serve: true})
	if err == nil {
		slog.Info("Daemon stopped")
	}
	return err
}
