package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/daemon"
	"git.home.luguber.info/inful/sitebuilder/internal/site"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Serve bool   `help:"Also serve the output directory"`
	Addr  string `help:"Listen address when serving (overrides daemon.addr)"`
}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if w.Addr != "" {
		cfg.Daemon.Addr = w.Addr
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return RunDaemon(ctx, cfg, root.baseDir(), daemon.Options{Watch: true, Serve: w.Serve, LiveReload: w.Serve})
}

// RunDaemon builds once and keeps rebuilding until ctx is done.
func RunDaemon(ctx context.Context, cfg *config.Config, baseDir string, opts daemon.Options) error {
	svc, err := openServices(ctx, cfg, baseDir, opts.Serve)
	if err != nil {
		return err
	}
	defer svc.Close()

	opts.BaseDir = baseDir
	opts.Registry = svc.registry
	opts.Projection = svc.projection
	gen := site.New(cfg, svc.generatorOptions()...)
	return daemon.New(cfg, gen, opts).Run(ctx)
}
