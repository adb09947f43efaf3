package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/site"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output string `short:"o" help:"Override the configured output directory"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if b.Output != "" {
		cfg.Output = b.Output
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return RunBuild(ctx, output(g), cfg, root.baseDir())
}

// RunBuild performs one build and prints its summary and warnings to out.
func RunBuild(ctx context.Context, out io.Writer, cfg *config.Config, baseDir string) error {
	svc, err := openServices(ctx, cfg, baseDir, false)
	if err != nil {
		return err
	}
	defer svc.Close()

	report, err := site.New(cfg, svc.generatorOptions()...).Build(ctx)
	if report != nil {
		_, _ = fmt.Fprintln(out, report.Summary())
		for _, w := range report.Warnings {
			_, _ = fmt.Fprintf(out, "warning: %v\n", w)
		}
	}
	svc.writeMetrics()
	return err
}
