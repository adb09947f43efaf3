package commands

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/foundation"
)

// LogLevelEnv overrides the log level when -v is not given.
const LogLevelEnv = "SITEBUILDER_LOG_LEVEL"

// Global carries state shared by every subcommand. Logging goes through
// slog.Default, which AfterApply configures.
type Global struct {
	// Out receives user-facing command output.
	Out io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path (relative to --dir)" default:"sitebuilder.yaml" env:"SITEBUILDER_CONFIG"`
	Dir     string           `short:"C" help:"Project directory that relative paths resolve against" default:"." type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build      BuildCmd      `cmd:"" help:"Build the site once"`
	Init       InitCmd       `cmd:"" help:"Write a default configuration file"`
	Tokens     TokensCmd     `cmd:"" help:"Print the flattened tk and st token stores"`
	Happenings HappeningsCmd `cmd:"" help:"Print upcoming and past happenings"`
	Watch      WatchCmd      `cmd:"" help:"Build, then rebuild whenever sources change"`
	Daemon     DaemonCmd     `cmd:"" help:"Serve the site with scheduled and on-change rebuilds"`
	History    HistoryCmd    `cmd:"" help:"Show recent builds from the history database"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(c.Verbose)}))
	slog.SetDefault(logger)
	return nil
}

// parseLogLevel gives -v precedence over SITEBUILDER_LOG_LEVEL.
func parseLogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return logLevels.Normalize(os.Getenv(LogLevelEnv))
}

var logLevels = foundation.NewNormalizer(map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}, slog.LevelInfo)

// ConfigPath returns the configuration file location.
func (c *CLI) ConfigPath() string {
	if filepath.IsAbs(c.Config) {
		return c.Config
	}
	return filepath.Join(c.baseDir(), c.Config)
}

func (c *CLI) baseDir() string {
	dir := c.Dir
	if dir == "" {
		dir = "."
	}
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}

func (c *CLI) loadConfig() (*config.Config, error) {
	return config.Load(c.ConfigPath())
}

func output(g *Global) io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}
