package config

import (
	"path"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation"
)

var backoffModes = foundation.NewNormalizer(map[string]RetryBackoffMode{
	string(RetryBackoffFixed):       RetryBackoffFixed,
	string(RetryBackoffLinear):      RetryBackoffLinear,
	string(RetryBackoffExponential): RetryBackoffExponential,
}, RetryBackoffLinear)

// Default layout: content under src/, output in dist/.
const (
	DefaultInput           = "src"
	DefaultOutput          = "dist"
	DefaultHistoryPath     = ".sitebuilder/history.db"
	DefaultNotifySubject   = "sitebuilder.builds"
	DefaultRebuildInterval = time.Hour
	DefaultDaemonAddr      = ":8080"
)

// Default returns a fully defaulted configuration.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// inputPath returns a function joining slash paths below input. Relative results
// keep a leading "./" so they read like the project-relative globs users write.
func inputPath(input string) func(rel string) string {
	base := path.Clean(filepath.ToSlash(input))
	return func(rel string) string {
		p := path.Join(base, rel)
		if path.IsAbs(p) || strings.HasPrefix(p, "../") {
			return p
		}
		return "./" + p
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Input == "" {
		cfg.Input = DefaultInput
	}
	if cfg.Output == "" {
		cfg.Output = DefaultOutput
	}
	if cfg.DataDir == "" {
		cfg.DataDir = filepath.Join(cfg.Input, "_data")
	}
	if cfg.IncludesDir == "" {
		cfg.IncludesDir = filepath.Join(cfg.Input, "_includes")
	}
	if cfg.TokensFile == "" {
		cfg.TokensFile = filepath.Join(cfg.DataDir, "tokens.yml")
	}
	if cfg.SiteFile == "" {
		cfg.SiteFile = filepath.Join(cfg.DataDir, "site.json")
	}
	if cfg.HappeningsFile == "" {
		cfg.HappeningsFile = filepath.Join(cfg.DataDir, "happenings.yml")
	}

	in := inputPath(cfg.Input)
	if cfg.Collections == nil {
		cfg.Collections = []CollectionConfig{
			{Name: "blog", Globs: []string{in("posts/**/*.md")}, Reverse: true},
			{Name: "pages", Globs: []string{in("pages/**/*.md")}},
			{Name: "services", Globs: []string{in("services/**/*.md")}},
			{Name: "happenings", Globs: []string{in("happenings/**/*.md")}},
		}
	}
	if cfg.Happenings.Globs == nil {
		cfg.Happenings.Globs = []string{in("happenings/**/*.md"), in("posts/**/*.md")}
	}
	if cfg.Passthrough == nil {
		cfg.Passthrough = []PassthroughConfig{
			{From: in("images"), To: "images"},
			{From: in("assets/uploads"), To: "assets/uploads"},
			{From: in("assets/images"), To: "assets/images"},
			{From: in("_includes/partials/background"), To: "_includes/partials/background"},
			{From: in("images/favicon"), To: ""},
			{From: in("fonts"), To: "fonts"},
			{From: in("_redirects"), To: "_redirects"},
		}
	}
	if cfg.Hooks.Before == nil {
		cfg.Hooks.Before = []HookConfig{
			{Name: "generate-favicon", Run: "node ./utils/generateFavicon.js"},
			{Name: "sync-permalinks", Run: "node ./utils/syncPermalinks.js"},
			{Name: "permalink-dup-check", Run: "node ./utils/permalinkDupCheck.js"},
			{Name: "happening-pagination", Run: "node ./utils/addHappeningPagination.js"},
			{Name: "blog-pagination", Run: "node ./utils/addBlogPagination.js"},
			{Name: "fetch-theme-variables", Run: "node ./utils/fetch-theme-variables.js"},
		}
	}
	if cfg.Hooks.After == nil {
		cfg.Hooks.After = []HookConfig{
			{Name: "compile-css", Run: "npx tailwindcss -i " + in("css/main.css") + " -o ./" + path.Join(filepath.ToSlash(cfg.Output), "css/styles.css") + " --minify"},
		}
	}
	if cfg.WatchTargets == nil {
		cfg.WatchTargets = []string{"./_component-library"}
	}

	if cfg.History.Path == "" {
		cfg.History.Path = DefaultHistoryPath
	}
	if cfg.Notify.Subject == "" {
		cfg.Notify.Subject = DefaultNotifySubject
	}
	// An omitted retry section gets the default policy; any explicit field keeps
	// the section as written so max_retries: 0 disables retries.
	if cfg.Notify.Retry == (RetryConfig{}) {
		cfg.Notify.Retry = RetryConfig{
			Backoff:    RetryBackoffLinear,
			Initial:    time.Second,
			Max:        10 * time.Second,
			MaxRetries: 2,
		}
	}
	if mode, err := backoffModes.NormalizeWithError(string(cfg.Notify.Retry.Backoff)); err == nil {
		cfg.Notify.Retry.Backoff = mode
	}
	if cfg.Daemon.RebuildInterval == 0 {
		cfg.Daemon.RebuildInterval = DefaultRebuildInterval
	}
	if cfg.Daemon.Addr == "" {
		cfg.Daemon.Addr = DefaultDaemonAddr
	}
}
