package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

func TestParse_EmptyUsesDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)

	assert.Equal(t, "src", cfg.Input)
	assert.Equal(t, "dist", cfg.Output)
	assert.Equal(t, filepath.Join("src", "_data", "tokens.yml"), cfg.TokensFile)
	assert.Equal(t, filepath.Join("src", "_data", "site.json"), cfg.SiteFile)
	assert.Equal(t, filepath.Join("src", "_data", "happenings.yml"), cfg.HappeningsFile)
	assert.Len(t, cfg.Collections, 4)
	assert.Equal(t, []string{"./src/happenings/**/*.md", "./src/posts/**/*.md"}, cfg.Happenings.Globs)
	assert.Equal(t, time.Hour, cfg.Daemon.RebuildInterval)

	names := make([]string, 0, len(cfg.Hooks.Before))
	for _, h := range cfg.Hooks.Before {
		names = append(names, h.Name)
	}
	assert.Equal(t, []string{
		"generate-favicon", "sync-permalinks", "permalink-dup-check",
		"happening-pagination", "blog-pagination", "fetch-theme-variables",
	}, names)
	require.Len(t, cfg.Hooks.After, 1)
	assert.Contains(t, cfg.Hooks.After[0].Run, "--minify")
}

func TestParse_DefaultGlobsFollowInput(t *testing.T) {
	cfg, err := Parse([]byte("input: content\noutput: public\n"))
	require.NoError(t, err)

	globs := make(map[string][]string, len(cfg.Collections))
	for _, c := range cfg.Collections {
		globs[c.Name] = c.Globs
	}
	assert.Equal(t, []string{"./content/posts/**/*.md"}, globs["blog"])
	assert.Equal(t, []string{"./content/pages/**/*.md"}, globs["pages"])
	assert.Equal(t, []string{"./content/happenings/**/*.md", "./content/posts/**/*.md"}, cfg.Happenings.Globs)
	assert.Equal(t, PassthroughConfig{From: "./content/images", To: "images"}, cfg.Passthrough[0])
	assert.Equal(t, "npx tailwindcss -i ./content/css/main.css -o ./public/css/styles.css --minify", cfg.Hooks.After[0].Run)

	cfg, err = Parse([]byte("input: /srv/site/\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"/srv/site/posts/**/*.md"}, cfg.Collections[0].Globs)
}

func TestParse_ExplicitEmptyHooksKept(t *testing.T) {
	cfg, err := Parse([]byte("hooks:\n  before: []\n  after: []\n"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Hooks.Before)
	assert.Empty(t, cfg.Hooks.After)
}

func TestParse_ExpandsEnvironment(t *testing.T) {
	t.Setenv("SITE_OUT", "public")
	cfg, err := Parse([]byte("output: ${SITE_OUT}\nnotify:\n  nats_url: nats://localhost:4222\n"))
	require.NoError(t, err)
	assert.Equal(t, "public", cfg.Output)
	assert.True(t, cfg.Notify.Enabled())
	assert.Equal(t, DefaultNotifySubject, cfg.Notify.Subject)
}

func TestParse_UnknownFieldRejected(t *testing.T) {
	_, err := Parse([]byte("outptu: dist\n"))
	require.Error(t, err)
}

func TestParse_DurationField(t *testing.T) {
	cfg, err := Parse([]byte("daemon:\n  rebuild_interval: 15m\n"))
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, cfg.Daemon.RebuildInterval)
}

func TestParse_NotifyRetry(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, RetryBackoffLinear, cfg.Notify.Retry.Backoff)
	assert.Equal(t, 2, cfg.Notify.Retry.MaxRetries)

	cfg, err = Parse([]byte("notify:\n  retry:\n    backoff: Fixed\n    max_retries: 0\n"))
	require.NoError(t, err)
	assert.Equal(t, RetryBackoffFixed, cfg.Notify.Retry.Backoff)
	assert.Zero(t, cfg.Notify.Retry.MaxRetries)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "output equals input", yaml: "input: site\noutput: ./site\n"},
		{name: "duplicate collection", yaml: "collections:\n  - {name: a, globs: [x]}\n  - {name: a, globs: [y]}\n"},
		{name: "reserved collection", yaml: "collections:\n  - {name: upcomingHappenings, globs: [x]}\n"},
		{name: "collection without globs", yaml: "collections:\n  - {name: a}\n"},
		{name: "hook without command", yaml: "hooks:\n  before:\n    - {name: favicon}\n"},
		{name: "duplicate hook", yaml: "hooks:\n  after:\n    - {name: css, run: a}\n    - {name: css, run: b}\n"},
		{name: "empty happenings globs", yaml: "happenings:\n  globs: []\n"},
		{name: "passthrough without source", yaml: "passthrough:\n  - {to: x}\n"},
		{name: "unknown retry backoff", yaml: "notify:\n  retry:\n    backoff: random\n"},
		{name: "negative retries", yaml: "notify:\n  retry:\n    max_retries: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation), "got %v", err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryNotFound))
}

func TestLoad_InvalidFileIsConfigError(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultPath)
	require.NoError(t, os.WriteFile(path, []byte("input: [\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestInit_WritesLoadableDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultPath)
	require.NoError(t, Init(path, false))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	err = Init(path, false)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
	require.NoError(t, Init(path, true))
}
