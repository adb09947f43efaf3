package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// DefaultPath is the configuration file used when none is given.
const DefaultPath = "sitebuilder.yaml"

// Config represents the site build configuration.
type Config struct {
	// Input is the content root.
	Input string `yaml:"input"`
	// Output is where rendered pages and passthrough copies are written.
	Output string `yaml:"output"`
	// DataDir holds global data files (*.yml, *.yaml, *.json).
	DataDir string `yaml:"data_dir"`
	// IncludesDir holds layouts and partials.
	IncludesDir string `yaml:"includes_dir"`

	TokensFile     string `yaml:"tokens_file"`
	SiteFile       string `yaml:"site_file"`
	HappeningsFile string `yaml:"happenings_file"`

	Collections  []CollectionConfig  `yaml:"collections"`
	Happenings   HappeningsConfig    `yaml:"happenings"`
	Passthrough  []PassthroughConfig `yaml:"passthrough"`
	Hooks        HooksConfig         `yaml:"hooks"`
	WatchTargets []string            `yaml:"watch_targets,omitempty"`

	Metrics MetricsConfig `yaml:"metrics"`
	History HistoryConfig `yaml:"history"`
	Notify  NotifyConfig  `yaml:"notify"`
	Daemon  DaemonConfig  `yaml:"daemon"`
}

// CollectionConfig declares a glob-backed collection.
type CollectionConfig struct {
	Name  string   `yaml:"name"`
	Globs []string `yaml:"globs"`
	// Reverse flips the natural (input path) order, as the blog collection does.
	Reverse bool `yaml:"reverse,omitempty"`
}

// HappeningsConfig selects the items considered for upcomingHappenings/pastHappenings.
type HappeningsConfig struct {
	Globs []string `yaml:"globs"`
}

// PassthroughConfig copies a file or directory into the output unchanged.
type PassthroughConfig struct {
	From string `yaml:"from"`
	// To is relative to the output directory; empty means the output root.
	To string `yaml:"to"`
}

// HooksConfig lists the external commands run around a build.
type HooksConfig struct {
	Before []HookConfig `yaml:"before"`
	After  []HookConfig `yaml:"after"`
}

// HookConfig is one named shell command.
type HookConfig struct {
	Name string            `yaml:"name"`
	Run  string            `yaml:"run"`
	Dir  string            `yaml:"dir,omitempty"`
	Env  map[string]string `yaml:"env,omitempty"`
}

// MetricsConfig toggles the Prometheus recorder.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// HistoryConfig controls the SQLite build history.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// NotifyConfig publishes build results to NATS when URL is set.
type NotifyConfig struct {
	NATSURL string      `yaml:"nats_url,omitempty"`
	Subject string      `yaml:"subject,omitempty"`
	Retry   RetryConfig `yaml:"retry"`
}

// RetryBackoffMode selects how the delay between publish attempts grows.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

// RetryConfig controls retries of failed notifications.
type RetryConfig struct {
	Backoff    RetryBackoffMode `yaml:"backoff"`
	Initial    time.Duration    `yaml:"initial"`
	Max        time.Duration    `yaml:"max"`
	MaxRetries int              `yaml:"max_retries"`
}

// Enabled reports whether notifications are configured.
func (n NotifyConfig) Enabled() bool { return n.NATSURL != "" }

// DaemonConfig controls scheduled rebuilds and the static file server.
type DaemonConfig struct {
	RebuildInterval time.Duration `yaml:"rebuild_interval"`
	// RebuildCron, when set, replaces RebuildInterval ("5 0 * * *" rebuilds after midnight).
	RebuildCron string `yaml:"rebuild_cron,omitempty"`
	Addr        string `yaml:"addr"`
}

// Load reads, expands, defaults and validates the configuration at configPath.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ferrors.NotFoundError("configuration file not found").
				WithContext("path", configPath).
				Build()
		}
		return nil, ferrors.ConfigError("failed to read config file").
			WithCause(err).
			WithContext("path", configPath).
			Build()
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, ferrors.ConfigError("invalid configuration").
			WithCause(err).
			WithContext("path", configPath).
			Build()
	}
	return cfg, nil
}

// Parse decodes configuration YAML after expanding ${VAR} references, then applies
// defaults and validates.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
