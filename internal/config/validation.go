package config

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// Validate checks the configuration for values the build cannot work with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Input) == "" {
		return ferrors.ValidationError("input directory must be set").Build()
	}
	if strings.TrimSpace(c.Output) == "" {
		return ferrors.ValidationError("output directory must be set").Build()
	}
	if filepath.Clean(c.Input) == filepath.Clean(c.Output) {
		return ferrors.ValidationError("output directory must differ from input directory").
			WithContext("path", c.Output).
			Build()
	}

	if err := validateCollections(c.Collections); err != nil {
		return err
	}
	if len(c.Happenings.Globs) == 0 {
		return ferrors.ValidationError("happenings.globs must list at least one pattern").Build()
	}
	for i, p := range c.Passthrough {
		if strings.TrimSpace(p.From) == "" {
			return ferrors.ValidationError(fmt.Sprintf("passthrough[%d].from must be set", i)).Build()
		}
	}
	if err := validateHooks("before", c.Hooks.Before); err != nil {
		return err
	}
	if err := validateHooks("after", c.Hooks.After); err != nil {
		return err
	}
	if c.History.Enabled && strings.TrimSpace(c.History.Path) == "" {
		return ferrors.ValidationError("history.path must be set when history is enabled").Build()
	}
	switch c.Notify.Retry.Backoff {
	case "", RetryBackoffFixed, RetryBackoffLinear, RetryBackoffExponential:
	default:
		return ferrors.ValidationError("notify.retry.backoff must be fixed, linear or exponential").
			WithContext("value", string(c.Notify.Retry.Backoff)).
			Build()
	}
	if c.Notify.Retry.MaxRetries < 0 {
		return ferrors.ValidationError("notify.retry.max_retries cannot be negative").Build()
	}
	if c.Daemon.RebuildInterval < 0 {
		return ferrors.ValidationError("daemon.rebuild_interval must be positive").Build()
	}
	return nil
}

func validateCollections(collections []CollectionConfig) error {
	seen := make(map[string]struct{}, len(collections))
	for i, col := range collections {
		if col.Name == "" {
			return ferrors.ValidationError(fmt.Sprintf("collections[%d].name must be set", i)).Build()
		}
		if isReservedCollection(col.Name) {
			return ferrors.ValidationError("collection name is reserved").
				WithContext("collection", col.Name).
				Build()
		}
		if _, dup := seen[col.Name]; dup {
			return ferrors.ValidationError("duplicate collection name").
				WithContext("collection", col.Name).
				Build()
		}
		seen[col.Name] = struct{}{}
		if len(col.Globs) == 0 {
			return ferrors.ValidationError("collection must list at least one glob").
				WithContext("collection", col.Name).
				Build()
		}
	}
	return nil
}

// Reserved collection names are computed by the happenings partition and "all".
var reservedCollections = []string{"all", "upcomingHappenings", "pastHappenings"}

func isReservedCollection(name string) bool {
	return slices.Contains(reservedCollections, name)
}

func validateHooks(phase string, hooks []HookConfig) error {
	seen := make(map[string]struct{}, len(hooks))
	for i, h := range hooks {
		if strings.TrimSpace(h.Name) == "" {
			return ferrors.ValidationError(fmt.Sprintf("hooks.%s[%d].name must be set", phase, i)).Build()
		}
		if strings.TrimSpace(h.Run) == "" {
			return ferrors.ValidationError("hook command must be set").
				WithContext("phase", phase).
				WithContext("step", h.Name).
				Build()
		}
		if _, dup := seen[h.Name]; dup {
			return ferrors.ValidationError("duplicate hook name").
				WithContext("phase", phase).
				WithContext("step", h.Name).
				Build()
		}
		seen[h.Name] = struct{}{}
	}
	return nil
}
