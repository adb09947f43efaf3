package transform

import (
	"fmt"
	"log/slog"
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// Transform post-processes rendered output before it is written. outputPath is the
// file the content will be written to and decides whether a transform applies.
type Transform interface {
	Name() string
	Apply(outputPath, content string) (string, error)
}

// IsHTMLOutput reports whether outputPath names an HTML file.
func IsHTMLOutput(outputPath string) bool {
	return strings.HasSuffix(outputPath, ".html")
}

// StatsFunc receives placeholder statistics after each HTML document is processed.
type StatsFunc func(prefix string, stats Stats)

// TokenTransform replaces {{<prefix>.*}} placeholders in HTML output.
type TokenTransform struct {
	name    string
	prefix  string
	values  Lookup
	onStats StatsFunc
}

// NewTokenTransform creates a placeholder transform for prefix backed by values.
// onStats may be nil.
func NewTokenTransform(name, prefix string, values Lookup, onStats StatsFunc) *TokenTransform {
	return &TokenTransform{name: name, prefix: prefix, values: values, onStats: onStats}
}

// ReplaceTokens is the {{tk.*}} transform.
func ReplaceTokens(values Lookup, onStats StatsFunc) *TokenTransform {
	return NewTokenTransform("replace-tokens", PrefixToken, values, onStats)
}

// ReplaceSiteTokens is the {{st.*}} transform.
func ReplaceSiteTokens(values Lookup, onStats StatsFunc) *TokenTransform {
	return NewTokenTransform("replace-site-tokens", PrefixSite, values, onStats)
}

func (t *TokenTransform) Name() string { return t.name }

// Apply never fails: unknown paths become empty strings.
func (t *TokenTransform) Apply(outputPath, content string) (string, error) {
	if !IsHTMLOutput(outputPath) {
		return content, nil
	}
	out, stats := Replace(content, t.prefix, t.values)
	for _, p := range stats.MissingPaths {
		slog.Debug("Unknown placeholder replaced with empty string",
			logfields.Prefix(t.prefix), logfields.Token(p), logfields.Path(outputPath))
	}
	if t.onStats != nil {
		t.onStats(t.prefix, stats)
	}
	return out, nil
}

// Chain applies transforms in registration order.
type Chain struct {
	transforms []Transform
}

// NewChain creates a chain from transforms.
func NewChain(transforms ...Transform) *Chain {
	return &Chain{transforms: transforms}
}

// Add appends a transform.
func (c *Chain) Add(t Transform) {
	c.transforms = append(c.transforms, t)
}

// Names lists the registered transforms in order.
func (c *Chain) Names() []string {
	names := make([]string, 0, len(c.transforms))
	for _, t := range c.transforms {
		names = append(names, t.Name())
	}
	return names
}

// Apply runs every transform, feeding each the previous output.
func (c *Chain) Apply(outputPath, content string) (string, error) {
	var err error
	for _, t := range c.transforms {
		content, err = t.Apply(outputPath, content)
		if err != nil {
			return "", fmt.Errorf("transform %s: %w", t.Name(), err)
		}
	}
	return content, nil
}
