package collections

import (
	"log/slog"
	"slices"
	"sort"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/content"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// Reserved collection names.
const (
	All                = "all"
	UpcomingHappenings = "upcomingHappenings"
	PastHappenings     = "pastHappenings"
)

// Set maps collection names to their items.
type Set map[string][]*content.Item

// Get returns the named collection, or nil.
func (s Set) Get(name string) []*content.Item {
	return s[name]
}

// Names returns the collection names in sorted order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builder evaluates the configured collections over a build's items.
type Builder struct {
	collections    []config.CollectionConfig
	happeningGlobs []string
	happeningsFile string
	now            func() time.Time
}

// Option configures a Builder.
type Option func(*Builder)

// WithClock overrides the clock used to split upcoming and past happenings.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// NewBuilder creates a Builder from the site configuration.
func NewBuilder(cfg *config.Config, opts ...Option) *Builder {
	b := &Builder{
		collections:    cfg.Collections,
		happeningGlobs: cfg.Happenings.Globs,
		happeningsFile: cfg.HappeningsFile,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build evaluates every collection. The happenings config is read on each call and
// the clock is sampled once so both views share the same instant.
func (b *Builder) Build(items []*content.Item) (Set, error) {
	set := Set{All: slices.Clone(items)}

	for _, c := range b.collections {
		matched := content.FilterByGlob(items, c.Globs)
		if c.Reverse {
			slices.Reverse(matched)
		}
		set[c.Name] = matched
	}

	hcfg, err := LoadHappeningsConfig(b.happeningsFile)
	if err != nil {
		return nil, err
	}
	candidates := content.FilterByGlob(items, b.happeningGlobs)
	now := b.now()
	set[UpcomingHappenings] = Upcoming(candidates, hcfg, now)
	set[PastHappenings] = Past(candidates, hcfg, now)

	for _, name := range set.Names() {
		slog.Debug("Collection evaluated", logfields.Collection(name), logfields.Count(len(set[name])))
	}
	return set, nil
}
