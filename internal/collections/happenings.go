package collections

import (
	"bytes"
	stderrors "errors"
	"io"
	"os"
	"slices"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitebuilder/internal/content"
	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// happeningsURLMarker marks items published under the happenings section.
const happeningsURLMarker = "happenings/"

// HappeningsConfig narrows which dated items count as happenings.
// A nil Tags applies no tag filter. An empty, non-nil Tags matches nothing.
type HappeningsConfig struct {
	Tags []string `yaml:"tags"`
}

// ParseHappeningsConfig decodes a happenings document.
func ParseHappeningsConfig(data []byte) (*HappeningsConfig, error) {
	var cfg HappeningsConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&cfg); err != nil {
		if stderrors.Is(err, io.EOF) {
			return nil, stderrors.New("empty happenings document")
		}
		return nil, err
	}
	return &cfg, nil
}

// LoadHappeningsConfig reads the happenings document at path. It is called on every
// collection evaluation so edits are picked up between rebuilds.
func LoadHappeningsConfig(path string) (*HappeningsConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.DataError("failed to read happenings config").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	cfg, err := ParseHappeningsConfig(data)
	if err != nil {
		return nil, errors.DataError("invalid happenings config").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	return cfg, nil
}

// IsHappening reports whether item qualifies as a happening. A published item under
// happenings/ always qualifies. Otherwise the item needs a happeningDate, must not opt
// out with happening: false, and must carry one of the configured tags when a tag
// filter is set.
func IsHappening(item *content.Item, cfg *HappeningsConfig) bool {
	if !item.Data.Draft && strings.Contains(item.URL, happeningsURLMarker) {
		return true
	}
	if item.Data.HappeningDate == nil {
		return false
	}
	if item.Data.Happening != nil && !*item.Data.Happening {
		return false
	}
	if cfg == nil || cfg.Tags == nil {
		return true
	}
	return slices.ContainsFunc(cfg.Tags, item.HasTag)
}

// Upcoming returns the happenings dated at or after now, soonest first.
// Items without a happeningDate are never included.
func Upcoming(items []*content.Item, cfg *HappeningsConfig, now time.Time) []*content.Item {
	out := partition(items, cfg, func(d time.Time) bool { return !d.Before(now) })
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Data.HappeningDate.Before(*out[j].Data.HappeningDate)
	})
	return out
}

// Past returns the happenings dated before now, most recent first.
// Items without a happeningDate are never included.
func Past(items []*content.Item, cfg *HappeningsConfig, now time.Time) []*content.Item {
	out := partition(items, cfg, func(d time.Time) bool { return d.Before(now) })
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Data.HappeningDate.After(*out[j].Data.HappeningDate)
	})
	return out
}

func partition(items []*content.Item, cfg *HappeningsConfig, keep func(time.Time) bool) []*content.Item {
	out := make([]*content.Item, 0)
	for _, it := range items {
		if it.Data.HappeningDate == nil || !IsHappening(it, cfg) {
			continue
		}
		if keep(*it.Data.HappeningDate) {
			out = append(out, it)
		}
	}
	return out
}
