package filters

import (
	"fmt"
	"slices"
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/content"
)

// RandomBlogsFilter picks up to n items at random, leaving out the page at
// currentURL. The input slice is not modified.
func (f *Funcs) RandomBlogsFilter(items []*content.Item, currentURL string, n int) []*content.Item {
	pool := make([]*content.Item, 0, len(items))
	for _, it := range items {
		if it.URL != currentURL {
			pool = append(pool, it)
		}
	}
	f.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	if n < 0 {
		n = 0
	}
	return pool[:min(n, len(pool))]
}

// categoryValues reads "category" and "categories" from front matter.
func categoryValues(it *content.Item) []string {
	var out []string
	for _, key := range []string{"category", "categories"} {
		switch v := it.Param(key).(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				out = append(out, s)
			}
		case []any:
			for _, e := range v {
				if s := strings.TrimSpace(fmt.Sprint(e)); e != nil && s != "" {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

// CategoriesFilter returns the distinct categories used by items, in order of first
// appearance.
func CategoriesFilter(items []*content.Item) []string {
	out := make([]string, 0)
	for _, it := range items {
		for _, c := range categoryValues(it) {
			if !slices.Contains(out, c) {
				out = append(out, c)
			}
		}
	}
	return out
}

// HappeningsFilter keeps the items in the given category or carrying it as a tag.
// An empty category keeps everything.
func HappeningsFilter(items []*content.Item, category string) []*content.Item {
	if category == "" {
		return items
	}
	out := make([]*content.Item, 0)
	for _, it := range items {
		if it.HasTag(category) || slices.Contains(categoryValues(it), category) {
			out = append(out, it)
		}
	}
	return out
}
