package content

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// NormalizePattern turns a project-relative glob ("./src/posts/**/*.md") into a
// clean slash pattern relative to the project root.
func NormalizePattern(pattern string) string {
	p := filepath.ToSlash(strings.TrimSpace(pattern))
	p = strings.TrimPrefix(p, "./")
	return path.Clean(p)
}

// ValidatePatterns rejects malformed globs before any matching happens.
func ValidatePatterns(patterns []string) error {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(NormalizePattern(p)) {
			return fmt.Errorf("invalid glob pattern %q", p)
		}
	}
	return nil
}

// Matches reports whether the item's input path matches any of the patterns.
func (i *Item) Matches(patterns []string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(NormalizePattern(p), i.InputPath); err == nil && ok {
			return true
		}
	}
	return false
}

// FilterByGlob returns the items matching any pattern, preserving order.
func FilterByGlob(items []*Item, patterns []string) []*Item {
	out := make([]*Item, 0)
	for _, it := range items {
		if it.Matches(patterns) {
			out = append(out, it)
		}
	}
	return out
}
