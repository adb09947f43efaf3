package content

import (
	"slices"
	"strings"
	"time"
)

// Item is one markdown page or post. Items are produced by the Loader and treated
// as read-only by collections, filters and the renderer.
type Item struct {
	// InputPath is the slash-separated source path relative to the project root,
	// e.g. "src/posts/launch.md". Collection globs match against it.
	InputPath string
	// FilePath is the path used to read the file.
	FilePath string
	// FileSlug is the file name without extension ("index" maps to its directory name).
	FileSlug string
	// URL is the public URL ("/posts/launch/"). Empty when the item is not written.
	URL string
	// OutputPath is where the rendered page is written. Empty when URL is empty.
	OutputPath string

	Title  string
	Date   time.Time
	Layout string

	FrontMatter map[string]any
	Body        []byte
	Data        Data
}

// Data is the typed subset of front matter the build logic depends on.
type Data struct {
	Draft bool
	// HappeningDate is nil when absent or unparseable.
	HappeningDate *time.Time
	// Happening is nil when absent or null.
	Happening *bool
	Tags      []string
}

// HasTag reports whether the item carries tag.
func (i *Item) HasTag(tag string) bool {
	return slices.Contains(i.Data.Tags, tag)
}

// Written reports whether the item produces an output file.
func (i *Item) Written() bool {
	return i.URL != ""
}

// Param returns a front matter value by key.
func (i *Item) Param(key string) any {
	return i.FrontMatter[key]
}

// StringParam returns a string front matter value, or "".
func (i *Item) StringParam(key string) string {
	s, _ := i.FrontMatter[key].(string)
	return strings.TrimSpace(s)
}
