package content

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/frontmatter"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

const (
	markdownExt = ".md"
	indexName   = "index"
	htmlIndex   = "index.html"
)

// Loader discovers markdown content under Input and resolves output locations under Output.
type Loader struct {
	Input  string
	Output string
	// Root, when set, makes InputPath relative to it so collection globs such as
	// "./src/posts/**/*.md" match regardless of the working directory.
	Root string
}

// NewLoader creates a loader for the given input and output directories.
func NewLoader(input, output string) *Loader {
	return &Loader{Input: input, Output: output}
}

// Load walks the input directory and returns every markdown item sorted by date, then
// input path. Directories starting with "_" or "." and node_modules are skipped.
func (l *Loader) Load(ctx context.Context) ([]*Item, error) {
	var items []*Item
	err := filepath.WalkDir(l.Input, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if p != l.Input && skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(d.Name()), markdownExt) {
			return nil
		}
		item, err := l.loadFile(p, d)
		if err != nil {
			return err
		}
		items = append(items, item)
		return nil
	})
	if err != nil {
		if errors.IsClassified(err) {
			return nil, err
		}
		return nil, errors.ContentError("failed to load content").
			WithCause(err).
			WithContext("path", l.Input).
			Build()
	}

	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].Date.Equal(items[j].Date) {
			return items[i].Date.Before(items[j].Date)
		}
		return items[i].InputPath < items[j].InputPath
	})
	slog.Debug("Content loaded", logfields.Path(l.Input), logfields.Count(len(items)))
	return items, nil
}

func skipDir(name string) bool {
	return strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") || name == "node_modules"
}

func (l *Loader) loadFile(p string, d fs.DirEntry) (*Item, error) {
	raw, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	fields, body, err := frontmatter.Parse(raw)
	if err != nil {
		return nil, errors.ContentError("invalid front matter").
			WithCause(err).
			WithContext("path", p).
			Build()
	}

	rel, err := filepath.Rel(l.Input, p)
	if err != nil {
		return nil, err
	}
	rel = filepath.ToSlash(rel)

	item := &Item{
		InputPath:   l.inputPath(p),
		FilePath:    p,
		FileSlug:    fileSlug(rel),
		FrontMatter: fields,
		Body:        body,
	}
	item.Title = item.StringParam("title")
	if item.Title == "" {
		item.Title = titleFromSlug(item.FileSlug)
	}
	item.Layout = item.StringParam("layout")
	item.Date = l.itemDate(p, d, fields)
	item.Data = decodeData(p, fields)

	url, err := resolveURL(rel, fields["permalink"])
	if err != nil {
		return nil, errors.ContentError("invalid permalink").
			WithCause(err).
			WithContext("path", p).
			Build()
	}
	item.URL = url
	if url != "" {
		item.OutputPath = OutputPathFor(l.Output, url)
	}
	return item, nil
}

func (l *Loader) inputPath(p string) string {
	if l.Root != "" {
		if rel, err := filepath.Rel(l.Root, p); err == nil {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(filepath.Clean(p))
}

// itemDate uses the front matter date, falling back to the file modification time.
func (l *Loader) itemDate(p string, d fs.DirEntry, fields map[string]any) time.Time {
	if v, ok := fields["date"]; ok && v != nil {
		if t, err := ParseDate(v); err == nil {
			return t
		}
		slog.Warn("Ignoring unparseable date", logfields.Path(p), slog.Any("value", v))
	}
	if info, err := d.Info(); err == nil {
		return info.ModTime()
	}
	return time.Time{}
}

func decodeData(p string, fields map[string]any) Data {
	var data Data
	if v, ok := fields["draft"].(bool); ok {
		data.Draft = v
	}
	if v, ok := fields["happening"].(bool); ok {
		data.Happening = &v
	}
	if v, ok := fields["happeningDate"]; ok && v != nil {
		if t, err := ParseDate(v); err == nil {
			data.HappeningDate = &t
		} else {
			slog.Warn("Ignoring unparseable happeningDate", logfields.Path(p), logfields.Error(err))
		}
	}
	data.Tags = toStrings(fields["tags"])
	return data
}

// toStrings accepts a single string or a list of scalars.
func toStrings(v any) []string {
	switch t := v.(type) {
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if e == nil {
				continue
			}
			out = append(out, fmt.Sprint(e))
		}
		return out
	}
	return nil
}

// resolveURL applies the permalink front matter value or derives the default URL
// from the input-relative path. permalink: false disables output.
func resolveURL(rel string, permalink any) (string, error) {
	switch p := permalink.(type) {
	case nil:
		return defaultURL(rel), nil
	case bool:
		if p {
			return "", fmt.Errorf("permalink: true is not supported")
		}
		return "", nil
	case string:
		p = strings.TrimSpace(p)
		if p == "" {
			return defaultURL(rel), nil
		}
		if strings.Contains(p, "..") {
			return "", fmt.Errorf("permalink %q escapes the output directory", p)
		}
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
		return p, nil
	default:
		return "", fmt.Errorf("unsupported permalink value of type %T", permalink)
	}
}

// defaultURL maps "posts/launch.md" to "/posts/launch/" and "about/index.md" to "/about/".
func defaultURL(rel string) string {
	dir, file := path.Split(rel)
	name := strings.TrimSuffix(file, path.Ext(file))
	if name == indexName {
		return "/" + dir
	}
	return "/" + dir + name + "/"
}

// OutputPathFor maps a URL to a file below output: directory URLs get index.html.
func OutputPathFor(output, url string) string {
	rel := strings.TrimPrefix(url, "/")
	if rel == "" || strings.HasSuffix(url, "/") {
		return filepath.Join(output, filepath.FromSlash(rel), htmlIndex)
	}
	return filepath.Join(output, filepath.FromSlash(rel))
}

func fileSlug(rel string) string {
	dir, file := path.Split(rel)
	name := strings.TrimSuffix(file, path.Ext(file))
	if name == indexName {
		if d := path.Base(strings.TrimSuffix(dir, "/")); d != "." && d != "" {
			return d
		}
		return ""
	}
	return name
}

func titleFromSlug(slug string) string {
	if slug == "" {
		return "Home"
	}
	words := strings.NewReplacer("-", " ", "_", " ").Replace(slug)
	// Casers carry state, so each call gets its own.
	return cases.Title(language.English).String(words)
}
