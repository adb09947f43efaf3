package site

import (
	"bytes"
	"html/template"
	"io/fs"
	"maps"
	"os"
	"path"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"git.home.luguber.info/inful/sitebuilder/internal/collections"
	"git.home.luguber.info/inful/sitebuilder/internal/content"
	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/frontmatter"
	"git.home.luguber.info/inful/sitebuilder/internal/sitedata"
)

// maxLayoutDepth bounds layout chains.
const maxLayoutDepth = 10

// partialsPattern selects templates available to every layout via {{template "partials/x.html" .}}.
const partialsPattern = "partials/**/*.html"

// PageData is the value layouts execute against.
type PageData struct {
	// Content is the rendered page body, or the output of the inner layout.
	Content     template.HTML
	Page        *content.Item
	Title       string
	Collections collections.Set
	Data        sitedata.Data
	// Params merges layout front matter under the page's own front matter.
	Params    map[string]any
	BuildTime time.Time
}

type layout struct {
	name   string
	tmpl   *template.Template
	parent string
	params map[string]any
}

// Layouts loads html/template layouts from the includes directory. A layout may
// name a parent in its own front matter; rendering walks the chain outward.
type Layouts struct {
	fsys   fs.FS
	base   *template.Template
	cache  map[string]*layout
	values func(any) any
}

// NewLayouts parses the partials below dir. A missing directory yields a set that
// only renders pages without a layout.
func NewLayouts(dir string, funcs template.FuncMap) (*Layouts, error) {
	l := &Layouts{
		fsys:  os.DirFS(dir),
		base:  template.New("").Funcs(funcs),
		cache: make(map[string]*layout),
	}
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, errors.RenderError("failed to open includes directory").WithCause(err).WithContext("path", dir).Build()
	}

	partials, err := doublestar.Glob(l.fsys, partialsPattern)
	if err != nil {
		return nil, errors.RenderError("failed to list partials").WithCause(err).WithContext("path", dir).Build()
	}
	for _, name := range partials {
		raw, err := fs.ReadFile(l.fsys, name)
		if err != nil {
			return nil, errors.RenderError("failed to read partial").WithCause(err).WithContext("path", name).Build()
		}
		if _, err := l.base.New(name).Parse(string(raw)); err != nil {
			return nil, errors.RenderError("failed to parse partial").WithCause(err).WithContext("path", name).Build()
		}
	}
	return l, nil
}

// ResolveParams sets a function applied to the merged params of every layout
// before it executes. html/template percent-encodes braces in URL attributes, so
// placeholders held in params must be resolved before that point.
func (l *Layouts) ResolveParams(fn func(any) any) {
	l.values = fn
}

// resolve maps a layout reference to a file: the name as given, with ".html"
// appended, and both again below layouts/.
func (l *Layouts) resolve(name string) (string, bool) {
	name = strings.TrimPrefix(path.Clean("/"+name), "/")
	candidates := []string{name, name + ".html", path.Join("layouts", name), path.Join("layouts", name+".html")}
	for _, c := range candidates {
		if info, err := fs.Stat(l.fsys, c); err == nil && !info.IsDir() {
			return c, true
		}
	}
	return "", false
}

func (l *Layouts) load(name string) (*layout, error) {
	if cached, ok := l.cache[name]; ok {
		return cached, nil
	}
	file, ok := l.resolve(name)
	if !ok {
		return nil, errors.RenderError("layout not found").WithContext("layout", name).Build()
	}
	raw, err := fs.ReadFile(l.fsys, file)
	if err != nil {
		return nil, errors.RenderError("failed to read layout").WithCause(err).WithContext("layout", name).Build()
	}
	fields, body, err := frontmatter.Parse(raw)
	if err != nil {
		return nil, errors.RenderError("invalid layout front matter").WithCause(err).WithContext("layout", name).Build()
	}

	tmpl, err := l.base.Clone()
	if err != nil {
		return nil, errors.RenderError("failed to clone partials").WithCause(err).Build()
	}
	tmpl, err = tmpl.New(file).Parse(string(body))
	if err != nil {
		return nil, errors.RenderError("failed to parse layout").WithCause(err).WithContext("layout", name).Build()
	}

	parent, _ := fields["layout"].(string)
	lt := &layout{name: name, tmpl: tmpl, parent: strings.TrimSpace(parent), params: fields}
	l.cache[name] = lt
	return lt, nil
}

// Render wraps body in the named layout and its parents. An empty name returns
// body unchanged.
func (l *Layouts) Render(name string, body []byte, data PageData) ([]byte, error) {
	seen := make(map[string]bool)
	out := body
	for depth := 0; name != ""; depth++ {
		if depth >= maxLayoutDepth {
			return nil, errors.RenderError("layout chain too deep").WithContext("layout", name).Build()
		}
		if seen[name] {
			return nil, errors.RenderError("layout cycle").WithContext("layout", name).Build()
		}
		seen[name] = true

		lt, err := l.load(name)
		if err != nil {
			return nil, err
		}

		params := maps.Clone(lt.params)
		if params == nil {
			params = make(map[string]any)
		}
		delete(params, "layout")
		maps.Copy(params, data.Params)
		if l.values != nil {
			if resolved, ok := l.values(params).(map[string]any); ok {
				params = resolved
			}
		}
		data.Params = params
		// #nosec G203 -- page bodies and inner layouts are trusted site content
		data.Content = template.HTML(out)

		var buf bytes.Buffer
		if err := lt.tmpl.Execute(&buf, data); err != nil {
			return nil, errors.RenderError("failed to execute layout").WithCause(err).WithContext("layout", name).Build()
		}
		out = buf.Bytes()
		name = lt.parent
	}
	return out, nil
}
