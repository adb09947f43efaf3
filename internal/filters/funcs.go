package filters

import (
	"html/template"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/markdown"
)

// Funcs holds the dependencies shared by the template functions.
type Funcs struct {
	inputDir string
	md       *markdown.Renderer
	rng      *rand.Rand
}

// Option configures Funcs.
type Option func(*Funcs)

// WithRand sets the random source used by randomBlogsFilter.
func WithRand(r *rand.Rand) Option {
	return func(f *Funcs) { f.rng = r }
}

// New creates the template functions. Paths given to pathExists, fileSubstring and
// the image shortcodes resolve against inputDir.
func New(inputDir string, md *markdown.Renderer, opts ...Option) *Funcs {
	f := &Funcs{
		inputDir: inputDir,
		md:       md,
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FuncMap returns the functions keyed by their template names.
func (f *Funcs) FuncMap() template.FuncMap {
	return template.FuncMap{
		"dateFilter":            DateFilter,
		"w3DateFilter":          W3DateFilter,
		"readTimeFilter":        ReadTimeFilter,
		"randomBlogsFilter":     f.RandomBlogsFilter,
		"uuidFilter":            UUIDFilter,
		"linkFilter":            LinkFilter,
		"militaryTime":          MilitaryTime,
		"idFilter":              IDFilter,
		"logFilter":             LogFilter,
		"ymlify":                Ymlify,
		"markdownify":           f.Markdownify,
		"stringify":             Stringify,
		"removeExtraWhitespace": RemoveExtraWhitespace,
		"fileSubstring":         f.FileSubstring,
		"categoriesFilter":      CategoriesFilter,
		"happeningsFilter":      HappeningsFilter,
		"pathExists":            f.PathExists,
		"toc":                   TOC,
		"image":                 f.Image,
		"logo":                  f.Logo,
		"cssBackground":         CSSBackground,
		"safeHTML":              SafeHTML,
		"safeURL":               SafeURL,
	}
}

// resolve maps a site path ("/images/a.png" or "images/a.png") below the input dir.
func (f *Funcs) resolve(p string) string {
	clean := filepath.Clean("/" + filepath.FromSlash(strings.TrimSpace(p)))
	return filepath.Join(f.inputDir, clean)
}

// PathExists reports whether p exists below the input directory.
func (f *Funcs) PathExists(p string) bool {
	_, err := os.Stat(f.resolve(p))
	return err == nil
}

// SafeHTML marks s as trusted HTML.
func SafeHTML(s string) template.HTML {
	// #nosec G203 -- layouts opt in explicitly for content they control
	return template.HTML(s)
}

// SafeURL marks s as a trusted URL, so schemes such as tel: are kept in href and
// src attributes.
func SafeURL(s string) template.URL {
	// #nosec G203 -- layouts opt in explicitly for URLs they control
	return template.URL(s)
}
