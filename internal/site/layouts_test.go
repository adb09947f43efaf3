package site

import (
	"html/template"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

func TestLayouts_ChainAndParams(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "partials", "nav", "menu.html"), `<nav>{{.Title}}</nav>`)
	writeFile(t, filepath.Join(dir, "base.html"), "---\ntheme: light\n---\n"+
		`<body class="{{.Params.theme}}">{{template "partials/nav/menu.html" .}}{{.Content}}</body>`)
	writeFile(t, filepath.Join(dir, "layouts", "page.html"), "---\nlayout: base\n---\n<main>{{.Content}}</main>")

	l, err := NewLayouts(dir, template.FuncMap{})
	require.NoError(t, err)

	out, err := l.Render("page", []byte("<p>hi</p>"), PageData{Title: "Home"})
	require.NoError(t, err)
	assert.Equal(t, `<body class="light"><nav>Home</nav><main><p>hi</p></main></body>`, string(out))

	out, err = l.Render("base.html", []byte("x"), PageData{Title: "T", Params: map[string]any{"theme": "dark"}})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), `<body class="dark">`), string(out))
}

func TestLayouts_NoLayoutReturnsBody(t *testing.T) {
	l, err := NewLayouts(filepath.Join(t.TempDir(), "missing"), nil)
	require.NoError(t, err)

	out, err := l.Render("", []byte("<p>raw</p>"), PageData{})
	require.NoError(t, err)
	assert.Equal(t, "<p>raw</p>", string(out))
}

func TestLayouts_Errors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.html"), "---\nlayout: b\n---\nA{{.Content}}")
	writeFile(t, filepath.Join(dir, "b.html"), "---\nlayout: a\n---\nB{{.Content}}")
	writeFile(t, filepath.Join(dir, "broken.html"), "{{.Content")
	writeFile(t, filepath.Join(dir, "fails.html"), "{{.Nope}}")

	l, err := NewLayouts(dir, nil)
	require.NoError(t, err)

	for _, name := range []string{"a", "missing", "broken", "fails"} {
		t.Run(name, func(t *testing.T) {
			_, err := l.Render(name, nil, PageData{})
			require.Error(t, err)
			assert.True(t, errors.HasCategory(err, errors.CategoryRender))
		})
	}
}

func TestLayouts_FuncMapAvailable(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "shout.html"), `{{upper .Title}}`)

	l, err := NewLayouts(dir, template.FuncMap{"upper": strings.ToUpper})
	require.NoError(t, err)

	out, err := l.Render("shout", nil, PageData{Title: "quiet"})
	require.NoError(t, err)
	assert.Equal(t, "QUIET", string(out))
}
