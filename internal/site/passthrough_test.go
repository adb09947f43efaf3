package site

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/content"
)

func TestCopyPassthrough(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "dist")
	writeFile(t, filepath.Join(root, "src", "images", "a.png"), "a")
	writeFile(t, filepath.Join(root, "src", "images", "nested", "b.png"), "b")
	writeFile(t, filepath.Join(root, "src", "favicon", "favicon.ico"), "ico")
	writeFile(t, filepath.Join(root, "src", "_redirects"), "/old /new 301\n")

	n, err := copyPassthrough(t.Context(), root, out, []config.PassthroughConfig{
		{From: "src/images", To: "images"},
		{From: "src/favicon", To: ""},
		{From: "src/_redirects", To: "_redirects"},
		{From: "src/missing", To: "missing"},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	assert.Equal(t, "b", readFile(t, filepath.Join(out, "images", "nested", "b.png")))
	assert.Equal(t, "ico", readFile(t, filepath.Join(out, "favicon.ico")))
	assert.Equal(t, "/old /new 301\n", readFile(t, filepath.Join(out, "_redirects")))
	assert.NoDirExists(t, filepath.Join(out, "missing"))
}

func TestCheckLinks(t *testing.T) {
	out := t.TempDir()
	writeFile(t, filepath.Join(out, "images", "a.png"), "a")

	items := []*content.Item{
		{InputPath: "src/index.md", URL: "/", Body: []byte("[about](/about) [img](/images/a.png) [ext](https://example.com) [rel](../x/) [gone](/gone/#top)")},
		{InputPath: "src/about.md", URL: "/about/"},
		{InputPath: "src/draft.md", Body: []byte("[ignored](/nowhere/)")},
	}

	broken := checkLinks(out, items)
	require.Len(t, broken, 1)
	assert.Equal(t, BrokenLink{Source: "src/index.md", Target: "/gone/"}, broken[0])
}
