package content

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func TestLoader_Load(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	out := filepath.Join(root, "dist")

	writeFile(t, filepath.Join(src, "index.md"), "---\ntitle: Welcome\ndate: 2024-01-01\n---\n# Hi\n")
	writeFile(t, filepath.Join(src, "posts", "summer-fair.md"), "---\ndate: 2024-03-01\ntags: [events]\nhappeningDate: 2026-07-04\nhappening: true\n---\nBody\n")
	writeFile(t, filepath.Join(src, "happenings", "gala", "index.md"), "---\ndraft: false\ndate: 2024-02-01\nhappeningDate: 2026-11-20 19:30\ntags: happenings\n---\n")
	writeFile(t, filepath.Join(src, "pages", "contact.md"), "---\npermalink: /contact-us/\ndate: 2024-04-01\n---\n")
	writeFile(t, filepath.Join(src, "pages", "hidden.md"), "---\npermalink: false\ndate: 2024-05-01\n---\n")
	writeFile(t, filepath.Join(src, "_includes", "layouts", "ignored.md"), "not content\n")
	writeFile(t, filepath.Join(src, "notes.txt"), "not markdown\n")

	items, err := NewLoader(src, out).Load(t.Context())
	require.NoError(t, err)
	require.Len(t, items, 5)

	byURL := map[string]*Item{}
	for _, it := range items {
		byURL[it.URL] = it
	}

	home := items[0]
	assert.Equal(t, "/", home.URL)
	assert.Equal(t, "Welcome", home.Title)
	assert.Equal(t, filepath.Join(out, "index.html"), home.OutputPath)

	fair := byURL["/posts/summer-fair/"]
	require.NotNil(t, fair)
	assert.Equal(t, "Summer Fair", fair.Title)
	assert.Equal(t, []string{"events"}, fair.Data.Tags)
	require.NotNil(t, fair.Data.Happening)
	assert.True(t, *fair.Data.Happening)
	require.NotNil(t, fair.Data.HappeningDate)
	assert.Equal(t, time.Date(2026, 7, 4, 0, 0, 0, 0, time.UTC), *fair.Data.HappeningDate)
	assert.Equal(t, filepath.ToSlash(filepath.Join(src, "posts", "summer-fair.md")), fair.InputPath)

	gala := byURL["/happenings/gala/"]
	require.NotNil(t, gala)
	assert.Equal(t, "gala", gala.FileSlug)
	assert.False(t, gala.Data.Draft)
	assert.Nil(t, gala.Data.Happening)
	assert.Equal(t, []string{"happenings"}, gala.Data.Tags)
	require.NotNil(t, gala.Data.HappeningDate)
	assert.Equal(t, 19, gala.Data.HappeningDate.Hour())

	contact := byURL["/contact-us/"]
	require.NotNil(t, contact)
	assert.Equal(t, filepath.Join(out, "contact-us", "index.html"), contact.OutputPath)

	hidden := byURL[""]
	require.NotNil(t, hidden)
	assert.False(t, hidden.Written())
	assert.Empty(t, hidden.OutputPath)
}

func TestLoader_SortsByDateThenPath(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "b.md"), "---\ndate: 2024-01-01\n---\n")
	writeFile(t, filepath.Join(src, "a.md"), "---\ndate: 2024-01-01\n---\n")
	writeFile(t, filepath.Join(src, "c.md"), "---\ndate: 2023-01-01\n---\n")

	items, err := NewLoader(src, t.TempDir()).Load(t.Context())
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{items[0].FileSlug, items[1].FileSlug, items[2].FileSlug})
}

func TestLoader_UnparseableHappeningDateIsNil(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "x.md"), "---\nhappeningDate: next tuesday\n---\n")

	items, err := NewLoader(src, t.TempDir()).Load(t.Context())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Nil(t, items[0].Data.HappeningDate)
}

func TestLoader_InvalidFrontMatter(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "broken.md"), "---\ntitle: [oops\n---\n")

	_, err := NewLoader(src, t.TempDir()).Load(t.Context())
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryContent))
}

func TestLoader_MissingInput(t *testing.T) {
	_, err := NewLoader(filepath.Join(t.TempDir(), "nope"), t.TempDir()).Load(t.Context())
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryContent))
}

func TestResolveURL(t *testing.T) {
	tests := []struct {
		rel       string
		permalink any
		want      string
		wantErr   bool
	}{
		{rel: "index.md", want: "/"},
		{rel: "about/index.md", want: "/about/"},
		{rel: "posts/hello-world.md", want: "/posts/hello-world/"},
		{rel: "posts/a.md", permalink: "feed.xml", want: "/feed.xml"},
		{rel: "posts/a.md", permalink: "/custom/", want: "/custom/"},
		{rel: "posts/a.md", permalink: false, want: ""},
		{rel: "posts/a.md", permalink: "../escape/", wantErr: true},
		{rel: "posts/a.md", permalink: 42, wantErr: true},
	}
	for _, tt := range tests {
		got, err := resolveURL(tt.rel, tt.permalink)
		if tt.wantErr {
			assert.Error(t, err, tt.rel)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.rel)
	}
}

func TestOutputPathFor(t *testing.T) {
	assert.Equal(t, filepath.Join("dist", "index.html"), OutputPathFor("dist", "/"))
	assert.Equal(t, filepath.Join("dist", "a", "b", "index.html"), OutputPathFor("dist", "/a/b/"))
	assert.Equal(t, filepath.Join("dist", "feed.xml"), OutputPathFor("dist", "/feed.xml"))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-03-05")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDate("2026-03-05T10:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, 10, d.Hour())

	now := time.Now()
	d, err = ParseDate(now)
	require.NoError(t, err)
	assert.True(t, now.Equal(d))

	_, err = ParseDate("soon")
	assert.Error(t, err)
	_, err = ParseDate(12)
	assert.Error(t, err)
}

func TestLoader_RootRelativeInputPath(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	writeFile(t, filepath.Join(src, "posts", "launch.md"), "---\ndate: 2024-01-01\n---\n")

	l := NewLoader(src, filepath.Join(root, "dist"))
	l.Root = root
	items, err := l.Load(t.Context())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "src/posts/launch.md", items[0].InputPath)
	assert.True(t, items[0].Matches([]string{"./src/posts/**/*.md"}))
}
