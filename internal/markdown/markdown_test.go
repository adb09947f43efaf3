package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer_Render(t *testing.T) {
	r := NewRenderer()
	src := "## Getting Started\n\n" +
		"It's easy. Visit https://example.com today.\n\n" +
		"<div class=\"callout\">raw</div>\n\n" +
		"> quoted\n\n" +
		"    indented text\n\n" +
		"Call {{tk.company.phone}} now.\n"

	out, err := r.Render([]byte(src))
	require.NoError(t, err)
	html := string(out)

	assert.Contains(t, html, `<h2 id="getting-started">Getting Started</h2>`)
	assert.Contains(t, html, "It&rsquo;s")
	assert.Contains(t, html, `<a href="https://example.com">https://example.com</a>`)
	assert.Contains(t, html, `<div class="callout">raw</div>`)
	assert.Contains(t, html, "<blockquote>")
	assert.NotContains(t, html, "<pre><code>")
	assert.Contains(t, html, "indented text")
	assert.Contains(t, html, "{{tk.company.phone}}")
}

func TestRenderer_Markdownify(t *testing.T) {
	r := NewRenderer()
	out, err := r.Markdownify("# Title\n\n> not a quote\n\n**bold**")
	require.NoError(t, err)

	assert.Contains(t, out, "<h1>Title</h1>")
	assert.NotContains(t, out, "<blockquote>")
	assert.Contains(t, out, "<strong>bold</strong>")
}

func TestRenderer_FencedCodeStillWorks(t *testing.T) {
	out, err := NewRenderer().Render([]byte("```\nx := 1\n```\n"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "<pre><code>x := 1")
}
