package markdown

import (
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultTOCTags are the heading tags included in a table of contents.
var DefaultTOCTags = []string{"h1", "h2", "h3", "h4", "h5", "h6"}

// Heading is a heading with an id found in rendered HTML.
type Heading struct {
	Level int
	ID    string
	Text  string
}

// Headings returns the headings carrying an id attribute, in document order.
// Only tags listed in tags are considered.
func Headings(content string, tags []string) ([]Heading, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(content), body)
	if err != nil {
		return nil, err
	}

	var out []Heading
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && slices.Contains(tags, n.Data) {
			if lvl := headingLevel(n.DataAtom); lvl > 0 {
				if id := attr(n, "id"); id != "" {
					out = append(out, Heading{Level: lvl, ID: id, Text: strings.TrimSpace(textContent(n))})
					return
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return out, nil
}

// TOC renders a nested ordered list of the headings in content wrapped in
// <nav class="toc">. It returns "" when there are no headings.
func TOC(content string, tags []string) (string, error) {
	if len(tags) == 0 {
		tags = DefaultTOCTags
	}
	headings, err := Headings(content, tags)
	if err != nil {
		return "", err
	}
	if len(headings) == 0 {
		return "", nil
	}

	var b strings.Builder
	b.WriteString(`<nav class="toc">`)
	var levels []int
	for _, h := range headings {
		switch {
		case len(levels) == 0 || h.Level > levels[len(levels)-1]:
			b.WriteString("<ol>")
			levels = append(levels, h.Level)
		default:
			b.WriteString("</li>")
			for len(levels) > 1 && h.Level <= levels[len(levels)-2] {
				b.WriteString("</ol></li>")
				levels = levels[:len(levels)-1]
			}
			// A heading between two open levels joins the deeper list.
			levels[len(levels)-1] = h.Level
		}
		b.WriteString(`<li><a href="#`)
		b.WriteString(html.EscapeString(h.ID))
		b.WriteString(`">`)
		b.WriteString(html.EscapeString(h.Text))
		b.WriteString("</a>")
	}
	for range levels {
		b.WriteString("</li></ol>")
	}
	b.WriteString("</nav>")
	return b.String(), nil
}

func headingLevel(a atom.Atom) int {
	switch a {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	case atom.H4:
		return 4
	case atom.H5:
		return 5
	case atom.H6:
		return 6
	}
	return 0
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return b.String()
}
