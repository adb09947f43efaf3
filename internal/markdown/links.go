package markdown

import "strings"

type LinkKind string

const (
	LinkKindInline              LinkKind = "inline"
	LinkKindImage               LinkKind = "image"
	LinkKindAuto                LinkKind = "auto"
	LinkKindReferenceDefinition LinkKind = "reference_definition"
)

type Link struct {
	Kind        LinkKind
	Destination string
}

// SitePath returns the path of a root-relative link ("/about/#team" gives "/about/").
// External, protocol-relative, fragment-only and relative links report false.
func (l Link) SitePath() (string, bool) {
	d := strings.TrimSpace(l.Destination)
	if !strings.HasPrefix(d, "/") || strings.HasPrefix(d, "//") {
		return "", false
	}
	if i := strings.IndexAny(d, "?#"); i >= 0 {
		d = d[:i]
	}
	return d, true
}
