package filters

import (
	"fmt"
	"html"
	"html/template"
	"strings"
)

const defaultSizes = "100vw"

func isRemote(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// imageURL maps a source asset to its public URL. Remote URLs are kept.
func imageURL(src string) string {
	if isRemote(src) {
		return src
	}
	return "/" + strings.TrimLeft(strings.TrimSpace(src), "/")
}

// Image renders a lazy-loading <img>. Optional arguments are the class and the
// sizes attribute.
func (f *Funcs) Image(src, alt string, opts ...string) template.HTML {
	cls, sizes := "", defaultSizes
	if len(opts) > 0 {
		cls = opts[0]
	}
	if len(opts) > 1 && opts[1] != "" {
		sizes = opts[1]
	}
	return imgTag(imageURL(src), alt, cls, sizes, true)
}

// Logo renders a lazy-loading <img> when the asset exists below the input
// directory, and a plain <img> otherwise.
func (f *Funcs) Logo(src, alt string, opts ...string) template.HTML {
	cls := ""
	if len(opts) > 0 {
		cls = opts[0]
	}
	if !isRemote(src) && f.PathExists(src) {
		sizes := defaultSizes
		if len(opts) > 1 && opts[1] != "" {
			sizes = opts[1]
		}
		return imgTag(imageURL(src), alt, cls, sizes, true)
	}
	return imgTag(src, alt, cls, "", false)
}

func imgTag(src, alt, cls, sizes string, lazy bool) template.HTML {
	var b strings.Builder
	b.WriteString(`<img`)
	if cls != "" {
		fmt.Fprintf(&b, ` class="%s"`, html.EscapeString(cls))
	}
	fmt.Fprintf(&b, ` src="%s" alt="%s"`, html.EscapeString(src), html.EscapeString(alt))
	if lazy {
		fmt.Fprintf(&b, ` sizes="%s" loading="lazy" decoding="async"`, html.EscapeString(sizes))
	}
	b.WriteString(`>`)
	// #nosec G203 -- every attribute is escaped above
	return template.HTML(b.String())
}

// CSSBackground renders a CSS rule setting the background image of selector.
func CSSBackground(src, selector string) template.CSS {
	sel := strings.NewReplacer("{", "", "}", "", "<", "").Replace(selector)
	u := strings.NewReplacer(`"`, "%22", ")", "%29", "\n", "").Replace(imageURL(src))
	// #nosec G203 -- selector and url are stripped of rule-breaking characters
	return template.CSS(fmt.Sprintf(`%s { background-image: url("%s"); }`, sel, u))
}
