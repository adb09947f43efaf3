package filters

import (
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"math"
	"os"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitebuilder/internal/markdown"
)

const wordsPerMinute = 200

// ReadTimeFilter estimates reading time of text or HTML at 200 words per minute,
// e.g. "3 min read". Anything non-empty reads in at least one minute.
func ReadTimeFilter(v any) string {
	words := len(strings.Fields(visibleText(fmt.Sprint(v))))
	if words == 0 {
		return "0 min read"
	}
	minutes := int(math.Ceil(float64(words) / wordsPerMinute))
	return fmt.Sprintf("%d min read", minutes)
}

// visibleText returns the text nodes of an HTML fragment separated by spaces.
// Script and style bodies are skipped.
func visibleText(s string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.StartTagToken:
			if a := atomOf(z); a == atom.Script || a == atom.Style {
				skip++
			}
		case html.EndTagToken:
			if a := atomOf(z); (a == atom.Script || a == atom.Style) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
				b.WriteByte(' ')
			}
		}
	}
}

func atomOf(z *html.Tokenizer) atom.Atom {
	name, _ := z.TagName()
	return atom.Lookup(name)
}

// UUIDFilter returns a random UUID. Arguments are ignored so it can sit in a pipeline.
func UUIDFilter(...any) string {
	return uuid.NewString()
}

// LinkFilter returns "active" when pageURL is the item URL or below it. The site root
// only matches itself.
func LinkFilter(itemURL, pageURL string) string {
	if itemURL == "" {
		return ""
	}
	if itemURL == pageURL {
		return "active"
	}
	if itemURL != "/" && strings.HasPrefix(pageURL, strings.TrimSuffix(itemURL, "/")+"/") {
		return "active"
	}
	return ""
}

// IDFilter turns a label into an HTML id: diacritics folded, lower case, runs of other
// characters collapsed into "-".
func IDFilter(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
			continue
		}
		dash = true
	}
	return b.String()
}

// LogFilter writes v to the debug log and renders nothing.
func LogFilter(v any) string {
	slog.Debug("Template log", slog.Any("value", v))
	return ""
}

// Ymlify parses a YAML string into a value templates can range over.
func Ymlify(s string) (any, error) {
	var v any
	if err := yaml.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("ymlify: %w", err)
	}
	return v, nil
}

// Stringify renders v as JSON.
func Stringify(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("stringify: %w", err)
	}
	return string(b), nil
}

// RemoveExtraWhitespace collapses whitespace runs into single spaces and trims.
func RemoveExtraWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Markdownify renders a markdown string as HTML.
func (f *Funcs) Markdownify(s string) (template.HTML, error) {
	out, err := f.md.Markdownify(s)
	if err != nil {
		return "", fmt.Errorf("markdownify: %w", err)
	}
	// #nosec G203 -- raw HTML in content is allowed by design of the markdown renderer
	return template.HTML(out), nil
}

// TOC renders a table of contents for rendered page HTML.
func TOC(content any) (template.HTML, error) {
	toc, err := markdown.TOC(fmt.Sprint(content), markdown.DefaultTOCTags)
	if err != nil {
		return "", fmt.Errorf("toc: %w", err)
	}
	// #nosec G203 -- built from escaped heading text and ids
	return template.HTML(toc), nil
}

// FileSubstring returns the part of a file below the input directory between the
// first occurrence of start and the next occurrence of end, markers excluded. An
// empty start means the beginning of the file and an empty end means its end.
func (f *Funcs) FileSubstring(p, start, end string) (string, error) {
	data, err := os.ReadFile(f.resolve(p))
	if err != nil {
		return "", fmt.Errorf("fileSubstring: %w", err)
	}
	s := string(data)
	if start != "" {
		i := strings.Index(s, start)
		if i < 0 {
			return "", nil
		}
		s = s[i+len(start):]
	}
	if end != "" {
		if j := strings.Index(s, end); j >= 0 {
			s = s[:j]
		}
	}
	return s, nil
}
