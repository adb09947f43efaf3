package markdown

import (
	"bytes"
	"reflect"
	"sort"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Renderer converts markdown to HTML. Page bodies get automatic heading ids, the
// Markdownify variant used by templates does not and also treats ">" literally.
// Both pass raw HTML through and never produce indented code blocks.
type Renderer struct {
	page   goldmark.Markdown
	inline goldmark.Markdown
}

// NewRenderer builds the page and filter renderers.
func NewRenderer() *Renderer {
	return &Renderer{
		page: newMarkdown(
			[]parser.BlockParser{parser.NewCodeBlockParser()},
			parser.WithAutoHeadingID(),
		),
		inline: newMarkdown(
			[]parser.BlockParser{parser.NewCodeBlockParser(), parser.NewBlockquoteParser()},
		),
	}
}

func newMarkdown(disabled []parser.BlockParser, opts ...parser.Option) goldmark.Markdown {
	p := parser.NewParser(
		parser.WithBlockParsers(withoutBlockParsers(parser.DefaultBlockParsers(), disabled)...),
		parser.WithInlineParsers(parser.DefaultInlineParsers()...),
		parser.WithParagraphTransformers(parser.DefaultParagraphTransformers()...),
	)
	return goldmark.New(
		goldmark.WithParser(p),
		goldmark.WithExtensions(extension.Linkify, extension.Typographer),
		goldmark.WithParserOptions(opts...),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
}

// withoutBlockParsers drops the default block parsers whose concrete type matches
// one of disabled.
func withoutBlockParsers(all []util.PrioritizedValue, disabled []parser.BlockParser) []util.PrioritizedValue {
	out := make([]util.PrioritizedValue, 0, len(all))
outer:
	for _, v := range all {
		for _, d := range disabled {
			if reflect.TypeOf(v.Value) == reflect.TypeOf(d) {
				continue outer
			}
		}
		out = append(out, v)
	}
	return out
}

// Render converts a page body to HTML.
func (r *Renderer) Render(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.page.Convert(src, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Markdownify converts a template string to HTML.
func (r *Renderer) Markdownify(src string) (string, error) {
	var buf bytes.Buffer
	if err := r.inline.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ExtractLinks parses a Markdown body and extracts link-like constructs.
//
// This is an analysis API; it does not attempt to re-render Markdown.
func ExtractLinks(body []byte) []Link {
	md := goldmark.New()
	ctx := parser.NewContext()
	root := md.Parser().Parse(text.NewReader(body), parser.WithContext(ctx))

	links := make([]Link, 0)
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *gmast.AutoLink:
			links = append(links, Link{Kind: LinkKindAuto, Destination: string(node.URL(body))})
		case *gmast.Image:
			links = append(links, Link{Kind: LinkKindImage, Destination: string(node.Destination)})
		case *gmast.Link:
			// Goldmark resolves reference-style links to a Link node with a Destination.
			links = append(links, Link{Kind: LinkKindInline, Destination: string(node.Destination)})
		}
		return gmast.WalkContinue, nil
	})

	// Reference definitions are stored in the parse context (not represented as AST nodes).
	refs := ctx.References()
	sort.Slice(refs, func(i, j int) bool {
		return string(refs[i].Label()) < string(refs[j].Label())
	})
	for _, ref := range refs {
		links = append(links, Link{Kind: LinkKindReferenceDefinition, Destination: string(ref.Destination())})
	}
	return links
}
