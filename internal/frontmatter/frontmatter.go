package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// Document is a content file split into its YAML front matter and body.
type Document struct {
	// Raw is the YAML between the delimiters, without the delimiters.
	Raw []byte
	// Body is everything after the closing delimiter.
	Body []byte
	// HasFrontMatter is false when the file does not start with a delimiter line.
	HasFrontMatter bool
}

// ErrMissingClosingDelimiter indicates the document started with a YAML
// front matter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Split separates `---` delimited YAML front matter from the body. LF and CRLF
// line endings are both accepted; the style of the first line ending decides.
func Split(content []byte) (Document, error) {
	nl := detectNewline(content)
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return Document{Body: content}, nil
	}

	rest := content[len(open):]
	if bytes.HasPrefix(rest, open) {
		return Document{Raw: []byte{}, Body: rest[len(open):], HasFrontMatter: true}, nil
	}

	closeSeq := []byte(nl + "---")
	idx := bytes.Index(rest, closeSeq)
	for idx >= 0 {
		after := rest[idx+len(closeSeq):]
		switch {
		case len(after) == 0:
			return Document{Raw: rest[:idx+len(nl)], Body: []byte{}, HasFrontMatter: true}, nil
		case bytes.HasPrefix(after, []byte(nl)):
			return Document{Raw: rest[:idx+len(nl)], Body: after[len(nl):], HasFrontMatter: true}, nil
		}
		// "---" followed by more text on the same line is not a delimiter.
		next := bytes.Index(after, closeSeq)
		if next < 0 {
			break
		}
		idx += len(closeSeq) + next
	}
	return Document{}, ErrMissingClosingDelimiter
}

// Decode parses raw YAML front matter into a map. An empty block yields an empty map.
func Decode(raw []byte) (map[string]any, error) {
	fields := map[string]any{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return fields, nil
	}
	if err := yaml.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// Parse splits content and decodes its front matter in one step.
func Parse(content []byte) (map[string]any, []byte, error) {
	doc, err := Split(content)
	if err != nil {
		return nil, nil, err
	}
	fields, err := Decode(doc.Raw)
	if err != nil {
		return nil, nil, err
	}
	return fields, doc.Body, nil
}

func detectNewline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
