package transform

import "strings"

// Placeholder prefixes recognised in rendered HTML.
const (
	PrefixToken = "tk"
	PrefixSite  = "st"
)

const (
	openDelim  = "{{"
	closeDelim = "}}"
)

// Lookup resolves a placeholder path to its value.
type Lookup interface {
	Lookup(path string) (string, bool)
}

// Stats counts the placeholders handled by one Replace call.
type Stats struct {
	Resolved int
	Missing  int
	// MissingPaths lists unresolved paths in encounter order.
	MissingPaths []string
}

// Add accumulates other into s.
func (s *Stats) Add(other Stats) {
	s.Resolved += other.Resolved
	s.Missing += other.Missing
	s.MissingPaths = append(s.MissingPaths, other.MissingPaths...)
}

// Replace substitutes every {{<prefix>.<path>}} in text with the value lookup
// returns for path, or "" when the path is unknown. <path> is a non-empty run of
// characters other than '}'. The scan is a single left-to-right pass: inserted values
// are never rescanned. Text that does not form a complete placeholder is copied as is.
func Replace(text, prefix string, lookup Lookup) (string, Stats) {
	var stats Stats
	open := openDelim + prefix + "."

	first := strings.Index(text, open)
	if first < 0 {
		return text, stats
	}

	var b strings.Builder
	b.Grow(len(text))
	b.WriteString(text[:first])

	i := first
	for {
		pathStart := i + len(open)
		path, ok := scanPath(text[pathStart:])
		if !ok {
			// Not a placeholder here; emit one byte and look for the next opener.
			b.WriteByte(text[i])
			i++
		} else {
			if v, found := resolve(lookup, path); found {
				b.WriteString(v)
				stats.Resolved++
			} else {
				stats.Missing++
				stats.MissingPaths = append(stats.MissingPaths, path)
			}
			i = pathStart + len(path) + len(closeDelim)
		}

		next := strings.Index(text[i:], open)
		if next < 0 {
			b.WriteString(text[i:])
			break
		}
		b.WriteString(text[i : i+next])
		i += next
	}
	return b.String(), stats
}

// scanPath reads the path at the start of s up to the first '}' and checks that
// it is non-empty and followed by the closing delimiter.
func scanPath(s string) (string, bool) {
	end := strings.IndexByte(s, '}')
	if end <= 0 {
		return "", false
	}
	if !strings.HasPrefix(s[end:], closeDelim) {
		return "", false
	}
	return s[:end], true
}

func resolve(lookup Lookup, path string) (string, bool) {
	if lookup == nil {
		return "", false
	}
	return lookup.Lookup(path)
}
