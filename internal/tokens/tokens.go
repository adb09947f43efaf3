package tokens

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// Node is one entry of the token tree: either a leaf (Key and Value set) or a group
// (GroupName and Tokens set).
type Node struct {
	Key       string `yaml:"key"`
	Value     any    `yaml:"value"`
	GroupName string `yaml:"groupName"`
	Tokens    []Node `yaml:"tokens"`
}

// Document is the root of tokens.yml.
type Document struct {
	TokenList []Node `yaml:"token_list"`
}

// Flatten walks nodes in document order and joins group names and keys with ".".
// Later entries overwrite earlier ones with the same path. Leaves whose value is
// unset (see isSet) and nodes matching neither shape are skipped.
func Flatten(nodes []Node) *Store {
	values := make(map[string]string)
	flattenInto(values, nodes, "")
	return &Store{values: values}
}

func flattenInto(dst map[string]string, nodes []Node, prefix string) {
	for _, n := range nodes {
		switch {
		case n.Key != "" && isSet(n.Value) && scalarString(n.Value) != "":
			dst[join(prefix, n.Key)] = scalarString(n.Value)
		case n.GroupName != "" && n.Tokens != nil:
			flattenInto(dst, n.Tokens, join(prefix, n.GroupName))
		}
	}
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// scalarString renders YAML scalars (strings, numbers, booleans) as text.
// Mappings, sequences and null render as "".
// isSet reports whether v counts as a value: nil, false, "" and numeric zero
// do not.
func isSet(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case int:
		return t != 0
	case int64:
		return t != 0
	case uint64:
		return t != 0
	case float64:
		return t != 0 && !math.IsNaN(t)
	default:
		return true
	}
}

func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case map[string]any, []any:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

// ParseTokens decodes a tokens document and flattens its token_list.
func ParseTokens(data []byte) (*Store, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse token document: %w", err)
	}
	return Flatten(doc.TokenList), nil
}

// LoadTokens reads and flattens the token document at path. A missing or malformed
// document is a fatal data error.
func LoadTokens(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ferrors.DataError("failed to read token document").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	store, err := ParseTokens(data)
	if err != nil {
		return nil, ferrors.DataError("failed to parse token document").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	return store, nil
}
