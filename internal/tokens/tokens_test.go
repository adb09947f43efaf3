package tokens

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

func TestFlatten_GroupedLeaf(t *testing.T) {
	store := Flatten([]Node{
		{GroupName: "g", Tokens: []Node{{Key: "a", Value: "1"}}},
	})

	v, ok := store.Lookup("g.a")
	require.True(t, ok)
	assert.Equal(t, "1", v)
	assert.Equal(t, 1, store.Len())
}

func TestParseTokens_NestedGroupsAndScalars(t *testing.T) {
	doc := []byte(`
token_list:
  - key: phone
    value: "555-0100"
  - groupName: brand
    tokens:
      - key: primary
        value: "#112233"
      - groupName: social
        tokens:
          - key: instagram
            value: "@example"
  - key: founded
    value: 1998
  - key: empty
    value: ""
  - unrelated: true
`)
	store, err := ParseTokens(doc)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"phone":                  "555-0100",
		"brand.primary":          "#112233",
		"brand.social.instagram": "@example",
		"founded":                "1998",
	}, store.Map())
	assert.Equal(t, []string{"brand.primary", "brand.social.instagram", "founded", "phone"}, store.Keys())
}

func TestParseTokens_FalsyValuesDropped(t *testing.T) {
	doc := []byte(`
token_list:
  - key: zero
    value: 0
  - key: off
    value: false
  - key: none
    value: ~
  - key: on
    value: true
  - key: ratio
    value: 0.5
`)
	store, err := ParseTokens(doc)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"on": "true", "ratio": "0.5"}, store.Map())
}

func TestFlatten_LastWriteWins(t *testing.T) {
	store := Flatten([]Node{
		{Key: "x", Value: "first"},
		{GroupName: "g", Tokens: []Node{{Key: "y", Value: "inner"}}},
		{Key: "x", Value: "second"},
		{GroupName: "g", Tokens: []Node{{Key: "y", Value: "later"}}},
	})

	x, _ := store.Lookup("x")
	y, _ := store.Lookup("g.y")
	assert.Equal(t, "second", x)
	assert.Equal(t, "later", y)
}

func TestLoadTokens_MissingFile(t *testing.T) {
	_, err := LoadTokens(filepath.Join(t.TempDir(), "tokens.yml"))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryData))
}

func TestLoadTokens_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.yml")
	require.NoError(t, os.WriteFile(path, []byte("token_list: [\n  - key: a\n"), 0o600))

	_, err := LoadTokens(path)
	require.Error(t, err)
	classified, ok := ferrors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, "failed to parse token document", classified.Message())
	p, _ := classified.Context().GetString("path")
	assert.Equal(t, path, p)
}

func TestStore_NilIsEmpty(t *testing.T) {
	var s *Store
	_, ok := s.Lookup("anything")
	assert.False(t, ok)
	assert.Zero(t, s.Len())
	assert.Empty(t, s.Map())
}

func TestNewStore_CopiesInput(t *testing.T) {
	in := map[string]string{"a": "1"}
	s := NewStore(in)
	in["a"] = "2"
	v, _ := s.Lookup("a")
	assert.Equal(t, "1", v)
}
