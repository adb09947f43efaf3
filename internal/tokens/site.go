package tokens

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// SiteAllowedFields are the top-level identity fields exposed as {{st.*}} tokens.
// Anything else in the site document stays private.
var SiteAllowedFields = []string{"name", "legalName", "url"}

const contactInfoKey = "contactInfo"

// FlattenSite selects the allow-listed identity fields and every contactInfo entry
// (prefixed "contactInfo.") from a decoded site document.
func FlattenSite(site map[string]any) *Store {
	values := make(map[string]string)
	for _, field := range SiteAllowedFields {
		if !isSet(site[field]) {
			continue
		}
		if v := scalarString(site[field]); v != "" {
			values[field] = v
		}
	}
	if contact, ok := asStringMap(site[contactInfoKey]); ok {
		for k, v := range contact {
			values[contactInfoKey+"."+k] = scalarString(v)
		}
	}
	return &Store{values: values}
}

// asStringMap accepts both JSON (map[string]any) and YAML decoded objects.
func asStringMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}

// ParseSite decodes a site identity document. Files ending in .json are decoded as
// JSON, everything else as YAML.
func ParseSite(name string, data []byte) (*Store, error) {
	site := map[string]any{}
	var err error
	if strings.EqualFold(filepath.Ext(name), ".json") {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		err = dec.Decode(&site)
	} else {
		err = yaml.Unmarshal(data, &site)
	}
	if err != nil {
		return nil, fmt.Errorf("parse site document: %w", err)
	}
	return FlattenSite(site), nil
}

// LoadSiteTokens reads the site identity document at path.
func LoadSiteTokens(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ferrors.DataError("failed to read site document").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	store, err := ParseSite(path, data)
	if err != nil {
		return nil, ferrors.DataError("failed to parse site document").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	return store, nil
}
