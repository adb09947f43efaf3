// Package sitedata loads global data files (the "_data" directory) made available to
// every layout under .Data.
package sitedata

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// Extensions recognised as data files.
var Extensions = []string{".yml", ".yaml", ".json"}

// Data maps a file's base name (without extension) to its decoded contents.
type Data map[string]any

// Keys returns the data keys in sorted order.
func (d Data) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Load decodes every data file directly inside dir. A missing directory yields empty
// data. When two files share a base name the later one in lexical order wins.
func Load(dir string) (Data, error) {
	data := Data{}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return data, nil
		}
		return nil, errors.DataError("failed to read data directory").
			WithCause(err).
			WithContext("path", dir).
			Build()
	}

	for _, e := range entries {
		if e.IsDir() || !isDataFile(e.Name()) {
			continue
		}
		p := filepath.Join(dir, e.Name())
		raw, err := os.ReadFile(p)
		if err != nil {
			return nil, errors.DataError("failed to read data file").
				WithCause(err).
				WithContext("path", p).
				Build()
		}
		v, err := Decode(e.Name(), raw)
		if err != nil {
			return nil, errors.DataError("invalid data file").
				WithCause(err).
				WithContext("path", p).
				Build()
		}
		data[strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))] = v
	}
	return data, nil
}

// Decode parses a single data document by file name extension.
func Decode(name string, raw []byte) (any, error) {
	var v any
	if strings.EqualFold(filepath.Ext(name), ".json") {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	}
	if err := yaml.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func isDataFile(name string) bool {
	return slices.Contains(Extensions, strings.ToLower(filepath.Ext(name)))
}
