package tokens

import (
	"maps"
	"slices"
)

// Store is a read-only flat mapping from dotted path to replacement value.
// A Store never changes after construction, so concurrent lookups need no locking.
type Store struct {
	values map[string]string
}

// NewStore copies values into a new Store.
func NewStore(values map[string]string) *Store {
	s := &Store{values: make(map[string]string, len(values))}
	maps.Copy(s.values, values)
	return s
}

// Lookup returns the value for path. A nil Store resolves nothing.
func (s *Store) Lookup(path string) (string, bool) {
	if s == nil {
		return "", false
	}
	v, ok := s.values[path]
	return v, ok
}

// Len returns the number of entries.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.values)
}

// Keys returns all paths in sorted order.
func (s *Store) Keys() []string {
	if s == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(s.values))
}

// Map returns a copy of the underlying values.
func (s *Store) Map() map[string]string {
	out := make(map[string]string, s.Len())
	if s != nil {
		maps.Copy(out, s.values)
	}
	return out
}
