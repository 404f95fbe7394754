package runtime

import "sort"

// OutputStore holds the outputs of completed operations keyed by
// (operation name, field name). Values are strings; callers serialize
// structured results (JSON-encoded arrays and the like) before storing.
// Last writer wins for a given key. One instance exists per run and is
// owned by the Runner.
type OutputStore struct {
	values map[string]string
}

func NewOutputStore() *OutputStore {
	return &OutputStore{
		values: make(map[string]string),
	}
}

func (s *OutputStore) Set(op, field, value string) {
	s.values[op+"."+field] = value
}

func (s *OutputStore) Get(op, field string) (string, bool) {
	v, ok := s.values[op+"."+field]
	return v, ok
}

// ForOperation returns all fields stored under the given operation name.
func (s *OutputStore) ForOperation(op string) map[string]string {
	out := make(map[string]string)
	prefix := op + "."
	for k, v := range s.values {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			out[k[len(prefix):]] = v
		}
	}
	return out
}

// Keys returns every stored key in sorted order, for diagnostic dumps.
func (s *OutputStore) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// All returns the full key/value view of the store.
func (s *OutputStore) All() map[string]string {
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

func (s *OutputStore) Len() int {
	return len(s.values)
}
