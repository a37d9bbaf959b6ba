// Package options stores a snapshot of WordPress site options with
// get_option lookup semantics: absent keys yield zero values, and a local
// override layer wins over the seeded snapshot.
package options

// Store holds seeded site options plus local overrides.
type Store struct {
	seeded    map[string]any
	overrides map[string]any
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		seeded:    make(map[string]any),
		overrides: make(map[string]any),
	}
}

// Seed replaces the seeded snapshot values for the given keys. Overrides
// set earlier keep winning.
func (s *Store) Seed(values map[string]any) {
	for name, value := range values {
		s.seeded[name] = value
	}
}

// Set records a local override for name.
func (s *Store) Set(name string, value any) {
	s.overrides[name] = value
}

// Get returns the option value and whether the option exists at all.
func (s *Store) Get(name string) (any, bool) {
	if v, ok := s.overrides[name]; ok {
		return v, true
	}
	v, ok := s.seeded[name]
	return v, ok
}

// GetString returns the option as a string, or "" when the option is
// missing or not a string.
func (s *Store) GetString(name string) string {
	v, ok := s.Get(name)
	if !ok {
		return ""
	}
	str, _ := v.(string)
	return str
}

// StringSlice returns the option coerced to a string slice. Options fetched
// over REST arrive as []any of strings; locally seeded values may already be
// []string. Anything else yields nil.
func (s *Store) StringSlice(name string) []string {
	v, ok := s.Get(name)
	if !ok {
		return nil
	}
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}
