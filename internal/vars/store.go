// Package vars implements the run-scoped variable store: a dynamic
// key/value environment read by conditions and written by setter nodes.
// All operations are total; malformed coercions fall back to zero/false
// instead of failing.
package vars

import "sort"

// Store maps variable names to dynamically typed values.
// It is not safe for concurrent use; each run serializes access.
type Store struct {
	values map[string]Value
}

func NewStore() *Store {
	return &Store{values: make(map[string]Value)}
}

// Get returns the value for name, or the absent sentinel if never set.
func (s *Store) Get(name string) Value {
	if v, ok := s.values[name]; ok {
		return v
	}
	return Absent()
}

// Set overwrites name unconditionally.
func (s *Store) Set(name string, v Value) {
	s.values[name] = v
}

// Increment coerces the current value to a number (absent or non-numeric
// counts as 0) and adds delta.
func (s *Store) Increment(name string, delta float64) {
	s.values[name] = Number(s.Get(name).AsNumber() + delta)
}

// Decrement coerces the current value to a number and subtracts delta.
func (s *Store) Decrement(name string, delta float64) {
	s.values[name] = Number(s.Get(name).AsNumber() - delta)
}

// Toggle coerces the current value to a boolean (absent counts as false)
// and writes the negation.
func (s *Store) Toggle(name string) {
	s.values[name] = Bool(!s.Get(name).AsBool())
}

// Names returns all set variable names in sorted order.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.values))
	for name := range s.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns a copy of the current bindings.
func (s *Store) Snapshot() map[string]Value {
	out := make(map[string]Value, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}
