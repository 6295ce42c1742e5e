// Package vars holds the variable dictionary that lets later expressions
// reference earlier results.
package vars

import (
	"maps"
	"sort"
	"sync"

	"github.com/example/mathboard/internal/recognize"
)

// Store maps variable names to their last assigned result.
type Store struct {
	mu   sync.RWMutex
	vars map[string]string
}

// New returns an empty store.
func New() *Store {
	return &Store{vars: make(map[string]string)}
}

// Merge records every assignment item. Later items win over earlier ones,
// both within the batch and against existing entries. It returns the number
// of assignments applied.
func (s *Store) Merge(items []recognize.Item) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.vars == nil {
		s.vars = make(map[string]string)
	}
	n := 0
	for _, it := range items {
		if !it.Assign {
			continue
		}
		s.vars[it.Expr] = it.Result
		n++
	}
	return n
}

// Set assigns a single variable.
func (s *Store) Set(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.vars == nil {
		s.vars = make(map[string]string)
	}
	s.vars[name] = value
}

// Get returns the value bound to name.
func (s *Store) Get(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vars[name]
	return v, ok
}

// Snapshot returns a copy of the dictionary, never nil.
func (s *Store) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.vars))
	maps.Copy(out, s.vars)
	return out
}

// Names returns the bound names in sorted order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.vars))
	for k := range s.vars {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Len reports how many variables are bound.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vars)
}

// Reset removes every binding.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.vars)
}
