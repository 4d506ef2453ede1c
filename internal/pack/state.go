package pack

import (
	"sort"
	"sync"
)

// State is the mutable key/value store shared by every resolver of one
// packaging session.
type State struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewState creates a state seeded with a copy of initial.
func NewState(initial map[string]any) *State {
	s := &State{values: make(map[string]any, len(initial))}
	for k, v := range initial {
		s.values[k] = v
	}
	return s
}

func (s *State) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *State) Set(key string, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = v
}

func (s *State) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

// Update replaces the value at key with fn's result while holding the lock.
// fn receives the current value and whether it was present.
func (s *State) Update(key string, fn func(v any, ok bool) any) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.values[key]
	v := fn(old, ok)
	s.values[key] = v
	return v
}

// Keys returns the stored keys, sorted.
func (s *State) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot returns a shallow copy of the stored values.
func (s *State) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}
