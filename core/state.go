package core

import (
	"sort"
	"sync"
)

// State is a mutable, concurrency-safe key/value store scoped to one agent.
// Values must be JSON-serializable so state can round-trip through session
// stores; this is a contract, not an enforced check. State is never sent to
// the model. Tools and hook callbacks share it as a side channel across
// turns.
type State struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewState creates an empty state.
func NewState() *State {
	return &State{values: make(map[string]any)}
}

// NewStateFrom creates a state seeded with a copy of values.
func NewStateFrom(values map[string]any) *State {
	s := NewState()
	for k, v := range values {
		s.values[k] = v
	}
	return s
}

// Get returns the value stored under key and whether it exists.
func (s *State) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key, replacing any previous value.
func (s *State) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Delete removes key. Deleting a missing key is a no-op.
func (s *State) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

// Keys returns all keys in sorted order.
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

// Len returns the number of stored keys.
func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// Snapshot returns a shallow copy of the underlying map.
func (s *State) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}
