package session

import (
	"sync"
	"time"

	"github.com/hupe1980/agentcore/core"
)

// InMemoryStore is a volatile Store implementation keeping sessions in a
// process local map. It is safe for concurrent access and best suited for
// tests or ephemeral demos. Every returned session is a clone, so callers
// cannot mutate stored state from the outside.
type InMemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*Session)}
}

// Create implements Store.
func (s *InMemoryStore) Create(sessionID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(sessionID).Clone(), nil
}

// Get implements Store. A missing session is created lazily, so Get takes
// the write lock.
func (s *InMemoryStore) Get(sessionID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[sessionID]; ok {
		return sess.Clone(), nil
	}
	return s.createLocked(sessionID).Clone(), nil
}

// AppendMessage implements Store.
func (s *InMemoryStore) AppendMessage(sessionID string, msg core.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = s.createLocked(sessionID)
	}
	sess.Messages = append(sess.Messages, msg)
	sess.Updated = time.Now()
	return nil
}

// PutState implements Store.
func (s *InMemoryStore) PutState(sessionID string, state map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = s.createLocked(sessionID)
	}
	sess.State = make(map[string]any, len(state))
	for k, v := range state {
		sess.State[k] = v
	}
	sess.Updated = time.Now()
	return nil
}

// createLocked allocates and stores a new session under the requested key;
// the caller must hold the lock.
func (s *InMemoryStore) createLocked(sessionID string) *Session {
	sess := NewSession(sessionID)
	s.sessions[sessionID] = sess
	return sess
}

var _ Store = (*InMemoryStore)(nil)
