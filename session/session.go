package session

import (
	"time"

	"github.com/hupe1980/agentcore/core"
)

// Session is one persisted conversation: the transcript plus the last
// recorded agent state snapshot.
type Session struct {
	ID       string
	Messages []core.Message
	State    map[string]any
	Created  time.Time
	Updated  time.Time
}

// NewSession constructs an empty session. An empty id is replaced with a
// generated one.
func NewSession(id string) *Session {
	if id == "" {
		id = core.NewID()
	}
	now := time.Now()
	return &Session{
		ID:      id,
		State:   make(map[string]any),
		Created: now,
		Updated: now,
	}
}

// Clone returns a copy whose Messages slice and State map are independent
// of the original. Messages themselves are immutable and shared.
func (s *Session) Clone() *Session {
	c := &Session{
		ID:      s.ID,
		Created: s.Created,
		Updated: s.Updated,
		State:   make(map[string]any, len(s.State)),
	}
	if len(s.Messages) > 0 {
		c.Messages = make([]core.Message, len(s.Messages))
		copy(c.Messages, s.Messages)
	}
	for k, v := range s.State {
		c.State[k] = v
	}
	return c
}

// Store persists sessions keyed by id. Implementations must be safe for
// concurrent use.
type Store interface {
	// Create makes a fresh session under the given id, replacing any
	// existing one. An empty id is replaced with a generated one.
	Create(sessionID string) (*Session, error)

	// Get returns the session with the given id, creating it lazily when
	// absent.
	Get(sessionID string) (*Session, error)

	// AppendMessage adds one message to the session transcript.
	AppendMessage(sessionID string, msg core.Message) error

	// PutState replaces the session's state snapshot.
	PutState(sessionID string, state map[string]any) error
}
