package session

import (
	"context"

	"github.com/hupe1980/agentcore/agent"
	"github.com/hupe1980/agentcore/core"
	"github.com/hupe1980/agentcore/hook"
)

// Recorder is a hook provider that mirrors an agent's conversation into a
// Store as it grows. Messages are appended the moment they enter history;
// the state snapshot is written once per invocation, when it ends. Attach
// it via the agent's Hooks option:
//
//	store := session.NewInMemoryStore()
//	a := agent.New(m, func(o *agent.Options) {
//		o.Hooks = []hook.Provider{session.NewRecorder(store, "sess-1")}
//	})
//
// A store failure aborts the invocation; history must not silently diverge
// from what was persisted.
type Recorder struct {
	store     Store
	sessionID string
}

// NewRecorder constructs a Recorder writing to the given store under the
// given session id. An empty id is replaced with a generated one.
func NewRecorder(store Store, sessionID string) *Recorder {
	if sessionID == "" {
		sessionID = core.NewID()
	}
	return &Recorder{store: store, sessionID: sessionID}
}

// SessionID returns the id this recorder writes under.
func (r *Recorder) SessionID() string { return r.sessionID }

// RegisterHooks implements hook.Provider.
func (r *Recorder) RegisterHooks(reg *hook.Registry) {
	reg.AddCallback(agent.MessageAdded, r.onMessageAdded)
	reg.AddCallback(agent.AfterInvocation, r.onAfterInvocation)
}

func (r *Recorder) onMessageAdded(ctx context.Context, ev hook.Event) error {
	e, ok := ev.(*agent.MessageAddedEvent)
	if !ok {
		return nil
	}
	return r.store.AppendMessage(r.sessionID, e.Message)
}

func (r *Recorder) onAfterInvocation(ctx context.Context, ev hook.Event) error {
	e, ok := ev.(*agent.AfterInvocationEvent)
	if !ok {
		return nil
	}
	return r.store.PutState(r.sessionID, e.Agent.State().Snapshot())
}

var _ hook.Provider = (*Recorder)(nil)
