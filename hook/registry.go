package hook

import (
	"context"
	"sync"
)

// Registry stores callbacks per kind and dispatches events to them.
//
// Callbacks execute sequentially in registration order, or in reverse
// registration order for events that report DispatchReverse. The first
// callback error stops the chain and is returned to the dispatcher.
// Registration is safe for concurrent use and may happen between, or even
// during, dispatches; a dispatch operates on a snapshot of the callbacks
// registered at its start.
type Registry struct {
	mu        sync.RWMutex
	callbacks map[Kind][]Callback
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{callbacks: make(map[Kind][]Callback)}
}

// AddCallback registers cb for the given kind. Multiple callbacks per kind
// are allowed and keep their registration order.
func (r *Registry) AddCallback(kind Kind, cb Callback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks[kind] = append(r.callbacks[kind], cb)
}

// AddProvider lets p register its callbacks on the registry.
func (r *Registry) AddProvider(p Provider) {
	p.RegisterHooks(r)
}

// Len returns the number of callbacks registered for kind.
func (r *Registry) Len(kind Kind) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.callbacks[kind])
}

// Dispatch runs all callbacks registered for the event's kind and waits for
// each to finish before invoking the next. With no callbacks registered it
// is a no-op.
func (r *Registry) Dispatch(ctx context.Context, ev Event) error {
	r.mu.RLock()
	registered := r.callbacks[ev.Kind()]
	cbs := make([]Callback, len(registered))
	copy(cbs, registered)
	r.mu.RUnlock()

	if ev.DispatchReverse() {
		for i := len(cbs) - 1; i >= 0; i-- {
			if err := cbs[i](ctx, ev); err != nil {
				return err
			}
		}
		return nil
	}
	for _, cb := range cbs {
		if err := cb(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}
