package hook

import "context"

// Kind identifies a lifecycle point where callbacks can be registered.
// Concrete kinds are defined next to the event types that fire at them.
type Kind string

// Event is a typed payload dispatched at a lifecycle point. Events may
// expose writable fields; because dispatch is strictly sequential, a later
// callback observes all mutations made by earlier ones, and the engine
// re-reads writable fields only after the whole chain has run.
type Event interface {
	// Kind returns the lifecycle point this event fires at.
	Kind() Kind

	// DispatchReverse reports whether callbacks run in reverse registration
	// order. After-style events reverse so that paired before/after
	// callbacks nest like defers.
	DispatchReverse() bool
}

// Callback is a single hook function. Returning an error aborts the
// remaining chain and fails the operation that triggered the dispatch.
type Callback func(ctx context.Context, ev Event) error

// Provider bundles related callbacks into a reusable feature. A provider
// typically registers several callbacks across different kinds.
type Provider interface {
	RegisterHooks(r *Registry)
}
