// Package agent implements the orchestrator that drives a model/tool loop
// for one conversation.
//
// An Agent owns an append-only conversation history, a mutable key/value
// state, a tool registry and a hook registry. Invoke runs the loop to
// completion; Stream additionally surfaces every lifecycle event as it
// happens. Each invocation cycles model calls and tool batches until the
// model stops without requesting tools:
//
//	user input -> model call -> tool batch -> model call -> ... -> result
//
// Lifecycle hooks fire at every boundary (see the Kind constants in this
// package). Before-phase events dispatch callbacks in registration order,
// after-phase events in reverse, and events with writable fields let
// callbacks steer the loop: redirect or block a tool call, rewrite a tool
// result, or request a model-call retry after a failure.
//
// Tool failures never abort an invocation; they are converted into
// error-status results the model can react to. A tool-use message is only
// appended to history together with its result message, so the history
// never contains a tool use without its paired result.
package agent
