// Package agentcore provides a thin facade over the agent runtime for
// applications that want a single import. Most programs interact with it by:
//  1. Creating a model adapter (anthropic, openai, bedrock or a mock)
//  2. Creating an agent via New() with tools, hooks and a system prompt
//  3. Calling Invoke for a final result, or Stream to observe the
//     invocation live
//
// The facade only re-exports; the subpackages remain the source of truth:
// agent (loop), core (message model), hook (lifecycle callbacks), tool
// (executable tools), model (provider adapters) and session (persistence).
package agentcore

import (
	"github.com/hupe1980/agentcore/agent"
	"github.com/hupe1980/agentcore/hook"
	"github.com/hupe1980/agentcore/model"
)

// Agent is the model-driven orchestration loop. See the agent package for
// the full API.
type Agent = agent.Agent

// Options configures an Agent.
type Options = agent.Options

// Result is the outcome of a completed invocation.
type Result = agent.Result

// New creates an agent backed by the given model. It is shorthand for
// agent.New.
func New(m model.Model, optFns ...func(o *Options)) *Agent {
	return agent.New(m, optFns...)
}

// Collect drains a Stream call, returning every emitted event together with
// the terminal error. It is a convenience for callers that want streaming
// hooks to fire but only care about the final outcome:
//
//	events, errs := a.Stream(ctx, core.TextBlock{Text: "hi"})
//	all, err := agentcore.Collect(events, errs)
func Collect(events <-chan hook.Event, errs <-chan error) ([]hook.Event, error) {
	var out []hook.Event
	for ev := range events {
		out = append(out, ev)
	}
	return out, <-errs
}
