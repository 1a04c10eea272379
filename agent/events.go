package agent

import (
	"github.com/hupe1980/agentcore/core"
	"github.com/hupe1980/agentcore/hook"
	"github.com/hupe1980/agentcore/tool"
)

// Lifecycle points an Agent dispatches hook events at. Before-phase events
// run callbacks in registration order; after-phase events run them in
// reverse so paired callbacks nest like defers.
const (
	// BeforeInvocation fires once per invocation, after the concurrency
	// guard is acquired and before input is appended to history.
	BeforeInvocation hook.Kind = "before_invocation"

	// AfterInvocation fires exactly once per invocation on every exit path
	// except a guard rejection, which precedes BeforeInvocation.
	AfterInvocation hook.Kind = "after_invocation"

	// BeforeModelCall fires before each model request, including retries.
	BeforeModelCall hook.Kind = "before_model_call"

	// AfterModelCall fires after each model request with either the
	// aggregated message or the failure.
	AfterModelCall hook.Kind = "after_model_call"

	// BeforeTools fires before a batch of tool executions.
	BeforeTools hook.Kind = "before_tools"

	// AfterTools fires after a batch of tool executions.
	AfterTools hook.Kind = "after_tools"

	// BeforeToolCall fires before each individual tool execution.
	BeforeToolCall hook.Kind = "before_tool_call"

	// AfterToolCall fires after each individual tool execution.
	AfterToolCall hook.Kind = "after_tool_call"

	// MessageAdded fires synchronously inside each history append; the
	// agent's history already contains the message when callbacks run.
	MessageAdded hook.Kind = "message_added"

	// ModelStream fires for every raw stream event received from the model.
	ModelStream hook.Kind = "model_stream"

	// ContentBlock fires when the aggregator completes a content block.
	ContentBlock hook.Kind = "content_block"

	// ToolProgress fires for each intermediate payload a running tool emits.
	ToolProgress hook.Kind = "tool_progress"

	// ResultKind identifies the terminal event on the Stream channel. It is
	// not dispatched through the registry.
	ResultKind hook.Kind = "result"
)

// BeforeInvocationEvent marks the start of an invocation.
type BeforeInvocationEvent struct {
	Agent *Agent
}

// Kind implements hook.Event.
func (*BeforeInvocationEvent) Kind() hook.Kind { return BeforeInvocation }

// DispatchReverse implements hook.Event.
func (*BeforeInvocationEvent) DispatchReverse() bool { return false }

// AfterInvocationEvent marks the end of an invocation. It is dispatched on
// success and on every failure past the concurrency guard, so callbacks can
// rely on it for cleanup.
type AfterInvocationEvent struct {
	Agent *Agent
}

// Kind implements hook.Event.
func (*AfterInvocationEvent) Kind() hook.Kind { return AfterInvocation }

// DispatchReverse implements hook.Event.
func (*AfterInvocationEvent) DispatchReverse() bool { return true }

// BeforeModelCallEvent fires before the conversation is sent to the model.
type BeforeModelCallEvent struct {
	Agent *Agent
}

// Kind implements hook.Event.
func (*BeforeModelCallEvent) Kind() hook.Kind { return BeforeModelCall }

// DispatchReverse implements hook.Event.
func (*BeforeModelCallEvent) DispatchReverse() bool { return false }

// AfterModelCallEvent reports the outcome of one model call. Exactly one of
// Message and Error is set. On failure a callback may set RetryModelCall to
// request another attempt; the loop reads the flag after the whole chain has
// run, so the last callback to write it wins.
type AfterModelCallEvent struct {
	Agent      *Agent
	StopReason core.StopReason
	Message    *core.Message
	Error      error

	// RetryModelCall is writable. Only consulted when Error is set.
	RetryModelCall bool
}

// Kind implements hook.Event.
func (*AfterModelCallEvent) Kind() hook.Kind { return AfterModelCall }

// DispatchReverse implements hook.Event.
func (*AfterModelCallEvent) DispatchReverse() bool { return true }

// BeforeToolsEvent fires before the tool batch of one assistant turn runs.
// Message is the assistant message requesting the executions; it has not
// been appended to history yet.
type BeforeToolsEvent struct {
	Agent    *Agent
	Message  core.Message
	ToolUses []core.ToolUseBlock
}

// Kind implements hook.Event.
func (*BeforeToolsEvent) Kind() hook.Kind { return BeforeTools }

// DispatchReverse implements hook.Event.
func (*BeforeToolsEvent) DispatchReverse() bool { return false }

// AfterToolsEvent fires after a tool batch with the collected results in
// execution order.
type AfterToolsEvent struct {
	Agent   *Agent
	Results []core.ToolResultBlock
}

// Kind implements hook.Event.
func (*AfterToolsEvent) Kind() hook.Kind { return AfterTools }

// DispatchReverse implements hook.Event.
func (*AfterToolsEvent) DispatchReverse() bool { return true }

// BeforeToolCallEvent fires before one tool execution. ToolUse and Tool are
// writable: callbacks may rewrite the input, redirect to another tool, or
// clear Tool to block the execution. The executor re-reads both fields after
// dispatch; a nil Tool produces an error result naming the requested tool.
type BeforeToolCallEvent struct {
	Agent *Agent

	// ToolUse is writable.
	ToolUse core.ToolUseBlock

	// Tool is writable. Nil when no tool is registered under the requested
	// name, or when a callback cleared it.
	Tool tool.Tool
}

// Kind implements hook.Event.
func (*BeforeToolCallEvent) Kind() hook.Kind { return BeforeToolCall }

// DispatchReverse implements hook.Event.
func (*BeforeToolCallEvent) DispatchReverse() bool { return false }

// AfterToolCallEvent fires after one tool execution with the result that
// will be placed into the tool-result message. Result is writable: callbacks
// may replace content or flip the status, and the executor re-reads it after
// dispatch. Error carries the tool's original error when the result was
// synthesized from one.
type AfterToolCallEvent struct {
	Agent   *Agent
	ToolUse core.ToolUseBlock
	Tool    tool.Tool
	Error   error

	// Result is writable.
	Result core.ToolResultBlock
}

// Kind implements hook.Event.
func (*AfterToolCallEvent) Kind() hook.Kind { return AfterToolCall }

// DispatchReverse implements hook.Event.
func (*AfterToolCallEvent) DispatchReverse() bool { return true }

// MessageAddedEvent fires for every message appended to the conversation
// history. Index is the message's position in the history.
type MessageAddedEvent struct {
	Agent   *Agent
	Message core.Message
	Index   int
}

// Kind implements hook.Event.
func (*MessageAddedEvent) Kind() hook.Kind { return MessageAdded }

// DispatchReverse implements hook.Event.
func (*MessageAddedEvent) DispatchReverse() bool { return false }

// ModelStreamEvent wraps one raw stream event for observation. Mutating the
// wrapped event has no effect on aggregation.
type ModelStreamEvent struct {
	Agent *Agent
	Event core.StreamEvent
}

// Kind implements hook.Event.
func (*ModelStreamEvent) Kind() hook.Kind { return ModelStream }

// DispatchReverse implements hook.Event.
func (*ModelStreamEvent) DispatchReverse() bool { return false }

// ContentBlockEvent carries a content block the aggregator completed. It is
// emitted at the point the block's terminating stream event arrives.
type ContentBlockEvent struct {
	Agent *Agent
	Block core.ContentBlock
}

// Kind implements hook.Event.
func (*ContentBlockEvent) Kind() hook.Kind { return ContentBlock }

// DispatchReverse implements hook.Event.
func (*ContentBlockEvent) DispatchReverse() bool { return false }

// ToolProgressEvent carries an intermediate payload emitted by a running
// tool. The payload is opaque to the engine.
type ToolProgressEvent struct {
	Agent   *Agent
	ToolUse core.ToolUseBlock
	Payload any
}

// Kind implements hook.Event.
func (*ToolProgressEvent) Kind() hook.Kind { return ToolProgress }

// DispatchReverse implements hook.Event.
func (*ToolProgressEvent) DispatchReverse() bool { return false }

// ResultEvent is the final event on the Stream channel before it closes. It
// is never dispatched through the hook registry.
type ResultEvent struct {
	Agent      *Agent
	StopReason core.StopReason
	Message    core.Message
	Usage      core.Usage
}

// Kind implements hook.Event.
func (*ResultEvent) Kind() hook.Kind { return ResultKind }

// DispatchReverse implements hook.Event.
func (*ResultEvent) DispatchReverse() bool { return false }

var (
	_ hook.Event = (*BeforeInvocationEvent)(nil)
	_ hook.Event = (*AfterInvocationEvent)(nil)
	_ hook.Event = (*BeforeModelCallEvent)(nil)
	_ hook.Event = (*AfterModelCallEvent)(nil)
	_ hook.Event = (*BeforeToolsEvent)(nil)
	_ hook.Event = (*AfterToolsEvent)(nil)
	_ hook.Event = (*BeforeToolCallEvent)(nil)
	_ hook.Event = (*AfterToolCallEvent)(nil)
	_ hook.Event = (*MessageAddedEvent)(nil)
	_ hook.Event = (*ModelStreamEvent)(nil)
	_ hook.Event = (*ContentBlockEvent)(nil)
	_ hook.Event = (*ToolProgressEvent)(nil)
	_ hook.Event = (*ResultEvent)(nil)
)
