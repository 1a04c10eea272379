package tool

import (
	"context"

	"github.com/hupe1980/agentcore/core"
	"github.com/hupe1980/agentcore/logging"
)

// Agent is the view of the owning agent exposed to running tools. It grants
// read access to the conversation and shared access to agent state without
// leaking orchestration internals.
type Agent interface {
	// Name returns the agent's name.
	Name() string

	// State returns the agent's mutable key/value state.
	State() *core.State

	// Messages returns a copy of the conversation history.
	Messages() []core.Message
}

// ContextOptions configures a tool execution context.
type ContextOptions struct {
	// Logger receives tool lifecycle log events. Defaults to a no-op logger.
	Logger logging.Logger

	// Progress receives intermediate payloads emitted by the running tool.
	// Nil disables progress forwarding.
	Progress func(payload any)
}

// Context carries everything a tool needs while it runs: the request
// context, the owning agent view, the tool-use correlation id and the
// progress emitter.
type Context struct {
	context.Context

	agent     Agent
	toolUseID string
	logger    logging.Logger
	progress  func(payload any)
}

// NewContext creates a tool execution context.
func NewContext(ctx context.Context, agent Agent, toolUseID string, optFns ...func(o *ContextOptions)) *Context {
	opts := ContextOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Context{
		Context:   ctx,
		agent:     agent,
		toolUseID: toolUseID,
		logger:    opts.Logger,
		progress:  opts.Progress,
	}
}

// Agent returns the owning agent view.
func (c *Context) Agent() Agent { return c.agent }

// ToolUseID returns the id correlating this execution with the model's
// tool-use request.
func (c *Context) ToolUseID() string { return c.toolUseID }

// Logger returns the logger for tool implementations.
func (c *Context) Logger() logging.Logger { return c.logger }

// Progress emits an intermediate payload to the invocation's event stream.
// The call is synchronous; when it returns the payload has been handed off.
// Without a configured emitter it is a no-op.
func (c *Context) Progress(payload any) {
	if c.progress != nil {
		c.progress(payload)
	}
}
