package agent

import (
	"errors"
	"sync"

	"github.com/hupe1980/agentcore/core"
	"github.com/hupe1980/agentcore/hook"
	"github.com/hupe1980/agentcore/logging"
	"github.com/hupe1980/agentcore/model"
	"github.com/hupe1980/agentcore/tool"
)

// ErrConcurrentInvocation is returned when Invoke or Stream is called while
// another invocation is still in flight on the same agent. The conversation
// history is not safe for interleaved mutation, so the second call fails
// immediately instead of queueing.
var ErrConcurrentInvocation = errors.New("agent: invocation already in progress")

// ErrMaxTurnsExceeded is returned when an invocation reaches the configured
// model-turn limit without concluding. It usually means the model kept
// requesting tools in a cycle.
var ErrMaxTurnsExceeded = errors.New("agent: max turns exceeded")

// Options configures an Agent instance.
//
// Use functional options with New to override defaults.
type Options struct {
	// Name identifies the agent in logs and tool contexts.
	Name string

	// Description documents the agent's purpose.
	Description string

	// SystemPrompt is sent with every model request. It is rendered as a
	// template against the agent's state snapshot, so "{{.key}}" expands to
	// the current state value; prompts without template markers pass
	// through unchanged.
	SystemPrompt string

	// Tools are registered with the agent's tool registry. Duplicate names
	// are skipped with a warning.
	Tools []tool.Tool

	// ToolChoice constrains the model's tool selection. Nil leaves the
	// provider default (auto).
	ToolChoice *core.ToolChoice

	// Hooks are providers registered on the agent's hook registry.
	Hooks []hook.Provider

	// Logger receives lifecycle log events. Defaults to a no-op logger.
	Logger logging.Logger

	// Messages seeds the conversation history.
	Messages []core.Message

	// State seeds the agent state.
	State map[string]any

	// MaxTurns caps the number of model calls per invocation. Zero means
	// unlimited. Retries requested by hooks do not count against the cap.
	MaxTurns int
}

// Agent drives the model/tool loop for one conversation. It owns the
// append-only history, the mutable agent state, the tool registry and the
// hook registry. At most one invocation may be in flight per instance; the
// guard rejects concurrent calls with ErrConcurrentInvocation.
type Agent struct {
	name         string
	description  string
	model        model.Model
	systemPrompt string
	toolChoice   *core.ToolChoice
	tools        *tool.Registry
	hooks        *hook.Registry
	state        *core.State
	logger       logging.Logger
	maxTurns     int

	mu       sync.Mutex
	running  bool
	messages []core.Message
}

// New creates an agent backed by m.
func New(m model.Model, optFns ...func(o *Options)) *Agent {
	opts := Options{
		Name:     "agent",
		Logger:   logging.NoOpLogger{},
		MaxTurns: 100,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	a := &Agent{
		name:         opts.Name,
		description:  opts.Description,
		model:        m,
		systemPrompt: opts.SystemPrompt,
		toolChoice:   opts.ToolChoice,
		tools:        tool.NewRegistry(),
		hooks:        hook.NewRegistry(),
		state:        core.NewStateFrom(opts.State),
		logger:       opts.Logger,
		maxTurns:     opts.MaxTurns,
		messages:     append([]core.Message(nil), opts.Messages...),
	}

	for _, t := range opts.Tools {
		if err := a.tools.Register(t); err != nil {
			a.logger.Warn("agent.tool.register.skipped", "agent", a.name, "tool", t.Name(), "error", err.Error())
		}
	}

	for _, p := range opts.Hooks {
		a.hooks.AddProvider(p)
	}

	return a
}

// Name returns the agent's name.
func (a *Agent) Name() string { return a.name }

// Description returns the agent's description.
func (a *Agent) Description() string { return a.description }

// Model returns the backing model.
func (a *Agent) Model() model.Model { return a.model }

// State returns the agent's mutable key/value state. The state is shared
// with tools and hooks but never sent to the model.
func (a *Agent) State() *core.State { return a.state }

// Tools returns the agent's tool registry. Tools may be registered before or
// between invocations.
func (a *Agent) Tools() *tool.Registry { return a.tools }

// Hooks returns the agent's hook registry. Callbacks and providers may be
// added at any time; ordering guarantees hold for callbacks registered
// incrementally.
func (a *Agent) Hooks() *hook.Registry { return a.hooks }

// Messages returns a copy of the conversation history.
func (a *Agent) Messages() []core.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]core.Message, len(a.messages))
	copy(out, a.messages)
	return out
}

// acquire claims the single-flight guard. It fails fast when an invocation
// is already running.
func (a *Agent) acquire() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return ErrConcurrentInvocation
	}
	a.running = true
	return nil
}

// release returns the guard. Called on every loop exit.
func (a *Agent) release() {
	a.mu.Lock()
	a.running = false
	a.mu.Unlock()
}

var _ tool.Agent = (*Agent)(nil)
