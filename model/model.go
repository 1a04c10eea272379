package model

import (
	"context"

	"github.com/hupe1980/agentcore/core"
)

// Request captures the normalized model input produced by the agent loop.
// Adapters translate it into their provider's wire format.
type Request struct {
	// Messages is the conversation to send, oldest first.
	Messages []core.Message

	// System is the system prompt. Empty means none.
	System string

	// ToolSpecs describe the tools offered to the model.
	ToolSpecs []core.ToolSpec

	// ToolChoice constrains tool selection. Nil leaves the provider default.
	ToolChoice *core.ToolChoice
}

// Info contains metadata about a model implementation.
type Info struct {
	Provider string `json:"provider"` // "anthropic", "openai", "bedrock", "mock", ...
	Model    string `json:"model"`    // Provider-specific model identifier
}

// Model is the minimal interface the agent loop needs to drive generation.
// Implementations normalize their provider's streaming wire format into the
// canonical event protocol.
type Model interface {
	// Stream sends req and returns the canonical event stream. The event
	// channel closes when the provider stream ends. A terminal failure is
	// delivered on the error channel (buffered, size 1) after the event
	// channel closes; events already emitted remain valid.
	Stream(ctx context.Context, req Request) (<-chan core.StreamEvent, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}
