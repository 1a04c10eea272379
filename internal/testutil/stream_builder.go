package testutil

import (
	"github.com/hupe1980/agentcore/core"
	"github.com/hupe1980/agentcore/model"
)

// TurnBuilder provides a fluent helper for scripting the stream events of
// one model turn in tests.
// Example:
//
//	turn := testutil.NewTurnBuilder().
//		ToolUse("tu-1", "weather", `{"city":"Berlin"}`).
//		Stop(core.StopReasonToolUse).
//		Turn()
//
// Chain only the parts you need; content blocks are indexed in call order
// and the message-start event is emitted automatically. Omitting Stop
// scripts a stream that violates the termination contract.
type TurnBuilder struct {
	role   core.Role
	events []core.StreamEvent
	index  int
}

// NewTurnBuilder creates a builder with default role assistant.
func NewTurnBuilder() *TurnBuilder { return &TurnBuilder{role: core.RoleAssistant} }

// Role overrides the message-start role (chainable).
func (b *TurnBuilder) Role(r core.Role) *TurnBuilder { b.role = r; return b }

// Text scripts a complete text block delivered as a single fragment (chainable).
func (b *TurnBuilder) Text(text string) *TurnBuilder {
	return b.TextDeltas(text)
}

// TextDeltas scripts one text block streamed across the given fragments (chainable).
func (b *TurnBuilder) TextDeltas(fragments ...string) *TurnBuilder {
	b.events = append(b.events, core.ContentBlockStartEvent{Index: b.index})
	for _, f := range fragments {
		b.events = append(b.events, core.ContentBlockDeltaEvent{Index: b.index, Delta: core.TextDelta{Text: f}})
	}
	b.events = append(b.events, core.ContentBlockStopEvent{Index: b.index})
	b.index++
	return b
}

// ToolUse scripts a complete tool-use block with its input delivered as a
// single fragment; an empty inputJSON omits the delta (chainable).
func (b *TurnBuilder) ToolUse(toolUseID, name, inputJSON string) *TurnBuilder {
	b.events = append(b.events, core.ContentBlockStartEvent{
		Index:   b.index,
		ToolUse: &core.ToolUseStart{ToolUseID: toolUseID, Name: name},
	})
	if inputJSON != "" {
		b.events = append(b.events, core.ContentBlockDeltaEvent{Index: b.index, Delta: core.ToolInputDelta{PartialJSON: inputJSON}})
	}
	b.events = append(b.events, core.ContentBlockStopEvent{Index: b.index})
	b.index++
	return b
}

// Reasoning scripts a complete reasoning block (chainable).
func (b *TurnBuilder) Reasoning(text, signature string) *TurnBuilder {
	b.events = append(b.events,
		core.ContentBlockStartEvent{Index: b.index},
		core.ContentBlockDeltaEvent{Index: b.index, Delta: core.ReasoningDelta{Text: text, Signature: signature}},
		core.ContentBlockStopEvent{Index: b.index},
	)
	b.index++
	return b
}

// Stop scripts the message-stop event carrying the stop reason (chainable).
func (b *TurnBuilder) Stop(reason core.StopReason) *TurnBuilder {
	b.events = append(b.events, core.MessageStopEvent{StopReason: reason})
	return b
}

// Usage scripts a metadata event with the given token accounting (chainable).
func (b *TurnBuilder) Usage(in, out int) *TurnBuilder {
	b.events = append(b.events, core.MetadataEvent{
		Usage: core.Usage{InputTokens: in, OutputTokens: out, TotalTokens: in + out},
	})
	return b
}

// Build returns the scripted events prefixed with message-start.
func (b *TurnBuilder) Build() []core.StreamEvent {
	out := make([]core.StreamEvent, 0, len(b.events)+1)
	out = append(out, core.MessageStartEvent{Role: b.role})
	return append(out, b.events...)
}

// Turn wraps the scripted events in a mock model turn.
func (b *TurnBuilder) Turn() model.Turn {
	return model.Turn{Events: b.Build()}
}
