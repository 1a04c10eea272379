package model

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hupe1980/agentcore/core"
)

// Turn is one scripted model response: a sequence of canonical stream events
// optionally followed by a terminal error.
type Turn struct {
	Events []core.StreamEvent
	Err    error
}

// TextTurn scripts a complete single-block text response ending with
// end_turn.
func TextTurn(text string) Turn {
	return Turn{Events: []core.StreamEvent{
		core.MessageStartEvent{Role: core.RoleAssistant},
		core.ContentBlockStartEvent{Index: 0},
		core.ContentBlockDeltaEvent{Index: 0, Delta: core.TextDelta{Text: text}},
		core.ContentBlockStopEvent{Index: 0},
		core.MessageStopEvent{StopReason: core.StopReasonEndTurn},
		core.MetadataEvent{Usage: core.Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}},
	}}
}

// ToolUseTurn scripts a single tool request with its input streamed as one
// fragment, ending with tool_use.
func ToolUseTurn(toolUseID, name, inputJSON string) Turn {
	return Turn{Events: []core.StreamEvent{
		core.MessageStartEvent{Role: core.RoleAssistant},
		core.ContentBlockStartEvent{Index: 0, ToolUse: &core.ToolUseStart{ToolUseID: toolUseID, Name: name}},
		core.ContentBlockDeltaEvent{Index: 0, Delta: core.ToolInputDelta{PartialJSON: inputJSON}},
		core.ContentBlockStopEvent{Index: 0},
		core.MessageStopEvent{StopReason: core.StopReasonToolUse},
		core.MetadataEvent{Usage: core.Usage{InputTokens: 12, OutputTokens: 8, TotalTokens: 20}},
	}}
}

// ErrorTurn scripts a turn that fails with err without emitting any events.
func ErrorTurn(err error) Turn { return Turn{Err: err} }

// MockModel is a scripted in-memory Model for tests and examples. Turns are
// consumed in FIFO order, one per Stream call; running out of turns is a
// stream error. Every received Request is recorded for inspection.
type MockModel struct {
	mu       sync.Mutex
	info     Info
	turns    []Turn
	requests []Request
	delay    time.Duration
}

// NewMockModel constructs a MockModel preloaded with the given turns.
func NewMockModel(turns ...Turn) *MockModel {
	return &MockModel{
		info:  Info{Provider: "mock", Model: "mock-1"},
		turns: turns,
	}
}

// Enqueue appends further scripted turns.
func (m *MockModel) Enqueue(turns ...Turn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, turns...)
}

// SetDelay makes the mock sleep between emitted events. Useful for
// exercising cancellation mid-stream.
func (m *MockModel) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// Requests returns a copy of all requests received so far.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Stream implements Model.
func (m *MockModel) Stream(ctx context.Context, req Request) (<-chan core.StreamEvent, <-chan error) {
	eventCh := make(chan core.StreamEvent, 16)
	errCh := make(chan error, 1)

	m.mu.Lock()
	m.requests = append(m.requests, req)
	var (
		turn Turn
		ok   bool
	)
	if len(m.turns) > 0 {
		turn, m.turns = m.turns[0], m.turns[1:]
		ok = true
	}
	delay := m.delay
	m.mu.Unlock()

	go func() {
		defer close(eventCh)
		defer close(errCh)

		if !ok {
			errCh <- errors.New("mock model: no scripted turns remaining")
			return
		}

		for _, ev := range turn.Events {
			if delay > 0 {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case <-time.After(delay):
				}
			}
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case eventCh <- ev:
			}
		}

		if turn.Err != nil {
			errCh <- turn.Err
		}
	}()

	return eventCh, errCh
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
