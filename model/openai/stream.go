package openai

import (
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"

	"github.com/hupe1980/agentcore/core"
	"github.com/hupe1980/agentcore/model"
)

// aggCall aggregates partial tool call streaming deltas (id, name, arguments)
// for one tool call index so a complete canonical block can be reconstructed.
type aggCall struct {
	blockIdx int
	id, name string
	// pending holds argument fragments that arrive before the call identity
	// is known; they flush once the block opens.
	pending []string
	open    bool
	closed  bool
}

// synthesizer rebuilds the block-oriented event protocol from the flat
// per-chunk deltas of the Chat Completions stream. Text deltas open an
// implicit text block, tool call deltas open one block per tool call index,
// and the finish reason closes whatever is open.
type synthesizer struct {
	started  bool
	finished bool

	nextIdx  int
	textIdx  int
	textOpen bool

	calls map[int64]*aggCall

	stopReason core.StopReason
	usage      core.Usage
}

func newSynthesizer() *synthesizer {
	return &synthesizer{calls: map[int64]*aggCall{}}
}

func (s *synthesizer) onText(content string) ([]core.StreamEvent, error) {
	if content == "" {
		return nil, nil
	}

	var events []core.StreamEvent
	s.ensureStart(&events)
	s.closeOpenCall(&events)

	if !s.textOpen {
		s.textIdx = s.nextIdx
		s.nextIdx++
		s.textOpen = true
		events = append(events, core.ContentBlockStartEvent{Index: s.textIdx})
	}
	events = append(events, core.ContentBlockDeltaEvent{
		Index: s.textIdx,
		Delta: core.TextDelta{Text: content},
	})
	return events, nil
}

func (s *synthesizer) onToolCall(index int64, id, name, args string) ([]core.StreamEvent, error) {
	var events []core.StreamEvent
	s.ensureStart(&events)
	s.closeText(&events)

	ac, ok := s.calls[index]
	if !ok {
		// A new tool call index means the previous call is complete.
		s.closeOpenCall(&events)
		ac = &aggCall{}
		s.calls[index] = ac
	}
	if id != "" {
		ac.id = id
	}
	if name != "" {
		ac.name = name
	}

	if !ac.open && ac.id != "" && ac.name != "" {
		ac.blockIdx = s.nextIdx
		s.nextIdx++
		ac.open = true
		events = append(events, core.ContentBlockStartEvent{
			Index:   ac.blockIdx,
			ToolUse: &core.ToolUseStart{ToolUseID: ac.id, Name: ac.name},
		})
		for _, fragment := range ac.pending {
			events = append(events, core.ContentBlockDeltaEvent{
				Index: ac.blockIdx,
				Delta: core.ToolInputDelta{PartialJSON: fragment},
			})
		}
		ac.pending = nil
	}

	if args != "" {
		if ac.open {
			events = append(events, core.ContentBlockDeltaEvent{
				Index: ac.blockIdx,
				Delta: core.ToolInputDelta{PartialJSON: args},
			})
		} else {
			ac.pending = append(ac.pending, args)
		}
	}

	return events, nil
}

func (s *synthesizer) onFinish(reason string) ([]core.StreamEvent, error) {
	var events []core.StreamEvent
	s.ensureStart(&events)
	s.closeText(&events)
	s.closeOpenCall(&events)

	for idx, ac := range s.calls {
		if !ac.open {
			return nil, fmt.Errorf("openai: tool call %d never received an id and name", idx)
		}
	}

	s.stopReason = mapFinishReason(reason)
	s.finished = true
	return events, nil
}

// finalize emits the trailing message-stop and metadata once the stream is
// drained. The usage chunk arrives after the finish chunk, which is why the
// stop event waits until here.
func (s *synthesizer) finalize() ([]core.StreamEvent, error) {
	if !s.started {
		return nil, errors.New("openai: stream returned no completion chunks")
	}
	if !s.finished {
		return nil, errors.New("openai: stream ended without a finish reason")
	}
	return []core.StreamEvent{
		core.MessageStopEvent{StopReason: s.stopReason},
		core.MetadataEvent{Usage: s.usage},
	}, nil
}

func (s *synthesizer) recordUsage(input, output, total, cacheRead int) {
	s.usage = core.Usage{
		InputTokens:          input,
		OutputTokens:         output,
		TotalTokens:          total,
		CacheReadInputTokens: cacheRead,
	}
}

func (s *synthesizer) ensureStart(events *[]core.StreamEvent) {
	if s.started {
		return
	}
	s.started = true
	*events = append(*events, core.MessageStartEvent{Role: core.RoleAssistant})
}

func (s *synthesizer) closeText(events *[]core.StreamEvent) {
	if !s.textOpen {
		return
	}
	s.textOpen = false
	*events = append(*events, core.ContentBlockStopEvent{Index: s.textIdx})
}

func (s *synthesizer) closeOpenCall(events *[]core.StreamEvent) {
	for _, ac := range s.calls {
		if ac.open && !ac.closed {
			ac.closed = true
			*events = append(*events, core.ContentBlockStopEvent{Index: ac.blockIdx})
		}
	}
}

func mapFinishReason(reason string) core.StopReason {
	switch reason {
	case "stop":
		return core.StopReasonEndTurn
	case "tool_calls", "function_call":
		return core.StopReasonToolUse
	case "length":
		return core.StopReasonMaxTokens
	case "content_filter":
		return core.StopReasonContentFiltered
	default:
		return core.StopReasonEndTurn
	}
}

// mapStreamError wraps provider errors, detecting the context window overflow
// response so callers can distinguish it from transient failures.
func mapStreamError(err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		msg := strings.ToLower(apierr.Error())
		if apierr.StatusCode == 400 &&
			(strings.Contains(msg, "context_length_exceeded") || strings.Contains(msg, "maximum context length")) {
			return &model.ContextWindowOverflowError{Provider: "openai", Err: err}
		}
	}
	if strings.Contains(err.Error(), "context_length_exceeded") {
		return &model.ContextWindowOverflowError{Provider: "openai", Err: err}
	}
	return fmt.Errorf("openai streaming error: %w", err)
}
