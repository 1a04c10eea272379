package anthropic

import (
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/agentcore/core"
	"github.com/hupe1980/agentcore/model"
)

// streamDecoder translates Anthropic SSE events into canonical stream events.
// The Messages API already speaks a block-oriented protocol, so most events
// map one to one.
type streamDecoder struct {
	stopReason core.StopReason
	usage      core.Usage
}

func newStreamDecoder() *streamDecoder {
	return &streamDecoder{}
}

func (d *streamDecoder) decode(event anthropic.MessageStreamEventUnion) ([]core.StreamEvent, error) {
	switch ev := event.AsAny().(type) {
	case anthropic.MessageStartEvent:
		d.usage = core.Usage{
			InputTokens:           int(ev.Message.Usage.InputTokens),
			OutputTokens:          int(ev.Message.Usage.OutputTokens),
			CacheReadInputTokens:  int(ev.Message.Usage.CacheReadInputTokens),
			CacheWriteInputTokens: int(ev.Message.Usage.CacheCreationInputTokens),
		}
		return []core.StreamEvent{core.MessageStartEvent{Role: core.RoleAssistant}}, nil

	case anthropic.ContentBlockStartEvent:
		idx := int(ev.Index)
		switch block := ev.ContentBlock.AsAny().(type) {
		case anthropic.ToolUseBlock:
			if block.ID == "" {
				return nil, errors.New("anthropic: tool use block missing id")
			}
			if block.Name == "" {
				return nil, fmt.Errorf("anthropic: tool use block %q missing name", block.ID)
			}
			return []core.StreamEvent{core.ContentBlockStartEvent{
				Index:   idx,
				ToolUse: &core.ToolUseStart{ToolUseID: block.ID, Name: block.Name},
			}}, nil
		case anthropic.RedactedThinkingBlock:
			return []core.StreamEvent{
				core.ContentBlockStartEvent{Index: idx},
				core.ContentBlockDeltaEvent{Index: idx, Delta: core.ReasoningDelta{
					RedactedContent: []byte(block.Data),
				}},
			}, nil
		default:
			return []core.StreamEvent{core.ContentBlockStartEvent{Index: idx}}, nil
		}

	case anthropic.ContentBlockDeltaEvent:
		idx := int(ev.Index)
		switch delta := ev.Delta.AsAny().(type) {
		case anthropic.TextDelta:
			if delta.Text == "" {
				return nil, nil
			}
			return []core.StreamEvent{core.ContentBlockDeltaEvent{
				Index: idx,
				Delta: core.TextDelta{Text: delta.Text},
			}}, nil
		case anthropic.InputJSONDelta:
			if delta.PartialJSON == "" {
				return nil, nil
			}
			return []core.StreamEvent{core.ContentBlockDeltaEvent{
				Index: idx,
				Delta: core.ToolInputDelta{PartialJSON: delta.PartialJSON},
			}}, nil
		case anthropic.ThinkingDelta:
			if delta.Thinking == "" {
				return nil, nil
			}
			return []core.StreamEvent{core.ContentBlockDeltaEvent{
				Index: idx,
				Delta: core.ReasoningDelta{Text: delta.Thinking},
			}}, nil
		case anthropic.SignatureDelta:
			if delta.Signature == "" {
				return nil, nil
			}
			return []core.StreamEvent{core.ContentBlockDeltaEvent{
				Index: idx,
				Delta: core.ReasoningDelta{Signature: delta.Signature},
			}}, nil
		default:
			return nil, nil
		}

	case anthropic.ContentBlockStopEvent:
		return []core.StreamEvent{core.ContentBlockStopEvent{Index: int(ev.Index)}}, nil

	case anthropic.MessageDeltaEvent:
		d.stopReason = mapStopReason(ev.Delta.StopReason)
		d.usage.OutputTokens = int(ev.Usage.OutputTokens)
		if in := int(ev.Usage.InputTokens); in > 0 {
			d.usage.InputTokens = in
		}
		d.usage.TotalTokens = d.usage.InputTokens + d.usage.OutputTokens
		return nil, nil

	case anthropic.MessageStopEvent:
		return []core.StreamEvent{
			core.MessageStopEvent{StopReason: d.stopReason},
			core.MetadataEvent{Usage: d.usage},
		}, nil

	default:
		return nil, nil
	}
}

func mapStopReason(reason anthropic.StopReason) core.StopReason {
	switch reason {
	case anthropic.StopReasonEndTurn:
		return core.StopReasonEndTurn
	case anthropic.StopReasonToolUse:
		return core.StopReasonToolUse
	case anthropic.StopReasonMaxTokens:
		return core.StopReasonMaxTokens
	case anthropic.StopReasonStopSequence:
		return core.StopReasonStopSequence
	case anthropic.StopReasonRefusal:
		return core.StopReasonContentFiltered
	case "":
		return core.StopReasonEndTurn
	default:
		return core.StopReason(reason)
	}
}

// mapStreamError wraps provider errors, detecting the context window overflow
// response so callers can distinguish it from transient failures.
func mapStreamError(err error) error {
	var apierr *anthropic.Error
	if errors.As(err, &apierr) && apierr.StatusCode == 400 &&
		strings.Contains(strings.ToLower(apierr.Error()), "prompt is too long") {
		return &model.ContextWindowOverflowError{Provider: "anthropic", Err: err}
	}
	return fmt.Errorf("anthropic api error: %w", err)
}
