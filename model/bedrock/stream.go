package bedrock

import (
	"errors"
	"fmt"
	"strings"

	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	smithy "github.com/aws/smithy-go"

	"github.com/hupe1980/agentcore/core"
	"github.com/hupe1980/agentcore/model"
)

// decodeEvent translates one ConverseStream output event into canonical
// stream events.
func decodeEvent(event brtypes.ConverseStreamOutput) ([]core.StreamEvent, error) {
	switch ev := event.(type) {
	case *brtypes.ConverseStreamOutputMemberMessageStart:
		role := core.RoleAssistant
		if ev.Value.Role == brtypes.ConversationRoleUser {
			role = core.RoleUser
		}
		return []core.StreamEvent{core.MessageStartEvent{Role: role}}, nil

	case *brtypes.ConverseStreamOutputMemberContentBlockStart:
		idx, err := contentIndex(ev.Value.ContentBlockIndex)
		if err != nil {
			return nil, err
		}
		if start, ok := ev.Value.Start.(*brtypes.ContentBlockStartMemberToolUse); ok {
			use := &core.ToolUseStart{}
			if start.Value.ToolUseId != nil {
				use.ToolUseID = *start.Value.ToolUseId
			}
			if start.Value.Name != nil {
				use.Name = *start.Value.Name
			}
			if use.ToolUseID == "" || use.Name == "" {
				return nil, fmt.Errorf("bedrock: tool use block %d missing id or name", idx)
			}
			return []core.StreamEvent{core.ContentBlockStartEvent{Index: idx, ToolUse: use}}, nil
		}
		return []core.StreamEvent{core.ContentBlockStartEvent{Index: idx}}, nil

	case *brtypes.ConverseStreamOutputMemberContentBlockDelta:
		idx, err := contentIndex(ev.Value.ContentBlockIndex)
		if err != nil {
			return nil, err
		}
		switch delta := ev.Value.Delta.(type) {
		case *brtypes.ContentBlockDeltaMemberText:
			if delta.Value == "" {
				return nil, nil
			}
			return []core.StreamEvent{core.ContentBlockDeltaEvent{
				Index: idx,
				Delta: core.TextDelta{Text: delta.Value},
			}}, nil
		case *brtypes.ContentBlockDeltaMemberToolUse:
			if delta.Value.Input == nil || *delta.Value.Input == "" {
				return nil, nil
			}
			return []core.StreamEvent{core.ContentBlockDeltaEvent{
				Index: idx,
				Delta: core.ToolInputDelta{PartialJSON: *delta.Value.Input},
			}}, nil
		case *brtypes.ContentBlockDeltaMemberReasoningContent:
			return decodeReasoningDelta(idx, delta.Value)
		default:
			return nil, nil
		}

	case *brtypes.ConverseStreamOutputMemberContentBlockStop:
		idx, err := contentIndex(ev.Value.ContentBlockIndex)
		if err != nil {
			return nil, err
		}
		return []core.StreamEvent{core.ContentBlockStopEvent{Index: idx}}, nil

	case *brtypes.ConverseStreamOutputMemberMessageStop:
		// Converse stop reasons use the canonical vocabulary.
		return []core.StreamEvent{core.MessageStopEvent{
			StopReason: core.StopReason(ev.Value.StopReason),
		}}, nil

	case *brtypes.ConverseStreamOutputMemberMetadata:
		meta := core.MetadataEvent{}
		if u := ev.Value.Usage; u != nil {
			meta.Usage = core.Usage{
				InputTokens:           derefInt32(u.InputTokens),
				OutputTokens:          derefInt32(u.OutputTokens),
				TotalTokens:           derefInt32(u.TotalTokens),
				CacheReadInputTokens:  derefInt32(u.CacheReadInputTokens),
				CacheWriteInputTokens: derefInt32(u.CacheWriteInputTokens),
			}
		}
		if m := ev.Value.Metrics; m != nil && m.LatencyMs != nil {
			meta.Metrics = core.Metrics{LatencyMs: *m.LatencyMs}
		}
		return []core.StreamEvent{meta}, nil

	default:
		return nil, nil
	}
}

func decodeReasoningDelta(idx int, delta brtypes.ReasoningContentBlockDelta) ([]core.StreamEvent, error) {
	switch d := delta.(type) {
	case *brtypes.ReasoningContentBlockDeltaMemberText:
		if d.Value == "" {
			return nil, nil
		}
		return []core.StreamEvent{core.ContentBlockDeltaEvent{
			Index: idx,
			Delta: core.ReasoningDelta{Text: d.Value},
		}}, nil
	case *brtypes.ReasoningContentBlockDeltaMemberSignature:
		if d.Value == "" {
			return nil, nil
		}
		return []core.StreamEvent{core.ContentBlockDeltaEvent{
			Index: idx,
			Delta: core.ReasoningDelta{Signature: d.Value},
		}}, nil
	case *brtypes.ReasoningContentBlockDeltaMemberRedactedContent:
		if len(d.Value) == 0 {
			return nil, nil
		}
		return []core.StreamEvent{core.ContentBlockDeltaEvent{
			Index: idx,
			Delta: core.ReasoningDelta{RedactedContent: d.Value},
		}}, nil
	default:
		return nil, nil
	}
}

func contentIndex(idx *int32) (int, error) {
	if idx == nil {
		return 0, errors.New("bedrock: content block index missing")
	}
	return int(*idx), nil
}

func derefInt32(v *int32) int {
	if v == nil {
		return 0
	}
	return int(*v)
}

// mapStreamError wraps provider errors, detecting the context window overflow
// validation response so callers can distinguish it from transient failures.
func mapStreamError(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ValidationException" {
		msg := strings.ToLower(apiErr.ErrorMessage())
		if strings.Contains(msg, "too long") || strings.Contains(msg, "too many input tokens") ||
			strings.Contains(msg, "input length") {
			return &model.ContextWindowOverflowError{Provider: "bedrock", Err: err}
		}
	}
	return fmt.Errorf("bedrock converse stream: %w", err)
}
