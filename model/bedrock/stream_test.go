package bedrock

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	smithy "github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentcore/core"
	"github.com/hupe1980/agentcore/model"
)

func TestDecodeEvent_MessageLifecycle(t *testing.T) {
	events, err := decodeEvent(&brtypes.ConverseStreamOutputMemberMessageStart{
		Value: brtypes.MessageStartEvent{Role: brtypes.ConversationRoleAssistant},
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, core.MessageStartEvent{Role: core.RoleAssistant}, events[0])

	events, err = decodeEvent(&brtypes.ConverseStreamOutputMemberContentBlockStart{
		Value: brtypes.ContentBlockStartEvent{ContentBlockIndex: aws.Int32(0)},
	})
	require.NoError(t, err)
	assert.Equal(t, core.ContentBlockStartEvent{Index: 0}, events[0])

	events, err = decodeEvent(&brtypes.ConverseStreamOutputMemberContentBlockDelta{
		Value: brtypes.ContentBlockDeltaEvent{
			ContentBlockIndex: aws.Int32(0),
			Delta:             &brtypes.ContentBlockDeltaMemberText{Value: "hello"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, core.ContentBlockDeltaEvent{Index: 0, Delta: core.TextDelta{Text: "hello"}}, events[0])

	events, err = decodeEvent(&brtypes.ConverseStreamOutputMemberContentBlockStop{
		Value: brtypes.ContentBlockStopEvent{ContentBlockIndex: aws.Int32(0)},
	})
	require.NoError(t, err)
	assert.Equal(t, core.ContentBlockStopEvent{Index: 0}, events[0])

	events, err = decodeEvent(&brtypes.ConverseStreamOutputMemberMessageStop{
		Value: brtypes.MessageStopEvent{StopReason: brtypes.StopReasonEndTurn},
	})
	require.NoError(t, err)
	assert.Equal(t, core.MessageStopEvent{StopReason: core.StopReasonEndTurn}, events[0])

	events, err = decodeEvent(&brtypes.ConverseStreamOutputMemberMetadata{
		Value: brtypes.ConverseStreamMetadataEvent{
			Usage: &brtypes.TokenUsage{
				InputTokens:  aws.Int32(11),
				OutputTokens: aws.Int32(7),
				TotalTokens:  aws.Int32(18),
			},
			Metrics: &brtypes.ConverseStreamMetrics{LatencyMs: aws.Int64(420)},
		},
	})
	require.NoError(t, err)
	meta, ok := events[0].(core.MetadataEvent)
	require.True(t, ok)
	assert.Equal(t, 18, meta.Usage.TotalTokens)
	assert.Equal(t, int64(420), meta.Metrics.LatencyMs)
}

func TestDecodeEvent_ToolUse(t *testing.T) {
	events, err := decodeEvent(&brtypes.ConverseStreamOutputMemberContentBlockStart{
		Value: brtypes.ContentBlockStartEvent{
			ContentBlockIndex: aws.Int32(1),
			Start: &brtypes.ContentBlockStartMemberToolUse{
				Value: brtypes.ToolUseBlockStart{
					ToolUseId: aws.String("tu-1"),
					Name:      aws.String("weather"),
				},
			},
		},
	})
	require.NoError(t, err)
	start, ok := events[0].(core.ContentBlockStartEvent)
	require.True(t, ok)
	require.NotNil(t, start.ToolUse)
	assert.Equal(t, "tu-1", start.ToolUse.ToolUseID)
	assert.Equal(t, "weather", start.ToolUse.Name)

	events, err = decodeEvent(&brtypes.ConverseStreamOutputMemberContentBlockDelta{
		Value: brtypes.ContentBlockDeltaEvent{
			ContentBlockIndex: aws.Int32(1),
			Delta: &brtypes.ContentBlockDeltaMemberToolUse{
				Value: brtypes.ToolUseBlockDelta{Input: aws.String(`{"city":`)},
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, core.ContentBlockDeltaEvent{
		Index: 1,
		Delta: core.ToolInputDelta{PartialJSON: `{"city":`},
	}, events[0])

	_, err = decodeEvent(&brtypes.ConverseStreamOutputMemberContentBlockStart{
		Value: brtypes.ContentBlockStartEvent{
			ContentBlockIndex: aws.Int32(2),
			Start:             &brtypes.ContentBlockStartMemberToolUse{Value: brtypes.ToolUseBlockStart{}},
		},
	})
	assert.Error(t, err)
}

func TestDecodeEvent_Reasoning(t *testing.T) {
	events, err := decodeEvent(&brtypes.ConverseStreamOutputMemberContentBlockDelta{
		Value: brtypes.ContentBlockDeltaEvent{
			ContentBlockIndex: aws.Int32(0),
			Delta: &brtypes.ContentBlockDeltaMemberReasoningContent{
				Value: &brtypes.ReasoningContentBlockDeltaMemberText{Value: "thinking"},
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, core.ReasoningDelta{Text: "thinking"}, events[0].(core.ContentBlockDeltaEvent).Delta)

	events, err = decodeEvent(&brtypes.ConverseStreamOutputMemberContentBlockDelta{
		Value: brtypes.ContentBlockDeltaEvent{
			ContentBlockIndex: aws.Int32(0),
			Delta: &brtypes.ContentBlockDeltaMemberReasoningContent{
				Value: &brtypes.ReasoningContentBlockDeltaMemberSignature{Value: "sig"},
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, core.ReasoningDelta{Signature: "sig"}, events[0].(core.ContentBlockDeltaEvent).Delta)

	events, err = decodeEvent(&brtypes.ConverseStreamOutputMemberContentBlockDelta{
		Value: brtypes.ContentBlockDeltaEvent{
			ContentBlockIndex: aws.Int32(0),
			Delta: &brtypes.ContentBlockDeltaMemberReasoningContent{
				Value: &brtypes.ReasoningContentBlockDeltaMemberRedactedContent{Value: []byte{0x1}},
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, core.ReasoningDelta{RedactedContent: []byte{0x1}}, events[0].(core.ContentBlockDeltaEvent).Delta)
}

func TestDecodeEvent_MissingIndex(t *testing.T) {
	_, err := decodeEvent(&brtypes.ConverseStreamOutputMemberContentBlockDelta{
		Value: brtypes.ContentBlockDeltaEvent{
			Delta: &brtypes.ContentBlockDeltaMemberText{Value: "hello"},
		},
	})
	assert.ErrorContains(t, err, "content block index missing")
}

func TestMapStreamError_Overflow(t *testing.T) {
	overflow := mapStreamError(&smithy.GenericAPIError{
		Code:    "ValidationException",
		Message: "Input is too long for requested model.",
	})
	assert.True(t, model.IsContextWindowOverflow(overflow))

	plain := mapStreamError(&smithy.GenericAPIError{
		Code:    "ValidationException",
		Message: "schema mismatch",
	})
	assert.False(t, model.IsContextWindowOverflow(plain))

	other := mapStreamError(assert.AnError)
	assert.False(t, model.IsContextWindowOverflow(other))
}
