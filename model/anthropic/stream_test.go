package anthropic

import (
	"encoding/json"
	"errors"
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentcore/core"
	"github.com/hupe1980/agentcore/model"
)

// sseEvent builds an SDK stream event from a raw SSE payload, the same way
// the client decodes them off the wire.
func sseEvent(t *testing.T, raw string) sdk.MessageStreamEventUnion {
	t.Helper()
	var ev sdk.MessageStreamEventUnion
	require.NoError(t, json.Unmarshal([]byte(raw), &ev))
	return ev
}

func TestStreamDecoder_TextMessage(t *testing.T) {
	dec := newStreamDecoder()

	events, err := dec.decode(sseEvent(t, `{
  "type": "message_start",
  "message": {"role": "assistant", "usage": {"input_tokens": 9, "output_tokens": 0}}
}`))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, core.MessageStartEvent{Role: core.RoleAssistant}, events[0])

	events, err = dec.decode(sseEvent(t, `{
  "type": "content_block_start",
  "index": 0,
  "content_block": {"type": "text", "text": ""}
}`))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, core.ContentBlockStartEvent{Index: 0}, events[0])

	events, err = dec.decode(sseEvent(t, `{
  "type": "content_block_delta",
  "index": 0,
  "delta": {"type": "text_delta", "text": "hello"}
}`))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, core.ContentBlockDeltaEvent{Index: 0, Delta: core.TextDelta{Text: "hello"}}, events[0])

	events, err = dec.decode(sseEvent(t, `{"type": "content_block_stop", "index": 0}`))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, core.ContentBlockStopEvent{Index: 0}, events[0])

	events, err = dec.decode(sseEvent(t, `{
  "type": "message_delta",
  "delta": {"stop_reason": "end_turn"},
  "usage": {"output_tokens": 4}
}`))
	require.NoError(t, err)
	assert.Empty(t, events)

	events, err = dec.decode(sseEvent(t, `{"type": "message_stop"}`))
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, core.MessageStopEvent{StopReason: core.StopReasonEndTurn}, events[0])
	meta, ok := events[1].(core.MetadataEvent)
	require.True(t, ok)
	assert.Equal(t, 9, meta.Usage.InputTokens)
	assert.Equal(t, 4, meta.Usage.OutputTokens)
	assert.Equal(t, 13, meta.Usage.TotalTokens)
}

func TestStreamDecoder_ToolUse(t *testing.T) {
	dec := newStreamDecoder()

	events, err := dec.decode(sseEvent(t, `{
  "type": "content_block_start",
  "index": 1,
  "content_block": {"type": "tool_use", "id": "tu-1", "name": "weather"}
}`))
	require.NoError(t, err)
	require.Len(t, events, 1)
	start, ok := events[0].(core.ContentBlockStartEvent)
	require.True(t, ok)
	require.NotNil(t, start.ToolUse)
	assert.Equal(t, "tu-1", start.ToolUse.ToolUseID)
	assert.Equal(t, "weather", start.ToolUse.Name)

	events, err = dec.decode(sseEvent(t, `{
  "type": "content_block_delta",
  "index": 1,
  "delta": {"type": "input_json_delta", "partial_json": "{\"city\":\"Berlin\"}"}
}`))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, core.ContentBlockDeltaEvent{
		Index: 1,
		Delta: core.ToolInputDelta{PartialJSON: `{"city":"Berlin"}`},
	}, events[0])

	_, err = dec.decode(sseEvent(t, `{
  "type": "message_delta",
  "delta": {"stop_reason": "tool_use"},
  "usage": {"output_tokens": 12}
}`))
	require.NoError(t, err)

	events, err = dec.decode(sseEvent(t, `{"type": "message_stop"}`))
	require.NoError(t, err)
	assert.Equal(t, core.MessageStopEvent{StopReason: core.StopReasonToolUse}, events[0])
}

func TestStreamDecoder_ToolUseMissingIdentity(t *testing.T) {
	dec := newStreamDecoder()

	_, err := dec.decode(sseEvent(t, `{
  "type": "content_block_start",
  "index": 0,
  "content_block": {"type": "tool_use", "id": "", "name": "weather"}
}`))
	assert.Error(t, err)

	_, err = dec.decode(sseEvent(t, `{
  "type": "content_block_start",
  "index": 0,
  "content_block": {"type": "tool_use", "id": "tu-1", "name": ""}
}`))
	assert.Error(t, err)
}

func TestStreamDecoder_Thinking(t *testing.T) {
	dec := newStreamDecoder()

	events, err := dec.decode(sseEvent(t, `{
  "type": "content_block_delta",
  "index": 0,
  "delta": {"type": "thinking_delta", "thinking": "let me think"}
}`))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, core.ContentBlockDeltaEvent{
		Index: 0,
		Delta: core.ReasoningDelta{Text: "let me think"},
	}, events[0])

	events, err = dec.decode(sseEvent(t, `{
  "type": "content_block_delta",
  "index": 0,
  "delta": {"type": "signature_delta", "signature": "sig-abc"}
}`))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, core.ContentBlockDeltaEvent{
		Index: 0,
		Delta: core.ReasoningDelta{Signature: "sig-abc"},
	}, events[0])
}

func TestStreamDecoder_RedactedThinking(t *testing.T) {
	dec := newStreamDecoder()

	events, err := dec.decode(sseEvent(t, `{
  "type": "content_block_start",
  "index": 0,
  "content_block": {"type": "redacted_thinking", "data": "opaque"}
}`))
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, core.ContentBlockStartEvent{Index: 0}, events[0])
	assert.Equal(t, core.ContentBlockDeltaEvent{
		Index: 0,
		Delta: core.ReasoningDelta{RedactedContent: []byte("opaque")},
	}, events[1])
}

func TestMapStopReason(t *testing.T) {
	assert.Equal(t, core.StopReasonEndTurn, mapStopReason(sdk.StopReasonEndTurn))
	assert.Equal(t, core.StopReasonToolUse, mapStopReason(sdk.StopReasonToolUse))
	assert.Equal(t, core.StopReasonMaxTokens, mapStopReason(sdk.StopReasonMaxTokens))
	assert.Equal(t, core.StopReasonStopSequence, mapStopReason(sdk.StopReasonStopSequence))
	assert.Equal(t, core.StopReasonContentFiltered, mapStopReason(sdk.StopReasonRefusal))
	assert.Equal(t, core.StopReasonEndTurn, mapStopReason(""))
}

func TestMapStreamError_NonOverflow(t *testing.T) {
	err := mapStreamError(errors.New("boom"))
	assert.False(t, model.IsContextWindowOverflow(err))
	assert.ErrorContains(t, err, "anthropic api error")
}

func TestEncodeMessages(t *testing.T) {
	msgs, err := encodeMessages([]core.Message{
		core.NewTextMessage(core.RoleUser, "hi"),
		{
			Role: core.RoleAssistant,
			Content: []core.ContentBlock{
				core.TextBlock{Text: "checking"},
				core.ToolUseBlock{ToolUseID: "tu-1", Name: "weather", Input: map[string]any{"city": "Berlin"}},
			},
		},
		{
			Role: core.RoleUser,
			Content: []core.ContentBlock{
				core.NewToolError("tu-1", "weather service unavailable"),
			},
		},
	})
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, sdk.MessageParamRoleUser, msgs[0].Role)
	assert.Equal(t, sdk.MessageParamRoleAssistant, msgs[1].Role)
	assert.Len(t, msgs[1].Content, 2)
	assert.Equal(t, sdk.MessageParamRoleUser, msgs[2].Role)
}

func TestEncodeMessages_SkipsEmptyText(t *testing.T) {
	msgs, err := encodeMessages([]core.Message{
		{Role: core.RoleAssistant, Content: []core.ContentBlock{core.TextBlock{Text: ""}}},
		core.NewTextMessage(core.RoleUser, "hi"),
	})
	require.NoError(t, err)
	// The assistant message collapses to nothing and is dropped entirely.
	require.Len(t, msgs, 1)
	assert.Equal(t, sdk.MessageParamRoleUser, msgs[0].Role)
}

func TestFlattenToolResult(t *testing.T) {
	s := flattenToolResult([]core.ToolResultContent{
		core.ToolResultText{Text: "temp: "},
		core.ToolResultJSON{Value: map[string]any{"celsius": 21}},
	})
	assert.Equal(t, `temp: {"celsius":21}`, s)
}

func TestEncodeToolChoice(t *testing.T) {
	auto, err := encodeToolChoice(core.NewToolChoiceAuto())
	require.NoError(t, err)
	assert.NotNil(t, auto.OfAuto)

	anyChoice, err := encodeToolChoice(core.NewToolChoiceAny())
	require.NoError(t, err)
	assert.NotNil(t, anyChoice.OfAny)

	named, err := encodeToolChoice(core.NewToolChoiceTool("weather"))
	require.NoError(t, err)
	require.NotNil(t, named.OfTool)
	assert.Equal(t, "weather", named.OfTool.Name)

	_, err = encodeToolChoice(&core.ToolChoice{Mode: core.ToolChoiceModeTool})
	assert.Error(t, err)
}
