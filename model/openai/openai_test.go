package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentcore/core"
	"github.com/hupe1980/agentcore/model"
)

func TestEncodeMessages_Ordering(t *testing.T) {
	msgs, err := encodeMessages(model.Request{
		System: "You are concise.",
		Messages: []core.Message{
			core.NewTextMessage(core.RoleUser, "weather in Berlin?"),
			{
				Role: core.RoleAssistant,
				Content: []core.ContentBlock{
					core.ToolUseBlock{ToolUseID: "call_1", Name: "weather", Input: map[string]any{"city": "Berlin"}},
				},
			},
			{
				Role: core.RoleUser,
				Content: []core.ContentBlock{
					core.NewToolResult("call_1", core.ToolResultText{Text: "21C"}),
				},
			},
		},
	})
	require.NoError(t, err)
	require.Len(t, msgs, 4)

	assert.NotNil(t, msgs[0].OfSystem)
	assert.NotNil(t, msgs[1].OfUser)

	require.NotNil(t, msgs[2].OfAssistant)
	require.Len(t, msgs[2].OfAssistant.ToolCalls, 1)
	assert.Equal(t, "call_1", msgs[2].OfAssistant.ToolCalls[0].ID)
	assert.Equal(t, "weather", msgs[2].OfAssistant.ToolCalls[0].Function.Name)
	assert.JSONEq(t, `{"city":"Berlin"}`, msgs[2].OfAssistant.ToolCalls[0].Function.Arguments)

	require.NotNil(t, msgs[3].OfTool)
	assert.Equal(t, "call_1", msgs[3].OfTool.ToolCallID)
}

func TestEncodeMessages_AssistantTextWithToolCalls(t *testing.T) {
	msgs, err := encodeMessages(model.Request{
		Messages: []core.Message{
			{
				Role: core.RoleAssistant,
				Content: []core.ContentBlock{
					core.TextBlock{Text: "Checking the weather."},
					core.ToolUseBlock{ToolUseID: "call_1", Name: "weather", Input: map[string]any{}},
				},
			},
		},
	})
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	assistant := msgs[0].OfAssistant
	require.NotNil(t, assistant)
	require.Len(t, assistant.ToolCalls, 1)
	assert.Equal(t, "Checking the weather.", assistant.Content.OfString.Value)
}

func TestFlattenToolResult_ErrorPrefix(t *testing.T) {
	s := flattenToolResult(core.NewToolError("call_1", "service unavailable"))
	assert.Equal(t, "Error: service unavailable", s)
}

func TestBuildParams_ToolChoiceNamedFiltersSpecs(t *testing.T) {
	m := NewModelFromClient(nil)

	specs := []core.ToolSpec{
		{Name: "weather", Description: "Weather lookup", InputSchema: map[string]any{"type": "object"}},
		{Name: "clock", Description: "Current time", InputSchema: map[string]any{"type": "object"}},
	}

	params, err := m.buildParams(model.Request{
		Messages:   []core.Message{core.NewTextMessage(core.RoleUser, "hi")},
		ToolSpecs:  specs,
		ToolChoice: core.NewToolChoiceTool("clock"),
	})
	require.NoError(t, err)
	require.Len(t, params.Tools, 1)
	assert.Equal(t, "clock", params.Tools[0].Function.Name)

	_, err = m.buildParams(model.Request{
		Messages:   []core.Message{core.NewTextMessage(core.RoleUser, "hi")},
		ToolSpecs:  specs,
		ToolChoice: core.NewToolChoiceTool("unknown"),
	})
	assert.Error(t, err)
}

func TestModelInfo(t *testing.T) {
	m := NewModelFromClient(nil, func(o *Options) {
		o.Model = "gpt-4o"
	})
	info := m.Info()
	assert.Equal(t, "openai", info.Provider)
	assert.Equal(t, "gpt-4o", info.Model)
}
