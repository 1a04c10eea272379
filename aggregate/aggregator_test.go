package aggregate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentcore/core"
)

// feedAll pushes events through the aggregator collecting completed blocks,
// failing the test on any protocol error.
func feedAll(t *testing.T, a *Aggregator, events []core.StreamEvent) []core.ContentBlock {
	t.Helper()
	var completed []core.ContentBlock
	for _, ev := range events {
		block, _, err := a.Feed(ev)
		require.NoError(t, err)
		if block != nil {
			completed = append(completed, block)
		}
	}
	return completed
}

func TestAggregator_TextMessage(t *testing.T) {
	a := New()
	completed := feedAll(t, a, []core.StreamEvent{
		core.MessageStartEvent{Role: core.RoleAssistant},
		core.ContentBlockStartEvent{Index: 0},
		core.ContentBlockDeltaEvent{Index: 0, Delta: core.TextDelta{Text: "Hello, "}},
		core.ContentBlockDeltaEvent{Index: 0, Delta: core.TextDelta{Text: "world!"}},
		core.ContentBlockStopEvent{Index: 0},
		core.MessageStopEvent{StopReason: core.StopReasonEndTurn},
		core.MetadataEvent{Usage: core.Usage{InputTokens: 7, OutputTokens: 3, TotalTokens: 10}},
	})

	require.Len(t, completed, 1)
	assert.Equal(t, core.TextBlock{Text: "Hello, world!"}, completed[0])

	msg, reason, err := a.Message()
	require.NoError(t, err)
	assert.Equal(t, core.RoleAssistant, msg.Role)
	assert.Equal(t, core.StopReasonEndTurn, reason)
	require.Len(t, msg.Content, 1)
	assert.Equal(t, 10, a.Usage().TotalTokens)
}

func TestAggregator_EmptyTextBlockIsValid(t *testing.T) {
	a := New()
	completed := feedAll(t, a, []core.StreamEvent{
		core.MessageStartEvent{Role: core.RoleAssistant},
		core.ContentBlockStartEvent{Index: 0},
		core.ContentBlockStopEvent{Index: 0},
		core.MessageStopEvent{StopReason: core.StopReasonEndTurn},
	})

	require.Len(t, completed, 1)
	assert.Equal(t, core.TextBlock{Text: ""}, completed[0])

	msg, _, err := a.Message()
	require.NoError(t, err)
	require.Len(t, msg.Content, 1)
}

func TestAggregator_ToolUseFragments(t *testing.T) {
	a := New()
	completed := feedAll(t, a, []core.StreamEvent{
		core.MessageStartEvent{Role: core.RoleAssistant},
		core.ContentBlockStartEvent{Index: 0, ToolUse: &core.ToolUseStart{ToolUseID: "tu-1", Name: "weather"}},
		core.ContentBlockDeltaEvent{Index: 0, Delta: core.ToolInputDelta{PartialJSON: `{"ci`}},
		core.ContentBlockDeltaEvent{Index: 0, Delta: core.ToolInputDelta{PartialJSON: `ty":"Ber`}},
		core.ContentBlockDeltaEvent{Index: 0, Delta: core.ToolInputDelta{PartialJSON: `lin"}`}},
		core.ContentBlockStopEvent{Index: 0},
		core.MessageStopEvent{StopReason: core.StopReasonToolUse},
	})

	require.Len(t, completed, 1)
	use, ok := completed[0].(core.ToolUseBlock)
	require.True(t, ok)
	assert.Equal(t, "tu-1", use.ToolUseID)
	assert.Equal(t, "weather", use.Name)
	assert.Equal(t, map[string]any{"city": "Berlin"}, use.Input)
}

func TestAggregator_ToolUseEmptyInput(t *testing.T) {
	a := New()
	completed := feedAll(t, a, []core.StreamEvent{
		core.MessageStartEvent{Role: core.RoleAssistant},
		core.ContentBlockStartEvent{Index: 0, ToolUse: &core.ToolUseStart{ToolUseID: "tu-2", Name: "ping"}},
		core.ContentBlockStopEvent{Index: 0},
		core.MessageStopEvent{StopReason: core.StopReasonToolUse},
	})

	use, ok := completed[0].(core.ToolUseBlock)
	require.True(t, ok)
	assert.Equal(t, map[string]any{}, use.Input)
}

func TestAggregator_ToolInputInvalidJSONIsFatal(t *testing.T) {
	a := New()
	_, _, err := a.Feed(core.ContentBlockStartEvent{Index: 0, ToolUse: &core.ToolUseStart{ToolUseID: "tu-3", Name: "calc"}})
	require.NoError(t, err)
	_, _, err = a.Feed(core.ContentBlockDeltaEvent{Index: 0, Delta: core.ToolInputDelta{PartialJSON: `{"expr": 1+`}})
	require.NoError(t, err)

	_, _, err = a.Feed(core.ContentBlockStopEvent{Index: 0})
	require.Error(t, err)
	var pe *ProtocolError
	assert.True(t, errors.As(err, &pe))
}

func TestAggregator_ReasoningLastWriteWins(t *testing.T) {
	a := New()
	completed := feedAll(t, a, []core.StreamEvent{
		core.MessageStartEvent{Role: core.RoleAssistant},
		core.ContentBlockStartEvent{Index: 0},
		core.ContentBlockDeltaEvent{Index: 0, Delta: core.ReasoningDelta{Text: "first draft"}},
		core.ContentBlockDeltaEvent{Index: 0, Delta: core.ReasoningDelta{Text: "final thought"}},
		core.ContentBlockDeltaEvent{Index: 0, Delta: core.ReasoningDelta{Signature: "sig-1"}},
		core.ContentBlockDeltaEvent{Index: 0, Delta: core.ReasoningDelta{RedactedContent: []byte{0xAA}}},
		core.ContentBlockStopEvent{Index: 0},
		core.MessageStopEvent{StopReason: core.StopReasonEndTurn},
	})

	require.Len(t, completed, 1)
	reasoning, ok := completed[0].(core.ReasoningBlock)
	require.True(t, ok)
	// Sub-fields replace, they never concatenate.
	assert.Equal(t, "final thought", reasoning.Text)
	assert.Equal(t, "sig-1", reasoning.Signature)
	assert.Equal(t, []byte{0xAA}, reasoning.RedactedContent)
}

func TestAggregator_AccumulatorResetsBetweenBlocks(t *testing.T) {
	a := New()
	completed := feedAll(t, a, []core.StreamEvent{
		core.MessageStartEvent{Role: core.RoleAssistant},
		core.ContentBlockStartEvent{Index: 0},
		core.ContentBlockDeltaEvent{Index: 0, Delta: core.TextDelta{Text: "Let me check."}},
		core.ContentBlockStopEvent{Index: 0},
		core.ContentBlockStartEvent{Index: 1, ToolUse: &core.ToolUseStart{ToolUseID: "tu-4", Name: "lookup"}},
		core.ContentBlockDeltaEvent{Index: 1, Delta: core.ToolInputDelta{PartialJSON: `{"q":"go"}`}},
		core.ContentBlockStopEvent{Index: 1},
		core.ContentBlockStartEvent{Index: 2},
		core.ContentBlockDeltaEvent{Index: 2, Delta: core.TextDelta{Text: "Searching now."}},
		core.ContentBlockStopEvent{Index: 2},
		core.MessageStopEvent{StopReason: core.StopReasonToolUse},
	})

	require.Len(t, completed, 3)
	assert.Equal(t, core.TextBlock{Text: "Let me check."}, completed[0])
	use, ok := completed[1].(core.ToolUseBlock)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"q": "go"}, use.Input)
	// No bleed from earlier blocks.
	assert.Equal(t, core.TextBlock{Text: "Searching now."}, completed[2])

	msg, reason, err := a.Message()
	require.NoError(t, err)
	assert.Equal(t, core.StopReasonToolUse, reason)
	assert.Len(t, msg.Content, 3)
}

func TestAggregator_SequentialToolUsesKeepOrder(t *testing.T) {
	a := New()
	completed := feedAll(t, a, []core.StreamEvent{
		core.MessageStartEvent{Role: core.RoleAssistant},
		core.ContentBlockStartEvent{Index: 0, ToolUse: &core.ToolUseStart{ToolUseID: "dup", Name: "first"}},
		core.ContentBlockStopEvent{Index: 0},
		core.ContentBlockStartEvent{Index: 1, ToolUse: &core.ToolUseStart{ToolUseID: "dup", Name: "second"}},
		core.ContentBlockStopEvent{Index: 1},
		core.MessageStopEvent{StopReason: core.StopReasonToolUse},
	})

	require.Len(t, completed, 2)
	assert.Equal(t, "first", completed[0].(core.ToolUseBlock).Name)
	assert.Equal(t, "second", completed[1].(core.ToolUseBlock).Name)
}

func TestAggregator_MissingMessageStopIsFatal(t *testing.T) {
	a := New()
	feedAll(t, a, []core.StreamEvent{
		core.MessageStartEvent{Role: core.RoleAssistant},
		core.ContentBlockStartEvent{Index: 0},
		core.ContentBlockDeltaEvent{Index: 0, Delta: core.TextDelta{Text: "truncated"}},
		core.ContentBlockStopEvent{Index: 0},
		// message-stop never arrives
	})

	_, _, err := a.Message()
	require.Error(t, err)
	var pe *ProtocolError
	require.True(t, errors.As(err, &pe))
	assert.Contains(t, pe.Reason, "message-stop")
}

func TestAggregator_MetadataAfterMessageStop(t *testing.T) {
	a := New()
	feedAll(t, a, []core.StreamEvent{
		core.MessageStartEvent{Role: core.RoleAssistant},
		core.ContentBlockStartEvent{Index: 0},
		core.ContentBlockStopEvent{Index: 0},
		core.MessageStopEvent{StopReason: core.StopReasonMaxTokens},
		core.MetadataEvent{Usage: core.Usage{InputTokens: 100, OutputTokens: 900, TotalTokens: 1000}},
	})

	_, reason, err := a.Message()
	require.NoError(t, err)
	assert.Equal(t, core.StopReasonMaxTokens, reason)
	assert.Equal(t, 1000, a.Usage().TotalTokens)
}

func TestAggregator_ImplicitTextBlockOpen(t *testing.T) {
	// Some providers stream text deltas without an explicit block start.
	a := New()
	completed := feedAll(t, a, []core.StreamEvent{
		core.MessageStartEvent{Role: core.RoleAssistant},
		core.ContentBlockDeltaEvent{Index: 0, Delta: core.TextDelta{Text: "implicit"}},
		core.ContentBlockStopEvent{Index: 0},
		core.MessageStopEvent{StopReason: core.StopReasonEndTurn},
	})

	require.Len(t, completed, 1)
	assert.Equal(t, core.TextBlock{Text: "implicit"}, completed[0])
}

func TestAggregator_OpenBlockClosesOnMessageStop(t *testing.T) {
	a := New()
	_, _, err := a.Feed(core.ContentBlockDeltaEvent{Index: 0, Delta: core.TextDelta{Text: "dangling"}})
	require.NoError(t, err)

	block, done, err := a.Feed(core.MessageStopEvent{StopReason: core.StopReasonEndTurn})
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, core.TextBlock{Text: "dangling"}, block)
}

func TestAggregator_ContentAfterMessageStopIsFatal(t *testing.T) {
	a := New()
	_, _, err := a.Feed(core.MessageStopEvent{StopReason: core.StopReasonEndTurn})
	require.NoError(t, err)

	_, _, err = a.Feed(core.ContentBlockDeltaEvent{Index: 0, Delta: core.TextDelta{Text: "late"}})
	var pe *ProtocolError
	assert.True(t, errors.As(err, &pe))
}

func TestAggregator_ToolInputDeltaWithoutToolBlockIsFatal(t *testing.T) {
	a := New()
	_, _, err := a.Feed(core.ContentBlockDeltaEvent{Index: 0, Delta: core.ToolInputDelta{PartialJSON: `{}`}})
	var pe *ProtocolError
	assert.True(t, errors.As(err, &pe))
}
