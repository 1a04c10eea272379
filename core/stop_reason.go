package core

// StopReason reports why the model stopped generating a message.
type StopReason string

// Stop reasons shared across providers. Adapters map provider-specific
// values onto this set.
const (
	StopReasonEndTurn             StopReason = "end_turn"
	StopReasonToolUse             StopReason = "tool_use"
	StopReasonMaxTokens           StopReason = "max_tokens"
	StopReasonStopSequence        StopReason = "stop_sequence"
	StopReasonGuardrailIntervened StopReason = "guardrail_intervened"
	StopReasonContentFiltered     StopReason = "content_filtered"
)

// IsToolUse reports whether the model stopped to request tool executions.
func (s StopReason) IsToolUse() bool { return s == StopReasonToolUse }

// IsTruncation reports whether the response was cut off by the output token
// limit. Callers that need the complete response should treat this as an
// incomplete result rather than a normal completion.
func (s StopReason) IsTruncation() bool { return s == StopReasonMaxTokens }
