package aggregate

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"

	"github.com/hupe1980/agentcore/core"
)

// ProtocolError reports a violation of the canonical streaming protocol,
// such as a stream that ends without message-stop or tool input that is not
// valid JSON. Protocol violations are fatal to the invocation: they indicate
// a broken adapter or provider stream, not a recoverable condition.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return "stream protocol violation: " + e.Reason
}

// NewProtocolError creates a ProtocolError with a formatted reason.
func NewProtocolError(format string, args ...any) *ProtocolError {
	return &ProtocolError{Reason: fmt.Sprintf(format, args...)}
}

type toolAccumulator struct {
	toolUseID string
	name      string
	fragments []string
}

// finalize joins the input fragments in arrival order and parses them as a
// single JSON object. No fragments means an empty input object.
func (t *toolAccumulator) finalize() (core.ToolUseBlock, error) {
	input := strings.Join(t.fragments, "")
	if strings.TrimSpace(input) == "" {
		input = "{}"
	}
	if !gjson.Valid(input) {
		return core.ToolUseBlock{}, NewProtocolError("tool input for %q is not valid JSON: %s", t.name, input)
	}
	var parsed map[string]any
	if err := json.Unmarshal([]byte(input), &parsed); err != nil {
		return core.ToolUseBlock{}, NewProtocolError("tool input for %q does not decode to an object: %v", t.name, err)
	}
	return core.ToolUseBlock{ToolUseID: t.toolUseID, Name: t.name, Input: parsed}, nil
}

type reasoningAccumulator struct {
	text      string
	signature string
	redacted  []byte
}

// merge applies a reasoning delta. Each sub-field replaces the previous
// value when present; sub-fields the delta does not carry are untouched.
// Unlike text, reasoning fragments do not concatenate.
func (r *reasoningAccumulator) merge(d core.ReasoningDelta) {
	if d.Text != "" {
		r.text = d.Text
	}
	if d.Signature != "" {
		r.signature = d.Signature
	}
	if d.RedactedContent != nil {
		r.redacted = d.RedactedContent
	}
}

func (r *reasoningAccumulator) empty() bool {
	return r.text == "" && r.signature == "" && r.redacted == nil
}

// Aggregator folds a canonical event stream into a complete message. It is
// fed one event at a time so the caller can interleave its own re-emission
// of raw events and completed blocks.
//
// Block finalization precedence on content-block-stop: a block that carries
// tool identity becomes a ToolUseBlock, else one with reasoning content
// becomes a ReasoningBlock, else it becomes a TextBlock (possibly empty).
// All per-block accumulation resets between blocks.
type Aggregator struct {
	role       core.Role
	blocks     []core.ContentBlock
	stopReason core.StopReason
	stopped    bool
	usage      core.Usage
	metrics    core.Metrics

	// Open block accumulation. Text concatenates, tool input fragments
	// concatenate then parse, reasoning sub-fields replace.
	text      strings.Builder
	tool      *toolAccumulator
	reasoning reasoningAccumulator
	open      bool
}

// New creates an aggregator for one streamed message.
func New() *Aggregator {
	return &Aggregator{role: core.RoleAssistant}
}

// Feed consumes the next stream event. It returns the content block
// completed by this event (nil if none) and whether the message finished
// (message-stop seen). A non-nil error is a fatal protocol violation.
func (a *Aggregator) Feed(ev core.StreamEvent) (core.ContentBlock, bool, error) {
	switch e := ev.(type) {
	case core.MessageStartEvent:
		a.role = e.Role
		return nil, false, nil

	case core.ContentBlockStartEvent:
		if a.stopped {
			return nil, false, NewProtocolError("content-block-start after message-stop")
		}
		if a.open {
			return nil, false, NewProtocolError("content-block-start while a block is open")
		}
		a.open = true
		if e.ToolUse != nil {
			a.tool = &toolAccumulator{toolUseID: e.ToolUse.ToolUseID, name: e.ToolUse.Name}
		}
		return nil, false, nil

	case core.ContentBlockDeltaEvent:
		if a.stopped {
			return nil, false, NewProtocolError("content-block-delta after message-stop")
		}
		// Text blocks may open implicitly with their first delta.
		a.open = true
		switch d := e.Delta.(type) {
		case core.TextDelta:
			a.text.WriteString(d.Text)
		case core.ToolInputDelta:
			if a.tool == nil {
				return nil, false, NewProtocolError("tool input delta outside a tool-use block")
			}
			a.tool.fragments = append(a.tool.fragments, d.PartialJSON)
		case core.ReasoningDelta:
			a.reasoning.merge(d)
		}
		return nil, false, nil

	case core.ContentBlockStopEvent:
		if a.stopped {
			return nil, false, NewProtocolError("content-block-stop after message-stop")
		}
		block, err := a.closeBlock()
		if err != nil {
			return nil, false, err
		}
		return block, false, nil

	case core.MessageStopEvent:
		a.stopReason = e.StopReason
		a.stopped = true
		// A block still open here closes implicitly.
		if a.open {
			block, err := a.closeBlock()
			if err != nil {
				return nil, true, err
			}
			return block, true, nil
		}
		return nil, true, nil

	case core.MetadataEvent:
		// Metadata may arrive before or after message-stop.
		a.usage = e.Usage
		a.metrics = e.Metrics
		return nil, a.stopped, nil

	default:
		return nil, false, NewProtocolError("unknown stream event %T", ev)
	}
}

// closeBlock finalizes the open block, appends it to the message and resets
// all per-block accumulation.
func (a *Aggregator) closeBlock() (core.ContentBlock, error) {
	var block core.ContentBlock
	switch {
	case a.tool != nil:
		use, err := a.tool.finalize()
		if err != nil {
			return nil, err
		}
		block = use
	case !a.reasoning.empty():
		block = core.ReasoningBlock{
			Text:            a.reasoning.text,
			Signature:       a.reasoning.signature,
			RedactedContent: a.reasoning.redacted,
		}
	default:
		block = core.TextBlock{Text: a.text.String()}
	}

	a.text.Reset()
	a.tool = nil
	a.reasoning = reasoningAccumulator{}
	a.open = false

	a.blocks = append(a.blocks, block)
	return block, nil
}

// Message returns the aggregated message and stop reason. Calling it on a
// stream that never delivered message-stop is a protocol violation: the
// stream ended mid-message and the partial content cannot be trusted.
func (a *Aggregator) Message() (core.Message, core.StopReason, error) {
	if !a.stopped {
		return core.Message{}, "", NewProtocolError("stream ended without message-stop")
	}
	return core.Message{Role: a.role, Content: a.blocks}, a.stopReason, nil
}

// Usage returns the token accounting reported by the stream's metadata
// event, zero if none arrived.
func (a *Aggregator) Usage() core.Usage { return a.usage }

// Metrics returns the timing reported by the stream's metadata event.
func (a *Aggregator) Metrics() core.Metrics { return a.metrics }
