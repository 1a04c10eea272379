package core

// StreamEvent is one event in the canonical streaming protocol every model
// backend normalizes to. A well-formed stream looks like:
//
//	message-start
//	  (content-block-start?) (content-block-delta*) content-block-stop   [repeated per block]
//	message-stop
//	metadata
//
// content-block-start is only required for blocks that carry up-front
// identity (tool use); plain text blocks may open implicitly with their first
// delta. Events are ephemeral and never persisted. Concrete event types
// implement the unexported isStreamEvent marker enabling a closed set.
type StreamEvent interface{ isStreamEvent() }

// MessageStartEvent opens a streamed message and announces its role.
type MessageStartEvent struct {
	Role Role
}

// isStreamEvent implements the StreamEvent interface for MessageStartEvent.
func (MessageStartEvent) isStreamEvent() {}

// ToolUseStart carries the identity of a tool-use block announced at block
// start. Input arrives afterwards as ToolInputDelta fragments.
type ToolUseStart struct {
	ToolUseID string
	Name      string
}

// ContentBlockStartEvent opens a content block. ToolUse is nil for blocks
// without up-front identity.
type ContentBlockStartEvent struct {
	Index   int // Block position within the message
	ToolUse *ToolUseStart
}

// isStreamEvent implements the StreamEvent interface for ContentBlockStartEvent.
func (ContentBlockStartEvent) isStreamEvent() {}

// ContentBlockDeltaEvent carries one incremental fragment of the open block.
type ContentBlockDeltaEvent struct {
	Index int
	Delta Delta
}

// isStreamEvent implements the StreamEvent interface for ContentBlockDeltaEvent.
func (ContentBlockDeltaEvent) isStreamEvent() {}

// ContentBlockStopEvent closes the open content block.
type ContentBlockStopEvent struct {
	Index int
}

// isStreamEvent implements the StreamEvent interface for ContentBlockStopEvent.
func (ContentBlockStopEvent) isStreamEvent() {}

// MessageStopEvent terminates the message and reports why generation ended.
// Every well-formed stream ends its message with exactly one of these.
type MessageStopEvent struct {
	StopReason StopReason
}

// isStreamEvent implements the StreamEvent interface for MessageStopEvent.
func (MessageStopEvent) isStreamEvent() {}

// MetadataEvent reports token accounting and timing for the completed
// request. It usually follows message-stop but may arrive at any point.
type MetadataEvent struct {
	Usage   Usage
	Metrics Metrics
}

// isStreamEvent implements the StreamEvent interface for MetadataEvent.
func (MetadataEvent) isStreamEvent() {}

// Delta represents one incremental content fragment. Concrete delta types
// implement the unexported isDelta marker.
type Delta interface{ isDelta() }

// TextDelta appends text to the open text block.
type TextDelta struct {
	Text string
}

// isDelta implements the Delta interface for TextDelta.
func (TextDelta) isDelta() {}

// ToolInputDelta carries a fragment of the open tool-use block's input JSON.
// Fragments are not individually valid JSON; they concatenate in arrival
// order into the full input document.
type ToolInputDelta struct {
	PartialJSON string
}

// isDelta implements the Delta interface for ToolInputDelta.
func (ToolInputDelta) isDelta() {}

// ReasoningDelta carries reasoning fragments. Providers may send each
// sub-field in separate deltas; sub-fields merge independently, last write
// wins per field.
type ReasoningDelta struct {
	Text            string
	Signature       string
	RedactedContent []byte
}

// isDelta implements the Delta interface for ReasoningDelta.
func (ReasoningDelta) isDelta() {}
