package core

import "strings"

// Role identifies the author of a message in a conversation.
type Role string

// Conversation roles. The model alternates between user and assistant turns;
// tool results travel back to the model inside user messages.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single conversation turn: a role plus ordered content blocks.
// Once appended to an agent's history a message is treated as immutable.
type Message struct {
	Role    Role           `json:"role"`
	Content []ContentBlock `json:"content"`
}

// NewTextMessage builds a message holding a single text block.
func NewTextMessage(role Role, text string) Message {
	return Message{Role: role, Content: []ContentBlock{TextBlock{Text: text}}}
}

// Text concatenates the message's text blocks in order, skipping all other
// block kinds.
func (m Message) Text() string {
	var sb strings.Builder
	for _, b := range m.Content {
		if t, ok := b.(TextBlock); ok {
			sb.WriteString(t.Text)
		}
	}
	return sb.String()
}

// ToolUses returns the tool-use blocks contained in the message preserving
// their original order.
func (m Message) ToolUses() []ToolUseBlock {
	var uses []ToolUseBlock
	for _, b := range m.Content {
		if u, ok := b.(ToolUseBlock); ok {
			uses = append(uses, u)
		}
	}
	return uses
}

// ContentBlock represents a polymorphic segment of message content. Concrete
// block types implement the unexported isContentBlock marker enabling a
// closed set.
type ContentBlock interface{ isContentBlock() }

// TextBlock is a plain text content segment. Empty text is valid; models
// occasionally emit empty text blocks and they are preserved as-is.
type TextBlock struct {
	Text string // Plain UTF-8 text
}

// isContentBlock implements the ContentBlock interface for TextBlock.
func (TextBlock) isContentBlock() {}

// ToolUseBlock is a model request to execute a named tool with structured
// input. ToolUseID correlates the request with its eventual result.
type ToolUseBlock struct {
	ToolUseID string         // Correlation id assigned by the model
	Name      string         // Requested tool name
	Input     map[string]any // Parsed JSON input payload
}

// isContentBlock implements the ContentBlock interface for ToolUseBlock.
func (ToolUseBlock) isContentBlock() {}

// ToolResultStatus reports whether a tool execution succeeded.
type ToolResultStatus string

// Tool result statuses.
const (
	ToolResultSuccess ToolResultStatus = "success"
	ToolResultError   ToolResultStatus = "error"
)

// ToolResultBlock carries the outcome of a tool execution back to the model.
// Content is never empty: an empty successful result is converted into an
// error result before it reaches a message.
type ToolResultBlock struct {
	ToolUseID string              // Matches the originating ToolUseBlock
	Status    ToolResultStatus    // success or error
	Content   []ToolResultContent // Ordered result payload items
}

// isContentBlock implements the ContentBlock interface for ToolResultBlock.
func (ToolResultBlock) isContentBlock() {}

// NewToolResult builds a successful tool result block.
func NewToolResult(toolUseID string, content ...ToolResultContent) ToolResultBlock {
	return ToolResultBlock{ToolUseID: toolUseID, Status: ToolResultSuccess, Content: content}
}

// NewToolError builds an error tool result block with a single text item.
func NewToolError(toolUseID, message string) ToolResultBlock {
	return ToolResultBlock{
		ToolUseID: toolUseID,
		Status:    ToolResultError,
		Content:   []ToolResultContent{ToolResultText{Text: message}},
	}
}

// ToolResultContent represents one item of a tool result payload. Concrete
// types implement the unexported isToolResultContent marker.
type ToolResultContent interface{ isToolResultContent() }

// ToolResultText is a textual tool result item.
type ToolResultText struct {
	Text string
}

// isToolResultContent implements the ToolResultContent interface for ToolResultText.
func (ToolResultText) isToolResultContent() {}

// ToolResultJSON is a structured tool result item. Value must be
// JSON-serializable.
type ToolResultJSON struct {
	Value any
}

// isToolResultContent implements the ToolResultContent interface for ToolResultJSON.
func (ToolResultJSON) isToolResultContent() {}

// ReasoningBlock captures model reasoning attached to a response. Sub-fields
// are independent: any combination of text, signature and redacted content
// may be present.
type ReasoningBlock struct {
	Text            string // Reasoning text
	Signature       string // Provider verification token
	RedactedContent []byte // Opaque redacted reasoning payload
}

// isContentBlock implements the ContentBlock interface for ReasoningBlock.
func (ReasoningBlock) isContentBlock() {}

// DefaultCacheType is the cache point type used when none is specified.
const DefaultCacheType = "default"

// CachePointBlock marks a prompt cache boundary. It carries no content of its
// own and providers that do not support caching skip it.
type CachePointBlock struct {
	CacheType string // Cache point type, DefaultCacheType when empty
}

// isContentBlock implements the ContentBlock interface for CachePointBlock.
func (CachePointBlock) isContentBlock() {}

// ImageBlock is an inline image attachment.
type ImageBlock struct {
	Format string // Image format (png, jpeg, gif, webp)
	Source []byte // Raw image bytes
}

// isContentBlock implements the ContentBlock interface for ImageBlock.
func (ImageBlock) isContentBlock() {}

// DocumentBlock is an inline document attachment.
type DocumentBlock struct {
	Name   string // Display name presented to the model
	Format string // Document format (pdf, txt, md, ...)
	Source []byte // Raw document bytes
}

// isContentBlock implements the ContentBlock interface for DocumentBlock.
func (DocumentBlock) isContentBlock() {}

// VideoBlock is an inline video attachment.
type VideoBlock struct {
	Format string // Video format (mp4, mov, ...)
	Source []byte // Raw video bytes
}

// isContentBlock implements the ContentBlock interface for VideoBlock.
func (VideoBlock) isContentBlock() {}

// GuardContentBlock wraps text that should be evaluated by provider-side
// content guards.
type GuardContentBlock struct {
	Text string
}

// isContentBlock implements the ContentBlock interface for GuardContentBlock.
func (GuardContentBlock) isContentBlock() {}
