// Package tool implements the tool-calling subsystem that lets agents invoke
// structured capabilities (APIs, computations, side effects) with consistent
// error handling and rich metadata for model guidance.
package tool

import (
	"fmt"

	"github.com/hupe1980/agentcore/core"
	"github.com/hupe1980/agentcore/internal/util"
)

// Tool defines the interface for extending agent capabilities with external
// functions.
//
// Tools are registered with an agent and offered to the model as specs; when
// the model requests one, the agent's executor calls Run with the parsed
// tool-use block. Tools validate their own inputs: the executor passes the
// model-supplied input through untouched.
//
// Streaming contract: Run may emit any number of intermediate progress
// payloads via Context.Progress while it works; the terminal result is the
// return value. Returning (nil, nil) means the tool produced no result and
// the executor reports that to the model as an error result. A returned
// error never aborts the agent loop; the executor converts it into an
// error-status result carrying the error text.
//
// Tool implementations should:
//   - Provide clear, descriptive names and descriptions
//   - Define a proper JSON schema for their input
//   - Be thread-safe if used concurrently
type Tool interface {
	// Name returns the unique identifier for this tool.
	// Names should follow function naming conventions (snake_case recommended).
	Name() string

	// Description returns a human-readable description of what this tool does.
	// It is provided to the model to help it decide when to use the tool.
	Description() string

	// InputSchema returns a JSON schema describing the expected input format.
	// The schema is forwarded to the model verbatim.
	InputSchema() map[string]any

	// Run executes the tool against a model-issued tool-use block. The
	// context gives access to the owning agent's state, conversation history
	// and the progress emitter.
	Run(tctx *Context, use core.ToolUseBlock) (*core.ToolResultBlock, error)
}

// ValidationError represents input validation errors with detailed information.
type ValidationError = util.ValidationError

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`              // Name of the tool that failed
	Message string `json:"message"`           // Error message
	Code    string `json:"code"`              // Error code for categorization
	Details any    `json:"details,omitempty"` // Additional error details
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}
