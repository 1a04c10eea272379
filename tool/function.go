package tool

import (
	"fmt"
	"time"

	"github.com/hupe1980/agentcore/core"
	"github.com/hupe1980/agentcore/internal/util"
)

// FunctionTool is a generic adapter that exposes a plain Go function as a
// tool.
//
// Responsibilities:
//   - Holds a lightweight JSON-Schema-like input specification
//   - Validates model supplied input against that schema before execution
//     (tools validate their own inputs; the executor never does)
//   - Invokes the wrapped function with the execution Context giving access
//     to agent state, conversation history and progress emission
//   - Normalizes error handling so callers receive *ToolError with
//     consistent codes:
//     VALIDATION_ERROR  -> schema / input mismatch
//     EXECUTION_ERROR   -> underlying function returned an error (non-ToolError)
//     (custom codes preserved if the function returns *ToolError directly)
//
// Concurrency:
//
//	A FunctionTool has no internal mutable state after construction and is
//	safe for concurrent use by multiple goroutines.
//
// Returned result:
//
//	A string return becomes a text result item, any other non-nil value a
//	JSON result item. Returning (nil, nil) reports "no result" upstream.
type FunctionTool struct {
	// Tool identifier (snake_case recommended)
	name string
	// Human-readable description shown to models
	description string
	// JSON schema describing accepted input
	inputSchema map[string]any
	// User supplied implementation
	fn func(tctx *Context, args map[string]any) (any, error)
}

// NewFunctionTool constructs a FunctionTool from explicit schema and function.
//
// Example:
//
//	sumTool := NewFunctionTool(
//	  "calculate_sum",
//	  "Calculate the sum of two numbers",
//	  map[string]any{
//	    "type": "object",
//	    "properties": map[string]any{
//	      "a": map[string]any{"type": "number"},
//	      "b": map[string]any{"type": "number"},
//	    },
//	    "required": []string{"a", "b"},
//	  },
//	  func(tctx *tool.Context, args map[string]any) (any, error) {
//	    return args["a"].(float64) + args["b"].(float64), nil
//	  },
//	)
func NewFunctionTool(
	name, description string,
	inputSchema map[string]any,
	fn func(tctx *Context, args map[string]any) (any, error),
) *FunctionTool {
	return &FunctionTool{
		name:        name,
		description: description,
		inputSchema: inputSchema,
		fn:          fn,
	}
}

// NewFunctionToolFromStruct derives the input schema from a struct using
// reflection. It is a convenience for simple argument containers and produces
// a schema equivalent to util.CreateSchema(structType).
//
// Example:
//
//	type SumArgs struct {
//	  A float64 `json:"a" description:"First addend"`
//	  B float64 `json:"b" description:"Second addend"`
//	}
//
//	sumTool := NewFunctionToolFromStruct(
//	  "calculate_sum",
//	  "Calculate the sum of two numbers",
//	  SumArgs{},
//	  func(tctx *tool.Context, args map[string]any) (any, error) {
//	    return args["a"].(float64) + args["b"].(float64), nil
//	  },
//	)
func NewFunctionToolFromStruct(
	name, description string,
	structType any,
	fn func(tctx *Context, args map[string]any) (any, error),
) *FunctionTool {
	schema := util.CreateSchema(structType)
	return NewFunctionTool(name, description, schema, fn)
}

// Name returns the unique tool name used in tool specs and routing.
func (t *FunctionTool) Name() string { return t.name }

// Description returns the short natural language description exposed to models.
func (t *FunctionTool) Description() string { return t.description }

// InputSchema returns the (minimal) JSON schema describing expected input.
func (t *FunctionTool) InputSchema() map[string]any { return t.inputSchema }

// Run validates the tool-use input against the declared schema then invokes
// the underlying function. Validation or execution failures are wrapped (or
// passed through) as *ToolError for uniform downstream handling.
//
// Logging fields:
//
//	tool: tool name
//	tool_use_id: correlates model request and tool execution
//	duration_ms: execution time in milliseconds
func (t *FunctionTool) Run(tctx *Context, use core.ToolUseBlock) (*core.ToolResultBlock, error) {
	logger := tctx.Logger()
	start := time.Now()

	logger.Debug("tool.call.start", "tool", t.name, "tool_use_id", use.ToolUseID)

	if err := util.ValidateParameters(use.Input, t.inputSchema); err != nil {
		logger.Warn("tool.call.validation_failed", "tool", t.name, "error", err.Error())

		return nil, &ToolError{
			Tool:    t.name,
			Message: fmt.Sprintf("input validation failed: %v", err),
			Code:    "VALIDATION_ERROR",
			Details: err,
		}
	}

	result, err := t.fn(tctx, use.Input)
	if err != nil {
		if toolErr, ok := err.(*ToolError); ok { // Already a ToolError -> just log and forward
			logger.Error("tool.call.error", "tool", t.name, "error", toolErr.Message)

			return nil, toolErr
		}

		logger.Error("tool.call.error", "tool", t.name, "error", err.Error())

		return nil, &ToolError{
			Tool:    t.name,
			Message: err.Error(),
			Code:    "EXECUTION_ERROR",
		}
	}

	logger.Info("tool.call.success", "tool", t.name, "duration_ms", time.Since(start).Milliseconds())

	if result == nil {
		return nil, nil
	}

	block := wrapResult(use.ToolUseID, result)
	return &block, nil
}

func wrapResult(toolUseID string, result any) core.ToolResultBlock {
	if text, ok := result.(string); ok {
		return core.NewToolResult(toolUseID, core.ToolResultText{Text: text})
	}
	return core.NewToolResult(toolUseID, core.ToolResultJSON{Value: result})
}
