package tool

import (
	"fmt"
	"strings"

	"github.com/hupe1980/agentcore/core"
)

// StateTool exposes the owning agent's key/value state to the model.
//
// It demonstrates the sanctioned state mutation path: state is shared
// between tools, hook callbacks and the host application but never sent to
// the model, so a model that needs to read or persist facts across turns
// does it through this tool.
type StateTool struct {
	name        string
	description string
}

// NewStateTool creates a new state management tool.
func NewStateTool() *StateTool {
	return &StateTool{
		name: "manage_state",
		description: "Reads and writes the agent's persistent key/value state. " +
			"Supports operations: get, set, delete, list, history.",
	}
}

// Name returns the tool identifier.
func (t *StateTool) Name() string {
	return t.name
}

// Description returns the tool description.
func (t *StateTool) Description() string {
	return t.description
}

// InputSchema returns the JSON schema for the tool input.
func (t *StateTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"operation": map[string]any{
				"type":        "string",
				"enum":        []string{"get", "set", "delete", "list", "history"},
				"description": "The state operation to perform",
			},
			"key": map[string]any{
				"type":        "string",
				"description": "State key for get/set/delete operations",
			},
			"value": map[string]any{
				"description": "Value for set operations (any JSON type)",
			},
		},
		"required": []string{"operation"},
	}
}

// Run implements the Tool interface.
func (t *StateTool) Run(tctx *Context, use core.ToolUseBlock) (*core.ToolResultBlock, error) {
	operation, ok := use.Input["operation"].(string)
	if !ok {
		return nil, NewToolError(t.name, "operation parameter is required", "VALIDATION_ERROR")
	}

	var (
		payload any
		err     error
	)
	switch operation {
	case "get":
		payload, err = t.handleGet(tctx, use.Input)
	case "set":
		payload, err = t.handleSet(tctx, use.Input)
	case "delete":
		payload, err = t.handleDelete(tctx, use.Input)
	case "list":
		payload, err = t.handleList(tctx)
	case "history":
		payload, err = t.handleHistory(tctx)
	default:
		return nil, NewToolError(t.name, fmt.Sprintf("unknown operation: %s", operation), "VALIDATION_ERROR")
	}
	if err != nil {
		return nil, err
	}

	result := core.NewToolResult(use.ToolUseID, core.ToolResultJSON{Value: payload})
	return &result, nil
}

// handleGet retrieves a value from agent state.
func (t *StateTool) handleGet(tctx *Context, input map[string]any) (any, error) {
	key, ok := input["key"].(string)
	if !ok {
		return nil, NewToolError(t.name, "key parameter is required for get operation", "VALIDATION_ERROR")
	}

	value, exists := tctx.Agent().State().Get(key)
	return map[string]any{
		"key":    key,
		"exists": exists,
		"value":  value,
	}, nil
}

// handleSet stores a value in agent state.
func (t *StateTool) handleSet(tctx *Context, input map[string]any) (any, error) {
	key, ok := input["key"].(string)
	if !ok {
		return nil, NewToolError(t.name, "key parameter is required for set operation", "VALIDATION_ERROR")
	}

	value := input["value"] // Can be any JSON type

	tctx.Agent().State().Set(key, value)

	return map[string]any{
		"key":     key,
		"value":   value,
		"success": true,
	}, nil
}

// handleDelete removes a key from agent state.
func (t *StateTool) handleDelete(tctx *Context, input map[string]any) (any, error) {
	key, ok := input["key"].(string)
	if !ok {
		return nil, NewToolError(t.name, "key parameter is required for delete operation", "VALIDATION_ERROR")
	}

	tctx.Agent().State().Delete(key)

	return map[string]any{
		"key":     key,
		"success": true,
	}, nil
}

// handleList returns all state keys.
func (t *StateTool) handleList(tctx *Context) (any, error) {
	keys := tctx.Agent().State().Keys()
	return map[string]any{
		"keys":  keys,
		"count": len(keys),
	}, nil
}

// handleHistory summarizes the conversation so far.
func (t *StateTool) handleHistory(tctx *Context) (any, error) {
	messages := tctx.Agent().Messages()

	summaries := make([]map[string]any, len(messages))
	for i, msg := range messages {
		var parts []string
		for _, block := range msg.Content {
			switch b := block.(type) {
			case core.TextBlock:
				preview := b.Text
				if len(preview) > 100 {
					preview = preview[:100] + "..."
				}
				parts = append(parts, fmt.Sprintf("text: %s", preview))
			case core.ToolUseBlock:
				parts = append(parts, fmt.Sprintf("tool_use: %s", b.Name))
			case core.ToolResultBlock:
				parts = append(parts, fmt.Sprintf("tool_result: %s", b.Status))
			default:
				parts = append(parts, "other")
			}
		}
		summaries[i] = map[string]any{
			"role":    string(msg.Role),
			"summary": strings.Join(parts, ", "),
		}
	}

	return map[string]any{
		"messages": summaries,
		"count":    len(summaries),
	}, nil
}
