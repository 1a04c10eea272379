package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/agentcore/core"
	"github.com/hupe1980/agentcore/tool"
)

// runTools executes the tool batch of one assistant turn strictly
// sequentially, in block order, and collects the results into one user
// message. Every per-tool failure mode (unknown tool, no result, returned
// error, panic, empty success content) is converted into an error-status
// result; only hook callback errors abort the batch.
func (a *Agent) runTools(ctx context.Context, assistant core.Message, uses []core.ToolUseBlock, emit emitter) (core.Message, error) {
	if err := a.dispatchAndEmit(ctx, &BeforeToolsEvent{Agent: a, Message: assistant, ToolUses: uses}, emit); err != nil {
		return core.Message{}, err
	}

	batchStart := time.Now()

	results := make([]core.ToolResultBlock, 0, len(uses))
	for _, use := range uses {
		result, err := a.runTool(ctx, use, emit)
		if err != nil {
			return core.Message{}, err
		}
		results = append(results, result)
	}

	a.logger.Debug("agent.tools.batch.complete",
		"agent", a.name,
		"count", len(uses),
		"duration_ms", time.Since(batchStart).Milliseconds(),
	)

	if err := a.dispatchAndEmit(ctx, &AfterToolsEvent{Agent: a, Results: results}, emit); err != nil {
		return core.Message{}, err
	}

	content := make([]core.ContentBlock, 0, len(results))
	for _, r := range results {
		content = append(content, r)
	}
	return core.Message{Role: core.RoleUser, Content: content}, nil
}

// runTool resolves and executes one tool use. The before-tool-call chain may
// rewrite the use or the tool before execution; the after-tool-call chain
// may rewrite the result before it is committed.
func (a *Agent) runTool(ctx context.Context, use core.ToolUseBlock, emit emitter) (core.ToolResultBlock, error) {
	before := &BeforeToolCallEvent{Agent: a, ToolUse: use, Tool: a.tools.Get(use.Name)}
	if err := a.dispatchAndEmit(ctx, before, emit); err != nil {
		return core.ToolResultBlock{}, err
	}
	// Re-read both writable fields; callbacks may have redirected the call
	// or cleared the tool.
	use, impl := before.ToolUse, before.Tool

	var (
		result core.ToolResultBlock
		runErr error
	)
	if impl == nil {
		a.logger.Warn("agent.tool.unknown", "agent", a.name, "tool", use.Name)
		result = core.NewToolError(use.ToolUseID, fmt.Sprintf("Unknown tool: %s", use.Name))
	} else {
		result, runErr = a.execTool(ctx, impl, use, emit)
	}

	// Correlation is owned by the loop, not the tool.
	result.ToolUseID = use.ToolUseID

	after := &AfterToolCallEvent{Agent: a, ToolUse: use, Tool: impl, Result: result, Error: runErr}
	if err := a.dispatchAndEmit(ctx, after, emit); err != nil {
		return core.ToolResultBlock{}, err
	}

	// Re-read: callbacks may replace content or flip the status.
	return after.Result, nil
}

// execTool invokes the tool and normalizes its outcome into a result block.
// The returned error is the tool's original failure, kept for the
// after-tool-call event; it is already folded into the result.
func (a *Agent) execTool(ctx context.Context, impl tool.Tool, use core.ToolUseBlock, emit emitter) (core.ToolResultBlock, error) {
	tctx := tool.NewContext(ctx, a, use.ToolUseID, func(o *tool.ContextOptions) {
		o.Logger = a.logger
		o.Progress = func(payload any) {
			if err := a.dispatchAndEmit(ctx, &ToolProgressEvent{Agent: a, ToolUse: use, Payload: payload}, emit); err != nil {
				a.logger.Warn("agent.tool.progress.dropped", "agent", a.name, "tool", use.Name, "error", err.Error())
			}
		}
	})

	start := time.Now()
	result, err := a.safeRun(impl, tctx, use)

	a.logger.Info("agent.tool.executed",
		"agent", a.name,
		"tool", use.Name,
		"tool_use_id", use.ToolUseID,
		"duration_ms", time.Since(start).Milliseconds(),
		"error", err != nil,
	)

	switch {
	case err != nil:
		return core.NewToolError(use.ToolUseID, err.Error()), err
	case result == nil:
		return core.NewToolError(use.ToolUseID, fmt.Sprintf("Tool %s did not return a result", use.Name)), nil
	case result.Status == core.ToolResultSuccess && len(result.Content) == 0:
		return core.NewToolError(use.ToolUseID, fmt.Sprintf("Tool %s returned an empty result", use.Name)), nil
	default:
		return *result, nil
	}
}

// safeRun shields the loop from panicking tools.
func (a *Agent) safeRun(impl tool.Tool, tctx *tool.Context, use core.ToolUseBlock) (result *core.ToolResultBlock, err error) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("agent.tool.panic", "agent", a.name, "tool", use.Name, "recover", r)
			result = nil
			err = fmt.Errorf("tool %s panicked: %v", use.Name, r)
		}
	}()
	return impl.Run(tctx, use)
}
