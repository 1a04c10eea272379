package agent

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentcore/aggregate"
	"github.com/hupe1980/agentcore/core"
	"github.com/hupe1980/agentcore/hook"
	"github.com/hupe1980/agentcore/internal/util"
	"github.com/hupe1980/agentcore/model"
)

// Result is the terminal outcome of one invocation.
type Result struct {
	// StopReason reports why the final model turn ended. Callers should
	// check IsTruncation to detect responses cut off by the token limit.
	StopReason core.StopReason

	// Message is the final assistant message.
	Message core.Message

	// Usage totals token accounting across all model calls of the
	// invocation, including turns that requested tools.
	Usage core.Usage
}

// emitter forwards lifecycle events to a Stream consumer. A nil emitter
// disables forwarding; hook dispatch is unaffected.
type emitter func(ev hook.Event) error

// Invoke runs the loop to completion and returns the terminal result. Input
// blocks, when given, become one user message. Invoking with no blocks
// continues from the current history.
func (a *Agent) Invoke(ctx context.Context, blocks ...core.ContentBlock) (*Result, error) {
	return a.run(ctx, blocks, nil)
}

// Stream runs the loop like Invoke while surfacing every lifecycle event on
// the returned channel: hook events in dispatch order, raw model stream
// events, completed content blocks and tool progress, terminated by a
// *ResultEvent. The event channel closes when the invocation finishes; a
// terminal failure is delivered on the error channel (buffered, size 1)
// after the event channel closes.
func (a *Agent) Stream(ctx context.Context, blocks ...core.ContentBlock) (<-chan hook.Event, <-chan error) {
	eventCh := make(chan hook.Event, 64)
	errCh := make(chan error, 1)

	emit := func(ev hook.Event) error {
		select {
		case eventCh <- ev:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	go func() {
		defer close(eventCh)
		defer close(errCh)

		if _, err := a.run(ctx, blocks, emit); err != nil {
			errCh <- err
		}
	}()

	return eventCh, errCh
}

// run acquires the guard, executes the turn loop and guarantees the
// after-invocation dispatch on every path past the guard.
func (a *Agent) run(ctx context.Context, blocks []core.ContentBlock, emit emitter) (*Result, error) {
	if err := a.acquire(); err != nil {
		return nil, err
	}
	defer a.release()

	a.logger.Info("agent.invoke.start", "agent", a.name)

	res, err := a.runTurns(ctx, blocks, emit)

	// Cleanup half of before-invocation: dispatched exactly once whether
	// the loop succeeded or failed.
	if aerr := a.dispatchAndEmit(ctx, &AfterInvocationEvent{Agent: a}, emit); aerr != nil && err == nil {
		err = aerr
	}

	if err != nil {
		a.logger.Error("agent.invoke.error", "agent", a.name, "error", err.Error())
		return nil, err
	}

	if emit != nil {
		if eerr := emit(&ResultEvent{Agent: a, StopReason: res.StopReason, Message: res.Message, Usage: res.Usage}); eerr != nil {
			return nil, eerr
		}
	}

	a.logger.Info("agent.invoke.done", "agent", a.name, "stop_reason", string(res.StopReason))

	return res, nil
}

// runTurns normalizes input and cycles model calls and tool batches until a
// turn ends without requesting tools.
func (a *Agent) runTurns(ctx context.Context, blocks []core.ContentBlock, emit emitter) (*Result, error) {
	if err := a.dispatchAndEmit(ctx, &BeforeInvocationEvent{Agent: a}, emit); err != nil {
		return nil, err
	}

	if len(blocks) > 0 {
		user := core.Message{Role: core.RoleUser, Content: blocks}
		if err := a.appendMessage(ctx, user, emit); err != nil {
			return nil, err
		}
	}

	var usage core.Usage

	for turn := 1; ; turn++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if a.maxTurns > 0 && turn > a.maxTurns {
			return nil, fmt.Errorf("%w: %d model calls", ErrMaxTurnsExceeded, a.maxTurns)
		}

		mt, err := a.callModel(ctx, turn, emit)
		if err != nil {
			return nil, err
		}
		usage.Add(mt.usage)

		if !mt.stopReason.IsToolUse() {
			if err := a.appendMessage(ctx, mt.message, emit); err != nil {
				return nil, err
			}
			return &Result{StopReason: mt.stopReason, Message: mt.message, Usage: usage}, nil
		}

		uses := mt.message.ToolUses()
		if len(uses) == 0 {
			return nil, aggregate.NewProtocolError("stop reason %s without tool-use blocks", mt.stopReason)
		}

		// The batch runs against the not-yet-appended assistant message;
		// both messages are appended together afterwards so history never
		// holds a tool use without its paired result.
		resultMsg, err := a.runTools(ctx, mt.message, uses, emit)
		if err != nil {
			return nil, err
		}
		if err := a.appendToolTurn(ctx, mt.message, resultMsg, emit); err != nil {
			return nil, err
		}
	}
}

// modelTurn bundles the outcome of one successful model call.
type modelTurn struct {
	message    core.Message
	stopReason core.StopReason
	usage      core.Usage
}

// callModel performs one model call and re-attempts it for as long as an
// after-model-call callback keeps requesting a retry on failure. Failed
// attempts never touch the history. Retries are unbounded here; the
// callback owns the policy.
func (a *Agent) callModel(ctx context.Context, turn int, emit emitter) (*modelTurn, error) {
	for attempt := 1; ; attempt++ {
		if err := a.dispatchAndEmit(ctx, &BeforeModelCallEvent{Agent: a}, emit); err != nil {
			return nil, err
		}

		mt, err := a.streamOnce(ctx, emit)

		after := &AfterModelCallEvent{Agent: a, Error: err}
		if err == nil {
			after.StopReason = mt.stopReason
			after.Message = &mt.message
		}
		if derr := a.dispatchAndEmit(ctx, after, emit); derr != nil {
			return nil, derr
		}

		if err == nil {
			return mt, nil
		}
		if !after.RetryModelCall {
			return nil, err
		}

		a.logger.Warn("agent.model.retry",
			"agent", a.name,
			"turn", turn,
			"attempt", attempt,
			"error", err.Error(),
		)
	}
}

// streamOnce sends the current conversation to the model and folds the
// resulting event stream into a message, forwarding each raw event and each
// completed block as it arrives.
func (a *Agent) streamOnce(ctx context.Context, emit emitter) (*modelTurn, error) {
	req, err := a.buildRequest()
	if err != nil {
		return nil, err
	}

	// A scoped cancel releases the adapter goroutine when this turn exits
	// early, e.g. on a hook error mid-stream.
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	events, errs := a.model.Stream(streamCtx, req)
	agg := aggregate.New()

	for ev := range events {
		if err := a.dispatchAndEmit(ctx, &ModelStreamEvent{Agent: a, Event: ev}, emit); err != nil {
			return nil, err
		}

		block, _, err := agg.Feed(ev)
		if err != nil {
			return nil, err
		}
		if block != nil {
			if err := a.dispatchAndEmit(ctx, &ContentBlockEvent{Agent: a, Block: block}, emit); err != nil {
				return nil, err
			}
		}
	}

	if err := <-errs; err != nil {
		a.logger.Error("agent.model.stream.error", "agent", a.name, "error", err.Error())
		return nil, err
	}

	msg, stopReason, err := agg.Message()
	if err != nil {
		return nil, err
	}

	return &modelTurn{message: msg, stopReason: stopReason, usage: agg.Usage()}, nil
}

// buildRequest assembles the model request from the current history, the
// rendered system prompt and the registered tool specs.
func (a *Agent) buildRequest() (model.Request, error) {
	system, err := util.RenderTemplate(a.systemPrompt, a.state.Snapshot())
	if err != nil {
		return model.Request{}, fmt.Errorf("render system prompt: %w", err)
	}

	return model.Request{
		Messages:   a.Messages(),
		System:     system,
		ToolSpecs:  a.tools.Specs(),
		ToolChoice: a.toolChoice,
	}, nil
}

// appendMessage commits msg to the history and dispatches message-added
// synchronously, so callbacks observe a history that already contains it.
func (a *Agent) appendMessage(ctx context.Context, msg core.Message, emit emitter) error {
	a.mu.Lock()
	a.messages = append(a.messages, msg)
	index := len(a.messages) - 1
	a.mu.Unlock()

	return a.dispatchAndEmit(ctx, &MessageAddedEvent{Agent: a, Message: msg, Index: index}, emit)
}

// appendToolTurn commits the assistant tool-use message and its tool-result
// message as one unit before dispatching either message-added event. A
// callback error can then fail the invocation but never leave a tool use in
// history without its paired result.
func (a *Agent) appendToolTurn(ctx context.Context, assistant, results core.Message, emit emitter) error {
	a.mu.Lock()
	a.messages = append(a.messages, assistant, results)
	index := len(a.messages) - 2
	a.mu.Unlock()

	if err := a.dispatchAndEmit(ctx, &MessageAddedEvent{Agent: a, Message: assistant, Index: index}, emit); err != nil {
		return err
	}
	return a.dispatchAndEmit(ctx, &MessageAddedEvent{Agent: a, Message: results, Index: index + 1}, emit)
}

// dispatchAndEmit runs the hook chain for ev, then forwards it to the Stream
// consumer. Forwarding happens after dispatch so observers see the final
// values of writable fields.
func (a *Agent) dispatchAndEmit(ctx context.Context, ev hook.Event, emit emitter) error {
	if err := a.hooks.Dispatch(ctx, ev); err != nil {
		return err
	}
	if emit != nil {
		return emit(ev)
	}
	return nil
}
