// Package openai provides a model adapter for the OpenAI Chat Completions
// API (streaming + function/tool calling). Chat Completions streams flat
// per-chunk deltas, so the adapter synthesizes the block-oriented event
// protocol from them.
package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/openai/openai-go"

	"github.com/hupe1980/agentcore/core"
	"github.com/hupe1980/agentcore/model"
)

// Options configure the OpenAI model adapter.
// Fields mirror a subset of Chat Completion parameters intentionally kept
// minimal; extend via functional options without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Model wraps the OpenAI Chat Completions API behind the model.Model interface.
type Model struct {
	client *openai.Client
	opts   Options
}

// NewModel creates a new OpenAI model using the official client.
func NewModel(optFns ...func(o *Options)) *Model {
	client := openai.NewClient()
	return NewModelFromClient(&client, optFns...)
}

// NewModelFromClient creates a new OpenAI model from an existing client.
func NewModelFromClient(client *openai.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Stream sends the conversation to the Chat Completions API and relays the
// synthesized canonical events on the returned channel.
func (m *Model) Stream(ctx context.Context, req model.Request) (<-chan core.StreamEvent, <-chan error) {
	out := make(chan core.StreamEvent, 32)
	errCh := make(chan error, 1)

	params, err := m.buildParams(req)
	if err != nil {
		close(out)
		errCh <- err
		close(errCh)
		return out, errCh
	}

	go func() {
		defer close(out)
		defer close(errCh)

		stream := m.client.Chat.Completions.NewStreaming(ctx, params)
		defer stream.Close()

		emit := func(events []core.StreamEvent) error {
			for _, ev := range events {
				select {
				case out <- ev:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		}

		syn := newSynthesizer()
		for stream.Next() {
			ck := stream.Current()
			if ck.Usage.TotalTokens > 0 {
				syn.recordUsage(
					int(ck.Usage.PromptTokens),
					int(ck.Usage.CompletionTokens),
					int(ck.Usage.TotalTokens),
					int(ck.Usage.PromptTokensDetails.CachedTokens),
				)
			}
			if len(ck.Choices) == 0 {
				continue
			}
			ch := ck.Choices[0]

			batch, err := syn.onText(ch.Delta.Content)
			if err != nil {
				errCh <- err
				return
			}
			for _, tc := range ch.Delta.ToolCalls {
				events, err := syn.onToolCall(tc.Index, tc.ID, tc.Function.Name, tc.Function.Arguments)
				if err != nil {
					errCh <- err
					return
				}
				batch = append(batch, events...)
			}
			if ch.FinishReason != "" {
				events, err := syn.onFinish(ch.FinishReason)
				if err != nil {
					errCh <- err
					return
				}
				batch = append(batch, events...)
			}
			if err := emit(batch); err != nil {
				errCh <- err
				return
			}
		}
		if err := stream.Err(); err != nil {
			errCh <- mapStreamError(err)
			return
		}

		events, err := syn.finalize()
		if err != nil {
			errCh <- err
			return
		}
		if err := emit(events); err != nil {
			errCh <- err
		}
	}()

	return out, errCh
}

// Info returns metadata describing this model.
func (m *Model) Info() model.Info {
	return model.Info{
		Provider: "openai",
		Model:    m.opts.Model,
	}
}

// buildParams assembles the OpenAI request parameters including tool definitions.
func (m *Model) buildParams(req model.Request) (openai.ChatCompletionNewParams, error) {
	messages, err := encodeMessages(req)
	if err != nil {
		return openai.ChatCompletionNewParams{}, err
	}

	params := openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               m.opts.Model,
		Temperature:         openai.Float(m.opts.Temperature),
		MaxCompletionTokens: openai.Int(m.opts.MaxCompletionTokens),
		StreamOptions:       openai.ChatCompletionStreamOptionsParam{IncludeUsage: openai.Bool(true)},
	}

	if len(req.ToolSpecs) == 0 {
		return params, nil
	}

	specs := req.ToolSpecs
	if req.ToolChoice != nil {
		switch req.ToolChoice.Mode {
		case core.ToolChoiceModeAuto:
		case core.ToolChoiceModeAny:
			params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{OfAuto: openai.String("required")}
		case core.ToolChoiceModeTool:
			// Chat Completions forces a specific tool by offering only that
			// tool and requiring a call.
			named := filterSpecs(specs, req.ToolChoice.Name)
			if len(named) == 0 {
				return openai.ChatCompletionNewParams{}, fmt.Errorf("openai: tool choice name %q does not match any tool", req.ToolChoice.Name)
			}
			specs = named
			params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{OfAuto: openai.String("required")}
		default:
			return openai.ChatCompletionNewParams{}, fmt.Errorf("openai: unsupported tool choice mode %q", req.ToolChoice.Mode)
		}
	}

	tools := make([]openai.ChatCompletionToolParam, len(specs))
	for i, spec := range specs {
		tools[i] = openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        spec.Name,
				Description: openai.String(spec.Description),
				Parameters:  spec.InputSchema,
			},
		}
	}
	params.Tools = tools

	return params, nil
}

func filterSpecs(specs []core.ToolSpec, name string) []core.ToolSpec {
	var out []core.ToolSpec
	for _, spec := range specs {
		if spec.Name == name {
			out = append(out, spec)
		}
	}
	return out
}

// encodeMessages converts canonical messages into OpenAI chat messages.
// Tool results become tool messages so they follow the assistant turn that
// issued the calls, matching the Chat Completions ordering rules.
func encodeMessages(req model.Request) ([]openai.ChatCompletionMessageParamUnion, error) {
	var messages []openai.ChatCompletionMessageParamUnion

	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}

	for _, msg := range req.Messages {
		switch msg.Role {
		case core.RoleUser:
			toolMsgs, text := encodeUserContent(msg.Content)
			messages = append(messages, toolMsgs...)
			if text != "" {
				messages = append(messages, openai.UserMessage(text))
			}
		case core.RoleAssistant:
			toolCalls, err := encodeToolCalls(msg.Content)
			if err != nil {
				return nil, err
			}
			text := msg.Text()
			if len(toolCalls) == 0 {
				if text != "" {
					messages = append(messages, openai.AssistantMessage(text))
				}
				continue
			}
			assistant := &openai.ChatCompletionAssistantMessageParam{ToolCalls: toolCalls}
			if text != "" {
				assistant.Content.OfString = openai.String(text)
			}
			messages = append(messages, openai.ChatCompletionMessageParamUnion{OfAssistant: assistant})
		default:
			return nil, fmt.Errorf("openai: unsupported message role %q", msg.Role)
		}
	}

	return messages, nil
}

// encodeUserContent splits a user message into tool messages and joined text.
func encodeUserContent(blocks []core.ContentBlock) ([]openai.ChatCompletionMessageParamUnion, string) {
	var toolMsgs []openai.ChatCompletionMessageParamUnion
	var textBuilder strings.Builder

	for _, block := range blocks {
		switch b := block.(type) {
		case core.TextBlock:
			textBuilder.WriteString(b.Text)
		case core.ToolResultBlock:
			toolMsgs = append(toolMsgs, openai.ToolMessage(flattenToolResult(b), b.ToolUseID))
		case core.GuardContentBlock:
			textBuilder.WriteString(b.Text)
		}
	}

	return toolMsgs, textBuilder.String()
}

func encodeToolCalls(blocks []core.ContentBlock) ([]openai.ChatCompletionMessageToolCallParam, error) {
	var toolCalls []openai.ChatCompletionMessageToolCallParam
	for _, block := range blocks {
		use, ok := block.(core.ToolUseBlock)
		if !ok {
			continue
		}
		args, err := json.Marshal(use.Input)
		if err != nil {
			return nil, fmt.Errorf("openai: marshal tool input for %s: %w", use.Name, err)
		}
		toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallParam{
			ID:   use.ToolUseID,
			Type: "function",
			Function: openai.ChatCompletionMessageToolCallFunctionParam{
				Name:      use.Name,
				Arguments: string(args),
			},
		})
	}
	return toolCalls, nil
}

// flattenToolResult renders tool result content as the single string shape
// tool messages accept.
func flattenToolResult(b core.ToolResultBlock) string {
	var s strings.Builder
	if b.Status == core.ToolResultError {
		s.WriteString("Error: ")
	}
	for _, c := range b.Content {
		switch v := c.(type) {
		case core.ToolResultText:
			s.WriteString(v.Text)
		case core.ToolResultJSON:
			if data, err := json.Marshal(v.Value); err == nil {
				s.Write(data)
			}
		}
	}
	return s.String()
}
