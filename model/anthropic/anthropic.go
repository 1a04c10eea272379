// Package anthropic provides a model adapter for the Anthropic Claude
// Messages API.
package anthropic

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"
	"github.com/goccy/go-json"

	"github.com/hupe1980/agentcore/core"
	"github.com/hupe1980/agentcore/model"
)

// Options configures the Anthropic model adapter.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string

	// ThinkingBudget enables extended thinking with the given token budget
	// when positive. Anthropic requires at least 1024 tokens.
	ThinkingBudget int64
}

// Model streams Claude responses through the canonical event protocol.
type Model struct {
	client *anthropic.Client
	opts   Options
}

// NewModel creates an Anthropic model using the official client.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := anthropic.NewClient(clientOpts...)

	return &Model{
		client: &client,
		opts:   opts,
	}
}

// NewModelFromClient creates an Anthropic model from an existing client.
func NewModelFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Model{
		client: client,
		opts:   opts,
	}
}

// Stream sends the conversation to the Messages API and relays streaming
// events on the returned channel.
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

		stream := m.client.Messages.NewStreaming(ctx, *params)
		defer stream.Close()

		dec := newStreamDecoder()
		for stream.Next() {
			events, err := dec.decode(stream.Current())
			if err != nil {
				errCh <- err
				return
			}
			for _, ev := range events {
				select {
				case out <- ev:
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				}
			}
		}
		if err := stream.Err(); err != nil {
			errCh <- mapStreamError(err)
			return
		}
	}()

	return out, errCh
}

// Info returns metadata describing this model.
func (m *Model) Info() model.Info {
	return model.Info{
		Provider: "anthropic",
		Model:    string(m.opts.Model),
	}
}

func (m *Model) buildParams(req model.Request) (*anthropic.MessageNewParams, error) {
	messages, err := encodeMessages(req.Messages)
	if err != nil {
		return nil, err
	}

	params := &anthropic.MessageNewParams{
		Model:       m.opts.Model,
		Messages:    messages,
		MaxTokens:   m.opts.MaxTokens,
		Temperature: anthropic.Float(m.opts.Temperature),
	}

	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	if len(req.ToolSpecs) > 0 {
		params.Tools = encodeTools(req.ToolSpecs)
	}

	if req.ToolChoice != nil {
		tc, err := encodeToolChoice(req.ToolChoice)
		if err != nil {
			return nil, err
		}
		params.ToolChoice = tc
	}

	if m.opts.ThinkingBudget > 0 {
		params.Thinking = anthropic.ThinkingConfigParamOfEnabled(m.opts.ThinkingBudget)
	}

	return params, nil
}

// encodeMessages converts canonical messages to Anthropic message params.
func encodeMessages(messages []core.Message) ([]anthropic.MessageParam, error) {
	out := make([]anthropic.MessageParam, 0, len(messages))

	for _, msg := range messages {
		blocks, err := encodeBlocks(msg.Content)
		if err != nil {
			return nil, err
		}
		if len(blocks) == 0 {
			continue
		}

		switch msg.Role {
		case core.RoleUser:
			out = append(out, anthropic.NewUserMessage(blocks...))
		case core.RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		default:
			return nil, fmt.Errorf("anthropic: unsupported message role %q", msg.Role)
		}
	}

	return out, nil
}

func encodeBlocks(blocks []core.ContentBlock) ([]anthropic.ContentBlockParamUnion, error) {
	out := make([]anthropic.ContentBlockParamUnion, 0, len(blocks))

	for _, block := range blocks {
		switch b := block.(type) {
		case core.TextBlock:
			// Anthropic rejects empty text blocks.
			if b.Text == "" {
				continue
			}
			out = append(out, anthropic.NewTextBlock(b.Text))
		case core.ToolUseBlock:
			out = append(out, anthropic.NewToolUseBlock(b.ToolUseID, b.Input, b.Name))
		case core.ToolResultBlock:
			out = append(out, anthropic.NewToolResultBlock(
				b.ToolUseID,
				flattenToolResult(b.Content),
				b.Status == core.ToolResultError,
			))
		case core.ReasoningBlock:
			if len(b.RedactedContent) > 0 {
				out = append(out, anthropic.NewRedactedThinkingBlock(string(b.RedactedContent)))
				continue
			}
			if b.Text == "" {
				continue
			}
			out = append(out, anthropic.NewThinkingBlock(b.Signature, b.Text))
		case core.CachePointBlock:
			// Cache points attach to the preceding block.
			if len(out) > 0 {
				applyCacheControl(&out[len(out)-1])
			}
		case core.ImageBlock:
			out = append(out, anthropic.NewImageBlockBase64(
				"image/"+b.Format,
				base64.StdEncoding.EncodeToString(b.Source),
			))
		case core.DocumentBlock:
			doc, ok := encodeDocument(b)
			if !ok {
				continue
			}
			out = append(out, doc)
		case core.GuardContentBlock:
			// Anthropic has no guardrail block; send the text as-is.
			if b.Text != "" {
				out = append(out, anthropic.NewTextBlock(b.Text))
			}
		case core.VideoBlock:
			// The Messages API does not accept video input.
			continue
		default:
			return nil, fmt.Errorf("anthropic: unsupported content block %T", block)
		}
	}

	return out, nil
}

func encodeDocument(b core.DocumentBlock) (anthropic.ContentBlockParamUnion, bool) {
	switch b.Format {
	case "pdf":
		return anthropic.NewDocumentBlock(anthropic.Base64PDFSourceParam{
			Data: base64.StdEncoding.EncodeToString(b.Source),
		}), true
	case "txt", "md":
		return anthropic.NewDocumentBlock(anthropic.PlainTextSourceParam{
			Data: string(b.Source),
		}), true
	default:
		return anthropic.ContentBlockParamUnion{}, false
	}
}

// flattenToolResult renders tool result content as the single string shape
// the Messages API accepts for tool_result blocks.
func flattenToolResult(content []core.ToolResultContent) string {
	var s string
	for _, c := range content {
		switch v := c.(type) {
		case core.ToolResultText:
			s += v.Text
		case core.ToolResultJSON:
			if data, err := json.Marshal(v.Value); err == nil {
				s += string(data)
			}
		}
	}
	return s
}

func applyCacheControl(u *anthropic.ContentBlockParamUnion) {
	cc := anthropic.NewCacheControlEphemeralParam()
	switch {
	case u.OfText != nil:
		u.OfText.CacheControl = cc
	case u.OfToolUse != nil:
		u.OfToolUse.CacheControl = cc
	case u.OfToolResult != nil:
		u.OfToolResult.CacheControl = cc
	case u.OfImage != nil:
		u.OfImage.CacheControl = cc
	case u.OfDocument != nil:
		u.OfDocument.CacheControl = cc
	}
}

func encodeTools(specs []core.ToolSpec) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, len(specs))

	for i, spec := range specs {
		inputSchema := anthropic.ToolInputSchemaParam{
			Type: constant.Object("object"),
		}
		if spec.InputSchema != nil {
			if properties, ok := spec.InputSchema["properties"]; ok {
				inputSchema.Properties = properties
			}
			inputSchema.Required = requiredNames(spec.InputSchema)
		}

		u := anthropic.ToolUnionParamOfTool(inputSchema, spec.Name)
		if u.OfTool != nil && spec.Description != "" {
			u.OfTool.Description = anthropic.String(spec.Description)
		}
		tools[i] = u
	}

	return tools
}

func requiredNames(schema map[string]any) []string {
	switch req := schema["required"].(type) {
	case []string:
		return req
	case []any:
		names := make([]string, 0, len(req))
		for _, r := range req {
			if s, ok := r.(string); ok {
				names = append(names, s)
			}
		}
		return names
	default:
		return nil
	}
}

func encodeToolChoice(choice *core.ToolChoice) (anthropic.ToolChoiceUnionParam, error) {
	switch choice.Mode {
	case core.ToolChoiceModeAuto:
		return anthropic.ToolChoiceUnionParam{OfAuto: &anthropic.ToolChoiceAutoParam{}}, nil
	case core.ToolChoiceModeAny:
		return anthropic.ToolChoiceUnionParam{OfAny: &anthropic.ToolChoiceAnyParam{}}, nil
	case core.ToolChoiceModeTool:
		if choice.Name == "" {
			return anthropic.ToolChoiceUnionParam{}, fmt.Errorf("anthropic: tool choice mode %q requires a tool name", choice.Mode)
		}
		return anthropic.ToolChoiceParamOfTool(choice.Name), nil
	default:
		return anthropic.ToolChoiceUnionParam{}, fmt.Errorf("anthropic: unsupported tool choice mode %q", choice.Mode)
	}
}
