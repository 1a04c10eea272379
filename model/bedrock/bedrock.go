// Package bedrock provides a model adapter for the AWS Bedrock Converse API.
// Converse already speaks a block-oriented streaming protocol, so events map
// onto the canonical stream almost one to one.
package bedrock

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/hupe1980/agentcore/core"
	"github.com/hupe1980/agentcore/model"
)

// Options configures the Bedrock model adapter.
type Options struct {
	ModelID     string
	Temperature float32
	MaxTokens   int32
}

// Model wraps the Bedrock Converse API behind the model.Model interface.
type Model struct {
	client *bedrockruntime.Client
	opts   Options
}

// NewModel creates a Bedrock model from an AWS config.
func NewModel(cfg aws.Config, optFns ...func(o *Options)) *Model {
	return NewModelFromClient(bedrockruntime.NewFromConfig(cfg), optFns...)
}

// NewModelFromClient creates a Bedrock model from an existing runtime client.
func NewModelFromClient(client *bedrockruntime.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		ModelID:     "anthropic.claude-3-5-sonnet-20241022-v2:0",
		Temperature: 0.7,
		MaxTokens:   4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Stream sends the conversation to ConverseStream and relays events on the
// returned channel.
func (m *Model) Stream(ctx context.Context, req model.Request) (<-chan core.StreamEvent, <-chan error) {
	out := make(chan core.StreamEvent, 32)
	errCh := make(chan error, 1)

	input, err := m.buildInput(req)
	if err != nil {
		close(out)
		errCh <- err
		close(errCh)
		return out, errCh
	}

	go func() {
		defer close(out)
		defer close(errCh)

		resp, err := m.client.ConverseStream(ctx, input)
		if err != nil {
			errCh <- mapStreamError(err)
			return
		}
		stream := resp.GetStream()
		defer stream.Close()

		for event := range stream.Events() {
			events, err := decodeEvent(event)
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
		Provider: "bedrock",
		Model:    m.opts.ModelID,
	}
}

func (m *Model) buildInput(req model.Request) (*bedrockruntime.ConverseStreamInput, error) {
	messages, err := encodeMessages(req.Messages)
	if err != nil {
		return nil, err
	}

	input := &bedrockruntime.ConverseStreamInput{
		ModelId:  aws.String(m.opts.ModelID),
		Messages: messages,
		InferenceConfig: &brtypes.InferenceConfiguration{
			MaxTokens:   aws.Int32(m.opts.MaxTokens),
			Temperature: aws.Float32(m.opts.Temperature),
		},
	}

	if req.System != "" {
		input.System = []brtypes.SystemContentBlock{
			&brtypes.SystemContentBlockMemberText{Value: req.System},
		}
	}

	if len(req.ToolSpecs) > 0 {
		toolConfig, err := encodeToolConfig(req.ToolSpecs, req.ToolChoice)
		if err != nil {
			return nil, err
		}
		input.ToolConfig = toolConfig
	}

	return input, nil
}

func encodeMessages(messages []core.Message) ([]brtypes.Message, error) {
	out := make([]brtypes.Message, 0, len(messages))

	for _, msg := range messages {
		blocks, err := encodeBlocks(msg.Content)
		if err != nil {
			return nil, err
		}
		if len(blocks) == 0 {
			continue
		}

		var role brtypes.ConversationRole
		switch msg.Role {
		case core.RoleUser:
			role = brtypes.ConversationRoleUser
		case core.RoleAssistant:
			role = brtypes.ConversationRoleAssistant
		default:
			return nil, fmt.Errorf("bedrock: unsupported message role %q", msg.Role)
		}

		out = append(out, brtypes.Message{Role: role, Content: blocks})
	}

	return out, nil
}

func encodeBlocks(blocks []core.ContentBlock) ([]brtypes.ContentBlock, error) {
	out := make([]brtypes.ContentBlock, 0, len(blocks))

	for _, block := range blocks {
		switch b := block.(type) {
		case core.TextBlock:
			if b.Text == "" {
				continue
			}
			out = append(out, &brtypes.ContentBlockMemberText{Value: b.Text})
		case core.ToolUseBlock:
			out = append(out, &brtypes.ContentBlockMemberToolUse{Value: brtypes.ToolUseBlock{
				ToolUseId: aws.String(b.ToolUseID),
				Name:      aws.String(b.Name),
				Input:     document.NewLazyDocument(b.Input),
			}})
		case core.ToolResultBlock:
			out = append(out, &brtypes.ContentBlockMemberToolResult{Value: encodeToolResult(b)})
		case core.ReasoningBlock:
			reasoning, ok := encodeReasoning(b)
			if !ok {
				continue
			}
			out = append(out, reasoning)
		case core.CachePointBlock:
			out = append(out, &brtypes.ContentBlockMemberCachePoint{
				Value: brtypes.CachePointBlock{Type: brtypes.CachePointTypeDefault},
			})
		case core.ImageBlock:
			format, err := imageFormat(b.Format)
			if err != nil {
				return nil, err
			}
			out = append(out, &brtypes.ContentBlockMemberImage{Value: brtypes.ImageBlock{
				Format: format,
				Source: &brtypes.ImageSourceMemberBytes{Value: b.Source},
			}})
		case core.DocumentBlock:
			if b.Name == "" {
				return nil, fmt.Errorf("bedrock: document block requires a name")
			}
			out = append(out, &brtypes.ContentBlockMemberDocument{Value: brtypes.DocumentBlock{
				Name:   aws.String(b.Name),
				Format: brtypes.DocumentFormat(b.Format),
				Source: &brtypes.DocumentSourceMemberBytes{Value: b.Source},
			}})
		case core.VideoBlock:
			out = append(out, &brtypes.ContentBlockMemberVideo{Value: brtypes.VideoBlock{
				Format: brtypes.VideoFormat(b.Format),
				Source: &brtypes.VideoSourceMemberBytes{Value: b.Source},
			}})
		case core.GuardContentBlock:
			out = append(out, &brtypes.ContentBlockMemberGuardContent{
				Value: &brtypes.GuardrailConverseContentBlockMemberText{
					Value: brtypes.GuardrailConverseTextBlock{Text: aws.String(b.Text)},
				},
			})
		default:
			return nil, fmt.Errorf("bedrock: unsupported content block %T", block)
		}
	}

	return out, nil
}

func encodeToolResult(b core.ToolResultBlock) brtypes.ToolResultBlock {
	tr := brtypes.ToolResultBlock{
		ToolUseId: aws.String(b.ToolUseID),
	}
	switch b.Status {
	case core.ToolResultError:
		tr.Status = brtypes.ToolResultStatusError
	default:
		tr.Status = brtypes.ToolResultStatusSuccess
	}
	for _, c := range b.Content {
		switch v := c.(type) {
		case core.ToolResultText:
			tr.Content = append(tr.Content, &brtypes.ToolResultContentBlockMemberText{Value: v.Text})
		case core.ToolResultJSON:
			tr.Content = append(tr.Content, &brtypes.ToolResultContentBlockMemberJson{
				Value: document.NewLazyDocument(v.Value),
			})
		}
	}
	return tr
}

func encodeReasoning(b core.ReasoningBlock) (brtypes.ContentBlock, bool) {
	if len(b.RedactedContent) > 0 {
		return &brtypes.ContentBlockMemberReasoningContent{
			Value: &brtypes.ReasoningContentBlockMemberRedactedContent{Value: b.RedactedContent},
		}, true
	}
	if b.Text == "" {
		return nil, false
	}
	text := brtypes.ReasoningTextBlock{Text: aws.String(b.Text)}
	if b.Signature != "" {
		text.Signature = aws.String(b.Signature)
	}
	return &brtypes.ContentBlockMemberReasoningContent{
		Value: &brtypes.ReasoningContentBlockMemberReasoningText{Value: text},
	}, true
}

func imageFormat(format string) (brtypes.ImageFormat, error) {
	switch format {
	case "png":
		return brtypes.ImageFormatPng, nil
	case "jpeg", "jpg":
		return brtypes.ImageFormatJpeg, nil
	case "gif":
		return brtypes.ImageFormatGif, nil
	case "webp":
		return brtypes.ImageFormatWebp, nil
	default:
		return "", fmt.Errorf("bedrock: unsupported image format %q", format)
	}
}

func encodeToolConfig(specs []core.ToolSpec, choice *core.ToolChoice) (*brtypes.ToolConfiguration, error) {
	tools := make([]brtypes.Tool, 0, len(specs))
	for _, spec := range specs {
		ts := brtypes.ToolSpecification{
			Name: aws.String(spec.Name),
			InputSchema: &brtypes.ToolInputSchemaMemberJson{
				Value: document.NewLazyDocument(spec.InputSchema),
			},
		}
		// Description is optional but must be non-empty when present.
		if spec.Description != "" {
			ts.Description = aws.String(spec.Description)
		}
		tools = append(tools, &brtypes.ToolMemberToolSpec{Value: ts})
	}

	cfg := &brtypes.ToolConfiguration{Tools: tools}
	if choice == nil {
		return cfg, nil
	}

	switch choice.Mode {
	case core.ToolChoiceModeAuto:
		cfg.ToolChoice = &brtypes.ToolChoiceMemberAuto{Value: brtypes.AutoToolChoice{}}
	case core.ToolChoiceModeAny:
		cfg.ToolChoice = &brtypes.ToolChoiceMemberAny{Value: brtypes.AnyToolChoice{}}
	case core.ToolChoiceModeTool:
		if choice.Name == "" {
			return nil, fmt.Errorf("bedrock: tool choice mode %q requires a tool name", choice.Mode)
		}
		if !hasSpec(specs, choice.Name) {
			return nil, fmt.Errorf("bedrock: tool choice name %q does not match any tool", choice.Name)
		}
		cfg.ToolChoice = &brtypes.ToolChoiceMemberTool{
			Value: brtypes.SpecificToolChoice{Name: aws.String(choice.Name)},
		}
	default:
		return nil, fmt.Errorf("bedrock: unsupported tool choice mode %q", choice.Mode)
	}

	return cfg, nil
}

func hasSpec(specs []core.ToolSpec, name string) bool {
	for _, spec := range specs {
		if spec.Name == name {
			return true
		}
	}
	return false
}
