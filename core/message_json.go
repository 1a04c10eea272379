package core

import (
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Content blocks serialize as tagged unions discriminated by a "type" field
// so messages survive round-trips through session stores. Binary payloads
// encode as base64 per standard JSON []byte handling.

type textBlockWire struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type toolUseBlockWire struct {
	Type      string         `json:"type"`
	ToolUseID string         `json:"toolUseId"`
	Name      string         `json:"name"`
	Input     map[string]any `json:"input"`
}

type toolResultBlockWire struct {
	Type      string            `json:"type"`
	ToolUseID string            `json:"toolUseId"`
	Status    ToolResultStatus  `json:"status"`
	Content   []json.RawMessage `json:"content"`
}

type toolResultTextWire struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type toolResultJSONWire struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}

type reasoningBlockWire struct {
	Type            string `json:"type"`
	Text            string `json:"text,omitempty"`
	Signature       string `json:"signature,omitempty"`
	RedactedContent []byte `json:"redactedContent,omitempty"`
}

type cachePointBlockWire struct {
	Type      string `json:"type"`
	CacheType string `json:"cacheType"`
}

type imageBlockWire struct {
	Type   string `json:"type"`
	Format string `json:"format"`
	Source []byte `json:"source"`
}

type documentBlockWire struct {
	Type   string `json:"type"`
	Name   string `json:"name"`
	Format string `json:"format"`
	Source []byte `json:"source"`
}

type videoBlockWire struct {
	Type   string `json:"type"`
	Format string `json:"format"`
	Source []byte `json:"source"`
}

type guardContentBlockWire struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// MarshalJSON implements json.Marshaler for Message.
func (m Message) MarshalJSON() ([]byte, error) {
	out, err := sjson.SetBytes([]byte(`{"role":"","content":[]}`), "role", string(m.Role))
	if err != nil {
		return nil, err
	}
	for _, b := range m.Content {
		raw, err := json.Marshal(b)
		if err != nil {
			return nil, err
		}
		out, err = sjson.SetRawBytes(out, "content.-1", raw)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// UnmarshalJSON implements json.Unmarshaler for Message.
func (m *Message) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return errors.New("invalid message JSON")
	}
	root := gjson.ParseBytes(data)
	m.Role = Role(root.Get("role").String())
	m.Content = nil
	var err error
	root.Get("content").ForEach(func(_, item gjson.Result) bool {
		var b ContentBlock
		if b, err = UnmarshalContentBlock([]byte(item.Raw)); err != nil {
			return false
		}
		m.Content = append(m.Content, b)
		return true
	})
	return err
}

// UnmarshalContentBlock decodes a single tagged content block. Unknown type
// discriminators are an error.
func UnmarshalContentBlock(data []byte) (ContentBlock, error) {
	switch kind := gjson.GetBytes(data, "type").String(); kind {
	case "text":
		var w textBlockWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		return TextBlock{Text: w.Text}, nil
	case "toolUse":
		var w toolUseBlockWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		return ToolUseBlock{ToolUseID: w.ToolUseID, Name: w.Name, Input: w.Input}, nil
	case "toolResult":
		var w toolResultBlockWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		block := ToolResultBlock{ToolUseID: w.ToolUseID, Status: w.Status}
		for _, raw := range w.Content {
			item, err := unmarshalToolResultContent(raw)
			if err != nil {
				return nil, err
			}
			block.Content = append(block.Content, item)
		}
		return block, nil
	case "reasoning":
		var w reasoningBlockWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		return ReasoningBlock{Text: w.Text, Signature: w.Signature, RedactedContent: w.RedactedContent}, nil
	case "cachePoint":
		var w cachePointBlockWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		return CachePointBlock{CacheType: w.CacheType}, nil
	case "image":
		var w imageBlockWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		return ImageBlock{Format: w.Format, Source: w.Source}, nil
	case "document":
		var w documentBlockWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		return DocumentBlock{Name: w.Name, Format: w.Format, Source: w.Source}, nil
	case "video":
		var w videoBlockWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		return VideoBlock{Format: w.Format, Source: w.Source}, nil
	case "guardContent":
		var w guardContentBlockWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		return GuardContentBlock{Text: w.Text}, nil
	default:
		return nil, fmt.Errorf("unknown content block type %q", kind)
	}
}

func unmarshalToolResultContent(data []byte) (ToolResultContent, error) {
	switch kind := gjson.GetBytes(data, "type").String(); kind {
	case "text":
		var w toolResultTextWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		return ToolResultText{Text: w.Text}, nil
	case "json":
		var w toolResultJSONWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		return ToolResultJSON{Value: w.Value}, nil
	default:
		return nil, fmt.Errorf("unknown tool result content type %q", kind)
	}
}

// MarshalJSON implements json.Marshaler for TextBlock.
func (b TextBlock) MarshalJSON() ([]byte, error) {
	return json.Marshal(textBlockWire{Type: "text", Text: b.Text})
}

// MarshalJSON implements json.Marshaler for ToolUseBlock.
func (b ToolUseBlock) MarshalJSON() ([]byte, error) {
	return json.Marshal(toolUseBlockWire{Type: "toolUse", ToolUseID: b.ToolUseID, Name: b.Name, Input: b.Input})
}

// MarshalJSON implements json.Marshaler for ToolResultBlock.
func (b ToolResultBlock) MarshalJSON() ([]byte, error) {
	w := toolResultBlockWire{Type: "toolResult", ToolUseID: b.ToolUseID, Status: b.Status}
	for _, item := range b.Content {
		raw, err := json.Marshal(item)
		if err != nil {
			return nil, err
		}
		w.Content = append(w.Content, raw)
	}
	return json.Marshal(w)
}

// MarshalJSON implements json.Marshaler for ToolResultText.
func (t ToolResultText) MarshalJSON() ([]byte, error) {
	return json.Marshal(toolResultTextWire{Type: "text", Text: t.Text})
}

// MarshalJSON implements json.Marshaler for ToolResultJSON.
func (t ToolResultJSON) MarshalJSON() ([]byte, error) {
	return json.Marshal(toolResultJSONWire{Type: "json", Value: t.Value})
}

// MarshalJSON implements json.Marshaler for ReasoningBlock.
func (b ReasoningBlock) MarshalJSON() ([]byte, error) {
	return json.Marshal(reasoningBlockWire{Type: "reasoning", Text: b.Text, Signature: b.Signature, RedactedContent: b.RedactedContent})
}

// MarshalJSON implements json.Marshaler for CachePointBlock.
func (b CachePointBlock) MarshalJSON() ([]byte, error) {
	ct := b.CacheType
	if ct == "" {
		ct = DefaultCacheType
	}
	return json.Marshal(cachePointBlockWire{Type: "cachePoint", CacheType: ct})
}

// MarshalJSON implements json.Marshaler for ImageBlock.
func (b ImageBlock) MarshalJSON() ([]byte, error) {
	return json.Marshal(imageBlockWire{Type: "image", Format: b.Format, Source: b.Source})
}

// MarshalJSON implements json.Marshaler for DocumentBlock.
func (b DocumentBlock) MarshalJSON() ([]byte, error) {
	return json.Marshal(documentBlockWire{Type: "document", Name: b.Name, Format: b.Format, Source: b.Source})
}

// MarshalJSON implements json.Marshaler for VideoBlock.
func (b VideoBlock) MarshalJSON() ([]byte, error) {
	return json.Marshal(videoBlockWire{Type: "video", Format: b.Format, Source: b.Source})
}

// MarshalJSON implements json.Marshaler for GuardContentBlock.
func (b GuardContentBlock) MarshalJSON() ([]byte, error) {
	return json.Marshal(guardContentBlockWire{Type: "guardContent", Text: b.Text})
}
