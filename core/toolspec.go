package core

// ToolSpec describes a tool to the model: its name, what it does and the
// JSON schema of its input. The engine passes specs through to providers
// verbatim; it never validates inputs against them.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"input_schema"`
}

// ToolChoiceMode selects how the model may use the offered tools.
type ToolChoiceMode string

// Tool choice modes.
const (
	ToolChoiceModeAuto ToolChoiceMode = "auto" // Model decides freely
	ToolChoiceModeAny  ToolChoiceMode = "any"  // Model must use some tool
	ToolChoiceModeTool ToolChoiceMode = "tool" // Model must use the named tool
)

// ToolChoice constrains the model's tool selection for a request.
type ToolChoice struct {
	Mode ToolChoiceMode `json:"mode"`
	Name string         `json:"name,omitempty"` // Required when Mode is ToolChoiceModeTool
}

// NewToolChoiceAuto lets the model decide whether to use tools.
func NewToolChoiceAuto() *ToolChoice { return &ToolChoice{Mode: ToolChoiceModeAuto} }

// NewToolChoiceAny forces the model to use at least one tool.
func NewToolChoiceAny() *ToolChoice { return &ToolChoice{Mode: ToolChoiceModeAny} }

// NewToolChoiceTool forces the model to use the named tool.
func NewToolChoiceTool(name string) *ToolChoice {
	return &ToolChoice{Mode: ToolChoiceModeTool, Name: name}
}
