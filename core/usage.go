package core

// Usage is the token accounting for a single model request.
type Usage struct {
	InputTokens           int `json:"input_tokens"`
	OutputTokens          int `json:"output_tokens"`
	TotalTokens           int `json:"total_tokens"`
	CacheReadInputTokens  int `json:"cache_read_input_tokens,omitempty"`
	CacheWriteInputTokens int `json:"cache_write_input_tokens,omitempty"`
}

// Add accumulates other into u. Used to total usage across the turns of one
// invocation.
func (u *Usage) Add(other Usage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.TotalTokens += other.TotalTokens
	u.CacheReadInputTokens += other.CacheReadInputTokens
	u.CacheWriteInputTokens += other.CacheWriteInputTokens
}

// Metrics carries request timing reported by the provider.
type Metrics struct {
	LatencyMs int64 `json:"latency_ms"`
}
