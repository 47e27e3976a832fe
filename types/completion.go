package types

// CompletionRequest is the body of a text completion call.
type CompletionRequest struct {
	Prompt          string   `json:"prompt"`
	Temperature     float64  `json:"temperature,omitempty"`
	TopK            int      `json:"top_k,omitempty"`
	TopP            float64  `json:"top_p,omitempty"`
	PenaltyScore    float64  `json:"penalty_score,omitempty"`
	Stop            []string `json:"stop,omitempty"`
	MaxOutputTokens int      `json:"max_output_tokens,omitempty"`
	UserID          string   `json:"user_id,omitempty"`
	Stream          bool     `json:"stream,omitempty"`
}
