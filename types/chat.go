package types

// ChatRequest is the body of a chat endpoint call. Stream is set by the
// client, not the caller; use the Stream variants on the client instead.
type ChatRequest struct {
	Messages        []Message `json:"messages"`
	Temperature     float64   `json:"temperature,omitempty"`
	TopP            float64   `json:"top_p,omitempty"`
	PenaltyScore    float64   `json:"penalty_score,omitempty"`
	System          string    `json:"system,omitempty"`
	Stop            []string  `json:"stop,omitempty"`
	DisableSearch   bool      `json:"disable_search,omitempty"`
	EnableCitation  bool      `json:"enable_citation,omitempty"`
	MaxOutputTokens int       `json:"max_output_tokens,omitempty"`
	UserID          string    `json:"user_id,omitempty"`
	Stream          bool      `json:"stream,omitempty"`
}

// Usage 为一次调用的 token 统计。
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ModelResponse is the envelope shared by chat and completion endpoints,
// both for whole responses and for individual stream chunks.
type ModelResponse struct {
	ID               string `json:"id"`
	Object           string `json:"object"`
	Created          int64  `json:"created"`
	SentenceID       int    `json:"sentence_id,omitempty"`
	IsEnd            bool   `json:"is_end,omitempty"`
	IsTruncated      bool   `json:"is_truncated,omitempty"`
	Result           string `json:"result"`
	NeedClearHistory bool   `json:"need_clear_history,omitempty"`
	BanRound         int    `json:"ban_round,omitempty"`
	FinishReason     string `json:"finish_reason,omitempty"`
	Usage            Usage  `json:"usage"`

	// API errors arrive in-band with HTTP 200.
	ErrorCode int    `json:"error_code,omitempty"`
	ErrorMsg  string `json:"error_msg,omitempty"`
}

// Err returns the in-band API error, if any.
func (r *ModelResponse) Err() error {
	if r.ErrorCode != 0 {
		return &APIError{Code: r.ErrorCode, Message: r.ErrorMsg}
	}
	return nil
}

// Reset clears the envelope so it can be decoded into again.
func (r *ModelResponse) Reset() { *r = ModelResponse{} }

// StreamChunk is one SSE event of a streaming call. Err is non-nil exactly
// once, on the terminating chunk of a failed stream.
type StreamChunk struct {
	Response ModelResponse
	Err      error
}
