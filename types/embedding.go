package types

// EmbeddingRequest is the body of an embedding call. The API caps Input at
// 16 texts of 384 tokens each; the client validates the count only.
type EmbeddingRequest struct {
	Input  []string `json:"input"`
	UserID string   `json:"user_id,omitempty"`
}

// EmbeddingData 为单条文本的向量结果。
type EmbeddingData struct {
	Object    string    `json:"object"`
	Embedding []float64 `json:"embedding"`
	Index     int       `json:"index"`
}

// EmbeddingResponse is the envelope of an embedding call.
type EmbeddingResponse struct {
	ID      string          `json:"id"`
	Object  string          `json:"object"`
	Created int64           `json:"created"`
	Data    []EmbeddingData `json:"data"`
	Usage   Usage           `json:"usage"`

	ErrorCode int    `json:"error_code,omitempty"`
	ErrorMsg  string `json:"error_msg,omitempty"`
}

// Err returns the in-band API error, if any.
func (r *EmbeddingResponse) Err() error {
	if r.ErrorCode != 0 {
		return &APIError{Code: r.ErrorCode, Message: r.ErrorMsg}
	}
	return nil
}

// Reset clears the envelope so it can be decoded into again.
func (r *EmbeddingResponse) Reset() { *r = EmbeddingResponse{} }
