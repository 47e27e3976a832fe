package client

import (
	"context"

	"github.com/baidubce/bce-qianfan-sdk-go/types"
)

// ChatCompletion sends a chat request to model (or an explicit endpoint,
// which wins over the model map) and waits for the whole answer.
func (c *Client) ChatCompletion(ctx context.Context, model, endpoint string, req *types.ChatRequest) (*types.ModelResponse, error) {
	if model == "" && endpoint == "" {
		model = DefaultChatModel
	}
	ep, err := resolveEndpoint(kindChat, model, endpoint)
	if err != nil {
		return nil, err
	}
	if err := types.ValidateMessages(req.Messages); err != nil {
		return nil, err
	}

	body := *req
	body.Stream = false

	var out types.ModelResponse
	if err := c.postModel(ctx, modelPath(kindChat, ep), &body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChatCompletionStream sends a chat request and returns the chunk channel.
// The channel is closed after the is_end chunk, a terminal error chunk, or
// ctx cancellation.
func (c *Client) ChatCompletionStream(ctx context.Context, model, endpoint string, req *types.ChatRequest) (<-chan types.StreamChunk, error) {
	if model == "" && endpoint == "" {
		model = DefaultChatModel
	}
	ep, err := resolveEndpoint(kindChat, model, endpoint)
	if err != nil {
		return nil, err
	}
	if err := types.ValidateMessages(req.Messages); err != nil {
		return nil, err
	}

	body := *req
	body.Stream = true

	return c.postModelStream(ctx, modelPath(kindChat, ep), &body)
}
