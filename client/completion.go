package client

import (
	"context"

	"github.com/baidubce/bce-qianfan-sdk-go/types"
)

// Completion sends a prompt-style completion request. Chat models without
// a dedicated completion endpoint are reached through the chat map.
func (c *Client) Completion(ctx context.Context, model, endpoint string, req *types.CompletionRequest) (*types.ModelResponse, error) {
	if model == "" && endpoint == "" {
		model = DefaultChatModel
	}
	ep, err := resolveEndpoint(kindCompletion, model, endpoint)
	if err != nil {
		return nil, err
	}
	if req.Prompt == "" {
		return nil, types.ErrorFromCode(types.CodeInvalidParam, "prompt must not be empty")
	}

	body := *req
	body.Stream = false

	var out types.ModelResponse
	if err := c.postModel(ctx, modelPath(kindCompletion, ep), &body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CompletionStream is the streaming variant of Completion.
func (c *Client) CompletionStream(ctx context.Context, model, endpoint string, req *types.CompletionRequest) (<-chan types.StreamChunk, error) {
	if model == "" && endpoint == "" {
		model = DefaultChatModel
	}
	ep, err := resolveEndpoint(kindCompletion, model, endpoint)
	if err != nil {
		return nil, err
	}
	if req.Prompt == "" {
		return nil, types.ErrorFromCode(types.CodeInvalidParam, "prompt must not be empty")
	}

	body := *req
	body.Stream = true

	return c.postModelStream(ctx, modelPath(kindCompletion, ep), &body)
}
