package client

import (
	"context"

	"github.com/baidubce/bce-qianfan-sdk-go/types"
)

// 平台单次 embedding 调用的输入条数上限。
const maxEmbeddingInputs = 16

// Embedding computes vectors for up to 16 input texts in one call.
func (c *Client) Embedding(ctx context.Context, model, endpoint string, req *types.EmbeddingRequest) (*types.EmbeddingResponse, error) {
	if model == "" && endpoint == "" {
		model = DefaultEmbeddingModel
	}
	ep, err := resolveEndpoint(kindEmbedding, model, endpoint)
	if err != nil {
		return nil, err
	}
	if len(req.Input) == 0 {
		return nil, types.ErrorFromCode(types.CodeInvalidParam, "input must not be empty")
	}
	if len(req.Input) > maxEmbeddingInputs {
		return nil, types.ErrorFromCode(types.CodeInvalidParam, "input exceeds 16 texts per call")
	}

	var out types.EmbeddingResponse
	if err := c.postModel(ctx, modelPath(kindEmbedding, ep), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
