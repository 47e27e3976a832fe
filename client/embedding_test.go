package client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baidubce/bce-qianfan-sdk-go/testutil/mocks"
	"github.com/baidubce/bce-qianfan-sdk-go/types"
)

func TestEmbedding(t *testing.T) {
	fake := mocks.NewFakeQianfan()
	defer fake.Close()

	c := newTestClient(t, fake)
	resp, err := c.Embedding(context.Background(), "", "", &types.EmbeddingRequest{
		Input: []string{"文本一", "文本二"},
	})
	require.NoError(t, err)

	require.Len(t, resp.Data, 2)
	assert.Equal(t, 0, resp.Data[0].Index)
	assert.Equal(t, 1, resp.Data[1].Index)
	assert.NotEmpty(t, resp.Data[0].Embedding)
}

func TestEmbeddingInputBounds(t *testing.T) {
	fake := mocks.NewFakeQianfan()
	defer fake.Close()

	c := newTestClient(t, fake)

	_, err := c.Embedding(context.Background(), "", "", &types.EmbeddingRequest{})
	assert.Error(t, err)

	tooMany := make([]string, 17)
	for i := range tooMany {
		tooMany[i] = "x"
	}
	_, err = c.Embedding(context.Background(), "", "", &types.EmbeddingRequest{Input: tooMany})
	assert.Error(t, err)

	assert.Zero(t, fake.ModelCalls())
}
