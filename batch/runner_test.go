package batch

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baidubce/bce-qianfan-sdk-go/client"
	"github.com/baidubce/bce-qianfan-sdk-go/testutil/mocks"
	"github.com/baidubce/bce-qianfan-sdk-go/types"
)

func newRunner(t *testing.T, fake *mocks.FakeQianfan, opts ...Option) *Runner {
	t.Helper()
	c, err := client.New(fake.ClientConfig())
	require.NoError(t, err)
	return NewRunner(c, opts...)
}

func chatReqs(n int) []*types.ChatRequest {
	reqs := make([]*types.ChatRequest, n)
	for i := range reqs {
		reqs[i] = &types.ChatRequest{
			Messages: []types.Message{{Role: types.RoleUser, Content: fmt.Sprintf("问题 %d", i)}},
		}
	}
	return reqs
}

func TestRunnerChatCompletionOrder(t *testing.T) {
	fake := mocks.NewFakeQianfan()
	defer fake.Close()

	r := newRunner(t, fake, WithWorkers(3))
	results := r.ChatCompletion(context.Background(), "", "", chatReqs(10))

	require.Len(t, results, 10)
	for i, res := range results {
		assert.Equal(t, i, res.Index)
		require.NoError(t, res.Err)
		assert.NotEmpty(t, res.Response.Result)
	}
	assert.Equal(t, 10, fake.ModelCalls())

	stats := r.Stats()
	assert.Equal(t, int64(10), stats.Submitted)
	assert.Equal(t, int64(10), stats.Succeeded)
	assert.Zero(t, stats.Failed)
}

func TestRunnerItemFailureDoesNotAbortBatch(t *testing.T) {
	// 一条注入的致命错误：对应条目失败，其余条目照常完成
	fake := mocks.NewFakeQianfan().WithErrorCodes(336002)
	defer fake.Close()

	r := newRunner(t, fake, WithWorkers(1))
	results := r.ChatCompletion(context.Background(), "", "", chatReqs(4))

	var failed, ok int
	for _, res := range results {
		if res.Err != nil {
			failed++
		} else {
			ok++
		}
	}
	assert.Equal(t, 1, failed)
	assert.Equal(t, 3, ok)

	stats := r.Stats()
	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, int64(3), stats.Succeeded)
}

func TestRunnerContextCancel(t *testing.T) {
	fake := mocks.NewFakeQianfan()
	defer fake.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newRunner(t, fake)
	results := r.ChatCompletion(ctx, "", "", chatReqs(5))

	require.Len(t, results, 5)
	for _, res := range results {
		assert.Error(t, res.Err)
	}
}

func TestRunnerCompletion(t *testing.T) {
	fake := mocks.NewFakeQianfan().WithChatResult("done")
	defer fake.Close()

	reqs := []*types.CompletionRequest{
		{Prompt: "a"}, {Prompt: "b"},
	}

	r := newRunner(t, fake)
	results := r.Completion(context.Background(), "", "sqlcoder_7b", reqs)
	require.Len(t, results, 2)
	for _, res := range results {
		require.NoError(t, res.Err)
		assert.Equal(t, "done", res.Response.Result)
	}
}

func TestRunnerEmbeddingChunks(t *testing.T) {
	fake := mocks.NewFakeQianfan()
	defer fake.Close()

	// 35 条输入 → 16+16+3，共 3 次调用
	inputs := make([]string, 35)
	for i := range inputs {
		inputs[i] = fmt.Sprintf("文本 %d", i)
	}

	r := newRunner(t, fake, WithWorkers(2))
	results := r.Embedding(context.Background(), "", "", inputs)

	require.Len(t, results, 35)
	for i, res := range results {
		assert.Equal(t, i, res.Index)
		require.NoError(t, res.Err)
		assert.NotEmpty(t, res.Embedding)
	}
	assert.Equal(t, 3, fake.ModelCalls())
}
