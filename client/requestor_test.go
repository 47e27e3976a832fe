package client

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baidubce/bce-qianfan-sdk-go/auth"
	"github.com/baidubce/bce-qianfan-sdk-go/internal/metrics"
	"github.com/baidubce/bce-qianfan-sdk-go/ratelimit"
	"github.com/baidubce/bce-qianfan-sdk-go/testutil/mocks"
	"github.com/baidubce/bce-qianfan-sdk-go/types"
)

func newTestClient(t *testing.T, fake *mocks.FakeQianfan) *Client {
	t.Helper()
	c, err := New(fake.ClientConfig())
	require.NoError(t, err)
	return c
}

func chatReq(content string) *types.ChatRequest {
	return &types.ChatRequest{
		Messages: []types.Message{{Role: types.RoleUser, Content: content}},
	}
}

func TestPostModelRetriesRetryableCodes(t *testing.T) {
	fake := mocks.NewFakeQianfan().WithErrorCodes(18, 336100)
	defer fake.Close()

	c := newTestClient(t, fake)
	resp, err := c.ChatCompletion(context.Background(), "", "", chatReq("你好"))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Result)

	// 两次可重试错误 + 一次成功
	assert.Equal(t, 3, fake.ModelCalls())
}

func TestPostModelRetrySuccessClearsStaleError(t *testing.T) {
	// 重试前失败的那次解码不能把 error_code 残留进最终的成功响应
	fake := mocks.NewFakeQianfan().
		WithErrorCodes(336100).
		WithChatResult("重试后成功")
	defer fake.Close()

	c := newTestClient(t, fake)
	resp, err := c.ChatCompletion(context.Background(), "", "", chatReq("hi"))
	require.NoError(t, err)
	assert.NoError(t, resp.Err())
	assert.Equal(t, "重试后成功", resp.Result)
	assert.Equal(t, 2, fake.ModelCalls())
}

func TestPostModelDoesNotRetryFatalCodes(t *testing.T) {
	fake := mocks.NewFakeQianfan().WithErrorCodes(336002)
	defer fake.Close()

	c := newTestClient(t, fake)
	_, err := c.ChatCompletion(context.Background(), "", "", chatReq("hi"))
	require.Error(t, err)

	apiErr, ok := types.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, 336002, apiErr.Code)
	assert.Equal(t, 1, fake.ModelCalls())
}

func TestPostModelRetryExhausted(t *testing.T) {
	fake := mocks.NewFakeQianfan().WithErrorCodes(18, 18, 18, 18, 18)
	defer fake.Close()

	cfg := fake.ClientConfig()
	cfg.Retry.Count = 2
	c, err := New(cfg)
	require.NoError(t, err)

	_, err = c.ChatCompletion(context.Background(), "", "", chatReq("hi"))
	require.Error(t, err)
	assert.True(t, types.IsRetryable(err))
	// 初次尝试 + 两次重试
	assert.Equal(t, 3, fake.ModelCalls())
}

func TestPostModelTokenReplay(t *testing.T) {
	fake := mocks.NewFakeQianfan().WithErrorCodes(110)
	defer fake.Close()

	mgr := auth.NewManager(
		auth.WithBaseURL(fake.URL),
		auth.WithMinRefreshInterval(0),
	)
	c, err := New(fake.ClientConfig(), WithTokenManager(mgr))
	require.NoError(t, err)

	resp, err := c.ChatCompletion(context.Background(), "", "", chatReq("hi"))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Result)

	// token 失效触发一次强制刷新并重放一次
	assert.Equal(t, 2, fake.ModelCalls())
	assert.Equal(t, 2, fake.OAuthCalls())
}

func TestPostModelTokenReplayThrottledRefresh(t *testing.T) {
	// 刚取到的 token 在最小刷新间隔内被拒：刷新被抑制，但仍然重放一次
	fake := mocks.NewFakeQianfan().WithErrorCodes(111)
	defer fake.Close()

	c := newTestClient(t, fake)
	_, err := c.ChatCompletion(context.Background(), "", "", chatReq("hi"))
	require.NoError(t, err)

	assert.Equal(t, 2, fake.ModelCalls())
	assert.Equal(t, 1, fake.OAuthCalls())
}

func TestPostModelTokenReplayOnlyOnce(t *testing.T) {
	// token 连续被拒时不会无限重放
	fake := mocks.NewFakeQianfan().WithErrorCodes(110, 111)
	defer fake.Close()

	c := newTestClient(t, fake)
	_, err := c.ChatCompletion(context.Background(), "", "", chatReq("hi"))
	require.Error(t, err)

	apiErr, ok := types.AsAPIError(err)
	require.True(t, ok)
	assert.True(t, apiErr.TokenError())
	assert.Equal(t, 2, fake.ModelCalls())
}

func TestPostModelRetriesServerErrors(t *testing.T) {
	fake := mocks.NewFakeQianfan().WithHTTPErrors(500, 502)
	defer fake.Close()

	c := newTestClient(t, fake)
	resp, err := c.ChatCompletion(context.Background(), "", "", chatReq("hi"))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Result)
	assert.Equal(t, 3, fake.ModelCalls())
}

func TestPostModelClientErrorNotRetried(t *testing.T) {
	fake := mocks.NewFakeQianfan().WithHTTPErrors(400)
	defer fake.Close()

	c := newTestClient(t, fake)
	_, err := c.ChatCompletion(context.Background(), "", "", chatReq("hi"))
	require.Error(t, err)
	assert.False(t, types.IsRetryable(err))
	assert.Contains(t, err.Error(), "400")
	assert.Equal(t, 1, fake.ModelCalls())
}

func TestRateLimitHeaderTightensLimiter(t *testing.T) {
	fake := mocks.NewFakeQianfan().WithRateLimitHeader(120)
	defer fake.Close()

	c := newTestClient(t, fake)
	_, err := c.ChatCompletion(context.Background(), "", "", chatReq("hi"))
	require.NoError(t, err)

	// RPMCap 记录头部上报的原始配额，缓冲比例只作用于放行速率
	assert.Equal(t, 120, c.limiter.RPMCap())
}

func TestConsoleRequestSignsAndDecodes(t *testing.T) {
	fake := mocks.NewFakeQianfan().
		WithConsoleResult("/wenxinworkshop/service/detail", map[string]any{
			"id": 42, "name": "svc", "serviceStatus": "DONE",
		})
	defer fake.Close()

	c := newTestClient(t, fake)
	svc, err := c.GetService(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), svc.ID)
	assert.Equal(t, "svc", svc.Name)
	assert.Equal(t, 1, fake.ConsoleCalls())
}

func TestConsoleRequestNeedsCredentials(t *testing.T) {
	fake := mocks.NewFakeQianfan()
	defer fake.Close()

	cfg := fake.ClientConfig()
	cfg.AccessKey = ""
	cfg.SecretKey = ""
	c, err := New(cfg)
	require.NoError(t, err)

	_, err = c.ConsoleRequest(context.Background(), "/wenxinworkshop/service/list", map[string]any{})
	require.Error(t, err)
	assert.Zero(t, fake.ConsoleCalls())
}

func TestWaitLimiterCountsDelayedRequests(t *testing.T) {
	fake := mocks.NewFakeQianfan()
	defer fake.Close()

	reg := prometheus.NewRegistry()
	col := metrics.NewCollector("qianfan_test", reg)
	c, err := New(fake.ClientConfig(), WithCollector(col))
	require.NoError(t, err)
	c.limiter = ratelimit.New(ratelimit.Config{QPS: 100}, nil)

	// 突发额度用尽后，后续放行要等令牌补充
	for i := 0; i < 105; i++ {
		require.NoError(t, c.waitLimiter(context.Background()))
	}

	assert.Greater(t, gatherCounter(t, reg, "qianfan_test_rate_limit_waits_total"), float64(0))
}

func gatherCounter(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, fam := range families {
		if fam.GetName() == name {
			return fam.GetMetric()[0].GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s not registered", name)
	return 0
}

func TestEndpointLabel(t *testing.T) {
	assert.Equal(t, "chat/eb-instant",
		endpointLabel("/rpc/2.0/ai_custom/v1/wenxinworkshop/chat/eb-instant"))
	assert.Equal(t, "/other/path", endpointLabel("/other/path"))
}

func TestTruncateLongBody(t *testing.T) {
	long := strings.Repeat("x", 1000)
	out := truncate([]byte(long))
	assert.Len(t, out, 256+3)
	assert.True(t, strings.HasSuffix(out, "..."))
}
