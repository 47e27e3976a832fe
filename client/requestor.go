package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/baidubce/bce-qianfan-sdk-go/auth"
	"github.com/baidubce/bce-qianfan-sdk-go/types"
)

// envelope 为带内错误检查接口，ModelResponse / EmbeddingResponse /
// ConsoleResponse 均实现。Reset 在重试/重放前清空上一次解码的残留。
type envelope interface {
	Err() error
	Reset()
}

// postModel issues one model-plane request (with retry) and decodes the
// response into out. A token-invalid answer triggers exactly one forced
// refresh and replay, outside the normal retry budget.
func (c *Client) postModel(ctx context.Context, path string, body any, out envelope) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request body: %w", err)
	}

	label := endpointLabel(path)
	start := time.Now()

	err = c.withTokenReplay(ctx, func() error {
		return c.policy.do(ctx, c.logger, c.retryObserver(label), func() error {
			return c.attemptModel(ctx, path, payload, out)
		})
	})

	c.observe(label, start, err)
	if err != nil {
		return err
	}
	c.observeUsage(label, out)
	return nil
}

// waitLimiter 等待本地限流放行，被明显延迟的请求计一次数。
func (c *Client) waitLimiter(ctx context.Context) error {
	start := time.Now()
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	if time.Since(start) > time.Millisecond {
		c.collector.ObserveRateLimitWait()
	}
	return nil
}

// attemptModel 为单次模型面请求：限流、取 token、发请求、解包。
func (c *Client) attemptModel(ctx context.Context, path string, payload []byte, out envelope) error {
	if err := c.waitLimiter(ctx); err != nil {
		return err
	}

	token, err := c.tokens.GetToken(ctx, c.cred)
	if err != nil {
		return err
	}

	endpoint := c.cfg.BaseURL + path + "?access_token=" + url.QueryEscape(token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &types.TransportError{Err: err}
	}
	defer resp.Body.Close()

	c.limiter.UpdateFromHeader(resp.Header)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &types.TransportError{Err: err}
	}

	if resp.StatusCode >= 500 {
		return &types.TransportError{Err: fmt.Errorf("server status %d: %s", resp.StatusCode, truncate(data))}
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(data))
	}

	// 重试/重放可能复用同一 out，先清空上一轮的 error_code 残留。
	out.Reset()
	if err := json.Unmarshal(data, out); err != nil {
		return &types.TransportError{Err: fmt.Errorf("decode response: %w", err)}
	}
	return out.Err()
}

// withTokenReplay runs fn and, when it fails with a token-invalid API
// error, forces one token refresh and replays fn once.
func (c *Client) withTokenReplay(ctx context.Context, fn func() error) error {
	err := fn()
	apiErr, ok := types.AsAPIError(err)
	if !ok || !apiErr.TokenError() {
		return err
	}

	c.logger.Info("access token rejected, forcing refresh",
		zap.Int("error_code", apiErr.Code))

	if _, rerr := c.tokens.RefreshToken(ctx, c.cred); rerr != nil {
		c.collector.ObserveTokenRefresh(false)
		return fmt.Errorf("token refresh after code %d failed: %w", apiErr.Code, rerr)
	}
	c.collector.ObserveTokenRefresh(true)

	return fn()
}

// ConsoleRequest issues one signed control-plane request against route
// (e.g. "/wenxinworkshop/service/list") with params as the JSON body.
func (c *Client) ConsoleRequest(ctx context.Context, route string, params any) (*types.ConsoleResponse, error) {
	if !c.cred.Valid() {
		return nil, fmt.Errorf("console request requires access key and secret key")
	}

	payload, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}

	label := "console" + route
	start := time.Now()

	var out types.ConsoleResponse
	err = c.policy.do(ctx, c.logger, c.retryObserver(label), func() error {
		return c.attemptConsole(ctx, route, payload, &out)
	})

	c.observe(label, start, err)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) attemptConsole(ctx context.Context, route string, payload []byte, out *types.ConsoleResponse) error {
	if err := c.waitLimiter(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.ConsoleBaseURL+route, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	auth.Sign(req, c.cred, auth.DefaultSignExpire, time.Now())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &types.TransportError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &types.TransportError{Err: err}
	}

	if resp.StatusCode >= 500 {
		return &types.TransportError{Err: fmt.Errorf("server status %d: %s", resp.StatusCode, truncate(data))}
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(data))
	}

	out.Reset()
	if err := json.Unmarshal(data, out); err != nil {
		return &types.TransportError{Err: fmt.Errorf("decode response: %w", err)}
	}
	return out.Err()
}

// --- 小工具 ---

func (c *Client) retryObserver(label string) func(int, error) {
	return func(_ int, _ error) {
		c.collector.ObserveRetry(label)
	}
}

func (c *Client) observe(label string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.collector.ObserveRequest(label, status, time.Since(start))
}

func (c *Client) observeUsage(label string, out envelope) {
	switch r := out.(type) {
	case *types.ModelResponse:
		c.collector.ObserveTokens(label, r.Usage.PromptTokens, r.Usage.CompletionTokens)
	case *types.EmbeddingResponse:
		c.collector.ObserveTokens(label, r.Usage.PromptTokens, r.Usage.CompletionTokens)
	}
}

// endpointLabel 把请求路径压缩成指标标签，如 chat/eb-instant。
func endpointLabel(path string) string {
	const marker = "/wenxinworkshop/"
	if i := strings.Index(path, marker); i >= 0 {
		return path[i+len(marker):]
	}
	return path
}

func truncate(data []byte) string {
	const max = 256
	if len(data) > max {
		return string(data[:max]) + "..."
	}
	return string(data)
}
