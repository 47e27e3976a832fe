package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/baidubce/bce-qianfan-sdk-go/types"
)

// postModelStream issues one streaming model request and returns the chunk
// channel. Retry and token replay apply to establishing the stream only;
// once data flows, failures surface as a terminal error chunk.
func (c *Client) postModelStream(ctx context.Context, path string, body any) (<-chan types.StreamChunk, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}

	label := endpointLabel(path)
	start := time.Now()

	var resp *http.Response
	err = c.withTokenReplay(ctx, func() error {
		return c.policy.do(ctx, c.logger, c.retryObserver(label), func() error {
			var attemptErr error
			resp, attemptErr = c.attemptStream(ctx, path, payload)
			return attemptErr
		})
	})
	c.observe(label, start, err)
	if err != nil {
		return nil, err
	}

	ch := make(chan types.StreamChunk)
	go c.readStream(ctx, resp, ch, label)
	return ch, nil
}

// attemptStream 建立流式连接。平台在出错时即使请求了 stream 也会返回
// application/json 错误体，这里转成带内错误走统一的重试/换 token 路径。
func (c *Client) attemptStream(ctx context.Context, path string, payload []byte) (*http.Response, error) {
	if err := c.waitLimiter(ctx); err != nil {
		return nil, err
	}

	token, err := c.tokens.GetToken(ctx, c.cred)
	if err != nil {
		return nil, err
	}

	endpoint := c.cfg.BaseURL + path + "?access_token=" + url.QueryEscape(token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &types.TransportError{Err: err}
	}

	c.limiter.UpdateFromHeader(resp.Header)

	if resp.StatusCode >= 500 {
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		return nil, &types.TransportError{Err: fmt.Errorf("server status %d: %s", resp.StatusCode, truncate(data))}
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(data))
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, &types.TransportError{Err: err}
		}
		var mr types.ModelResponse
		if err := json.Unmarshal(data, &mr); err != nil {
			return nil, &types.TransportError{Err: fmt.Errorf("decode response: %w", err)}
		}
		if err := mr.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("expected event stream, got json response")
	}

	return resp, nil
}

// readStream 解析 SSE 行并写入 ch。保证 body 与 ch 总会被关闭。
func (c *Client) readStream(ctx context.Context, resp *http.Response, ch chan<- types.StreamChunk, label string) {
	defer resp.Body.Close()
	defer close(ch)

	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err != io.EOF {
				c.emit(ctx, ch, types.StreamChunk{Err: &types.TransportError{Err: err}})
			}
			return
		}

		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))

		var mr types.ModelResponse
		if err := json.Unmarshal([]byte(data), &mr); err != nil {
			c.emit(ctx, ch, types.StreamChunk{Err: &types.TransportError{Err: fmt.Errorf("decode chunk: %w", err)}})
			return
		}
		if err := mr.Err(); err != nil {
			c.emit(ctx, ch, types.StreamChunk{Err: err})
			return
		}

		if !c.emit(ctx, ch, types.StreamChunk{Response: mr}) {
			return
		}
		if mr.IsEnd {
			c.collector.ObserveTokens(label, mr.Usage.PromptTokens, mr.Usage.CompletionTokens)
			return
		}
	}
}

// emit 发送一个 chunk，ctx 取消时返回 false。
func (c *Client) emit(ctx context.Context, ch chan<- types.StreamChunk, chunk types.StreamChunk) bool {
	select {
	case <-ctx.Done():
		return false
	case ch <- chunk:
		return true
	}
}
