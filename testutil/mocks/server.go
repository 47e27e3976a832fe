// FakeQianfan 为测试用的假 Qianfan 服务。
//
// 覆盖 OAuth、模型面（chat/completions/embeddings，含 SSE）与控制台路由，
// 支持错误注入与限流响应头场景。
package mocks

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/baidubce/bce-qianfan-sdk-go/config"
)

// FakeQianfan 是 Qianfan 平台的假实现
type FakeQianfan struct {
	*httptest.Server

	mu sync.Mutex

	// 响应配置
	chatResult     string
	streamChunks   []string
	embeddingDim   int
	consoleResults map[string]any   // route → result payload
	consoleSeqs    map[string][]any // route → result sequence, last repeats
	routeBodies    map[string]map[string]any

	// 错误注入：模型面按顺序消费，之后恢复成功
	errCodes []int
	// HTTP 状态注入：优先于错误码消费
	httpErrs []int

	// 限流响应头
	rateLimitRPM int

	// 调用记录
	oauthCalls   int
	modelCalls   int
	consoleCalls int
	lastBody     map[string]any
	tokenSeq     int
}

// NewFakeQianfan 创建假平台服务
func NewFakeQianfan() *FakeQianfan {
	f := &FakeQianfan{
		chatResult:     "你好，我是文心一言。",
		streamChunks:   []string{"你好，", "我是", "文心一言。"},
		embeddingDim:   4,
		consoleResults: make(map[string]any),
		consoleSeqs:    make(map[string][]any),
		routeBodies:    make(map[string]map[string]any),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/2.0/token", f.handleOAuth)
	mux.HandleFunc("/rpc/2.0/ai_custom/v1/wenxinworkshop/", f.handleModel)
	mux.HandleFunc("/wenxinworkshop/", f.handleConsole)

	f.Server = httptest.NewServer(mux)
	return f
}

// --- Builder 方法 ---

// WithChatResult 设置固定的聊天回复
func (f *FakeQianfan) WithChatResult(result string) *FakeQianfan {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chatResult = result
	return f
}

// WithStreamChunks 设置流式响应块
func (f *FakeQianfan) WithStreamChunks(chunks ...string) *FakeQianfan {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.streamChunks = chunks
	return f
}

// WithErrorCodes 设置模型面按顺序返回的错误码，消费完后恢复成功
func (f *FakeQianfan) WithErrorCodes(codes ...int) *FakeQianfan {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errCodes = append(f.errCodes, codes...)
	return f
}

// WithHTTPErrors 设置模型面按顺序返回的 HTTP 状态码，消费完后恢复成功
func (f *FakeQianfan) WithHTTPErrors(statuses ...int) *FakeQianfan {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.httpErrs = append(f.httpErrs, statuses...)
	return f
}

// WithRateLimitHeader 设置模型面响应的 RPM 上限头
func (f *FakeQianfan) WithRateLimitHeader(rpm int) *FakeQianfan {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rateLimitRPM = rpm
	return f
}

// WithConsoleResult 设置某个控制台路由的 result 载荷
func (f *FakeQianfan) WithConsoleResult(route string, result any) *FakeQianfan {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.consoleResults[route] = result
	return f
}

// WithConsoleResultSequence 设置某个控制台路由按顺序返回的 result 序列，
// 耗尽后重复最后一个
func (f *FakeQianfan) WithConsoleResultSequence(route string, results ...any) *FakeQianfan {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.consoleSeqs[route] = append(f.consoleSeqs[route], results...)
	return f
}

// ClientConfig 返回指向本服务的 SDK 配置（快速重试、无抖动）
func (f *FakeQianfan) ClientConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.AccessKey = "fake-ak"
	cfg.SecretKey = "fake-sk"
	cfg.BaseURL = f.URL
	cfg.ConsoleBaseURL = f.URL
	cfg.AuthBaseURL = f.URL
	cfg.Retry.InitialDelay = time.Millisecond
	cfg.Retry.MaxDelay = 10 * time.Millisecond
	cfg.Retry.Jitter = false
	return cfg
}

// --- 查询方法 ---

// OAuthCalls 返回 OAuth 调用次数
func (f *FakeQianfan) OAuthCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.oauthCalls
}

// ModelCalls 返回模型面调用次数
func (f *FakeQianfan) ModelCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.modelCalls
}

// ConsoleCalls 返回控制台调用次数
func (f *FakeQianfan) ConsoleCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.consoleCalls
}

// LastBody 返回最近一次请求体
func (f *FakeQianfan) LastBody() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastBody
}

// LastBodyFor 返回某个控制台路由最近一次请求体
func (f *FakeQianfan) LastBodyFor(route string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.routeBodies[route]
}

// --- 处理器 ---

func (f *FakeQianfan) handleOAuth(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.oauthCalls++
	f.tokenSeq++
	seq := f.tokenSeq
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if r.URL.Query().Get("client_id") == "" {
		json.NewEncoder(w).Encode(map[string]string{
			"error":             "invalid_client",
			"error_description": "missing client id",
		})
		return
	}
	json.NewEncoder(w).Encode(map[string]any{
		"access_token": fmt.Sprintf("fake-token-%d", seq),
		"expires_in":   2592000,
	})
}

func (f *FakeQianfan) nextErrCode() (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.errCodes) == 0 {
		return 0, false
	}
	code := f.errCodes[0]
	f.errCodes = f.errCodes[1:]
	return code, true
}

func (f *FakeQianfan) nextHTTPErr() (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.httpErrs) == 0 {
		return 0, false
	}
	status := f.httpErrs[0]
	f.httpErrs = f.httpErrs[1:]
	return status, true
}

func (f *FakeQianfan) handleModel(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	f.modelCalls++
	f.lastBody = body
	rpm := f.rateLimitRPM
	chatResult := f.chatResult
	chunks := f.streamChunks
	dim := f.embeddingDim
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if rpm > 0 {
		w.Header().Set("X-Ratelimit-Limit-Requests", fmt.Sprintf("%d", rpm))
	}

	if r.URL.Query().Get("access_token") == "" {
		json.NewEncoder(w).Encode(map[string]any{
			"error_code": 110, "error_msg": "Access token invalid",
		})
		return
	}

	if status, ok := f.nextHTTPErr(); ok {
		http.Error(w, http.StatusText(status), status)
		return
	}

	if code, ok := f.nextErrCode(); ok {
		json.NewEncoder(w).Encode(map[string]any{
			"error_code": code, "error_msg": fmt.Sprintf("injected error %d", code),
		})
		return
	}

	if strings.Contains(r.URL.Path, "/embeddings/") {
		f.writeEmbedding(w, body, dim)
		return
	}

	if stream, _ := body["stream"].(bool); stream {
		f.writeStream(w, chunks)
		return
	}

	json.NewEncoder(w).Encode(map[string]any{
		"id":      "as-fake-1",
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"result":  chatResult,
		"is_end":  true,
		"usage":   map[string]int{"prompt_tokens": 10, "completion_tokens": 20, "total_tokens": 30},
	})
}

func (f *FakeQianfan) writeEmbedding(w http.ResponseWriter, body map[string]any, dim int) {
	inputs, _ := body["input"].([]any)
	data := make([]map[string]any, 0, len(inputs))
	for i := range inputs {
		vec := make([]float64, dim)
		for d := range vec {
			vec[d] = float64(i) + float64(d)/10
		}
		data = append(data, map[string]any{
			"object": "embedding", "embedding": vec, "index": i,
		})
	}
	json.NewEncoder(w).Encode(map[string]any{
		"id": "as-fake-emb", "object": "embedding_list", "data": data,
		"usage": map[string]int{"prompt_tokens": len(inputs) * 3, "total_tokens": len(inputs) * 3},
	})
}

func (f *FakeQianfan) writeStream(w http.ResponseWriter, chunks []string) {
	w.Header().Set("Content-Type", "text/event-stream")
	flusher, _ := w.(http.Flusher)

	for i, chunk := range chunks {
		payload, _ := json.Marshal(map[string]any{
			"id":          "as-fake-stream",
			"sentence_id": i,
			"result":      chunk,
			"is_end":      i == len(chunks)-1,
			"usage":       map[string]int{"prompt_tokens": 5, "completion_tokens": 3 * (i + 1), "total_tokens": 5 + 3*(i+1)},
		})
		fmt.Fprintf(w, "data: %s\n\n", payload)
		if flusher != nil {
			flusher.Flush()
		}
	}
}

func (f *FakeQianfan) handleConsole(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	f.consoleCalls++
	f.lastBody = body
	f.routeBodies[r.URL.Path] = body
	result, ok := f.consoleResults[r.URL.Path]
	if seq := f.consoleSeqs[r.URL.Path]; len(seq) > 0 {
		result, ok = seq[0], true
		if len(seq) > 1 {
			f.consoleSeqs[r.URL.Path] = seq[1:]
		}
	}
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	if r.Header.Get("Authorization") == "" {
		json.NewEncoder(w).Encode(map[string]any{
			"error_code": 14, "error_msg": "IAM Certification failed",
		})
		return
	}

	if !ok {
		result = map[string]any{}
	}
	json.NewEncoder(w).Encode(map[string]any{
		"log_id": "fake-log-1",
		"result": result,
	})
}
