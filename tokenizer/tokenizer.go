// Package tokenizer 提供本地 token 估算，不依赖远端计费接口。
//
// ERNIE 系模型用启发式估算（汉字 + 英文词数），OpenAI 兼容模型用
// tiktoken 编码表。
package tokenizer

import (
	"strings"
	"sync"

	"github.com/baidubce/bce-qianfan-sdk-go/types"
)

// Tokenizer 是统一的 token 计数接口。
type Tokenizer interface {
	// CountTokens 返回给定文本的 token 数。
	CountTokens(text string) (int, error)

	// CountMessages 返回消息列表的总 token 数，
	// 含每条消息的角色标记等开销。
	CountMessages(messages []types.Message) (int, error)

	// Name 返回分词器的名称。
	Name() string
}

// 全局分词器注册表。
var (
	modelTokenizers   = make(map[string]Tokenizer)
	modelTokenizersMu sync.RWMutex
)

// Register 为给定的模型名称注册分词器。
func Register(model string, t Tokenizer) {
	modelTokenizersMu.Lock()
	defer modelTokenizersMu.Unlock()
	modelTokenizers[model] = t
}

// ForModel returns the tokenizer for model. ERNIE models and anything
// unregistered fall back to the heuristic estimator; OpenAI-compatible
// model names get a tiktoken tokenizer.
func ForModel(model string) Tokenizer {
	modelTokenizersMu.RLock()
	t, ok := modelTokenizers[model]
	modelTokenizersMu.RUnlock()
	if ok {
		return t
	}

	if strings.HasPrefix(strings.ToLower(model), "gpt-") {
		if tt, err := NewTiktoken(model); err == nil {
			return tt
		}
	}
	return NewErnie()
}
