package client

import (
	"fmt"
	"sort"
)

// 模型名到服务端 endpoint 的内置映射。平台按 endpoint 而不是模型名路由，
// 新模型或私有部署可以直接传 endpoint 绕过映射。
var chatModelEndpoints = map[string]string{
	"ERNIE-4.0-8K":     "completions_pro",
	"ERNIE-3.5-8K":     "completions",
	"ERNIE-Speed-8K":   "ernie_speed",
	"ERNIE-Speed-128K": "ernie-speed-128k",
	"ERNIE-Lite-8K":    "ernie-lite-8k",
	"ERNIE-Tiny-8K":    "ernie-tiny-8k",
	"ERNIE-Bot-turbo":  "eb-instant",
	"ERNIE-Bot":        "completions",
	"ERNIE-Bot-4":      "completions_pro",
	"Yi-34B-Chat":      "yi_34b_chat",
	"BLOOMZ-7B":        "bloomz_7b1",
	"Llama-2-7B-Chat":  "llama_2_7b",
	"Llama-2-13B-Chat": "llama_2_13b",
	"Llama-2-70B-Chat": "llama_2_70b",
}

var completionModelEndpoints = map[string]string{
	"SQLCoder-7B":           "sqlcoder_7b",
	"CodeLlama-7B-Instruct": "codellama_7b_instruct",
}

var embeddingModelEndpoints = map[string]string{
	"Embedding-V1": "embedding-v1",
	"bge-large-zh": "bge_large_zh",
	"bge-large-en": "bge_large_en",
	"tao-8k":       "tao_8k",
}

const (
	// DefaultChatModel 为未指定模型时的缺省选择。
	DefaultChatModel = "ERNIE-Bot-turbo"
	// DefaultEmbeddingModel 为缺省向量模型。
	DefaultEmbeddingModel = "Embedding-V1"
)

type endpointKind string

const (
	kindChat       endpointKind = "chat"
	kindCompletion endpointKind = "completions"
	kindEmbedding  endpointKind = "embeddings"
)

// resolveEndpoint picks the service endpoint for a model. An explicit
// endpoint always wins; otherwise the built-in map is consulted.
// Completion falls back to the chat map because most chat models also
// serve prompt-style completion.
func resolveEndpoint(kind endpointKind, model, endpoint string) (string, error) {
	if endpoint != "" {
		return endpoint, nil
	}

	var m map[string]string
	switch kind {
	case kindChat:
		m = chatModelEndpoints
	case kindCompletion:
		if ep, ok := completionModelEndpoints[model]; ok {
			return ep, nil
		}
		m = chatModelEndpoints
	case kindEmbedding:
		m = embeddingModelEndpoints
	}

	if ep, ok := m[model]; ok {
		return ep, nil
	}
	return "", fmt.Errorf("unknown %s model %q: pass an explicit endpoint", kind, model)
}

// modelPath builds the request path for an endpoint of the given kind.
func modelPath(kind endpointKind, endpoint string) string {
	return fmt.Sprintf("/rpc/2.0/ai_custom/v1/wenxinworkshop/%s/%s", kind, endpoint)
}

// SupportedChatModels returns the built-in chat model names, sorted.
func SupportedChatModels() []string {
	names := make([]string, 0, len(chatModelEndpoints))
	for name := range chatModelEndpoints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SupportedEmbeddingModels returns the built-in embedding model names, sorted.
func SupportedEmbeddingModels() []string {
	names := make([]string, 0, len(embeddingModelEndpoints))
	for name := range embeddingModelEndpoints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
