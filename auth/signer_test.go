package auth

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSign_HeaderShape(t *testing.T) {
	req, err := http.NewRequest(http.MethodPost, "https://qianfan.baidubce.com/wenxinworkshop/service/list", nil)
	require.NoError(t, err)

	cred := Credential{AccessKey: "test-ak", SecretKey: "test-sk"}
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	Sign(req, cred, DefaultSignExpire, now)

	assert.Equal(t, "2024-03-01T12:00:00Z", req.Header.Get("x-bce-date"))

	authHeader := req.Header.Get("Authorization")
	parts := strings.Split(authHeader, "/")
	require.Len(t, parts, 6, "bce-auth-v1/{ak}/{ts}/{expire}/{headers}/{sig}")
	assert.Equal(t, "bce-auth-v1", parts[0])
	assert.Equal(t, "test-ak", parts[1])
	assert.Equal(t, "2024-03-01T12:00:00Z", parts[2])
	assert.Equal(t, "1800", parts[3])
	assert.Equal(t, "host;x-bce-date", parts[4])
	assert.Len(t, parts[5], 64, "signature 应为 hex 编码的 sha256")
}

func TestSign_Deterministic(t *testing.T) {
	cred := Credential{AccessKey: "ak", SecretKey: "sk"}
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	build := func() string {
		req, _ := http.NewRequest(http.MethodGet, "https://qianfan.baidubce.com/wenxinworkshop/dataset/info?b=2&a=1", nil)
		Sign(req, cred, DefaultSignExpire, now)
		return req.Header.Get("Authorization")
	}

	assert.Equal(t, build(), build(), "相同输入应产生相同签名")
}

func TestSign_QueryOrderIndependent(t *testing.T) {
	cred := Credential{AccessKey: "ak", SecretKey: "sk"}
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	reqA, _ := http.NewRequest(http.MethodGet, "https://example.com/path?b=2&a=1", nil)
	reqB, _ := http.NewRequest(http.MethodGet, "https://example.com/path?a=1&b=2", nil)
	Sign(reqA, cred, DefaultSignExpire, now)
	Sign(reqB, cred, DefaultSignExpire, now)

	assert.Equal(t, reqA.Header.Get("Authorization"), reqB.Header.Get("Authorization"),
		"规范化后查询参数顺序不应影响签名")
}

func TestUriEncode(t *testing.T) {
	assert.Equal(t, "abc-_.~", uriEncode("abc-_.~"))
	assert.Equal(t, "a%20b", uriEncode("a b"))
	assert.Equal(t, "%E4%B8%AD", uriEncode("中"))
	assert.Equal(t, "a%2Fb", uriEncode("a/b"))
	assert.Equal(t, "/wenxinworkshop/a%20b", uriEncodeExceptSlash("/wenxinworkshop/a b"))
}

func TestCredential(t *testing.T) {
	assert.False(t, Credential{}.Valid())
	assert.False(t, Credential{AccessKey: "ak"}.Valid())
	assert.True(t, Credential{AccessKey: "ak", SecretKey: "sk"}.Valid())

	k1 := Credential{AccessKey: "ak", SecretKey: "sk"}.CacheKey()
	k2 := Credential{AccessKey: "ak", SecretKey: "other"}.CacheKey()
	assert.NotEqual(t, k1, k2)
	assert.NotContains(t, k1, "sk", "缓存键不能泄露 SK")
}
