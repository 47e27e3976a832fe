package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baidubce/bce-qianfan-sdk-go/internal/cache"
	"github.com/baidubce/bce-qianfan-sdk-go/types"
)

// newOAuthServer 返回一个计数的假 OAuth 服务。
func newOAuthServer(t *testing.T, calls *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/oauth/2.0/token", r.URL.Path)
		require.Equal(t, "client_credentials", r.URL.Query().Get("grant_type"))

		n := calls.Add(1)
		if r.URL.Query().Get("client_id") == "bad-ak" {
			json.NewEncoder(w).Encode(map[string]string{
				"error":             "invalid_client",
				"error_description": "unknown client id",
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": fmt.Sprintf("token-%d", n),
			"expires_in":   2592000,
		})
	}))
}

func TestManager_GetToken(t *testing.T) {
	var calls atomic.Int64
	srv := newOAuthServer(t, &calls)
	defer srv.Close()

	m := NewManager(WithBaseURL(srv.URL))
	cred := Credential{AccessKey: "ak", SecretKey: "sk"}

	tok, err := m.GetToken(context.Background(), cred)
	require.NoError(t, err)
	assert.Equal(t, "token-1", tok)

	// 第二次命中缓存，不再请求
	tok, err = m.GetToken(context.Background(), cred)
	require.NoError(t, err)
	assert.Equal(t, "token-1", tok)
	assert.Equal(t, int64(1), calls.Load())
}

func TestManager_InvalidCredential(t *testing.T) {
	m := NewManager()
	_, err := m.GetToken(context.Background(), Credential{AccessKey: "only-ak"})
	assert.Error(t, err)
}

func TestManager_AuthError(t *testing.T) {
	var calls atomic.Int64
	srv := newOAuthServer(t, &calls)
	defer srv.Close()

	m := NewManager(WithBaseURL(srv.URL))
	_, err := m.GetToken(context.Background(), Credential{AccessKey: "bad-ak", SecretKey: "sk"})
	require.Error(t, err)

	var authErr *types.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "invalid_client", authErr.ErrorCode)
}

func TestManager_ConcurrentRefreshCollapses(t *testing.T) {
	var calls atomic.Int64
	srv := newOAuthServer(t, &calls)
	defer srv.Close()

	m := NewManager(WithBaseURL(srv.URL))
	cred := Credential{AccessKey: "ak", SecretKey: "sk"}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := m.GetToken(context.Background(), cred)
			assert.NoError(t, err)
			assert.Equal(t, "token-1", tok)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load(), "并发获取应收敛为一次刷新")
}

func TestManager_RefreshThrottled(t *testing.T) {
	var calls atomic.Int64
	srv := newOAuthServer(t, &calls)
	defer srv.Close()

	m := NewManager(WithBaseURL(srv.URL), WithMinRefreshInterval(time.Hour))
	cred := Credential{AccessKey: "ak", SecretKey: "sk"}

	tok, err := m.GetToken(context.Background(), cred)
	require.NoError(t, err)
	assert.Equal(t, "token-1", tok)

	// 强制刷新落在最小间隔内：返回旧 token，不发请求
	tok, err = m.RefreshToken(context.Background(), cred)
	require.NoError(t, err)
	assert.Equal(t, "token-1", tok)
	assert.Equal(t, int64(1), calls.Load())
}

func TestManager_RefreshAfterInterval(t *testing.T) {
	var calls atomic.Int64
	srv := newOAuthServer(t, &calls)
	defer srv.Close()

	m := NewManager(WithBaseURL(srv.URL), WithMinRefreshInterval(time.Millisecond))
	cred := Credential{AccessKey: "ak", SecretKey: "sk"}

	_, err := m.GetToken(context.Background(), cred)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	tok, err := m.RefreshToken(context.Background(), cred)
	require.NoError(t, err)
	assert.Equal(t, "token-2", tok)
	assert.Equal(t, int64(2), calls.Load())
}

func TestManager_SharedStore(t *testing.T) {
	var calls atomic.Int64
	srv := newOAuthServer(t, &calls)
	defer srv.Close()

	store := cache.NewMemoryStore(time.Hour)
	cred := Credential{AccessKey: "ak", SecretKey: "sk"}

	m1 := NewManager(WithBaseURL(srv.URL), WithStore(store))
	tok, err := m1.GetToken(context.Background(), cred)
	require.NoError(t, err)
	assert.Equal(t, "token-1", tok)

	// 第二个 manager 共享 store，直接复用缓存里的 token
	m2 := NewManager(WithBaseURL(srv.URL), WithStore(store))
	tok, err = m2.GetToken(context.Background(), cred)
	require.NoError(t, err)
	assert.Equal(t, "token-1", tok)
	assert.Equal(t, int64(1), calls.Load())
}
