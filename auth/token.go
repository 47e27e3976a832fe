package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/baidubce/bce-qianfan-sdk-go/internal/cache"
	"github.com/baidubce/bce-qianfan-sdk-go/types"
)

const (
	// DefaultAuthBaseURL 为 OAuth 鉴权服务地址。
	DefaultAuthBaseURL = "https://aip.baidubce.com"

	// DefaultMinRefreshInterval 为两次刷新之间的最小间隔，
	// 防止凭据失效时出现刷新风暴。
	DefaultMinRefreshInterval = time.Minute

	// tokenExpireMargin 提前视为过期的余量，避免用到临界 token。
	tokenExpireMargin = 10 * time.Minute

	tokenCacheKeyPrefix = "qianfan:token:"
)

// tokenEntry 为单个凭据的 token 状态。entry 级别的锁把并发刷新收敛为一次。
type tokenEntry struct {
	mu          sync.Mutex
	token       string
	expireAt    time.Time
	lastRefresh time.Time
}

// Manager exchanges AK/SK pairs for access tokens and caches them
// per credential. One Manager per process is the intended shape; use
// GlobalManager unless tests need isolation.
type Manager struct {
	mu      sync.Mutex
	entries map[string]*tokenEntry

	store       cache.Store
	client      *http.Client
	baseURL     string
	minInterval time.Duration
	logger      *zap.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithBaseURL 覆盖鉴权服务地址（测试用）。
func WithBaseURL(u string) ManagerOption {
	return func(m *Manager) { m.baseURL = u }
}

// WithStore 设置 token 缓存后端。
func WithStore(s cache.Store) ManagerOption {
	return func(m *Manager) { m.store = s }
}

// WithHTTPClient 覆盖 HTTP 客户端。
func WithHTTPClient(c *http.Client) ManagerOption {
	return func(m *Manager) { m.client = c }
}

// WithMinRefreshInterval 覆盖最小刷新间隔。
func WithMinRefreshInterval(d time.Duration) ManagerOption {
	return func(m *Manager) { m.minInterval = d }
}

// WithLogger 设置日志器。
func WithLogger(l *zap.Logger) ManagerOption {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a token manager.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		entries:     make(map[string]*tokenEntry),
		store:       cache.NewMemoryStore(24 * time.Hour),
		client:      &http.Client{Timeout: 30 * time.Second},
		baseURL:     DefaultAuthBaseURL,
		minInterval: DefaultMinRefreshInterval,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	m.logger = m.logger.With(zap.String("component", "auth"))
	return m
}

var (
	globalManager     *Manager
	globalManagerOnce sync.Once
)

// GlobalManager returns the process-wide token manager.
func GlobalManager() *Manager {
	globalManagerOnce.Do(func() {
		globalManager = NewManager()
	})
	return globalManager
}

func (m *Manager) entry(cred Credential) *tokenEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := cred.CacheKey()
	e, ok := m.entries[key]
	if !ok {
		e = &tokenEntry{}
		m.entries[key] = e
	}
	return e
}

// GetToken returns a valid access token for cred, fetching or refreshing
// as needed.
func (m *Manager) GetToken(ctx context.Context, cred Credential) (string, error) {
	if !cred.Valid() {
		return "", fmt.Errorf("auth: both access key and secret key are required")
	}

	e := m.entry(cred)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.token != "" && time.Now().Before(e.expireAt) {
		return e.token, nil
	}

	// 先查共享缓存，别的进程可能已经刷新过了
	if tok, expireAt, ok := m.loadCached(ctx, cred); ok {
		e.token, e.expireAt = tok, expireAt
		return e.token, nil
	}

	return m.refreshLocked(ctx, cred, e)
}

// RefreshToken forces a refresh after the API reported the token invalid
// or expired. Inside the minimum refresh window the current token is
// returned unchanged and the caller's API error stands.
func (m *Manager) RefreshToken(ctx context.Context, cred Credential) (string, error) {
	if !cred.Valid() {
		return "", fmt.Errorf("auth: both access key and secret key are required")
	}

	e := m.entry(cred)
	e.mu.Lock()
	defer e.mu.Unlock()

	if time.Since(e.lastRefresh) < m.minInterval {
		m.logger.Debug("token refresh suppressed inside minimum interval",
			zap.Duration("since_last", time.Since(e.lastRefresh)))
		if e.token != "" {
			return e.token, nil
		}
		return "", fmt.Errorf("auth: token refresh throttled, retry after %s", m.minInterval)
	}

	return m.refreshLocked(ctx, cred, e)
}

// refreshLocked 执行实际的 token 换取，调用方必须已持有 entry 锁。
func (m *Manager) refreshLocked(ctx context.Context, cred Credential, e *tokenEntry) (string, error) {
	if time.Since(e.lastRefresh) < m.minInterval && e.token != "" {
		return e.token, nil
	}
	e.lastRefresh = time.Now()

	token, expiresIn, err := m.fetchToken(ctx, cred)
	if err != nil {
		m.logger.Warn("token fetch failed", zap.Error(err))
		return "", err
	}

	ttl := time.Duration(expiresIn) * time.Second
	expireAt := time.Now().Add(ttl - tokenExpireMargin)
	e.token, e.expireAt = token, expireAt

	m.storeCached(ctx, cred, token, expireAt, ttl)
	m.logger.Info("access token refreshed", zap.Duration("expires_in", ttl))
	return token, nil
}

type oauthResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`

	ErrorCode   string `json:"error"`
	Description string `json:"error_description"`
}

func (m *Manager) fetchToken(ctx context.Context, cred Credential) (string, int64, error) {
	q := url.Values{}
	q.Set("grant_type", "client_credentials")
	q.Set("client_id", cred.AccessKey)
	q.Set("client_secret", cred.SecretKey)
	endpoint := m.baseURL + "/oauth/2.0/token?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return "", 0, err
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return "", 0, &types.TransportError{Err: err}
	}
	defer resp.Body.Close()

	var body oauthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", 0, &types.TransportError{Err: err}
	}
	if body.ErrorCode != "" {
		return "", 0, &types.AuthError{ErrorCode: body.ErrorCode, Description: body.Description}
	}
	if body.AccessToken == "" {
		return "", 0, fmt.Errorf("auth: empty access token in response (status %d)", resp.StatusCode)
	}
	return body.AccessToken, body.ExpiresIn, nil
}

type cachedToken struct {
	Token    string    `json:"token"`
	ExpireAt time.Time `json:"expire_at"`
}

func (m *Manager) loadCached(ctx context.Context, cred Credential) (string, time.Time, bool) {
	raw, err := m.store.Get(ctx, tokenCacheKeyPrefix+cred.CacheKey())
	if err != nil {
		if !cache.IsCacheMiss(err) {
			m.logger.Warn("token cache read failed", zap.Error(err))
		}
		return "", time.Time{}, false
	}
	var ct cachedToken
	if err := json.Unmarshal([]byte(raw), &ct); err != nil {
		return "", time.Time{}, false
	}
	if ct.Token == "" || time.Now().After(ct.ExpireAt) {
		return "", time.Time{}, false
	}
	return ct.Token, ct.ExpireAt, true
}

func (m *Manager) storeCached(ctx context.Context, cred Credential, token string, expireAt time.Time, ttl time.Duration) {
	data, err := json.Marshal(cachedToken{Token: token, ExpireAt: expireAt})
	if err != nil {
		return
	}
	if err := m.store.Set(ctx, tokenCacheKeyPrefix+cred.CacheKey(), string(data), ttl); err != nil {
		m.logger.Warn("token cache write failed", zap.Error(err))
	}
}
