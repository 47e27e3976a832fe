package client

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/baidubce/bce-qianfan-sdk-go/auth"
	"github.com/baidubce/bce-qianfan-sdk-go/config"
	"github.com/baidubce/bce-qianfan-sdk-go/internal/cache"
	"github.com/baidubce/bce-qianfan-sdk-go/internal/metrics"
	"github.com/baidubce/bce-qianfan-sdk-go/ratelimit"
)

// Client is the entry point of the SDK. It is safe for concurrent use;
// create one per credential pair and share it.
type Client struct {
	cfg        *config.Config
	cred       auth.Credential
	httpClient *http.Client
	tokens     *auth.Manager
	limiter    *ratelimit.Limiter
	policy     *retryPolicy
	collector  *metrics.Collector
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger 设置日志器。
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithHTTPClient 覆盖 HTTP 客户端。
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithTokenManager 覆盖 token 管理器（测试用，默认进程级单例）。
func WithTokenManager(m *auth.Manager) Option {
	return func(c *Client) { c.tokens = m }
}

// WithCollector 覆盖指标收集器。
func WithCollector(col *metrics.Collector) Option {
	return func(c *Client) { c.collector = col }
}

// New creates a Client from cfg. Credentials may be absent when only
// constructing the client; every call that needs them fails with a clear
// error instead.
func New(cfg *config.Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		cfg:    cfg,
		cred:   auth.Credential{AccessKey: cfg.AccessKey, SecretKey: cfg.SecretKey},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	c.logger = c.logger.With(zap.String("component", "client"))

	if c.httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		c.httpClient = &http.Client{Timeout: timeout}
	}

	if c.tokens == nil {
		mgrOpts := []auth.ManagerOption{
			auth.WithBaseURL(cfg.AuthBaseURL),
			auth.WithLogger(c.logger),
		}
		if cfg.Redis.Enabled {
			store, err := cache.NewRedisStore(cache.RedisConfig{
				Addr:       cfg.Redis.Addr,
				Password:   cfg.Redis.Password,
				DB:         cfg.Redis.DB,
				DefaultTTL: 24 * time.Hour,
				MaxRetries: 3,
				PoolSize:   10,
			}, c.logger)
			if err != nil {
				return nil, err
			}
			mgrOpts = append(mgrOpts, auth.WithStore(store))
		}
		c.tokens = auth.NewManager(mgrOpts...)
	}

	c.limiter = ratelimit.New(ratelimit.Config{
		QPS:         cfg.RateLimit.QPS,
		RPM:         cfg.RateLimit.RPM,
		BufferRatio: cfg.RateLimit.BufferRatio,
	}, c.logger)

	c.policy = policyFromConfig(cfg.Retry)
	if c.collector == nil {
		c.collector = metrics.Default()
	}

	return c, nil
}

// Config returns the client configuration.
func (c *Client) Config() *config.Config { return c.cfg }

// Credential returns the client credential pair.
func (c *Client) Credential() auth.Credential { return c.cred }
