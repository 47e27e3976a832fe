// Package ratelimit implements the client-side request limiter: a QPS
// bucket and an RPM bucket sharing a buffer ratio, with a one-shot
// adjustment from the platform's rate-limit response headers.
package ratelimit

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// HeaderLimitRequests 为平台返回的 RPM 上限响应头。
const HeaderLimitRequests = "X-Ratelimit-Limit-Requests"

// Config configures a Limiter. Zero or negative limits mean unlimited.
type Config struct {
	// 每秒请求数上限
	QPS float64 `yaml:"qps" json:"qps"`
	// 每分钟请求数上限
	RPM int `yaml:"rpm" json:"rpm"`
	// 保留比例：实际可用额度 = 配置额度 × (1 - BufferRatio)
	BufferRatio float64 `yaml:"buffer_ratio" json:"buffer_ratio"`
}

// DefaultConfig 返回默认限流配置（不限流，保留 10% 余量）。
func DefaultConfig() Config {
	return Config{BufferRatio: 0.1}
}

// Limiter gates outbound requests on both a QPS and an RPM budget.
type Limiter struct {
	mu     sync.Mutex
	qps    *rate.Limiter // nil 表示不限
	rpm    *rate.Limiter
	rpmCap int // 当前生效的 RPM 额度（未打折前），0 表示不限

	buffer        float64
	headerApplied bool
	logger        *zap.Logger
}

// New creates a Limiter from cfg.
func New(cfg Config, logger *zap.Logger) *Limiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BufferRatio < 0 || cfg.BufferRatio >= 1 {
		cfg.BufferRatio = 0
	}

	l := &Limiter{
		buffer: cfg.BufferRatio,
		logger: logger.With(zap.String("component", "ratelimit")),
	}
	if cfg.QPS > 0 {
		eff := cfg.QPS * (1 - cfg.BufferRatio)
		l.qps = rate.NewLimiter(rate.Limit(eff), burstFor(eff))
	}
	if cfg.RPM > 0 {
		l.rpmCap = cfg.RPM
		eff := float64(cfg.RPM) * (1 - cfg.BufferRatio) / 60.0
		l.rpm = rate.NewLimiter(rate.Limit(eff), burstFor(eff))
	}
	return l
}

func burstFor(perSecond float64) int {
	b := int(math.Ceil(perSecond))
	if b < 1 {
		b = 1
	}
	return b
}

// Wait blocks until both budgets admit one request, or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	qps, rpm := l.qps, l.rpm
	l.mu.Unlock()

	if qps != nil {
		if err := qps.Wait(ctx); err != nil {
			return err
		}
	}
	if rpm != nil {
		if err := rpm.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

// UpdateFromHeader applies the platform-reported RPM cap. Only the first
// observation takes effect, and only if it tightens the configured limit.
func (l *Limiter) UpdateFromHeader(h http.Header) {
	raw := h.Get(HeaderLimitRequests)
	if raw == "" {
		return
	}
	reported, err := strconv.Atoi(raw)
	if err != nil || reported <= 0 {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.headerApplied {
		return
	}
	l.headerApplied = true

	if l.rpmCap > 0 && reported >= l.rpmCap {
		return
	}
	l.rpmCap = reported
	eff := float64(reported) * (1 - l.buffer) / 60.0
	l.rpm = rate.NewLimiter(rate.Limit(eff), burstFor(eff))
	l.logger.Info("rpm limit adjusted from response header", zap.Int("rpm", reported))
}

// RPMCap returns the configured or header-reported RPM cap before the
// buffer ratio is applied, 0 when unlimited.
func (l *Limiter) RPMCap() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rpmCap
}
