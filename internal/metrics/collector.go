// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器
type Collector struct {
	// API 请求指标
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestRetries  *prometheus.CounterVec

	// Token 用量指标
	tokensUsed *prometheus.CounterVec

	// 鉴权指标
	tokenRefreshTotal *prometheus.CounterVec

	// 限流指标
	rateLimitWaits prometheus.Counter
}

// NewCollector 创建指标收集器并注册到 reg。
// reg 为 nil 时使用独立的 Registry，便于测试隔离。
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	c := &Collector{}

	c.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of Qianfan API requests",
		},
		[]string{"endpoint", "status"},
	)

	c.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Qianfan API request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"endpoint"},
	)

	c.requestRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "request_retries_total",
			Help:      "Total number of request retries",
		},
		[]string{"endpoint"},
	)

	c.tokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_used_total",
			Help:      "Total number of tokens consumed",
		},
		[]string{"endpoint", "type"},
	)

	c.tokenRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_refresh_total",
			Help:      "Total number of access token refreshes",
		},
		[]string{"status"},
	)

	c.rateLimitWaits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_waits_total",
			Help:      "Total number of requests delayed by the local rate limiter",
		},
	)

	reg.MustRegister(
		c.requestsTotal,
		c.requestDuration,
		c.requestRetries,
		c.tokensUsed,
		c.tokenRefreshTotal,
		c.rateLimitWaits,
	)

	return c
}

// ObserveRequest 记录一次 API 请求
func (c *Collector) ObserveRequest(endpoint, status string, duration time.Duration) {
	c.requestsTotal.WithLabelValues(endpoint, status).Inc()
	c.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// ObserveRetry 记录一次重试
func (c *Collector) ObserveRetry(endpoint string) {
	c.requestRetries.WithLabelValues(endpoint).Inc()
}

// ObserveTokens 记录 token 用量
func (c *Collector) ObserveTokens(endpoint string, prompt, completion int) {
	if prompt > 0 {
		c.tokensUsed.WithLabelValues(endpoint, "prompt").Add(float64(prompt))
	}
	if completion > 0 {
		c.tokensUsed.WithLabelValues(endpoint, "completion").Add(float64(completion))
	}
}

// ObserveTokenRefresh 记录一次 access token 刷新
func (c *Collector) ObserveTokenRefresh(success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	c.tokenRefreshTotal.WithLabelValues(status).Inc()
}

// ObserveRateLimitWait 记录一次被本地限流延迟的请求
func (c *Collector) ObserveRateLimitWait() {
	c.rateLimitWaits.Inc()
}

// =============================================================================
// 🔧 全局收集器
// =============================================================================

var (
	defaultCollector     *Collector
	defaultCollectorOnce sync.Once
)

// Default 返回注册到默认 Registry 的全局收集器。
func Default() *Collector {
	defaultCollectorOnce.Do(func() {
		defaultCollector = NewCollector("qianfan", prometheus.DefaultRegisterer)
	})
	return defaultCollector
}
