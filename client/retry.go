package client

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/baidubce/bce-qianfan-sdk-go/config"
	"github.com/baidubce/bce-qianfan-sdk-go/types"
)

// retryPolicy 定义重试策略配置
type retryPolicy struct {
	maxRetries   int           // 最大重试次数（0 表示不重试）
	initialDelay time.Duration // 初始延迟时间
	maxDelay     time.Duration // 最大延迟时间
	multiplier   float64       // 延迟时间倍增因子（指数退避）
	jitter       bool          // 是否添加随机抖动（防止雪崩）
}

func policyFromConfig(cfg config.RetryConfig) *retryPolicy {
	p := &retryPolicy{
		maxRetries:   cfg.Count,
		initialDelay: cfg.InitialDelay,
		maxDelay:     cfg.MaxDelay,
		multiplier:   cfg.Multiplier,
		jitter:       cfg.Jitter,
	}
	if p.maxRetries < 0 {
		p.maxRetries = 0
	}
	if p.initialDelay <= 0 {
		p.initialDelay = time.Second
	}
	if p.maxDelay <= 0 {
		p.maxDelay = 30 * time.Second
	}
	if p.multiplier < 1.0 {
		p.multiplier = 2.0
	}
	return p
}

// do 执行 fn，失败且错误可重试时按策略退避重试。
// 可重试性由 types.IsRetryable 判定：可重试的 API 错误码或传输层错误。
// onRetry 在每次重试前调用，可为 nil。
func (p *retryPolicy) do(ctx context.Context, logger *zap.Logger, onRetry func(attempt int, err error), fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		// 第一次执行不延迟
		if attempt > 0 {
			delay := p.calculateDelay(attempt)

			logger.Debug("重试中",
				zap.Int("attempt", attempt),
				zap.Int("max_retries", p.maxRetries),
				zap.Duration("delay", delay),
				zap.Error(lastErr),
			)

			if onRetry != nil {
				onRetry(attempt, lastErr)
			}

			// 等待延迟，同时监听 context 取消
			select {
			case <-ctx.Done():
				return fmt.Errorf("retry canceled: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		lastErr = fn()
		if lastErr == nil {
			if attempt > 0 {
				logger.Info("重试成功", zap.Int("attempt", attempt))
			}
			return nil
		}

		if !types.IsRetryable(lastErr) {
			return lastErr
		}

		if attempt >= p.maxRetries {
			break
		}
	}

	logger.Warn("重试次数耗尽",
		zap.Int("attempts", p.maxRetries+1),
		zap.Error(lastErr),
	)
	return fmt.Errorf("request failed after %d retries: %w", p.maxRetries, lastErr)
}

// calculateDelay 计算延迟时间
// 使用指数退避算法 + 可选的随机抖动
func (p *retryPolicy) calculateDelay(attempt int) time.Duration {
	// 指数退避：delay = initial * multiplier^(attempt-1)
	delay := float64(p.initialDelay) * math.Pow(p.multiplier, float64(attempt-1))

	if delay > float64(p.maxDelay) {
		delay = float64(p.maxDelay)
	}

	// 随机抖动 ±25%，防止多个客户端同时重试
	if p.jitter {
		jitter := delay * 0.25
		delay = delay + (rand.Float64()*2-1)*jitter
	}

	if delay < float64(p.initialDelay) {
		delay = float64(p.initialDelay)
	}

	return time.Duration(delay)
}
