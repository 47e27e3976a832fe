package ratelimit

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLimiter_Unlimited(t *testing.T) {
	l := New(Config{}, zap.NewNop())

	start := time.Now()
	for i := 0; i < 100; i++ {
		require.NoError(t, l.Wait(context.Background()))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond, "不限流时不应阻塞")
	assert.Equal(t, 0, l.RPMCap())
}

func TestLimiter_QPSBlocks(t *testing.T) {
	// 10 QPS、无余量：第 11 次之后必须等待
	l := New(Config{QPS: 10}, zap.NewNop())

	start := time.Now()
	for i := 0; i < 15; i++ {
		require.NoError(t, l.Wait(context.Background()))
	}
	assert.GreaterOrEqual(t, time.Since(start), 400*time.Millisecond)
}

func TestLimiter_ContextCancel(t *testing.T) {
	l := New(Config{QPS: 0.001}, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// 耗尽突发额度
	require.NoError(t, l.Wait(context.Background()))

	err := l.Wait(ctx)
	assert.Error(t, err, "等待期间取消应返回错误")
}

func TestLimiter_BufferRatio(t *testing.T) {
	l := New(Config{QPS: 100, BufferRatio: 2}, zap.NewNop())
	require.NoError(t, l.Wait(context.Background()), "非法 buffer ratio 应退回 0")

	l = New(Config{RPM: 600, BufferRatio: 0.5}, zap.NewNop())
	assert.Equal(t, 600, l.RPMCap())
}

func TestLimiter_UpdateFromHeader(t *testing.T) {
	l := New(Config{RPM: 600}, zap.NewNop())

	h := http.Header{}
	h.Set(HeaderLimitRequests, "120")
	l.UpdateFromHeader(h)
	assert.Equal(t, 120, l.RPMCap())

	// 只生效一次
	h.Set(HeaderLimitRequests, "30")
	l.UpdateFromHeader(h)
	assert.Equal(t, 120, l.RPMCap())
}

func TestLimiter_UpdateFromHeader_OnlyTightens(t *testing.T) {
	l := New(Config{RPM: 60}, zap.NewNop())

	h := http.Header{}
	h.Set(HeaderLimitRequests, "6000")
	l.UpdateFromHeader(h)
	assert.Equal(t, 60, l.RPMCap(), "更宽松的上报值不应放大本地限额")
}

func TestLimiter_UpdateFromHeader_Garbage(t *testing.T) {
	l := New(Config{RPM: 60}, zap.NewNop())

	h := http.Header{}
	h.Set(HeaderLimitRequests, "not-a-number")
	l.UpdateFromHeader(h)
	assert.Equal(t, 60, l.RPMCap())

	h.Set(HeaderLimitRequests, "-5")
	l.UpdateFromHeader(h)
	assert.Equal(t, 60, l.RPMCap())
}
