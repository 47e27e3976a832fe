// Package batch 在客户端之上做有界并发的批量推理。
//
// 每个条目的结果按输入顺序返回，单条失败不会中断整批，
// 只有 context 取消才会提前终止。
package batch

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/baidubce/bce-qianfan-sdk-go/client"
	"github.com/baidubce/bce-qianfan-sdk-go/types"
)

// DefaultWorkers 为默认并发度。
const DefaultWorkers = 4

// Result 为一条输入的推理结果，Index 对应输入下标。
type Result struct {
	Index    int
	Response *types.ModelResponse
	Err      error
	Elapsed  time.Duration
}

// EmbeddingResult 为一组输入文本的向量结果。
type EmbeddingResult struct {
	Index     int
	Embedding []float64
	Err       error
}

// Stats 为一次批量运行的计数快照。
type Stats struct {
	Submitted int64
	Succeeded int64
	Failed    int64
}

// Runner fans requests out over the client with bounded concurrency.
// A Runner is stateless between runs and safe for concurrent use.
type Runner struct {
	client  *client.Client
	workers int
	logger  *zap.Logger

	submitted atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
}

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers 设置并发度。
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithLogger 设置日志器。
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// NewRunner creates a batch runner over c.
func NewRunner(c *client.Client, opts ...Option) *Runner {
	r := &Runner{
		client:  c,
		workers: DefaultWorkers,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	r.logger = r.logger.With(zap.String("component", "batch"))
	return r
}

// Stats returns the counters accumulated over the Runner's lifetime.
func (r *Runner) Stats() Stats {
	return Stats{
		Submitted: r.submitted.Load(),
		Succeeded: r.succeeded.Load(),
		Failed:    r.failed.Load(),
	}
}

// ChatCompletion runs every request against model/endpoint and returns
// results in input order. ctx cancellation aborts pending items; their
// results carry the context error.
func (r *Runner) ChatCompletion(ctx context.Context, model, endpoint string, reqs []*types.ChatRequest) []Result {
	return r.run(ctx, len(reqs), func(ctx context.Context, i int) (*types.ModelResponse, error) {
		return r.client.ChatCompletion(ctx, model, endpoint, reqs[i])
	})
}

// Completion runs every prompt against model/endpoint in input order.
func (r *Runner) Completion(ctx context.Context, model, endpoint string, reqs []*types.CompletionRequest) []Result {
	return r.run(ctx, len(reqs), func(ctx context.Context, i int) (*types.ModelResponse, error) {
		return r.client.Completion(ctx, model, endpoint, reqs[i])
	})
}

func (r *Runner) run(ctx context.Context, n int, call func(ctx context.Context, i int) (*types.ModelResponse, error)) []Result {
	runID := uuid.NewString()
	results := make([]Result, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	start := time.Now()
	for i := 0; i < n; i++ {
		i := i
		r.submitted.Add(1)
		g.Go(func() error {
			itemStart := time.Now()
			resp, err := call(gctx, i)
			results[i] = Result{
				Index:    i,
				Response: resp,
				Err:      err,
				Elapsed:  time.Since(itemStart),
			}
			if err != nil {
				r.failed.Add(1)
				r.logger.Warn("批量条目失败",
					zap.String("run_id", runID),
					zap.Int("index", i),
					zap.Error(err),
				)
				// 单条失败不终止整批
				return nil
			}
			r.succeeded.Add(1)
			return nil
		})
	}
	g.Wait()

	r.logger.Info("批量运行完成",
		zap.String("run_id", runID),
		zap.Int("total", n),
		zap.Duration("elapsed", time.Since(start)),
	)
	return results
}

// embeddingChunkSize 为平台单次 embedding 调用的输入上限。
const embeddingChunkSize = 16

// Embedding computes one vector per input text, chunking inputs into
// platform-sized embedding calls and fanning the chunks out.
func (r *Runner) Embedding(ctx context.Context, model, endpoint string, inputs []string) []EmbeddingResult {
	results := make([]EmbeddingResult, len(inputs))
	for i := range results {
		results[i].Index = i
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for offset := 0; offset < len(inputs); offset += embeddingChunkSize {
		offset := offset
		end := offset + embeddingChunkSize
		if end > len(inputs) {
			end = len(inputs)
		}
		chunk := inputs[offset:end]

		r.submitted.Add(1)
		g.Go(func() error {
			resp, err := r.client.Embedding(gctx, model, endpoint, &types.EmbeddingRequest{Input: chunk})
			if err != nil {
				r.failed.Add(1)
				for i := offset; i < end; i++ {
					results[i].Err = err
				}
				return nil
			}
			r.succeeded.Add(1)
			for _, d := range resp.Data {
				if d.Index >= 0 && d.Index < len(chunk) {
					results[offset+d.Index].Embedding = d.Embedding
				}
			}
			return nil
		})
	}
	g.Wait()
	return results
}
