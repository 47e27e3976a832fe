package trainer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrStopped is returned by Run when the pipeline was stopped before
// all actions completed.
var ErrStopped = errors.New("trainer: pipeline stopped")

// Pipeline runs actions strictly in order. Each action emits
// Preceding / Running then Done or Error events; completed actions are
// recorded in the state snapshot so Run can resume after a restart.
type Pipeline struct {
	actions    []Action
	dispatcher *Dispatcher
	state      *State
	logger     *zap.Logger

	runDir string

	stopCtx  context.Context
	stopFunc context.CancelFunc
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithLogger 设置日志器。
func WithLogger(l *zap.Logger) PipelineOption {
	return func(p *Pipeline) { p.logger = l }
}

// WithRunDir 覆盖运行状态快照目录。
func WithRunDir(dir string) PipelineOption {
	return func(p *Pipeline) { p.runDir = dir }
}

// WithState resumes from a previously saved run state instead of
// starting a fresh run.
func WithState(s *State) PipelineOption {
	return func(p *Pipeline) { p.state = s }
}

// WithDispatcher 覆盖事件分发器。
func WithDispatcher(d *Dispatcher) PipelineOption {
	return func(p *Pipeline) { p.dispatcher = d }
}

// NewPipeline creates a pipeline over actions.
func NewPipeline(actions []Action, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		actions:    actions,
		dispatcher: NewDispatcher(),
		logger:     zap.NewNop(),
		runDir:     DefaultRunDir(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	p.logger = p.logger.With(zap.String("component", "trainer"))

	if p.state == nil {
		p.state = &State{
			RunID:     uuid.NewString(),
			StartedAt: time.Now(),
		}
	}
	p.stopCtx, p.stopFunc = context.WithCancel(context.Background())
	return p
}

// RunID returns the identifier of this run, used for resume.
func (p *Pipeline) RunID() string { return p.state.RunID }

// State returns the current run state.
func (p *Pipeline) State() *State { return p.state }

// OnEvent registers an event handler.
func (p *Pipeline) OnEvent(h EventHandler) { p.dispatcher.Register(h) }

// Stop requests the pipeline to stop. The request is observed at
// action boundaries and inside the actions' polling loops.
func (p *Pipeline) Stop() { p.stopFunc() }

// Run executes the actions in order, skipping the ones the state
// already marks completed. The snapshot is rewritten after every
// finished action.
func (p *Pipeline) Run(ctx context.Context) error {
	ctx, cancel := mergeContexts(ctx, p.stopCtx)
	defer cancel()

	for _, action := range p.actions {
		if p.state.Done(action.Name()) {
			p.logger.Info("跳过已完成的动作",
				zap.String("run_id", p.state.RunID),
				zap.String("action", action.Name()),
			)
			continue
		}

		// 动作边界检查停止请求。stopCtx 直接查，不依赖合并
		// goroutine 的取消时序。
		if ctx.Err() != nil || p.stopCtx.Err() != nil {
			return fmt.Errorf("%w: before %s", ErrStopped, action.Name())
		}

		p.dispatcher.Dispatch(Event{RunID: p.state.RunID, Action: action.Name(), Type: EventPreceding})
		p.logger.Info("动作开始",
			zap.String("run_id", p.state.RunID),
			zap.String("action", action.Name()),
		)
		p.dispatcher.Dispatch(Event{RunID: p.state.RunID, Action: action.Name(), Type: EventRunning})

		if err := action.Run(ctx, p.state); err != nil {
			p.dispatcher.Dispatch(Event{RunID: p.state.RunID, Action: action.Name(), Type: EventError, Err: err})
			p.logger.Error("动作失败",
				zap.String("run_id", p.state.RunID),
				zap.String("action", action.Name()),
				zap.Error(err),
			)
			if ctx.Err() != nil || p.stopCtx.Err() != nil {
				return fmt.Errorf("%w: during %s", ErrStopped, action.Name())
			}
			return fmt.Errorf("trainer: action %s: %w", action.Name(), err)
		}

		p.state.markDone(action.Name())
		if err := p.state.Save(p.runDir); err != nil {
			p.logger.Warn("运行状态落盘失败", zap.Error(err))
		}
		p.dispatcher.Dispatch(Event{RunID: p.state.RunID, Action: action.Name(), Type: EventDone})
	}
	return nil
}

// Resume loads the saved state of runID and returns a pipeline that
// continues from the first unfinished action.
func Resume(runDir, runID string, actions []Action, opts ...PipelineOption) (*Pipeline, error) {
	state, err := LoadState(runDir, runID)
	if err != nil {
		return nil, err
	}
	opts = append(opts, WithState(state), WithRunDir(runDir))
	return NewPipeline(actions, opts...), nil
}

// mergeContexts 返回在任一输入取消时取消的 context。
func mergeContexts(a, b context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(a)
	go func() {
		select {
		case <-b.Done():
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
