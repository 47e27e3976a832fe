// Package trainer 把「加载数据 → 训练 → 发布 → 部署 → 评估」编排为
// 顺序动作流水线：每个动作对远端控制台发起调用并轮询状态，动作的
// 生命周期通过事件分发器对外可见，运行状态落盘，可从中断处恢复。
package trainer

import (
	"sync"
	"time"
)

// EventType 为动作生命周期阶段。
type EventType string

const (
	EventPreceding EventType = "preceding"
	EventRunning   EventType = "running"
	EventDone      EventType = "done"
	EventError     EventType = "error"
)

// Event 为一次动作生命周期通知。
type Event struct {
	RunID  string
	Action string
	Type   EventType
	Time   time.Time
	Err    error
}

// EventHandler consumes pipeline events. Handlers run synchronously on
// the pipeline goroutine and must not block.
type EventHandler func(Event)

// Dispatcher fans events out to registered handlers.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers []EventHandler
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Register adds a handler.
func (d *Dispatcher) Register(h EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = append(d.handlers, h)
}

// Dispatch delivers ev to every handler in registration order.
func (d *Dispatcher) Dispatch(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	d.mu.RLock()
	handlers := d.handlers
	d.mu.RUnlock()
	for _, h := range handlers {
		h(ev)
	}
}
