// Package loop provides the single-threaded cooperative event loop the
// querysync core runs on.
//
// Every task posted to a Loop runs to completion before the next one
// starts, so state owned by the loop needs no further locking. A "turn"
// is one task. Defer queues work for a later turn, the way a zero-delay
// timer does in a browser, and After does the same once a delay has
// elapsed on the loop's Clock.
//
// Example:
//
//	l := loop.New()
//	go l.Run(ctx)
//
//	l.Post(func() {
//	    l.Defer(func() { fmt.Println("second") })
//	    fmt.Println("first")
//	})
package loop

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultQueueSize is the initial capacity of the task queue.
const DefaultQueueSize = 64

// Loop runs tasks one at a time in FIFO order.
type Loop struct {
	clock  Clock
	logger *slog.Logger

	mu    sync.Mutex
	queue []*task
	wake  chan struct{}

	stopped atomic.Bool
}

type task struct {
	fn        func()
	cancelled atomic.Bool
}

// Handle refers to a deferred or delayed task.
type Handle struct {
	t     *task
	timer Timer
}

// Cancel prevents the task from running if it has not run yet.
// Calling Cancel on a nil Handle is a no-op.
func (h *Handle) Cancel() {
	if h == nil {
		return
	}
	h.t.cancelled.Store(true)
	if h.timer != nil {
		h.timer.Stop()
	}
}

// Option configures a Loop.
type Option func(*Loop)

// WithClock sets the clock used by After. Default: SystemClock().
func WithClock(c Clock) Option {
	return func(l *Loop) {
		if c != nil {
			l.clock = c
		}
	}
}

// WithLogger sets the logger used to report task panics.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithQueueSize sets the initial capacity of the task queue.
func WithQueueSize(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.queue = make([]*task, 0, n)
		}
	}
}

// New creates a Loop. It does nothing until Run or RunUntilIdle is called.
func New(opts ...Option) *Loop {
	l := &Loop{
		clock:  SystemClock(),
		logger: slog.Default().With("component", "loop"),
		queue:  make([]*task, 0, DefaultQueueSize),
		wake:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Clock returns the loop's clock.
func (l *Loop) Clock() Clock {
	return l.clock
}

// Post queues fn to run on the loop. Safe to call from any goroutine.
func (l *Loop) Post(fn func()) {
	l.enqueue(&task{fn: fn})
}

// Defer queues fn for a later turn and returns a handle that can cancel it.
// Tasks already queued run first.
func (l *Loop) Defer(fn func()) *Handle {
	t := &task{fn: fn}
	l.enqueue(t)
	return &Handle{t: t}
}

// After queues fn on the loop once d has elapsed on the loop's clock.
// A non-positive d behaves like Defer.
func (l *Loop) After(d time.Duration, fn func()) *Handle {
	if d <= 0 {
		return l.Defer(fn)
	}
	t := &task{fn: fn}
	h := &Handle{t: t}
	h.timer = l.clock.AfterFunc(d, func() {
		if !t.cancelled.Load() {
			l.enqueue(t)
		}
	})
	return h
}

// Len returns the number of queued tasks, cancelled ones included.
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

func (l *Loop) enqueue(t *task) {
	if l.stopped.Load() {
		return
	}
	l.mu.Lock()
	l.queue = append(l.queue, t)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loop) pop() *task {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil
	}
	t := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return t
}

// Run processes tasks on the calling goroutine until ctx is done or Stop
// is called. It returns ctx.Err() when the context ends the loop.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if l.stopped.Load() {
			return nil
		}
		if t := l.pop(); t != nil {
			l.execute(t)
			continue
		}
		select {
		case <-l.wake:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RunUntilIdle runs queued tasks on the calling goroutine until the queue
// is empty and returns how many ran. Timers that are not due yet are not
// waited for. It must not be used while Run is active.
func (l *Loop) RunUntilIdle() int {
	n := 0
	for {
		t := l.pop()
		if t == nil {
			return n
		}
		if l.execute(t) {
			n++
		}
	}
}

// Stop makes Run return and drops tasks posted afterwards.
func (l *Loop) Stop() {
	l.stopped.Store(true)
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// execute runs one task with panic recovery.
func (l *Loop) execute(t *task) (ran bool) {
	if t.cancelled.Load() {
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("task panic",
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	t.fn()
	return true
}
