// Package mapview is a headless map widget: viewport state, panes, layers
// and events, all driven by a single-threaded event loop.
package mapview

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrLoopClosed is returned when work is posted to a closed loop.
var ErrLoopClosed = errors.New("event loop closed")

// Loop runs tasks one at a time on a single goroutine. Map, layer and timer
// code only ever runs inside a task, so none of it needs locking.
type Loop struct {
	tasks  chan func()
	quit   chan struct{}
	once   sync.Once
	logger zerolog.Logger
}

// NewLoop creates a loop. Call Run to start processing tasks.
func NewLoop(logger zerolog.Logger) *Loop {
	return &Loop{
		tasks:  make(chan func(), 256),
		quit:   make(chan struct{}),
		logger: logger,
	}
}

// Run processes tasks until ctx is done or Close is called.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			l.Close()
			return ctx.Err()
		case <-l.quit:
			return nil
		case fn := <-l.tasks:
			l.exec(fn)
		}
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error().Interface("panic", r).Msg("event loop task panicked")
		}
	}()
	fn()
}

// Post queues fn without waiting. It reports false if the loop is closed.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.quit:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	case <-l.quit:
		return false
	}
}

// Do runs fn on the loop and waits for it to finish. It must not be called
// from inside a loop task.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if !l.Post(func() {
		defer close(done)
		fn()
	}) {
		return ErrLoopClosed
	}
	select {
	case <-done:
		return nil
	case <-l.quit:
		return ErrLoopClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the loop. Queued tasks are dropped.
func (l *Loop) Close() {
	l.once.Do(func() { close(l.quit) })
}

// Closed reports whether Close has been called.
func (l *Loop) Closed() bool {
	select {
	case <-l.quit:
		return true
	default:
		return false
	}
}

// Timer is a one-shot callback delivered on the loop.
type Timer struct {
	t       *time.Timer
	stopped bool
}

// After schedules fn on the loop after d. Must be called from a loop task.
func (l *Loop) After(d time.Duration, fn func()) *Timer {
	tm := &Timer{}
	tm.t = time.AfterFunc(d, func() {
		l.Post(func() {
			if tm.stopped {
				return
			}
			tm.stopped = true
			fn()
		})
	})
	return tm
}

// Stop cancels the timer. A stopped timer never runs its callback, even if
// the fire was already queued. Must be called from a loop task.
func (t *Timer) Stop() {
	if t == nil {
		return
	}
	t.stopped = true
	t.t.Stop()
}

// Pending reports whether the timer has neither fired nor been stopped.
func (t *Timer) Pending() bool {
	return t != nil && !t.stopped
}
