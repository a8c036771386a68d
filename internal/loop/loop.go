// Package loop runs frame ticks and posted tasks on one goroutine, so frame
// state (scene graph, render slot, session state) is never touched
// concurrently and needs no locks.
package loop

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrStopped is returned when posting to a loop that has shut down
var ErrStopped = errors.New("loop: stopped")

// Executor runs fn on the frame goroutine and waits for it to finish
type Executor interface {
	Do(fn func()) error
}

// Inline runs tasks on the calling goroutine. Hosts that drive frames and
// events from a single goroutine, and tests, use it.
type Inline struct{}

// Do runs fn immediately
func (Inline) Do(fn func()) error {
	fn()
	return nil
}

type task struct {
	fn   func()
	done chan struct{}
}

// Loop serializes tasks and ticks.
//
// Do must not be called from the loop goroutine itself (from a tick or a
// task); use Post there.
type Loop struct {
	tasks chan task

	closeOnce sync.Once
	closed    chan struct{}
}

// New creates a loop with room for queue pending tasks
func New(queue int) *Loop {
	if queue < 1 {
		queue = 1
	}
	return &Loop{
		tasks:  make(chan task, queue),
		closed: make(chan struct{}),
	}
}

// Do queues fn and blocks until it ran. A task still queued when the loop
// closes is dropped and ErrStopped is returned.
func (l *Loop) Do(fn func()) error {
	t := task{fn: fn, done: make(chan struct{})}
	select {
	case l.tasks <- t:
	case <-l.closed:
		return ErrStopped
	}
	select {
	case <-t.done:
		return nil
	case <-l.closed:
		return ErrStopped
	}
}

// Post queues fn without waiting
func (l *Loop) Post(fn func()) error {
	select {
	case <-l.closed:
		return ErrStopped
	default:
	}
	select {
	case l.tasks <- task{fn: fn}:
		return nil
	case <-l.closed:
		return ErrStopped
	}
}

// Drain runs every task queued right now and returns how many ran. Hosts
// that own their frame loop call it once per frame from that loop.
func (l *Loop) Drain() int {
	n := 0
	for {
		select {
		case t := <-l.tasks:
			l.run(t)
			n++
		default:
			return n
		}
	}
}

// Run ticks every interval and runs tasks in between until ctx is done,
// then closes the loop.
func (l *Loop) Run(ctx context.Context, interval time.Duration, tick func(now time.Time)) error {
	defer l.Close()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.closed:
			return nil
		case t := <-l.tasks:
			l.run(t)
		case now := <-ticker.C:
			if tick != nil {
				tick(now)
			}
		}
	}
}

// Close stops accepting tasks. Blocked Do callers return ErrStopped.
func (l *Loop) Close() {
	l.closeOnce.Do(func() { close(l.closed) })
}

func (l *Loop) run(t task) {
	t.fn()
	if t.done != nil {
		close(t.done)
	}
}
