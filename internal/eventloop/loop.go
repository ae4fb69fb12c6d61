// Package eventloop runs callbacks one at a time on a single goroutine,
// with one-shot idle callbacks that only run when no events are pending.
package eventloop

import (
	"context"
	"errors"
	"log/slog"
)

var ErrStopped = errors.New("event loop is not running")

const (
	eventQueueSize = 64
	idleQueueSize  = 16
)

type Loop struct {
	events chan func()
	idle   chan func()
	done   chan struct{}
}

func New() *Loop {
	return &Loop{
		events: make(chan func(), eventQueueSize),
		idle:   make(chan func(), idleQueueSize),
		done:   make(chan struct{}),
	}
}

// Run processes callbacks until ctx is done. Pending events always take
// priority over idle callbacks; a callback that has started runs to completion.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	slog.Debug("eventloop: started")

	for {
		select {
		case <-ctx.Done():
			slog.Debug("eventloop: stopped", "reason", ctx.Err())
			return ctx.Err()
		case fn := <-l.events:
			l.dispatch(fn)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			slog.Debug("eventloop: stopped", "reason", ctx.Err())
			return ctx.Err()
		case fn := <-l.events:
			l.dispatch(fn)
		case fn := <-l.idle:
			l.dispatch(fn)
		}
	}
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Post queues fn as an event.
func (l *Loop) Post(fn func()) error {
	select {
	case l.events <- fn:
		return nil
	case <-l.done:
		return ErrStopped
	}
}

// IdleAdd queues fn to run once when the loop has no pending events.
func (l *Loop) IdleAdd(fn func()) error {
	select {
	case l.idle <- fn:
		return nil
	case <-l.done:
		return ErrStopped
	}
}

// Call posts fn and waits for it to finish. ctx only bounds queueing: once fn
// is queued Call waits until it has run or the loop stops, so a nil error
// always means fn ran. It must not be called from inside a loop callback.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	wrapped := func() {
		defer close(finished)
		fn()
	}

	select {
	case l.events <- wrapped:
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-l.done:
		select {
		case <-finished:
			return nil
		default:
			return ErrStopped
		}
	}
}

func (l *Loop) dispatch(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("eventloop: callback panicked", "panic", r)
		}
	}()
	fn()
}
