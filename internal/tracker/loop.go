package tracker

import (
	"context"
	"errors"
	"fmt"

	"github.com/1broseidon/dockwatch/internal/platform"
)

// ErrStopped is returned by Post and Call once Run has returned.
var ErrStopped = errors.New("tracker stopped")

// Run processes backend events and posted tasks in arrival order until ctx is
// cancelled or events is closed. A panicking task or event is logged and
// does not stop the loop.
func (e *Engine) Run(ctx context.Context, events <-chan platform.Event) error {
	defer e.stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				e.logger.Info("backend event stream closed")
				return nil
			}
			e.safely(func() { e.HandleEvent(ev) })
		case fn := <-e.tasks:
			e.safely(fn)
		}
	}
}

func (e *Engine) stop() {
	e.stopOnce.Do(func() { close(e.done) })
}

func (e *Engine) safely(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("tracker task panicked", "panic", r)
		}
	}()
	fn()
}

// Post queues fn to run on the engine goroutine.
func (e *Engine) Post(fn func()) error {
	select {
	case <-e.done:
		return ErrStopped
	default:
	}
	select {
	case <-e.done:
		return ErrStopped
	case e.tasks <- fn:
		return nil
	}
}

// Call runs fn on the engine goroutine and waits for it to finish.
func (e *Engine) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	var panicked any
	err := e.Post(func() {
		defer close(finished)
		defer func() {
			if r := recover(); r != nil {
				panicked = r
			}
		}()
		fn()
	})
	if err != nil {
		return err
	}

	select {
	case <-finished:
		if panicked != nil {
			return fmt.Errorf("tracker call panicked: %v", panicked)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-e.done:
		// The task may have run just before the loop exited.
		select {
		case <-finished:
			return nil
		default:
			return ErrStopped
		}
	}
}
