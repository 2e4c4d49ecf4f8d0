package event

import (
	"context"
	"time"

	"github.com/dshills/gigbus/internal/event/channel"
	"github.com/dshills/gigbus/internal/event/dispatch"
)

// PublishAsync delivers payload like Publish, calling every handler on the
// caller's goroutine in the same order, and then waits for the work each
// async handler started to settle.
//
// The wait is a fault-tolerant join: a failing handler is reported through the
// logger and error handler and never cuts the wait short for the others.
// PublishAsync returns an error only when ctx is done before the join
// completes; the handlers then keep running.
func (e *Emitter) PublishAsync(ctx context.Context, name channel.Name, payload any) error {
	subs := e.registry.Snapshot(name)
	e.eventsPublished.Add(1)

	if len(subs) == 0 {
		e.eventsUndelivered.Add(1)
		return nil
	}

	join := dispatch.NewJoin(e.config.maxConcurrency)
	for _, sub := range subs {
		if sub.async == nil {
			if e.acquire(ctx, sub, payload) {
				e.start(ctx, sub, payload)
			}
			continue
		}

		err := join.Start(ctx, func() func() error {
			if !e.acquire(ctx, sub, payload) {
				return nil
			}
			return e.start(ctx, sub, payload)
		})
		if err != nil && sub.IsActive() {
			e.handlersSkipped.Add(1)
		}
	}

	if join.Len() == 0 {
		return join.Wait()
	}

	err := join.WaitContext(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil && err == ctxErr {
		return err
	}
	if err != nil {
		e.logger.Debug().
			Err(err).
			Str("channel", string(name)).
			Int("handlers", join.Len()).
			Msg("async publish settled with failures")
	}
	return nil
}

// PublishWithTimeout races PublishAsync against a timer. When the timer fires
// first it returns a *TimeoutError matching ErrPublishTimeout; the handlers
// are abandoned, not cancelled, and carry on in the background.
// A non-positive timeout behaves like PublishAsync.
func (e *Emitter) PublishWithTimeout(ctx context.Context, name channel.Name, payload any, timeout time.Duration) error {
	if timeout <= 0 {
		return e.PublishAsync(ctx, name, payload)
	}

	done := make(chan error, 1)
	detached := context.WithoutCancel(ctx)
	e.background.Go(func() {
		done <- e.PublishAsync(detached, name, payload)
	})

	timer := e.config.clock.Timer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		e.recordTimeout()
		e.logger.Warn().
			Str("channel", string(name)).
			Dur("timeout", timeout).
			Msg("publish timed out")
		return newPublishTimeout(name, timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}
