package event

import (
	"context"
	"fmt"
	"runtime/debug"
)

// Handler is the interface for event handlers.
// The payload is type-erased; use Typed or On for compile-time checked payloads.
type Handler interface {
	// Handle processes a payload. A returned error is reported, never
	// propagated to the publisher.
	Handle(ctx context.Context, payload any) error
}

// HandlerFunc is a function adapter for Handler.
type HandlerFunc func(ctx context.Context, payload any) error

// Handle implements the Handler interface.
func (f HandlerFunc) Handle(ctx context.Context, payload any) error {
	return f(ctx, payload)
}

// Completion settles the work an AsyncHandler started. It yields one value,
// nil on success, and may then be closed. A closed Completion with no value
// counts as success.
type Completion <-chan error

// AsyncHandler is a subscriber whose work outlives the call that starts it.
//
// HandleAsync runs on the publisher's goroutine, in delivery order, like any
// Handler. It starts whatever it hands off and returns the Completion for it.
// PublishAsync waits for the Completion; Publish does not. A nil Completion
// means the work already finished.
type AsyncHandler interface {
	HandleAsync(ctx context.Context, payload any) Completion
}

// AsyncHandlerFunc is a function adapter for AsyncHandler.
type AsyncHandlerFunc func(ctx context.Context, payload any) Completion

// HandleAsync implements the AsyncHandler interface.
func (f AsyncHandlerFunc) HandleAsync(ctx context.Context, payload any) Completion {
	return f(ctx, payload)
}

// Done returns a Completion already settled with err.
func Done(err error) Completion {
	c := make(chan error, 1)
	c <- err
	close(c)
	return c
}

// Go adapts h to an AsyncHandler that runs h in its own goroutine. The
// goroutine starts in delivery order but h's body does not run in any order
// relative to other subscribers. A panic in h settles the Completion with an
// error matching ErrHandlerPanic.
func Go(h Handler) AsyncHandler {
	return AsyncHandlerFunc(func(ctx context.Context, payload any) Completion {
		c := make(chan error, 1)
		go func() {
			defer close(c)
			defer func() {
				if r := recover(); r != nil {
					c <- &recoveredPanic{value: r, stack: debug.Stack()}
				}
			}()
			c <- h.Handle(ctx, payload)
		}()
		return c
	})
}

// recoveredPanic carries a panic out of a goroutine started by Go.
type recoveredPanic struct {
	value any
	stack []byte
}

func (p *recoveredPanic) Error() string {
	return fmt.Sprintf("handler panic: %v", p.value)
}

func (p *recoveredPanic) Is(target error) bool {
	return target == ErrHandlerPanic
}

// FilterFunc is a predicate for filtering payloads.
// Return true to allow delivery, false to skip the subscription.
type FilterFunc func(payload any) bool

// ErrorHandler receives subscriber failures. The error is a *HandlerError or
// a *PanicError.
type ErrorHandler func(err error)

// Stats contains emitter statistics.
type Stats struct {
	// EventsPublished is the total number of publish calls.
	EventsPublished uint64

	// EventsUndelivered is the number of publishes that found no subscriber.
	EventsUndelivered uint64

	// HandlersExecuted is the total number of handler executions.
	HandlersExecuted uint64

	// HandlersSucceeded is the number of handlers that completed without failure.
	HandlersSucceeded uint64

	// HandlerErrors is the number of handlers that returned errors.
	HandlerErrors uint64

	// HandlerPanics is the number of handlers that panicked.
	HandlerPanics uint64

	// HandlersSkipped is the number of handlers not run because the context was done.
	HandlersSkipped uint64

	// LeakWarnings is the number of channels that crossed the subscriber ceiling.
	LeakWarnings uint64

	// Timeouts is the number of PublishWithTimeout and WaitFor calls that timed out.
	Timeouts uint64

	// ActiveSubscribers is the current number of registered subscriptions.
	ActiveSubscribers int

	// Channels is the current number of channels with at least one subscription.
	Channels int
}
