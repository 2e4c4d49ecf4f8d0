package event

import (
	"errors"
	"fmt"
	"time"

	"github.com/dshills/gigbus/internal/event/channel"
)

// Sentinel errors for the event bus.
var (
	// ErrNilHandler is returned when a nil handler is provided.
	ErrNilHandler = errors.New("handler cannot be nil")

	// ErrInvalidChannel is returned when a channel name is empty or malformed.
	ErrInvalidChannel = errors.New("invalid channel name")

	// ErrPayloadType is returned when a payload does not have the type its channel declares.
	ErrPayloadType = errors.New("payload type mismatch")

	// ErrHandlerPanic is matched by every PanicError.
	ErrHandlerPanic = errors.New("handler panicked")

	// ErrTimeout is matched by every TimeoutError.
	ErrTimeout = errors.New("event timeout")

	// ErrPublishTimeout is returned when PublishWithTimeout gives up waiting.
	ErrPublishTimeout = errors.New("publish timeout exceeded")

	// ErrWaitTimeout is returned when WaitFor gives up waiting.
	ErrWaitTimeout = errors.New("wait timeout exceeded")

	// ErrSubscriberClosed is returned when subscribing through a closed Subscriber.
	ErrSubscriberClosed = errors.New("subscriber is closed")
)

// HandlerError wraps an error from a handler with additional context.
type HandlerError struct {
	// SubscriptionID is the ID of the subscription whose handler failed.
	SubscriptionID string

	// Channel is the channel the handler was subscribed to.
	Channel channel.Name

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	return "handler error for subscription " + e.SubscriptionID + " on channel " + string(e.Channel) + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *HandlerError) Unwrap() error {
	return e.Err
}

// PanicError wraps a panic value as an error.
type PanicError struct {
	// SubscriptionID is the ID of the subscription whose handler panicked.
	SubscriptionID string

	// Channel is the channel the handler was subscribed to.
	Channel channel.Name

	// Value is the value passed to panic().
	Value any

	// Stack is the stack trace at the time of the panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("handler panic for subscription %s on channel %s: %v", e.SubscriptionID, e.Channel, e.Value)
}

// Is allows errors.Is to match PanicError with ErrHandlerPanic.
func (e *PanicError) Is(target error) bool {
	return target == ErrHandlerPanic
}

// TimeoutError reports that a bounded wait gave up.
// It matches ErrTimeout and the sentinel of the operation that timed out.
type TimeoutError struct {
	// Op is the operation that timed out ("publish" or "wait").
	Op string

	// Channel is the channel being published or waited on.
	Channel channel.Name

	// After is the configured timeout.
	After time.Duration

	sentinel error
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s on channel %s timed out after %s", e.Op, e.Channel, e.After)
}

// Is allows errors.Is to match ErrTimeout and the operation's sentinel.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout || (e.sentinel != nil && target == e.sentinel)
}

// Unwrap returns the operation's sentinel error.
func (e *TimeoutError) Unwrap() error {
	return e.sentinel
}

func newPublishTimeout(name channel.Name, after time.Duration) *TimeoutError {
	return &TimeoutError{Op: "publish", Channel: name, After: after, sentinel: ErrPublishTimeout}
}

func newWaitTimeout(name channel.Name, after time.Duration) *TimeoutError {
	return &TimeoutError{Op: "wait", Channel: name, After: after, sentinel: ErrWaitTimeout}
}
