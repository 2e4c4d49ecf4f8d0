package event

import (
	"context"
	"fmt"
	"time"

	"github.com/dshills/gigbus/internal/event/channel"
)

// Typed adapts a payload function to a Handler. A payload of any other type
// fails the delivery with an error wrapping ErrPayloadType.
func Typed[T any](fn func(ctx context.Context, payload T) error) Handler {
	return HandlerFunc(func(ctx context.Context, payload any) error {
		p, ok := payload.(T)
		if !ok {
			var want T
			return fmt.Errorf("%w: got %T, want %T", ErrPayloadType, payload, want)
		}
		return fn(ctx, p)
	})
}

// On subscribes fn to a typed channel.
func On[T any](src Source, ch channel.Of[T], fn func(ctx context.Context, payload T) error, opts ...SubscriptionOption) (Subscription, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	return src.Subscribe(ch.Name(), Typed(fn), opts...)
}

// Once subscribes fn to a typed channel for a single delivery.
func Once[T any](src Source, ch channel.Of[T], fn func(ctx context.Context, payload T) error, opts ...SubscriptionOption) (Subscription, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	return src.SubscribeOnce(ch.Name(), Typed(fn), opts...)
}

// Emit publishes a typed payload.
func Emit[T any](ctx context.Context, sink Sink, ch channel.Of[T], payload T) bool {
	return sink.Publish(ctx, ch.Name(), payload)
}

// EmitAsync publishes a typed payload and waits for async handlers.
func EmitAsync[T any](ctx context.Context, sink Sink, ch channel.Of[T], payload T) error {
	return sink.PublishAsync(ctx, ch.Name(), payload)
}

// EmitWithTimeout publishes a typed payload with a bounded wait.
func EmitWithTimeout[T any](ctx context.Context, e *Emitter, ch channel.Of[T], payload T, timeout time.Duration) error {
	return e.PublishWithTimeout(ctx, ch.Name(), payload, timeout)
}
