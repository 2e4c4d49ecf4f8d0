package event

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dshills/gigbus/internal/event/channel"
)

// clockProvider is implemented by sources that carry their own clock.
type clockProvider interface {
	Clock() clock.Clock
}

// timeoutRecorder is implemented by emitters, including those embedding one.
type timeoutRecorder interface {
	recordTimeout()
}

// WaitFor blocks until the next payload published on name and returns it.
//
// A positive timeout bounds the wait; on expiry WaitFor returns a
// *TimeoutError matching ErrWaitTimeout. When the wait ends without a
// delivery, through timeout or ctx, the pending one-shot subscription is
// removed so nothing is left registered on the channel.
func WaitFor(ctx context.Context, src Source, name channel.Name, timeout time.Duration) (any, error) {
	received := make(chan any, 1)
	sub, err := src.SubscribeOnce(name, HandlerFunc(func(_ context.Context, payload any) error {
		received <- payload
		return nil
	}))
	if err != nil {
		return nil, err
	}

	var expired <-chan time.Time
	if timeout > 0 {
		clk := clock.New()
		if cp, ok := src.(clockProvider); ok {
			clk = cp.Clock()
		}
		timer := clk.Timer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case payload := <-received:
		return payload, nil
	case <-expired:
		src.Unsubscribe(sub)
		if payload, ok := lateDelivery(received); ok {
			return payload, nil
		}
		if tr, ok := src.(timeoutRecorder); ok {
			tr.recordTimeout()
		}
		return nil, newWaitTimeout(name, timeout)
	case <-ctx.Done():
		src.Unsubscribe(sub)
		if payload, ok := lateDelivery(received); ok {
			return payload, nil
		}
		return nil, ctx.Err()
	}
}

// lateDelivery picks up a payload delivered between the wait ending and
// the unsubscribe.
func lateDelivery(received <-chan any) (any, bool) {
	select {
	case payload := <-received:
		return payload, true
	default:
		return nil, false
	}
}

// WaitForEvent is WaitFor on a typed channel.
func WaitForEvent[T any](ctx context.Context, src Source, ch channel.Of[T], timeout time.Duration) (T, error) {
	var zero T
	payload, err := WaitFor(ctx, src, ch.Name(), timeout)
	if err != nil {
		return zero, err
	}
	p, ok := ch.Payload(payload)
	if !ok {
		return zero, fmt.Errorf("%w: got %T on channel %s", ErrPayloadType, payload, ch)
	}
	return p, nil
}
