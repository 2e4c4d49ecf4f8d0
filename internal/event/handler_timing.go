package event

import (
	"context"
	"time"

	"github.com/dshills/gigbus/internal/event/timing"
)

type deferredDelivery struct {
	ctx      context.Context
	payload  any
	delivery Delivery
}

// DebouncedHandler delivers only the last payload of a burst, once no new
// payload has arrived for the delay. Handle always returns nil; failures of
// the deferred delivery are reported by the emitter that built it.
type DebouncedHandler struct {
	debouncer *timing.Debouncer[deferredDelivery]
}

// Debounce wraps h in a trailing-edge debounce driven by the emitter's clock.
func (e *Emitter) Debounce(h Handler, delay time.Duration) *DebouncedHandler {
	run := func(d deferredDelivery) {
		_ = e.settle(e.executor.Execute(d.ctx, d.payload, h), d.delivery.SubscriptionID, d.delivery.Channel)
	}
	return &DebouncedHandler{
		debouncer: timing.NewDebouncer(delay, run, timing.WithClock(e.Clock())),
	}
}

// Handle implements Handler.
func (d *DebouncedHandler) Handle(ctx context.Context, payload any) error {
	delivery, _ := DeliveryFrom(ctx)
	d.debouncer.Call(deferredDelivery{
		ctx:      context.WithoutCancel(ctx),
		payload:  payload,
		delivery: delivery,
	})
	return nil
}

// Flush delivers a pending payload now.
func (d *DebouncedHandler) Flush() bool {
	return d.debouncer.Flush()
}

// Cancel drops a pending payload.
func (d *DebouncedHandler) Cancel() {
	d.debouncer.Cancel()
}

// IsPending returns true if a payload is waiting for delivery.
func (d *DebouncedHandler) IsPending() bool {
	return d.debouncer.IsPending()
}

// Throttle wraps h so it handles at most one payload per interval, on the
// leading edge. Payloads arriving sooner are dropped.
func (e *Emitter) Throttle(h Handler, interval time.Duration) Handler {
	th := timing.NewThrottler[struct{}](interval, nil, timing.WithClock(e.Clock()))

	return HandlerFunc(func(ctx context.Context, payload any) error {
		if !th.Call(struct{}{}) {
			return nil
		}
		return h.Handle(ctx, payload)
	})
}
