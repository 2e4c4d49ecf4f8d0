// Package event provides the in-process event bus.
//
// An Emitter maps channel names to ordered subscription lists and delivers
// published payloads to them. Subscriber failures are isolated: a handler that
// returns an error or panics is reported through the emitter's logger and
// error handler, and every other handler still runs.
//
// # Architecture
//
//	                ┌────────────────────────────────┐
//	                │          StoredEmitter         │
//	                │  history.Store (audit log)     │
//	                └───────────────┬────────────────┘
//	                                ▼
//	                ┌────────────────────────────────┐
//	                │        MiddlewareEmitter       │
//	                │  middleware.Pipeline           │
//	                └───────────────┬────────────────┘
//	                                ▼
//	                ┌────────────────────────────────┐
//	                │            Emitter             │
//	                │  Registry, Publish,            │
//	                │  PublishAsync (dispatch.Join)  │
//	                └────────────────────────────────┘
//
// The aggregate package builds an Emitter fed by several others.
//
// # Delivery Order
//
// For one publish, persistent subscriptions run before one-shot ones, each
// group in registration order. Publish works on a snapshot of the channel
// taken when it starts, so handlers may subscribe, unsubscribe or publish
// on the same emitter.
//
// # Async Handlers
//
// Every handler is called on the publisher's goroutine in delivery order. A
// Handler has finished when its call returns. An AsyncHandler returns a
// Completion for work it started; PublishAsync waits for it to settle and
// Publish does not. Go wraps a Handler so its whole body runs in a goroutine
// of its own, which gives up ordering between handler bodies.
//
// # Basic Usage
//
//	e := event.NewEmitter(event.WithLogger(logger))
//
//	sub, err := event.On(e, events.ChannelSyncFailed, func(ctx context.Context, f events.SyncFailed) error {
//	    return notify(f.Reason)
//	})
//	defer e.Unsubscribe(sub)
//
//	event.Emit(ctx, e, events.ChannelSyncFailed, events.SyncFailed{Reason: "offline"})
//
//	// Wait for every async handler, at most one second.
//	err = e.PublishWithTimeout(ctx, "sync.started", payload, time.Second)
//
// # Thread Safety
//
// All exported types are safe for concurrent use. Handlers must manage
// their own state.
package event
