package event

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"

	"github.com/dshills/gigbus/internal/event/channel"
	"github.com/dshills/gigbus/internal/event/dispatch"
)

// Source is the subscription side of an emitter.
type Source interface {
	Subscribe(name channel.Name, h Handler, opts ...SubscriptionOption) (Subscription, error)
	SubscribeAsync(name channel.Name, h AsyncHandler, opts ...SubscriptionOption) (Subscription, error)
	SubscribeOnce(name channel.Name, h Handler, opts ...SubscriptionOption) (Subscription, error)
	Unsubscribe(sub Subscription)
	SubscriberCount(name channel.Name) int
	ChannelNames() []channel.Name
	RemoveAll(names ...channel.Name)
}

// Sink is the publishing side of an emitter.
type Sink interface {
	Publish(ctx context.Context, name channel.Name, payload any) bool
	PublishAsync(ctx context.Context, name channel.Name, payload any) error
}

// Emitter is the in-process publish/subscribe core.
//
// Handlers run with no emitter lock held, so a handler may publish, subscribe
// or unsubscribe on the same emitter. Every publish works on a snapshot of the
// channel's subscriptions taken when it starts.
type Emitter struct {
	registry *Registry
	executor *dispatch.Executor
	config   emitterConfig
	logger   zerolog.Logger

	maxSubscribers atomic.Int64

	// background tracks handlers started fire-and-forget.
	background conc.WaitGroup

	eventsPublished   atomic.Uint64
	eventsUndelivered atomic.Uint64
	handlersExecuted  atomic.Uint64
	handlersSucceeded atomic.Uint64
	handlerErrors     atomic.Uint64
	handlerPanics     atomic.Uint64
	handlersSkipped   atomic.Uint64
	leakWarnings      atomic.Uint64
	timeouts          atomic.Uint64
}

var (
	_ Source = (*Emitter)(nil)
	_ Sink   = (*Emitter)(nil)
)

// NewEmitter creates a new emitter with the given options.
func NewEmitter(opts ...Option) *Emitter {
	config := defaultEmitterConfig()
	for _, opt := range opts {
		opt(&config)
	}

	e := &Emitter{
		registry: NewRegistry(),
		config:   config,
		logger:   config.logger.With().Str("emitter", config.name).Logger(),
	}
	e.executor = dispatch.NewExecutor(dispatch.WithExecutorClock(config.clock))
	e.maxSubscribers.Store(int64(config.maxSubscribers))
	return e
}

// Name returns the emitter's name.
func (e *Emitter) Name() string {
	return e.config.name
}

// Clock returns the clock driving the emitter's timeouts.
func (e *Emitter) Clock() clock.Clock {
	return e.config.clock
}

// Logger returns the emitter's logger.
func (e *Emitter) Logger() zerolog.Logger {
	return e.logger
}

// Subscribe registers a persistent subscription on a channel.
// Registering the same handler twice creates two independent subscriptions,
// each delivered once per publish.
func (e *Emitter) Subscribe(name channel.Name, h Handler, opts ...SubscriptionOption) (Subscription, error) {
	if h == nil {
		return nil, ErrNilHandler
	}
	return e.subscribe(name, h, nil, false, opts...)
}

// SubscribeAsync registers a persistent subscription whose handler returns a
// Completion. PublishAsync waits for it to settle.
func (e *Emitter) SubscribeAsync(name channel.Name, h AsyncHandler, opts ...SubscriptionOption) (Subscription, error) {
	if h == nil {
		return nil, ErrNilHandler
	}
	return e.subscribe(name, nil, h, false, opts...)
}

// SubscribeFunc is a convenience method for subscribing with a function handler.
func (e *Emitter) SubscribeFunc(name channel.Name, fn HandlerFunc, opts ...SubscriptionOption) (Subscription, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	return e.Subscribe(name, fn, opts...)
}

// SubscribeOnce registers a one-shot subscription. It is removed from the
// channel immediately before its single delivery, so a handler that
// subscribes itself again does not see the event that triggered it.
func (e *Emitter) SubscribeOnce(name channel.Name, h Handler, opts ...SubscriptionOption) (Subscription, error) {
	if h == nil {
		return nil, ErrNilHandler
	}
	return e.subscribe(name, h, nil, true, opts...)
}

// SubscribeOnceAsync is SubscribeOnce for an AsyncHandler.
func (e *Emitter) SubscribeOnceAsync(name channel.Name, h AsyncHandler, opts ...SubscriptionOption) (Subscription, error) {
	if h == nil {
		return nil, ErrNilHandler
	}
	return e.subscribe(name, nil, h, true, opts...)
}

// SubscribeOnceFunc creates a one-shot subscription with a function handler.
func (e *Emitter) SubscribeOnceFunc(name channel.Name, fn HandlerFunc, opts ...SubscriptionOption) (Subscription, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	return e.SubscribeOnce(name, fn, opts...)
}

func (e *Emitter) subscribe(name channel.Name, h Handler, async AsyncHandler, once bool, opts ...SubscriptionOption) (Subscription, error) {
	if !name.IsValid() {
		return nil, ErrInvalidChannel
	}

	sub := newSubscription(name, h, async, once, opts...)
	count := e.registry.Add(sub)

	max := int(e.maxSubscribers.Load())
	if max > 0 && count > max && e.registry.markWarned(name, max) {
		e.leakWarnings.Add(1)
		e.logger.Warn().
			Str("channel", string(name)).
			Int("subscribers", count).
			Int("max_subscribers", max).
			Msg("possible subscription leak: channel exceeds max subscribers")
	}

	return sub, nil
}

// Unsubscribe removes a subscription. Unknown, nil, foreign or already
// removed subscriptions are ignored.
func (e *Emitter) Unsubscribe(sub Subscription) {
	s, ok := sub.(*subscription)
	if !ok || s == nil {
		return
	}
	if registered, found := e.registry.Get(s.id); !found || registered != s {
		return
	}
	if e.registry.Remove(s.id) {
		s.cancel()
	}
}

// RemoveAll removes every subscription of the given channels, or of all
// channels when none are given.
func (e *Emitter) RemoveAll(names ...channel.Name) {
	for _, sub := range e.registry.Clear(names...) {
		sub.cancel()
	}
}

// SubscriberCount returns the number of subscriptions on a channel.
func (e *Emitter) SubscriberCount(name channel.Name) int {
	return e.registry.CountByChannel(name)
}

// ChannelNames returns, sorted, the channels that have subscriptions.
func (e *Emitter) ChannelNames() []channel.Name {
	return e.registry.Channels()
}

// SetMaxSubscribers sets the per-channel count above which a leak warning is
// logged. The ceiling is advisory; subscriptions beyond it are accepted.
// Zero disables the warning.
func (e *Emitter) SetMaxSubscribers(n int) {
	if n < 0 {
		n = 0
	}
	e.maxSubscribers.Store(int64(n))
}

// MaxSubscribers returns the current leak warning ceiling.
func (e *Emitter) MaxSubscribers() int {
	return int(e.maxSubscribers.Load())
}

// Publish delivers payload to the channel's subscriptions: persistent ones in
// registration order, then one-shot ones in registration order. Every
// handler is called on the caller's goroutine in that order. Sync handlers
// have finished when Publish returns; the work async handlers started is not
// waited for. A failing handler is reported and never stops the others.
// Publish returns whether the channel had any subscription.
func (e *Emitter) Publish(ctx context.Context, name channel.Name, payload any) bool {
	subs := e.registry.Snapshot(name)
	e.eventsPublished.Add(1)

	if len(subs) == 0 {
		e.eventsUndelivered.Add(1)
		return false
	}

	detached := context.WithoutCancel(ctx)
	for _, sub := range subs {
		if !e.acquire(ctx, sub, payload) {
			continue
		}
		if sub.async == nil {
			e.start(ctx, sub, payload)
			continue
		}
		if wait := e.start(detached, sub, payload); wait != nil {
			e.background.Go(func() {
				_ = wait()
			})
		}
	}

	return true
}

// Wait blocks until work left running in the background has settled: async
// handlers started by Publish and the publishes abandoned by PublishWithTimeout.
func (e *Emitter) Wait() {
	e.background.Wait()
}

// acquire decides at delivery time whether sub still takes this payload.
// A done ctx skips the subscription and leaves a one-shot pending. A one-shot
// subscription is claimed and removed from the registry here, before its
// handler runs.
func (e *Emitter) acquire(ctx context.Context, sub *subscription, payload any) bool {
	if !sub.IsActive() {
		return false
	}
	if ctx.Err() != nil {
		e.handlersSkipped.Add(1)
		return false
	}
	if sub.filter != nil && !e.passes(sub, payload) {
		return false
	}
	if sub.once {
		if !sub.claim() {
			return false
		}
		e.registry.Remove(sub.id)
	}
	return true
}

// passes runs a subscription filter, treating a panicking filter as a
// rejection.
func (e *Emitter) passes(sub *subscription, payload any) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			e.logger.Error().
				Str("channel", string(sub.channel)).
				Str("subscription", sub.id).
				Interface("panic", r).
				Msg("subscription filter panicked")
		}
	}()
	return sub.filter(payload)
}

// start calls sub's handler on the calling goroutine. For an async
// subscription it returns the wait that settles the work the handler
// started; nil means nothing is left to wait for.
func (e *Emitter) start(ctx context.Context, sub *subscription, payload any) func() error {
	ctx = withDelivery(ctx, sub)
	if sub.async == nil {
		_ = e.settle(e.executor.Execute(ctx, payload, sub.handler), sub.id, sub.channel)
		return nil
	}

	var done Completion
	begin := e.config.clock.Now()
	result := e.executor.Execute(ctx, payload, HandlerFunc(func(ctx context.Context, payload any) error {
		done = sub.async.HandleAsync(ctx, payload)
		return nil
	}))
	if result.Outcome != dispatch.OutcomeOK || done == nil {
		_ = e.settle(result, sub.id, sub.channel)
		return nil
	}

	return func() error {
		err := <-done
		return e.settle(completed(err, e.config.clock.Since(begin)), sub.id, sub.channel)
	}
}

// completed turns the value a Completion settled with into a Result.
func completed(err error, took time.Duration) dispatch.Result {
	var rp *recoveredPanic
	switch {
	case err == nil:
		return dispatch.Result{Outcome: dispatch.OutcomeOK, Duration: took}
	case errors.As(err, &rp):
		return dispatch.Result{
			Outcome:  dispatch.OutcomePanic,
			Panic:    &dispatch.Panic{Value: rp.value, Stack: rp.stack},
			Duration: took,
		}
	default:
		return dispatch.Result{Outcome: dispatch.OutcomeError, Err: err, Duration: took}
	}
}

// settle counts a handler result and reports it if it failed.
func (e *Emitter) settle(result dispatch.Result, subID string, name channel.Name) error {
	if result.Outcome == dispatch.OutcomeSkipped {
		e.handlersSkipped.Add(1)
		return nil
	}
	e.handlersExecuted.Add(1)

	var err error
	switch result.Outcome {
	case dispatch.OutcomePanic:
		e.handlerPanics.Add(1)
		err = &PanicError{
			SubscriptionID: subID,
			Channel:        name,
			Value:          result.Panic.Value,
			Stack:          string(result.Panic.Stack),
		}
	case dispatch.OutcomeError:
		e.handlerErrors.Add(1)
		err = &HandlerError{
			SubscriptionID: subID,
			Channel:        name,
			Err:            result.Err,
		}
	default:
		e.handlersSucceeded.Add(1)
		return nil
	}

	e.report(err, subID, name, result)
	return err
}

func (e *Emitter) report(err error, subID string, name channel.Name, result dispatch.Result) {
	e.logger.Error().
		Err(err).
		Str("channel", string(name)).
		Str("subscription", subID).
		Stringer("outcome", result.Outcome).
		Dur("duration", result.Duration).
		Msg("subscriber failed")

	if e.config.errorHandler == nil {
		return
	}

	func() {
		defer func() {
			_ = recover()
		}()
		e.config.errorHandler(err)
	}()
}

func (e *Emitter) recordTimeout() {
	e.timeouts.Add(1)
}

// Stats returns current emitter statistics.
func (e *Emitter) Stats() Stats {
	return Stats{
		EventsPublished:   e.eventsPublished.Load(),
		EventsUndelivered: e.eventsUndelivered.Load(),
		HandlersExecuted:  e.handlersExecuted.Load(),
		HandlersSucceeded: e.handlersSucceeded.Load(),
		HandlerErrors:     e.handlerErrors.Load(),
		HandlerPanics:     e.handlerPanics.Load(),
		HandlersSkipped:   e.handlersSkipped.Load(),
		LeakWarnings:      e.leakWarnings.Load(),
		Timeouts:          e.timeouts.Load(),
		ActiveSubscribers: e.registry.Count(),
		Channels:          len(e.registry.Channels()),
	}
}
