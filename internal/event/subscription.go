package event

import (
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/dshills/gigbus/internal/event/channel"
)

// State is where a subscription is in its lifecycle.
//
//	active <-> paused
//	   \        /
//	    v      v
//	     ended
type State int32

const (
	// StateActive subscriptions receive payloads.
	StateActive State = iota

	// StatePaused subscriptions are skipped until resumed. A paused one-shot
	// subscription stays pending.
	StatePaused

	// StateEnded subscriptions were removed, or were one-shot and have been
	// delivered. Ended is terminal.
	StateEnded
)

var stateNames = [...]string{
	StateActive: "active",
	StatePaused: "paused",
	StateEnded:  "ended",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Subscription is the handle returned by Subscribe and SubscribeOnce.
// Pass it to Unsubscribe to remove the registration.
type Subscription interface {
	ID() string
	Channel() channel.Name
	State() State

	// IsActive reports whether the subscription currently receives payloads.
	IsActive() bool

	// Once reports whether the subscription is one-shot.
	Once() bool

	Pause()
	Resume()
}

// SubscriptionOption configures a subscription.
type SubscriptionOption func(*subscriptionOptions)

type subscriptionOptions struct {
	filter FilterFunc
}

// WithFilter delivers only payloads for which f returns true.
func WithFilter(f FilterFunc) SubscriptionOption {
	return func(o *subscriptionOptions) {
		o.filter = f
	}
}

type subscription struct {
	id      string
	channel channel.Name
	once    bool

	// Exactly one of handler and async is set.
	handler Handler
	async   AsyncHandler

	subscriptionOptions

	state atomic.Int32
}

func newSubscription(name channel.Name, h Handler, async AsyncHandler, once bool, opts ...SubscriptionOption) *subscription {
	s := &subscription{
		id:      uuid.NewString(),
		channel: name,
		once:    once,
		handler: h,
		async:   async,
	}
	for _, opt := range opts {
		opt(&s.subscriptionOptions)
	}
	return s
}

func (s *subscription) ID() string            { return s.id }
func (s *subscription) Channel() channel.Name { return s.channel }
func (s *subscription) Once() bool            { return s.once }
func (s *subscription) State() State          { return State(s.state.Load()) }
func (s *subscription) IsActive() bool        { return s.State() == StateActive }

func (s *subscription) Pause() {
	s.transition(StateActive, StatePaused)
}

func (s *subscription) Resume() {
	s.transition(StatePaused, StateActive)
}

func (s *subscription) cancel() {
	s.state.Store(int32(StateEnded))
}

// claim ends an active one-shot subscription. Exactly one of any number of
// concurrent callers wins.
func (s *subscription) claim() bool {
	return s.transition(StateActive, StateEnded)
}

func (s *subscription) transition(from, to State) bool {
	return s.state.CompareAndSwap(int32(from), int32(to))
}
