package event

import (
	"context"
	"slices"
	"sync"

	"github.com/dshills/gigbus/internal/event/channel"
)

// Subscriber tracks the subscriptions one owner makes on a Source so they
// can be removed together. It is safe for concurrent use.
type Subscriber struct {
	src           Source
	subscriptions []Subscription
	mu            sync.Mutex
	closed        bool
}

// NewSubscriber creates a new Subscriber wrapping the given source.
func NewSubscriber(src Source) *Subscriber {
	return &Subscriber{
		src:           src,
		subscriptions: make([]Subscription, 0),
	}
}

// Subscribe creates a tracked subscription on the given channel.
func (s *Subscriber) Subscribe(name channel.Name, handler Handler, opts ...SubscriptionOption) (Subscription, error) {
	return s.track(func() (Subscription, error) {
		return s.src.Subscribe(name, handler, opts...)
	})
}

// SubscribeFunc creates a tracked subscription with a function handler.
func (s *Subscriber) SubscribeFunc(name channel.Name, fn HandlerFunc, opts ...SubscriptionOption) (Subscription, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	return s.Subscribe(name, fn, opts...)
}

// SubscribeOnce creates a tracked one-shot subscription.
func (s *Subscriber) SubscribeOnce(name channel.Name, handler Handler, opts ...SubscriptionOption) (Subscription, error) {
	return s.track(func() (Subscription, error) {
		return s.src.SubscribeOnce(name, handler, opts...)
	})
}

// SubscribeAsync creates a tracked asynchronous subscription.
func (s *Subscriber) SubscribeAsync(name channel.Name, handler AsyncHandler, opts ...SubscriptionOption) (Subscription, error) {
	return s.track(func() (Subscription, error) {
		return s.src.SubscribeAsync(name, handler, opts...)
	})
}

// SubscribeWithFilter creates a tracked subscription with a filter predicate.
func (s *Subscriber) SubscribeWithFilter(name channel.Name, handler Handler, filter FilterFunc, opts ...SubscriptionOption) (Subscription, error) {
	opts = append(opts, WithFilter(filter))
	return s.Subscribe(name, handler, opts...)
}

// SubscribeTo creates a tracked subscription on a typed channel.
func SubscribeTo[T any](s *Subscriber, ch channel.Of[T], fn func(ctx context.Context, payload T) error, opts ...SubscriptionOption) (Subscription, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	return s.Subscribe(ch.Name(), Typed(fn), opts...)
}

func (s *Subscriber) track(subscribe func() (Subscription, error)) (Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSubscriberClosed
	}

	sub, err := subscribe()
	if err != nil {
		return nil, err
	}

	s.subscriptions = append(s.subscriptions, sub)
	return sub, nil
}

// Unsubscribe removes a specific subscription.
func (s *Subscriber) Unsubscribe(sub Subscription) {
	if sub == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.subscriptions = slices.DeleteFunc(s.subscriptions, func(tracked Subscription) bool {
		return tracked.ID() == sub.ID()
	})
	s.src.Unsubscribe(sub)
}

// UnsubscribeAll removes all subscriptions managed by this subscriber.
func (s *Subscriber) UnsubscribeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sub := range s.subscriptions {
		s.src.Unsubscribe(sub)
	}
	s.subscriptions = s.subscriptions[:0]
}

// PauseAll pauses all tracked subscriptions.
func (s *Subscriber) PauseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sub := range s.subscriptions {
		sub.Pause()
	}
}

// ResumeAll resumes all tracked subscriptions.
func (s *Subscriber) ResumeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sub := range s.subscriptions {
		sub.Resume()
	}
}

// Close cancels all subscriptions and prevents new ones.
// This should be called when the owning component is being shut down.
func (s *Subscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true

	for _, sub := range s.subscriptions {
		s.src.Unsubscribe(sub)
	}
	s.subscriptions = nil

	return nil
}

// Count returns the number of tracked subscriptions that are still
// registered. Delivered one-shot subscriptions are dropped from tracking.
func (s *Subscriber) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subscriptions = slices.DeleteFunc(s.subscriptions, func(sub Subscription) bool {
		return sub.State() == StateEnded
	})
	return len(s.subscriptions)
}

// IsClosed returns true if the subscriber has been closed.
func (s *Subscriber) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Source returns the underlying source.
func (s *Subscriber) Source() Source {
	return s.src
}
