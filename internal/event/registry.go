package event

import (
	"slices"
	"sync"

	"github.com/dshills/gigbus/internal/event/channel"
)

// Registry manages subscriptions organized by channel.
// Each channel keeps persistent and one-shot subscriptions in two ordered
// lists; registration order is delivery order within each list.
// It is safe for concurrent access.
type Registry struct {
	mu       sync.RWMutex
	channels map[channel.Name]*subscriptionSet
	byID     map[string]*subscription
}

type subscriptionSet struct {
	persistent []*subscription
	once       []*subscription

	// warned is set once the leak warning has been issued for this channel.
	warned bool
}

func (s *subscriptionSet) len() int {
	return len(s.persistent) + len(s.once)
}

// NewRegistry creates a new subscription registry.
func NewRegistry() *Registry {
	return &Registry{
		channels: make(map[channel.Name]*subscriptionSet),
		byID:     make(map[string]*subscription),
	}
}

// Add appends a subscription to its channel and returns the channel's
// subscription count after the add.
func (r *Registry) Add(sub *subscription) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.channels[sub.channel]
	if !ok {
		set = &subscriptionSet{}
		r.channels[sub.channel] = set
	}

	if sub.once {
		set.once = append(set.once, sub)
	} else {
		set.persistent = append(set.persistent, sub)
	}

	r.byID[sub.id] = sub

	return set.len()
}

// Remove removes a subscription by ID.
// Returns false if the subscription is not registered.
func (r *Registry) Remove(subID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.removeLocked(subID)
}

func (r *Registry) removeLocked(subID string) bool {
	sub, exists := r.byID[subID]
	if !exists {
		return false
	}

	set := r.channels[sub.channel]
	match := func(s *subscription) bool { return s.id == subID }
	if sub.once {
		set.once = slices.DeleteFunc(set.once, match)
	} else {
		set.persistent = slices.DeleteFunc(set.persistent, match)
	}

	if set.len() == 0 {
		delete(r.channels, sub.channel)
	}

	delete(r.byID, subID)
	return true
}

// Get returns a subscription by ID.
func (r *Registry) Get(subID string) (*subscription, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sub, exists := r.byID[subID]
	return sub, exists
}

// Snapshot returns the channel's subscriptions in delivery order: persistent
// first, then one-shot. The returned slice is a copy, so it stays stable
// while handlers mutate the registry.
func (r *Registry) Snapshot(name channel.Name) []*subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.channels[name]
	if !ok {
		return nil
	}

	result := make([]*subscription, 0, set.len())
	result = append(result, set.persistent...)
	result = append(result, set.once...)
	return result
}

// Count returns the total number of subscriptions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.byID)
}

// CountByChannel returns the number of subscriptions for a channel.
func (r *Registry) CountByChannel(name channel.Name) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.channels[name]
	if !ok {
		return 0
	}
	return set.len()
}

// Channels returns, sorted, all channels with at least one subscription.
func (r *Registry) Channels() []channel.Name {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.channels) == 0 {
		return nil
	}

	names := make([]channel.Name, 0, len(r.channels))
	for name := range r.channels {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Clear removes the subscriptions of the given channels, or of every channel
// when none are given, and returns what was removed.
func (r *Registry) Clear(names ...channel.Name) []*subscription {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(names) == 0 {
		names = make([]channel.Name, 0, len(r.channels))
		for name := range r.channels {
			names = append(names, name)
		}
	}

	var removed []*subscription
	for _, name := range names {
		set, ok := r.channels[name]
		if !ok {
			continue
		}
		removed = append(removed, set.persistent...)
		removed = append(removed, set.once...)
		for _, sub := range set.persistent {
			delete(r.byID, sub.id)
		}
		for _, sub := range set.once {
			delete(r.byID, sub.id)
		}
		delete(r.channels, name)
	}
	return removed
}

// markWarned reports whether the leak warning for a channel is due: the
// channel holds more than max subscriptions and has not been warned about.
func (r *Registry) markWarned(name channel.Name, max int) bool {
	if max <= 0 {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.channels[name]
	if !ok || set.warned || set.len() <= max {
		return false
	}
	set.warned = true
	return true
}
