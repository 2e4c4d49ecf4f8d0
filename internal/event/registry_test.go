package event

import (
	"context"
	"testing"

	"github.com/dshills/gigbus/internal/event/channel"
)

func noopSubscription(name channel.Name, once bool) *subscription {
	return newSubscription(name, HandlerFunc(func(context.Context, any) error { return nil }), nil, once)
}

func TestRegistry_AddReturnsChannelCount(t *testing.T) {
	r := NewRegistry()

	if got := r.Add(noopSubscription("a", false)); got != 1 {
		t.Errorf("Add = %d, want 1", got)
	}
	if got := r.Add(noopSubscription("a", true)); got != 2 {
		t.Errorf("Add = %d, want 2", got)
	}
	if got := r.Add(noopSubscription("b", false)); got != 1 {
		t.Errorf("Add = %d, want 1", got)
	}
	if r.Count() != 3 {
		t.Errorf("Count = %d, want 3", r.Count())
	}
}

func TestRegistry_SnapshotOrder(t *testing.T) {
	r := NewRegistry()

	once1 := noopSubscription("c", true)
	p1 := noopSubscription("c", false)
	once2 := noopSubscription("c", true)
	p2 := noopSubscription("c", false)
	for _, sub := range []*subscription{once1, p1, once2, p2} {
		r.Add(sub)
	}

	want := []*subscription{p1, p2, once1, once2}
	got := r.Snapshot("c")
	if len(got) != len(want) {
		t.Fatalf("Snapshot len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Snapshot[%d] = %s, want %s", i, got[i].id, want[i].id)
		}
	}
}

func TestRegistry_SnapshotIsACopy(t *testing.T) {
	r := NewRegistry()
	a := noopSubscription("c", false)
	r.Add(a)

	snap := r.Snapshot("c")
	r.Add(noopSubscription("c", false))
	r.Remove(a.id)

	if len(snap) != 1 || snap[0] != a {
		t.Error("snapshot changed after registry mutation")
	}
	if r.Snapshot("missing") != nil {
		t.Error("Snapshot of unknown channel should be nil")
	}
}

func TestRegistry_Remove(t *testing.T) {
	r := NewRegistry()
	a := noopSubscription("c", false)
	b := noopSubscription("c", true)
	r.Add(a)
	r.Add(b)

	if !r.Remove(b.id) {
		t.Error("Remove of registered subscription returned false")
	}
	if r.Remove(b.id) {
		t.Error("second Remove returned true")
	}
	if r.Remove("unknown") {
		t.Error("Remove of unknown ID returned true")
	}
	if r.CountByChannel("c") != 1 {
		t.Errorf("CountByChannel = %d, want 1", r.CountByChannel("c"))
	}

	r.Remove(a.id)
	if len(r.Channels()) != 0 {
		t.Errorf("Channels = %v, want none", r.Channels())
	}
	if _, ok := r.Get(a.id); ok {
		t.Error("Get found removed subscription")
	}
}

func TestRegistry_Clear(t *testing.T) {
	r := NewRegistry()
	r.Add(noopSubscription("a", false))
	r.Add(noopSubscription("a", true))
	r.Add(noopSubscription("b", false))

	if removed := r.Clear("a"); len(removed) != 2 {
		t.Errorf("Clear(a) removed %d, want 2", len(removed))
	}
	if r.Count() != 1 {
		t.Errorf("Count = %d, want 1", r.Count())
	}
	if removed := r.Clear(); len(removed) != 1 {
		t.Errorf("Clear() removed %d, want 1", len(removed))
	}
	if r.Count() != 0 {
		t.Errorf("Count = %d, want 0", r.Count())
	}
}

func TestRegistry_MarkWarned(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < 3; i++ {
		r.Add(noopSubscription("c", false))
	}

	if r.markWarned("c", 3) {
		t.Error("warned at the ceiling")
	}
	if r.markWarned("c", 0) {
		t.Error("warned with ceiling disabled")
	}

	r.Add(noopSubscription("c", false))
	if !r.markWarned("c", 3) {
		t.Error("not warned above the ceiling")
	}
	if r.markWarned("c", 3) {
		t.Error("warned twice")
	}

	// The warning re-arms once the channel empties.
	r.Clear("c")
	for i := 0; i < 4; i++ {
		r.Add(noopSubscription("c", false))
	}
	if !r.markWarned("c", 3) {
		t.Error("not warned after the channel was emptied and refilled")
	}
}
