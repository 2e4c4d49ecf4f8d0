// Package history keeps a bounded, ordered log of published events.
//
// The log is a ring: once it holds MaxEvents records, storing another evicts
// the oldest. Readers always receive copies, so callers may keep or modify
// what they get back.
package history

import (
	"io"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/dshills/gigbus/internal/event/channel"
)

// DefaultMaxEvents is the default log bound.
const DefaultMaxEvents = 1000

// Record is one stored event.
type Record struct {
	ID        string       `json:"id"`
	Channel   channel.Name `json:"channel"`
	Payload   any          `json:"payload"`
	Timestamp time.Time    `json:"timestamp"`
	Processed bool         `json:"processed"`
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used to timestamp records.
func WithClock(clk clock.Clock) Option {
	return func(s *Store) {
		if clk != nil {
			s.clock = clk
		}
	}
}

// WithMaxEvents sets the log bound. Non-positive values are ignored.
func WithMaxEvents(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.max = n
		}
	}
}

// Store is a bounded event log. It is safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	clock clock.Clock

	// ring holds records oldest first starting at head.
	ring  []Record
	head  int
	count int
	max   int

	evicted uint64
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		clock: clock.New(),
		max:   DefaultMaxEvents,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store appends a record for payload with a fresh ID and the current time,
// evicting the oldest record when the log is full.
func (s *Store) Store(name channel.Name, payload any) Record {
	rec := Record{
		ID:        newID(),
		Channel:   name,
		Payload:   payload,
		Timestamp: s.clock.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.ring) < s.max {
		// Still filling: the ring is linear with head at zero.
		s.ring = append(s.ring, rec)
		s.count++
		return rec
	}

	s.ring[s.head] = rec
	s.head = (s.head + 1) % s.max
	s.evicted++
	return rec
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// linear returns the records oldest first. Caller holds the lock.
func (s *Store) linear() []Record {
	out := make([]Record, 0, s.count)
	for i := 0; i < s.count; i++ {
		out = append(out, s.ring[(s.head+i)%len(s.ring)])
	}
	return out
}

// at returns a pointer to the i-th oldest record. Caller holds the lock.
func (s *Store) at(i int) *Record {
	return &s.ring[(s.head+i)%len(s.ring)]
}

func (s *Store) collect(keep func(*Record) bool) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Record
	for i := 0; i < s.count; i++ {
		if rec := s.at(i); keep(rec) {
			out = append(out, *rec)
		}
	}
	return out
}

// Events returns every record in store order.
func (s *Store) Events() []Record {
	return s.collect(func(*Record) bool { return true })
}

// EventsByChannel returns the records stored for name.
func (s *Store) EventsByChannel(name channel.Name) []Record {
	return s.collect(func(r *Record) bool { return r.Channel == name })
}

// EventsSince returns the records stamped at or after t.
func (s *Store) EventsSince(t time.Time) []Record {
	return s.collect(func(r *Record) bool { return !r.Timestamp.Before(t) })
}

// Unprocessed returns the records not yet marked processed.
func (s *Store) Unprocessed() []Record {
	return s.collect(func(r *Record) bool { return !r.Processed })
}

// Get returns the record with the given ID.
func (s *Store) Get(id string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := 0; i < s.count; i++ {
		if rec := s.at(i); rec.ID == id {
			return *rec, true
		}
	}
	return Record{}, false
}

// MarkProcessed flags the record with the given ID as processed.
// It returns false if no such record is in the log.
func (s *Store) MarkProcessed(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < s.count; i++ {
		if rec := s.at(i); rec.ID == id {
			rec.Processed = true
			return true
		}
	}
	return false
}

// SetMaxEvents changes the bound, keeping only the newest n records if the
// log is larger. Non-positive values are ignored.
func (s *Store) SetMaxEvents(n int) {
	if n <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.linear()
	if len(records) > n {
		s.evicted += uint64(len(records) - n)
		records = records[len(records)-n:]
	}
	s.ring = records
	s.head = 0
	s.count = len(records)
	s.max = n
}

// MaxEvents returns the current bound.
func (s *Store) MaxEvents() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.max
}

// Len returns the number of records in the log.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

// Evicted returns how many records have been dropped by the bound.
func (s *Store) Evicted() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.evicted
}

// Clear removes every record.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ring = nil
	s.head = 0
	s.count = 0
}

// WriteJSON writes the log, oldest first, as a JSON array.
func (s *Store) WriteJSON(w io.Writer) error {
	records := s.Events()
	if records == nil {
		records = []Record{}
	}
	return json.NewEncoder(w).Encode(records)
}
