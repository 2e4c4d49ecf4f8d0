package timing

import (
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder[T any] struct {
	mu    sync.Mutex
	calls []T
}

func (r *recorder[T]) record(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, v)
}

func (r *recorder[T]) snapshot() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]T(nil), r.calls...)
}

func TestDebouncer_LastCallWins(t *testing.T) {
	mock := clock.NewMock()
	rec := &recorder[int]{}
	d := NewDebouncer(100*time.Millisecond, rec.record, WithClock(mock))

	d.Call(1)
	mock.Add(10 * time.Millisecond)
	d.Call(2)
	mock.Add(10 * time.Millisecond)
	d.Call(3)
	mock.Add(10 * time.Millisecond)

	assert.True(t, d.IsPending())
	assert.Empty(t, rec.snapshot())

	mock.Add(100 * time.Millisecond)

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, []int{3}, rec.snapshot())
	assert.False(t, d.IsPending())

	mock.Add(time.Second)
	assert.Equal(t, []int{3}, rec.snapshot())
}

func TestDebouncer_CallRestartsQuietPeriod(t *testing.T) {
	mock := clock.NewMock()
	rec := &recorder[string]{}
	d := NewDebouncer(100*time.Millisecond, rec.record, WithClock(mock))

	d.Call("a")
	mock.Add(90 * time.Millisecond)
	d.Call("b")
	mock.Add(90 * time.Millisecond)
	assert.Empty(t, rec.snapshot())

	mock.Add(10 * time.Millisecond)
	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, []string{"b"}, rec.snapshot())
}

func TestDebouncer_Flush(t *testing.T) {
	mock := clock.NewMock()
	rec := &recorder[int]{}
	d := NewDebouncer(100*time.Millisecond, rec.record, WithClock(mock))

	assert.False(t, d.Flush())

	d.Call(7)
	assert.True(t, d.Flush())
	assert.Equal(t, []int{7}, rec.snapshot())

	mock.Add(time.Second)
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, []int{7}, rec.snapshot())
}

func TestDebouncer_Cancel(t *testing.T) {
	mock := clock.NewMock()
	rec := &recorder[int]{}
	d := NewDebouncer(100*time.Millisecond, rec.record, WithClock(mock))

	d.Call(1)
	d.Cancel()
	assert.False(t, d.IsPending())

	mock.Add(time.Second)
	time.Sleep(5 * time.Millisecond)
	assert.Empty(t, rec.snapshot())
}

func TestDebounce_Func(t *testing.T) {
	mock := clock.NewMock()
	rec := &recorder[int]{}
	fn := Debounce(rec.record, 50*time.Millisecond, WithClock(mock))

	fn(1)
	fn(2)
	mock.Add(50 * time.Millisecond)

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, []int{2}, rec.snapshot())
}
