package event

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestPublishAsync_WaitsForEveryHandler(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	var failures atomic.Int32
	e := NewEmitter(WithErrorHandler(func(error) { failures.Add(1) }))

	var settled atomic.Int32
	for i := 0; i < 3; i++ {
		delay := time.Duration(i+1) * 10 * time.Millisecond
		_, err := e.SubscribeAsync("c", Go(HandlerFunc(func(context.Context, any) error {
			time.Sleep(delay)
			settled.Add(1)
			return nil
		})))
		require.NoError(t, err)
	}
	_, err := e.SubscribeAsync("c", Go(HandlerFunc(func(context.Context, any) error {
		settled.Add(1)
		return errors.New("rejected")
	})))
	require.NoError(t, err)
	_, err = e.SubscribeAsync("c", Go(HandlerFunc(func(context.Context, any) error {
		settled.Add(1)
		panic("async panic")
	})))
	require.NoError(t, err)

	require.NoError(t, e.PublishAsync(context.Background(), "c", nil))
	assert.Equal(t, int32(5), settled.Load(), "every handler settled before PublishAsync returned")
	assert.Equal(t, int32(2), failures.Load())
}

func TestPublishAsync_SyncHandlersRunInline(t *testing.T) {
	e := NewEmitter()
	log := &callLog{}

	_, err := e.SubscribeFunc("c", log.handler("sync"))
	require.NoError(t, err)
	_, err = e.SubscribeOnceFunc("c", log.handler("once"))
	require.NoError(t, err)

	require.NoError(t, e.PublishAsync(context.Background(), "c", nil))
	assert.Equal(t, []string{"sync", "once"}, log.get())
	assert.Equal(t, 1, e.SubscriberCount("c"))
}

func TestPublishAsync_NoSubscribers(t *testing.T) {
	e := NewEmitter()
	assert.NoError(t, e.PublishAsync(context.Background(), "none", nil))
	assert.Equal(t, uint64(1), e.Stats().EventsUndelivered)
}

func TestPublishAsync_OnceAcrossConcurrentCalls(t *testing.T) {
	e := NewEmitter()

	var count atomic.Int32
	_, err := e.SubscribeOnceAsync("c", Go(HandlerFunc(func(context.Context, any) error {
		count.Add(1)
		return nil
	})))
	require.NoError(t, err)

	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() { done <- e.PublishAsync(context.Background(), "c", nil) }()
	}
	for i := 0; i < 8; i++ {
		require.NoError(t, <-done)
	}
	assert.Equal(t, int32(1), count.Load())
}

func TestPublishAsync_ContextDone(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	e := NewEmitter()
	release := make(chan struct{})
	_, err := e.SubscribeAsync("c", Go(HandlerFunc(func(context.Context, any) error {
		<-release
		return nil
	})))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err = e.PublishAsync(ctx, "c", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
}

func TestPublishAsync_MaxConcurrency(t *testing.T) {
	e := NewEmitter(WithMaxConcurrency(1))

	var running, peak atomic.Int32
	for i := 0; i < 4; i++ {
		_, err := e.SubscribeAsync("c", Go(HandlerFunc(func(context.Context, any) error {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			running.Add(-1)
			return nil
		})))
		require.NoError(t, err)
	}

	require.NoError(t, e.PublishAsync(context.Background(), "c", nil))
	assert.Equal(t, int32(1), peak.Load())
}

func TestPublishWithTimeout_NeverCompletingHandler(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	e := NewEmitter()
	release := make(chan struct{})
	var finished atomic.Bool
	_, err := e.SubscribeAsync("c", Go(HandlerFunc(func(context.Context, any) error {
		<-release
		finished.Store(true)
		return nil
	})))
	require.NoError(t, err)

	start := time.Now()
	err = e.PublishWithTimeout(context.Background(), "c", nil, 10*time.Millisecond)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPublishTimeout)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.NotErrorIs(t, err, ErrHandlerPanic)

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, "publish", timeoutErr.Op)
	assert.Equal(t, 10*time.Millisecond, timeoutErr.After)

	assert.GreaterOrEqual(t, elapsed, 10*time.Millisecond)
	assert.Less(t, elapsed, 500*time.Millisecond)
	assert.Equal(t, uint64(1), e.Stats().Timeouts)

	assert.False(t, finished.Load())
	close(release)
	e.Wait()
	assert.True(t, finished.Load(), "handler work continues after the timeout")
}

func TestPublishWithTimeout_CompletesInTime(t *testing.T) {
	e := NewEmitter()

	var ran atomic.Bool
	_, err := e.SubscribeAsync("c", Go(HandlerFunc(func(context.Context, any) error {
		ran.Store(true)
		return errors.New("failure is not a timeout")
	})))
	require.NoError(t, err)

	require.NoError(t, e.PublishWithTimeout(context.Background(), "c", nil, time.Second))
	assert.True(t, ran.Load())
	assert.Equal(t, uint64(0), e.Stats().Timeouts)
}

func TestPublishWithTimeout_MockClock(t *testing.T) {
	mock := clock.NewMock()
	e := NewEmitter(WithClock(mock))

	release := make(chan struct{})
	defer close(release)
	_, err := e.SubscribeFunc("c", func(context.Context, any) error {
		<-release
		return nil
	})
	require.NoError(t, err)

	result := make(chan error, 1)
	go func() {
		result <- e.PublishWithTimeout(context.Background(), "c", nil, 50*time.Millisecond)
	}()

	// Advance until the timer registered by PublishWithTimeout fires.
	require.Eventually(t, func() bool {
		mock.Add(10 * time.Millisecond)
		select {
		case err := <-result:
			return errors.Is(err, ErrPublishTimeout)
		default:
			return false
		}
	}, time.Second, time.Millisecond)
}

func TestPublishWithTimeout_NonPositive(t *testing.T) {
	e := NewEmitter()
	log := &callLog{}
	_, err := e.SubscribeAsync("c", Go(log.handler("h")))
	require.NoError(t, err)

	require.NoError(t, e.PublishWithTimeout(context.Background(), "c", nil, 0))
	assert.Equal(t, []string{"h"}, log.get())
}
