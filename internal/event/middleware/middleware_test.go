package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/gigbus/internal/event/channel"
)

type delivery struct {
	name    channel.Name
	payload any
}

func recordingTerminal(out *[]delivery) Terminal {
	return func(_ context.Context, name channel.Name, payload any) error {
		*out = append(*out, delivery{name: name, payload: payload})
		return nil
	}
}

func TestPipeline_RunsInRegistrationOrder(t *testing.T) {
	var order []string
	tag := func(label string) Func {
		return func(ctx context.Context, name channel.Name, payload any, next Next) error {
			order = append(order, label)
			return next(ctx, payload)
		}
	}

	p := New(tag("first"))
	p.Use(tag("second"), nil, tag("third"))
	require.Equal(t, 3, p.Len())

	var got []delivery
	require.NoError(t, p.Process(context.Background(), "note.saved", 1, recordingTerminal(&got)))

	assert.Equal(t, []string{"first", "second", "third"}, order)
	assert.Equal(t, []delivery{{name: "note.saved", payload: 1}}, got)
}

func TestPipeline_EmptyChainCallsTerminal(t *testing.T) {
	var got []delivery
	require.NoError(t, New().Process(context.Background(), "a", "p", recordingTerminal(&got)))
	assert.Equal(t, []delivery{{name: "a", payload: "p"}}, got)

	assert.NoError(t, New().Process(context.Background(), "a", "p", nil))
}

func TestPipeline_LastSubstitutionWins(t *testing.T) {
	p := New(
		Map(func(_ channel.Name, payload any) any { return payload.(int) + 1 }),
		func(ctx context.Context, _ channel.Name, payload any, next Next) error {
			return next(ctx, payload)
		},
		Map(func(_ channel.Name, payload any) any { return payload.(int) * 10 }),
	)

	var got []delivery
	require.NoError(t, p.Process(context.Background(), "n", 1, recordingTerminal(&got)))
	require.Len(t, got, 1)
	assert.Equal(t, 20, got[0].payload)
}

func TestPipeline_NilKeepsCurrentPayload(t *testing.T) {
	p := New(
		Map(func(_ channel.Name, payload any) any { return payload.(string) + "!" }),
		func(ctx context.Context, _ channel.Name, _ any, next Next) error {
			return next(ctx, nil)
		},
	)

	var got []delivery
	require.NoError(t, p.Process(context.Background(), "toast.shown", "saved", recordingTerminal(&got)))
	assert.Equal(t, []delivery{{name: "toast.shown", payload: "saved!"}}, got)

	got = nil
	clear := New(Map(func(channel.Name, any) any { return nil }))
	require.NoError(t, clear.Process(context.Background(), "toast.shown", "saved", recordingTerminal(&got)))
	assert.Equal(t, []delivery{{name: "toast.shown", payload: "saved"}}, got)
}

func TestPipeline_NotCallingNextDrops(t *testing.T) {
	var after bool
	p := New(
		func(context.Context, channel.Name, any, Next) error { return nil },
		func(ctx context.Context, _ channel.Name, payload any, next Next) error {
			after = true
			return next(ctx, payload)
		},
	)

	var got []delivery
	require.NoError(t, p.Process(context.Background(), "n", 1, recordingTerminal(&got)))
	assert.Empty(t, got)
	assert.False(t, after)
}

func TestPipeline_ErrorsPropagate(t *testing.T) {
	boom := errors.New("boom")

	p := New(func(context.Context, channel.Name, any, Next) error { return boom })
	assert.ErrorIs(t, p.Process(context.Background(), "n", 1, nil), boom)

	terminalErr := errors.New("terminal")
	p = New()
	err := p.Process(context.Background(), "n", 1, func(context.Context, channel.Name, any) error {
		return terminalErr
	})
	assert.ErrorIs(t, err, terminalErr)
}

func TestPipeline_NextTwice(t *testing.T) {
	var second error
	p := New(func(ctx context.Context, _ channel.Name, payload any, next Next) error {
		if err := next(ctx, payload); err != nil {
			return err
		}
		second = next(ctx, payload)
		return nil
	})

	var got []delivery
	require.NoError(t, p.Process(context.Background(), "n", 1, recordingTerminal(&got)))
	assert.Len(t, got, 1)
	assert.ErrorIs(t, second, ErrNextCalledTwice)
}

func TestPipeline_UseDuringProcess(t *testing.T) {
	p := New()
	p.Use(func(ctx context.Context, _ channel.Name, payload any, next Next) error {
		p.Use(Filter(func(channel.Name, any) bool { return false }))
		return next(ctx, payload)
	})

	var got []delivery
	require.NoError(t, p.Process(context.Background(), "n", 1, recordingTerminal(&got)))
	assert.Len(t, got, 1, "middleware added mid-process applies from the next publish")
	assert.Equal(t, 2, p.Len())
}

func TestForChannels(t *testing.T) {
	double := Map(func(_ channel.Name, payload any) any { return payload.(int) * 2 })
	p := New(ForChannels("sync.**", double))

	var got []delivery
	term := recordingTerminal(&got)
	require.NoError(t, p.Process(context.Background(), "sync.started", 2, term))
	require.NoError(t, p.Process(context.Background(), "note.saved", 2, term))

	assert.Equal(t, []delivery{
		{name: "sync.started", payload: 4},
		{name: "note.saved", payload: 2},
	}, got)
}

func TestFilter(t *testing.T) {
	p := New(Filter(func(_ channel.Name, payload any) bool {
		s, ok := payload.(string)
		return ok && s != ""
	}))

	var got []delivery
	term := recordingTerminal(&got)
	for _, payload := range []any{"keep", "", 3} {
		require.NoError(t, p.Process(context.Background(), "toast", payload, term))
	}

	assert.Equal(t, []delivery{{name: "toast", payload: "keep"}}, got)
}
