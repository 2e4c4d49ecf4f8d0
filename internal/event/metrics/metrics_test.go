package metrics

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/gigbus/internal/event"
	"github.com/dshills/gigbus/internal/event/history"
)

func TestRegister_ExportsEmitterStats(t *testing.T) {
	e := event.NewEmitter(event.WithName("main"))
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, Register(reg, e))

	_, err := e.SubscribeFunc("c", func(context.Context, any) error { return errors.New("x") })
	require.NoError(t, err)
	_, err = e.SubscribeFunc("c", func(context.Context, any) error { return nil })
	require.NoError(t, err)

	e.Publish(context.Background(), "c", nil)
	e.Publish(context.Background(), "none", nil)

	count, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 10, count)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	values := make(map[string]float64)
	for _, mf := range mfs {
		m := mf.GetMetric()[0]
		assert.Equal(t, "main", m.GetLabel()[0].GetValue())
		if c := m.GetCounter(); c != nil {
			values[mf.GetName()] = c.GetValue()
		}
		if g := m.GetGauge(); g != nil {
			values[mf.GetName()] = g.GetValue()
		}
	}

	assert.Equal(t, 2.0, values["gigbus_emitter_events_published_total"])
	assert.Equal(t, 1.0, values["gigbus_emitter_events_undelivered_total"])
	assert.Equal(t, 2.0, values["gigbus_emitter_handlers_executed_total"])
	assert.Equal(t, 1.0, values["gigbus_emitter_handler_errors_total"])
	assert.Equal(t, 2.0, values["gigbus_emitter_subscribers"])
	assert.Equal(t, 1.0, values["gigbus_emitter_channels"])
}

func TestRegister_DuplicateFails(t *testing.T) {
	e := event.NewEmitter()
	reg := prometheus.NewRegistry()

	require.NoError(t, Register(reg, e))
	assert.Error(t, Register(reg, e))
}

func TestRegisterHistory(t *testing.T) {
	store := history.New(history.WithMaxEvents(2))
	reg := prometheus.NewRegistry()
	require.NoError(t, RegisterHistory(reg, "main", store))

	for i := 0; i < 3; i++ {
		store.Store("c", i)
	}

	expected := `
# HELP gigbus_history_evicted_total Records dropped by the history bound.
# TYPE gigbus_history_evicted_total counter
gigbus_history_evicted_total{emitter="main"} 1
# HELP gigbus_history_max_records Bound of the history log.
# TYPE gigbus_history_max_records gauge
gigbus_history_max_records{emitter="main"} 2
# HELP gigbus_history_records Records held in the history log.
# TYPE gigbus_history_records gauge
gigbus_history_records{emitter="main"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected)))
}
