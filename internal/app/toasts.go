package app

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/dshills/gigbus/internal/event"
	"github.com/dshills/gigbus/internal/event/channel"
	"github.com/dshills/gigbus/internal/event/events"
	"github.com/dshills/gigbus/internal/log"
)

// toastSources are the channels whose payloads surface as notifications.
var toastSources = []channel.Name{
	events.ChannelSyncStarted.Name(),
	events.ChannelSyncCompleted.Name(),
	events.ChannelSyncFailed.Name(),
	events.ChannelConnectivityChanged.Name(),
	events.ChannelUpdateAvailable.Name(),
}

// Toasts republishes sync and connectivity events as toast notifications.
type Toasts struct {
	emitter *event.StoredEmitter
	sub     *event.Subscriber
	logger  zerolog.Logger
}

// ProvideToasts creates the toast forwarder. It subscribes on Start.
func ProvideToasts(e *event.StoredEmitter, logger zerolog.Logger) *Toasts {
	return &Toasts{
		emitter: e,
		sub:     event.NewSubscriber(e),
		logger:  log.WithComponent(logger, "toasts"),
	}
}

// Start subscribes to every toast source.
func (t *Toasts) Start() error {
	for _, name := range toastSources {
		if _, err := t.sub.SubscribeFunc(name, t.forward); err != nil {
			t.sub.UnsubscribeAll()
			return err
		}
	}
	return nil
}

// Stop removes the toast subscriptions.
func (t *Toasts) Stop() {
	t.sub.UnsubscribeAll()
}

func (t *Toasts) forward(ctx context.Context, payload any) error {
	toast, ok := events.ToastFor(payload)
	if !ok {
		return nil
	}
	t.logger.Debug().Str("level", string(toast.Level)).Msg(toast.Message)
	event.Emit(ctx, t.emitter, events.ChannelToast, toast)
	return nil
}
