package event

import (
	"context"

	"github.com/dshills/gigbus/internal/event/channel"
)

// Delivery identifies the subscription a handler is running for.
type Delivery struct {
	SubscriptionID string
	Channel        channel.Name
}

type deliveryKey struct{}

// DeliveryFrom returns the delivery that ctx was handed to a handler for.
func DeliveryFrom(ctx context.Context) (Delivery, bool) {
	d, ok := ctx.Value(deliveryKey{}).(Delivery)
	return d, ok
}

func withDelivery(ctx context.Context, sub *subscription) context.Context {
	return context.WithValue(ctx, deliveryKey{}, Delivery{SubscriptionID: sub.id, Channel: sub.channel})
}
