package middleware

import (
	"context"

	"github.com/dshills/gigbus/internal/event/channel"
)

// ForChannels applies mw only to channels matching pattern. Other channels
// pass straight through.
func ForChannels(pattern channel.Name, mw Func) Func {
	return func(ctx context.Context, name channel.Name, payload any, next Next) error {
		if !name.Matches(pattern) {
			return next(ctx, payload)
		}
		return mw(ctx, name, payload, next)
	}
}

// Filter drops payloads for which keep returns false.
func Filter(keep func(name channel.Name, payload any) bool) Func {
	return func(ctx context.Context, name channel.Name, payload any, next Next) error {
		if !keep(name, payload) {
			return nil
		}
		return next(ctx, payload)
	}
}

// Map substitutes the payload with the result of fn. A nil result keeps the
// payload unchanged.
func Map(fn func(name channel.Name, payload any) any) Func {
	return func(ctx context.Context, name channel.Name, payload any, next Next) error {
		return next(ctx, fn(name, payload))
	}
}
