package events

import "github.com/dshills/gigbus/internal/event/channel"

// ConnectivityChanged is published when the network comes or goes.
type ConnectivityChanged struct {
	Online bool
}

// UpdateAvailable is published when a newer application build is ready.
type UpdateAvailable struct {
	Version string
}

// Application status channels.
var (
	ChannelConnectivityChanged = channel.New[ConnectivityChanged]("pwa.connectivity.changed")
	ChannelUpdateAvailable     = channel.New[UpdateAvailable]("pwa.update.available")
)
