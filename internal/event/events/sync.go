package events

import (
	"time"

	"github.com/dshills/gigbus/internal/event/channel"
)

// SyncStarted is published when a sync run begins.
type SyncStarted struct {
	// RunID identifies the sync run.
	RunID string

	// Pending is the number of local changes waiting to be pushed.
	Pending int

	// StartedAt is when the run began.
	StartedAt time.Time
}

// SyncCompleted is published when a sync run finishes successfully.
type SyncCompleted struct {
	// RunID identifies the sync run.
	RunID string

	// Pushed is the number of local changes sent.
	Pushed int

	// Pulled is the number of remote changes applied.
	Pulled int

	// Duration is how long the run took.
	Duration time.Duration
}

// SyncFailed is published when a sync run fails.
type SyncFailed struct {
	// RunID identifies the sync run.
	RunID string

	// Reason is a human-readable failure description.
	Reason string

	// Retryable is true if the run may succeed when retried.
	Retryable bool
}

// Sync channels.
var (
	ChannelSyncStarted   = channel.New[SyncStarted]("sync.started")
	ChannelSyncCompleted = channel.New[SyncCompleted]("sync.completed")
	ChannelSyncFailed    = channel.New[SyncFailed]("sync.failed")
)
