package events

import (
	"time"

	"github.com/dshills/gigbus/internal/event/channel"
)

// Level is a notification severity.
type Level string

// Notification levels.
const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Toast asks the UI to show a notification.
type Toast struct {
	Level   Level
	Message string

	// Duration is how long the toast stays visible; zero means the UI default.
	Duration time.Duration
}

// ChannelToast carries notifications.
var ChannelToast = channel.New[Toast]("toast.shown")

// ToastFor maps sync lifecycle payloads to the toast shown for them.
func ToastFor(payload any) (Toast, bool) {
	switch p := payload.(type) {
	case SyncStarted:
		return Toast{Level: LevelInfo, Message: "Syncing…"}, true
	case SyncCompleted:
		return Toast{Level: LevelSuccess, Message: "Sync complete"}, true
	case SyncFailed:
		return Toast{Level: LevelError, Message: "Sync failed: " + p.Reason}, true
	case ConnectivityChanged:
		if p.Online {
			return Toast{Level: LevelInfo, Message: "Back online"}, true
		}
		return Toast{Level: LevelWarning, Message: "You are offline"}, true
	case UpdateAvailable:
		return Toast{Level: LevelInfo, Message: "Update " + p.Version + " available"}, true
	}
	return Toast{}, false
}
