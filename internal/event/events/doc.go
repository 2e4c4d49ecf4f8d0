// Package events declares the application's event channels.
//
// Each channel is a channel.Of[T] pairing one name with one payload type, so
// publishing or subscribing through event.Emit and event.On is checked at
// compile time. The set of channels is closed: add new ones here.
//
// Channel names use dot notation grouped by feature area:
//
//	sync.started          - a data sync run began
//	pwa.update.available  - a new application build is ready
//	library.note.saved    - a note was created or updated
//	toast.shown           - a notification should be displayed
package events
