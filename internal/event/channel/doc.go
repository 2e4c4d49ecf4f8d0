// Package channel provides channel names and typed channel keys for the event bus.
//
// # Name Format
//
// Channel names use dot-notation to create hierarchical namespaces:
//
//	sync.started
//	sync.failed
//	setlist.saved
//	pwa.update.available
//
// # Typed Channels
//
// Every channel carries exactly one payload type for the lifetime of the program.
// The association is made once, as a package-level variable:
//
//	var SyncFailed = channel.New[SyncFailure]("sync.failed")
//
// The event package accepts an Of[T] wherever compile-time checking of the payload
// is wanted.
//
// # Patterns
//
// Names can be matched against wildcard patterns, which middleware uses for scoping:
//
//   - "*" matches exactly one segment
//   - "**" matches zero or more segments
//
// Examples:
//
//	sync.*          matches sync.started, sync.failed (not sync.batch.done)
//	sync.**         matches sync.started, sync.batch.done
//	*.saved         matches note.saved, venue.saved
//	**              matches everything
package channel
