package events

import "github.com/dshills/gigbus/internal/event/channel"

// Kind names a kind of library item.
type Kind string

// Library item kinds.
const (
	KindNote    Kind = "note"
	KindSetlist Kind = "setlist"
	KindVenue   Kind = "venue"
)

// ItemSaved is published when a library item is created or updated.
type ItemSaved struct {
	Kind    Kind
	ID      string
	Title   string
	Created bool
}

// ItemDeleted is published when a library item is removed.
type ItemDeleted struct {
	Kind Kind
	ID   string
}

// Library channels.
var (
	ChannelNoteSaved      = channel.New[ItemSaved]("library.note.saved")
	ChannelNoteDeleted    = channel.New[ItemDeleted]("library.note.deleted")
	ChannelSetlistSaved   = channel.New[ItemSaved]("library.setlist.saved")
	ChannelSetlistDeleted = channel.New[ItemDeleted]("library.setlist.deleted")
	ChannelVenueSaved     = channel.New[ItemSaved]("library.venue.saved")
	ChannelVenueDeleted   = channel.New[ItemDeleted]("library.venue.deleted")
)

// Saved returns the saved channel for kind.
func Saved(kind Kind) (channel.Of[ItemSaved], bool) {
	switch kind {
	case KindNote:
		return ChannelNoteSaved, true
	case KindSetlist:
		return ChannelSetlistSaved, true
	case KindVenue:
		return ChannelVenueSaved, true
	}
	return channel.Of[ItemSaved]{}, false
}

// Deleted returns the deleted channel for kind.
func Deleted(kind Kind) (channel.Of[ItemDeleted], bool) {
	switch kind {
	case KindNote:
		return ChannelNoteDeleted, true
	case KindSetlist:
		return ChannelSetlistDeleted, true
	case KindVenue:
		return ChannelVenueDeleted, true
	}
	return channel.Of[ItemDeleted]{}, false
}
