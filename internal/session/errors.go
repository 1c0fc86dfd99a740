package session

import "errors"

var (
	// ErrEmptyMessage is returned when a learner submits blank text.
	ErrEmptyMessage = errors.New("session: message must not be empty")

	// ErrBusy is returned when a conversation turn is already in flight.
	ErrBusy = errors.New("session: a message is already being sent")

	// ErrStale is returned when the settings changed while a flow was in
	// flight. The reply was discarded.
	ErrStale = errors.New("session: settings changed while the request was in flight")

	// ErrInvalidSelection is returned for a language, dialect, topic or mode
	// that is not in the catalog.
	ErrInvalidSelection = errors.New("session: invalid selection")

	// ErrTooManySessions is returned by Manager.Create at the session limit.
	ErrTooManySessions = errors.New("session: too many sessions")

	// ErrNotFound is returned for unknown session IDs.
	ErrNotFound = errors.New("session: not found")
)
