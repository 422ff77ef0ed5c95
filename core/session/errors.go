package session

import "errors"

var (
	// ErrNoSession means the client has no usable record.
	ErrNoSession = errors.New("no active session")
	// ErrCorruptData is logged when slot content does not decode.
	ErrCorruptData = errors.New("corrupt session data")
	// ErrSerialization means the record could not be encoded; nothing was stored.
	ErrSerialization = errors.New("session serialization failed")
	// ErrSlotEmpty is returned by Slot.Get for a missing key.
	ErrSlotEmpty = errors.New("session slot is empty")
	// ErrEmptyClient is returned when an operation gets no client ID.
	ErrEmptyClient = errors.New("empty client id")
)
