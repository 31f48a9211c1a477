package eventlog

import "errors"

// Sentinel kinds for event log errors.
var (
	ErrPositionOutOfRange = errors.New("position out of range")
	ErrUnavailable        = errors.New("event log unavailable")
	ErrUnknownBackend     = errors.New("unknown event log backend")
	ErrClosed             = errors.New("event log closed")
)
