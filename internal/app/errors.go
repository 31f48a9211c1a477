package service

import "errors"

// Sentinel error kinds returned by the service.
var (
	ErrLogUnavailable = errors.New("event log unavailable")
	ErrRecordNotFound = errors.New("record not found")
)
