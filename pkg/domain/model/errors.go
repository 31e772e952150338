package model

import "errors"

var (
	// ErrInvalidEntity is returned when an entity lacks the data needed to locate it
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrUnknownDisk is returned when no path prefix is configured for a disk
	ErrUnknownDisk = errors.New("unknown disk")

	// ErrInvalidEvent is returned for malformed event payloads
	ErrInvalidEvent = errors.New("invalid event")

	// ErrUnresolvedPlaceholder is returned when a command template references a
	// key that is not present in the event context
	ErrUnresolvedPlaceholder = errors.New("unresolved placeholder")

	// ErrLaunchFailed is returned when the shell process could not be started
	ErrLaunchFailed = errors.New("failed to launch command")
)
