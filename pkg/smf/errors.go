package smf

import "errors"

var (
	// ErrInvalidState indicates a state outside the declared range.
	ErrInvalidState = errors.New("invalid state")
	// ErrInvalidEvent indicates an event outside the declared range.
	ErrInvalidEvent = errors.New("invalid event")
	// ErrInvalidSize indicates a table dimension out of range.
	ErrInvalidSize = errors.New("invalid state machine size")
	// ErrQueueFull indicates the event was dropped.
	ErrQueueFull = errors.New("event queue full")
)
