package sched

import "errors"

var (
	// ErrInvalidSize indicates the task table size is not positive.
	ErrInvalidSize = errors.New("task table size must be positive")
	// ErrTableFull indicates no free slot is left in the task table.
	ErrTableFull = errors.New("task table full")
	// ErrInvalidHandle indicates the task ID is outside the table.
	ErrInvalidHandle = errors.New("invalid task handle")
	// ErrNilTask indicates a nil task function.
	ErrNilTask = errors.New("nil task")
)
