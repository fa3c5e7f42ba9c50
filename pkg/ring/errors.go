package ring

import "errors"

var (
	// ErrInvalidCapacity indicates the capacity is not a power of two.
	ErrInvalidCapacity = errors.New("capacity must be a power of two")
	// ErrFull indicates the buffer has no free slot.
	ErrFull = errors.New("ring full")
	// ErrEmpty indicates there is nothing to pop.
	ErrEmpty = errors.New("ring empty")
	// ErrAlreadySplit indicates the producer and consumer handles were
	// already handed out.
	ErrAlreadySplit = errors.New("ring already split")
)
