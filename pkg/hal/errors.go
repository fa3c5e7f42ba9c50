package hal

import "errors"

var (
	// ErrNoSlave indicates no slave is attached to the bus.
	ErrNoSlave = errors.New("no slave attached")
	// ErrInvalidLength indicates a zero or negative read length.
	ErrInvalidLength = errors.New("invalid length")
)
