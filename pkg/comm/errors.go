package comm

import (
	"errors"
	"fmt"

	"github.com/robotalks/mos.go/pkg/frame"
)

var (
	// ErrNoReply indicates no reply received for a request.
	ErrNoReply = errors.New("no reply")
	// ErrClosed indicates the client stopped running.
	ErrClosed = errors.New("client closed")
	// ErrUnexpectedReply indicates a reply for another query.
	ErrUnexpectedReply = errors.New("unexpected reply")
)

// CallError wraps a non-ok frame status of a call.
type CallError struct {
	Port   byte
	Status frame.Status
}

// Error implements error.
func (e *CallError) Error() string {
	return fmt.Sprintf("call 0x%02x: %v", e.Port, e.Status)
}

// Unwrap returns the status.
func (e *CallError) Unwrap() error {
	return e.Status
}
