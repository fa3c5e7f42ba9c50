package server

import "errors"

var (
	// ErrTooManyServers indicates all server slots are in use.
	ErrTooManyServers = errors.New("too many servers")
	// ErrInvalidPortCount indicates a port count out of range.
	ErrInvalidPortCount = errors.New("invalid port count")
	// ErrInvalidServer indicates an unknown server id.
	ErrInvalidServer = errors.New("invalid server")
	// ErrInvalidPort indicates a port outside the server's range.
	ErrInvalidPort = errors.New("invalid port")
	// ErrAlreadyRegistered indicates the port already has a service,
	// or the service function is nil.
	ErrAlreadyRegistered = errors.New("service already registered")
	// ErrShortBuffer indicates the parameter buffer is smaller than
	// the declared parameter length.
	ErrShortBuffer = errors.New("parameter buffer too short")
	// ErrBusy indicates the previous invocation is not yet dispatched.
	ErrBusy = errors.New("service busy")
	// ErrNotRegistered indicates no service is bound to the port.
	ErrNotRegistered = errors.New("service not registered")
)
