package mos

import "errors"

var (
	// ErrSelfCheck indicates the CRC self check failed at startup.
	ErrSelfCheck = errors.New("crc self check failed")
	// ErrRunning indicates the system is already running.
	ErrRunning = errors.New("system already running")
)
