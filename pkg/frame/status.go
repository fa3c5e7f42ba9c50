package frame

import "fmt"

// Status is the result code of the last frame.
type Status byte

// Status codes.
const (
	FrameOk        Status = 0x00
	ServiceBusy    Status = 0x01
	HeaderError    Status = 0x51
	ChecksumError  Status = 0x52
	FrameSizeError Status = 0x53
	InvalidParams  Status = 0x54
	InvalidService Status = 0x55
	InvalidPort    Status = 0x56
	Ongoing        Status = 0x57
	UnknownError   Status = 0x58
	UnknownResp    Status = 0x59
	Version        Status = 0xc0
)

var statusNames = map[Status]string{
	FrameOk:        "ok",
	ServiceBusy:    "service busy",
	HeaderError:    "header error",
	ChecksumError:  "checksum error",
	FrameSizeError: "frame size error",
	InvalidParams:  "invalid params",
	InvalidService: "invalid service",
	InvalidPort:    "invalid port",
	Ongoing:        "ongoing",
	UnknownError:   "unknown error",
	UnknownResp:    "unknown response",
	Version:        "version",
}

// String implements fmt.Stringer.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status 0x%02x", byte(s))
}

// Error implements error.
func (s Status) Error() string {
	return "frame: " + s.String()
}

// Known reports whether s is one of the defined codes.
func (s Status) Known() bool {
	_, ok := statusNames[s]
	return ok
}

// Err returns nil for FrameOk and s otherwise.
func (s Status) Err() error {
	if s == FrameOk {
		return nil
	}
	return s
}
