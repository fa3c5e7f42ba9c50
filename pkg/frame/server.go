package frame

import (
	"errors"

	"github.com/robotalks/mos.go/pkg/server"
)

// Reserved header bytes.
const (
	SvcHeader    byte = 0x80
	StatusHeader byte = 0x55
)

// DefaultMaxPayload is the default limit of Port plus Data bytes.
const DefaultMaxPayload = 4

// Services is the registry a frame server delivers to.
// *server.Server implements it.
type Services interface {
	IsRegistered(port byte) bool
	ParamLen(port byte) (int, error)
	PushParam(port byte, data []byte) error
	Response(port byte) (byte, error)
}

// Options configures a frame server.
type Options struct {
	// MaxPayload limits Port plus Data bytes of one frame.
	MaxPayload int
}

func (o Options) maxPayload() int {
	if o.MaxPayload <= 0 || o.MaxPayload > 0xff {
		return DefaultMaxPayload
	}
	return o.MaxPayload
}

type parseState int

const (
	stateHeader    parseState = iota // waiting for header or query
	stateLength                      // waiting for length
	statePort                        // waiting for port
	stateData                        // receiving data
	stateChecksum                    // waiting for crc
	stateBadFrame                    // dropping bytes until transport state changes
	stateRspPort                     // answering port response
	stateRspStatus                   // answering frame status
)

// Server parses length-prefixed frames one byte at a time.
type Server struct {
	svc        Services
	maxPayload int

	state  parseState
	status Status
	port   byte
	length int
	buf    []byte
}

// NewServer creates a Server delivering frames to svc.
func NewServer(svc Services, opts Options) *Server {
	max := opts.maxPayload()
	return &Server{
		svc:        svc,
		maxPayload: max,
		status:     UnknownResp,
		buf:        make([]byte, 0, max+3),
	}
}

// Status returns the status of the last frame.
func (s *Server) Status() Status {
	return s.status
}

// Receiving reports whether a frame is partially received.
func (s *Server) Receiving() bool {
	return s.state >= stateLength && s.state <= stateChecksum
}

// Receive consumes one byte from the transport.
func (s *Server) Receive(b byte) {
	switch s.state {
	case stateHeader, stateRspPort, stateRspStatus:
		s.parseHeader(b)
	case stateLength:
		if b == 0 || int(b) > s.maxPayload {
			s.fail(FrameSizeError)
			return
		}
		s.buf = append(s.buf, b)
		s.length, s.state = int(b), statePort
	case statePort:
		s.buf = append(s.buf, b)
		s.port = b
		paramLen, err := s.svc.ParamLen(b)
		switch {
		case errors.Is(err, server.ErrInvalidPort):
			s.fail(InvalidPort)
		case err != nil:
			s.fail(InvalidService)
		case paramLen != s.length-1:
			s.fail(InvalidParams)
		case paramLen == 0:
			s.state = stateChecksum
		default:
			s.state = stateData
		}
	case stateData:
		s.buf = append(s.buf, b)
		if len(s.buf) >= s.length+2 {
			s.state = stateChecksum
		}
	case stateChecksum:
		s.buf = append(s.buf, b)
		if CRC8(s.buf) != 0 {
			s.fail(ChecksumError)
			return
		}
		s.deliver()
	case stateBadFrame:
	}
}

func (s *Server) parseHeader(b byte) {
	s.buf = s.buf[:0]
	switch {
	case b == SvcHeader:
		s.buf = append(s.buf, b)
		s.state = stateLength
	case b == StatusHeader:
		s.state = stateRspStatus
	case s.svc.IsRegistered(b):
		s.port, s.state = b, stateRspPort
	default:
		s.fail(HeaderError)
	}
}

func (s *Server) deliver() {
	switch err := s.svc.PushParam(s.port, s.buf[3:3+s.length-1]); {
	case err == nil:
		s.status = FrameOk
	case errors.Is(err, server.ErrBusy):
		s.status = ServiceBusy
	default:
		s.status = UnknownError
	}
	s.state = stateHeader
}

func (s *Server) fail(status Status) {
	s.status, s.state = status, stateBadFrame
}

// Transmit produces the next byte requested by the transport.
func (s *Server) Transmit() byte {
	switch s.state {
	case stateRspPort:
		if rsp, err := s.svc.Response(s.port); err == nil {
			return rsp
		}
		return byte(UnknownResp)
	case stateRspStatus:
		return byte(s.status)
	case stateLength, statePort, stateData, stateChecksum:
		return byte(Ongoing)
	}
	return byte(UnknownResp)
}

// StateChanged is notified on transport start and stop conditions.
// It recovers from a bad frame and aborts an incomplete one.
func (s *Server) StateChanged() {
	switch s.state {
	case stateBadFrame:
		s.state = stateHeader
	case stateLength, statePort, stateData, stateChecksum:
		s.status, s.state = FrameSizeError, stateHeader
	}
}
