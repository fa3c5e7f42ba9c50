package frame

import (
	"errors"

	"github.com/robotalks/mos.go/pkg/ring"
	"github.com/robotalks/mos.go/pkg/server"
)

// SLIP special bytes (RFC 1055).
const (
	SlipEnd    byte = 0xc0
	SlipEsc    byte = 0xdb
	SlipEscEnd byte = 0xdc
	SlipEscEsc byte = 0xdd
)

// SlipDecoder reassembles SLIP frames one byte at a time.
type SlipDecoder struct {
	buf      []byte
	esc      bool
	overflow bool
}

// NewSlipDecoder creates a decoder for frame bodies up to max bytes.
func NewSlipDecoder(max int) *SlipDecoder {
	return &SlipDecoder{buf: make([]byte, 0, max)}
}

// Decode consumes b. When b closes a frame, the unstuffed body is
// returned and stays valid until the next call. Empty frames are
// skipped. A frame longer than the decoder limit is dropped and reported
// with ErrFrameTooLong when it closes.
func (d *SlipDecoder) Decode(b byte) ([]byte, error) {
	if b == SlipEnd {
		body, overflow := d.buf, d.overflow
		d.Reset()
		if overflow {
			return nil, ErrFrameTooLong
		}
		if len(body) == 0 {
			return nil, nil
		}
		return body, nil
	}
	if d.esc {
		d.esc = false
		switch b {
		case SlipEscEnd:
			b = SlipEnd
		case SlipEscEsc:
			b = SlipEsc
		}
	} else if b == SlipEsc {
		d.esc = true
		return nil, nil
	}
	if d.overflow {
		return nil, nil
	}
	if len(d.buf) >= cap(d.buf) {
		d.overflow = true
		return nil, nil
	}
	d.buf = append(d.buf, b)
	return nil, nil
}

// Reset drops a partial frame.
func (d *SlipDecoder) Reset() {
	d.buf, d.esc, d.overflow = d.buf[:0], false, false
}

// Pending reports whether a frame is partially received.
func (d *SlipDecoder) Pending() bool {
	return len(d.buf) > 0 || d.esc || d.overflow
}

// SlipTxQueueLen is the capacity of the reply queue of a SlipServer.
const SlipTxQueueLen = 64

// SlipServer serves SLIP framed requests. Every complete frame is
// answered with a SLIP encoded reply [Header][Value][CRC], where Header
// is the queried port or StatusHeader.
type SlipServer struct {
	svc        Services
	maxPayload int
	dec        *SlipDecoder
	status     Status

	tx ring.Producer[byte]
	rx ring.Consumer[byte]
}

// NewSlipServer creates a SlipServer delivering frames to svc.
func NewSlipServer(svc Services, opts Options) *SlipServer {
	max := opts.maxPayload()
	tx, rx, _ := ring.MustNew[byte](SlipTxQueueLen).Split()
	return &SlipServer{
		svc:        svc,
		maxPayload: max,
		dec:        NewSlipDecoder(max + 2),
		status:     UnknownResp,
		tx:         tx,
		rx:         rx,
	}
}

// Status returns the status of the last frame.
func (s *SlipServer) Status() Status {
	return s.status
}

// Receive consumes one byte from the transport.
func (s *SlipServer) Receive(b byte) {
	body, err := s.dec.Decode(b)
	if err != nil {
		s.status = FrameSizeError
		s.reply(StatusHeader, byte(s.status))
		return
	}
	if body == nil {
		return
	}
	if len(body) == 1 {
		s.query(body[0])
		return
	}
	s.status = s.handle(body)
	s.reply(StatusHeader, byte(s.status))
}

func (s *SlipServer) query(hdr byte) {
	switch {
	case hdr == StatusHeader:
		s.reply(StatusHeader, byte(s.status))
	case s.svc.IsRegistered(hdr):
		rsp, err := s.svc.Response(hdr)
		if err != nil {
			rsp = byte(UnknownResp)
		}
		s.reply(hdr, rsp)
	default:
		s.status = HeaderError
		s.reply(StatusHeader, byte(s.status))
	}
}

func (s *SlipServer) handle(body []byte) Status {
	if len(body) < 3 {
		return FrameSizeError
	}
	if CRC8(body) != 0 {
		return ChecksumError
	}
	if body[0] != SvcHeader {
		return HeaderError
	}
	port, data := body[1], body[2:len(body)-1]
	paramLen, err := s.svc.ParamLen(port)
	switch {
	case errors.Is(err, server.ErrInvalidPort):
		return InvalidPort
	case err != nil:
		return InvalidService
	case paramLen != len(data):
		return InvalidParams
	}
	switch err := s.svc.PushParam(port, data); {
	case err == nil:
		return FrameOk
	case errors.Is(err, server.ErrBusy):
		return ServiceBusy
	}
	return UnknownError
}

func (s *SlipServer) reply(hdr, value byte) {
	var enc [8]byte
	out := appendSLIP(enc[:0], []byte{hdr, value, CRC8([]byte{hdr, value})})
	if SlipTxQueueLen-s.tx.Len() < len(out) {
		// no room for the whole reply
		return
	}
	for _, b := range out {
		s.tx.Push(b)
	}
}

// Transmit produces the next reply byte, if any.
func (s *SlipServer) Transmit() (byte, bool) {
	b, err := s.rx.Pop()
	return b, err == nil
}

// StateChanged drops a partially received frame.
func (s *SlipServer) StateChanged() {
	if s.dec.Pending() {
		s.dec.Reset()
	}
}
