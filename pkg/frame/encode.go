package frame

import "io"

// Encode builds a length-prefixed service frame for port.
func Encode(port byte, data ...byte) []byte {
	b := make([]byte, len(data)+4)
	b[0], b[1], b[2] = SvcHeader, byte(len(data)+1), port
	copy(b[3:], data)
	b[len(b)-1] = CRC8(b[:len(b)-1])
	return b
}

// EncodeSLIP builds a SLIP service frame for port.
func EncodeSLIP(port byte, data ...byte) []byte {
	body := make([]byte, len(data)+3)
	body[0], body[1] = SvcHeader, port
	copy(body[2:], data)
	body[len(body)-1] = CRC8(body[:len(body)-1])
	return appendSLIP(make([]byte, 0, len(body)*2+2), body)
}

// EncodeSLIPQuery builds a SLIP query frame. hdr is a port or
// StatusHeader.
func EncodeSLIPQuery(hdr byte) []byte {
	return appendSLIP(nil, []byte{hdr})
}

// WriteSLIP writes body as one SLIP frame.
func WriteSLIP(w io.Writer, body []byte) (int, error) {
	return w.Write(appendSLIP(make([]byte, 0, len(body)*2+2), body))
}

func appendSLIP(dst, body []byte) []byte {
	dst = append(dst, SlipEnd)
	for _, b := range body {
		switch b {
		case SlipEnd:
			dst = append(dst, SlipEsc, SlipEscEnd)
		case SlipEsc:
			dst = append(dst, SlipEsc, SlipEscEsc)
		default:
			dst = append(dst, b)
		}
	}
	return append(dst, SlipEnd)
}

// Reply is a decoded SLIP reply.
type Reply struct {
	Header byte
	Value  byte
}

// IsStatus reports whether the reply carries a frame status.
func (r Reply) IsStatus() bool {
	return r.Header == StatusHeader
}

// Status returns the value as a Status.
func (r Reply) Status() Status {
	return Status(r.Value)
}

// DecodeSLIPReply validates an unstuffed reply body.
func DecodeSLIPReply(body []byte) (r Reply, err error) {
	if len(body) != 3 {
		return r, ErrBadReply
	}
	if CRC8(body) != 0 {
		return r, ErrReplyChecksum
	}
	return Reply{Header: body[0], Value: body[1]}, nil
}
