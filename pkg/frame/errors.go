package frame

import "errors"

var (
	// ErrFrameTooLong indicates a SLIP frame exceeded the buffer.
	ErrFrameTooLong = errors.New("frame too long")
	// ErrBadReply indicates a malformed reply frame.
	ErrBadReply = errors.New("bad reply")
	// ErrReplyChecksum indicates a reply failed the CRC check.
	ErrReplyChecksum = errors.New("reply checksum mismatch")
)
