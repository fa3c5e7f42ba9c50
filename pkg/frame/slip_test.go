package frame

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func drainReplies(t *testing.T, s *SlipServer) (replies []Reply) {
	dec := NewSlipDecoder(8)
	for {
		b, ok := s.Transmit()
		if !ok {
			return
		}
		body, err := dec.Decode(b)
		require.NoError(t, err)
		if body != nil {
			r, err := DecodeSLIPReply(body)
			require.NoError(t, err)
			replies = append(replies, r)
		}
	}
}

func feed(s *SlipServer, in ...[]byte) {
	for _, bs := range in {
		for _, b := range bs {
			s.Receive(b)
		}
	}
}

func statusReply(st Status) Reply {
	return Reply{Header: StatusHeader, Value: byte(st)}
}

func TestSlipDecoder(t *testing.T) {
	testCases := []struct {
		name   string
		in     []byte
		bodies [][]byte
		errs   int
	}{
		{"plain", []byte{SlipEnd, 1, 2, 3, SlipEnd}, [][]byte{{1, 2, 3}}, 0},
		{"no leading end", []byte{1, 2, SlipEnd}, [][]byte{{1, 2}}, 0},
		{"empty frames", []byte{SlipEnd, SlipEnd, SlipEnd, 7, SlipEnd}, [][]byte{{7}}, 0},
		{"escapes", []byte{SlipEnd, SlipEsc, SlipEscEnd, SlipEsc, SlipEscEsc, SlipEnd}, [][]byte{{SlipEnd, SlipEsc}}, 0},
		{"invalid escape", []byte{SlipEnd, SlipEsc, 0x05, SlipEnd}, [][]byte{{0x05}}, 0},
		{"too long", []byte{SlipEnd, 1, 2, 3, 4, 5, SlipEnd, 6, SlipEnd}, [][]byte{{6}}, 1},
		{"exact limit", []byte{1, 2, 3, 4, SlipEnd}, [][]byte{{1, 2, 3, 4}}, 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dec := NewSlipDecoder(4)
			var bodies [][]byte
			errs := 0
			for _, b := range tc.in {
				body, err := dec.Decode(b)
				if err != nil {
					require.Equal(t, ErrFrameTooLong, err)
					errs++
				}
				if body != nil {
					bodies = append(bodies, append([]byte(nil), body...))
				}
			}
			require.Equal(t, tc.bodies, bodies)
			require.Equal(t, tc.errs, errs)
			require.False(t, dec.Pending())
		})
	}
}

func TestSlipServer(t *testing.T) {
	env := newServerTestEnv(t)
	s := NewSlipServer(env.srv, Options{})
	require.Equal(t, UnknownResp, s.Status())

	feed(s, EncodeSLIPQuery(StatusHeader))
	require.Equal(t, []Reply{statusReply(UnknownResp)}, drainReplies(t, s))

	feed(s, EncodeSLIP(portPair, 0xaa, 0xbb))
	require.Equal(t, []Reply{statusReply(FrameOk)}, drainReplies(t, s))
	require.Equal(t, []byte{0xaa, 0xbb}, env.pair)

	feed(s, EncodeSLIP(portPair, 0x01, 0x02))
	require.Equal(t, []Reply{statusReply(ServiceBusy)}, drainReplies(t, s))
	require.Equal(t, []byte{0xaa, 0xbb}, env.pair)

	require.Equal(t, 1, env.srv.Dispatch())
	feed(s, EncodeSLIPQuery(portPair), EncodeSLIPQuery(StatusHeader))
	require.Equal(t, []Reply{
		{Header: portPair, Value: 0xaa ^ 0xbb},
		statusReply(ServiceBusy),
	}, drainReplies(t, s))
}

func TestSlipServerErrors(t *testing.T) {
	badCRC := EncodeSLIP(portSingle, 5)
	badCRC[len(badCRC)-2] ^= 0x01
	badHeader := []byte{0x81, portSingle, 5}
	badHeader = appendSLIP(nil, append(badHeader, CRC8(badHeader)))

	testCases := []struct {
		name   string
		in     []byte
		status Status
	}{
		{"checksum", badCRC, ChecksumError},
		{"header", badHeader, HeaderError},
		{"invalid port", EncodeSLIP(portOut), InvalidPort},
		{"invalid service", EncodeSLIP(portEmpty), InvalidService},
		{"invalid params", EncodeSLIP(portSingle, 1, 2), InvalidParams},
		{"too long", EncodeSLIP(portPair, 1, 2, 3, 4), FrameSizeError},
		{"too short", appendSLIP(nil, []byte{SvcHeader, portNone}), FrameSizeError},
		{"unknown query", EncodeSLIPQuery(portEmpty), HeaderError},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := newServerTestEnv(t)
			s := NewSlipServer(env.srv, Options{})
			feed(s, tc.in)
			require.Equal(t, tc.status, s.Status())
			require.Equal(t, []Reply{statusReply(tc.status)}, drainReplies(t, s))
			require.Zero(t, env.srv.Dispatch())
		})
	}
}

func TestSlipServerEscapedPayload(t *testing.T) {
	env := newServerTestEnv(t)
	s := NewSlipServer(env.srv, Options{})
	feed(s, EncodeSLIP(portPair, SlipEnd, SlipEsc))
	require.Equal(t, []Reply{statusReply(FrameOk)}, drainReplies(t, s))
	require.Equal(t, []byte{SlipEnd, SlipEsc}, env.pair)
}

func TestSlipServerStateChanged(t *testing.T) {
	env := newServerTestEnv(t)
	s := NewSlipServer(env.srv, Options{})
	frame := EncodeSLIP(portSingle, 9)
	feed(s, frame[:3])
	s.StateChanged()
	require.Empty(t, drainReplies(t, s))
	require.False(t, env.srv.Pending(portSingle))

	feed(s, frame)
	require.Equal(t, []Reply{statusReply(FrameOk)}, drainReplies(t, s))
	require.Equal(t, []byte{9}, env.single)
}

func TestSlipServerReplyQueueFull(t *testing.T) {
	env := newServerTestEnv(t)
	s := NewSlipServer(env.srv, Options{})
	q := EncodeSLIPQuery(StatusHeader)
	for i := 0; i < SlipTxQueueLen; i++ {
		feed(s, q)
	}
	replies := drainReplies(t, s)
	require.NotEmpty(t, replies)
	require.Less(t, len(replies), SlipTxQueueLen)
	for _, r := range replies {
		require.Equal(t, statusReply(UnknownResp), r)
	}
}
