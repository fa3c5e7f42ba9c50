package frame

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	require.Equal(t, []byte{0x80, 0x03, 0xa0, 0xaa, 0xbb, 0xf1}, Encode(0xa0, 0xaa, 0xbb))
	require.Equal(t, []byte{0x80, 0x01, 0xa1, 0xae}, Encode(0xa1))
}

func TestEncodeSLIP(t *testing.T) {
	b := EncodeSLIP(0xa2, 0x05)
	require.Equal(t, []byte{SlipEnd, 0x80, 0xa2, 0x05, CRC8([]byte{0x80, 0xa2, 0x05}), SlipEnd}, b)

	b = EncodeSLIP(0xa0, SlipEnd, SlipEsc)
	require.Equal(t, []byte{SlipEnd, 0x80, 0xa0, SlipEsc, SlipEscEnd, SlipEsc, SlipEscEsc}, b[:7])
	require.Equal(t, SlipEnd, b[len(b)-1])

	require.Equal(t, []byte{SlipEnd, 0x55, SlipEnd}, EncodeSLIPQuery(StatusHeader))
	require.Equal(t, []byte{SlipEnd, SlipEsc, SlipEscEnd, SlipEnd}, EncodeSLIPQuery(SlipEnd))

	var buf bytes.Buffer
	n, err := WriteSLIP(&buf, []byte{1, SlipEsc})
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, []byte{SlipEnd, 1, SlipEsc, SlipEscEsc, SlipEnd}, buf.Bytes())
}

func TestDecodeSLIPReply(t *testing.T) {
	r, err := DecodeSLIPReply([]byte{0x55, 0x00, 0xde})
	require.NoError(t, err)
	require.True(t, r.IsStatus())
	require.Equal(t, FrameOk, r.Status())

	r, err = DecodeSLIPReply([]byte{0xa0, 0x11, CRC8([]byte{0xa0, 0x11})})
	require.NoError(t, err)
	require.False(t, r.IsStatus())
	require.Equal(t, byte(0x11), r.Value)

	_, err = DecodeSLIPReply([]byte{0x55, 0x00})
	require.Equal(t, ErrBadReply, err)
	_, err = DecodeSLIPReply([]byte{0x55, 0x00, 0xdf})
	require.Equal(t, ErrReplyChecksum, err)
}
