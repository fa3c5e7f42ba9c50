package server

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func echoFirst(param []byte) byte {
	if len(param) == 0 {
		return 0x42
	}
	return param[0]
}

func TestInit(t *testing.T) {
	r := NewRegistry()
	_, err := r.Init(0)
	require.Equal(t, ErrInvalidPortCount, err)
	_, err = r.Init(MaxPorts + 1)
	require.Equal(t, ErrInvalidPortCount, err)

	for i := 0; i < MaxServers; i++ {
		id, err := r.Init(i + 1)
		require.NoError(t, err)
		require.Equal(t, ServerID(i), id)
	}
	_, err = r.Init(1)
	require.Equal(t, ErrTooManyServers, err)

	n, err := r.Ports(1)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	_, err = r.Ports(MaxServers)
	require.Equal(t, ErrInvalidServer, err)
	_, err = r.Server(-1)
	require.Equal(t, ErrInvalidServer, err)
}

func TestAddDelService(t *testing.T) {
	r := NewRegistry()
	id, err := r.Init(3)
	require.NoError(t, err)
	buf := make([]byte, 2)

	require.Equal(t, ErrInvalidServer, r.AddService(id+1, echoFirst, 2, buf, PortBase))
	require.Equal(t, ErrInvalidPort, r.AddService(id, echoFirst, 2, buf, PortBase-1))
	require.Equal(t, ErrInvalidPort, r.AddService(id, echoFirst, 2, buf, PortBase+3))
	require.Equal(t, ErrAlreadyRegistered, r.AddService(id, nil, 2, buf, PortBase))
	require.Equal(t, ErrShortBuffer, r.AddService(id, echoFirst, 3, buf, PortBase))
	require.False(t, r.IsRegistered(id, PortBase))

	require.NoError(t, r.AddService(id, echoFirst, 2, buf, PortBase))
	require.True(t, r.IsRegistered(id, PortBase))
	require.Equal(t, ErrAlreadyRegistered, r.AddService(id, echoFirst, 1, buf, PortBase))
	n, err := r.ParamLen(id, PortBase)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	_, err = r.ParamLen(id, PortBase+1)
	require.Equal(t, ErrNotRegistered, err)

	require.NoError(t, r.DelService(id, PortBase))
	require.NoError(t, r.DelService(id, PortBase))
	require.False(t, r.IsRegistered(id, PortBase))
	require.Equal(t, ErrInvalidPort, r.DelService(id, PortBase+3))
	require.NoError(t, r.AddService(id, echoFirst, 1, buf, PortBase))
}

func TestPushParamBusy(t *testing.T) {
	r := NewRegistry()
	id, err := r.Init(2)
	require.NoError(t, err)
	buf := make([]byte, 2)
	require.NoError(t, r.AddService(id, echoFirst, 2, buf, PortBase))

	require.Equal(t, ErrNotRegistered, r.PushParam(id, PortBase+1, []byte{1}))
	require.Equal(t, ErrShortBuffer, r.PushParam(id, PortBase, []byte{1}))

	require.NoError(t, r.PushParam(id, PortBase, []byte{0x11, 0x22}))
	require.Equal(t, []byte{0x11, 0x22}, buf)
	pending, err := r.Pending(id, PortBase)
	require.NoError(t, err)
	require.True(t, pending)

	require.Equal(t, ErrBusy, r.PushParam(id, PortBase, []byte{0x33, 0x44}))
	require.Equal(t, []byte{0x11, 0x22}, buf)

	n, err := r.Dispatch(id)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	rsp, err := r.Response(id, PortBase)
	require.NoError(t, err)
	require.Equal(t, byte(0x11), rsp)

	require.NoError(t, r.PushParam(id, PortBase, []byte{0x33, 0x44}))
	require.Equal(t, []byte{0x33, 0x44}, buf)
}

func TestDispatch(t *testing.T) {
	r := NewRegistry()
	id, err := r.Init(4)
	require.NoError(t, err)
	other, err := r.Init(1)
	require.NoError(t, err)

	var order []byte
	record := func(port byte) ServiceFunc {
		return func(param []byte) byte {
			order = append(order, port)
			return port + 1
		}
	}
	for p := byte(PortBase); p < PortBase+4; p++ {
		require.NoError(t, r.AddService(id, record(p), 0, nil, p))
	}
	require.NoError(t, r.AddService(other, record(0x01), 0, nil, PortBase))

	n, err := r.Dispatch(id)
	require.NoError(t, err)
	require.Zero(t, n)

	require.NoError(t, r.PushParam(id, PortBase+3, nil))
	require.NoError(t, r.PushParam(id, PortBase+1, nil))
	require.NoError(t, r.PushParam(other, PortBase, nil))
	n, err = r.Dispatch(id)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, []byte{PortBase + 1, PortBase + 3}, order)

	rsp, err := r.Response(id, PortBase+3)
	require.NoError(t, err)
	require.Equal(t, byte(PortBase+4), rsp)
	rsp, err = r.Response(id, PortBase)
	require.NoError(t, err)
	require.Zero(t, rsp)

	pending, err := r.Pending(other, PortBase)
	require.NoError(t, err)
	require.True(t, pending)
	n, err = r.Dispatch(other)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	_, err = r.Dispatch(ServerID(MaxServers))
	require.Equal(t, ErrInvalidServer, err)
}

func TestDelServiceClearsPending(t *testing.T) {
	r := NewRegistry()
	id, err := r.Init(1)
	require.NoError(t, err)
	called := 0
	fn := func([]byte) byte { called++; return 0 }
	require.NoError(t, r.AddService(id, fn, 0, nil, PortBase))
	require.NoError(t, r.PushParam(id, PortBase, nil))
	require.NoError(t, r.DelService(id, PortBase))
	n, err := r.Dispatch(id)
	require.NoError(t, err)
	require.Zero(t, n)
	require.Zero(t, called)
}

func TestServer(t *testing.T) {
	r := NewRegistry()
	s, err := New(r, 3)
	require.NoError(t, err)
	require.Equal(t, ServerID(0), s.ID())
	require.Same(t, r, s.Registry())
	first, last := s.PortRange()
	require.Equal(t, byte(PortBase), first)
	require.Equal(t, byte(PortBase+2), last)

	buf := make([]byte, 1)
	require.NoError(t, s.AddService(echoFirst, 1, buf, PortBase+2))
	require.True(t, s.IsRegistered(PortBase+2))
	n, err := s.ParamLen(PortBase + 2)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	require.NoError(t, s.PushParam(PortBase+2, []byte{0x7f}))
	require.True(t, s.Pending(PortBase+2))
	require.Equal(t, 1, s.Dispatch())
	require.False(t, s.Pending(PortBase+2))
	rsp, err := s.Response(PortBase + 2)
	require.NoError(t, err)
	require.Equal(t, byte(0x7f), rsp)

	require.NoError(t, s.DelService(PortBase+2))
	require.False(t, s.IsRegistered(PortBase+2))

	bound, err := r.Server(s.ID())
	require.NoError(t, err)
	require.Equal(t, s.ID(), bound.ID())
}
