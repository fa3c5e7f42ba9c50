package sunroof

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/mos.go/pkg/frame"
	"github.com/robotalks/mos.go/pkg/hal"
	"github.com/robotalks/mos.go/pkg/mos"
	"github.com/robotalks/mos.go/pkg/smf"
)

type nopTicks struct{}

func (nopTicks) Start(func()) {}
func (nopTicks) Stop()        {}

type testEnv struct {
	t     *testing.T
	sys   *mos.System
	roof  *Sunroof
	motor *hal.LogMotor
	bus   *hal.SimBus
}

func newTestEnv(t *testing.T) *testEnv {
	sys, err := mos.New(mos.DefaultConfig(), mos.Devices{Ticks: nopTicks{}})
	require.NoError(t, err)
	env := &testEnv{t: t, sys: sys, motor: &hal.LogMotor{Name: "test"}, bus: hal.NewSimBus()}
	env.roof = New(env.motor)
	env.roof.Settle = time.Millisecond
	require.NoError(t, sys.Setup(env.roof))
	env.bus.Attach(frame.NewServer(env.roof.Server(), frame.Options{}))
	t.Cleanup(func() { env.roof.Close() })
	return env
}

// advance runs n ticks with a main loop iteration after each.
func (e *testEnv) advance(n int) {
	for i := 0; i < n; i++ {
		e.sys.Tick()
		e.sys.Iterate()
	}
}

func (e *testEnv) call(port byte, data ...byte) {
	require.NoError(e.t, e.bus.Write(frame.Encode(port, data...)))
	rsp, err := e.bus.WriteRead([]byte{frame.StatusHeader}, 1)
	require.NoError(e.t, err)
	require.Equal(e.t, byte(frame.FrameOk), rsp[0])
	e.sys.Iterate()
}

func (e *testEnv) query(port byte) byte {
	rsp, err := e.bus.WriteRead([]byte{port}, 1)
	require.NoError(e.t, err)
	return rsp[0]
}

func TestSetup(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, StateClose, env.roof.State())
	for _, port := range []byte{PortState, PortEvent, PortDuty} {
		require.True(t, env.roof.Server().IsRegistered(port))
	}
	require.Equal(t, 1, env.sys.Scheduler().Len())
}

func TestServices(t *testing.T) {
	env := newTestEnv(t)

	env.call(PortState)
	require.Equal(t, byte(StateClose), env.query(PortState))

	env.call(PortDuty, 75)
	require.Equal(t, byte(75), env.motor.State().Duty)
	require.Equal(t, RspOK, env.query(PortDuty))

	env.call(PortEvent, byte(EventOpen))
	require.Equal(t, RspOK, env.query(PortEvent))
	// state machine runs at tick 20
	env.advance(RunDelay - 1)
	require.Equal(t, StateClose, env.roof.State())
	env.advance(1)
	require.Equal(t, StateOpening, env.roof.State())
	require.Equal(t, hal.MotorState{Running: true, Dir: hal.Clockwise, Duty: 75}, env.motor.State())

	env.call(PortState)
	require.Equal(t, byte(StateOpening), env.query(PortState))
}

func TestTransitions(t *testing.T) {
	testCases := []struct {
		name   string
		events []smf.Event
		state  smf.State
		motor  hal.MotorState
	}{
		{"open", []smf.Event{EventOpen}, StateOpening, hal.MotorState{Running: true, Dir: hal.Clockwise}},
		{"open limit", []smf.Event{EventOpen, EventLimit}, StateOpen, hal.MotorState{Dir: hal.Clockwise}},
		{"close from open", []smf.Event{EventOpen, EventLimit, EventClose}, StateClosing, hal.MotorState{Running: true, Dir: hal.CounterClockwise}},
		{"close limit", []smf.Event{EventOpen, EventLimit, EventClose, EventLimit}, StateClose, hal.MotorState{Dir: hal.CounterClockwise}},
		{"reverse", []smf.Event{EventOpen, EventClose, EventOpen}, StateOpening, hal.MotorState{Running: true, Dir: hal.Clockwise}},
		{"stop", []smf.Event{EventOpen, EventStop}, StateStopped, hal.MotorState{Dir: hal.Clockwise}},
		{"stopped ignores", []smf.Event{EventStop, EventOpen, EventLimit}, StateStopped, hal.MotorState{}},
		{"reset", []smf.Event{EventStop, EventReset}, StateClose, hal.MotorState{}},
		{"close ignores", []smf.Event{EventClose, EventLimit, EventReset}, StateClose, hal.MotorState{}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			m := env.roof.Machine()
			for _, ev := range tc.events {
				require.NoError(t, m.PutEvent(ev))
				m.Run()
			}
			require.Equal(t, tc.state, env.roof.State())
			require.Equal(t, tc.motor, env.motor.State())
		})
	}
}

func TestEventQueueFull(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < smf.EventQueueLen; i++ {
		env.call(PortEvent, byte(EventStop))
		require.Equal(t, RspOK, env.query(PortEvent))
	}
	env.call(PortEvent, byte(EventStop))
	require.Equal(t, RspQueueFull, env.query(PortEvent))
}

func TestInputs(t *testing.T) {
	env := newTestEnv(t)
	m := env.roof.Machine()
	require.NoError(t, m.PutEvent(EventOpen))
	m.Run()

	env.roof.Limit()
	require.Eventually(t, func() bool { return m.Pending() == 1 }, time.Second, time.Millisecond)
	m.Run()
	require.Equal(t, StateOpen, env.roof.State())

	require.NoError(t, m.PutEvent(EventStop))
	m.Run()
	env.roof.Button()
	env.roof.Button()
	require.Eventually(t, func() bool { return m.Pending() == 1 }, time.Second, time.Millisecond)
	m.Run()
	require.Equal(t, StateClose, env.roof.State())
}

func TestNames(t *testing.T) {
	require.Equal(t, "opening", StateName(StateOpening))
	require.Equal(t, "S7", StateName(smf.StateBase+7))
	ev, ok := ParseEvent("limit")
	require.True(t, ok)
	require.Equal(t, EventLimit, ev)
	_, ok = ParseEvent("fly")
	require.False(t, ok)
}
