// Package sunroof is a motorized sunroof controlled by a state machine
// and exposed as services.
//
// Services:
//
//	PortState (0 bytes)  returns the current state
//	PortEvent (1 byte)   posts an event, returns RspOK or RspQueueFull
//	PortDuty  (1 byte)   sets the motor duty cycle, returns RspOK
//
// The button resets a stopped roof; the limit switch stops the motor at
// either end of travel.
package sunroof

import (
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/mos.go/pkg/hal"
	"github.com/robotalks/mos.go/pkg/mos"
	"github.com/robotalks/mos.go/pkg/server"
	"github.com/robotalks/mos.go/pkg/smf"
)

// States.
const (
	StateOpen smf.State = smf.StateBase + iota
	StateOpening
	StateClose
	StateClosing
	StateStopped

	numStates = iota
)

// Events.
const (
	EventOpen smf.Event = smf.EventBase + iota
	EventClose
	EventStop
	EventReset
	EventLimit

	numEvents = iota
)

// Service ports.
const (
	PortState byte = server.PortBase + iota
	PortEvent
	PortDuty

	numPorts = iota
)

// Service responses.
const (
	RspOK        byte = 0x00
	RspQueueFull byte = 0x01
)

// Edge sources.
const (
	SourceButton = iota
	SourceLimit
)

// Scheduling of the state machine task, in ticks.
const (
	RunDelay  = 20
	RunPeriod = 50
)

// DefaultSettle is the debounce time of the inputs.
const DefaultSettle = 10 * time.Millisecond

var stateNames = map[smf.State]string{
	StateOpen:    "open",
	StateOpening: "opening",
	StateClose:   "close",
	StateClosing: "closing",
	StateStopped: "stopped",
}

var eventNames = map[string]smf.Event{
	"open":  EventOpen,
	"close": EventClose,
	"stop":  EventStop,
	"reset": EventReset,
	"limit": EventLimit,
}

// StateName returns the name of s.
func StateName(s smf.State) string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return s.String()
}

// ParseEvent returns the event named name.
func ParseEvent(name string) (smf.Event, bool) {
	ev, ok := eventNames[name]
	return ev, ok
}

// Sunroof is the application.
type Sunroof struct {
	Motor  hal.Motor
	Settle time.Duration

	machine   *smf.Machine
	server    *server.Server
	debouncer *hal.Debouncer

	eventParam [1]byte
	dutyParam  [1]byte
	// edges and the event service both post events
	postLock sync.Mutex
}

// New creates a Sunroof driving motor.
func New(motor hal.Motor) *Sunroof {
	return &Sunroof{Motor: motor, Settle: DefaultSettle}
}

// Setup implements mos.App.
func (r *Sunroof) Setup(sys *mos.System) (err error) {
	if r.server, err = sys.AddServer(numPorts); err != nil {
		return
	}
	if err = r.server.AddService(r.getState, 0, nil, PortState); err != nil {
		return
	}
	if err = r.server.AddService(r.putEvent, 1, r.eventParam[:], PortEvent); err != nil {
		return
	}
	if err = r.server.AddService(r.setDuty, 1, r.dutyParam[:], PortDuty); err != nil {
		return
	}

	if r.machine, err = smf.NewDynamic(StateClose, numStates, numEvents); err != nil {
		return
	}
	if err = r.addStates(); err != nil {
		return
	}
	if _, err = sys.Scheduler().AddTask(r.machine.Task(), RunDelay, RunPeriod); err != nil {
		return
	}
	r.debouncer = hal.NewDebouncer(r.Settle, r.onEdge)
	glog.Infof("sunroof ready on server %d", r.server.ID())
	return nil
}

func (r *Sunroof) addStates() error {
	openEv := smf.On(EventOpen, r.opening)
	closeEv := smf.On(EventClose, r.closing)
	stopEv := smf.On(EventStop, r.stop)
	if err := r.machine.AddState(StateClose, openEv, stopEv); err != nil {
		return err
	}
	if err := r.machine.AddState(StateOpen, closeEv, stopEv); err != nil {
		return err
	}
	if err := r.machine.AddState(StateOpening, smf.On(EventLimit, r.limitOpen), closeEv, stopEv); err != nil {
		return err
	}
	if err := r.machine.AddState(StateClosing, smf.On(EventLimit, r.limitClose), openEv, stopEv); err != nil {
		return err
	}
	return r.machine.AddState(StateStopped, smf.On(EventReset, r.reset))
}

// Server returns the service server.
func (r *Sunroof) Server() *server.Server {
	return r.server
}

// Machine returns the state machine.
func (r *Sunroof) Machine() *smf.Machine {
	return r.machine
}

// State returns the current state.
func (r *Sunroof) State() smf.State {
	return r.machine.State()
}

// Button reports a raw button edge.
func (r *Sunroof) Button() {
	r.debouncer.Edge(SourceButton)
}

// Limit reports a raw limit switch edge.
func (r *Sunroof) Limit() {
	r.debouncer.Edge(SourceLimit)
}

// Close stops pending input edges.
func (r *Sunroof) Close() error {
	if r.debouncer != nil {
		r.debouncer.Stop()
	}
	return nil
}

func (r *Sunroof) onEdge(source int) {
	ev := EventReset
	if source == SourceLimit {
		ev = EventLimit
	}
	if err := r.post(ev); err != nil {
		glog.Warningf("sunroof: edge %d dropped: %v", source, err)
	}
}

func (r *Sunroof) post(ev smf.Event) error {
	r.postLock.Lock()
	defer r.postLock.Unlock()
	return r.machine.PutEvent(ev)
}

func (r *Sunroof) getState([]byte) byte {
	return byte(r.machine.State())
}

func (r *Sunroof) putEvent(param []byte) byte {
	if r.post(smf.Event(param[0])) != nil {
		return RspQueueFull
	}
	return RspOK
}

func (r *Sunroof) setDuty(param []byte) byte {
	r.Motor.SetDuty(param[0])
	return RspOK
}

func (r *Sunroof) opening() smf.State {
	r.Motor.Run(hal.Clockwise)
	glog.V(2).Info("sunroof: opening")
	return StateOpening
}

func (r *Sunroof) closing() smf.State {
	r.Motor.Run(hal.CounterClockwise)
	glog.V(2).Info("sunroof: closing")
	return StateClosing
}

func (r *Sunroof) stop() smf.State {
	r.Motor.Stop()
	glog.V(2).Info("sunroof: stopped")
	return StateStopped
}

func (r *Sunroof) limitOpen() smf.State {
	r.Motor.Stop()
	glog.V(2).Info("sunroof: open")
	return StateOpen
}

func (r *Sunroof) limitClose() smf.State {
	r.Motor.Stop()
	glog.V(2).Info("sunroof: closed")
	return StateClose
}

func (r *Sunroof) reset() smf.State {
	glog.V(2).Info("sunroof: reset")
	return StateClose
}
