// Package smf is a table driven state machine framework.
//
// Handlers are registered per (state, event). Events are posted from
// interrupt context with PutEvent and consumed one at a time by Run from
// task context, so at most one transition happens per Run.
package smf

import (
	"fmt"

	"github.com/robotalks/mos.go/pkg/ring"
)

// State is a state code. Valid states start at StateBase.
type State byte

// Event is an event code. Valid events start at EventBase.
type Event byte

// Code bases and dense table dimensions.
const (
	StateBase State = 0x40
	EventBase Event = 0x10

	MaxStates = 8
	MaxEvents = 8

	// EventQueueLen is the capacity of the event queue.
	EventQueueLen = 8
)

// Action handles an event and returns the next state.
type Action func() State

// EventAction pairs an event with its handler.
type EventAction struct {
	Event  Event
	Action Action
}

// On is a shorthand for building EventAction pairs.
func On(ev Event, action Action) EventAction {
	return EventAction{Event: ev, Action: action}
}

// String implements fmt.Stringer.
func (s State) String() string {
	return fmt.Sprintf("S%d", int(s)-int(StateBase))
}

// String implements fmt.Stringer.
func (e Event) String() string {
	return fmt.Sprintf("E%d", int(e)-int(EventBase))
}

// Machine is a state machine with its own event queue.
type Machine struct {
	state   State
	states  int
	events  int
	actions []Action

	queue    *ring.Buffer[byte]
	producer ring.Producer[byte]
	consumer ring.Consumer[byte]
}

// NewDense creates a Machine backed by a fixed MaxStates x MaxEvents table.
func NewDense(initial State) (*Machine, error) {
	m := &Machine{states: MaxStates, events: MaxEvents}
	m.actions = make([]Action, MaxStates*MaxEvents)
	return m, m.init(initial)
}

// NewDynamic creates a Machine whose table is sized at init time.
func NewDynamic(initial State, states, events int) (*Machine, error) {
	if states <= 0 || events <= 0 ||
		states > 0x100-int(StateBase) || events > 0x100-int(EventBase) {
		return nil, ErrInvalidSize
	}
	m := &Machine{states: states, events: events}
	m.actions = make([]Action, states*events)
	return m, m.init(initial)
}

func (m *Machine) init(initial State) (err error) {
	if !m.validState(initial) {
		return ErrInvalidState
	}
	m.state = initial
	if m.queue, err = ring.New[byte](EventQueueLen); err != nil {
		return
	}
	m.producer, m.consumer, err = m.queue.Split()
	return
}

func (m *Machine) validState(s State) bool {
	return s >= StateBase && int(s-StateBase) < m.states
}

func (m *Machine) validEvent(e Event) bool {
	return e >= EventBase && int(e-EventBase) < m.events
}

func (m *Machine) index(s State, e Event) int {
	return int(s-StateBase)*m.events + int(e-EventBase)
}

// AddState fills the row of state with event handlers. A nil Action
// clears the entry.
func (m *Machine) AddState(state State, pairs ...EventAction) error {
	if !m.validState(state) {
		return ErrInvalidState
	}
	for _, p := range pairs {
		if !m.validEvent(p.Event) {
			return ErrInvalidEvent
		}
	}
	for _, p := range pairs {
		m.actions[m.index(state, p.Event)] = p.Action
	}
	return nil
}

// PutEvent queues an event. It is safe to call from interrupt context
// and never blocks.
func (m *Machine) PutEvent(ev Event) error {
	if m.producer.Push(byte(ev)) != nil {
		return ErrQueueFull
	}
	return nil
}

// Pending returns the number of queued events.
func (m *Machine) Pending() int {
	return m.consumer.Len()
}

// Run consumes at most one event and applies its transition. Events
// without a handler in the current state are ignored. It reports whether
// a handler was invoked.
func (m *Machine) Run() bool {
	b, err := m.consumer.Pop()
	if err != nil {
		return false
	}
	ev := Event(b)
	if !m.validEvent(ev) {
		return false
	}
	action := m.actions[m.index(m.state, ev)]
	if action == nil {
		return false
	}
	m.state = action()
	return true
}

// Task adapts Run to a scheduler task.
func (m *Machine) Task() func() {
	return func() { m.Run() }
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}
