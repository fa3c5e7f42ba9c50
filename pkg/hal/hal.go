// Package hal defines the hardware collaborators of the runtime and
// host simulations of them.
//
// Callbacks registered with a TickSource, SlaveBus or Debouncer run in
// interrupt context: they must not block.
package hal

// TickSource delivers periodic ticks.
type TickSource interface {
	// Start begins delivering ticks to onTick.
	Start(onTick func())
	// Stop stops the ticks. Stop is idempotent.
	Stop()
}

// SlaveHandler is the slave side of a byte bus.
type SlaveHandler interface {
	// Receive is called for every byte written by the master.
	Receive(b byte)
	// Transmit is called for every byte read by the master.
	Transmit() byte
	// StateChanged is called on start and stop conditions.
	StateChanged()
}

// SlaveBus connects a SlaveHandler to a bus.
type SlaveBus interface {
	Attach(h SlaveHandler)
}

// Watchdog resets the system unless petted in time.
type Watchdog interface {
	Pet()
}

// LED is a status indicator.
type LED interface {
	Toggle()
}

// Direction is the rotation of a Motor.
type Direction int

// Motor directions.
const (
	Clockwise Direction = iota
	CounterClockwise
)

// String implements fmt.Stringer.
func (d Direction) String() string {
	if d == CounterClockwise {
		return "ccw"
	}
	return "cw"
}

// Motor drives an actuator.
type Motor interface {
	Run(dir Direction)
	Stop()
	SetDuty(duty byte)
}

// EdgeFunc receives a debounced edge of source.
type EdgeFunc func(source int)
