package hal

import (
	"sync"
	"sync/atomic"

	"github.com/golang/glog"
)

// LogLED is an LED that logs its changes.
type LogLED struct {
	Name string

	on      atomic.Bool
	toggles atomic.Int64
}

// Toggle implements LED.
func (l *LogLED) Toggle() {
	on := !l.on.Load()
	l.on.Store(on)
	l.toggles.Add(1)
	glog.V(4).Infof("LED[%s] on=%v", l.Name, on)
}

// On reports the current state.
func (l *LogLED) On() bool {
	return l.on.Load()
}

// Toggles returns the number of toggles.
func (l *LogLED) Toggles() int64 {
	return l.toggles.Load()
}

// MotorState is a snapshot of a LogMotor.
type MotorState struct {
	Running bool
	Dir     Direction
	Duty    byte
}

// LogMotor is a Motor that logs its commands.
type LogMotor struct {
	Name string

	state MotorState
	lock  sync.Mutex
}

// Run implements Motor.
func (m *LogMotor) Run(dir Direction) {
	m.lock.Lock()
	m.state.Running, m.state.Dir = true, dir
	duty := m.state.Duty
	m.lock.Unlock()
	glog.Infof("Motor[%s] run %s duty %d", m.Name, dir, duty)
}

// Stop implements Motor.
func (m *LogMotor) Stop() {
	m.lock.Lock()
	m.state.Running = false
	m.lock.Unlock()
	glog.Infof("Motor[%s] stop", m.Name)
}

// SetDuty implements Motor.
func (m *LogMotor) SetDuty(duty byte) {
	m.lock.Lock()
	m.state.Duty = duty
	m.lock.Unlock()
	glog.V(2).Infof("Motor[%s] duty %d", m.Name, duty)
}

// State returns the current state.
func (m *LogMotor) State() MotorState {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.state
}
