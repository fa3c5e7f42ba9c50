// Package sched implements the cooperative, tick driven task scheduler.
//
// Tick is driven by a periodic timer (interrupt context) and only does
// bookkeeping. Dispatch is called from the main loop and runs every due
// task to completion, in slot order.
package sched

import (
	"sync"
	"time"
)

// DefaultResolution is the physical duration of one tick.
const DefaultResolution = 10 * time.Millisecond

// TaskFunc is the body of a task. It must not block and must not call
// back into the Scheduler.
type TaskFunc func()

// TaskID identifies a slot in the task table.
type TaskID int

type task struct {
	fn     TaskFunc
	delay  uint16
	period uint16
	run    uint16
}

// Scheduler owns a fixed size task table.
type Scheduler struct {
	tasks []task
	lock  sync.Mutex // masks Tick while the table is touched
}

// New creates a Scheduler with maxTasks slots.
func New(maxTasks int) (*Scheduler, error) {
	if maxTasks <= 0 {
		return nil, ErrInvalidSize
	}
	return &Scheduler{tasks: make([]task, maxTasks)}, nil
}

// Cap returns the size of the task table.
func (s *Scheduler) Cap() int {
	return len(s.tasks)
}

// Len returns the number of occupied slots.
func (s *Scheduler) Len() (n int) {
	s.lock.Lock()
	defer s.lock.Unlock()
	for i := range s.tasks {
		if s.tasks[i].fn != nil {
			n++
		}
	}
	return
}

// AddTask places fn into the first free slot.
//
// delay is the number of ticks before the first run; 0 makes the task due
// immediately. period is the number of ticks between runs, 0 makes the
// task one-shot: it is removed once dispatched.
func (s *Scheduler) AddTask(fn TaskFunc, delay, period uint16) (TaskID, error) {
	if fn == nil {
		return -1, ErrNilTask
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	for id := range s.tasks {
		t := &s.tasks[id]
		if t.fn != nil {
			continue
		}
		*t = task{fn: fn, delay: delay, period: period}
		if delay == 0 {
			t.run, t.delay = 1, period
		}
		return TaskID(id), nil
	}
	return -1, ErrTableFull
}

// DelTask clears a slot. Clearing an empty slot is not an error.
func (s *Scheduler) DelTask(id TaskID) error {
	if id < 0 || int(id) >= len(s.tasks) {
		return ErrInvalidHandle
	}
	s.lock.Lock()
	s.tasks[id] = task{}
	s.lock.Unlock()
	return nil
}

// Pending returns the number of runs queued for a task.
func (s *Scheduler) Pending(id TaskID) (int, error) {
	if id < 0 || int(id) >= len(s.tasks) {
		return 0, ErrInvalidHandle
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	return int(s.tasks[id].run), nil
}

// Tick advances the delay counters by one tick.
func (s *Scheduler) Tick() {
	s.lock.Lock()
	defer s.lock.Unlock()
	for id := range s.tasks {
		t := &s.tasks[id]
		// one-shot tasks stay at delay 0 once due
		if t.fn == nil || t.delay == 0 {
			continue
		}
		if t.delay--; t.delay == 0 {
			t.run++
			t.delay = t.period
		}
	}
}

// Dispatch runs every task with a pending run once, in slot order.
// It returns the number of tasks invoked.
func (s *Scheduler) Dispatch() (n int) {
	for id := range s.tasks {
		s.lock.Lock()
		t := &s.tasks[id]
		fn := t.fn
		if fn == nil || t.run == 0 {
			s.lock.Unlock()
			continue
		}
		t.run--
		if t.period == 0 {
			*t = task{}
		}
		s.lock.Unlock()

		fn()
		n++
	}
	return
}
