package hal

import (
	"sync"
	"time"
)

// Debouncer delivers an edge only after its source has been quiet for
// Settle. Every new edge of a source restarts its timer.
type Debouncer struct {
	Settle time.Duration
	OnEdge EdgeFunc

	lock   sync.Mutex
	timers map[int]*time.Timer
}

// NewDebouncer creates a Debouncer.
func NewDebouncer(settle time.Duration, onEdge EdgeFunc) *Debouncer {
	return &Debouncer{Settle: settle, OnEdge: onEdge, timers: make(map[int]*time.Timer)}
}

// Edge reports a raw edge of source.
func (d *Debouncer) Edge(source int) {
	d.lock.Lock()
	defer d.lock.Unlock()
	if t := d.timers[source]; t != nil {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(d.Settle, func() {
		d.lock.Lock()
		current := d.timers[source] == t
		if current {
			delete(d.timers, source)
		}
		d.lock.Unlock()
		if current {
			d.OnEdge(source)
		}
	})
	d.timers[source] = t
}

// Stop cancels all pending edges.
func (d *Debouncer) Stop() {
	d.lock.Lock()
	defer d.lock.Unlock()
	for source, t := range d.timers {
		t.Stop()
		delete(d.timers, source)
	}
}
