package hal

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
)

// SimWatchdog counts missed pets. Each Window without a Pet counts as
// one reset and calls OnReset.
type SimWatchdog struct {
	Window  time.Duration
	OnReset func()

	petted atomic.Bool
	resets atomic.Int32
	once   sync.Once
}

// NewSimWatchdog creates a SimWatchdog.
func NewSimWatchdog(window time.Duration) *SimWatchdog {
	return &SimWatchdog{Window: window}
}

// Pet implements Watchdog.
func (w *SimWatchdog) Pet() {
	w.petted.Store(true)
}

// Resets returns the number of expired windows.
func (w *SimWatchdog) Resets() int {
	return int(w.resets.Load())
}

// Run watches the pets until ctx is done.
func (w *SimWatchdog) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.Window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.check()
		}
	}
}

func (w *SimWatchdog) check() {
	if w.petted.Swap(false) {
		return
	}
	n := w.resets.Add(1)
	glog.Warningf("watchdog expired (%d)", n)
	if w.OnReset != nil {
		w.OnReset()
	}
}
