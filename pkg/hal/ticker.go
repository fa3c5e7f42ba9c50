package hal

import (
	"sync"
	"time"
)

// Ticker is a TickSource backed by time.Ticker.
type Ticker struct {
	Period time.Duration

	lock   sync.Mutex
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewTicker creates a Ticker.
func NewTicker(period time.Duration) *Ticker {
	return &Ticker{Period: period}
}

// Start implements TickSource. Starting a started Ticker restarts it.
func (t *Ticker) Start(onTick func()) {
	t.Stop()
	t.lock.Lock()
	defer t.lock.Unlock()
	t.stopCh, t.doneCh = make(chan struct{}), make(chan struct{})
	go t.run(onTick, t.stopCh, t.doneCh)
}

func (t *Ticker) run(onTick func(), stopCh, doneCh chan struct{}) {
	defer close(doneCh)
	ticker := time.NewTicker(t.Period)
	defer ticker.Stop()
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			onTick()
		}
	}
}

// Stop implements TickSource. It returns after the last tick delivered.
func (t *Ticker) Stop() {
	t.lock.Lock()
	stopCh, doneCh := t.stopCh, t.doneCh
	t.stopCh, t.doneCh = nil, nil
	t.lock.Unlock()
	if stopCh != nil {
		close(stopCh)
		<-doneCh
	}
}
