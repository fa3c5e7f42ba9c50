package hal

import "sync"

// SimBus is an in-process I2C-like bus with a single slave.
// Master transactions are serialized and framed by start and stop
// conditions, both reported to the slave through StateChanged.
type SimBus struct {
	lock  sync.Mutex
	slave SlaveHandler
}

// NewSimBus creates a SimBus.
func NewSimBus() *SimBus {
	return &SimBus{}
}

// Attach implements SlaveBus.
func (b *SimBus) Attach(h SlaveHandler) {
	b.lock.Lock()
	b.slave = h
	b.lock.Unlock()
}

// Write sends data in one transaction.
func (b *SimBus) Write(data []byte) error {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.slave == nil {
		return ErrNoSlave
	}
	b.slave.StateChanged()
	for _, c := range data {
		b.slave.Receive(c)
	}
	b.slave.StateChanged()
	return nil
}

// Read reads n bytes in one transaction.
func (b *SimBus) Read(n int) ([]byte, error) {
	if n <= 0 {
		return nil, ErrInvalidLength
	}
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.slave == nil {
		return nil, ErrNoSlave
	}
	b.slave.StateChanged()
	data := b.read(n)
	b.slave.StateChanged()
	return data, nil
}

// WriteRead writes data and reads n bytes after a repeated start.
func (b *SimBus) WriteRead(data []byte, n int) ([]byte, error) {
	if n <= 0 {
		return nil, ErrInvalidLength
	}
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.slave == nil {
		return nil, ErrNoSlave
	}
	b.slave.StateChanged()
	for _, c := range data {
		b.slave.Receive(c)
	}
	b.slave.StateChanged()
	out := b.read(n)
	b.slave.StateChanged()
	return out, nil
}

func (b *SimBus) read(n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b.slave.Transmit()
	}
	return out
}
