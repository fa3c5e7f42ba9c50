package ring

import "sync/atomic"

// Buffer is a single-producer/single-consumer circular buffer. Items are
// pushed and popped only through the handles returned by Split.
type Buffer[T any] struct {
	head  atomic.Uint32 // written by producer
	tail  atomic.Uint32 // written by consumer
	mask  uint32
	slots []T
	split atomic.Bool
}

// Producer is the push side of a Buffer.
type Producer[T any] struct {
	b *Buffer[T]
}

// Consumer is the pop side of a Buffer.
type Consumer[T any] struct {
	b *Buffer[T]
}

// New creates a Buffer. capacity must be a power of two.
func New[T any](capacity int) (*Buffer[T], error) {
	if capacity <= 0 || capacity&(capacity-1) != 0 || capacity > 1<<30 {
		return nil, ErrInvalidCapacity
	}
	return &Buffer[T]{
		mask:  uint32(capacity - 1),
		slots: make([]T, capacity),
	}, nil
}

// MustNew is like New but panics on an invalid capacity. It is meant for
// package level buffers whose size is fixed at build time.
func MustNew[T any](capacity int) *Buffer[T] {
	b, err := New[T](capacity)
	if err != nil {
		panic(err)
	}
	return b
}

// Cap returns the capacity.
func (b *Buffer[T]) Cap() int {
	return len(b.slots)
}

// Len returns the number of queued items.
func (b *Buffer[T]) Len() int {
	return int(b.head.Load() - b.tail.Load())
}

func (b *Buffer[T]) push(item T) error {
	head := b.head.Load()
	if head-b.tail.Load() == uint32(len(b.slots)) {
		return ErrFull
	}
	b.slots[head&b.mask] = item
	b.head.Store(head + 1)
	return nil
}

func (b *Buffer[T]) pop() (item T, err error) {
	tail := b.tail.Load()
	if b.head.Load() == tail {
		err = ErrEmpty
		return
	}
	var zero T
	item, b.slots[tail&b.mask] = b.slots[tail&b.mask], zero
	b.tail.Store(tail + 1)
	return
}

// Split returns the producer and consumer handles. It succeeds once.
func (b *Buffer[T]) Split() (Producer[T], Consumer[T], error) {
	if !b.split.CompareAndSwap(false, true) {
		return Producer[T]{}, Consumer[T]{}, ErrAlreadySplit
	}
	return Producer[T]{b: b}, Consumer[T]{b: b}, nil
}

// Push copies item into the buffer. It never blocks.
func (p Producer[T]) Push(item T) error {
	return p.b.push(item)
}

// Len returns the current occupancy.
func (p Producer[T]) Len() int {
	return p.b.Len()
}

// Pop removes the oldest item.
func (c Consumer[T]) Pop() (T, error) {
	return c.b.pop()
}

// Len returns the current occupancy.
func (c Consumer[T]) Len() int {
	return c.b.Len()
}
