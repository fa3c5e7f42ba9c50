// Package ring provides the fixed-capacity queue used to move data
// between interrupt context and task context.
//
// A Buffer has exactly one producer and one consumer. The head cursor is
// only written by the producer and the tail cursor only by the consumer,
// so no lock is needed. Use Split to hand each side its own handle.
package ring
