// Package exchange provides the two hand-off primitives between the
// capture, reflex and cognitive loops.
//
//   - Queue: bounded FIFO that drops the newest item when full. The
//     producer never blocks; the consumer waits with a timeout so it can
//     notice shutdown.
//   - Slot: single-item mailbox with latest-wins semantics. A new push
//     replaces an unconsumed item.
//
// Both are safe for any number of producers and consumers, and both keep
// atomic counters so drops are visible instead of silent.
package exchange

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrInvalidCapacity is returned for a non-positive queue capacity.
var ErrInvalidCapacity = errors.New("exchange: capacity must be positive")

// Stats is a point-in-time snapshot of counters. Counters may advance
// concurrently after it is taken.
type Stats struct {
	Pushed   uint64 `json:"pushed"`
	Dropped  uint64 `json:"dropped"`
	Replaced uint64 `json:"replaced"`
	Popped   uint64 `json:"popped"`
}

// Queue is a bounded drop-newest FIFO.
type Queue[T any] struct {
	ch chan T

	pushed  atomic.Uint64
	dropped atomic.Uint64
	popped  atomic.Uint64
}

// NewQueue creates a queue holding at most capacity items.
func NewQueue[T any](capacity int) (*Queue[T], error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	return &Queue[T]{ch: make(chan T, capacity)}, nil
}

// Push enqueues v without blocking. It returns false and counts a drop
// when the queue is full; the item already queued is kept.
func (q *Queue[T]) Push(v T) bool {
	select {
	case q.ch <- v:
		q.pushed.Add(1)
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

// Pop waits up to timeout for an item. ok is false on timeout or when
// ctx is done.
func (q *Queue[T]) Pop(ctx context.Context, timeout time.Duration) (v T, ok bool) {
	// Fast path avoids allocating a timer when work is waiting.
	select {
	case v = <-q.ch:
		q.popped.Add(1)
		return v, true
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case v = <-q.ch:
		q.popped.Add(1)
		return v, true
	case <-timer.C:
		return v, false
	case <-ctx.Done():
		return v, false
	}
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	return len(q.ch)
}

// Cap returns the queue capacity.
func (q *Queue[T]) Cap() int {
	return cap(q.ch)
}

// Stats returns the queue counters.
func (q *Queue[T]) Stats() Stats {
	return Stats{
		Pushed:  q.pushed.Load(),
		Dropped: q.dropped.Load(),
		Popped:  q.popped.Load(),
	}
}

// Slot is a capacity-one mailbox where the latest push wins.
type Slot[T any] struct {
	mu sync.Mutex // serializes producers so drain-then-send cannot block
	ch chan T

	pushed   atomic.Uint64
	replaced atomic.Uint64
	popped   atomic.Uint64
}

// NewSlot creates an empty slot.
func NewSlot[T any]() *Slot[T] {
	return &Slot[T]{ch: make(chan T, 1)}
}

// Push stores v, replacing any pending unconsumed item. It never blocks.
// It returns true when a pending item was replaced.
func (s *Slot[T]) Push(v T) (replaced bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-s.ch:
		replaced = true
		s.replaced.Add(1)
	default:
	}

	s.ch <- v
	s.pushed.Add(1)
	return replaced
}

// Pop waits up to timeout for the pending item.
func (s *Slot[T]) Pop(ctx context.Context, timeout time.Duration) (v T, ok bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case v = <-s.ch:
		s.popped.Add(1)
		return v, true
	case <-timer.C:
		return v, false
	case <-ctx.Done():
		return v, false
	}
}

// Pending reports whether an item is waiting.
func (s *Slot[T]) Pending() bool {
	return len(s.ch) > 0
}

// Stats returns the slot counters.
func (s *Slot[T]) Stats() Stats {
	return Stats{
		Pushed:   s.pushed.Load(),
		Replaced: s.replaced.Load(),
		Popped:   s.popped.Load(),
	}
}
