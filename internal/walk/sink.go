package streamwalk

import (
	"context"
	"io"
	"math"
	"sync"
)

type sinkState int

const (
	sinkOpen     sinkState = iota
	sinkClosed             // no more items; queued items are still delivered
	sinkAborted            // terminal now; queued items were discarded
)

// sink hands items from the scheduler to a single consumer.
//
// The scheduler probes desiredSize before every emission and stops when it
// drops to zero; each item the consumer takes frees one unit and wakes the
// scheduler through room. Enqueuing past the high-water mark is a scheduler
// bug and panics.
type sink[T any] struct {
	mu    sync.Mutex
	queue []T
	hwm   int // 0 means unbounded
	state sinkState
	err   error

	ready chan struct{} // wakes the consumer
	room  chan struct{} // wakes the scheduler
}

func newSink[T any](highWaterMark int) *sink[T] {
	return &sink[T]{
		hwm:   highWaterMark,
		ready: make(chan struct{}, 1),
		room:  make(chan struct{}, 1),
	}
}

// desiredSize is the number of items the scheduler may still emit before it has
// to wait for the consumer.
func (s *sink[T]) desiredSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != sinkOpen {
		return 0
	}
	if s.hwm <= 0 {
		return math.MaxInt
	}
	return s.hwm - len(s.queue)
}

// enqueue reports whether v was accepted. Items offered after a terminal
// transition are dropped.
func (s *sink[T]) enqueue(v T) bool {
	s.mu.Lock()
	if s.state != sinkOpen {
		s.mu.Unlock()
		return false
	}
	if s.hwm > 0 && len(s.queue) >= s.hwm {
		s.mu.Unlock()
		panic("streamwalk: sink enqueue beyond high-water mark")
	}
	s.queue = append(s.queue, v)
	s.mu.Unlock()

	signal(s.ready)
	return true
}

// close ends the stream after the queued items. A nil err ends it with io.EOF.
func (s *sink[T]) close(err error) {
	s.mu.Lock()
	if s.state != sinkOpen {
		s.mu.Unlock()
		return
	}
	s.state = sinkClosed
	s.err = err
	s.mu.Unlock()

	signal(s.ready)
}

// abort ends the stream at once and discards queued items. A nil err ends it
// with io.EOF. abort overrides a pending close but not an earlier abort.
func (s *sink[T]) abort(err error) {
	s.mu.Lock()
	if s.state == sinkAborted {
		s.mu.Unlock()
		return
	}
	s.state = sinkAborted
	s.err = err
	clear(s.queue)
	s.queue = nil
	s.mu.Unlock()

	signal(s.ready)
	signal(s.room)
}

// next blocks until an item or a terminal outcome is available, or ctx ends.
func (s *sink[T]) next(ctx context.Context) (T, error) {
	var zero T
	for {
		s.mu.Lock()
		if len(s.queue) > 0 {
			v := s.queue[0]
			s.queue[0] = zero
			s.queue = s.queue[1:]
			s.mu.Unlock()
			signal(s.room)
			return v, nil
		}
		if s.state != sinkOpen {
			err := s.err
			s.mu.Unlock()
			if err == nil {
				err = io.EOF
			}
			return zero, err
		}
		s.mu.Unlock()

		select {
		case <-s.ready:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// queued returns the number of items waiting for the consumer.
func (s *sink[T]) queued() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// signal performs a non-blocking send on a one-slot wake-up channel.
func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
