package loop

import (
	"errors"
	"iter"
	"time"

	"github.com/Workiva/go-datastructures/queue"
	"go.uber.org/atomic"
)

// DefaultEventBuffer is the event queue capacity used when none is given.
const DefaultEventBuffer = 64

// Sink is the producer side of a bounded event queue. Only the loop
// goroutine emits, and only while the service iterates.
type Sink[E any] struct {
	buf      *queue.RingBuffer
	capacity uint64
	failed   *atomic.Bool
	cause    error
}

// Source is the consumer side of a Sink. It may be shared by any number of
// goroutines; events come out in emission order.
type Source[E any] struct {
	buf *queue.RingBuffer
}

// NewSink creates a queue holding at most capacity events.
func NewSink[E any](capacity int) (*Sink[E], *Source[E]) {
	if capacity <= 0 {
		capacity = DefaultEventBuffer
	}
	// The ring buffer rounds its size up to a power of two; the sink keeps
	// the exact bound itself.
	buf := queue.NewRingBuffer(uint64(capacity))
	sink := &Sink[E]{
		buf:      buf,
		capacity: uint64(capacity),
		failed:   atomic.NewBool(false),
	}
	return sink, &Source[E]{buf: buf}
}

// Emit queues e without blocking. A full queue or a queue without consumers
// fails the sink for good and later events are dropped. The loop reports the
// failure through Err.
func (s *Sink[E]) Emit(e E) bool {
	if s.failed.Load() {
		return false
	}

	var err error
	switch {
	case s.buf.IsDisposed():
		err = ErrSinkClosed
	case s.buf.Len() >= s.capacity:
		err = ErrSinkFull
	default:
		ok, offerErr := s.buf.Offer(e)
		switch {
		case errors.Is(offerErr, queue.ErrDisposed):
			err = ErrSinkClosed
		case offerErr != nil:
			err = offerErr
		case !ok:
			err = ErrSinkFull
		}
	}

	if err != nil {
		s.cause = err
		s.failed.Store(true)
		return false
	}
	return true
}

// Failed reports whether an emission failed.
func (s *Sink[E]) Failed() bool {
	return s.failed.Load()
}

// Err returns the reason the sink failed, or nil. It must only be called
// from the emitting goroutine.
func (s *Sink[E]) Err() error {
	if !s.failed.Load() {
		return nil
	}
	return s.cause
}

// Poll delays between attempts of Next, doubling up to the maximum.
const (
	minPollDelay = 50 * time.Microsecond
	maxPollDelay = 5 * time.Millisecond
)

// TryNext takes the oldest event if there is one. It never blocks.
func (s *Source[E]) TryNext() (E, bool) {
	e, err := s.take()
	return e, err == nil
}

// take makes a single attempt. The ring buffer is safe for concurrent
// consumers; a one nanosecond poll gives up after its first look.
func (s *Source[E]) take() (E, error) {
	var zero E
	for {
		item, err := s.buf.Poll(time.Nanosecond)
		switch {
		case errors.Is(err, queue.ErrTimeout):
			return zero, ErrNoEvent
		case errors.Is(err, queue.ErrDisposed):
			return zero, ErrSinkClosed
		case err != nil:
			return zero, err
		}
		if e, ok := item.(E); ok {
			return e, nil
		}
	}
}

// All yields the events queued right now, stopping at the first empty poll.
// Observing a continuous stream takes repeated calls.
func (s *Source[E]) All() iter.Seq[E] {
	return func(yield func(E) bool) {
		for {
			e, ok := s.TryNext()
			if !ok || !yield(e) {
				return
			}
		}
	}
}

// Next waits up to timeout for an event. It returns ErrNoEvent on timeout
// and ErrSinkClosed once the source was closed. Waiting consumers back off
// between attempts and never hold up TryNext.
func (s *Source[E]) Next(timeout time.Duration) (E, error) {
	if timeout <= 0 {
		timeout = MinInterval
	}
	deadline := time.Now().Add(timeout)
	delay := minPollDelay

	for {
		e, err := s.take()
		if !errors.Is(err, ErrNoEvent) {
			return e, err
		}

		left := time.Until(deadline)
		if left <= 0 {
			return e, ErrNoEvent
		}
		time.Sleep(min(delay, left))
		delay = min(2*delay, maxPollDelay)
	}
}

// Len returns the number of queued events.
func (s *Source[E]) Len() int {
	return int(s.buf.Len())
}

// Close disconnects every consumer. The producing actor stops the next time
// it tries to emit.
func (s *Source[E]) Close() {
	s.buf.Dispose()
}
