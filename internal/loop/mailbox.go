package loop

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/atomic"
)

// mailbox is the command queue shared by every Ref of one loop.
type mailbox[C any] struct {
	commands chan C

	// disconnected closes when the last Ref is closed. No command is
	// enqueued after that point.
	disconnected chan struct{}
	// done closes when the loop stops servicing commands.
	done chan struct{}

	mu   sync.RWMutex
	refs int
}

func newMailbox[C any](size int) *mailbox[C] {
	if size <= 0 {
		size = 1
	}
	return &mailbox[C]{
		commands:     make(chan C, size),
		disconnected: make(chan struct{}),
		done:         make(chan struct{}),
		refs:         1,
	}
}

// Ref is one reference to a loop's mailbox. It is safe for concurrent use.
// Every Ref obtained from Spawn or Clone must be closed; the loop stops once
// all of them are.
type Ref[C any] struct {
	box    *mailbox[C]
	closed *atomic.Bool
}

func newRef[C any](box *mailbox[C]) *Ref[C] {
	r := &Ref[C]{box: box, closed: atomic.NewBool(false)}
	// A forgotten reference must not keep the loop alive forever.
	runtime.SetFinalizer(r, func(r *Ref[C]) { r.Close() })
	return r
}

// Submit enqueues a command. It blocks while the queue is full and fails
// with ErrUnavailable once the loop has stopped.
func (r *Ref[C]) Submit(cmd C) error {
	return r.SubmitContext(context.Background(), cmd)
}

// SubmitContext is Submit bounded by ctx. A context that is already done
// never enqueues; the error then wraps ErrNotSubmitted and ctx.Err().
func (r *Ref[C]) SubmitContext(ctx context.Context, cmd C) error {
	if r.closed.Load() {
		return ErrHandleClosed
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrNotSubmitted, err)
	}

	b := r.box
	b.mu.RLock()
	defer b.mu.RUnlock()

	select {
	case <-b.disconnected:
		return ErrHandleClosed
	case <-b.done:
		return ErrUnavailable
	default:
	}

	select {
	case b.commands <- cmd:
		return nil
	case <-b.done:
		return ErrUnavailable
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrNotSubmitted, ctx.Err())
	}
}

// Clone returns a new reference to the same loop.
func (r *Ref[C]) Clone() (*Ref[C], error) {
	if r.closed.Load() {
		return nil, ErrHandleClosed
	}

	b := r.box
	b.mu.Lock()
	if b.refs == 0 {
		b.mu.Unlock()
		return nil, ErrHandleClosed
	}
	b.refs++
	b.mu.Unlock()

	return newRef(b), nil
}

// Close releases this reference. Closing twice is a no-op.
func (r *Ref[C]) Close() {
	if !r.closed.CompareAndSwap(false, true) {
		return
	}
	runtime.SetFinalizer(r, nil)

	b := r.box
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refs--
	if b.refs == 0 {
		close(b.disconnected)
	}
}

// Closed reports whether this reference was closed.
func (r *Ref[C]) Closed() bool {
	return r.closed.Load()
}

// Done closes when the loop no longer services commands.
func (r *Ref[C]) Done() <-chan struct{} {
	return r.box.done
}
