package loop

import (
	"errors"
	"fmt"
)

// Lifecycle errors. They never describe the outcome of an operation on the
// service, only whether the actor could run it.
var (
	// ErrUnavailable indicates the actor loop has terminated.
	ErrUnavailable = errors.New("actor unavailable")

	// ErrHandleClosed indicates the reference used was already closed.
	ErrHandleClosed = fmt.Errorf("%w: control handle closed", ErrUnavailable)

	// ErrCallTimeout indicates a caller stopped waiting. It wraps either
	// ErrNotSubmitted or ErrReplyAbandoned.
	ErrCallTimeout = errors.New("call timed out")

	// ErrNotSubmitted indicates the caller gave up before the command was
	// queued. The command never runs.
	ErrNotSubmitted = errors.New("command not submitted")

	// ErrReplyAbandoned indicates the caller gave up after the command was
	// queued. The command still runs.
	ErrReplyAbandoned = errors.New("reply abandoned")
)

// Event sink errors.
var (
	// ErrSinkFull indicates the bounded event queue had no room left.
	ErrSinkFull = errors.New("event sink full")

	// ErrSinkClosed indicates every consumer disconnected from the queue.
	ErrSinkClosed = errors.New("event sink closed")

	// ErrNoEvent indicates Next timed out before an event arrived.
	ErrNoEvent = errors.New("no event available")
)
