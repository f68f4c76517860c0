package loop

import "time"

// MinInterval is the shortest sleep between two iterations.
const MinInterval = time.Millisecond

// TimeProvider abstracts time operations for deterministic testing.
// Implementations must be safe for concurrent use.
type TimeProvider interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// DefaultTimeProvider uses the standard library time functions.
type DefaultTimeProvider struct{}

// Now returns the current time.
func (DefaultTimeProvider) Now() time.Time { return time.Now() }

// After waits for the duration to elapse and then sends the current time.
func (DefaultTimeProvider) After(d time.Duration) <-chan time.Time { return time.After(d) }
