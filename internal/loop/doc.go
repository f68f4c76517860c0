// Package loop implements the single-owner actor loop shared by the Tox and
// ToxAV actors.
//
// A Loop owns a Service exclusively and drives it from one goroutine:
//
//	for {
//	    service.Iterate()             // callbacks fill the event Sink here
//	    dispatch queued commands       // without blocking
//	    stop if every Ref was closed
//	    sleep service.IterationInterval()
//	}
//
// Callers never touch the service. They hold a Ref, a reference-counted
// submission point that is safe for concurrent use, and read notifications
// from a Source. Closing the last Ref is what stops the loop; the service is
// then released exactly once on the loop goroutine.
package loop
