// Package av implements the audio/video actor that runs next to the primary
// Tox actor.
//
// The AV facet of a Tox handle has the same threading rules as the core
// facet: it must be polled at the interval it asks for and it must never be
// called from two goroutines at once. Spawn gives the facet its own actor
// loop, so the facet keeps its own polling cadence, and hands out a ToxAV
// control handle plus an Events source:
//
//	toxav, events, err := tox.AttachAV(av.NewOptions())
//	if err != nil {
//	    return err
//	}
//	defer toxav.Close()
//
//	for ev := range events.All() {
//	    if ce, ok := ev.(av.CallEvent); ok && ce.Kind == av.CallEventInvite {
//	        _ = toxav.Answer(ce.Call, nil)
//	    }
//	}
//
// Failures reported by the facet are Error codes and are returned exactly as
// reported. ErrActorUnavailable and ErrHandleClosed mean the actor itself is
// gone, never that a call failed.
//
// Closing the last ToxAV stops the actor and kills the facet. Until then the
// primary actor keeps servicing the shared handle, even after its own
// control handles were closed.
package av
