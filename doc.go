// Package toxloop runs a Tox session on a single goroutine and lets any
// number of goroutines use it.
//
// A Tox handle is not safe for concurrent use. New hands the handle to an
// actor loop that owns it for its whole life: the loop calls Iterate, runs
// the commands queued by control handles, and sleeps for whatever
// IterationInterval asks. Notifications the handle raises while iterating
// are delivered through a bounded event queue.
//
// # Getting Started
//
//	tox, events, err := toxloop.New(sim.NewNetwork(nil).Constructor(), nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tox.Close()
//
//	for {
//	    ev, err := events.Next(time.Second)
//	    if errors.Is(err, toxloop.ErrNoEvent) {
//	        continue
//	    }
//	    if err != nil {
//	        return
//	    }
//	    switch ev := ev.(type) {
//	    case toxloop.FriendRequest:
//	        tox.AddFriendNoRequest(ev.PublicKey)
//	    case toxloop.FriendMessage:
//	        tox.SendMessage(ev.Friend, ev.Message)
//	    }
//	}
//
// # Lifetime
//
// Every Tox returned by New or Clone must be closed. The actor stops once
// all of them are, and then kills the handle exactly once. It also stops
// when the event queue overflows or its Events was closed; after that every
// call fails with ErrActorUnavailable.
//
// Errors come in two kinds. Lifecycle errors (ErrActorUnavailable,
// ErrHandleClosed, ErrCallTimeout) say the operation did not get an answer.
// Everything else is the handle's own answer, returned unchanged.
//
// # Audio and Video
//
// AttachAV starts a second actor for calls, see package av. While it runs the
// session is kept alive and serviced, even after the last Tox was closed.
package toxloop
