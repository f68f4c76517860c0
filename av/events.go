package av

import (
	"fmt"
	"iter"
	"time"

	"github.com/opd-ai/toxloop/internal/loop"
)

// Event is a notification from the AV facet. The concrete types are
// CallEvent and GroupAudio.
type Event interface {
	isEvent()
}

// CallEventKind names a call state notification.
type CallEventKind int

const (
	CallEventInvite CallEventKind = iota
	CallEventRinging
	CallEventStart
	CallEventCancel
	CallEventReject
	CallEventEnd
	CallEventRequestTimeout
	CallEventPeerTimeout
	CallEventPeerCSChange
	CallEventSelfCSChange
)

// CallEventKinds lists every kind a handle may report.
var CallEventKinds = []CallEventKind{
	CallEventInvite,
	CallEventRinging,
	CallEventStart,
	CallEventCancel,
	CallEventReject,
	CallEventEnd,
	CallEventRequestTimeout,
	CallEventPeerTimeout,
	CallEventPeerCSChange,
	CallEventSelfCSChange,
}

var callEventNames = [...]string{
	CallEventInvite:         "invite",
	CallEventRinging:        "ringing",
	CallEventStart:          "start",
	CallEventCancel:         "cancel",
	CallEventReject:         "reject",
	CallEventEnd:            "end",
	CallEventRequestTimeout: "request-timeout",
	CallEventPeerTimeout:    "peer-timeout",
	CallEventPeerCSChange:   "peer-settings-change",
	CallEventSelfCSChange:   "self-settings-change",
}

func (k CallEventKind) String() string {
	if k >= 0 && int(k) < len(callEventNames) {
		return callEventNames[k]
	}
	return fmt.Sprintf("CallEventKind(%d)", int(k))
}

// CallEvent reports a state change of the call at index Call.
type CallEvent struct {
	Kind CallEventKind
	Call int
}

// GroupAudio carries audio received from a peer of an AV group chat.
type GroupAudio struct {
	Group uint32
	Peer  int
	Bit   AudioBit
}

func (CallEvent) isEvent()  {}
func (GroupAudio) isEvent() {}

// Events is the consumer side of the AV actor's event queue. It is safe for
// concurrent use.
type Events struct {
	src *loop.Source[Event]
}

// TryNext returns the oldest queued event, if any.
func (e *Events) TryNext() (Event, bool) {
	return e.src.TryNext()
}

// All yields the events queued at the time of the call.
func (e *Events) All() iter.Seq[Event] {
	return e.src.All()
}

// Next waits up to timeout for an event. It returns ErrNoEvent on timeout.
func (e *Events) Next(timeout time.Duration) (Event, error) {
	return e.src.Next(timeout)
}

// Len returns the number of queued events.
func (e *Events) Len() int {
	return e.src.Len()
}

// Close stops consuming. The actor terminates on its next emission.
func (e *Events) Close() {
	e.src.Close()
}
