package av

import "time"

// Service is the polling part of the AV facet.
type Service interface {
	Iterate()
	IterationInterval() time.Duration
	// Kill destroys the AV facet. It is called once, after the last
	// operation.
	Kill()
}

// Callbacks registers the notification hooks of the AV facet. Registered
// functions are only invoked from inside Iterate.
type Callbacks interface {
	OnCallEvent(kind CallEventKind, cb func(call int))
	OnGroupAudio(cb func(group uint32, peer int, bit AudioBit))
}

// Calls are the one-to-one call operations. A nil *CallSettings selects
// DefaultCallSettings.
type Calls interface {
	Call(friend uint32, settings *CallSettings, ringing time.Duration) (int, error)
	Hangup(call int) error
	Answer(call int, settings *CallSettings) error
	Reject(call int, reason string) error
	Cancel(call, peer int, reason string) error
	ChangeSettings(call int, settings *CallSettings) error
	StopCall(call int) error

	PrepareTransmission(call int, video bool) error
	KillTransmission(call int) error
	SendAudio(call int, frame []byte) error

	PeerCallSettings(call, peer int) (CallSettings, error)
	PeerID(call, peer int) (uint32, error)
	CallState(call int) CallState
	CapabilitySupported(call int, c Capability) (bool, error)
	ActiveCount() (int, error)
}

// Groups are the AV group chat operations.
type Groups interface {
	AddAVGroupchat() (uint32, error)
	JoinAVGroupchat(friend uint32, data []byte) (uint32, error)
	GroupSendAudio(group uint32, bit AudioBit) error
}

// Handle is the AV facet of a Tox handle. Like the core handle it is not
// safe for concurrent use; only the AV actor loop calls it.
type Handle interface {
	Service
	Callbacks
	Calls
	Groups
}
