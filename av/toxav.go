package av

import (
	"bytes"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/toxloop/internal/loop"
)

// ToxAV is a control handle of the AV actor. It is safe for concurrent use.
// The actor stops once every ToxAV obtained from Spawn or Clone is closed.
type ToxAV struct {
	ref     *loop.Ref[command]
	timeout time.Duration
}

// Spawn starts the AV actor on h. The returned channel closes after the
// actor stopped and killed the AV facet; the primary actor waits on it
// before destroying the shared handle.
func Spawn(h Handle, opts *Options) (*ToxAV, *Events, <-chan struct{}, error) {
	if h == nil {
		return nil, nil, nil, ErrNilHandle
	}
	opts = opts.withDefaults()

	sink, source := loop.NewSink[Event](opts.EventBuffer)
	for _, kind := range CallEventKinds {
		h.OnCallEvent(kind, func(call int) {
			sink.Emit(CallEvent{Kind: kind, Call: call})
		})
	}
	h.OnGroupAudio(func(group uint32, peer int, bit AudioBit) {
		sink.Emit(GroupAudio{Group: group, Peer: peer, Bit: bit.clone()})
	})

	b := &backend{h: h}
	ref, l := loop.Spawn(loop.Config[command]{
		Name:          "toxav",
		Service:       h,
		Dispatch:      b.dispatch,
		Halted:        sink.Err,
		Release:       h.Kill,
		CommandBuffer: opts.CommandBuffer,
		TimeProvider:  opts.TimeProvider,
	})

	logrus.WithFields(logrus.Fields{
		"function":     "Spawn",
		"actor_id":     l.ID().String(),
		"max_calls":    opts.MaxCalls,
		"event_buffer": opts.EventBuffer,
	}).Info("AV actor started")

	return &ToxAV{ref: ref, timeout: opts.CallTimeout}, &Events{src: source}, l.Released(), nil
}

func invoke[T any](a *ToxAV, build func(reply chan<- result[T]) command) (T, error) {
	r, err := loop.CallWithin(a.ref, a.timeout, build)
	if err != nil {
		var zero T
		return zero, err
	}
	return r.value, r.err
}

// Clone returns another handle to the same actor.
func (a *ToxAV) Clone() (*ToxAV, error) {
	ref, err := a.ref.Clone()
	if err != nil {
		return nil, err
	}
	return &ToxAV{ref: ref, timeout: a.timeout}, nil
}

// Close releases this handle. Closing twice is a no-op.
func (a *ToxAV) Close() {
	a.ref.Close()
}

// Done closes once the actor no longer accepts commands.
func (a *ToxAV) Done() <-chan struct{} {
	return a.ref.Done()
}

// Call invites friend to a call that rings for at most ringing and returns
// the call index.
func (a *ToxAV) Call(friend uint32, settings *CallSettings, ringing time.Duration) (int, error) {
	return invoke(a, func(r chan<- result[int]) command {
		return cmdCall{friend: friend, settings: settings.clone(), ringing: ringing, reply: r}
	})
}

// Hangup ends an active call.
func (a *ToxAV) Hangup(call int) error {
	_, err := invoke(a, func(r chan<- result[none]) command { return cmdHangup{call: call, reply: r} })
	return err
}

// Answer accepts an incoming call.
func (a *ToxAV) Answer(call int, settings *CallSettings) error {
	_, err := invoke(a, func(r chan<- result[none]) command {
		return cmdAnswer{call: call, settings: settings.clone(), reply: r}
	})
	return err
}

// Reject declines an incoming call.
func (a *ToxAV) Reject(call int, reason string) error {
	_, err := invoke(a, func(r chan<- result[none]) command {
		return cmdReject{call: call, reason: reason, reply: r}
	})
	return err
}

// Cancel withdraws an outgoing invite to peer.
func (a *ToxAV) Cancel(call, peer int, reason string) error {
	_, err := invoke(a, func(r chan<- result[none]) command {
		return cmdCancel{call: call, peer: peer, reason: reason, reply: r}
	})
	return err
}

// ChangeSettings renegotiates the media settings of a call.
func (a *ToxAV) ChangeSettings(call int, settings *CallSettings) error {
	_, err := invoke(a, func(r chan<- result[none]) command {
		return cmdChangeSettings{call: call, settings: settings.clone(), reply: r}
	})
	return err
}

// StopCall tears a call down locally without signalling the peer.
func (a *ToxAV) StopCall(call int) error {
	_, err := invoke(a, func(r chan<- result[none]) command { return cmdStopCall{call: call, reply: r} })
	return err
}

// PrepareTransmission sets up the media sessions of a started call.
func (a *ToxAV) PrepareTransmission(call int, video bool) error {
	_, err := invoke(a, func(r chan<- result[none]) command {
		return cmdPrepareTransmission{call: call, video: video, reply: r}
	})
	return err
}

// KillTransmission tears the media sessions down.
func (a *ToxAV) KillTransmission(call int) error {
	_, err := invoke(a, func(r chan<- result[none]) command { return cmdKillTransmission{call: call, reply: r} })
	return err
}

// SendAudio sends one encoded audio frame. The frame is owned by the actor
// once submitted.
func (a *ToxAV) SendAudio(call int, frame []byte) error {
	_, err := invoke(a, func(r chan<- result[none]) command {
		return cmdSendAudio{call: call, frame: bytes.Clone(frame), reply: r}
	})
	return err
}

// PeerCallSettings returns the settings a peer of the call announced.
func (a *ToxAV) PeerCallSettings(call, peer int) (CallSettings, error) {
	return invoke(a, func(r chan<- result[CallSettings]) command {
		return cmdPeerCallSettings{call: call, peer: peer, reply: r}
	})
}

// PeerID returns the friend number of a call peer.
func (a *ToxAV) PeerID(call, peer int) (uint32, error) {
	return invoke(a, func(r chan<- result[uint32]) command {
		return cmdPeerID{call: call, peer: peer, reply: r}
	})
}

// CallState returns the state of a call index. Unused indexes report
// CallStateNonExistent; the error is only ever a lifecycle error.
func (a *ToxAV) CallState(call int) (CallState, error) {
	return loop.CallWithin(a.ref, a.timeout, func(r chan<- CallState) command {
		return cmdCallState{call: call, reply: r}
	})
}

// CapabilitySupported reports whether the peer of a call supports c.
func (a *ToxAV) CapabilitySupported(call int, c Capability) (bool, error) {
	return invoke(a, func(r chan<- result[bool]) command {
		return cmdCapabilitySupported{call: call, capability: c, reply: r}
	})
}

// ActiveCount returns the number of calls in progress.
func (a *ToxAV) ActiveCount() (int, error) {
	return invoke(a, func(r chan<- result[int]) command { return cmdActiveCount{reply: r} })
}

// AddAVGroupchat creates a group chat with audio.
func (a *ToxAV) AddAVGroupchat() (uint32, error) {
	return invoke(a, func(r chan<- result[uint32]) command { return cmdAddAVGroupchat{reply: r} })
}

// JoinAVGroupchat joins an AV group chat using the data of a group invite.
func (a *ToxAV) JoinAVGroupchat(friend uint32, data []byte) (uint32, error) {
	return invoke(a, func(r chan<- result[uint32]) command {
		return cmdJoinAVGroupchat{friend: friend, data: bytes.Clone(data), reply: r}
	})
}

// GroupSendAudio sends PCM audio to an AV group chat. Bits that fail
// Validate are refused with ErrorInvalidAudio.
func (a *ToxAV) GroupSendAudio(group uint32, bit AudioBit) error {
	_, err := invoke(a, func(r chan<- result[none]) command {
		return cmdGroupSendAudio{group: group, bit: bit.clone(), reply: r}
	})
	return err
}
