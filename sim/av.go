package sim

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/toxloop"
	"github.com/opd-ai/toxloop/av"
)

const (
	// DefaultRingingTime bounds an unanswered call placed without one.
	DefaultRingingTime = 30 * time.Second

	maxAudioFrame = 1276
)

type avCallbacks struct {
	call       map[av.CallEventKind]func(call int)
	groupAudio func(group uint32, peer int, bit av.AudioBit)
}

type avCall struct {
	friend       uint32
	outgoing     bool
	state        av.CallState
	settings     av.CallSettings
	peerSettings av.CallSettings
	deadline     time.Time
	transmitting bool

	// remote is the other end, nil while nobody is ringing.
	remote      *AVFacet
	remoteIndex int
}

// AVFacet is the simulated AV side of a node. Like the node it is driven by
// exactly one actor; the exported helpers outside av.Handle are for tests.
type AVFacet struct {
	node  *Node
	probe *probe

	// cb is written before the actor starts and read only by Iterate.
	cb avCallbacks

	// Guarded by net.mu.
	calls      []*avCall
	inbox      []func(cb *avCallbacks)
	killed     bool
	framesSent int
}

func newAVFacet(n *Node, maxCalls int) *AVFacet {
	return &AVFacet{
		node:  n,
		probe: newProbe(n.net, fmt.Sprintf("av:%d", n.index)),
		cb:    avCallbacks{call: make(map[av.CallEventKind]func(int))},
		calls: make([]*avCall, maxCalls),
	}
}

// post queues a notice for the next Iterate. Caller holds net.mu.
func (f *AVFacet) post(fire func(cb *avCallbacks)) {
	if f.killed {
		return
	}
	f.inbox = append(f.inbox, fire)
}

func (f *AVFacet) postCall(kind av.CallEventKind, call int) {
	f.post(func(cb *avCallbacks) {
		if fn := cb.call[kind]; fn != nil {
			fn(call)
		}
	})
}

// live reports whether the facet still takes calls. Caller holds net.mu.
func (f *AVFacet) live() bool {
	return f != nil && !f.killed && !f.node.killed
}

func (f *AVFacet) OnCallEvent(kind av.CallEventKind, cb func(call int)) {
	f.cb.call[kind] = cb
}

func (f *AVFacet) OnGroupAudio(cb func(group uint32, peer int, bit av.AudioBit)) {
	f.cb.groupAudio = cb
}

// Iterate expires unanswered calls and fires pending callbacks.
func (f *AVFacet) Iterate() {
	defer f.probe.enter("Iterate")()

	net := f.node.net
	net.mu.Lock()
	now := time.Now()
	for i, c := range f.calls {
		if c == nil || !c.outgoing || c.state != av.CallStateInviting || now.Before(c.deadline) {
			continue
		}
		f.postCall(av.CallEventRequestTimeout, i)
		f.end(i, av.CallEventCancel)
	}
	pending := f.inbox
	f.inbox = nil
	net.mu.Unlock()

	for _, fire := range pending {
		fire(&f.cb)
	}
}

func (f *AVFacet) IterationInterval() time.Duration {
	defer f.probe.enter("IterationInterval")()
	return f.node.net.cfg.AVInterval
}

// Kill ends every call; the other ends see them end.
func (f *AVFacet) Kill() {
	defer f.probe.enter("Kill")()

	net := f.node.net
	net.mu.Lock()
	defer net.mu.Unlock()

	if f.killed {
		net.violateLocked("%s: killed twice", f.probe.name)
		return
	}
	if f.node.killed {
		net.violateLocked("%s: killed after its core", f.probe.name)
	}
	for i := range f.calls {
		f.end(i, av.CallEventEnd)
	}
	f.killed = true
	f.probe.killed.Store(true)
	f.inbox = nil
	net.killOrder = append(net.killOrder, f.probe.name)

	logrus.WithFields(logrus.Fields{
		"function": "AVFacet.Kill",
		"node":     f.node.index,
	}).Info("Simulated AV facet killed")
}

// end frees call i and tells the other end with kind. Caller holds net.mu.
func (f *AVFacet) end(i int, kind av.CallEventKind) {
	c := f.calls[i]
	if c == nil {
		return
	}
	f.calls[i] = nil
	if r := c.remote; r != nil && r.calls[c.remoteIndex] != nil {
		r.calls[c.remoteIndex] = nil
		r.postCall(kind, c.remoteIndex)
	}
}

// get returns call i. Caller holds net.mu.
func (f *AVFacet) get(i int) (*avCall, error) {
	if i < 0 || i >= len(f.calls) || f.calls[i] == nil {
		return nil, av.ErrorNoCall
	}
	return f.calls[i], nil
}

func freeSlot(calls []*avCall) int {
	for i, c := range calls {
		if c == nil {
			return i
		}
	}
	return -1
}

func settingsOrDefault(s *av.CallSettings) av.CallSettings {
	if s == nil {
		return av.DefaultCallSettings()
	}
	return *s
}

// Call rings friend. A friend without a live AV facet never answers and the
// call times out.
func (f *AVFacet) Call(friend uint32, settings *av.CallSettings, ringing time.Duration) (int, error) {
	defer f.probe.enter("Call")()

	n := f.node
	n.net.mu.Lock()
	defer n.net.mu.Unlock()

	if _, ok := n.friends[friend]; !ok {
		return -1, av.ErrorUnknown
	}
	for _, c := range f.calls {
		if c != nil && c.friend == friend {
			return -1, av.ErrorAlreadyInCallWithPeer
		}
	}
	slot := freeSlot(f.calls)
	if slot < 0 {
		return -1, av.ErrorReachedCallLimit
	}
	if ringing <= 0 {
		ringing = DefaultRingingTime
	}

	c := &avCall{
		friend:   friend,
		outgoing: true,
		state:    av.CallStateInviting,
		settings: settingsOrDefault(settings),
		deadline: time.Now().Add(ringing),
	}
	f.calls[slot] = c

	if p, back, ok := n.peer(friend); ok && p.av.live() {
		if pslot := freeSlot(p.av.calls); pslot >= 0 {
			p.av.calls[pslot] = &avCall{
				friend:       back,
				state:        av.CallStateInviting,
				peerSettings: c.settings,
				remote:       f,
				remoteIndex:  slot,
			}
			c.remote, c.remoteIndex = p.av, pslot
			p.av.postCall(av.CallEventInvite, pslot)
			f.postCall(av.CallEventRinging, slot)
		}
	}
	return slot, nil
}

func (f *AVFacet) Answer(call int, settings *av.CallSettings) error {
	defer f.probe.enter("Answer")()
	f.node.net.mu.Lock()
	defer f.node.net.mu.Unlock()

	c, err := f.get(call)
	if err != nil {
		return err
	}
	if c.outgoing || c.state != av.CallStateInviting {
		return av.ErrorInvalidState
	}

	c.settings = settingsOrDefault(settings)
	c.state = av.CallStateActive
	f.postCall(av.CallEventStart, call)
	if r := c.remote; r != nil && r.calls[c.remoteIndex] != nil {
		rc := r.calls[c.remoteIndex]
		rc.state = av.CallStateActive
		rc.peerSettings = c.settings
		r.postCall(av.CallEventStart, c.remoteIndex)
	}
	return nil
}

func (f *AVFacet) Reject(call int, reason string) error {
	defer f.probe.enter("Reject")()
	f.node.net.mu.Lock()
	defer f.node.net.mu.Unlock()

	c, err := f.get(call)
	if err != nil {
		return err
	}
	if c.outgoing || c.state != av.CallStateInviting {
		return av.ErrorInvalidState
	}
	f.end(call, av.CallEventReject)
	return nil
}

// Cancel withdraws an outgoing invite. One-to-one calls have a single peer,
// number 0.
func (f *AVFacet) Cancel(call, peer int, reason string) error {
	defer f.probe.enter("Cancel")()
	f.node.net.mu.Lock()
	defer f.node.net.mu.Unlock()

	c, err := f.get(call)
	if err != nil {
		return err
	}
	if peer != 0 {
		return av.ErrorNoCall
	}
	if !c.outgoing || c.state != av.CallStateInviting {
		return av.ErrorInvalidState
	}
	f.end(call, av.CallEventCancel)
	return nil
}

func (f *AVFacet) Hangup(call int) error {
	defer f.probe.enter("Hangup")()
	f.node.net.mu.Lock()
	defer f.node.net.mu.Unlock()

	c, err := f.get(call)
	if err != nil {
		return err
	}
	if c.state == av.CallStateInviting && !c.outgoing {
		return av.ErrorInvalidState
	}
	kind := av.CallEventEnd
	if c.state == av.CallStateInviting {
		kind = av.CallEventCancel
	}
	f.end(call, kind)
	return nil
}

// StopCall drops the call locally; the other end sees the peer time out.
func (f *AVFacet) StopCall(call int) error {
	defer f.probe.enter("StopCall")()
	f.node.net.mu.Lock()
	defer f.node.net.mu.Unlock()

	if _, err := f.get(call); err != nil {
		return err
	}
	f.end(call, av.CallEventPeerTimeout)
	return nil
}

func (f *AVFacet) ChangeSettings(call int, settings *av.CallSettings) error {
	defer f.probe.enter("ChangeSettings")()
	f.node.net.mu.Lock()
	defer f.node.net.mu.Unlock()

	c, err := f.get(call)
	if err != nil {
		return err
	}
	if c.state != av.CallStateActive {
		return av.ErrorInvalidState
	}
	c.settings = settingsOrDefault(settings)
	f.postCall(av.CallEventSelfCSChange, call)
	if r := c.remote; r != nil && r.calls[c.remoteIndex] != nil {
		r.calls[c.remoteIndex].peerSettings = c.settings
		r.postCall(av.CallEventPeerCSChange, c.remoteIndex)
	}
	return nil
}

func (f *AVFacet) PrepareTransmission(call int, video bool) error {
	defer f.probe.enter("PrepareTransmission")()
	f.node.net.mu.Lock()
	defer f.node.net.mu.Unlock()

	c, err := f.get(call)
	if err != nil {
		return err
	}
	if c.state != av.CallStateActive {
		return av.ErrorInvalidState
	}
	if video && c.settings.CallType != av.CallTypeVideo {
		return av.ErrorInvalidCodecState
	}
	c.transmitting = true
	return nil
}

func (f *AVFacet) KillTransmission(call int) error {
	defer f.probe.enter("KillTransmission")()
	f.node.net.mu.Lock()
	defer f.node.net.mu.Unlock()

	c, err := f.get(call)
	if err != nil {
		return err
	}
	if !c.transmitting {
		return av.ErrorNoRtpSession
	}
	c.transmitting = false
	return nil
}

func (f *AVFacet) SendAudio(call int, frame []byte) error {
	defer f.probe.enter("SendAudio")()
	f.node.net.mu.Lock()
	defer f.node.net.mu.Unlock()

	c, err := f.get(call)
	if err != nil {
		return err
	}
	switch {
	case !c.transmitting:
		return av.ErrorNoRtpSession
	case len(frame) > maxAudioFrame:
		return av.ErrorPacketTooLarge
	}
	f.framesSent++
	return nil
}

func (f *AVFacet) PeerCallSettings(call, peer int) (av.CallSettings, error) {
	defer f.probe.enter("PeerCallSettings")()
	f.node.net.mu.Lock()
	defer f.node.net.mu.Unlock()

	c, err := f.get(call)
	if err != nil {
		return av.CallSettings{}, err
	}
	if peer != 0 {
		return av.CallSettings{}, av.ErrorNoCall
	}
	return c.peerSettings, nil
}

func (f *AVFacet) PeerID(call, peer int) (uint32, error) {
	defer f.probe.enter("PeerID")()
	f.node.net.mu.Lock()
	defer f.node.net.mu.Unlock()

	c, err := f.get(call)
	if err != nil {
		return 0, err
	}
	if peer != 0 {
		return 0, av.ErrorNoCall
	}
	return c.friend, nil
}

func (f *AVFacet) CallState(call int) av.CallState {
	defer f.probe.enter("CallState")()
	f.node.net.mu.Lock()
	defer f.node.net.mu.Unlock()

	c, err := f.get(call)
	if err != nil {
		return av.CallStateNonExistent
	}
	return c.state
}

// CapabilitySupported reports every capability for a live call.
func (f *AVFacet) CapabilitySupported(call int, _ av.Capability) (bool, error) {
	defer f.probe.enter("CapabilitySupported")()
	f.node.net.mu.Lock()
	defer f.node.net.mu.Unlock()

	if _, err := f.get(call); err != nil {
		return false, err
	}
	return true, nil
}

func (f *AVFacet) ActiveCount() (int, error) {
	defer f.probe.enter("ActiveCount")()
	f.node.net.mu.Lock()
	defer f.node.net.mu.Unlock()

	count := 0
	for _, c := range f.calls {
		if c != nil {
			count++
		}
	}
	return count, nil
}

func (f *AVFacet) AddAVGroupchat() (uint32, error) {
	defer f.probe.enter("AddAVGroupchat")()
	f.node.net.mu.Lock()
	defer f.node.net.mu.Unlock()
	return f.node.createGroup(toxloop.GroupchatAV), nil
}

func (f *AVFacet) JoinAVGroupchat(friend uint32, data []byte) (uint32, error) {
	defer f.probe.enter("JoinAVGroupchat")()
	f.node.net.mu.Lock()
	defer f.node.net.mu.Unlock()

	id, err := f.node.joinGroup(friend, data, toxloop.GroupchatAV)
	if err != nil {
		return 0, av.ErrorUnknown
	}
	return id, nil
}

// GroupSendAudio hands bit to the AV facet of every other member.
func (f *AVFacet) GroupSendAudio(group uint32, bit av.AudioBit) error {
	defer f.probe.enter("GroupSendAudio")()
	f.node.net.mu.Lock()
	defer f.node.net.mu.Unlock()

	g, ok := f.node.groups[group]
	if !ok || g.kind != toxloop.GroupchatAV {
		return av.ErrorNoCall
	}
	if !bit.Validate() {
		return av.ErrorInvalidAudio
	}

	from := g.indexOf(f.node)
	pcm := append([]int16(nil), bit.PCM...)
	g.each(func(m *member) {
		if m.node == f.node || !m.node.av.live() {
			return
		}
		local := m.local
		m.node.av.post(func(cb *avCallbacks) {
			if cb.groupAudio != nil {
				cb.groupAudio(local, from, av.AudioBit{
					PCM:        pcm,
					Samples:    bit.Samples,
					Channels:   bit.Channels,
					SampleRate: bit.SampleRate,
				})
			}
		})
	})
	return nil
}

// Killed reports whether Kill was called.
func (f *AVFacet) Killed() bool {
	return f.probe.killed.Load()
}

// Overlaps returns how many operations started while another was running.
func (f *AVFacet) Overlaps() int64 {
	return f.probe.overlaps.Load()
}

// FramesSent returns how many audio frames SendAudio accepted.
func (f *AVFacet) FramesSent() int {
	f.node.net.mu.Lock()
	defer f.node.net.mu.Unlock()
	return f.framesSent
}

// InjectCallEvent makes the next Iterate report kind for call.
func (f *AVFacet) InjectCallEvent(kind av.CallEventKind, call int) {
	logrus.Warn("SIMULATION FUNCTION - NOT A REAL OPERATION")
	f.node.net.mu.Lock()
	defer f.node.net.mu.Unlock()
	f.postCall(kind, call)
}
