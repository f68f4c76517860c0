package av

import (
	"fmt"
	"slices"
)

// CallType selects what a call carries.
type CallType int

const (
	// CallTypeAudio is an audio-only call.
	CallTypeAudio CallType = 192
	// CallTypeVideo is a call with audio and video.
	CallTypeVideo CallType = 193
)

func (t CallType) String() string {
	switch t {
	case CallTypeAudio:
		return "audio"
	case CallTypeVideo:
		return "video"
	default:
		return fmt.Sprintf("CallType(%d)", int(t))
	}
}

// CallState is the lifecycle state of one call index.
type CallState int

const (
	// CallStateNonExistent means the call index is unused.
	CallStateNonExistent CallState = -1
	// CallStateInviting means an invite was sent and no answer came yet.
	CallStateInviting CallState = 0
	// CallStateStarting means the call was answered and media is being set up.
	CallStateStarting CallState = 1
	// CallStateActive means media flows.
	CallStateActive CallState = 2
	// CallStateHold means the call is on hold.
	CallStateHold CallState = 3
	// CallStateHungUp means the call ended.
	CallStateHungUp CallState = 4
)

func (s CallState) String() string {
	switch s {
	case CallStateNonExistent:
		return "non-existent"
	case CallStateInviting:
		return "inviting"
	case CallStateStarting:
		return "starting"
	case CallStateActive:
		return "active"
	case CallStateHold:
		return "hold"
	case CallStateHungUp:
		return "hung-up"
	default:
		return fmt.Sprintf("CallState(%d)", int(s))
	}
}

// Capability is one codec capability a peer may advertise.
type Capability uint32

const (
	CapabilityAudioEncoding Capability = 1 << iota
	CapabilityAudioDecoding
	CapabilityVideoEncoding
	CapabilityVideoDecoding
)

// CallSettings describes the media parameters of a call.
type CallSettings struct {
	CallType CallType

	VideoBitrate   uint32
	MaxVideoWidth  uint16
	MaxVideoHeight uint16

	AudioBitrate       uint32
	AudioFrameDuration uint16
	AudioSampleRate    uint32
	AudioChannels      uint32
}

// DefaultCallSettings returns the settings used when a call is placed or
// answered without explicit settings.
func DefaultCallSettings() CallSettings {
	return CallSettings{
		CallType:           CallTypeAudio,
		VideoBitrate:       500,
		MaxVideoWidth:      1280,
		MaxVideoHeight:     720,
		AudioBitrate:       64000,
		AudioFrameDuration: 20,
		AudioSampleRate:    48000,
		AudioChannels:      1,
	}
}

// AudioBit is a block of interleaved PCM samples exchanged in AV group chats.
type AudioBit struct {
	PCM        []int16
	Samples    uint32
	Channels   uint8
	SampleRate uint32
}

// Validate reports whether PCM holds exactly Samples frames of Channels
// samples each.
func (b AudioBit) Validate() bool {
	return b.Channels > 0 && len(b.PCM) == int(b.Samples)*int(b.Channels)
}

// clone returns a copy the caller can no longer change. nil stays nil.
func (s *CallSettings) clone() *CallSettings {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

func (b AudioBit) clone() AudioBit {
	b.PCM = slices.Clone(b.PCM)
	return b
}
