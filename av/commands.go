package av

import "time"

// command is the closed set of operations the AV actor runs. Every variant
// with a reply channel gets exactly one reply.
type command interface {
	isCommand()
}

type result[T any] struct {
	value T
	err   error
}

type none = struct{}

type (
	cmdCall struct {
		friend   uint32
		settings *CallSettings
		ringing  time.Duration
		reply    chan<- result[int]
	}
	cmdHangup struct {
		call  int
		reply chan<- result[none]
	}
	cmdAnswer struct {
		call     int
		settings *CallSettings
		reply    chan<- result[none]
	}
	cmdReject struct {
		call   int
		reason string
		reply  chan<- result[none]
	}
	cmdCancel struct {
		call, peer int
		reason     string
		reply      chan<- result[none]
	}
	cmdChangeSettings struct {
		call     int
		settings *CallSettings
		reply    chan<- result[none]
	}
	cmdStopCall struct {
		call  int
		reply chan<- result[none]
	}
	cmdPrepareTransmission struct {
		call  int
		video bool
		reply chan<- result[none]
	}
	cmdKillTransmission struct {
		call  int
		reply chan<- result[none]
	}
	cmdSendAudio struct {
		call  int
		frame []byte
		reply chan<- result[none]
	}
	cmdPeerCallSettings struct {
		call, peer int
		reply      chan<- result[CallSettings]
	}
	cmdPeerID struct {
		call, peer int
		reply      chan<- result[uint32]
	}
	cmdCallState struct {
		call  int
		reply chan<- CallState
	}
	cmdCapabilitySupported struct {
		call       int
		capability Capability
		reply      chan<- result[bool]
	}
	cmdActiveCount struct {
		reply chan<- result[int]
	}
	cmdAddAVGroupchat struct {
		reply chan<- result[uint32]
	}
	cmdJoinAVGroupchat struct {
		friend uint32
		data   []byte
		reply  chan<- result[uint32]
	}
	cmdGroupSendAudio struct {
		group uint32
		bit   AudioBit
		reply chan<- result[none]
	}
)

func (cmdCall) isCommand()                {}
func (cmdHangup) isCommand()              {}
func (cmdAnswer) isCommand()              {}
func (cmdReject) isCommand()              {}
func (cmdCancel) isCommand()              {}
func (cmdChangeSettings) isCommand()      {}
func (cmdStopCall) isCommand()            {}
func (cmdPrepareTransmission) isCommand() {}
func (cmdKillTransmission) isCommand()    {}
func (cmdSendAudio) isCommand()           {}
func (cmdPeerCallSettings) isCommand()    {}
func (cmdPeerID) isCommand()              {}
func (cmdCallState) isCommand()           {}
func (cmdCapabilitySupported) isCommand() {}
func (cmdActiveCount) isCommand()         {}
func (cmdAddAVGroupchat) isCommand()      {}
func (cmdJoinAVGroupchat) isCommand()     {}
func (cmdGroupSendAudio) isCommand()      {}
