package av

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/toxloop/internal/loop"
)

// backend runs commands against the handle. It lives on the AV loop
// goroutine and is never shared.
type backend struct {
	h Handle
}

func (b *backend) dispatch(cmd command) {
	switch c := cmd.(type) {
	case cmdCall:
		id, err := b.h.Call(c.friend, c.settings, c.ringing)
		reply(c, c.reply, id, err)
	case cmdHangup:
		reply(c, c.reply, none{}, b.h.Hangup(c.call))
	case cmdAnswer:
		reply(c, c.reply, none{}, b.h.Answer(c.call, c.settings))
	case cmdReject:
		reply(c, c.reply, none{}, b.h.Reject(c.call, c.reason))
	case cmdCancel:
		reply(c, c.reply, none{}, b.h.Cancel(c.call, c.peer, c.reason))
	case cmdChangeSettings:
		reply(c, c.reply, none{}, b.h.ChangeSettings(c.call, c.settings))
	case cmdStopCall:
		reply(c, c.reply, none{}, b.h.StopCall(c.call))
	case cmdPrepareTransmission:
		reply(c, c.reply, none{}, b.h.PrepareTransmission(c.call, c.video))
	case cmdKillTransmission:
		reply(c, c.reply, none{}, b.h.KillTransmission(c.call))
	case cmdSendAudio:
		reply(c, c.reply, none{}, b.h.SendAudio(c.call, c.frame))
	case cmdPeerCallSettings:
		settings, err := b.h.PeerCallSettings(c.call, c.peer)
		reply(c, c.reply, settings, err)
	case cmdPeerID:
		id, err := b.h.PeerID(c.call, c.peer)
		reply(c, c.reply, id, err)
	case cmdCallState:
		loop.Reply(c.reply, b.h.CallState(c.call))
	case cmdCapabilitySupported:
		ok, err := b.h.CapabilitySupported(c.call, c.capability)
		reply(c, c.reply, ok, err)
	case cmdActiveCount:
		n, err := b.h.ActiveCount()
		reply(c, c.reply, n, err)
	case cmdAddAVGroupchat:
		id, err := b.h.AddAVGroupchat()
		reply(c, c.reply, id, err)
	case cmdJoinAVGroupchat:
		id, err := b.h.JoinAVGroupchat(c.friend, c.data)
		reply(c, c.reply, id, err)
	case cmdGroupSendAudio:
		if !c.bit.Validate() {
			reply(c, c.reply, none{}, ErrorInvalidAudio)
			return
		}
		reply(c, c.reply, none{}, b.h.GroupSendAudio(c.group, c.bit))
	default:
		logrus.WithFields(logrus.Fields{
			"function": "dispatch",
			"command":  fmt.Sprintf("%T", cmd),
		}).Error("Unknown AV command")
	}
}

// reply delivers the outcome of cmd. Domain failures travel unchanged.
func reply[T any](cmd command, ch chan<- result[T], v T, err error) {
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "dispatch",
			"command":  fmt.Sprintf("%T", cmd),
			"error":    err.Error(),
		}).Debug("AV operation failed")
	}
	loop.Reply(ch, result[T]{value: v, err: err})
}
