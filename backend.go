package toxloop

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/toxloop/av"
	"github.com/opd-ai/toxloop/internal/loop"
)

// backend runs commands against the handle. It lives on the actor loop
// goroutine; nothing else reaches the handle.
type backend struct {
	h Handle

	// av is closed once the attached AV actor killed its facet. nil when
	// nothing is attached.
	av <-chan struct{}
}

func (b *backend) dispatch(cmd command) {
	switch c := cmd.(type) {
	// Self
	case cmdAddress:
		loop.Reply(c.reply, b.h.Address())
	case cmdSetName:
		reply(c, c.reply, none{}, b.h.SetName(c.name))
	case cmdName:
		loop.Reply(c.reply, b.h.Name())
	case cmdSetStatusMessage:
		reply(c, c.reply, none{}, b.h.SetStatusMessage(c.message))
	case cmdStatusMessage:
		loop.Reply(c.reply, b.h.StatusMessage())
	case cmdSetUserStatus:
		reply(c, c.reply, none{}, b.h.SetUserStatus(c.status))
	case cmdUserStatus:
		loop.Reply(c.reply, b.h.UserStatus())
	case cmdNospam:
		loop.Reply(c.reply, b.h.Nospam())
	case cmdSetNospam:
		b.h.SetNospam(c.nospam)
	case cmdIsConnected:
		loop.Reply(c.reply, b.h.IsConnected())
	case cmdBootstrap:
		reply(c, c.reply, none{}, b.h.Bootstrap(c.address, c.port, c.publicKey))

	// Friends
	case cmdAddFriend:
		id, err := b.h.AddFriend(c.address, c.message)
		reply(c, c.reply, id, err)
	case cmdAddFriendNoRequest:
		id, err := b.h.AddFriendNoRequest(c.publicKey)
		reply(c, c.reply, id, err)
	case cmdFriendByPublicKey:
		id, err := b.h.FriendByPublicKey(c.publicKey)
		reply(c, c.reply, id, err)
	case cmdFriendPublicKey:
		pk, err := b.h.FriendPublicKey(c.friend)
		reply(c, c.reply, pk, err)
	case cmdDeleteFriend:
		reply(c, c.reply, none{}, b.h.DeleteFriend(c.friend))
	case cmdFriendConnectionStatus:
		status, err := b.h.FriendConnectionStatus(c.friend)
		reply(c, c.reply, status, err)
	case cmdFriendExists:
		loop.Reply(c.reply, b.h.FriendExists(c.friend))
	case cmdFriendList:
		loop.Reply(c.reply, b.h.FriendList())
	case cmdCountFriendList:
		loop.Reply(c.reply, b.h.CountFriendList())
	case cmdOnlineFriendCount:
		loop.Reply(c.reply, b.h.OnlineFriendCount())
	case cmdFriendName:
		name, err := b.h.FriendName(c.friend)
		reply(c, c.reply, name, err)
	case cmdFriendStatusMessage:
		msg, err := b.h.FriendStatusMessage(c.friend)
		reply(c, c.reply, msg, err)
	case cmdFriendUserStatus:
		status, err := b.h.FriendUserStatus(c.friend)
		reply(c, c.reply, status, err)
	case cmdFriendLastOnline:
		seen, err := b.h.FriendLastOnline(c.friend)
		reply(c, c.reply, seen, err)
	case cmdSetTyping:
		reply(c, c.reply, none{}, b.h.SetTyping(c.friend, c.isTyping))
	case cmdFriendIsTyping:
		loop.Reply(c.reply, b.h.FriendIsTyping(c.friend))
	case cmdSetSendsReceipts:
		b.h.SetSendsReceipts(c.friend, c.enabled)
	case cmdSendMessage:
		id, err := b.h.SendMessage(c.friend, c.message)
		reply(c, c.reply, id, err)
	case cmdSendAction:
		id, err := b.h.SendAction(c.friend, c.action)
		reply(c, c.reply, id, err)

	// Groups
	case cmdAddGroupchat:
		id, err := b.h.AddGroupchat()
		reply(c, c.reply, id, err)
	case cmdDeleteGroupchat:
		reply(c, c.reply, none{}, b.h.DeleteGroupchat(c.group))
	case cmdGroupPeerName:
		name, err := b.h.GroupPeerName(c.group, c.peer)
		reply(c, c.reply, name, err)
	case cmdInviteFriend:
		reply(c, c.reply, none{}, b.h.InviteFriend(c.friend, c.group))
	case cmdJoinGroupchat:
		id, err := b.h.JoinGroupchat(c.friend, c.data)
		reply(c, c.reply, id, err)
	case cmdGroupMessageSend:
		reply(c, c.reply, none{}, b.h.GroupMessageSend(c.group, c.message))
	case cmdGroupActionSend:
		reply(c, c.reply, none{}, b.h.GroupActionSend(c.group, c.action))
	case cmdGroupPeerCount:
		n, err := b.h.GroupPeerCount(c.group)
		reply(c, c.reply, n, err)
	case cmdGroupNames:
		names, err := b.h.GroupNames(c.group)
		reply(c, c.reply, names, err)
	case cmdChatList:
		loop.Reply(c.reply, b.h.ChatList())
	case cmdCountChatList:
		loop.Reply(c.reply, b.h.CountChatList())

	// Files
	case cmdNewFileSender:
		id, err := b.h.NewFileSender(c.friend, c.size, c.filename)
		reply(c, c.reply, id, err)
	case cmdFileSendControl:
		reply(c, c.reply, none{}, b.h.FileSendControl(c.friend, c.direction, c.file, c.control, c.data))
	case cmdFileSendData:
		reply(c, c.reply, none{}, b.h.FileSendData(c.friend, c.file, c.data))
	case cmdFileDataSize:
		n, err := b.h.FileDataSize(c.friend)
		reply(c, c.reply, n, err)
	case cmdFileDataRemaining:
		n, err := b.h.FileDataRemaining(c.friend, c.file, c.direction)
		reply(c, c.reply, n, err)

	// Avatars
	case cmdSetAvatar:
		reply(c, c.reply, none{}, b.h.SetAvatar(c.format, c.data))
	case cmdUnsetAvatar:
		b.h.UnsetAvatar()
	case cmdSelfAvatar:
		avatar, err := b.h.SelfAvatar()
		reply(c, c.reply, avatar, err)
	case cmdRequestAvatarInfo:
		reply(c, c.reply, none{}, b.h.RequestAvatarInfo(c.friend))
	case cmdRequestAvatarData:
		reply(c, c.reply, none{}, b.h.RequestAvatarData(c.friend))
	case cmdSendAvatarInfo:
		reply(c, c.reply, none{}, b.h.SendAvatarInfo(c.friend))

	// State and sub-actor
	case cmdSave:
		loop.Reply(c.reply, b.h.Save())
	case cmdLoad:
		reply(c, c.reply, none{}, b.h.Load(c.data))
	case cmdAttachAV:
		att, err := b.attachAV(c.opts)
		reply(c, c.reply, att, err)

	default:
		logrus.WithFields(logrus.Fields{
			"function": "dispatch",
			"command":  fmt.Sprintf("%T", cmd),
		}).Error("Unknown command")
	}
}

// attachAV creates the AV facet and starts its actor. Only one AV actor may
// be alive at a time; a finished one can be replaced.
func (b *backend) attachAV(opts *av.Options) (avAttachment, error) {
	if b.avAttached() {
		return avAttachment{}, ErrAVAttached
	}

	if opts == nil {
		opts = av.NewOptions()
	}
	maxCalls := opts.MaxCalls
	if maxCalls <= 0 {
		maxCalls = av.DefaultMaxCalls
	}

	h, err := b.h.NewAV(maxCalls)
	if err != nil {
		return avAttachment{}, fmt.Errorf("%w: %w", ErrAVCreateFailed, err)
	}
	if h == nil {
		return avAttachment{}, ErrAVCreateFailed
	}

	toxav, events, released, err := av.Spawn(h, opts)
	if err != nil {
		h.Kill()
		return avAttachment{}, fmt.Errorf("%w: %w", ErrAVCreateFailed, err)
	}
	b.av = released
	return avAttachment{toxav: toxav, events: events}, nil
}

func (b *backend) avAttached() bool {
	if b.av == nil {
		return false
	}
	select {
	case <-b.av:
		b.av = nil
		return false
	default:
		return true
	}
}

// linger keeps the handle alive for an AV actor that is still running.
func (b *backend) linger() <-chan struct{} {
	if b.avAttached() {
		return b.av
	}
	return nil
}

// reply delivers the outcome of cmd. Domain failures travel unchanged.
func reply[T any](cmd command, ch chan<- result[T], v T, err error) {
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "dispatch",
			"command":  fmt.Sprintf("%T", cmd),
			"error":    err.Error(),
		}).Debug("Operation failed")
	}
	loop.Reply(ch, result[T]{value: v, err: err})
}
