package toxloop

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/toxloop/av"
	"github.com/opd-ai/toxloop/crypto"
	"github.com/opd-ai/toxloop/internal/loop"
)

// Tox is a control handle of a running Tox actor. It is safe for concurrent
// use. There is no Kill: the actor stops once every Tox obtained from New or
// Clone has been closed, and then destroys its handle exactly once.
type Tox struct {
	ref     *loop.Ref[command]
	timeout time.Duration
}

// New constructs a handle with ctor and starts the actor that owns it. When
// construction fails New returns ErrCreateFailed and starts nothing.
func New(ctor Constructor, opts *Options) (*Tox, *Events, error) {
	if opts == nil {
		opts = NewOptions()
	}
	if ctor == nil {
		return nil, nil, fmt.Errorf("%w: nil constructor", ErrCreateFailed)
	}

	h, err := ctor(opts)
	if err == nil && h == nil {
		err = errors.New("constructor returned no handle")
	}
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "New",
			"error":    err.Error(),
		}).Warn("Failed to create Tox handle")
		return nil, nil, fmt.Errorf("%w: %w", ErrCreateFailed, err)
	}

	sink, source := loop.NewSink[Event](opts.EventBuffer)
	registerCallbacks(h, sink)

	b := &backend{h: h}
	ref, l := loop.Spawn(loop.Config[command]{
		Name:          "tox",
		Service:       h,
		Dispatch:      b.dispatch,
		Halted:        sink.Err,
		Linger:        b.linger,
		Release:       h.Kill,
		CommandBuffer: opts.CommandBuffer,
		TimeProvider:  opts.TimeProvider,
	})

	logrus.WithFields(logrus.Fields{
		"function":     "New",
		"actor_id":     l.ID().String(),
		"event_buffer": opts.EventBuffer,
		"call_timeout": opts.CallTimeout,
	}).Info("Tox actor started")

	return &Tox{ref: ref, timeout: opts.CallTimeout}, &Events{src: source}, nil
}

func invoke[T any](t *Tox, build func(reply chan<- T) command) (T, error) {
	return loop.CallWithin(t.ref, t.timeout, build)
}

func invokeResult[T any](t *Tox, build func(reply chan<- result[T]) command) (T, error) {
	r, err := loop.CallWithin(t.ref, t.timeout, build)
	if err != nil {
		var zero T
		return zero, err
	}
	return r.value, r.err
}

func invokeErr(t *Tox, build func(reply chan<- result[none]) command) error {
	_, err := invokeResult(t, build)
	return err
}

// Clone returns another control handle for the same actor.
func (t *Tox) Clone() (*Tox, error) {
	ref, err := t.ref.Clone()
	if err != nil {
		return nil, err
	}
	return &Tox{ref: ref, timeout: t.timeout}, nil
}

// Close releases this control handle. Closing twice is a no-op.
func (t *Tox) Close() {
	t.ref.Close()
}

// Done closes once the actor no longer accepts commands.
func (t *Tox) Done() <-chan struct{} {
	return t.ref.Done()
}

// Address returns our Tox address.
func (t *Tox) Address() (crypto.ToxID, error) {
	return invoke(t, func(r chan<- crypto.ToxID) command { return cmdAddress{reply: r} })
}

// SetName sets our nickname.
func (t *Tox) SetName(name string) error {
	return invokeErr(t, func(r chan<- result[none]) command { return cmdSetName{name: name, reply: r} })
}

// Name returns our nickname.
func (t *Tox) Name() (string, error) {
	return invoke(t, func(r chan<- string) command { return cmdName{reply: r} })
}

// SetStatusMessage sets our status message.
func (t *Tox) SetStatusMessage(message string) error {
	return invokeErr(t, func(r chan<- result[none]) command {
		return cmdSetStatusMessage{message: message, reply: r}
	})
}

// StatusMessage returns our status message.
func (t *Tox) StatusMessage() (string, error) {
	return invoke(t, func(r chan<- string) command { return cmdStatusMessage{reply: r} })
}

// SetUserStatus sets our availability.
func (t *Tox) SetUserStatus(status UserStatus) error {
	return invokeErr(t, func(r chan<- result[none]) command {
		return cmdSetUserStatus{status: status, reply: r}
	})
}

// UserStatus returns our availability.
func (t *Tox) UserStatus() (UserStatus, error) {
	return invoke(t, func(r chan<- UserStatus) command { return cmdUserStatus{reply: r} })
}

// Nospam returns the nospam part of our address.
func (t *Tox) Nospam() (uint32, error) {
	return invoke(t, func(r chan<- uint32) command { return cmdNospam{reply: r} })
}

// SetNospam changes the nospam part of our address. It does not wait for the
// actor to apply it.
func (t *Tox) SetNospam(nospam uint32) error {
	return t.ref.Submit(cmdSetNospam{nospam: nospam})
}

// IsConnected reports whether we are connected to the DHT.
func (t *Tox) IsConnected() (bool, error) {
	return invoke(t, func(r chan<- bool) command { return cmdIsConnected{reply: r} })
}

// Bootstrap connects to a DHT node.
func (t *Tox) Bootstrap(address string, port uint16, publicKey crypto.PublicKey) error {
	return invokeErr(t, func(r chan<- result[none]) command {
		return cmdBootstrap{address: address, port: port, publicKey: publicKey, reply: r}
	})
}

// AddFriend sends a friend request and returns the new friend number.
// Rejections are reported as FriendAddError.
func (t *Tox) AddFriend(address crypto.ToxID, message string) (uint32, error) {
	return invokeResult(t, func(r chan<- result[uint32]) command {
		return cmdAddFriend{address: address, message: message, reply: r}
	})
}

// AddFriendNoRequest adds a friend without sending a request, typically to
// accept one.
func (t *Tox) AddFriendNoRequest(publicKey crypto.PublicKey) (uint32, error) {
	return invokeResult(t, func(r chan<- result[uint32]) command {
		return cmdAddFriendNoRequest{publicKey: publicKey, reply: r}
	})
}

// FriendByPublicKey looks up the friend number of a key.
func (t *Tox) FriendByPublicKey(publicKey crypto.PublicKey) (uint32, error) {
	return invokeResult(t, func(r chan<- result[uint32]) command {
		return cmdFriendByPublicKey{publicKey: publicKey, reply: r}
	})
}

// FriendPublicKey returns the key of a friend.
func (t *Tox) FriendPublicKey(friendID uint32) (crypto.PublicKey, error) {
	return invokeResult(t, func(r chan<- result[crypto.PublicKey]) command {
		return cmdFriendPublicKey{friend: friendID, reply: r}
	})
}

// DeleteFriend removes a friend.
func (t *Tox) DeleteFriend(friendID uint32) error {
	return invokeErr(t, func(r chan<- result[none]) command { return cmdDeleteFriend{friend: friendID, reply: r} })
}

// FriendConnectionStatus reports whether a friend is online.
func (t *Tox) FriendConnectionStatus(friendID uint32) (ConnectionStatus, error) {
	return invokeResult(t, func(r chan<- result[ConnectionStatus]) command {
		return cmdFriendConnectionStatus{friend: friendID, reply: r}
	})
}

// FriendExists reports whether friendID is on the friend list.
func (t *Tox) FriendExists(friendID uint32) (bool, error) {
	return invoke(t, func(r chan<- bool) command { return cmdFriendExists{friend: friendID, reply: r} })
}

// FriendList returns every friend number.
func (t *Tox) FriendList() ([]uint32, error) {
	return invoke(t, func(r chan<- []uint32) command { return cmdFriendList{reply: r} })
}

// CountFriendList returns the number of friends.
func (t *Tox) CountFriendList() (uint32, error) {
	return invoke(t, func(r chan<- uint32) command { return cmdCountFriendList{reply: r} })
}

// OnlineFriendCount returns the number of friends currently online.
func (t *Tox) OnlineFriendCount() (uint32, error) {
	return invoke(t, func(r chan<- uint32) command { return cmdOnlineFriendCount{reply: r} })
}

// FriendName returns a friend's nickname.
func (t *Tox) FriendName(friendID uint32) (string, error) {
	return invokeResult(t, func(r chan<- result[string]) command { return cmdFriendName{friend: friendID, reply: r} })
}

// FriendStatusMessage returns a friend's status message.
func (t *Tox) FriendStatusMessage(friendID uint32) (string, error) {
	return invokeResult(t, func(r chan<- result[string]) command {
		return cmdFriendStatusMessage{friend: friendID, reply: r}
	})
}

// FriendUserStatus returns a friend's availability.
func (t *Tox) FriendUserStatus(friendID uint32) (UserStatus, error) {
	return invokeResult(t, func(r chan<- result[UserStatus]) command {
		return cmdFriendUserStatus{friend: friendID, reply: r}
	})
}

// FriendLastOnline returns when a friend was last seen. The zero time means
// never.
func (t *Tox) FriendLastOnline(friendID uint32) (time.Time, error) {
	return invokeResult(t, func(r chan<- result[time.Time]) command {
		return cmdFriendLastOnline{friend: friendID, reply: r}
	})
}

// SetTyping tells a friend whether we are typing. The caller turns it off
// again.
func (t *Tox) SetTyping(friendID uint32, isTyping bool) error {
	return invokeErr(t, func(r chan<- result[none]) command {
		return cmdSetTyping{friend: friendID, isTyping: isTyping, reply: r}
	})
}

// FriendIsTyping reports whether a friend is typing.
func (t *Tox) FriendIsTyping(friendID uint32) (bool, error) {
	return invoke(t, func(r chan<- bool) command { return cmdFriendIsTyping{friend: friendID, reply: r} })
}

// SetSendsReceipts chooses whether we send read receipts to a friend. It
// does not wait for the actor to apply it.
func (t *Tox) SetSendsReceipts(friendID uint32, enabled bool) error {
	return t.ref.Submit(cmdSetSendsReceipts{friend: friendID, enabled: enabled})
}

// SendMessage sends a message to a friend and returns its receipt number.
// Use SplitMessage for text longer than limits.MaxMessageLength.
func (t *Tox) SendMessage(friendID uint32, message string) (uint32, error) {
	return invokeResult(t, func(r chan<- result[uint32]) command {
		return cmdSendMessage{friend: friendID, message: message, reply: r}
	})
}

// SendAction sends an action ("/me") message to a friend.
func (t *Tox) SendAction(friendID uint32, action string) (uint32, error) {
	return invokeResult(t, func(r chan<- result[uint32]) command {
		return cmdSendAction{friend: friendID, action: action, reply: r}
	})
}

// AddGroupchat creates a text group chat.
func (t *Tox) AddGroupchat() (uint32, error) {
	return invokeResult(t, func(r chan<- result[uint32]) command { return cmdAddGroupchat{reply: r} })
}

// DeleteGroupchat leaves a group chat.
func (t *Tox) DeleteGroupchat(groupID uint32) error {
	return invokeErr(t, func(r chan<- result[none]) command { return cmdDeleteGroupchat{group: groupID, reply: r} })
}

// GroupPeerName returns the name of a group peer.
func (t *Tox) GroupPeerName(groupID, peerID uint32) (string, error) {
	return invokeResult(t, func(r chan<- result[string]) command {
		return cmdGroupPeerName{group: groupID, peer: peerID, reply: r}
	})
}

// InviteFriend invites a friend to a group chat.
func (t *Tox) InviteFriend(friendID, groupID uint32) error {
	return invokeErr(t, func(r chan<- result[none]) command {
		return cmdInviteFriend{friend: friendID, group: groupID, reply: r}
	})
}

// JoinGroupchat joins a group chat with the data of a GroupInvite event.
func (t *Tox) JoinGroupchat(friendID uint32, data []byte) (uint32, error) {
	return invokeResult(t, func(r chan<- result[uint32]) command {
		return cmdJoinGroupchat{friend: friendID, data: bytes.Clone(data), reply: r}
	})
}

// GroupMessageSend sends a message to a group chat.
func (t *Tox) GroupMessageSend(groupID uint32, message string) error {
	return invokeErr(t, func(r chan<- result[none]) command {
		return cmdGroupMessageSend{group: groupID, message: message, reply: r}
	})
}

// GroupActionSend sends an action message to a group chat.
func (t *Tox) GroupActionSend(groupID uint32, action string) error {
	return invokeErr(t, func(r chan<- result[none]) command {
		return cmdGroupActionSend{group: groupID, action: action, reply: r}
	})
}

// GroupPeerCount returns the number of peers in a group chat.
func (t *Tox) GroupPeerCount(groupID uint32) (int, error) {
	return invokeResult(t, func(r chan<- result[int]) command { return cmdGroupPeerCount{group: groupID, reply: r} })
}

// GroupNames returns the names of every peer, indexed by peer number.
func (t *Tox) GroupNames(groupID uint32) ([]string, error) {
	return invokeResult(t, func(r chan<- result[[]string]) command { return cmdGroupNames{group: groupID, reply: r} })
}

// ChatList returns every group number.
func (t *Tox) ChatList() ([]uint32, error) {
	return invoke(t, func(r chan<- []uint32) command { return cmdChatList{reply: r} })
}

// CountChatList returns the number of group chats.
func (t *Tox) CountChatList() (uint32, error) {
	return invoke(t, func(r chan<- uint32) command { return cmdCountChatList{reply: r} })
}

// NewFileSender offers a file to a friend and returns the file number.
func (t *Tox) NewFileSender(friendID uint32, size uint64, filename string) (uint8, error) {
	return invokeResult(t, func(r chan<- result[uint8]) command {
		return cmdNewFileSender{friend: friendID, size: size, filename: filename, reply: r}
	})
}

// FileSendControl sends a control message for a transfer.
func (t *Tox) FileSendControl(friendID uint32, direction TransferDirection, fileID uint8, control FileControl, data []byte) error {
	return invokeErr(t, func(r chan<- result[none]) command {
		return cmdFileSendControl{friend: friendID, direction: direction, file: fileID, control: control, data: bytes.Clone(data), reply: r}
	})
}

// FileSendData sends the next chunk of an outgoing file.
func (t *Tox) FileSendData(friendID uint32, fileID uint8, data []byte) error {
	return invokeErr(t, func(r chan<- result[none]) command {
		return cmdFileSendData{friend: friendID, file: fileID, data: bytes.Clone(data), reply: r}
	})
}

// FileDataSize returns the largest chunk FileSendData accepts for a friend.
func (t *Tox) FileDataSize(friendID uint32) (int, error) {
	return invokeResult(t, func(r chan<- result[int]) command { return cmdFileDataSize{friend: friendID, reply: r} })
}

// FileDataRemaining returns how many bytes of a transfer are left.
func (t *Tox) FileDataRemaining(friendID uint32, fileID uint8, direction TransferDirection) (uint64, error) {
	return invokeResult(t, func(r chan<- result[uint64]) command {
		return cmdFileDataRemaining{friend: friendID, file: fileID, direction: direction, reply: r}
	})
}

// SetAvatar sets our avatar and announces it to online friends.
func (t *Tox) SetAvatar(format AvatarFormat, data []byte) error {
	return invokeErr(t, func(r chan<- result[none]) command {
		return cmdSetAvatar{format: format, data: bytes.Clone(data), reply: r}
	})
}

// UnsetAvatar removes our avatar. It does not wait for the actor to apply it.
func (t *Tox) UnsetAvatar() error {
	return t.ref.Submit(cmdUnsetAvatar{})
}

// SelfAvatar returns our avatar.
func (t *Tox) SelfAvatar() (Avatar, error) {
	return invokeResult(t, func(r chan<- result[Avatar]) command { return cmdSelfAvatar{reply: r} })
}

// RequestAvatarInfo asks a friend to announce its avatar.
func (t *Tox) RequestAvatarInfo(friendID uint32) error {
	return invokeErr(t, func(r chan<- result[none]) command { return cmdRequestAvatarInfo{friend: friendID, reply: r} })
}

// RequestAvatarData asks a friend to send its avatar image.
func (t *Tox) RequestAvatarData(friendID uint32) error {
	return invokeErr(t, func(r chan<- result[none]) command { return cmdRequestAvatarData{friend: friendID, reply: r} })
}

// SendAvatarInfo announces our avatar to a friend.
func (t *Tox) SendAvatarInfo(friendID uint32) error {
	return invokeErr(t, func(r chan<- result[none]) command { return cmdSendAvatarInfo{friend: friendID, reply: r} })
}

// Save exports the handle's state.
func (t *Tox) Save() ([]byte, error) {
	return invoke(t, func(r chan<- []byte) command { return cmdSave{reply: r} })
}

// Load restores state produced by Save.
func (t *Tox) Load(data []byte) error {
	return invokeErr(t, func(r chan<- result[none]) command { return cmdLoad{data: bytes.Clone(data), reply: r} })
}

// AttachAV creates the AV facet of the handle and starts its actor. It fails
// with ErrAVAttached while a previous AV actor is still running, and with
// ErrAVCreateFailed when the handle refuses. Once attached, the handle is
// not destroyed before the AV actor finished, even if every Tox was closed.
func (t *Tox) AttachAV(opts *av.Options) (*av.ToxAV, *av.Events, error) {
	att, err := invokeResult(t, func(r chan<- result[avAttachment]) command {
		return cmdAttachAV{opts: opts, reply: r}
	})
	if err != nil {
		return nil, nil, err
	}
	return att.toxav, att.events, nil
}
