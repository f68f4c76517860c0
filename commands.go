package toxloop

import (
	"time"

	"github.com/opd-ai/toxloop/av"
	"github.com/opd-ai/toxloop/crypto"
)

// command is the closed set of operations the actor runs against its
// handle. A variant with a reply channel receives exactly one reply, domain
// failures included.
type command interface {
	isCommand()
}

type result[T any] struct {
	value T
	err   error
}

type none = struct{}

// Self.
type (
	cmdAddress struct {
		reply chan<- crypto.ToxID
	}
	cmdSetName struct {
		name  string
		reply chan<- result[none]
	}
	cmdName struct {
		reply chan<- string
	}
	cmdSetStatusMessage struct {
		message string
		reply   chan<- result[none]
	}
	cmdStatusMessage struct {
		reply chan<- string
	}
	cmdSetUserStatus struct {
		status UserStatus
		reply  chan<- result[none]
	}
	cmdUserStatus struct {
		reply chan<- UserStatus
	}
	cmdNospam struct {
		reply chan<- uint32
	}
	cmdSetNospam struct {
		nospam uint32
	}
	cmdIsConnected struct {
		reply chan<- bool
	}
	cmdBootstrap struct {
		address   string
		port      uint16
		publicKey crypto.PublicKey
		reply     chan<- result[none]
	}
)

// Friends.
type (
	cmdAddFriend struct {
		address crypto.ToxID
		message string
		reply   chan<- result[uint32]
	}
	cmdAddFriendNoRequest struct {
		publicKey crypto.PublicKey
		reply     chan<- result[uint32]
	}
	cmdFriendByPublicKey struct {
		publicKey crypto.PublicKey
		reply     chan<- result[uint32]
	}
	cmdFriendPublicKey struct {
		friend uint32
		reply  chan<- result[crypto.PublicKey]
	}
	cmdDeleteFriend struct {
		friend uint32
		reply  chan<- result[none]
	}
	cmdFriendConnectionStatus struct {
		friend uint32
		reply  chan<- result[ConnectionStatus]
	}
	cmdFriendExists struct {
		friend uint32
		reply  chan<- bool
	}
	cmdFriendList struct {
		reply chan<- []uint32
	}
	cmdCountFriendList struct {
		reply chan<- uint32
	}
	cmdOnlineFriendCount struct {
		reply chan<- uint32
	}
	cmdFriendName struct {
		friend uint32
		reply  chan<- result[string]
	}
	cmdFriendStatusMessage struct {
		friend uint32
		reply  chan<- result[string]
	}
	cmdFriendUserStatus struct {
		friend uint32
		reply  chan<- result[UserStatus]
	}
	cmdFriendLastOnline struct {
		friend uint32
		reply  chan<- result[time.Time]
	}
	cmdSetTyping struct {
		friend   uint32
		isTyping bool
		reply    chan<- result[none]
	}
	cmdFriendIsTyping struct {
		friend uint32
		reply  chan<- bool
	}
	cmdSetSendsReceipts struct {
		friend  uint32
		enabled bool
	}
	cmdSendMessage struct {
		friend  uint32
		message string
		reply   chan<- result[uint32]
	}
	cmdSendAction struct {
		friend uint32
		action string
		reply  chan<- result[uint32]
	}
)

// Groups.
type (
	cmdAddGroupchat struct {
		reply chan<- result[uint32]
	}
	cmdDeleteGroupchat struct {
		group uint32
		reply chan<- result[none]
	}
	cmdGroupPeerName struct {
		group, peer uint32
		reply       chan<- result[string]
	}
	cmdInviteFriend struct {
		friend, group uint32
		reply         chan<- result[none]
	}
	cmdJoinGroupchat struct {
		friend uint32
		data   []byte
		reply  chan<- result[uint32]
	}
	cmdGroupMessageSend struct {
		group   uint32
		message string
		reply   chan<- result[none]
	}
	cmdGroupActionSend struct {
		group  uint32
		action string
		reply  chan<- result[none]
	}
	cmdGroupPeerCount struct {
		group uint32
		reply chan<- result[int]
	}
	cmdGroupNames struct {
		group uint32
		reply chan<- result[[]string]
	}
	cmdChatList struct {
		reply chan<- []uint32
	}
	cmdCountChatList struct {
		reply chan<- uint32
	}
)

// Files.
type (
	cmdNewFileSender struct {
		friend   uint32
		size     uint64
		filename string
		reply    chan<- result[uint8]
	}
	cmdFileSendControl struct {
		friend    uint32
		direction TransferDirection
		file      uint8
		control   FileControl
		data      []byte
		reply     chan<- result[none]
	}
	cmdFileSendData struct {
		friend uint32
		file   uint8
		data   []byte
		reply  chan<- result[none]
	}
	cmdFileDataSize struct {
		friend uint32
		reply  chan<- result[int]
	}
	cmdFileDataRemaining struct {
		friend    uint32
		file      uint8
		direction TransferDirection
		reply     chan<- result[uint64]
	}
)

// Avatars.
type (
	cmdSetAvatar struct {
		format AvatarFormat
		data   []byte
		reply  chan<- result[none]
	}
	cmdUnsetAvatar struct{}
	cmdSelfAvatar  struct {
		reply chan<- result[Avatar]
	}
	cmdRequestAvatarInfo struct {
		friend uint32
		reply  chan<- result[none]
	}
	cmdRequestAvatarData struct {
		friend uint32
		reply  chan<- result[none]
	}
	cmdSendAvatarInfo struct {
		friend uint32
		reply  chan<- result[none]
	}
)

// State and sub-actor.
type (
	cmdSave struct {
		reply chan<- []byte
	}
	cmdLoad struct {
		data  []byte
		reply chan<- result[none]
	}
	cmdAttachAV struct {
		opts  *av.Options
		reply chan<- result[avAttachment]
	}
)

type avAttachment struct {
	toxav  *av.ToxAV
	events *av.Events
}

func (cmdAddress) isCommand()                {}
func (cmdSetName) isCommand()                {}
func (cmdName) isCommand()                   {}
func (cmdSetStatusMessage) isCommand()       {}
func (cmdStatusMessage) isCommand()          {}
func (cmdSetUserStatus) isCommand()          {}
func (cmdUserStatus) isCommand()             {}
func (cmdNospam) isCommand()                 {}
func (cmdSetNospam) isCommand()              {}
func (cmdIsConnected) isCommand()            {}
func (cmdBootstrap) isCommand()              {}
func (cmdAddFriend) isCommand()              {}
func (cmdAddFriendNoRequest) isCommand()     {}
func (cmdFriendByPublicKey) isCommand()      {}
func (cmdFriendPublicKey) isCommand()        {}
func (cmdDeleteFriend) isCommand()           {}
func (cmdFriendConnectionStatus) isCommand() {}
func (cmdFriendExists) isCommand()           {}
func (cmdFriendList) isCommand()             {}
func (cmdCountFriendList) isCommand()        {}
func (cmdOnlineFriendCount) isCommand()      {}
func (cmdFriendName) isCommand()             {}
func (cmdFriendStatusMessage) isCommand()    {}
func (cmdFriendUserStatus) isCommand()       {}
func (cmdFriendLastOnline) isCommand()       {}
func (cmdSetTyping) isCommand()              {}
func (cmdFriendIsTyping) isCommand()         {}
func (cmdSetSendsReceipts) isCommand()       {}
func (cmdSendMessage) isCommand()            {}
func (cmdSendAction) isCommand()             {}
func (cmdAddGroupchat) isCommand()           {}
func (cmdDeleteGroupchat) isCommand()        {}
func (cmdGroupPeerName) isCommand()          {}
func (cmdInviteFriend) isCommand()           {}
func (cmdJoinGroupchat) isCommand()          {}
func (cmdGroupMessageSend) isCommand()       {}
func (cmdGroupActionSend) isCommand()        {}
func (cmdGroupPeerCount) isCommand()         {}
func (cmdGroupNames) isCommand()             {}
func (cmdChatList) isCommand()               {}
func (cmdCountChatList) isCommand()          {}
func (cmdNewFileSender) isCommand()          {}
func (cmdFileSendControl) isCommand()        {}
func (cmdFileSendData) isCommand()           {}
func (cmdFileDataSize) isCommand()           {}
func (cmdFileDataRemaining) isCommand()      {}
func (cmdSetAvatar) isCommand()              {}
func (cmdUnsetAvatar) isCommand()            {}
func (cmdSelfAvatar) isCommand()             {}
func (cmdRequestAvatarInfo) isCommand()      {}
func (cmdRequestAvatarData) isCommand()      {}
func (cmdSendAvatarInfo) isCommand()         {}
func (cmdSave) isCommand()                   {}
func (cmdLoad) isCommand()                   {}
func (cmdAttachAV) isCommand()               {}
