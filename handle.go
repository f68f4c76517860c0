package toxloop

import (
	"time"

	"github.com/opd-ai/toxloop/av"
	"github.com/opd-ai/toxloop/crypto"
)

// FriendRequestCallback is called when someone asks to become a friend.
type FriendRequestCallback func(publicKey crypto.PublicKey, message string)

// FriendMessageCallback is called for a message or action from a friend.
type FriendMessageCallback func(friendID uint32, message string)

// FriendNameCallback is called when a friend changes name.
type FriendNameCallback func(friendID uint32, name string)

// FriendStatusMessageCallback is called when a friend changes status message.
type FriendStatusMessageCallback func(friendID uint32, message string)

// FriendUserStatusCallback is called when a friend changes availability.
type FriendUserStatusCallback func(friendID uint32, status UserStatus)

// FriendTypingCallback is called when a friend starts or stops typing.
type FriendTypingCallback func(friendID uint32, isTyping bool)

// ReadReceiptCallback is called when a friend confirms reading a message.
type ReadReceiptCallback func(friendID uint32, receipt uint32)

// ConnectionStatusCallback is called when a friend goes on- or offline.
type ConnectionStatusCallback func(friendID uint32, status ConnectionStatus)

// GroupInviteCallback is called when a friend invites us to a group chat.
type GroupInviteCallback func(friendID uint32, kind GroupchatType, data []byte)

// GroupMessageCallback is called for a message or action in a group chat.
type GroupMessageCallback func(groupID, peerID uint32, message string)

// GroupNamelistCallback is called when the peer list of a group changes.
type GroupNamelistCallback func(groupID, peerID uint32, change ChatChange)

// FileSendRequestCallback is called when a friend offers a file.
type FileSendRequestCallback func(friendID uint32, fileID uint8, size uint64, filename string)

// FileControlCallback is called for a control message of a file transfer.
type FileControlCallback func(friendID uint32, direction TransferDirection, fileID uint8, control FileControl, data []byte)

// FileDataCallback is called for a chunk of an incoming file.
type FileDataCallback func(friendID uint32, fileID uint8, data []byte)

// AvatarInfoCallback is called when a friend announces its avatar.
type AvatarInfoCallback func(friendID uint32, format AvatarFormat, hash AvatarHash)

// AvatarDataCallback is called when a friend sends its avatar image.
type AvatarDataCallback func(friendID uint32, format AvatarFormat, hash AvatarHash, data []byte)

// Service is the polling part of a handle.
type Service interface {
	// Iterate does pending network work and fires registered callbacks.
	Iterate()
	// IterationInterval is how long to wait before the next Iterate. It may
	// change after every Iterate.
	IterationInterval() time.Duration
	// Kill destroys the handle. It is called once, after the last operation.
	Kill()
}

// Callbacks registers the notification hooks of a handle. Each hook is set
// once, before the actor starts, and only invoked from inside Iterate.
type Callbacks interface {
	OnFriendRequest(cb FriendRequestCallback)
	OnFriendMessage(cb FriendMessageCallback)
	OnFriendAction(cb FriendMessageCallback)
	OnNameChange(cb FriendNameCallback)
	OnStatusMessageChange(cb FriendStatusMessageCallback)
	OnUserStatusChange(cb FriendUserStatusCallback)
	OnTypingChange(cb FriendTypingCallback)
	OnReadReceipt(cb ReadReceiptCallback)
	OnConnectionStatusChange(cb ConnectionStatusCallback)
	OnGroupInvite(cb GroupInviteCallback)
	OnGroupMessage(cb GroupMessageCallback)
	OnGroupAction(cb GroupMessageCallback)
	OnGroupNamelistChange(cb GroupNamelistCallback)
	OnFileSendRequest(cb FileSendRequestCallback)
	OnFileControl(cb FileControlCallback)
	OnFileData(cb FileDataCallback)
	OnAvatarInfo(cb AvatarInfoCallback)
	OnAvatarData(cb AvatarDataCallback)
}

// Self covers the local identity.
type Self interface {
	Address() crypto.ToxID
	SetName(name string) error
	Name() string
	SetStatusMessage(message string) error
	StatusMessage() string
	SetUserStatus(status UserStatus) error
	UserStatus() UserStatus
	Nospam() uint32
	SetNospam(nospam uint32)
	IsConnected() bool
	Bootstrap(address string, port uint16, publicKey crypto.PublicKey) error
}

// Friends covers the friend list and one-to-one messaging. AddFriend fails
// with a FriendAddError.
type Friends interface {
	AddFriend(address crypto.ToxID, message string) (uint32, error)
	AddFriendNoRequest(publicKey crypto.PublicKey) (uint32, error)
	FriendByPublicKey(publicKey crypto.PublicKey) (uint32, error)
	FriendPublicKey(friendID uint32) (crypto.PublicKey, error)
	DeleteFriend(friendID uint32) error
	FriendConnectionStatus(friendID uint32) (ConnectionStatus, error)
	FriendExists(friendID uint32) bool
	FriendList() []uint32
	CountFriendList() uint32
	OnlineFriendCount() uint32
	FriendName(friendID uint32) (string, error)
	FriendStatusMessage(friendID uint32) (string, error)
	FriendUserStatus(friendID uint32) (UserStatus, error)
	FriendLastOnline(friendID uint32) (time.Time, error)
	SetTyping(friendID uint32, isTyping bool) error
	FriendIsTyping(friendID uint32) bool
	SetSendsReceipts(friendID uint32, enabled bool)

	SendMessage(friendID uint32, message string) (uint32, error)
	SendAction(friendID uint32, action string) (uint32, error)
}

// Groups covers text group chats.
type Groups interface {
	AddGroupchat() (uint32, error)
	DeleteGroupchat(groupID uint32) error
	GroupPeerName(groupID, peerID uint32) (string, error)
	InviteFriend(friendID, groupID uint32) error
	JoinGroupchat(friendID uint32, data []byte) (uint32, error)
	GroupMessageSend(groupID uint32, message string) error
	GroupActionSend(groupID uint32, action string) error
	GroupPeerCount(groupID uint32) (int, error)
	GroupNames(groupID uint32) ([]string, error)
	ChatList() []uint32
	CountChatList() uint32
}

// Files covers file transfers.
type Files interface {
	NewFileSender(friendID uint32, size uint64, filename string) (uint8, error)
	FileSendControl(friendID uint32, direction TransferDirection, fileID uint8, control FileControl, data []byte) error
	FileSendData(friendID uint32, fileID uint8, data []byte) error
	FileDataSize(friendID uint32) (int, error)
	FileDataRemaining(friendID uint32, fileID uint8, direction TransferDirection) (uint64, error)
}

// Avatars covers the local avatar and the exchange of avatars with friends.
// Requests fail with ErrFriendNotFound or ErrFriendNotConnected; answers
// arrive as AvatarInfo and AvatarData notifications.
type Avatars interface {
	SetAvatar(format AvatarFormat, data []byte) error
	UnsetAvatar()
	SelfAvatar() (Avatar, error)
	RequestAvatarInfo(friendID uint32) error
	RequestAvatarData(friendID uint32) error
	SendAvatarInfo(friendID uint32) error
}

// State exports and restores the handle's persistent state. The format is
// owned by the handle.
type State interface {
	Save() []byte
	Load(data []byte) error
}

// Handle is a live Tox session. It is not safe for concurrent use: only the
// actor loop started by New ever calls it.
type Handle interface {
	Service
	Callbacks
	Self
	Friends
	Groups
	Files
	Avatars
	State

	// NewAV creates the AV facet of the handle. The facet shares the
	// session and is driven by its own actor.
	NewAV(maxCalls int) (av.Handle, error)
}

// Constructor creates a handle from options.
type Constructor func(opts *Options) (Handle, error)
