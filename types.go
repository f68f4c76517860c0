package toxloop

import "fmt"

// UserStatus is the availability a peer advertises.
type UserStatus uint8

const (
	UserStatusNone UserStatus = iota
	UserStatusAway
	UserStatusBusy
)

func (s UserStatus) String() string {
	switch s {
	case UserStatusNone:
		return "none"
	case UserStatusAway:
		return "away"
	case UserStatusBusy:
		return "busy"
	default:
		return fmt.Sprintf("UserStatus(%d)", uint8(s))
	}
}

// ConnectionStatus reports whether a friend is reachable.
type ConnectionStatus uint8

const (
	ConnectionOffline ConnectionStatus = iota
	ConnectionOnline
)

func (s ConnectionStatus) String() string {
	if s == ConnectionOnline {
		return "online"
	}
	return "offline"
}

// ChatChange describes a change to the peer list of a group chat.
type ChatChange uint8

const (
	ChatChangePeerAdd ChatChange = iota
	ChatChangePeerDel
	ChatChangePeerName
)

func (c ChatChange) String() string {
	switch c {
	case ChatChangePeerAdd:
		return "peer-add"
	case ChatChangePeerDel:
		return "peer-del"
	case ChatChangePeerName:
		return "peer-name"
	default:
		return fmt.Sprintf("ChatChange(%d)", uint8(c))
	}
}

// GroupchatType distinguishes text-only group chats from AV group chats.
type GroupchatType uint8

const (
	GroupchatText GroupchatType = iota
	GroupchatAV
)

// FileControl is a control message of a file transfer.
type FileControl uint8

const (
	FileControlAccept FileControl = iota
	FileControlPause
	FileControlKill
	FileControlFinished
	FileControlResumeBroken
)

func (c FileControl) String() string {
	switch c {
	case FileControlAccept:
		return "accept"
	case FileControlPause:
		return "pause"
	case FileControlKill:
		return "kill"
	case FileControlFinished:
		return "finished"
	case FileControlResumeBroken:
		return "resume-broken"
	default:
		return fmt.Sprintf("FileControl(%d)", uint8(c))
	}
}

// TransferDirection tells which side of a file transfer a control message or
// query refers to.
type TransferDirection uint8

const (
	TransferReceiving TransferDirection = iota
	TransferSending
)

// FriendAddError is the reason a friend request could not be sent. It is a
// domain failure returned by AddFriend, never a lifecycle error.
type FriendAddError int

const (
	FriendAddTooLong      FriendAddError = -1
	FriendAddNoMessage    FriendAddError = -2
	FriendAddOwnKey       FriendAddError = -3
	FriendAddAlreadySent  FriendAddError = -4
	FriendAddUnknown      FriendAddError = -5
	FriendAddBadChecksum  FriendAddError = -6
	FriendAddSetNewNospam FriendAddError = -7
	FriendAddNoMem        FriendAddError = -8
)

func (e FriendAddError) Error() string {
	switch e {
	case FriendAddTooLong:
		return "friend request message too long"
	case FriendAddNoMessage:
		return "friend request message empty"
	case FriendAddOwnKey:
		return "cannot add own key as friend"
	case FriendAddAlreadySent:
		return "friend request already sent"
	case FriendAddBadChecksum:
		return "bad address checksum"
	case FriendAddSetNewNospam:
		return "friend already added with a different nospam"
	case FriendAddNoMem:
		return "out of memory adding friend"
	default:
		return "unknown friend add error"
	}
}
