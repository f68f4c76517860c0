package toxloop

import (
	"iter"
	"time"

	"github.com/opd-ai/toxloop/crypto"
	"github.com/opd-ai/toxloop/internal/loop"
)

// Event is a notification from the handle. Consumers switch on the concrete
// type.
type Event interface {
	isEvent()
}

type (
	FriendRequest struct {
		PublicKey crypto.PublicKey
		Message   string
	}
	FriendMessage struct {
		Friend  uint32
		Message string
	}
	FriendAction struct {
		Friend uint32
		Action string
	}
	NameChange struct {
		Friend uint32
		Name   string
	}
	StatusMessageChange struct {
		Friend  uint32
		Message string
	}
	UserStatusChange struct {
		Friend uint32
		Status UserStatus
	}
	TypingChange struct {
		Friend   uint32
		IsTyping bool
	}
	ReadReceipt struct {
		Friend  uint32
		Receipt uint32
	}
	ConnectionStatusChange struct {
		Friend uint32
		Status ConnectionStatus
	}
	// GroupInvite carries the data JoinGroupchat needs.
	GroupInvite struct {
		Friend uint32
		Type   GroupchatType
		Data   []byte
	}
	GroupMessage struct {
		Group   uint32
		Peer    uint32
		Message string
	}
	GroupAction struct {
		Group  uint32
		Peer   uint32
		Action string
	}
	GroupNamelistChange struct {
		Group  uint32
		Peer   uint32
		Change ChatChange
	}
	FileSendRequest struct {
		Friend   uint32
		File     uint8
		Size     uint64
		Filename string
	}
	FileControlReceived struct {
		Friend    uint32
		Direction TransferDirection
		File      uint8
		Control   FileControl
		Data      []byte
	}
	FileData struct {
		Friend uint32
		File   uint8
		Data   []byte
	}
	// AvatarInfo announces a friend's avatar. Request the data when the
	// hash differs from the one already known.
	AvatarInfo struct {
		Friend uint32
		Format AvatarFormat
		Hash   AvatarHash
	}
	AvatarData struct {
		Friend uint32
		Format AvatarFormat
		Hash   AvatarHash
		Data   []byte
	}
)

func (FriendRequest) isEvent()          {}
func (FriendMessage) isEvent()          {}
func (FriendAction) isEvent()           {}
func (NameChange) isEvent()             {}
func (StatusMessageChange) isEvent()    {}
func (UserStatusChange) isEvent()       {}
func (TypingChange) isEvent()           {}
func (ReadReceipt) isEvent()            {}
func (ConnectionStatusChange) isEvent() {}
func (GroupInvite) isEvent()            {}
func (GroupMessage) isEvent()           {}
func (GroupAction) isEvent()            {}
func (GroupNamelistChange) isEvent()    {}
func (FileSendRequest) isEvent()        {}
func (FileControlReceived) isEvent()    {}
func (FileData) isEvent()               {}
func (AvatarInfo) isEvent()             {}
func (AvatarData) isEvent()             {}

// Events is the consumer side of the actor's event queue. It may be polled
// from any number of goroutines; events come out in the order the handle
// reported them.
type Events struct {
	src *loop.Source[Event]
}

// TryNext returns the oldest queued event, if any. It never blocks.
func (e *Events) TryNext() (Event, bool) {
	return e.src.TryNext()
}

// All yields the events queued at the time of the call and then stops.
// Range over it again to see later events.
func (e *Events) All() iter.Seq[Event] {
	return e.src.All()
}

// Next waits up to timeout for an event. It returns ErrNoEvent on timeout
// and ErrEventsClosed after Close.
func (e *Events) Next(timeout time.Duration) (Event, error) {
	return e.src.Next(timeout)
}

// Len returns the number of queued events.
func (e *Events) Len() int {
	return e.src.Len()
}

// Close stops consuming. The actor terminates the next time it has an event
// to deliver.
func (e *Events) Close() {
	e.src.Close()
}
