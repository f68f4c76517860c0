package toxloop

import (
	"errors"

	"github.com/opd-ai/toxloop/internal/loop"
)

// Lifecycle errors. They describe the actor, never the outcome of an
// operation, so callers can tell "friend request rejected" apart from "the
// actor is gone".
var (
	// ErrActorUnavailable indicates the actor loop has terminated.
	ErrActorUnavailable = loop.ErrUnavailable

	// ErrHandleClosed indicates the Tox value used was already closed. It
	// matches ErrActorUnavailable with errors.Is.
	ErrHandleClosed = loop.ErrHandleClosed

	// ErrCallTimeout indicates Options.CallTimeout expired before the reply.
	ErrCallTimeout = loop.ErrCallTimeout

	// ErrNotSubmitted accompanies ErrCallTimeout when the command was never
	// queued and so never ran.
	ErrNotSubmitted = loop.ErrNotSubmitted

	// ErrReplyAbandoned accompanies ErrCallTimeout when the command was
	// queued. It still runs.
	ErrReplyAbandoned = loop.ErrReplyAbandoned

	// ErrCreateFailed indicates the handle could not be constructed. No actor
	// was started.
	ErrCreateFailed = errors.New("tox instance creation failed")

	// ErrAVAttached indicates an AV actor is still attached.
	ErrAVAttached = errors.New("AV actor already attached")

	// ErrAVCreateFailed indicates the handle refused to create its AV facet.
	ErrAVCreateFailed = errors.New("AV instance creation failed")
)

// Event source errors.
var (
	// ErrEventsClosed indicates the event source was closed.
	ErrEventsClosed = loop.ErrSinkClosed

	// ErrNoEvent indicates Events.Next timed out.
	ErrNoEvent = loop.ErrNoEvent
)

// Domain errors reported by handles. They are returned to the caller exactly
// as the handle reported them.
var (
	// ErrFriendNotFound indicates the friend number or key is not known.
	ErrFriendNotFound = errors.New("friend not found")

	// ErrFriendExists indicates the key is already on the friend list.
	ErrFriendExists = errors.New("friend already exists")

	// ErrFriendNotConnected indicates the friend is offline.
	ErrFriendNotConnected = errors.New("friend not connected")

	// ErrGroupNotFound indicates the group number is not known.
	ErrGroupNotFound = errors.New("group not found")

	// ErrPeerNotFound indicates the peer number is not part of the group.
	ErrPeerNotFound = errors.New("peer not found")

	// ErrInvalidInvite indicates group invite data that cannot be joined.
	ErrInvalidInvite = errors.New("invalid group invite")

	// ErrFileNotFound indicates the file number has no transfer.
	ErrFileNotFound = errors.New("file transfer not found")

	// ErrFileTransferState indicates a control or chunk that the transfer
	// cannot take in its current state.
	ErrFileTransferState = errors.New("invalid file transfer state")

	// ErrBootstrapFailed indicates a bootstrap node could not be used.
	ErrBootstrapFailed = errors.New("bootstrap failed")

	// ErrInvalidSaveData indicates Load was given data it cannot restore.
	ErrInvalidSaveData = errors.New("invalid save data")

	// ErrInvalidAvatar indicates an unknown avatar format, or data given
	// with AvatarFormatNone.
	ErrInvalidAvatar = errors.New("invalid avatar")
)
