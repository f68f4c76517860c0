package toxloop

import (
	"bytes"

	"github.com/opd-ai/toxloop/crypto"
	"github.com/opd-ai/toxloop/internal/loop"
)

// registerCallbacks bridges every notification of h into sink. The closures
// hold nothing but the sink, and the handle only invokes them from inside
// Iterate on the loop goroutine. Byte slices are copied; the handle may
// reuse its buffers.
func registerCallbacks(h Callbacks, sink *loop.Sink[Event]) {
	h.OnFriendRequest(func(publicKey crypto.PublicKey, message string) {
		sink.Emit(FriendRequest{PublicKey: publicKey, Message: message})
	})
	h.OnFriendMessage(func(friendID uint32, message string) {
		sink.Emit(FriendMessage{Friend: friendID, Message: message})
	})
	h.OnFriendAction(func(friendID uint32, action string) {
		sink.Emit(FriendAction{Friend: friendID, Action: action})
	})
	h.OnNameChange(func(friendID uint32, name string) {
		sink.Emit(NameChange{Friend: friendID, Name: name})
	})
	h.OnStatusMessageChange(func(friendID uint32, message string) {
		sink.Emit(StatusMessageChange{Friend: friendID, Message: message})
	})
	h.OnUserStatusChange(func(friendID uint32, status UserStatus) {
		sink.Emit(UserStatusChange{Friend: friendID, Status: status})
	})
	h.OnTypingChange(func(friendID uint32, isTyping bool) {
		sink.Emit(TypingChange{Friend: friendID, IsTyping: isTyping})
	})
	h.OnReadReceipt(func(friendID uint32, receipt uint32) {
		sink.Emit(ReadReceipt{Friend: friendID, Receipt: receipt})
	})
	h.OnConnectionStatusChange(func(friendID uint32, status ConnectionStatus) {
		sink.Emit(ConnectionStatusChange{Friend: friendID, Status: status})
	})
	h.OnGroupInvite(func(friendID uint32, kind GroupchatType, data []byte) {
		sink.Emit(GroupInvite{Friend: friendID, Type: kind, Data: bytes.Clone(data)})
	})
	h.OnGroupMessage(func(groupID, peerID uint32, message string) {
		sink.Emit(GroupMessage{Group: groupID, Peer: peerID, Message: message})
	})
	h.OnGroupAction(func(groupID, peerID uint32, action string) {
		sink.Emit(GroupAction{Group: groupID, Peer: peerID, Action: action})
	})
	h.OnGroupNamelistChange(func(groupID, peerID uint32, change ChatChange) {
		sink.Emit(GroupNamelistChange{Group: groupID, Peer: peerID, Change: change})
	})
	h.OnFileSendRequest(func(friendID uint32, fileID uint8, size uint64, filename string) {
		sink.Emit(FileSendRequest{Friend: friendID, File: fileID, Size: size, Filename: filename})
	})
	h.OnFileControl(func(friendID uint32, direction TransferDirection, fileID uint8, control FileControl, data []byte) {
		sink.Emit(FileControlReceived{Friend: friendID, Direction: direction, File: fileID, Control: control, Data: bytes.Clone(data)})
	})
	h.OnFileData(func(friendID uint32, fileID uint8, data []byte) {
		sink.Emit(FileData{Friend: friendID, File: fileID, Data: bytes.Clone(data)})
	})
	h.OnAvatarInfo(func(friendID uint32, format AvatarFormat, hash AvatarHash) {
		sink.Emit(AvatarInfo{Friend: friendID, Format: format, Hash: hash})
	})
	h.OnAvatarData(func(friendID uint32, format AvatarFormat, hash AvatarHash, data []byte) {
		sink.Emit(AvatarData{Friend: friendID, Format: format, Hash: hash, Data: bytes.Clone(data)})
	})
}
