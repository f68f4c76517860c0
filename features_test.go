package toxloop_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/toxloop"
	"github.com/opd-ai/toxloop/limits"
	"github.com/opd-ai/toxloop/sim"
)

func TestFriendMessagingWithReceipts(t *testing.T) {
	net := fastNetwork(sim.Config{})
	alice := start(t, net, nil)
	defer alice.stop(t)
	bob := start(t, net, nil)
	defer bob.stop(t)

	aToB, bToA := befriend(t, alice, bob)

	receipt, err := alice.tox.SendMessage(aToB, "ping")
	require.NoError(t, err)
	msg := waitEvent[toxloop.FriendMessage](t, bob.events)
	assert.Equal(t, toxloop.FriendMessage{Friend: bToA, Message: "ping"}, msg)
	assert.Equal(t, toxloop.ReadReceipt{Friend: aToB, Receipt: receipt}, waitEvent[toxloop.ReadReceipt](t, alice.events))

	_, err = bob.tox.SendAction(bToA, "waves")
	require.NoError(t, err)
	assert.Equal(t, "waves", waitEvent[toxloop.FriendAction](t, alice.events).Action)

	// Without receipts the message still arrives.
	require.NoError(t, bob.tox.SetSendsReceipts(bToA, false))
	_, err = alice.tox.SendMessage(aToB, "quiet")
	require.NoError(t, err)
	assert.Equal(t, "quiet", waitEvent[toxloop.FriendMessage](t, bob.events).Message)

	_, err = alice.tox.SendMessage(aToB, string(make([]byte, limits.MaxMessageLength+1)))
	assert.ErrorIs(t, err, limits.ErrMessageTooLarge)

	online, err := alice.tox.OnlineFriendCount()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), online)
}

func TestFriendStateChangesAreReported(t *testing.T) {
	net := fastNetwork(sim.Config{})
	alice := start(t, net, nil)
	defer alice.stop(t)
	bob := start(t, net, nil)
	defer bob.stop(t)

	aToB, bToA := befriend(t, alice, bob)

	require.NoError(t, bob.tox.SetName("Bob"))
	assert.Equal(t, toxloop.NameChange{Friend: aToB, Name: "Bob"}, waitEvent[toxloop.NameChange](t, alice.events))
	name, err := alice.tox.FriendName(aToB)
	require.NoError(t, err)
	assert.Equal(t, "Bob", name)

	require.NoError(t, bob.tox.SetStatusMessage("busy coding"))
	assert.Equal(t, "busy coding", waitEvent[toxloop.StatusMessageChange](t, alice.events).Message)

	require.NoError(t, bob.tox.SetUserStatus(toxloop.UserStatusAway))
	assert.Equal(t, toxloop.UserStatusAway, waitEvent[toxloop.UserStatusChange](t, alice.events).Status)
	status, err := alice.tox.FriendUserStatus(aToB)
	require.NoError(t, err)
	assert.Equal(t, toxloop.UserStatusAway, status)

	require.NoError(t, bob.tox.SetTyping(bToA, true))
	assert.True(t, waitEvent[toxloop.TypingChange](t, alice.events).IsTyping)
	typing, err := alice.tox.FriendIsTyping(aToB)
	require.NoError(t, err)
	assert.True(t, typing)

	pk, err := alice.tox.FriendPublicKey(aToB)
	require.NoError(t, err)
	assert.Equal(t, bob.node.PublicKey(), pk)
	byKey, err := alice.tox.FriendByPublicKey(pk)
	require.NoError(t, err)
	assert.Equal(t, aToB, byKey)

	// Deleting the friend takes the other side offline.
	require.NoError(t, bob.tox.DeleteFriend(bToA))
	change := waitEvent[toxloop.ConnectionStatusChange](t, alice.events)
	assert.Equal(t, toxloop.ConnectionOffline, change.Status)
	seen, err := alice.tox.FriendLastOnline(aToB)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), seen, time.Minute)

	exists, err := bob.tox.FriendExists(bToA)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestGroupChat(t *testing.T) {
	net := fastNetwork(sim.Config{})
	alice := start(t, net, nil)
	defer alice.stop(t)
	bob := start(t, net, nil)
	defer bob.stop(t)

	aToB, _ := befriend(t, alice, bob)
	require.NoError(t, alice.tox.SetName("Alice"))
	require.NoError(t, bob.tox.SetName("Bob"))

	group, err := alice.tox.AddGroupchat()
	require.NoError(t, err)
	require.NoError(t, alice.tox.InviteFriend(aToB, group))

	invite := waitEvent[toxloop.GroupInvite](t, bob.events)
	assert.Equal(t, toxloop.GroupchatText, invite.Type)
	joined, err := bob.tox.JoinGroupchat(invite.Friend, invite.Data)
	require.NoError(t, err)

	added := waitEvent[toxloop.GroupNamelistChange](t, alice.events)
	assert.Equal(t, toxloop.GroupNamelistChange{Group: group, Peer: 1, Change: toxloop.ChatChangePeerAdd}, added)

	require.NoError(t, bob.tox.GroupMessageSend(joined, "hi all"))
	msg := waitEvent[toxloop.GroupMessage](t, alice.events)
	assert.Equal(t, toxloop.GroupMessage{Group: group, Peer: 1, Message: "hi all"}, msg)

	names, err := alice.tox.GroupNames(group)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "Bob"}, names)
	peers, err := bob.tox.GroupPeerCount(joined)
	require.NoError(t, err)
	assert.Equal(t, 2, peers)
	peerName, err := bob.tox.GroupPeerName(joined, 0)
	require.NoError(t, err)
	assert.Equal(t, "Alice", peerName)

	_, err = bob.tox.GroupPeerName(joined, 9)
	assert.ErrorIs(t, err, toxloop.ErrPeerNotFound)
	_, err = bob.tox.JoinGroupchat(invite.Friend, []byte{1, 2})
	assert.ErrorIs(t, err, toxloop.ErrInvalidInvite)

	require.NoError(t, bob.tox.DeleteGroupchat(joined))
	left := waitEvent[toxloop.GroupNamelistChange](t, alice.events)
	for left.Change != toxloop.ChatChangePeerDel {
		left = waitEvent[toxloop.GroupNamelistChange](t, alice.events)
	}
	assert.Equal(t, uint32(1), left.Peer)

	chats, err := bob.tox.ChatList()
	require.NoError(t, err)
	assert.Empty(t, chats)
}

func TestFileTransfer(t *testing.T) {
	net := fastNetwork(sim.Config{})
	alice := start(t, net, nil)
	defer alice.stop(t)
	bob := start(t, net, nil)
	defer bob.stop(t)

	aToB, bToA := befriend(t, alice, bob)
	payload := []byte("0123456789")

	file, err := alice.tox.NewFileSender(aToB, uint64(len(payload)), "notes.txt")
	require.NoError(t, err)

	offer := waitEvent[toxloop.FileSendRequest](t, bob.events)
	assert.Equal(t, toxloop.FileSendRequest{Friend: bToA, File: file, Size: 10, Filename: "notes.txt"}, offer)

	// Nothing can be sent before the receiver accepts.
	assert.ErrorIs(t, alice.tox.FileSendData(aToB, file, payload), toxloop.ErrFileTransferState)

	require.NoError(t, bob.tox.FileSendControl(bToA, toxloop.TransferReceiving, file, toxloop.FileControlAccept, nil))
	accepted := waitEvent[toxloop.FileControlReceived](t, alice.events)
	assert.Equal(t, toxloop.TransferSending, accepted.Direction)
	assert.Equal(t, toxloop.FileControlAccept, accepted.Control)

	size, err := alice.tox.FileDataSize(aToB)
	require.NoError(t, err)
	assert.Equal(t, limits.MaxFileChunkLength, size)

	require.NoError(t, alice.tox.FileSendData(aToB, file, payload[:4]))
	require.NoError(t, alice.tox.FileSendData(aToB, file, payload[4:]))
	remaining, err := alice.tox.FileDataRemaining(aToB, file, toxloop.TransferSending)
	require.NoError(t, err)
	assert.Zero(t, remaining)

	var received []byte
	for len(received) < len(payload) {
		received = append(received, waitEvent[toxloop.FileData](t, bob.events).Data...)
	}
	assert.Equal(t, payload, received)

	require.NoError(t, alice.tox.FileSendControl(aToB, toxloop.TransferSending, file, toxloop.FileControlFinished, nil))
	finished := waitEvent[toxloop.FileControlReceived](t, bob.events)
	assert.Equal(t, toxloop.FileControlFinished, finished.Control)
	assert.Equal(t, toxloop.TransferReceiving, finished.Direction)

	_, err = alice.tox.FileDataRemaining(aToB, file, toxloop.TransferSending)
	assert.ErrorIs(t, err, toxloop.ErrFileNotFound)
}

func TestSaveAndRestore(t *testing.T) {
	net := fastNetwork(sim.Config{})
	alice := start(t, net, nil)
	bob := start(t, net, nil)
	defer bob.stop(t)

	befriend(t, alice, bob)
	require.NoError(t, alice.tox.SetName("Alice"))
	require.NoError(t, alice.tox.SetNospam(0xCAFE))
	addr, err := alice.tox.Address()
	require.NoError(t, err)
	data, err := alice.tox.Save()
	require.NoError(t, err)
	alice.stop(t)

	opts := toxloop.NewOptions()
	opts.SavedataType = toxloop.SaveDataTypeToxSave
	opts.SavedataData = data
	restored := start(t, net, opts)
	defer restored.stop(t)

	got, err := restored.tox.Address()
	require.NoError(t, err)
	assert.Equal(t, addr, got)
	name, err := restored.tox.Name()
	require.NoError(t, err)
	assert.Equal(t, "Alice", name)
	count, err := restored.tox.CountFriendList()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), count)

	// Bob sees Alice go and come back.
	for waitEvent[toxloop.ConnectionStatusChange](t, bob.events).Status != toxloop.ConnectionOnline {
	}

	err = restored.tox.Load([]byte(`{"secret_key":"zz","name":"x"}`))
	assert.ErrorIs(t, err, toxloop.ErrInvalidSaveData)
	name, err = restored.tox.Name()
	require.NoError(t, err)
	assert.Equal(t, "Alice", name, "failed load changes nothing")
}

func TestAvatarExchange(t *testing.T) {
	net := fastNetwork(sim.Config{})
	alice := start(t, net, nil)
	defer alice.stop(t)
	bob := start(t, net, nil)
	defer bob.stop(t)

	aToB, bToA := befriend(t, alice, bob)

	png := []byte("\x89PNG\r\n\x1a\navatar")
	require.NoError(t, bob.tox.SetAvatar(toxloop.AvatarFormatPNG, png))
	hash := toxloop.HashAvatar(png)
	info := waitEvent[toxloop.AvatarInfo](t, alice.events)
	assert.Equal(t, toxloop.AvatarInfo{Friend: aToB, Format: toxloop.AvatarFormatPNG, Hash: hash}, info)

	self, err := bob.tox.SelfAvatar()
	require.NoError(t, err)
	assert.Equal(t, png, self.Data)
	assert.Equal(t, hash, self.Hash)

	require.NoError(t, alice.tox.RequestAvatarData(aToB))
	data := waitEvent[toxloop.AvatarData](t, alice.events)
	assert.Equal(t, aToB, data.Friend)
	assert.Equal(t, toxloop.AvatarFormatPNG, data.Format)
	assert.Equal(t, png, data.Data)
	assert.Equal(t, hash, toxloop.HashAvatar(data.Data))

	require.NoError(t, alice.tox.RequestAvatarInfo(aToB))
	assert.Equal(t, hash, waitEvent[toxloop.AvatarInfo](t, alice.events).Hash)

	// Alice has no avatar yet.
	require.NoError(t, bob.tox.RequestAvatarInfo(bToA))
	empty := waitEvent[toxloop.AvatarInfo](t, bob.events)
	assert.Equal(t, toxloop.AvatarFormatNone, empty.Format)
	assert.Equal(t, toxloop.AvatarHash{}, empty.Hash)

	require.NoError(t, bob.tox.UnsetAvatar())
	unset := waitEvent[toxloop.AvatarInfo](t, alice.events)
	assert.Equal(t, toxloop.AvatarFormatNone, unset.Format)
	require.NoError(t, bob.tox.SendAvatarInfo(bToA))
	assert.Equal(t, toxloop.AvatarFormatNone, waitEvent[toxloop.AvatarInfo](t, alice.events).Format)

	assert.ErrorIs(t, bob.tox.SetAvatar(toxloop.AvatarFormatPNG, make([]byte, limits.MaxAvatarDataLength+1)), limits.ErrMessageTooLarge)
	assert.ErrorIs(t, bob.tox.SetAvatar(toxloop.AvatarFormatNone, png), toxloop.ErrInvalidAvatar)
	assert.ErrorIs(t, bob.tox.SetAvatar(toxloop.AvatarFormat(9), png), toxloop.ErrInvalidAvatar)
	assert.ErrorIs(t, alice.tox.RequestAvatarData(aToB+7), toxloop.ErrFriendNotFound)
	assert.ErrorIs(t, alice.tox.SendAvatarInfo(aToB+7), toxloop.ErrFriendNotFound)
}
