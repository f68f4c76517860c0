package sim

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/toxloop"
	"github.com/opd-ai/toxloop/crypto"
	"github.com/opd-ai/toxloop/limits"
)

type friend struct {
	publicKey     crypto.PublicKey
	name          string
	statusMessage string
	status        toxloop.UserStatus
	connection    toxloop.ConnectionStatus
	typing        bool
	lastOnline    time.Time
	// sendsReceipts is our choice to confirm their messages.
	sendsReceipts bool
	nextReceipt   uint32
}

// addFriend appends a friend entry. Caller holds net.mu.
func (n *Node) addFriend(pk crypto.PublicKey) uint32 {
	num := n.nextFriend
	n.nextFriend++
	n.friends[num] = &friend{publicKey: pk, sendsReceipts: true}
	return num
}

func (n *Node) AddFriend(address crypto.ToxID, message string) (uint32, error) {
	defer n.core.enter("AddFriend")()

	switch {
	case len(message) > limits.MaxFriendRequestLength:
		return 0, toxloop.FriendAddTooLong
	case message == "":
		return 0, toxloop.FriendAddNoMessage
	}

	n.net.mu.Lock()
	defer n.net.mu.Unlock()

	switch {
	case address.PublicKey == n.keys.Public:
		return 0, toxloop.FriendAddOwnKey
	case crypto.NewToxID(address.PublicKey, address.Nospam).Checksum != address.Checksum:
		return 0, toxloop.FriendAddBadChecksum
	case n.hasFriend(address.PublicKey):
		return 0, toxloop.FriendAddAlreadySent
	}

	num := n.addFriend(address.PublicKey)

	// A wrong nospam drops the request silently, like the real network.
	target := n.net.nodeByKey(address.PublicKey)
	if target != nil && target.nospam == address.NospamValue() && !target.hasFriend(n.keys.Public) {
		from := n.keys.Public
		target.post(func(cb *callbacks) {
			if cb.friendRequest != nil {
				cb.friendRequest(from, message)
			}
		})
	}
	n.net.relink()
	return num, nil
}

func (n *Node) AddFriendNoRequest(publicKey crypto.PublicKey) (uint32, error) {
	defer n.core.enter("AddFriendNoRequest")()

	n.net.mu.Lock()
	defer n.net.mu.Unlock()

	switch {
	case publicKey.IsZero():
		return 0, crypto.ErrInvalidPublicKey
	case publicKey == n.keys.Public:
		return 0, toxloop.FriendAddOwnKey
	case n.hasFriend(publicKey):
		return 0, toxloop.ErrFriendExists
	}

	num := n.addFriend(publicKey)
	n.net.relink()
	return num, nil
}

func (n *Node) FriendByPublicKey(publicKey crypto.PublicKey) (uint32, error) {
	defer n.core.enter("FriendByPublicKey")()
	n.net.mu.Lock()
	defer n.net.mu.Unlock()

	num, ok := n.friendNumber(publicKey)
	if !ok {
		return 0, toxloop.ErrFriendNotFound
	}
	return num, nil
}

func (n *Node) FriendPublicKey(friendID uint32) (crypto.PublicKey, error) {
	defer n.core.enter("FriendPublicKey")()
	n.net.mu.Lock()
	defer n.net.mu.Unlock()

	f, ok := n.friends[friendID]
	if !ok {
		return crypto.PublicKey{}, toxloop.ErrFriendNotFound
	}
	return f.publicKey, nil
}

func (n *Node) DeleteFriend(friendID uint32) error {
	defer n.core.enter("DeleteFriend")()
	n.net.mu.Lock()
	defer n.net.mu.Unlock()

	if _, ok := n.friends[friendID]; !ok {
		return toxloop.ErrFriendNotFound
	}
	n.dropTransfers(friendID)
	delete(n.friends, friendID)
	n.net.relink()
	return nil
}

// lookup returns a friend entry. Caller holds net.mu.
func (n *Node) lookup(friendID uint32) (*friend, error) {
	f, ok := n.friends[friendID]
	if !ok {
		return nil, toxloop.ErrFriendNotFound
	}
	return f, nil
}

func (n *Node) FriendConnectionStatus(friendID uint32) (toxloop.ConnectionStatus, error) {
	defer n.core.enter("FriendConnectionStatus")()
	n.net.mu.Lock()
	defer n.net.mu.Unlock()

	f, err := n.lookup(friendID)
	if err != nil {
		return toxloop.ConnectionOffline, err
	}
	return f.connection, nil
}

func (n *Node) FriendExists(friendID uint32) bool {
	defer n.core.enter("FriendExists")()
	n.net.mu.Lock()
	defer n.net.mu.Unlock()
	_, ok := n.friends[friendID]
	return ok
}

func (n *Node) FriendList() []uint32 {
	defer n.core.enter("FriendList")()
	n.net.mu.Lock()
	defer n.net.mu.Unlock()
	return sortedKeys(n.friends)
}

func (n *Node) CountFriendList() uint32 {
	defer n.core.enter("CountFriendList")()
	n.net.mu.Lock()
	defer n.net.mu.Unlock()
	return uint32(len(n.friends))
}

func (n *Node) OnlineFriendCount() uint32 {
	defer n.core.enter("OnlineFriendCount")()
	n.net.mu.Lock()
	defer n.net.mu.Unlock()

	var count uint32
	for _, f := range n.friends {
		if f.connection == toxloop.ConnectionOnline {
			count++
		}
	}
	return count
}

func (n *Node) FriendName(friendID uint32) (string, error) {
	defer n.core.enter("FriendName")()
	n.net.mu.Lock()
	defer n.net.mu.Unlock()

	f, err := n.lookup(friendID)
	if err != nil {
		return "", err
	}
	return f.name, nil
}

func (n *Node) FriendStatusMessage(friendID uint32) (string, error) {
	defer n.core.enter("FriendStatusMessage")()
	n.net.mu.Lock()
	defer n.net.mu.Unlock()

	f, err := n.lookup(friendID)
	if err != nil {
		return "", err
	}
	return f.statusMessage, nil
}

func (n *Node) FriendUserStatus(friendID uint32) (toxloop.UserStatus, error) {
	defer n.core.enter("FriendUserStatus")()
	n.net.mu.Lock()
	defer n.net.mu.Unlock()

	f, err := n.lookup(friendID)
	if err != nil {
		return toxloop.UserStatusNone, err
	}
	return f.status, nil
}

// FriendLastOnline reports now for connected friends.
func (n *Node) FriendLastOnline(friendID uint32) (time.Time, error) {
	defer n.core.enter("FriendLastOnline")()
	n.net.mu.Lock()
	defer n.net.mu.Unlock()

	f, err := n.lookup(friendID)
	if err != nil {
		return time.Time{}, err
	}
	if f.connection == toxloop.ConnectionOnline {
		return time.Now(), nil
	}
	return f.lastOnline, nil
}

func (n *Node) SetTyping(friendID uint32, isTyping bool) error {
	defer n.core.enter("SetTyping")()
	n.net.mu.Lock()
	defer n.net.mu.Unlock()

	if _, err := n.lookup(friendID); err != nil {
		return err
	}
	p, back, ok := n.peer(friendID)
	if !ok {
		return toxloop.ErrFriendNotConnected
	}
	p.friends[back].typing = isTyping
	p.post(func(cb *callbacks) {
		if cb.typingChange != nil {
			cb.typingChange(back, isTyping)
		}
	})
	return nil
}

func (n *Node) FriendIsTyping(friendID uint32) bool {
	defer n.core.enter("FriendIsTyping")()
	n.net.mu.Lock()
	defer n.net.mu.Unlock()

	f, ok := n.friends[friendID]
	return ok && f.typing
}

func (n *Node) SetSendsReceipts(friendID uint32, enabled bool) {
	defer n.core.enter("SetSendsReceipts")()
	n.net.mu.Lock()
	defer n.net.mu.Unlock()

	if f, ok := n.friends[friendID]; ok {
		f.sendsReceipts = enabled
	}
}

func (n *Node) SendMessage(friendID uint32, message string) (uint32, error) {
	defer n.core.enter("SendMessage")()
	return n.send(friendID, message, false)
}

func (n *Node) SendAction(friendID uint32, action string) (uint32, error) {
	defer n.core.enter("SendAction")()
	return n.send(friendID, action, true)
}

// send delivers a message and arranges the read receipt the peer sends when
// it takes the message.
func (n *Node) send(friendID uint32, text string, action bool) (uint32, error) {
	if err := limits.ValidateMessage(text); err != nil {
		return 0, err
	}

	n.net.mu.Lock()
	defer n.net.mu.Unlock()

	f, err := n.lookup(friendID)
	if err != nil {
		return 0, err
	}
	p, back, ok := n.peer(friendID)
	if !ok {
		return 0, toxloop.ErrFriendNotConnected
	}

	// Messages cross the network sealed for the peer's current keys.
	packet, err := crypto.Seal([]byte(text), p.keys.Public, n.keys)
	if err != nil {
		return 0, err
	}
	sender := n.keys.Public

	f.nextReceipt++
	receipt := f.nextReceipt
	var plain string
	opened := false
	p.postNotice(notice{
		fire: func(cb *callbacks) {
			switch {
			case !opened:
			case action && cb.friendAction != nil:
				cb.friendAction(back, plain)
			case !action && cb.friendMessage != nil:
				cb.friendMessage(back, plain)
			}
		},
		delivered: func() {
			data, err := crypto.Open(packet, sender, p.keys)
			if err != nil {
				logrus.WithFields(logrus.Fields{
					"function": "send",
					"friend":   back,
					"error":    err.Error(),
				}).Warn("Dropping message that does not open with current keys")
				return
			}
			plain, opened = string(data), true

			if pf, ok := p.friends[back]; !ok || !pf.sendsReceipts {
				return
			}
			n.post(func(cb *callbacks) {
				if cb.readReceipt != nil {
					cb.readReceipt(friendID, receipt)
				}
			})
		},
	})
	return receipt, nil
}
