package sim

import (
	"bytes"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/toxloop"
	"github.com/opd-ai/toxloop/limits"
)

func validateAvatar(format toxloop.AvatarFormat, data []byte) error {
	switch format {
	case toxloop.AvatarFormatNone:
		if len(data) != 0 {
			return fmt.Errorf("%w: %d bytes of data without a format", toxloop.ErrInvalidAvatar, len(data))
		}
		return nil
	case toxloop.AvatarFormatPNG:
		return limits.ValidateAvatar(data)
	default:
		return fmt.Errorf("%w: format %s", toxloop.ErrInvalidAvatar, format)
	}
}

func (n *Node) SetAvatar(format toxloop.AvatarFormat, data []byte) error {
	defer n.core.enter("SetAvatar")()
	if err := validateAvatar(format, data); err != nil {
		return err
	}

	n.net.mu.Lock()
	defer n.net.mu.Unlock()

	n.setAvatar(format, data)
	return nil
}

func (n *Node) UnsetAvatar() {
	defer n.core.enter("UnsetAvatar")()
	n.net.mu.Lock()
	defer n.net.mu.Unlock()

	n.setAvatar(toxloop.AvatarFormatNone, nil)
}

// setAvatar stores the avatar and announces it to online friends. Caller
// holds net.mu.
func (n *Node) setAvatar(format toxloop.AvatarFormat, data []byte) {
	n.avatar = toxloop.Avatar{Format: format}
	if format != toxloop.AvatarFormatNone {
		n.avatar.Data = bytes.Clone(data)
		n.avatar.Hash = toxloop.HashAvatar(data)
	}

	logrus.WithFields(logrus.Fields{
		"function": "SetAvatar",
		"node":     n.index,
		"format":   format.String(),
		"size":     len(data),
	}).Debug("Avatar changed")

	n.eachOnlineFriend(func(p *Node, back uint32) {
		p.postAvatarInfo(back, n.avatar)
	})
}

func (n *Node) SelfAvatar() (toxloop.Avatar, error) {
	defer n.core.enter("SelfAvatar")()
	n.net.mu.Lock()
	defer n.net.mu.Unlock()

	a := n.avatar
	a.Data = bytes.Clone(a.Data)
	return a, nil
}

func (n *Node) RequestAvatarInfo(friendID uint32) error {
	defer n.core.enter("RequestAvatarInfo")()
	return n.requestAvatar(friendID, false)
}

func (n *Node) RequestAvatarData(friendID uint32) error {
	defer n.core.enter("RequestAvatarData")()
	return n.requestAvatar(friendID, true)
}

// requestAvatar asks the peer for its avatar. The peer answers when it takes
// the request, with whatever avatar it has at that point.
func (n *Node) requestAvatar(friendID uint32, withData bool) error {
	n.net.mu.Lock()
	defer n.net.mu.Unlock()

	if _, err := n.lookup(friendID); err != nil {
		return err
	}
	p, _, ok := n.peer(friendID)
	if !ok {
		return toxloop.ErrFriendNotConnected
	}

	p.postNotice(notice{
		fire: func(*callbacks) {},
		delivered: func() {
			if withData {
				n.postAvatarData(friendID, p.avatar)
				return
			}
			n.postAvatarInfo(friendID, p.avatar)
		},
	})
	return nil
}

func (n *Node) SendAvatarInfo(friendID uint32) error {
	defer n.core.enter("SendAvatarInfo")()
	n.net.mu.Lock()
	defer n.net.mu.Unlock()

	if _, err := n.lookup(friendID); err != nil {
		return err
	}
	p, back, ok := n.peer(friendID)
	if !ok {
		return toxloop.ErrFriendNotConnected
	}
	p.postAvatarInfo(back, n.avatar)
	return nil
}

// Caller holds net.mu.
func (n *Node) postAvatarInfo(friendID uint32, a toxloop.Avatar) {
	n.post(func(cb *callbacks) {
		if cb.avatarInfo != nil {
			cb.avatarInfo(friendID, a.Format, a.Hash)
		}
	})
}

// Caller holds net.mu.
func (n *Node) postAvatarData(friendID uint32, a toxloop.Avatar) {
	data := bytes.Clone(a.Data)
	n.post(func(cb *callbacks) {
		if cb.avatarData != nil {
			cb.avatarData(friendID, a.Format, a.Hash, data)
		}
	})
}
