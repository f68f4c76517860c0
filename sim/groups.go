package sim

import (
	"encoding/binary"
	"maps"
	"slices"

	"github.com/opd-ai/toxloop"
	"github.com/opd-ai/toxloop/limits"
)

// group is one conference shared by its members. Peer numbers are positions
// in members.
type group struct {
	id      uint32
	kind    toxloop.GroupchatType
	members []*member
}

type member struct {
	node  *Node
	local uint32
}

func (g *group) indexOf(n *Node) int {
	for i, m := range g.members {
		if m.node == n {
			return i
		}
	}
	return -1
}

func (g *group) each(fn func(m *member)) {
	for _, m := range g.members {
		fn(m)
	}
}

func sortedKeys[V any](m map[uint32]V) []uint32 {
	return slices.Sorted(maps.Keys(m))
}

// createGroup starts a group with n as its only member. Caller holds net.mu.
func (n *Node) createGroup(kind toxloop.GroupchatType) uint32 {
	net := n.net
	g := &group{id: net.nextGroup, kind: kind}
	net.nextGroup++
	net.groups[g.id] = g

	local := n.nextGroup
	n.nextGroup++
	n.groups[local] = g
	g.members = append(g.members, &member{node: n, local: local})
	return local
}

// joinGroup adds n to the group named by invite data. Caller holds net.mu.
func (n *Node) joinGroup(friendID uint32, data []byte, kind toxloop.GroupchatType) (uint32, error) {
	if _, ok := n.friends[friendID]; !ok {
		return 0, toxloop.ErrFriendNotFound
	}
	if len(data) != 5 || toxloop.GroupchatType(data[4]) != kind {
		return 0, toxloop.ErrInvalidInvite
	}
	g, ok := n.net.groups[binary.BigEndian.Uint32(data)]
	if !ok || g.kind != kind || g.indexOf(n) >= 0 {
		return 0, toxloop.ErrInvalidInvite
	}

	local := n.nextGroup
	n.nextGroup++
	n.groups[local] = g
	g.members = append(g.members, &member{node: n, local: local})
	joined := uint32(len(g.members) - 1)

	for i, m := range g.members {
		if m.node == n {
			continue
		}
		m.node.post(func(cb *callbacks) {
			if cb.groupNamelist != nil {
				cb.groupNamelist(m.local, joined, toxloop.ChatChangePeerAdd)
			}
		})
		peer := uint32(i)
		n.post(func(cb *callbacks) {
			if cb.groupNamelist != nil {
				cb.groupNamelist(local, peer, toxloop.ChatChangePeerAdd)
			}
		})
	}
	return local, nil
}

// leaveGroup removes n from its group local. Caller holds net.mu.
func (n *Node) leaveGroup(local uint32) bool {
	g, ok := n.groups[local]
	if !ok {
		return false
	}
	delete(n.groups, local)

	idx := g.indexOf(n)
	g.members = slices.Delete(g.members, idx, idx+1)
	if len(g.members) == 0 {
		delete(n.net.groups, g.id)
		return true
	}
	g.each(func(m *member) {
		m.node.post(func(cb *callbacks) {
			if cb.groupNamelist != nil {
				cb.groupNamelist(m.local, uint32(idx), toxloop.ChatChangePeerDel)
			}
		})
	})
	return true
}

func (n *Node) AddGroupchat() (uint32, error) {
	defer n.core.enter("AddGroupchat")()
	n.net.mu.Lock()
	defer n.net.mu.Unlock()
	return n.createGroup(toxloop.GroupchatText), nil
}

func (n *Node) DeleteGroupchat(groupID uint32) error {
	defer n.core.enter("DeleteGroupchat")()
	n.net.mu.Lock()
	defer n.net.mu.Unlock()

	if !n.leaveGroup(groupID) {
		return toxloop.ErrGroupNotFound
	}
	return nil
}

func (n *Node) GroupPeerName(groupID, peerID uint32) (string, error) {
	defer n.core.enter("GroupPeerName")()
	n.net.mu.Lock()
	defer n.net.mu.Unlock()

	g, ok := n.groups[groupID]
	if !ok {
		return "", toxloop.ErrGroupNotFound
	}
	if int(peerID) >= len(g.members) {
		return "", toxloop.ErrPeerNotFound
	}
	return g.members[peerID].node.name, nil
}

func (n *Node) InviteFriend(friendID, groupID uint32) error {
	defer n.core.enter("InviteFriend")()
	n.net.mu.Lock()
	defer n.net.mu.Unlock()

	if _, err := n.lookup(friendID); err != nil {
		return err
	}
	g, ok := n.groups[groupID]
	if !ok {
		return toxloop.ErrGroupNotFound
	}
	p, back, ok := n.peer(friendID)
	if !ok {
		return toxloop.ErrFriendNotConnected
	}

	kind := g.kind
	data := encodeInvite(g.id, kind)
	p.post(func(cb *callbacks) {
		if cb.groupInvite != nil {
			cb.groupInvite(back, kind, data)
		}
	})
	return nil
}

// JoinGroupchat joins text groups only; AV groups are joined through the AV
// facet.
func (n *Node) JoinGroupchat(friendID uint32, data []byte) (uint32, error) {
	defer n.core.enter("JoinGroupchat")()
	n.net.mu.Lock()
	defer n.net.mu.Unlock()
	return n.joinGroup(friendID, data, toxloop.GroupchatText)
}

func (n *Node) GroupMessageSend(groupID uint32, message string) error {
	defer n.core.enter("GroupMessageSend")()
	return n.groupSend(groupID, message, false)
}

func (n *Node) GroupActionSend(groupID uint32, action string) error {
	defer n.core.enter("GroupActionSend")()
	return n.groupSend(groupID, action, true)
}

// groupSend delivers text to every member, the sender included.
func (n *Node) groupSend(groupID uint32, text string, action bool) error {
	if err := limits.ValidateMessage(text); err != nil {
		return err
	}

	n.net.mu.Lock()
	defer n.net.mu.Unlock()

	g, ok := n.groups[groupID]
	if !ok {
		return toxloop.ErrGroupNotFound
	}
	from := uint32(g.indexOf(n))
	g.each(func(m *member) {
		m.node.post(func(cb *callbacks) {
			switch {
			case action && cb.groupAction != nil:
				cb.groupAction(m.local, from, text)
			case !action && cb.groupMessage != nil:
				cb.groupMessage(m.local, from, text)
			}
		})
	})
	return nil
}

func (n *Node) GroupPeerCount(groupID uint32) (int, error) {
	defer n.core.enter("GroupPeerCount")()
	n.net.mu.Lock()
	defer n.net.mu.Unlock()

	g, ok := n.groups[groupID]
	if !ok {
		return 0, toxloop.ErrGroupNotFound
	}
	return len(g.members), nil
}

func (n *Node) GroupNames(groupID uint32) ([]string, error) {
	defer n.core.enter("GroupNames")()
	n.net.mu.Lock()
	defer n.net.mu.Unlock()

	g, ok := n.groups[groupID]
	if !ok {
		return nil, toxloop.ErrGroupNotFound
	}
	names := make([]string, len(g.members))
	for i, m := range g.members {
		names[i] = m.node.name
	}
	return names, nil
}

func (n *Node) ChatList() []uint32 {
	defer n.core.enter("ChatList")()
	n.net.mu.Lock()
	defer n.net.mu.Unlock()
	return sortedKeys(n.groups)
}

func (n *Node) CountChatList() uint32 {
	defer n.core.enter("CountChatList")()
	n.net.mu.Lock()
	defer n.net.mu.Unlock()
	return uint32(len(n.groups))
}
