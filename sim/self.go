package sim

import (
	"fmt"

	"github.com/opd-ai/toxloop"
	"github.com/opd-ai/toxloop/crypto"
	"github.com/opd-ai/toxloop/limits"
)

func (n *Node) Address() crypto.ToxID {
	defer n.core.enter("Address")()
	return n.ToxID()
}

func (n *Node) SetName(name string) error {
	defer n.core.enter("SetName")()
	if err := limits.ValidateName(name); err != nil {
		return err
	}

	n.net.mu.Lock()
	defer n.net.mu.Unlock()

	n.name = name
	n.eachOnlineFriend(func(p *Node, back uint32) {
		p.friends[back].name = name
		p.post(func(cb *callbacks) {
			if cb.nameChange != nil {
				cb.nameChange(back, name)
			}
		})
	})
	for _, g := range n.groups {
		idx := g.indexOf(n)
		g.each(func(m *member) {
			m.node.post(func(cb *callbacks) {
				if cb.groupNamelist != nil {
					cb.groupNamelist(m.local, uint32(idx), toxloop.ChatChangePeerName)
				}
			})
		})
	}
	return nil
}

func (n *Node) Name() string {
	defer n.core.enter("Name")()
	n.net.mu.Lock()
	defer n.net.mu.Unlock()
	return n.name
}

func (n *Node) SetStatusMessage(message string) error {
	defer n.core.enter("SetStatusMessage")()
	if err := limits.ValidateStatusMessage(message); err != nil {
		return err
	}

	n.net.mu.Lock()
	defer n.net.mu.Unlock()

	n.statusMessage = message
	n.eachOnlineFriend(func(p *Node, back uint32) {
		p.friends[back].statusMessage = message
		p.post(func(cb *callbacks) {
			if cb.statusMessageChange != nil {
				cb.statusMessageChange(back, message)
			}
		})
	})
	return nil
}

func (n *Node) StatusMessage() string {
	defer n.core.enter("StatusMessage")()
	n.net.mu.Lock()
	defer n.net.mu.Unlock()
	return n.statusMessage
}

func (n *Node) SetUserStatus(status toxloop.UserStatus) error {
	defer n.core.enter("SetUserStatus")()
	if status > toxloop.UserStatusBusy {
		return fmt.Errorf("invalid user status %d", status)
	}

	n.net.mu.Lock()
	defer n.net.mu.Unlock()

	n.status = status
	n.eachOnlineFriend(func(p *Node, back uint32) {
		p.friends[back].status = status
		p.post(func(cb *callbacks) {
			if cb.userStatusChange != nil {
				cb.userStatusChange(back, status)
			}
		})
	})
	return nil
}

func (n *Node) UserStatus() toxloop.UserStatus {
	defer n.core.enter("UserStatus")()
	n.net.mu.Lock()
	defer n.net.mu.Unlock()
	return n.status
}

func (n *Node) Nospam() uint32 {
	defer n.core.enter("Nospam")()
	n.net.mu.Lock()
	defer n.net.mu.Unlock()
	return n.nospam
}

func (n *Node) SetNospam(nospam uint32) {
	defer n.core.enter("SetNospam")()
	n.net.mu.Lock()
	defer n.net.mu.Unlock()
	n.nospam = nospam
}

func (n *Node) IsConnected() bool {
	defer n.core.enter("IsConnected")()
	n.net.mu.Lock()
	defer n.net.mu.Unlock()
	return n.dht
}

// Bootstrap accepts any well-formed node. The simulated DHT is always
// reachable.
func (n *Node) Bootstrap(address string, port uint16, publicKey crypto.PublicKey) error {
	defer n.core.enter("Bootstrap")()

	switch {
	case address == "":
		return fmt.Errorf("%w: empty address", toxloop.ErrBootstrapFailed)
	case port == 0:
		return fmt.Errorf("%w: port 0", toxloop.ErrBootstrapFailed)
	case publicKey.IsZero():
		return fmt.Errorf("%w: zero public key", toxloop.ErrBootstrapFailed)
	}

	n.net.mu.Lock()
	defer n.net.mu.Unlock()
	n.dht = true
	return nil
}
