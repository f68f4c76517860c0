package sim

import (
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
	"go.uber.org/multierr"

	"github.com/opd-ai/toxloop"
	"github.com/opd-ai/toxloop/av"
	"github.com/opd-ai/toxloop/crypto"
)

// notice is a pending callback. delivered runs under the network mutex when
// the owning node takes the notice; fire runs afterwards without it.
type notice struct {
	fire      func(cb *callbacks)
	delivered func()
}

type callbacks struct {
	friendRequest       toxloop.FriendRequestCallback
	friendMessage       toxloop.FriendMessageCallback
	friendAction        toxloop.FriendMessageCallback
	nameChange          toxloop.FriendNameCallback
	statusMessageChange toxloop.FriendStatusMessageCallback
	userStatusChange    toxloop.FriendUserStatusCallback
	typingChange        toxloop.FriendTypingCallback
	readReceipt         toxloop.ReadReceiptCallback
	connectionStatus    toxloop.ConnectionStatusCallback
	groupInvite         toxloop.GroupInviteCallback
	groupMessage        toxloop.GroupMessageCallback
	groupAction         toxloop.GroupMessageCallback
	groupNamelist       toxloop.GroupNamelistCallback
	fileSendRequest     toxloop.FileSendRequestCallback
	fileControl         toxloop.FileControlCallback
	fileData            toxloop.FileDataCallback
	avatarInfo          toxloop.AvatarInfoCallback
	avatarData          toxloop.AvatarDataCallback
}

// Node is one simulated Tox handle. Its handle methods belong to the actor
// that owns it; the exported helpers that are not part of toxloop.Handle
// may be called from tests at any time.
type Node struct {
	net   *Network
	index int
	core  *probe

	// cb is written before the actor starts and read only by Iterate.
	cb callbacks

	iterations *atomic.Int64

	// Guarded by net.mu.
	keys          *crypto.KeyPair
	nospam        uint32
	name          string
	statusMessage string
	status        toxloop.UserStatus
	dht           bool
	friends       map[uint32]*friend
	nextFriend    uint32
	groups        map[uint32]*group
	nextGroup     uint32
	transfers     map[transferKey]*transfer
	nextFile      map[uint32]uint8
	inbox         []notice
	killed        bool
	cursor        int
	av            *AVFacet
	avatar        toxloop.Avatar
}

func (net *Network) newNode(opts *toxloop.Options) (*Node, error) {
	logrus.Warn("SIMULATION FUNCTION - NOT A REAL OPERATION")
	if opts == nil {
		opts = toxloop.NewOptions()
	}

	net.mu.Lock()
	defer net.mu.Unlock()

	if net.failures > 0 {
		net.failures--
		logrus.WithFields(logrus.Fields{
			"function":           "Network.newNode",
			"remaining_failures": net.failures,
		}).Warn("Refusing construction")
		return nil, ErrConstructionRefused
	}
	if err := validateOptions(opts); err != nil {
		return nil, err
	}

	n := &Node{
		net:        net,
		index:      len(net.nodes),
		iterations: atomic.NewInt64(0),
		friends:    make(map[uint32]*friend),
		groups:     make(map[uint32]*group),
		transfers:  make(map[transferKey]*transfer),
		nextFile:   make(map[uint32]uint8),
		nospam:     rand.Uint32(),
	}
	n.core = newProbe(net, fmt.Sprintf("core:%d", n.index))

	switch opts.SavedataType {
	case toxloop.SaveDataTypeSecretKey:
		if len(opts.SavedataData) != 32 {
			return nil, fmt.Errorf("%w: secret key of %d bytes", ErrInvalidOptions, len(opts.SavedataData))
		}
		var sk [32]byte
		copy(sk[:], opts.SavedataData)
		keys, err := crypto.FromSecretKey(sk)
		if err != nil {
			return nil, err
		}
		n.keys = keys
	case toxloop.SaveDataTypeToxSave:
		if err := n.restore(opts.SavedataData); err != nil {
			return nil, err
		}
	default:
		keys, err := crypto.GenerateKeyPair()
		if err != nil {
			return nil, err
		}
		n.keys = keys
	}

	net.nodes = append(net.nodes, n)
	net.created.Inc()
	net.relink()

	logrus.WithFields(logrus.Fields{
		"function":   "Network.newNode",
		"node":       n.index,
		"public_key": n.keys.Public.String()[:16],
	}).Info("Simulated node created")

	return n, nil
}

func validateOptions(opts *toxloop.Options) error {
	var err error
	if opts.Proxy != nil && opts.Proxy.Type != toxloop.ProxyTypeNone {
		if opts.Proxy.Host == "" {
			err = multierr.Append(err, fmt.Errorf("%w: proxy without host", ErrInvalidOptions))
		}
		if opts.Proxy.Port == 0 {
			err = multierr.Append(err, fmt.Errorf("%w: proxy without port", ErrInvalidOptions))
		}
	}
	if opts.StartPort > opts.EndPort {
		err = multierr.Append(err, fmt.Errorf("%w: port range %d-%d", ErrInvalidOptions, opts.StartPort, opts.EndPort))
	}
	return err
}

// post queues a notice for the next Iterate. Caller holds net.mu.
func (n *Node) post(fire func(cb *callbacks)) {
	n.postNotice(notice{fire: fire})
}

func (n *Node) postNotice(nt notice) {
	if n.killed {
		return
	}
	n.inbox = append(n.inbox, nt)
}

func (n *Node) postConnection(num uint32, status toxloop.ConnectionStatus) {
	n.post(func(cb *callbacks) {
		if cb.connectionStatus != nil {
			cb.connectionStatus(num, status)
		}
	})
}

// Iterate fires the callbacks of everything that reached the node since the
// last call.
func (n *Node) Iterate() {
	defer n.core.enter("Iterate")()
	n.iterations.Inc()

	n.net.mu.Lock()
	pending := n.inbox
	n.inbox = nil
	for _, nt := range pending {
		if nt.delivered != nil {
			nt.delivered()
		}
	}
	n.net.mu.Unlock()

	for _, nt := range pending {
		nt.fire(&n.cb)
	}
}

// IterationInterval walks the configured schedule, then reports the default.
func (n *Node) IterationInterval() time.Duration {
	defer n.core.enter("IterationInterval")()

	n.net.mu.Lock()
	defer n.net.mu.Unlock()

	if n.cursor < len(n.net.cfg.Intervals) {
		d := n.net.cfg.Intervals[n.cursor]
		n.cursor++
		return d
	}
	return n.net.cfg.DefaultInterval
}

// Kill takes the node off the network. Its friends see it go offline.
func (n *Node) Kill() {
	defer n.core.enter("Kill")()

	net := n.net
	net.mu.Lock()
	defer net.mu.Unlock()

	if n.killed {
		net.violateLocked("core:%d: killed twice", n.index)
		return
	}
	if n.av != nil && !n.av.killed {
		net.violateLocked("core:%d: killed while its AV facet is alive", n.index)
	}

	for id := range n.groups {
		n.leaveGroup(id)
	}
	n.killed = true
	n.core.killed.Store(true)
	n.inbox = nil
	n.keys.Wipe()
	net.killOrder = append(net.killOrder, n.core.name)
	net.destroyed.Inc()
	net.relink()

	logrus.WithFields(logrus.Fields{
		"function": "Node.Kill",
		"node":     n.index,
	}).Info("Simulated node killed")
}

// NewAV creates the AV facet. Only one facet may be alive at a time.
func (n *Node) NewAV(maxCalls int) (av.Handle, error) {
	defer n.core.enter("NewAV")()

	net := n.net
	net.mu.Lock()
	defer net.mu.Unlock()

	switch {
	case net.refuseAV:
		return nil, ErrAVRefused
	case n.av != nil && !n.av.killed:
		return nil, ErrAVInUse
	case maxCalls <= 0:
		return nil, fmt.Errorf("%w: max calls %d", ErrInvalidOptions, maxCalls)
	}

	n.av = newAVFacet(n, maxCalls)
	logrus.WithFields(logrus.Fields{
		"function":  "Node.NewAV",
		"node":      n.index,
		"max_calls": maxCalls,
	}).Info("Simulated AV facet created")
	return n.av, nil
}

func (n *Node) OnFriendRequest(cb toxloop.FriendRequestCallback)             { n.cb.friendRequest = cb }
func (n *Node) OnFriendMessage(cb toxloop.FriendMessageCallback)             { n.cb.friendMessage = cb }
func (n *Node) OnFriendAction(cb toxloop.FriendMessageCallback)              { n.cb.friendAction = cb }
func (n *Node) OnNameChange(cb toxloop.FriendNameCallback)                   { n.cb.nameChange = cb }
func (n *Node) OnStatusMessageChange(cb toxloop.FriendStatusMessageCallback) { n.cb.statusMessageChange = cb }
func (n *Node) OnUserStatusChange(cb toxloop.FriendUserStatusCallback)       { n.cb.userStatusChange = cb }
func (n *Node) OnTypingChange(cb toxloop.FriendTypingCallback)               { n.cb.typingChange = cb }
func (n *Node) OnReadReceipt(cb toxloop.ReadReceiptCallback)                 { n.cb.readReceipt = cb }
func (n *Node) OnConnectionStatusChange(cb toxloop.ConnectionStatusCallback) { n.cb.connectionStatus = cb }
func (n *Node) OnGroupInvite(cb toxloop.GroupInviteCallback)                 { n.cb.groupInvite = cb }
func (n *Node) OnGroupMessage(cb toxloop.GroupMessageCallback)               { n.cb.groupMessage = cb }
func (n *Node) OnGroupAction(cb toxloop.GroupMessageCallback)                { n.cb.groupAction = cb }
func (n *Node) OnGroupNamelistChange(cb toxloop.GroupNamelistCallback)       { n.cb.groupNamelist = cb }
func (n *Node) OnFileSendRequest(cb toxloop.FileSendRequestCallback)         { n.cb.fileSendRequest = cb }
func (n *Node) OnFileControl(cb toxloop.FileControlCallback)                 { n.cb.fileControl = cb }
func (n *Node) OnFileData(cb toxloop.FileDataCallback)                       { n.cb.fileData = cb }
func (n *Node) OnAvatarInfo(cb toxloop.AvatarInfoCallback)                   { n.cb.avatarInfo = cb }
func (n *Node) OnAvatarData(cb toxloop.AvatarDataCallback)                   { n.cb.avatarData = cb }

// PublicKey returns the node's key without going through its actor.
func (n *Node) PublicKey() crypto.PublicKey {
	n.net.mu.Lock()
	defer n.net.mu.Unlock()
	return n.keys.Public
}

// ToxID returns the node's current address without going through its actor.
func (n *Node) ToxID() crypto.ToxID {
	n.net.mu.Lock()
	defer n.net.mu.Unlock()
	return *crypto.NewToxID(n.keys.Public, crypto.NospamFromUint32(n.nospam))
}

// Killed reports whether Kill was called.
func (n *Node) Killed() bool {
	return n.core.killed.Load()
}

// Iterations returns how often Iterate ran.
func (n *Node) Iterations() int64 {
	return n.iterations.Load()
}

// Operations returns how many handle operations were started.
func (n *Node) Operations() int64 {
	return n.core.calls.Load()
}

// Overlaps returns how many operations started while another was running.
func (n *Node) Overlaps() int64 {
	return n.core.overlaps.Load()
}

// AV returns the most recent AV facet, or nil.
func (n *Node) AV() *AVFacet {
	n.net.mu.Lock()
	defer n.net.mu.Unlock()
	return n.av
}

// InjectFriendRequest makes the next Iterate report a friend request.
func (n *Node) InjectFriendRequest(publicKey crypto.PublicKey, message string) {
	logrus.Warn("SIMULATION FUNCTION - NOT A REAL OPERATION")
	n.net.mu.Lock()
	defer n.net.mu.Unlock()
	n.post(func(cb *callbacks) {
		if cb.friendRequest != nil {
			cb.friendRequest(publicKey, message)
		}
	})
}

// InjectFriendMessage makes the next Iterate report a message from friendID.
func (n *Node) InjectFriendMessage(friendID uint32, message string) {
	logrus.Warn("SIMULATION FUNCTION - NOT A REAL OPERATION")
	n.net.mu.Lock()
	defer n.net.mu.Unlock()
	n.post(func(cb *callbacks) {
		if cb.friendMessage != nil {
			cb.friendMessage(friendID, message)
		}
	})
}

// InjectGroupInvite makes the next Iterate report a group invite.
func (n *Node) InjectGroupInvite(friendID uint32, kind toxloop.GroupchatType, data []byte) {
	logrus.Warn("SIMULATION FUNCTION - NOT A REAL OPERATION")
	n.net.mu.Lock()
	defer n.net.mu.Unlock()
	n.post(func(cb *callbacks) {
		if cb.groupInvite != nil {
			cb.groupInvite(friendID, kind, data)
		}
	})
}

// friendNumber finds the friend number of pk. Caller holds net.mu.
func (n *Node) friendNumber(pk crypto.PublicKey) (uint32, bool) {
	for num, f := range n.friends {
		if f.publicKey == pk {
			return num, true
		}
	}
	return 0, false
}

func (n *Node) hasFriend(pk crypto.PublicKey) bool {
	_, ok := n.friendNumber(pk)
	return ok
}

// peer returns the live node behind friend number num and our friend number
// on that node. Caller holds net.mu.
func (n *Node) peer(num uint32) (*Node, uint32, bool) {
	f, ok := n.friends[num]
	if !ok || f.connection != toxloop.ConnectionOnline {
		return nil, 0, false
	}
	p := n.net.nodeByKey(f.publicKey)
	if p == nil {
		return nil, 0, false
	}
	back, ok := p.friendNumber(n.keys.Public)
	if !ok {
		return nil, 0, false
	}
	return p, back, true
}

// eachOnlineFriend calls fn for every connected friend with our friend
// number on its side. Caller holds net.mu.
func (n *Node) eachOnlineFriend(fn func(p *Node, back uint32)) {
	for num := range n.friends {
		if p, back, ok := n.peer(num); ok {
			fn(p, back)
		}
	}
}

func encodeInvite(id uint32, kind toxloop.GroupchatType) []byte {
	data := make([]byte, 5)
	binary.BigEndian.PutUint32(data, id)
	data[4] = byte(kind)
	return data
}
