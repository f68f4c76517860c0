package sim

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"github.com/opd-ai/toxloop"
	"github.com/opd-ai/toxloop/crypto"
)

const (
	// DefaultInterval is the iteration interval a node reports once its
	// configured schedule is used up.
	DefaultInterval = 50 * time.Millisecond
	// DefaultAVInterval is the iteration interval of AV facets.
	DefaultAVInterval = 20 * time.Millisecond
)

var (
	// ErrConstructionRefused is returned by the constructor while
	// FailConstruction is in effect.
	ErrConstructionRefused = errors.New("simulated construction failure")

	// ErrInvalidOptions indicates options the simulated node cannot honor.
	ErrInvalidOptions = errors.New("invalid options")

	// ErrAVRefused is returned by NewAV while RefuseAV is in effect.
	ErrAVRefused = errors.New("simulated AV creation failure")

	// ErrAVInUse is returned by NewAV while the previous facet is alive.
	ErrAVInUse = errors.New("AV facet still alive")
)

// Config tunes the simulated network.
type Config struct {
	// Intervals is the iteration interval schedule of every node, one entry
	// per IterationInterval query. DefaultInterval follows.
	Intervals []time.Duration
	// DefaultInterval is reported after the schedule.
	DefaultInterval time.Duration
	// AVInterval is reported by every AV facet.
	AVInterval time.Duration
	// OperationDelay is how long every handle operation takes.
	OperationDelay time.Duration
}

// Network is a set of simulated nodes. One mutex guards the state of all of
// them; the probes live outside it so overlapping operations stay visible.
type Network struct {
	cfg Config

	mu         sync.Mutex
	nodes      []*Node
	groups     map[uint32]*group
	nextGroup  uint32
	failures   int
	refuseAV   bool
	violations []string
	killOrder  []string

	created   *atomic.Int64
	destroyed *atomic.Int64
}

// NewNetwork creates an empty network. A nil cfg uses the defaults.
func NewNetwork(cfg *Config) *Network {
	logrus.Warn("SIMULATION FUNCTION - NOT A REAL OPERATION")

	c := Config{}
	if cfg != nil {
		c = *cfg
		c.Intervals = append([]time.Duration(nil), cfg.Intervals...)
	}
	if c.DefaultInterval <= 0 {
		c.DefaultInterval = DefaultInterval
	}
	if c.AVInterval <= 0 {
		c.AVInterval = DefaultAVInterval
	}

	logrus.WithFields(logrus.Fields{
		"function":         "NewNetwork",
		"default_interval": c.DefaultInterval,
		"av_interval":      c.AVInterval,
		"operation_delay":  c.OperationDelay,
	}).Info("Creating simulated Tox network")

	return &Network{
		cfg:       c,
		groups:    make(map[uint32]*group),
		created:   atomic.NewInt64(0),
		destroyed: atomic.NewInt64(0),
	}
}

// Constructor returns a toxloop.Constructor that adds a node to the network.
func (net *Network) Constructor() toxloop.Constructor {
	return func(opts *toxloop.Options) (toxloop.Handle, error) {
		n, err := net.newNode(opts)
		if err != nil {
			return nil, err
		}
		return n, nil
	}
}

// FailConstruction makes the next count constructions fail.
func (net *Network) FailConstruction(count int) {
	net.mu.Lock()
	defer net.mu.Unlock()
	net.failures = count
}

// RefuseAV makes NewAV fail while refuse is set.
func (net *Network) RefuseAV(refuse bool) {
	net.mu.Lock()
	defer net.mu.Unlock()
	net.refuseAV = refuse
}

// Created returns how many nodes were constructed.
func (net *Network) Created() int64 {
	return net.created.Load()
}

// Destroyed returns how many nodes were killed.
func (net *Network) Destroyed() int64 {
	return net.destroyed.Load()
}

// Nodes returns every node ever constructed, in construction order.
func (net *Network) Nodes() []*Node {
	net.mu.Lock()
	defer net.mu.Unlock()
	return append([]*Node(nil), net.nodes...)
}

// Violations lists every misuse the probes saw: overlapping operations,
// operations after Kill, double kills and a core killed before its AV facet.
func (net *Network) Violations() []string {
	net.mu.Lock()
	defer net.mu.Unlock()
	return append([]string(nil), net.violations...)
}

// KillOrder lists the killed facets in order, as "core:<node>" and
// "av:<node>".
func (net *Network) KillOrder() []string {
	net.mu.Lock()
	defer net.mu.Unlock()
	return append([]string(nil), net.killOrder...)
}

func (net *Network) violate(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	logrus.WithFields(logrus.Fields{
		"function":  "Network.violate",
		"violation": msg,
	}).Error("Handle misuse detected")

	net.mu.Lock()
	net.violations = append(net.violations, msg)
	net.mu.Unlock()
}

// violateLocked records a violation while net.mu is held.
func (net *Network) violateLocked(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	logrus.WithFields(logrus.Fields{
		"function":  "Network.violate",
		"violation": msg,
	}).Error("Handle misuse detected")
	net.violations = append(net.violations, msg)
}

// nodeByKey finds the live node owning pk. Caller holds net.mu.
func (net *Network) nodeByKey(pk crypto.PublicKey) *Node {
	for _, n := range net.nodes {
		if !n.killed && n.keys.Public == pk {
			return n
		}
	}
	return nil
}

// relink recomputes every friend connection. Two nodes are connected when
// both are alive and have each other as friends. Caller holds net.mu.
func (net *Network) relink() {
	now := time.Now()
	for _, n := range net.nodes {
		if n.killed {
			continue
		}
		for num, f := range n.friends {
			peer := net.nodeByKey(f.publicKey)
			online := peer != nil && peer.hasFriend(n.keys.Public)

			was := f.connection == toxloop.ConnectionOnline
			if online == was {
				continue
			}
			if online {
				f.connection = toxloop.ConnectionOnline
				f.name = peer.name
				f.statusMessage = peer.statusMessage
				f.status = peer.status
			} else {
				f.connection = toxloop.ConnectionOffline
				f.typing = false
				f.lastOnline = now
				n.dropTransfers(num)
			}
			n.postConnection(num, f.connection)
		}
	}
}
