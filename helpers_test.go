package toxloop_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/opd-ai/toxloop"
	"github.com/opd-ai/toxloop/av"
	"github.com/opd-ai/toxloop/sim"
)

const eventWait = 2 * time.Second

func fastNetwork(cfg sim.Config) *sim.Network {
	if cfg.DefaultInterval == 0 {
		cfg.DefaultInterval = time.Millisecond
	}
	if cfg.AVInterval == 0 {
		cfg.AVInterval = time.Millisecond
	}
	return sim.NewNetwork(&cfg)
}

type peer struct {
	tox    *toxloop.Tox
	events *toxloop.Events
	node   *sim.Node
}

func start(t *testing.T, net *sim.Network, opts *toxloop.Options) *peer {
	t.Helper()
	tox, events, err := toxloop.New(net.Constructor(), opts)
	require.NoError(t, err)
	nodes := net.Nodes()
	return &peer{tox: tox, events: events, node: nodes[len(nodes)-1]}
}

// stop closes the peer and waits until its handle was killed.
func (p *peer) stop(t *testing.T) {
	t.Helper()
	p.tox.Close()
	require.Eventually(t, p.node.Killed, eventWait, time.Millisecond)
}

// waitEvent returns the next event of type E, skipping everything else.
func waitEvent[E toxloop.Event](t *testing.T, events *toxloop.Events) E {
	t.Helper()
	deadline := time.Now().Add(eventWait)
	for time.Now().Before(deadline) {
		ev, err := events.Next(10 * time.Millisecond)
		if errors.Is(err, toxloop.ErrNoEvent) {
			continue
		}
		require.NoError(t, err)
		if e, ok := ev.(E); ok {
			return e
		}
	}
	var zero E
	t.Fatalf("no %T within %s", zero, eventWait)
	return zero
}

func waitCallEvent(t *testing.T, events *av.Events, kind av.CallEventKind) av.CallEvent {
	t.Helper()
	deadline := time.Now().Add(eventWait)
	for time.Now().Before(deadline) {
		ev, err := events.Next(10 * time.Millisecond)
		if errors.Is(err, av.ErrNoEvent) {
			continue
		}
		require.NoError(t, err)
		if ce, ok := ev.(av.CallEvent); ok && ce.Kind == kind {
			return ce
		}
	}
	t.Fatalf("no %s call event within %s", kind, eventWait)
	return av.CallEvent{}
}

// befriend connects a and b and returns each side's friend number of the
// other.
func befriend(t *testing.T, a, b *peer) (aToB, bToA uint32) {
	t.Helper()

	addr, err := b.tox.Address()
	require.NoError(t, err)
	aToB, err = a.tox.AddFriend(addr, "hello")
	require.NoError(t, err)

	req := waitEvent[toxloop.FriendRequest](t, b.events)
	require.Equal(t, "hello", req.Message)
	bToA, err = b.tox.AddFriendNoRequest(req.PublicKey)
	require.NoError(t, err)

	require.Equal(t, toxloop.ConnectionOnline, waitEvent[toxloop.ConnectionStatusChange](t, a.events).Status)
	require.Equal(t, toxloop.ConnectionOnline, waitEvent[toxloop.ConnectionStatusChange](t, b.events).Status)
	return aToB, bToA
}

// recordingTime records every sleep the loop asks for and sleeps briefly.
type recordingTime struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (r *recordingTime) Now() time.Time { return time.Now() }

func (r *recordingTime) After(d time.Duration) <-chan time.Time {
	r.mu.Lock()
	r.sleeps = append(r.sleeps, d)
	r.mu.Unlock()
	return time.After(200 * time.Microsecond)
}

func (r *recordingTime) recorded() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.sleeps...)
}
