package toxloop_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/opd-ai/toxloop"
	"github.com/opd-ai/toxloop/crypto"
	"github.com/opd-ai/toxloop/sim"
)

func TestSetNameFromOneGoroutineReadFromAnother(t *testing.T) {
	defer goleak.VerifyNone(t)

	net := fastNetwork(sim.Config{})
	p := start(t, net, nil)

	done := make(chan error)
	go func() { done <- p.tox.SetName("abc") }()
	require.NoError(t, <-done)

	got := make(chan string)
	go func() {
		name, err := p.tox.Name()
		assert.NoError(t, err)
		got <- name
	}()
	assert.Equal(t, "abc", <-got)

	p.tox.Close()
	require.Eventually(t, p.node.Killed, 200*time.Millisecond, time.Millisecond)
	assert.Equal(t, int64(1), net.Destroyed())
}

func TestFailedConstructionStartsNothing(t *testing.T) {
	defer goleak.VerifyNone(t)

	net := fastNetwork(sim.Config{})
	net.FailConstruction(1)

	tox, events, err := toxloop.New(net.Constructor(), nil)
	assert.ErrorIs(t, err, toxloop.ErrCreateFailed)
	assert.ErrorIs(t, err, sim.ErrConstructionRefused)
	assert.Nil(t, tox)
	assert.Nil(t, events)
	assert.Equal(t, int64(0), net.Created())

	_, _, err = toxloop.New(nil, nil)
	assert.ErrorIs(t, err, toxloop.ErrCreateFailed)

	opts := toxloop.NewOptions()
	opts.StartPort, opts.EndPort = 100, 10
	_, _, err = toxloop.New(net.Constructor(), opts)
	assert.ErrorIs(t, err, toxloop.ErrCreateFailed)
	assert.ErrorIs(t, err, sim.ErrInvalidOptions)
	assert.Equal(t, int64(0), net.Created())
}

func TestConcurrentCallersNeverOverlap(t *testing.T) {
	net := fastNetwork(sim.Config{OperationDelay: 100 * time.Microsecond})
	p := start(t, net, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		tox, err := p.tox.Clone()
		require.NoError(t, err)
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer tox.Close()
			for j := 0; j < 20; j++ {
				assert.NoError(t, tox.SetStatusMessage(fmt.Sprintf("%d/%d", i, j)))
				_, err := tox.StatusMessage()
				assert.NoError(t, err)
				_, err = tox.FriendList()
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	p.stop(t)
	assert.Zero(t, p.node.Overlaps())
	assert.Empty(t, net.Violations())
	assert.Greater(t, p.node.Operations(), int64(8*20*3))
}

func TestEveryCallGetsExactlyOneReply(t *testing.T) {
	net := fastNetwork(sim.Config{})
	p := start(t, net, nil)
	defer p.stop(t)

	const callers, perCaller = 6, 10
	ids := make(chan uint32, callers*perCaller)
	failures := make(chan error, callers*perCaller)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perCaller; j++ {
				id, err := p.tox.AddGroupchat()
				assert.NoError(t, err)
				ids <- id

				// Failing operations reply too.
				_, err = p.tox.FriendName(1000 + uint32(j))
				failures <- err
			}
		}()
	}
	wg.Wait()
	close(ids)
	close(failures)

	seen := make(map[uint32]bool)
	for id := range ids {
		assert.False(t, seen[id], "group %d returned twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, callers*perCaller)

	count, err := p.tox.CountChatList()
	require.NoError(t, err)
	assert.Equal(t, uint32(callers*perCaller), count)

	n := 0
	for err := range failures {
		assert.ErrorIs(t, err, toxloop.ErrFriendNotFound)
		n++
	}
	assert.Equal(t, callers*perCaller, n)
}

func TestHandleKilledOnceAfterLastClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	net := fastNetwork(sim.Config{})
	p := start(t, net, nil)

	clone, err := p.tox.Clone()
	require.NoError(t, err)

	p.tox.Close()
	p.tox.Close()

	_, err = p.tox.Name()
	assert.ErrorIs(t, err, toxloop.ErrHandleClosed)
	assert.ErrorIs(t, err, toxloop.ErrActorUnavailable)

	require.NoError(t, clone.SetName("still here"))
	assert.False(t, p.node.Killed())

	clone.Close()
	select {
	case <-clone.Done():
	case <-time.After(eventWait):
		t.Fatal("actor did not stop")
	}
	require.Eventually(t, p.node.Killed, eventWait, time.Millisecond)
	assert.Equal(t, int64(1), net.Destroyed())
	assert.Empty(t, net.Violations())
}

func TestEventsArriveInFiringOrder(t *testing.T) {
	net := fastNetwork(sim.Config{})
	p := start(t, net, nil)
	defer p.stop(t)

	for i := 0; i < 20; i++ {
		p.node.InjectFriendMessage(3, fmt.Sprintf("msg-%02d", i))
	}

	var got []string
	require.Eventually(t, func() bool {
		for ev := range p.events.All() {
			if m, ok := ev.(toxloop.FriendMessage); ok {
				got = append(got, m.Message)
			}
		}
		return len(got) == 20
	}, eventWait, time.Millisecond)

	for i, m := range got {
		assert.Equal(t, fmt.Sprintf("msg-%02d", i), m)
	}
}

func TestIntervalIsQueriedEveryIteration(t *testing.T) {
	tp := &recordingTime{}
	net := fastNetwork(sim.Config{
		Intervals:       []time.Duration{3 * time.Millisecond, 5 * time.Millisecond, 7 * time.Millisecond},
		DefaultInterval: 9 * time.Millisecond,
	})
	opts := toxloop.NewOptions()
	opts.TimeProvider = tp
	p := start(t, net, opts)

	require.Eventually(t, func() bool { return len(tp.recorded()) >= 4 }, eventWait, time.Millisecond)
	p.stop(t)

	sleeps := tp.recorded()
	assert.Equal(t, []time.Duration{3 * time.Millisecond, 5 * time.Millisecond, 7 * time.Millisecond, 9 * time.Millisecond}, sleeps[:4])
}

func TestEventOverflowStopsActor(t *testing.T) {
	defer goleak.VerifyNone(t)

	net := fastNetwork(sim.Config{})
	opts := toxloop.NewOptions()
	opts.EventBuffer = 4
	p := start(t, net, opts)
	defer p.tox.Close()

	for i := 0; i < 5; i++ {
		p.node.InjectFriendMessage(0, "flood")
	}

	select {
	case <-p.tox.Done():
	case <-time.After(eventWait):
		t.Fatal("actor survived an overflowing event queue")
	}
	require.Eventually(t, p.node.Killed, eventWait, time.Millisecond)

	_, err := p.tox.Name()
	assert.ErrorIs(t, err, toxloop.ErrActorUnavailable)
	assert.NotErrorIs(t, err, toxloop.ErrHandleClosed)
	assert.ErrorIs(t, p.tox.SetNospam(1), toxloop.ErrActorUnavailable)

	// What was delivered before the overflow is still there.
	assert.Equal(t, 4, p.events.Len())
	assert.Equal(t, int64(1), net.Destroyed())
}

func TestClosingEventsStopsActor(t *testing.T) {
	net := fastNetwork(sim.Config{})
	p := start(t, net, nil)
	defer p.tox.Close()

	p.events.Close()
	_, err := p.events.Next(time.Millisecond)
	assert.ErrorIs(t, err, toxloop.ErrEventsClosed)

	// The actor only notices when it has something to deliver.
	_, err = p.tox.Name()
	require.NoError(t, err)

	p.node.InjectFriendRequest(crypto.PublicKey{1}, "anyone there?")
	select {
	case <-p.tox.Done():
	case <-time.After(eventWait):
		t.Fatal("actor survived losing its consumers")
	}
	require.Eventually(t, p.node.Killed, eventWait, time.Millisecond)
}

func TestDomainErrorsAreReturnedUnchanged(t *testing.T) {
	net := fastNetwork(sim.Config{})
	p := start(t, net, nil)
	defer p.stop(t)

	_, err := p.tox.FriendName(42)
	assert.Equal(t, toxloop.ErrFriendNotFound, err)
	assert.False(t, errors.Is(err, toxloop.ErrActorUnavailable))

	own, err := p.tox.Address()
	require.NoError(t, err)
	_, err = p.tox.AddFriend(own, "me")
	var faerr toxloop.FriendAddError
	require.ErrorAs(t, err, &faerr)
	assert.Equal(t, toxloop.FriendAddOwnKey, faerr)

	other, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	addr := *crypto.NewToxID(other.Public, crypto.NospamFromUint32(1))
	_, err = p.tox.AddFriend(addr, "")
	assert.Equal(t, toxloop.FriendAddNoMessage, err)

	addr.Checksum[0] ^= 0xFF
	_, err = p.tox.AddFriend(addr, "hi")
	assert.Equal(t, toxloop.FriendAddBadChecksum, err)

	err = p.tox.Bootstrap("", 33445, other.Public)
	assert.ErrorIs(t, err, toxloop.ErrBootstrapFailed)
	connected, err := p.tox.IsConnected()
	require.NoError(t, err)
	assert.False(t, connected)

	require.NoError(t, p.tox.Bootstrap("node.example.org", 33445, other.Public))
	connected, err = p.tox.IsConnected()
	require.NoError(t, err)
	assert.True(t, connected)
}

func TestCallTimeoutIsALifecycleError(t *testing.T) {
	net := fastNetwork(sim.Config{OperationDelay: 50 * time.Millisecond})
	opts := toxloop.NewOptions()
	opts.CallTimeout = 5 * time.Millisecond
	p := start(t, net, opts)
	defer p.stop(t)

	_, err := p.tox.Name()
	assert.ErrorIs(t, err, toxloop.ErrCallTimeout)
	assert.ErrorIs(t, err, toxloop.ErrReplyAbandoned, "the command was queued and still runs")
	assert.NotErrorIs(t, err, toxloop.ErrActorUnavailable)
}

func TestFireAndForgetCommandsKeepOrder(t *testing.T) {
	net := fastNetwork(sim.Config{})
	p := start(t, net, nil)
	defer p.stop(t)

	for i := uint32(1); i <= 5; i++ {
		require.NoError(t, p.tox.SetNospam(i))
	}
	nospam, err := p.tox.Nospam()
	require.NoError(t, err)
	assert.Equal(t, uint32(5), nospam)

	addr, err := p.tox.Address()
	require.NoError(t, err)
	assert.Equal(t, uint32(5), addr.NospamValue())
	assert.Equal(t, p.node.PublicKey(), addr.PublicKey)
}

func TestAbandonedCallKeepsItsOwnCopyOfData(t *testing.T) {
	net := fastNetwork(sim.Config{OperationDelay: 20 * time.Millisecond})
	donor := start(t, net, nil)
	defer donor.stop(t)
	data, err := donor.tox.Save()
	require.NoError(t, err)

	opts := toxloop.NewOptions()
	opts.CallTimeout = 2 * time.Millisecond
	p := start(t, net, opts)
	defer p.stop(t)

	err = p.tox.Load(data)
	require.ErrorIs(t, err, toxloop.ErrReplyAbandoned)

	// The caller owns data again as soon as the call returned.
	for i := range data {
		data[i] = 0
	}

	require.Eventually(t, func() bool {
		return p.node.PublicKey() == donor.node.PublicKey()
	}, eventWait, 5*time.Millisecond, "Load must see the data as it was when called")
}
