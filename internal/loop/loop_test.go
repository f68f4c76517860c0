package loop

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
	"go.uber.org/goleak"
)

type counterCmd struct {
	add   int
	reply chan<- int
}

// counterService is a scripted Service whose state only the loop touches.
type counterService struct {
	total      int
	iterations *atomic.Int64

	mu        sync.Mutex
	intervals []time.Duration
}

func newCounterService(intervals ...time.Duration) *counterService {
	return &counterService{iterations: atomic.NewInt64(0), intervals: intervals}
}

func (s *counterService) Iterate() { s.iterations.Inc() }

func (s *counterService) IterationInterval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.intervals) == 0 {
		return 2 * time.Millisecond
	}
	d := s.intervals[0]
	s.intervals = s.intervals[1:]
	return d
}

func (s *counterService) dispatch(cmd counterCmd) {
	s.total += cmd.add
	if cmd.reply != nil {
		Reply(cmd.reply, s.total)
	}
}

// recordingTime records every requested sleep and waits only briefly.
type recordingTime struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (r *recordingTime) Now() time.Time { return time.Now() }

func (r *recordingTime) After(d time.Duration) <-chan time.Time {
	r.mu.Lock()
	r.sleeps = append(r.sleeps, d)
	r.mu.Unlock()
	return time.After(100 * time.Microsecond)
}

func (r *recordingTime) recorded() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.sleeps...)
}

func spawnCounter(t *testing.T, svc *counterService, released *atomic.Int64) (*Ref[counterCmd], *Loop[counterCmd]) {
	t.Helper()
	return Spawn(Config[counterCmd]{
		Name:     "counter",
		Service:  svc,
		Dispatch: svc.dispatch,
		Release:  func() { released.Inc() },
	})
}

func add(ref *Ref[counterCmd], n int) (int, error) {
	return Call(ref, func(reply chan<- int) counterCmd {
		return counterCmd{add: n, reply: reply}
	})
}

func TestCallReturnsExactlyOneReply(t *testing.T) {
	defer goleak.VerifyNone(t)

	released := atomic.NewInt64(0)
	svc := newCounterService()
	ref, l := spawnCounter(t, svc, released)

	total, err := add(ref, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	total, err = add(ref, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, total)

	ref.Close()
	<-l.Released()
	assert.Equal(t, int64(1), released.Load())
}

func TestFireAndForgetIsProcessedInOrder(t *testing.T) {
	released := atomic.NewInt64(0)
	svc := newCounterService()
	ref, l := spawnCounter(t, svc, released)

	for i := 0; i < 10; i++ {
		require.NoError(t, ref.Submit(counterCmd{add: 1}))
	}
	total, err := add(ref, 0)
	require.NoError(t, err)
	assert.Equal(t, 10, total)

	ref.Close()
	<-l.Released()
}

func TestLoopStopsOnlyAfterLastReference(t *testing.T) {
	defer goleak.VerifyNone(t)

	released := atomic.NewInt64(0)
	ref, l := spawnCounter(t, newCounterService(), released)

	clone, err := ref.Clone()
	require.NoError(t, err)

	ref.Close()
	ref.Close()

	_, err = add(clone, 1)
	require.NoError(t, err, "clone must keep the loop alive")

	select {
	case <-l.Done():
		t.Fatal("loop stopped while a reference was open")
	case <-time.After(20 * time.Millisecond):
	}

	clone.Close()

	select {
	case <-l.Released():
	case <-time.After(time.Second):
		t.Fatal("loop did not stop after last reference closed")
	}
	assert.Equal(t, int64(1), released.Load())
}

func TestClosedReferenceIsUnavailable(t *testing.T) {
	released := atomic.NewInt64(0)
	ref, l := spawnCounter(t, newCounterService(), released)

	clone, err := ref.Clone()
	require.NoError(t, err)
	clone.Close()

	_, err = add(clone, 1)
	assert.ErrorIs(t, err, ErrHandleClosed)
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = clone.Clone()
	assert.ErrorIs(t, err, ErrHandleClosed)

	ref.Close()
	<-l.Released()
}

func TestHaltedLoopRejectsCommands(t *testing.T) {
	defer goleak.VerifyNone(t)

	hook := test.NewGlobal()
	defer hook.Reset()

	halted := atomic.NewBool(false)
	released := atomic.NewInt64(0)
	svc := newCounterService()
	ref, l := Spawn(Config[counterCmd]{
		Name:     "halting",
		Service:  svc,
		Dispatch: svc.dispatch,
		Halted: func() error {
			if halted.Load() {
				return ErrSinkFull
			}
			return nil
		},
		Release: func() { released.Inc() },
	})

	_, err := add(ref, 1)
	require.NoError(t, err)

	halted.Store(true)
	<-l.Done()

	_, err = add(ref, 1)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.NotErrorIs(t, err, ErrHandleClosed)

	<-l.Released()
	assert.Equal(t, int64(1), released.Load())
	ref.Close()

	var halt *logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Message == "Actor halted, stopping" {
			halt = e
		}
	}
	require.NotNil(t, halt, "halt reason was not logged")
	assert.Equal(t, "halting", halt.Data["actor"])
	assert.Equal(t, l.ID().String(), halt.Data["actor_id"])
	assert.Equal(t, ErrSinkFull.Error(), halt.Data["error"])
}

func TestIntervalIsQueriedEveryIteration(t *testing.T) {
	tp := &recordingTime{}
	released := atomic.NewInt64(0)
	svc := newCounterService(3*time.Millisecond, 7*time.Millisecond, 11*time.Millisecond)
	ref, l := Spawn(Config[counterCmd]{
		Name:         "interval",
		Service:      svc,
		Dispatch:     svc.dispatch,
		Release:      func() { released.Inc() },
		TimeProvider: tp,
	})

	require.Eventually(t, func() bool { return len(tp.recorded()) >= 4 }, time.Second, time.Millisecond)
	ref.Close()
	<-l.Released()

	sleeps := tp.recorded()
	assert.Equal(t, []time.Duration{3 * time.Millisecond, 7 * time.Millisecond, 11 * time.Millisecond}, sleeps[:3])
	assert.Equal(t, 2*time.Millisecond, sleeps[3])
}

func TestShortIntervalIsClamped(t *testing.T) {
	tp := &recordingTime{}
	svc := newCounterService(0, -time.Second)
	ref, l := Spawn(Config[counterCmd]{
		Name:         "clamp",
		Service:      svc,
		Dispatch:     svc.dispatch,
		TimeProvider: tp,
	})

	require.Eventually(t, func() bool { return len(tp.recorded()) >= 2 }, time.Second, time.Millisecond)
	ref.Close()
	<-l.Released()

	sleeps := tp.recorded()
	assert.Equal(t, MinInterval, sleeps[0])
	assert.Equal(t, MinInterval, sleeps[1])
}

func TestLingerKeepsServicingUntilReleased(t *testing.T) {
	defer goleak.VerifyNone(t)

	wait := make(chan struct{})
	released := atomic.NewInt64(0)
	svc := newCounterService()
	ref, l := Spawn(Config[counterCmd]{
		Name:     "linger",
		Service:  svc,
		Dispatch: svc.dispatch,
		Linger:   func() <-chan struct{} { return wait },
		Release:  func() { released.Inc() },
	})

	ref.Close()
	<-l.Done()

	before := svc.iterations.Load()
	require.Eventually(t, func() bool { return svc.iterations.Load() > before+2 }, time.Second, time.Millisecond,
		"handle must keep being serviced while lingering")
	assert.Equal(t, int64(0), released.Load())

	close(wait)
	<-l.Released()
	assert.Equal(t, int64(1), released.Load())
}

func TestAbandonedReplyDoesNotBlockLoop(t *testing.T) {
	block := make(chan struct{})
	released := atomic.NewInt64(0)
	svc := newCounterService()
	ref, l := Spawn(Config[counterCmd]{
		Name:    "abandon",
		Service: svc,
		Dispatch: func(cmd counterCmd) {
			if cmd.add == 5 {
				<-block
			}
			svc.dispatch(cmd)
		},
		Release: func() { released.Inc() },
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := CallContext(ctx, ref, func(reply chan<- int) counterCmd {
		return counterCmd{add: 5, reply: reply}
	})
	assert.ErrorIs(t, err, ErrReplyAbandoned)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrNotSubmitted)

	close(block)
	total, err := add(ref, 1)
	require.NoError(t, err)
	assert.Equal(t, 6, total, "abandoned command still runs")

	ref.Close()
	<-l.Released()
}

func TestCancelledContextNeverSubmits(t *testing.T) {
	released := atomic.NewInt64(0)
	svc := newCounterService()
	ref, l := spawnCounter(t, svc, released)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 50; i++ {
		_, err := CallContext(ctx, ref, func(reply chan<- int) counterCmd {
			return counterCmd{add: 5, reply: reply}
		})
		require.ErrorIs(t, err, ErrNotSubmitted)
		require.ErrorIs(t, err, context.Canceled)
		require.NotErrorIs(t, err, ErrReplyAbandoned)
	}

	total, err := add(ref, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, total, "rejected commands must not run")

	ref.Close()
	<-l.Released()
}

func TestConcurrentCallers(t *testing.T) {
	released := atomic.NewInt64(0)
	svc := newCounterService()
	ref, l := spawnCounter(t, svc, released)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		clone, err := ref.Clone()
		require.NoError(t, err)
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer clone.Close()
			for j := 0; j < 25; j++ {
				_, err := add(clone, 1)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	total, err := add(ref, 0)
	require.NoError(t, err)
	assert.Equal(t, 200, total)

	ref.Close()
	<-l.Released()
}

func TestCallWithinTimesOutWhileCommandStillRuns(t *testing.T) {
	block := make(chan struct{})
	released := atomic.NewInt64(0)
	svc := newCounterService()
	ref, l := Spawn(Config[counterCmd]{
		Name:    "slow",
		Service: svc,
		Dispatch: func(cmd counterCmd) {
			if cmd.add < 0 {
				<-block
			}
			svc.dispatch(cmd)
		},
		Release: func() { released.Inc() },
	})

	_, err := CallWithin(ref, 10*time.Millisecond, func(reply chan<- int) counterCmd {
		return counterCmd{add: -1, reply: reply}
	})
	assert.ErrorIs(t, err, ErrCallTimeout)
	assert.ErrorIs(t, err, ErrReplyAbandoned)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrUnavailable)

	close(block)
	total, err := CallWithin(ref, time.Second, func(reply chan<- int) counterCmd {
		return counterCmd{add: 1, reply: reply}
	})
	require.NoError(t, err)
	assert.Equal(t, 0, total, "timed out command was applied before the next one")

	ref.Close()
	<-l.Released()
}
