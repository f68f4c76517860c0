package loop

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSinkPreservesEmissionOrder(t *testing.T) {
	sink, source := NewSink[int](8)

	for i := 1; i <= 5; i++ {
		require.True(t, sink.Emit(i))
	}
	assert.Equal(t, 5, source.Len())

	var got []int
	for e := range source.All() {
		got = append(got, e)
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5}, got)

	_, ok := source.TryNext()
	assert.False(t, ok)
}

func TestSinkOverflowIsFatal(t *testing.T) {
	// 5 is not a power of two; the bound must still be exact.
	sink, source := NewSink[string](5)

	for i := 0; i < 5; i++ {
		require.True(t, sink.Emit("e"))
	}
	assert.False(t, sink.Emit("overflow"))
	assert.True(t, sink.Failed())
	assert.ErrorIs(t, sink.Err(), ErrSinkFull)

	// Draining does not revive a failed sink.
	for range source.All() {
	}
	assert.False(t, sink.Emit("late"))
	assert.Equal(t, 0, source.Len())
}

func TestSinkWithoutConsumersIsFatal(t *testing.T) {
	sink, source := NewSink[int](4)
	require.True(t, sink.Emit(1))

	source.Close()

	assert.False(t, sink.Emit(2))
	assert.True(t, sink.Failed())
	assert.ErrorIs(t, sink.Err(), ErrSinkClosed)
}

func TestSourceNextWaitsForEvent(t *testing.T) {
	sink, source := NewSink[int](4)

	_, err := source.Next(5 * time.Millisecond)
	assert.ErrorIs(t, err, ErrNoEvent)

	go func() {
		time.Sleep(5 * time.Millisecond)
		sink.Emit(42)
	}()

	e, err := source.Next(time.Second)
	require.NoError(t, err)
	assert.Equal(t, 42, e)

	source.Close()
	_, err = source.Next(time.Millisecond)
	assert.ErrorIs(t, err, ErrSinkClosed)
}

func TestSinkDefaultCapacity(t *testing.T) {
	sink, source := NewSink[int](0)
	for i := 0; i < DefaultEventBuffer; i++ {
		require.True(t, sink.Emit(i))
	}
	assert.False(t, sink.Emit(DefaultEventBuffer))
	assert.Equal(t, DefaultEventBuffer, source.Len())
}

func TestTryNextDoesNotWaitForBlockedConsumer(t *testing.T) {
	sink, source := NewSink[int](4)

	waiting := make(chan error, 1)
	go func() {
		_, err := source.Next(300 * time.Millisecond)
		waiting <- err
	}()
	time.Sleep(10 * time.Millisecond)

	start := time.Now()
	_, ok := source.TryNext()
	assert.False(t, ok)
	assert.Less(t, time.Since(start), 50*time.Millisecond, "TryNext waited for a concurrent Next")

	require.True(t, sink.Emit(7))
	select {
	case err := <-waiting:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("waiting consumer never saw the event")
	}
}

func TestConcurrentConsumersShareEvents(t *testing.T) {
	const total = 200
	sink, source := NewSink[int](total)
	for i := 0; i < total; i++ {
		require.True(t, sink.Emit(i))
	}

	var mu sync.Mutex
	seen := make(map[int]int)
	var wg sync.WaitGroup
	for c := 0; c < 4; c++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				e, err := source.Next(5 * time.Millisecond)
				if err != nil {
					return
				}
				mu.Lock()
				seen[e]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, total)
	for e, n := range seen {
		assert.Equal(t, 1, n, "event %d delivered %d times", e, n)
	}
}
