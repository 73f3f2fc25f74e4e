package runtime

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubQueue_HeldWhilePaused(t *testing.T) {
	sq := NewSubQueue[int](10)
	defer sq.Close()

	require.NoError(t, sq.Enqueue(42))

	select {
	case <-sq.Chan():
		t.Fatal("should not receive value while paused")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubQueue_ResumeDrainsBacklogInOrder(t *testing.T) {
	sq := NewSubQueue[int](10)
	defer sq.Close()

	for i := 1; i <= 3; i++ {
		require.NoError(t, sq.Enqueue(i))
	}
	sq.SetPaused(false)

	assert.Equal(t, 1, <-sq.Chan())
	assert.Equal(t, 2, <-sq.Chan())
	assert.Equal(t, 3, <-sq.Chan())
}

func TestSubQueue_SnapshotBeforeBacklog(t *testing.T) {
	sq := NewSubQueue[string](4)
	defer sq.Close()

	require.NoError(t, sq.Enqueue("live"))
	sq.SendSnapshot("snapshot")
	sq.SetPaused(false)

	assert.Equal(t, "snapshot", <-sq.Chan())
	assert.Equal(t, "live", <-sq.Chan())
}

func TestSubQueue_EnqueueAfterCloseFails(t *testing.T) {
	sq := NewSubQueue[int](10)
	sq.SetPaused(false)
	sq.Close()

	err := sq.Enqueue(42)
	assert.ErrorIs(t, err, ErrQueueClosed)
	assert.True(t, sq.Closed())
}

func TestSubQueue_CloseClosesChannel(t *testing.T) {
	sq := NewSubQueue[int](10)
	sq.SetPaused(false)

	require.NoError(t, sq.Enqueue(1))
	<-sq.Chan()

	sq.Close()

	select {
	case _, ok := <-sq.Chan():
		assert.False(t, ok, "channel should be closed")
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}
}

func TestSubQueue_CloseWhilePaused(t *testing.T) {
	sq := NewSubQueue[int](10)
	require.NoError(t, sq.Enqueue(1))

	sq.Close()

	select {
	case _, ok := <-sq.Chan():
		assert.False(t, ok, "channel should be closed")
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}
}

func TestSubQueue_MultipleCloses(t *testing.T) {
	sq := NewSubQueue[int](10)
	sq.Close()

	require.NotPanics(t, func() {
		sq.Close()
	})
}

func TestSubQueue_BacklogExceedsBuffer(t *testing.T) {
	for _, bufSize := range []int{1, 5, 100} {
		sq := NewSubQueue[int](bufSize)
		sq.SetPaused(false)

		for i := 0; i < bufSize*3; i++ {
			require.NoError(t, sq.Enqueue(i))
		}
		for i := 0; i < bufSize*3; i++ {
			select {
			case val := <-sq.Chan():
				assert.Equal(t, i, val)
			case <-time.After(time.Second):
				t.Fatalf("buffer %d: timeout at index %d", bufSize, i)
			}
		}
		sq.Close()
	}
}

func TestSubQueue_ConcurrentEnqueue(t *testing.T) {
	sq := NewSubQueue[int](100)
	defer sq.Close()
	sq.SetPaused(false)

	const producers, perProducer = 10, 10

	var wg sync.WaitGroup
	wg.Add(producers)
	for g := 0; g < producers; g++ {
		go func(id int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				_ = sq.Enqueue(id*100 + i)
			}
		}(g)
	}
	wg.Wait()

	seen := make(map[int]bool)
	for i := 0; i < producers*perProducer; i++ {
		select {
		case val := <-sq.Chan():
			seen[val] = true
		case <-time.After(5 * time.Second):
			t.Fatalf("timeout after %d values", i)
		}
	}
	assert.Len(t, seen, producers*perProducer)
}
