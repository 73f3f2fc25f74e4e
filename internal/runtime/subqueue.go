package runtime

import (
	"errors"
	"sync"
)

// ErrQueueClosed is returned by Enqueue once the queue has been closed.
var ErrQueueClosed = errors.New("subscriber queue closed")

// SubQueue decouples a producer from a slow consumer: Enqueue never blocks, and a
// dedicated goroutine drains the backlog into the consumer channel in order.
type SubQueue[T any] struct {
	mu      sync.Mutex
	cond    *sync.Cond
	backlog []T
	closed  bool

	outCh  chan T
	paused bool // held until the subscriber's snapshot has been sent
}

func NewSubQueue[T any](outBuf int) *SubQueue[T] {
	sq := &SubQueue[T]{
		outCh:  make(chan T, outBuf),
		paused: true,
	}
	sq.cond = sync.NewCond(&sq.mu)
	go sq.drain()
	return sq
}

// Chan is the consumer side. It is closed after Close.
func (sq *SubQueue[T]) Chan() <-chan T { return sq.outCh }

// Enqueue appends ev to the backlog. It fails only when the queue is closed.
func (sq *SubQueue[T]) Enqueue(ev T) error {
	sq.mu.Lock()
	defer sq.mu.Unlock()
	if sq.closed {
		return ErrQueueClosed
	}
	sq.backlog = append(sq.backlog, ev)
	sq.cond.Signal()
	return nil
}

// SendSnapshot writes directly to the consumer channel, bypassing the backlog.
// Only valid while paused, and the channel buffer must hold the whole snapshot.
func (sq *SubQueue[T]) SendSnapshot(ev T) {
	sq.outCh <- ev
}

// SetPaused gates draining of the backlog.
func (sq *SubQueue[T]) SetPaused(v bool) {
	sq.mu.Lock()
	sq.paused = v
	sq.cond.Broadcast()
	sq.mu.Unlock()
}

// Closed reports whether Close has been called.
func (sq *SubQueue[T]) Closed() bool {
	sq.mu.Lock()
	defer sq.mu.Unlock()
	return sq.closed
}

// Close discards the backlog and closes the consumer channel. Safe to call twice.
func (sq *SubQueue[T]) Close() {
	sq.mu.Lock()
	sq.closed = true
	sq.cond.Broadcast()
	sq.mu.Unlock()
}

func (sq *SubQueue[T]) drain() {
	for {
		sq.mu.Lock()
		for !sq.closed && (sq.paused || len(sq.backlog) == 0) {
			sq.cond.Wait()
		}
		if sq.closed {
			sq.backlog = nil
			sq.mu.Unlock()
			close(sq.outCh)
			return
		}
		ev := sq.backlog[0]
		sq.backlog[0] = *new(T)
		sq.backlog = sq.backlog[1:]
		sq.mu.Unlock()

		sq.outCh <- ev
	}
}
