package runtime

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// ErrLooperClosed is returned when posting to a looper that has been closed.
var ErrLooperClosed = errors.New("looper closed")

// Executor runs tasks one at a time, in the order they were posted.
type Executor interface {
	Post(task func()) error
	PostDelayed(delay time.Duration, task func()) error
}

// Looper is a single goroutine draining a FIFO of tasks. Every piece of state
// touched only from its tasks needs no further locking.
type Looper struct {
	name string

	mu     sync.Mutex
	cond   *sync.Cond
	tasks  []func()
	timers map[uint64]*time.Timer
	nextID uint64
	closed bool
}

func NewLooper(name string) *Looper {
	l := &Looper{
		name:   name,
		timers: make(map[uint64]*time.Timer),
	}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// Post appends task to the queue. Tasks posted before Run are kept until it starts.
func (l *Looper) Post(task func()) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrLooperClosed
	}
	l.tasks = append(l.tasks, task)
	l.cond.Signal()
	return nil
}

// PostDelayed posts task once delay has elapsed. Pending delayed tasks are
// not cancellable individually; they are discarded when the looper closes.
func (l *Looper) PostDelayed(delay time.Duration, task func()) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrLooperClosed
	}
	id := l.nextID
	l.nextID++
	l.timers[id] = time.AfterFunc(delay, func() {
		l.mu.Lock()
		delete(l.timers, id)
		l.mu.Unlock()
		_ = l.Post(task)
	})
	return nil
}

// Run executes tasks until ctx is cancelled or Close is called.
func (l *Looper) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { _ = l.Close() })
	defer stop()

	log.WithField("looper", l.name).Debug("Looper started")
	defer log.WithField("looper", l.name).Debug("Looper stopped")

	for {
		l.mu.Lock()
		for !l.closed && len(l.tasks) == 0 {
			l.cond.Wait()
		}
		if l.closed {
			l.tasks = nil
			l.mu.Unlock()
			return nil
		}
		task := l.tasks[0]
		l.tasks[0] = nil
		l.tasks = l.tasks[1:]
		l.mu.Unlock()

		l.execute(task)
	}
}

func (l *Looper) execute(task func()) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{
				"looper": l.name,
				"panic":  r,
			}).Error("Looper task panicked")
		}
	}()
	task()
}

// Close stops the looper and every pending delayed task. Safe to call twice.
func (l *Looper) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	for id, t := range l.timers {
		t.Stop()
		delete(l.timers, id)
	}
	l.cond.Broadcast()
	return nil
}
