package runtime

import (
	"sort"
	"sync"
	"time"
)

type delayedTask struct {
	at   time.Duration
	seq  uint64
	task func()
}

// ManualLooper is an Executor driven by a virtual clock. Posted tasks run inline
// on the posting goroutine; delayed tasks run only when Advance moves the clock
// past their deadline.
type ManualLooper struct {
	mu      sync.Mutex
	now     time.Duration
	seq     uint64
	queue   []func()
	delayed []delayedTask
	running bool
}

func NewManualLooper() *ManualLooper {
	return &ManualLooper{}
}

func (m *ManualLooper) Post(task func()) error {
	m.mu.Lock()
	m.queue = append(m.queue, task)
	if m.running {
		// Re-entrant post; the outer drain picks it up.
		m.mu.Unlock()
		return nil
	}
	m.running = true
	m.mu.Unlock()

	m.drain()
	return nil
}

func (m *ManualLooper) drain() {
	for {
		m.mu.Lock()
		if len(m.queue) == 0 {
			m.running = false
			m.mu.Unlock()
			return
		}
		task := m.queue[0]
		m.queue = m.queue[1:]
		m.mu.Unlock()

		task()
	}
}

func (m *ManualLooper) PostDelayed(delay time.Duration, task func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.delayed = append(m.delayed, delayedTask{at: m.now + delay, seq: m.seq, task: task})
	return nil
}

// Advance moves the virtual clock forward by d, running every delayed task
// that falls due, including ones scheduled by tasks fired along the way.
func (m *ManualLooper) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		m.mu.Lock()
		sort.Slice(m.delayed, func(i, j int) bool {
			if m.delayed[i].at == m.delayed[j].at {
				return m.delayed[i].seq < m.delayed[j].seq
			}
			return m.delayed[i].at < m.delayed[j].at
		})
		if len(m.delayed) == 0 || m.delayed[0].at > target {
			m.now = target
			m.mu.Unlock()
			return
		}
		next := m.delayed[0]
		m.delayed = m.delayed[1:]
		m.now = next.at
		m.mu.Unlock()

		_ = m.Post(next.task)
	}
}

// Pending is the number of delayed tasks not yet fired.
func (m *ManualLooper) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.delayed)
}

// Now is the virtual time elapsed since construction.
func (m *ManualLooper) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}
