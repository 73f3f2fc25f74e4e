package display

import (
	"context"
	"sync"

	"github.com/dmdmdm-nz/trafficd/internal/runtime"
	log "github.com/sirupsen/logrus"
)

// Service publishes screen power transitions from a Watcher and from manual
// overrides.
type Service struct {
	watcher Watcher

	mu    sync.RWMutex
	state *bool

	subsMu sync.Mutex
	subs   map[int]*runtime.SubQueue[PowerEvent]
	nextID int
	closed bool
}

func NewService(watcher Watcher) *Service {
	return &Service{
		watcher: watcher,
		subs:    make(map[int]*runtime.SubQueue[PowerEvent]),
	}
}

// Subscribe emits the current state, if any has been observed, then live changes.
func (s *Service) Subscribe() (<-chan PowerEvent, func()) {
	s.mu.RLock()
	var snapshot *PowerEvent
	if s.state != nil {
		snapshot = &PowerEvent{On: *s.state}
	}
	s.mu.RUnlock()

	sub := runtime.NewSubQueue[PowerEvent](8)

	s.subsMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = sub
	s.subsMu.Unlock()

	if snapshot != nil {
		sub.SendSnapshot(*snapshot)
	}
	sub.SetPaused(false)

	unsub := func() {
		s.subsMu.Lock()
		if q, ok := s.subs[id]; ok {
			delete(s.subs, id)
			q.Close()
		}
		s.subsMu.Unlock()
	}
	return sub.Chan(), unsub
}

func (s *Service) Start(ctx context.Context) error {
	log.Info("Starting display power monitoring service")
	defer log.Info("Stopping display power monitoring service")

	return s.watcher.Start(ctx, func(ev PowerEvent) { s.Set(ev.On) })
}

func (s *Service) Close() error {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	for id, q := range s.subs {
		q.Close()
		delete(s.subs, id)
	}
	return nil
}

// Set records a power state and publishes it if it differs from the last one.
func (s *Service) Set(on bool) {
	s.mu.Lock()
	if s.state != nil && *s.state == on {
		s.mu.Unlock()
		return
	}
	s.state = &on
	s.mu.Unlock()

	ev := PowerEvent{On: on}
	log.WithField("screen", ev.String()).Info("Screen power changed")

	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, sub := range s.subs {
		_ = sub.Enqueue(ev)
	}
}
