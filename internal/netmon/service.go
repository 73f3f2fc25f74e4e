package netmon

import (
	"context"
	"sync"

	"github.com/dmdmdm-nz/trafficd/internal/runtime"
	log "github.com/sirupsen/logrus"
)

// Service follows the link state of one target interface and republishes its
// transitions to subscribers.
type Service struct {
	watcher Watcher

	mu    sync.RWMutex
	iface string
	known map[string]DetailedState

	subsMu           sync.Mutex
	subs             map[int]*runtime.SubQueue[ConnectivityEvent]
	nextSubscriberID int
	closed           bool
}

func NewService(watcher Watcher, interfaceName string) *Service {
	return &Service{
		watcher: watcher,
		iface:   interfaceName,
		known:   make(map[string]DetailedState),
		subs:    make(map[int]*runtime.SubQueue[ConnectivityEvent]),
	}
}

// Subscribe emits the target's current state, if known, then live transitions.
func (s *Service) Subscribe() (<-chan ConnectivityEvent, func()) {
	s.mu.RLock()
	state, known := s.known[s.iface]
	snapshot := ConnectivityEvent{InterfaceName: s.iface, State: state}
	s.mu.RUnlock()

	sub := runtime.NewSubQueue[ConnectivityEvent](8)

	s.subsMu.Lock()
	id := s.nextSubscriberID
	s.nextSubscriberID++
	s.subs[id] = sub
	s.subsMu.Unlock()

	if known {
		sub.SendSnapshot(snapshot)
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
	log.WithField("interface", s.Interface()).Info("Starting connectivity monitoring service")
	defer log.Info("Stopping connectivity monitoring service")

	return s.watcher.Start(ctx, s.handleWatcherEvent)
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

// Interface is the interface currently followed.
func (s *Service) Interface() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.iface
}

// State returns the last known state of the target interface.
func (s *Service) State() (DetailedState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.known[s.iface]
	return state, ok
}

// SetInterface retargets the service. If the interface's state is already
// known it is published immediately, even when the target is unchanged, so
// subscribers that reset their view on retarget get it back.
func (s *Service) SetInterface(interfaceName string) {
	s.mu.Lock()
	changed := s.iface != interfaceName
	s.iface = interfaceName
	state, known := s.known[interfaceName]
	s.mu.Unlock()

	if changed {
		log.WithField("interface", interfaceName).Info("Following new interface")
	}

	if known {
		s.broadcast(ConnectivityEvent{InterfaceName: interfaceName, State: state})
	}
}

func (s *Service) handleWatcherEvent(ev ConnectivityEvent) {
	s.mu.Lock()
	prev, seen := s.known[ev.InterfaceName]
	s.known[ev.InterfaceName] = ev.State
	target := s.iface
	s.mu.Unlock()

	if ev.InterfaceName != target || (seen && prev == ev.State) {
		return
	}

	log.WithFields(log.Fields{
		"interface": ev.InterfaceName,
		"state":     ev.State,
	}).Info("Interface connectivity changed")

	s.broadcast(ev)
}

func (s *Service) broadcast(ev ConnectivityEvent) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, sub := range s.subs {
		_ = sub.Enqueue(ev)
	}
}
