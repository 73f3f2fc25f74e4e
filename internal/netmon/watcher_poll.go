package netmon

import (
	"context"
	"net"
	"time"

	log "github.com/sirupsen/logrus"
)

// pollWatcher diffs the interface list on a fixed interval. Used where no
// link event source is available.
type pollWatcher struct {
	interval time.Duration
	list     func() ([]net.Interface, error)
	last     map[string]DetailedState
}

func newPollWatcher(interval time.Duration) *pollWatcher {
	return &pollWatcher{
		interval: interval,
		list:     net.Interfaces,
		last:     make(map[string]DetailedState),
	}
}

func (w *pollWatcher) Start(ctx context.Context, callback func(ConnectivityEvent)) error {
	w.scan(callback)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.scan(callback)
		}
	}
}

func (w *pollWatcher) scan(callback func(ConnectivityEvent)) {
	ifaces, err := w.list()
	if err != nil {
		log.WithError(err).Warn("Error listing network interfaces")
		return
	}

	seen := make(map[string]struct{}, len(ifaces))
	for _, iface := range ifaces {
		seen[iface.Name] = struct{}{}
		state := stateFromFlags(iface.Flags)
		if prev, ok := w.last[iface.Name]; ok && prev == state {
			continue
		}
		w.last[iface.Name] = state
		callback(ConnectivityEvent{InterfaceName: iface.Name, State: state})
	}

	for name := range w.last {
		if _, ok := seen[name]; !ok {
			delete(w.last, name)
			callback(ConnectivityEvent{InterfaceName: name, State: StateDisconnected})
		}
	}
}
