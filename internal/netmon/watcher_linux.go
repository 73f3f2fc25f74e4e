//go:build linux

package netmon

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"
)

type linuxWatcher struct {
	mu      sync.Mutex
	tracked map[string]DetailedState
}

// NewWatcher creates a Linux-specific watcher using netlink link updates.
func NewWatcher() Watcher {
	return &linuxWatcher{
		tracked: make(map[string]DetailedState),
	}
}

func (w *linuxWatcher) Start(ctx context.Context, callback func(ConnectivityEvent)) error {
	linkCh := make(chan netlink.LinkUpdate)
	linkDone := make(chan struct{})

	if err := netlink.LinkSubscribe(linkCh, linkDone); err != nil {
		return err
	}
	defer close(linkDone)

	links, err := netlink.LinkList()
	if err != nil {
		log.WithError(err).Warn("Failed to list links, waiting for updates")
	}
	for _, link := range links {
		w.report(link.Attrs().Name, stateFromLink(link.Attrs()), callback)
	}
	log.Debug("Linux link watcher initialized")

	for {
		select {
		case <-ctx.Done():
			return nil

		case update, ok := <-linkCh:
			if !ok {
				return nil
			}
			w.handleLinkUpdate(update, callback)
		}
	}
}

func (w *linuxWatcher) handleLinkUpdate(update netlink.LinkUpdate, callback func(ConnectivityEvent)) {
	attrs := update.Link.Attrs()

	if update.Header.Type == unix.RTM_DELLINK {
		w.mu.Lock()
		_, isTracked := w.tracked[attrs.Name]
		delete(w.tracked, attrs.Name)
		w.mu.Unlock()
		if isTracked {
			callback(ConnectivityEvent{InterfaceName: attrs.Name, State: StateDisconnected})
		}
		return
	}

	log.WithFields(log.Fields{
		"interface": attrs.Name,
		"operState": attrs.OperState.String(),
	}).Trace("Received link update")

	w.report(attrs.Name, stateFromLink(attrs), callback)
}

func (w *linuxWatcher) report(name string, state DetailedState, callback func(ConnectivityEvent)) {
	w.mu.Lock()
	prev, isTracked := w.tracked[name]
	w.tracked[name] = state
	w.mu.Unlock()

	if isTracked && prev == state {
		return
	}
	callback(ConnectivityEvent{InterfaceName: name, State: state})
}

func stateFromLink(attrs *netlink.LinkAttrs) DetailedState {
	switch attrs.OperState {
	case netlink.OperUp:
		return StateConnected
	case netlink.OperDormant:
		return StateConnecting
	case netlink.OperDown, netlink.OperLowerLayerDown, netlink.OperNotPresent:
		return StateDisconnected
	default:
		// Drivers that never report operstate leave it unknown.
		if attrs.RawFlags&unix.IFF_UP != 0 && attrs.RawFlags&unix.IFF_RUNNING != 0 {
			return StateConnected
		}
		return StateDisconnected
	}
}
