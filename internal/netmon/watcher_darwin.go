//go:build darwin

package netmon

import (
	"context"
	"encoding/binary"
	"net"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

const rtmIfInfo = 0x0e // RTM_IFINFO - interface flags changed

// BSD interface flags carried in if_msghdr.
const (
	iffUp      = 0x1
	iffRunning = 0x40
)

type darwinWatcher struct {
	mu      sync.Mutex
	names   map[int]string
	tracked map[string]DetailedState
}

// NewWatcher creates a macOS-specific watcher using AF_ROUTE sockets.
func NewWatcher() Watcher {
	return &darwinWatcher{
		names:   make(map[int]string),
		tracked: make(map[string]DetailedState),
	}
}

func (w *darwinWatcher) Start(ctx context.Context, callback func(ConnectivityEvent)) error {
	fd, err := unix.Socket(unix.AF_ROUTE, unix.SOCK_RAW, unix.AF_UNSPEC)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		unix.Close(fd)
	}()

	w.reconcileAll(callback)
	log.Debug("Darwin watcher initialized")

	buf := make([]byte, 4096)

	for {
		n, err := unix.Read(fd, buf)
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				log.WithError(err).Warn("Error reading from route socket")
				continue
			}
		}

		// if_msghdr: msglen(2) version(1) type(1) addrs(4) flags(4) index(2)
		if n < 14 || buf[3] != rtmIfInfo {
			continue
		}

		ifIndex := int(binary.LittleEndian.Uint16(buf[12:14]))
		if ifIndex == 0 {
			continue
		}
		ifFlags := binary.LittleEndian.Uint32(buf[8:12])

		log.WithFields(log.Fields{
			"ifIndex": ifIndex,
			"flags":   ifFlags,
		}).Trace("Received interface event")

		w.handleIfInfo(ifIndex, ifFlags, callback)
	}
}

func (w *darwinWatcher) handleIfInfo(index int, ifFlags uint32, callback func(ConnectivityEvent)) {
	state := StateDisconnected
	if ifFlags&iffUp != 0 && ifFlags&iffRunning != 0 {
		state = StateConnected
	}

	name, err := w.nameForIndex(index)
	if err != nil {
		log.WithField("ifIndex", index).WithError(err).Trace("Unknown interface index")
		return
	}
	w.report(name, state, callback)
}

func (w *darwinWatcher) nameForIndex(index int) (string, error) {
	if iface, err := net.InterfaceByIndex(index); err == nil {
		w.mu.Lock()
		w.names[index] = iface.Name
		w.mu.Unlock()
		return iface.Name, nil
	}

	// Removed interfaces can no longer be resolved; use the cached name.
	w.mu.Lock()
	defer w.mu.Unlock()
	if name, ok := w.names[index]; ok {
		return name, nil
	}
	return "", ErrInterfaceNotFound
}

func (w *darwinWatcher) report(name string, state DetailedState, callback func(ConnectivityEvent)) {
	w.mu.Lock()
	prev, isTracked := w.tracked[name]
	w.tracked[name] = state
	w.mu.Unlock()

	if isTracked && prev == state {
		return
	}
	callback(ConnectivityEvent{InterfaceName: name, State: state})
}

func (w *darwinWatcher) reconcileAll(callback func(ConnectivityEvent)) {
	interfaces, err := net.Interfaces()
	if err != nil {
		return
	}

	for _, iface := range interfaces {
		w.mu.Lock()
		w.names[iface.Index] = iface.Name
		w.mu.Unlock()
		w.report(iface.Name, stateFromFlags(iface.Flags), callback)
	}
}
