package netmon

import (
	"context"
	"net"
)

// Watcher reports link state changes using platform-specific event mechanisms
// (netlink on Linux, route sockets on macOS, polling elsewhere).
type Watcher interface {
	// Start reports the current state of every interface, then every change.
	// Blocks until ctx is cancelled or an error occurs.
	Start(ctx context.Context, callback func(ConnectivityEvent)) error
}

// stateFromFlags maps administrative and carrier flags to a connectivity state.
func stateFromFlags(flags net.Flags) DetailedState {
	if flags&net.FlagUp != 0 && flags&net.FlagRunning != 0 {
		return StateConnected
	}
	return StateDisconnected
}
