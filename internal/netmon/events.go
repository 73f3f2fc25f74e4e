package netmon

// DetailedState is the connectivity of a single interface.
type DetailedState string

const (
	StateIdle            DetailedState = "IDLE"
	StateScanning        DetailedState = "SCANNING"
	StateConnecting      DetailedState = "CONNECTING"
	StateAuthenticating  DetailedState = "AUTHENTICATING"
	StateObtainingIPAddr DetailedState = "OBTAINING_IPADDR"
	StateConnected       DetailedState = "CONNECTED"
	StateSuspended       DetailedState = "SUSPENDED"
	StateDisconnecting   DetailedState = "DISCONNECTING"
	StateDisconnected    DetailedState = "DISCONNECTED"
	StateFailed          DetailedState = "FAILED"
	StateBlocked         DetailedState = "BLOCKED"
)

var knownStates = map[DetailedState]struct{}{
	StateIdle: {}, StateScanning: {}, StateConnecting: {}, StateAuthenticating: {},
	StateObtainingIPAddr: {}, StateConnected: {}, StateSuspended: {},
	StateDisconnecting: {}, StateDisconnected: {}, StateFailed: {}, StateBlocked: {},
}

// ParseDetailedState accepts the upper-case state names.
func ParseDetailedState(s string) (DetailedState, bool) {
	_, ok := knownStates[DetailedState(s)]
	return DetailedState(s), ok
}

type ConnectivityEvent struct {
	InterfaceName string
	State         DetailedState
}

type EventHandler func(event ConnectivityEvent)
