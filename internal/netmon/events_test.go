package netmon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDetailedState(t *testing.T) {
	state, ok := ParseDetailedState("CONNECTED")
	assert.True(t, ok)
	assert.Equal(t, StateConnected, state)

	_, ok = ParseDetailedState("connected")
	assert.False(t, ok)

	_, ok = ParseDetailedState("")
	assert.False(t, ok)
}

func TestEventHandler_Type(t *testing.T) {
	var received ConnectivityEvent
	handler := EventHandler(func(event ConnectivityEvent) { received = event })

	ev := ConnectivityEvent{InterfaceName: "wlan0", State: StateDisconnected}
	handler(ev)

	assert.Equal(t, ev, received)
}
