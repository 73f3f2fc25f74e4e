//go:build linux

package netmon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"
)

func TestStateFromLink(t *testing.T) {
	tests := []struct {
		name  string
		attrs netlink.LinkAttrs
		want  DetailedState
	}{
		{"up", netlink.LinkAttrs{OperState: netlink.OperUp}, StateConnected},
		{"dormant", netlink.LinkAttrs{OperState: netlink.OperDormant}, StateConnecting},
		{"down", netlink.LinkAttrs{OperState: netlink.OperDown}, StateDisconnected},
		{"lower layer down", netlink.LinkAttrs{OperState: netlink.OperLowerLayerDown}, StateDisconnected},
		{"unknown running", netlink.LinkAttrs{OperState: netlink.OperUnknown, RawFlags: unix.IFF_UP | unix.IFF_RUNNING}, StateConnected},
		{"unknown admin up only", netlink.LinkAttrs{OperState: netlink.OperUnknown, RawFlags: unix.IFF_UP}, StateDisconnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stateFromLink(&tt.attrs))
		})
	}
}

func TestLinuxWatcher_ReportDeduplicates(t *testing.T) {
	w := NewWatcher().(*linuxWatcher)

	var events []ConnectivityEvent
	record := func(ev ConnectivityEvent) { events = append(events, ev) }

	w.report("wlan0", StateConnected, record)
	w.report("wlan0", StateConnected, record)
	w.report("wlan0", StateDisconnected, record)

	assert.Equal(t, []ConnectivityEvent{
		{InterfaceName: "wlan0", State: StateConnected},
		{InterfaceName: "wlan0", State: StateDisconnected},
	}, events)
}
