package netmon

import (
	"errors"
	"testing"

	psnet "github.com/shirou/gopsutil/v3/net"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPsutilReader_FindsInterface(t *testing.T) {
	r := &PsutilReader{ioCounters: func(pernic bool) ([]psnet.IOCountersStat, error) {
		assert.True(t, pernic)
		return []psnet.IOCountersStat{
			{Name: "lo", PacketsSent: 1, PacketsRecv: 1},
			{Name: "wlan0", PacketsSent: 150, PacketsRecv: 50},
		}, nil
	}}

	c, err := r.ReadCounters("wlan0")
	require.NoError(t, err)
	assert.Equal(t, Counters{TxPackets: 150, RxPackets: 50}, c)
}

func TestPsutilReader_MissingInterface(t *testing.T) {
	r := &PsutilReader{ioCounters: func(bool) ([]psnet.IOCountersStat, error) {
		return []psnet.IOCountersStat{{Name: "lo"}}, nil
	}}

	_, err := r.ReadCounters("wlan0")
	assert.ErrorIs(t, err, ErrInterfaceNotFound)
}

func TestPsutilReader_PropagatesError(t *testing.T) {
	boom := errors.New("proc unavailable")
	r := &PsutilReader{ioCounters: func(bool) ([]psnet.IOCountersStat, error) {
		return nil, boom
	}}

	_, err := r.ReadCounters("wlan0")
	assert.ErrorIs(t, err, boom)
}
