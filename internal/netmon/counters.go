package netmon

import (
	"errors"
	"fmt"

	psnet "github.com/shirou/gopsutil/v3/net"
)

var ErrInterfaceNotFound = errors.New("interface not found")

// Counters is a packet counter snapshot of one interface.
type Counters struct {
	TxPackets uint64
	RxPackets uint64
}

// CounterReader reads the cumulative packet counters of an interface.
type CounterReader interface {
	ReadCounters(interfaceName string) (Counters, error)
}

// PsutilReader reads per-NIC counters through gopsutil.
type PsutilReader struct {
	ioCounters func(pernic bool) ([]psnet.IOCountersStat, error)
}

func NewPsutilReader() *PsutilReader {
	return &PsutilReader{ioCounters: psnet.IOCounters}
}

func (r *PsutilReader) ReadCounters(interfaceName string) (Counters, error) {
	stats, err := r.ioCounters(true)
	if err != nil {
		return Counters{}, fmt.Errorf("reading counters for %s: %w", interfaceName, err)
	}
	for _, st := range stats {
		if st.Name == interfaceName {
			return Counters{TxPackets: st.PacketsSent, RxPackets: st.PacketsRecv}, nil
		}
	}
	return Counters{}, fmt.Errorf("%s: %w", interfaceName, ErrInterfaceNotFound)
}
