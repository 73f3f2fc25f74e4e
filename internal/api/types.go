package api

import (
	"context"

	"github.com/dmdmdm-nz/trafficd/internal/netmon"
	"github.com/dmdmdm-nz/trafficd/internal/traffic"
)

// TrafficPoller is the part of traffic.Poller the API drives.
type TrafficPoller interface {
	Snapshot(ctx context.Context) (traffic.State, error)
	DumpState(ctx context.Context) (string, error)
	Subscribe() (<-chan traffic.Notification, func())
	SetInterface(interfaceName string)
	OnConnectivityChanged(state netmon.DetailedState)
	SetVerboseLogging(level int)
}

// LinkMonitor follows the connectivity of the monitored interface.
type LinkMonitor interface {
	SetInterface(interfaceName string)
}

// ScreenMonitor accepts manual screen power overrides.
type ScreenMonitor interface {
	Set(on bool)
}

type errorResponse struct {
	Error string `json:"error"`
}
