package traffic

import (
	"fmt"

	"github.com/dmdmdm-nz/trafficd/internal/netmon"
)

// Activity is the direction of traffic seen during one poll interval.
type Activity int

const (
	ActivityNone Activity = 0
	ActivityIn   Activity = 1 << 0
	ActivityOut  Activity = 1 << 1
	ActivityBoth          = ActivityIn | ActivityOut
)

func (a Activity) String() string {
	switch a {
	case ActivityNone:
		return "NONE"
	case ActivityIn:
		return "IN"
	case ActivityOut:
		return "OUT"
	case ActivityBoth:
		return "BOTH"
	default:
		return fmt.Sprintf("Activity(%d)", int(a))
	}
}

func (a Activity) MarshalText() ([]byte, error) {
	if a < ActivityNone || a > ActivityBoth {
		return nil, fmt.Errorf("invalid activity %d", int(a))
	}
	return []byte(a.String()), nil
}

func (a *Activity) UnmarshalText(text []byte) error {
	switch string(text) {
	case "NONE":
		*a = ActivityNone
	case "IN":
		*a = ActivityIn
	case "OUT":
		*a = ActivityOut
	case "BOTH":
		*a = ActivityBoth
	default:
		return fmt.Errorf("invalid activity %q", text)
	}
	return nil
}

// activityBetween compares two samples of the same interface. A counter that
// went backwards contributes no activity for its direction.
func activityBetween(prev, cur netmon.Counters) Activity {
	activity := ActivityNone
	if cur.TxPackets > prev.TxPackets {
		activity |= ActivityOut
	}
	if cur.RxPackets > prev.RxPackets {
		activity |= ActivityIn
	}
	return activity
}

// Kind identifies the payload of a Notification.
type Kind string

const KindDataActivity Kind = "DATA_ACTIVITY"

// Notification is the message delivered to every subscriber.
type Notification struct {
	Kind     Kind     `json:"kind"`
	Activity Activity `json:"activity"`
}
