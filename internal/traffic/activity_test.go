package traffic

import (
	"encoding/json"
	"testing"

	"github.com/dmdmdm-nz/trafficd/internal/netmon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivity_Values(t *testing.T) {
	assert.Equal(t, Activity(0), ActivityNone)
	assert.Equal(t, Activity(1), ActivityIn)
	assert.Equal(t, Activity(2), ActivityOut)
	assert.Equal(t, Activity(3), ActivityBoth)
	assert.Equal(t, "BOTH", ActivityBoth.String())
	assert.Equal(t, "Activity(9)", Activity(9).String())
}

func TestActivityBetween(t *testing.T) {
	prev := netmon.Counters{TxPackets: 100, RxPackets: 50}

	assert.Equal(t, ActivityOut, activityBetween(prev, netmon.Counters{TxPackets: 150, RxPackets: 50}))
	assert.Equal(t, ActivityIn, activityBetween(prev, netmon.Counters{TxPackets: 100, RxPackets: 51}))
	assert.Equal(t, ActivityBoth, activityBetween(prev, netmon.Counters{TxPackets: 101, RxPackets: 51}))
	assert.Equal(t, ActivityNone, activityBetween(prev, prev))
	assert.Equal(t, ActivityNone, activityBetween(prev, netmon.Counters{TxPackets: 1, RxPackets: 1}))
}

func TestNotification_JSON(t *testing.T) {
	b, err := json.Marshal(Notification{Kind: KindDataActivity, Activity: ActivityOut})
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"DATA_ACTIVITY","activity":"OUT"}`, string(b))

	var n Notification
	require.NoError(t, json.Unmarshal([]byte(`{"kind":"DATA_ACTIVITY","activity":"BOTH"}`), &n))
	assert.Equal(t, ActivityBoth, n.Activity)

	assert.Error(t, json.Unmarshal([]byte(`{"activity":"SIDEWAYS"}`), &n))
	_, err = json.Marshal(Notification{Activity: Activity(7)})
	assert.Error(t, err)
}

func TestChannelEndpoint_SendAfterClose(t *testing.T) {
	ep := NewChannelEndpoint(1)
	assert.NotEmpty(t, ep.ID())
	assert.NotEqual(t, ep.ID(), NewChannelEndpoint(1).ID())

	require.NoError(t, ep.Send(Notification{Kind: KindDataActivity, Activity: ActivityIn}))
	assert.Equal(t, ActivityIn, (<-ep.C()).Activity)

	ep.Close()
	assert.Error(t, ep.Send(Notification{Kind: KindDataActivity}))
}
