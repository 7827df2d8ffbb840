package lorasim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDownlinkRetryDelay(t *testing.T) {
	assert := require.New(t)
	n := &Node{rngstrm: newNamedStream("retry-delay-test", 1)}

	for i := 0; i < 50; i++ {
		eng := &Engine{}
		d := eng.downlinkRetryDelay(n)
		assert.GreaterOrEqual(d, 2.0, "delay must never be below the fixed 2s floor")
		assert.Less(d, 5.0, "delay must never reach the 2+U(0,3) ceiling")
	}
}

func TestDispatchDownlinkFailureRetriesAfterTheFixedDelay(t *testing.T) {
	assert := require.New(t)

	cfg := DefaultConfig()
	cfg.ConfirmedPerc = 1
	cfg.Seed = 5
	eng := testEngine(t, cfg)
	node := &eng.Nodes[0]

	// Driving the gateway TX power far below sensitivity makes
	// ReceiveDownlinkAtNode's sensitivity check fail, so survived is
	// guaranteed false and dispatchDownlink takes its retry branch.
	eng.Config.GatewayTxPowerDBm = -200

	downlinkStart := 1.0
	airtime := Airtime(eng.Region.RX2SF, eng.Region.DownlinkBW, 13, codingRate)
	downlinkEnd := downlinkStart + airtime
	gdest := &GDest{NodeID: node.ID, ArrivalTime: downlinkStart, SF: node.SF, Window: RX1, Channel: 0}
	ev := &Event{
		Kind: DownlinkEvent, GatewayID: 0,
		Start: downlinkStart, End: downlinkEnd, Channel: 0, SF: node.SF,
		GDest: gdest,
	}

	stats := NewStats(eng)
	eng.dispatchDownlink(ev, stats)

	assert.Equal(1, eng.Queue.Len(), "a retry uplink must have been scheduled")
	retry, ok := eng.Queue.PopEarliest()
	assert.True(ok)
	assert.Equal(UplinkEvent, retry.Kind)
	assert.GreaterOrEqual(retry.Start, downlinkEnd+2.0, "the retry must start at least 2s past the downlink end, honouring the 2+U(0,3) floor")
}
