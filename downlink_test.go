package lorasim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNetworkAvgNoGWRate(t *testing.T) {
	assert := require.New(t)
	eng := &Engine{Nodes: []Node{
		{ID: 0, Unique: 10, NoRX1OrRX2: 2}, // 0.2
		{ID: 1, Unique: 10, NoRX1OrRX2: 4}, // 0.4
		{ID: 2, Unique: 0, NoRX1OrRX2: 0},  // excluded, never sent
	}}
	assert.InDelta(0.3, eng.networkAvgNoGWRate(), 1e-9)
}

func TestNetworkAvgFairness(t *testing.T) {
	assert := require.New(t)
	eng := &Engine{Nodes: []Node{
		{ID: 0, Unique: 10, Acked: 10}, // 1.0
		{ID: 1, Unique: 10, Acked: 0},  // 0.0
	}}
	assert.InDelta(0.5, eng.networkAvgFairness(), 1e-9)
}

func TestFreeGWFracAboveThreshold(t *testing.T) {
	t.Run("no reachable gateways never abstains", func(t *testing.T) {
		assert := require.New(t)
		eng := &Engine{Config: DefaultConfig(), Gateways: []Gateway{{}}}
		node := &Node{}
		assert.False(freeGWFracAboveThreshold(eng, node))
	})

	t.Run("enough free gateways clears the threshold", func(t *testing.T) {
		assert := require.New(t)
		eng := &Engine{
			Config:   DefaultConfig(),
			Gateways: []Gateway{{}, {}, {}},
		}
		node := &Node{ReachableAtRX2: []GatewayID{0, 1, 2}}
		// all three gateways free: 3/3 > 2/3
		assert.True(freeGWFracAboveThreshold(eng, node))
	})

	t.Run("a busy gateway can drop the free fraction below threshold", func(t *testing.T) {
		assert := require.New(t)
		eng := &Engine{
			Config:   DefaultConfig(),
			Gateways: []Gateway{{}, {}, {}},
			Now:      5,
		}
		eng.Gateways[0].addDownlinkBusy(0, 0, 10) // busy across Now=5
		node := &Node{ReachableAtRX2: []GatewayID{0, 1, 2}}
		// 2/3 free, not strictly greater than 2/3
		assert.False(freeGWFracAboveThreshold(eng, node))
	})
}

func TestShouldAbstainURCB(t *testing.T) {
	t.Run("a node with no uplinks yet never abstains", func(t *testing.T) {
		assert := require.New(t)
		eng := &Engine{Config: DefaultConfig()}
		node := &Node{}
		assert.False(shouldAbstainURCB(eng, node))
	})

	t.Run("below-average no-gw rate plus free gateways abstains", func(t *testing.T) {
		assert := require.New(t)
		eng := &Engine{
			Config: DefaultConfig(),
			Gateways: []Gateway{{}, {}, {}},
			Nodes: []Node{
				{ID: 0, Unique: 10, NoRX1OrRX2: 0, ReachableAtRX2: []GatewayID{0, 1, 2}},
				{ID: 1, Unique: 10, NoRX1OrRX2: 8},
			},
		}
		node := &eng.Nodes[0]
		assert.True(shouldAbstainURCB(eng, node))
	})

	t.Run("above-average no-gw rate never abstains", func(t *testing.T) {
		assert := require.New(t)
		eng := &Engine{
			Config: DefaultConfig(),
			Gateways: []Gateway{{}, {}, {}},
			Nodes: []Node{
				{ID: 0, Unique: 10, NoRX1OrRX2: 8, ReachableAtRX2: []GatewayID{0, 1, 2}},
				{ID: 1, Unique: 10, NoRX1OrRX2: 0},
			},
		}
		node := &eng.Nodes[0]
		assert.False(shouldAbstainURCB(eng, node))
	})
}

func TestShouldAbstainFBS(t *testing.T) {
	t.Run("above-average fairness plus free gateways abstains", func(t *testing.T) {
		assert := require.New(t)
		eng := &Engine{
			Config: DefaultConfig(),
			Gateways: []Gateway{{}, {}, {}},
			Nodes: []Node{
				{ID: 0, Unique: 10, Acked: 10, ReachableAtRX2: []GatewayID{0, 1, 2}},
				{ID: 1, Unique: 10, Acked: 0},
			},
		}
		node := &eng.Nodes[0]
		assert.True(shouldAbstainFBS(eng, node))
	})

	t.Run("below-average fairness never abstains", func(t *testing.T) {
		assert := require.New(t)
		eng := &Engine{
			Config: DefaultConfig(),
			Gateways: []Gateway{{}, {}, {}},
			Nodes: []Node{
				{ID: 0, Unique: 10, Acked: 0, ReachableAtRX2: []GatewayID{0, 1, 2}},
				{ID: 1, Unique: 10, Acked: 10},
			},
		}
		node := &eng.Nodes[0]
		assert.False(shouldAbstainFBS(eng, node))
	})
}

func TestSelectURCBFallsBackToRSSIWhenNotAbstaining(t *testing.T) {
	assert := require.New(t)
	eng := &Engine{Config: DefaultConfig()}
	node := &Node{} // Unique == 0, shouldAbstainURCB is always false
	candidates := []DownlinkCandidate{
		{GatewayID: 0, Window: RX1, RxPowerDBm: -90},
		{GatewayID: 1, Window: RX1, RxPowerDBm: -70},
	}
	chosen, ok := selectURCB(eng, node, candidates)
	assert.True(ok)
	assert.Equal(GatewayID(1), chosen.GatewayID)
}
