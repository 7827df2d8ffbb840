package lorasim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAssignSF(t *testing.T) {
	t.Run("close node gets the lowest SF", func(t *testing.T) {
		assert := require.New(t)
		nodes := []Node{{ID: 0, Label: "1", X: 0, Y: 0}}
		gateways := []Gateway{{ID: 0, X: 100, Y: 0}}
		cache := BuildPathLossCache(nodes, gateways)
		rt := RegionTableFor(EU868)

		AssignSF(nodes, gateways, cache, rt)
		assert.Equal(7, nodes[0].SF)
		assert.Contains(nodes[0].ReachableAtRX2, GatewayID(0))
	})

	t.Run("unreachable node panics with a typed error", func(t *testing.T) {
		assert := require.New(t)
		nodes := []Node{{ID: 0, Label: "far", X: 1e9, Y: 1e9}}
		gateways := []Gateway{{ID: 0, X: 0, Y: 0}}
		cache := BuildPathLossCache(nodes, gateways)
		rt := RegionTableFor(EU868)

		assert.Panics(func() {
			AssignSF(nodes, gateways, cache, rt)
		})

		func() {
			defer func() {
				r := recover()
				_, ok := r.(*UnreachableNodeError)
				assert.True(ok)
			}()
			AssignSF(nodes, gateways, cache, rt)
		}()
	})

	t.Run("a node reachable only at US915's higher top TX power does not panic", func(t *testing.T) {
		assert := require.New(t)

		// Pick a distance whose mean path loss leaves positive margin at
		// US915's 30 dBm top rung (even at SF12) but none at EU868's
		// 16 dBm rung at any SF: solving reachMarginDB = ptx - PL - sens,
		// the 14 dB TX-power gap between the two ladders' top steps
		// translates directly into reach at distances EU868 cannot cover.
		nodes := []Node{{ID: 0, Label: "1", X: 3000, Y: 0}}
		gateways := []Gateway{{ID: 0, X: 0, Y: 0}}
		cache := BuildPathLossCache(nodes, gateways)

		eu868Reach := reachMargin(nodes[0].ID, gateways[0].ID, cache, 12, EU868Table.UplinkBW, EU868)
		assert.Less(eu868Reach, reachMarginDB, "fixture must be unreachable under EU868 for this test to be meaningful")

		us915 := RegionTableFor(US915)
		assert.NotPanics(func() {
			AssignSF(nodes, gateways, cache, us915)
		})
		assert.GreaterOrEqual(nodes[0].SF, 7)
		assert.LessOrEqual(nodes[0].SF, 12)
	})
}
