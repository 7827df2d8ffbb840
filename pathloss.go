package lorasim

// pathloss.go implements the log-distance path-loss model and the
// per-(node,gateway) distance cache (spec.md §4.1, §2 "Path-loss cache").
// Distances are static for the run (terrain is fixed once built), so
// they are computed once and memoized; the shadowing term is drawn
// fresh on every reception and is therefore never cached here.

import "math"

// distance returns the Euclidean distance in meters between two points.
func distance(x1, y1, x2, y2 float64) float64 {
	dx := x1 - x2
	dy := y1 - y2
	return math.Sqrt(dx*dx + dy*dy)
}

// pathLossDB computes PL(d) = Lpld0 + 10*gamma*log10(d/dref), floored at
// d=dref so a co-located transmitter/receiver doesn't take a negative or
// undefined loss.
func pathLossDB(d float64) float64 {
	if d < pathLossDref {
		d = pathLossDref
	}
	return pathLossLpld0 + 10*pathLossGamma*math.Log10(d/pathLossDref)
}

// PathLossCache precomputes the node<->gateway distances for a terrain,
// so the collision engine and SF assigner never recompute geometry.
type PathLossCache struct {
	// dist[nodeID][gatewayID] is the Euclidean distance in meters.
	dist [][]float64
}

// BuildPathLossCache computes the full distance matrix for the given
// nodes and gateways.
func BuildPathLossCache(nodes []Node, gateways []Gateway) *PathLossCache {
	c := &PathLossCache{dist: make([][]float64, len(nodes))}
	for i := range nodes {
		row := make([]float64, len(gateways))
		for j := range gateways {
			row[j] = distance(nodes[i].X, nodes[i].Y, gateways[j].X, gateways[j].Y)
		}
		c.dist[i] = row
	}
	return c
}

// Distance returns the cached node-gateway distance.
func (c *PathLossCache) Distance(nodeID NodeID, gatewayID GatewayID) float64 {
	return c.dist[nodeID][gatewayID]
}

// MeanPathLossDB returns the shadowing-free path loss between a node and
// a gateway, used by the SF assigner (spec.md §4.2: "mean received power
// (shadowing=0)").
func (c *PathLossCache) MeanPathLossDB(nodeID NodeID, gatewayID GatewayID) float64 {
	return pathLossDB(c.Distance(nodeID, gatewayID))
}

// ReceivedPowerDBm computes Ptx - PL(d) - X for a fresh shadowing draw X,
// drawn from the supplied stream (spec.md §4.1).
func (c *PathLossCache) ReceivedPowerDBm(nodeID NodeID, gatewayID GatewayID, txPowerDBm float64, rngstrm rngStream) float64 {
	pl := c.MeanPathLossDB(nodeID, gatewayID)
	return txPowerDBm - pl - shadowingSample(rngstrm)
}

// ReceivedPowerAtDistDBm is the same computation for an arbitrary
// distance, used by the destination-side downlink collision test
// (spec.md §4.6) where interference sources are device-to-node or
// gateway-to-node distances not captured by the node<->gateway matrix.
func ReceivedPowerAtDistDBm(d, txPowerDBm float64, rngstrm rngStream) float64 {
	return txPowerDBm - pathLossDB(d) - shadowingSample(rngstrm)
}
