package lorasim

// collision.go implements the per-gateway capture decision (spec.md §4.4
// "Collision engine"). The same capture primitive is reused, unchanged,
// for the destination-side downlink collision test in spec.md §4.6, per
// Design Note 5: the collision math is kept separable from both the
// uplink suppression bookkeeping (gateway state) and the downlink
// planning/ADR decision that follows a successful reception.

// Candidate is one transmission that might interfere with a selected
// one, at the power it is received with by the same receiver (gateway or
// node) that is evaluating the selected transmission.
type Candidate struct {
	Start, End float64
	SF         int
	RxPowerDBm float64
}

// overlapClass returns the spec.md §4.4 "overlap" value: +1 if the two
// intervals overlap in time, +2 if the SFs are equal. Only 1 (orthogonal
// SFs, time-overlapping) and 3 (co-SF, time-overlapping) matter.
func overlapClass(selStart, selEnd float64, selSF int, other Candidate) int {
	class := 0
	if selStart < other.End && selEnd > other.Start {
		class += 1
	}
	if selSF == other.SF {
		class += 2
	}
	return class
}

// CaptureOutcome is the result of testing one selected transmission
// against the other candidates received at the same point.
type CaptureOutcome int

const (
	Captured  CaptureOutcome = iota // sel survives, demodulated
	Destroyed                       // sel is destroyed by collision
)

// Capture decides whether the selected transmission (selSF, selRxPower)
// survives against the given candidates at one receiver, per spec.md
// §4.4's co-SF and non-orthogonal rules. fullCollision enables the
// non-orthogonal (overlap==1) capture test; when false, non-orthogonal
// overlaps never interfere (spec.md §8 round-trip law: "both are
// demodulated (no mutual suppression)" when full_collision=false).
func Capture(selStart, selEnd float64, selSF int, selRxPower float64, candidates []Candidate, fullCollision bool) CaptureOutcome {
	for _, other := range candidates {
		class := overlapClass(selStart, selEnd, selSF, other)
		switch class {
		case 3: // co-SF, time-overlapping
			if coSFDestroysSelected(selSF, selRxPower, other) {
				return Destroyed
			}
		case 1: // orthogonal SF, time-overlapping
			if fullCollision && nonOrthogonalDestroysSelected(selSF, selRxPower, other) {
				return Destroyed
			}
		}
	}
	return Captured
}

// coSFDestroysSelected applies spec.md §4.4's co-SF rule: if the two
// powers are within the diagonal capture threshold, both are destroyed;
// otherwise the stronger one captures and the weaker is suppressed.
func coSFDestroysSelected(sf int, selPower float64, other Candidate) bool {
	threshold := captureT(sf, sf)
	if absF(selPower-other.RxPowerDBm) <= threshold {
		return true // both destroyed
	}
	return selPower < other.RxPowerDBm // selected is the weaker one
}

// nonOrthogonalDestroysSelected applies spec.md §4.4's asymmetric
// 2x2 threshold comparison: if neither side's capture margin holds, both
// are destroyed; otherwise the weaker side is suppressed.
func nonOrthogonalDestroysSelected(selSF int, selPower float64, other Candidate) bool {
	selMargin := selPower - other.RxPowerDBm
	otherMargin := other.RxPowerDBm - selPower

	selCaptures := selMargin > captureT(selSF, other.SF)
	otherCaptures := otherMargin > captureT(other.SF, selSF)

	if !selCaptures && !otherCaptures {
		return true // both destroyed
	}
	return !selCaptures // the selected transmission is the weaker/suppressed side
}

func absF(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// Reception is one gateway's successful demodulation of an uplink.
type Reception struct {
	GatewayID GatewayID
	RxPowerDBm float64
}

// ReceiveUplink runs the full per-gateway collision test for one uplink
// (spec.md §4.4): for each gateway, it checks sensitivity, downlink-busy
// and same-SF-lock suppression, then runs the capture test against every
// overlapping transmission on the same channel, and on success installs
// the uplink-lock record. It returns the list of gateways that
// successfully demodulated the packet, each with its RSSI.
//
// inFlight is every other transmission (uplink or downlink) currently
// present on the selected channel, used to build each gateway's
// candidate list; the caller is responsible for restricting it to the
// same channel before calling, and for excluding the selected
// transmission itself.
func ReceiveUplink(eng *Engine, nodeID NodeID, start, end float64, channel, sf int, inFlight []*Event) []Reception {
	var received []Reception
	node := &eng.Nodes[nodeID]

	for gi := range eng.Gateways {
		gw := &eng.Gateways[gi]

		rxPower := eng.PathLoss.ReceivedPowerDBm(nodeID, gw.ID, node.TxPowerDBm(eng.Config.FreqPlan), gw.rngstrm)
		if rxPower < sensitivityDBm(sf, eng.Region.UplinkBW) {
			continue // below sensitivity at this gateway
		}

		if gw.downlinkBusyOverlaps(start, end) {
			continue
		}
		if gw.uplinkLockedOn(channel, start, end, sf, true) {
			continue
		}

		candidates := eng.buildUplinkCandidates(gw, channel, start, end, inFlight)

		if Capture(start, end, sf, rxPower, candidates, eng.Config.FullCollision) == Destroyed {
			continue
		}

		lockStart := start + preambleFloorSeconds(sf, eng.Region.UplinkBW)
		gw.lockUplink(channel, lockStart, end, sf)

		received = append(received, Reception{GatewayID: gw.ID, RxPowerDBm: rxPower})
	}

	return received
}

// buildUplinkCandidates resolves, for one gateway, the received power of
// every in-flight transmission that could overlap the selected uplink on
// the same channel (spec.md §4.4: "sta' <= sel_end, end' >= sel_sta").
func (eng *Engine) buildUplinkCandidates(gw *Gateway, channel int, selStart, selEnd float64, inFlight []*Event) []Candidate {
	var out []Candidate
	for _, other := range inFlight {
		if other.Channel != channel {
			continue
		}
		if !(other.Start <= selEnd && other.End >= selStart) {
			continue
		}
		var rxPower float64
		if other.Kind == UplinkEvent {
			n := &eng.Nodes[other.NodeID]
			rxPower = eng.PathLoss.ReceivedPowerDBm(other.NodeID, gw.ID, n.TxPowerDBm(eng.Config.FreqPlan), gw.rngstrm)
		} else {
			// a downlink from another gateway interfering at this gateway:
			// not physically meaningful for uplink reception (gateways do
			// not receive each other's downlinks as uplink candidates in
			// this model) — uplinks only interfere with other uplinks here.
			continue
		}
		out = append(out, Candidate{Start: other.Start, End: other.End, SF: other.SF, RxPowerDBm: rxPower})
	}
	return out
}

// ReceiveDownlinkAtNode runs the collision test at the destination node
// for a downlink (spec.md §4.6). Interference sources are other nodes
// (device-to-node distance) and other gateways (gateway-to-node distance,
// using the gateway TX power). It returns whether the downlink survives.
// originGatewayID is the gateway sending this downlink, carried on the
// Event itself (Event.GatewayID) rather than re-derived from the event
// queue, since by the time this runs the event has already been popped.
func ReceiveDownlinkAtNode(eng *Engine, destNodeID NodeID, originGatewayID GatewayID, start, end float64, channel, sf int, downlinkTxPowerDBm float64, inFlight []*Event) (survived bool, rxPowerDBm float64) {
	node := &eng.Nodes[destNodeID]
	d := eng.PathLoss.Distance(destNodeID, originGatewayID)
	rxPower := ReceivedPowerAtDistDBm(d, downlinkTxPowerDBm, node.rngstrm)

	if rxPower < sensitivityDBm(sf, eng.downlinkBWForChannel(channel)) {
		return false, rxPower
	}

	candidates := eng.buildDownlinkDestCandidates(node, channel, start, end, inFlight)
	outcome := Capture(start, end, sf, rxPower, candidates, eng.Config.FullCollision)
	return outcome == Captured, rxPower
}

// buildDownlinkDestCandidates resolves interference at a destination
// node from other in-flight transmissions on the same channel: other
// nodes' uplinks (device-to-node distance) and other gateways' downlinks
// (gateway-to-node distance, at gateway TX power), per spec.md §4.6.
func (eng *Engine) buildDownlinkDestCandidates(node *Node, channel int, selStart, selEnd float64, inFlight []*Event) []Candidate {
	var out []Candidate
	for _, other := range inFlight {
		if other.Channel != channel {
			continue
		}
		if !(other.Start <= selEnd && other.End >= selStart) {
			continue
		}
		var d, txPower float64
		if other.Kind == UplinkEvent {
			n := &eng.Nodes[other.NodeID]
			d = distance(node.X, node.Y, n.X, n.Y)
			txPower = n.TxPowerDBm(eng.Config.FreqPlan)
		} else {
			gw := &eng.Gateways[other.GatewayID]
			d = distance(node.X, node.Y, gw.X, gw.Y)
			txPower = eng.Config.GatewayTxPowerDBm
		}
		rxPower := ReceivedPowerAtDistDBm(d, txPower, node.rngstrm)
		out = append(out, Candidate{Start: other.Start, End: other.End, SF: other.SF, RxPowerDBm: rxPower})
	}
	return out
}

// downlinkBWForChannel resolves the bandwidth in effect on a downlink
// channel; RX2 uses the region's RX2 bandwidth, RX1 reuses the uplink
// bandwidth (EU868) or the region's downlink bandwidth table (US915).
func (eng *Engine) downlinkBWForChannel(channel int) float64 {
	if channel == eng.rx2ChannelIndex() {
		return eng.Region.RX2BW
	}
	return eng.Region.DownlinkBW
}
