package lorasim

// downlink.go implements the downlink planner (spec.md §4.5): the RX1/RX2
// feasibility triad, and the five gateway-selection policies. Each policy
// is a small pure function over the feasible candidate set, in the same
// shape as the teacher's routes.go picking one of several feasible next
// hops by a named strategy; here the "hops" are candidate (gateway,
// window) pairs instead of topology edges.

import (
	"sort"

	"golang.org/x/exp/slices"
)

// rxWindow identifies which receive window a candidate downlink would use.
const (
	RX1 = 1
	RX2 = 2
)

// DownlinkCandidate is one feasible (gateway, window) pair for delivering
// a downlink to the node that just transmitted an uplink.
type DownlinkCandidate struct {
	GatewayID  GatewayID
	Window     int
	Channel    int
	SF         int
	RxPowerDBm float64 // RSSI of the just-received uplink at this gateway (RX1 only meaningful measure)
	Start, End float64
}

// feasibleCandidates builds the RX1/RX2 feasibility triad for one uplink
// reception set (spec.md §4.5 (i)-(iv)): RX1 is feasible at a gateway
// that received the uplink, is not duty-cycle-locked on its band, and is
// not already downlink-busy or uplink-locked over the RX1 window; RX2 is
// feasible at any gateway in ReachableAtRX2 clear of the same
// constraints over the RX2 window.
func (eng *Engine) feasibleCandidates(node *Node, receptions []Reception, uplinkEnd float64) []DownlinkCandidate {
	var out []DownlinkCandidate

	rx1Delay := 1.0 // second, spec.md §4.5 (i): RX1 opens 1s after uplink end
	rx1Start := uplinkEnd + rx1Delay
	rx1Airtime := Airtime(node.SF, eng.Region.UplinkBW, eng.Config.PacketSize, codingRate)
	rx1End := rx1Start + rx1Airtime

	var rx1Gateways []GatewayID
	for _, r := range receptions {
		gw := &eng.Gateways[r.GatewayID]
		band := eng.Region.DutyCycleBandForWindow(node.LastChannel, RX1)
		if gw.nextDownlinkAllowed(band) > rx1Start {
			continue
		}
		if gw.downlinkBusyOverlaps(rx1Start, rx1End) {
			continue
		}
		if gw.uplinkLockedOn(node.LastChannel, rx1Start, rx1End, node.SF, false) {
			continue
		}
		out = append(out, DownlinkCandidate{
			GatewayID: r.GatewayID, Window: RX1,
			Channel: eng.Region.DownlinkChannel(node.LastChannel), SF: node.SF,
			RxPowerDBm: r.RxPowerDBm, Start: rx1Start, End: rx1End,
		})
		rx1Gateways = append(rx1Gateways, r.GatewayID)
	}

	rx2Delay := 2.0 // second, spec.md §4.5 (ii): RX2 opens 2s after uplink end
	rx2Start := uplinkEnd + rx2Delay
	rx2Airtime := Airtime(eng.Region.RX2SF, eng.Region.RX2BW, eng.Config.PacketSize, codingRate)
	rx2End := rx2Start + rx2Airtime
	rx2Channel := eng.rx2ChannelIndex()

	for _, gwID := range node.ReachableAtRX2 {
		if slices.Contains(rx1Gateways, gwID) {
			// already offered as an RX1 candidate above; RX2 on the same
			// gateway is never a better choice than its own RX1 window.
			continue
		}
		gw := &eng.Gateways[gwID]
		band := eng.Region.DutyCycleBandForWindow(node.LastChannel, RX2)
		if gw.nextDownlinkAllowed(band) > rx2Start {
			continue
		}
		if gw.downlinkBusyOverlaps(rx2Start, rx2End) {
			continue
		}
		if gw.uplinkLockedOn(rx2Channel, rx2Start, rx2End, eng.Region.RX2SF, false) {
			continue
		}
		out = append(out, DownlinkCandidate{
			GatewayID: gwID, Window: RX2,
			Channel: rx2Channel, SF: eng.Region.RX2SF,
			RxPowerDBm: -999, Start: rx2Start, End: rx2End,
		})
	}

	return out
}

// SelectionPolicy picks one candidate from a feasible set, or reports
// abstention (nil, false) when the policy decides to withhold an ack
// (spec.md §4.5 URCB/FBS abstention rule).
type SelectionPolicy func(eng *Engine, node *Node, candidates []DownlinkCandidate) (*DownlinkCandidate, bool)

// selectionPolicies maps each configured policy name to its function.
var selectionPolicies = map[SelectionPolicyName]SelectionPolicy{
	PolicyFCFS: selectFCFS,
	PolicyRSSI: selectRSSI,
	PolicyLB:   selectLeastBusy,
	PolicyURCB: selectURCB,
	PolicyFBS:  selectFBS,
}

// selectFCFS picks the RX1 candidate from the first-reporting gateway
// (lowest GatewayID), falling back to RX2 only if no RX1 candidate
// exists, per spec.md §4.5 (v).
func selectFCFS(eng *Engine, node *Node, candidates []DownlinkCandidate) (*DownlinkCandidate, bool) {
	return pickLowestGatewayID(preferRX1(candidates))
}

// selectRSSI picks the RX1 candidate with the strongest received uplink
// power, falling back to RX2 otherwise.
func selectRSSI(eng *Engine, node *Node, candidates []DownlinkCandidate) (*DownlinkCandidate, bool) {
	rx1 := onlyWindow(candidates, RX1)
	if len(rx1) == 0 {
		return pickLowestGatewayID(onlyWindow(candidates, RX2))
	}
	best := rx1[0]
	for _, c := range rx1[1:] {
		if c.RxPowerDBm > best.RxPowerDBm {
			best = c
		}
	}
	return &best, true
}

// selectLeastBusy picks the gateway with the smallest accumulated
// downlink duty-cycle airtime on the relevant band, preferring RX1
// (spec.md §4.5 LB policy); not meaningful under US915 (no bands), so
// Config.Validate rejects that combination.
func selectLeastBusy(eng *Engine, node *Node, candidates []DownlinkCandidate) (*DownlinkCandidate, bool) {
	pool := preferRX1(candidates)
	if len(pool) == 0 {
		return nil, false
	}
	bandFor := func(c DownlinkCandidate) Band {
		return eng.Region.DutyCycleBandForWindow(node.LastChannel, c.Window)
	}
	best := pool[0]
	bestBusy := eng.Gateways[best.GatewayID].DownlinkAirtime[bandFor(best)]
	for _, c := range pool[1:] {
		busy := eng.Gateways[c.GatewayID].DownlinkAirtime[bandFor(c)]
		if busy < bestBusy {
			best, bestBusy = c, busy
		}
	}
	return &best, true
}

// selectURCB implements the "underserved / retry-count-biased" policy
// (spec.md §4.5): RSSI selection, but abstains when this node's recent
// no-gw-available rate is below the network average and more than
// AbstainFreeGWFrac of its reachable gateways are currently free.
func selectURCB(eng *Engine, node *Node, candidates []DownlinkCandidate) (*DownlinkCandidate, bool) {
	if shouldAbstainURCB(eng, node) {
		return nil, false
	}
	return selectRSSI(eng, node, candidates)
}

// selectFBS implements the "fairness-biased selection" policy (spec.md
// §4.5): RSSI selection, but abstains when this node's per-ack-over-
// delivered fairness is already above the network average and more than
// AbstainFreeGWFrac of its reachable gateways are currently free.
func selectFBS(eng *Engine, node *Node, candidates []DownlinkCandidate) (*DownlinkCandidate, bool) {
	if shouldAbstainFBS(eng, node) {
		return nil, false
	}
	return selectRSSI(eng, node, candidates)
}

// freeGWFracAboveThreshold reports whether more than Config.AbstainFreeGWFrac
// of the node's reachable gateways are currently free (no active uplink
// lock, no downlink-busy interval) at the current simulation time
// (spec.md §4.5, §9 Open Question — exposed via Config.AbstainFreeGWFrac).
// Both URCB and FBS require this alongside their own node-vs-network
// comparison before abstaining.
func freeGWFracAboveThreshold(eng *Engine, node *Node) bool {
	reachable := node.ReachableAtRX2
	if len(reachable) == 0 {
		return false
	}
	free := 0
	for _, gwID := range reachable {
		if eng.Gateways[gwID].freeAt(eng.Now) {
			free++
		}
	}
	return float64(free)/float64(len(reachable)) > eng.Config.AbstainFreeGWFrac
}

// shouldAbstainURCB gates URCB's abstention on the node's recent
// no-gw-available rate (NoRX1OrRX2 over Unique) falling below the
// network average of that same rate, per spec.md §4.5.
func shouldAbstainURCB(eng *Engine, node *Node) bool {
	if node.Unique == 0 {
		return false
	}
	nodeRate := float64(node.NoRX1OrRX2) / float64(node.Unique)
	return nodeRate < eng.networkAvgNoGWRate() && freeGWFracAboveThreshold(eng, node)
}

// shouldAbstainFBS gates FBS's abstention on the node's own
// Acked/Unique fairness already exceeding the network average fairness,
// per spec.md §4.5.
func shouldAbstainFBS(eng *Engine, node *Node) bool {
	if node.Unique == 0 {
		return false
	}
	return node.fairnessRatio() > eng.networkAvgFairness() && freeGWFracAboveThreshold(eng, node)
}

// networkAvgNoGWRate is the mean no-gw-available rate (NoRX1OrRX2/Unique)
// across every node that has sent at least one uplink, the network-wide
// comparison basis for URCB's abstention rule (spec.md §4.5).
func (eng *Engine) networkAvgNoGWRate() float64 {
	var sum float64
	var n int
	for i := range eng.Nodes {
		if eng.Nodes[i].Unique == 0 {
			continue
		}
		sum += float64(eng.Nodes[i].NoRX1OrRX2) / float64(eng.Nodes[i].Unique)
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// networkAvgFairness is the mean Acked/Unique fairness ratio across every
// node that has sent at least one uplink, the network-wide comparison
// basis for FBS's abstention rule (spec.md §4.5).
func (eng *Engine) networkAvgFairness() float64 {
	var sum float64
	var n int
	for i := range eng.Nodes {
		if eng.Nodes[i].Unique == 0 {
			continue
		}
		sum += eng.Nodes[i].fairnessRatio()
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func preferRX1(candidates []DownlinkCandidate) []DownlinkCandidate {
	rx1 := onlyWindow(candidates, RX1)
	if len(rx1) > 0 {
		return rx1
	}
	return onlyWindow(candidates, RX2)
}

func onlyWindow(candidates []DownlinkCandidate, window int) []DownlinkCandidate {
	var out []DownlinkCandidate
	for _, c := range candidates {
		if c.Window == window {
			out = append(out, c)
		}
	}
	return out
}

func pickLowestGatewayID(candidates []DownlinkCandidate) (*DownlinkCandidate, bool) {
	if len(candidates) == 0 {
		return nil, false
	}
	sorted := make([]DownlinkCandidate, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].GatewayID < sorted[j].GatewayID })
	best := sorted[0]
	return &best, true
}
