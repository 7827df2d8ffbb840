package lorasim

import "math"

// adr.go implements the ADR power-step decision (spec.md §4.5 "ADR"),
// kept as a standalone pure function separable from gateway-selection
// policy per Design Note 5, in the shape of chirpstack-network-server's
// internal/adr/default.go: derive a margin from observed SNR history,
// convert the margin into whole power-ladder steps, and report nsteps=0
// when no change is warranted.

// ADRDecision is the outcome of evaluating one node's SNR history.
type ADRDecision struct {
	Steps      int  // positive: reduce TX power by this many 3 dB rungs; negative: increase
	NewTxIndex int  // resulting ladder index, already clamped
	Changed    bool
}

// EvaluateADR computes the ADR power step for a node from its rolling
// best-SNR history (spec.md §4.5): margin = max(history) - requiredSNR[sf]
// - adrMarginDB; nsteps = floor(margin / adrStepDB); the node's TX power
// index increases by nsteps (weaker signal needed -> lower index/higher
// power would be negative nsteps; here the convention follows
// txPowerLadder's index 0 = max power, so a positive margin raises the
// index to step power down).
func EvaluateADR(n *Node, ladderLen int) ADRDecision {
	if len(n.BestSNR) < adrHistoryLen {
		return ADRDecision{}
	}
	maxSNR := n.BestSNR[0]
	for _, s := range n.BestSNR[1:] {
		if s > maxSNR {
			maxSNR = s
		}
	}

	req, ok := requiredSNR[n.SF]
	if !ok {
		req = requiredSNR[12]
	}
	margin := maxSNR - req - adrMarginDB
	nsteps := int(math.Floor(margin / adrStepDB))
	if nsteps == 0 {
		return ADRDecision{}
	}

	newIdx := n.TxPowerIndex + nsteps
	if newIdx < 0 {
		newIdx = 0
	}
	if newIdx >= ladderLen {
		newIdx = ladderLen - 1
	}
	if newIdx == n.TxPowerIndex {
		return ADRDecision{}
	}
	return ADRDecision{Steps: nsteps, NewTxIndex: newIdx, Changed: true}
}
