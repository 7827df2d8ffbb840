package lorasim

// dispatch.go implements the two event handlers the main loop in
// engine.go calls out to (spec.md §4.3 steps 1-3): an uplink dispatch
// that runs the collision engine and, for confirmed traffic or a pending
// ADR command, the downlink planner; and a downlink dispatch that runs the
// destination-side collision test and resolves the ack.

// dispatchUplink handles one popped uplink Event: the collision test at
// every gateway, energy accounting, ADR bookkeeping, and either the
// downlink planner (confirmed traffic, or unconfirmed traffic with a
// pending ADR command) or immediate delivery (other unconfirmed
// traffic), per spec.md §4.3-§4.5.
func (eng *Engine) dispatchUplink(ev *Event, stats *Stats) {
	node := &eng.Nodes[ev.NodeID]
	stats.TotalUplinks++

	uplinkAirtime := ev.End - ev.Start
	txPowerDBm := node.TxPowerDBm(eng.Config.FreqPlan)
	stats.Energy[node.ID].AccumulateTX(txPowerDBm, uplinkAirtime)

	band := eng.Region.BandOf(ev.Channel)
	node.setNextAllowed(band, ev.End+band.DutyCycleMultiplier()*uplinkAirtime)

	inFlight := eng.Queue.pendingOn(ev.Channel, ev.Start)
	receptions := ReceiveUplink(eng, ev.NodeID, ev.Start, ev.End, ev.Channel, ev.SF, inFlight)
	eng.Queue.recordDispatched(ev)

	if len(receptions) == 0 {
		stats.TotalCollisions++
		if !node.Confirmed {
			node.Dropped++
			stats.TotalDropped++
			eng.scheduleNextUplink(node, ev.End)
			return
		}
		if eng.scheduleRetry(node, ev.End) {
			stats.TotalDropped++
		}
		return
	}

	best := receptions[0]
	for _, r := range receptions[1:] {
		if r.RxPowerDBm > best.RxPowerDBm {
			best = r
		}
	}
	node.recordBestSNR(best.RxPowerDBm - sensitivityDBm(node.SF, eng.Region.UplinkBW))
	stats.Energy[node.ID].AccumulateSense(1.0)

	if !node.Confirmed {
		node.Delivered++
		stats.TotalDelivered++
	}

	// Ack-policy gate (spec.md §4.5): a confirmed uplink always proceeds
	// to the downlink planner; an unconfirmed one proceeds only if ADR
	// wants to carry a power-change command on the next downlink.
	var dec ADRDecision
	if eng.Config.ADROn {
		dec = EvaluateADR(node, len(txPowerLadder(eng.Config.FreqPlan)))
		node.PendingADR = dec.Changed
	}
	if !node.Confirmed && !node.PendingADR {
		eng.scheduleNextUplink(node, ev.End)
		return
	}

	candidates := eng.feasibleCandidates(node, receptions, ev.End)
	if len(onlyWindow(candidates, RX1)) == 0 {
		node.NoRX1++
	}
	if len(candidates) == 0 {
		node.NoRX1OrRX2++
		eng.abandonOrRetry(node, ev.End, stats)
		return
	}

	policy, ok := selectionPolicies[eng.Config.Policy]
	if !ok {
		policy = selectFCFS
	}
	chosen, ok := policy(eng, node, candidates)
	if !ok {
		node.NoRX1OrRX2++
		eng.abandonOrRetry(node, ev.End, stats)
		return
	}

	gdest := &GDest{
		NodeID: node.ID, ArrivalTime: chosen.Start, SF: chosen.SF,
		Window: chosen.Window, Channel: chosen.Channel,
	}
	if dec.Changed {
		gdest.ADRRequested = true
		gdest.NewPowerIdx = dec.NewTxIndex
		stats.TotalADRApplied++
	}

	airtime := chosen.End - chosen.Start
	stats.TotalDownlinkAirtime += airtime
	eng.Queue.Push(&Event{
		Kind: DownlinkEvent, GatewayID: chosen.GatewayID,
		Start: chosen.Start, End: chosen.End, Channel: chosen.Channel, SF: chosen.SF,
		GDest: gdest,
	})

	gw := &eng.Gateways[chosen.GatewayID]
	gw.addDownlinkBusy(chosen.Start, chosen.Start, chosen.End)
	gw.advanceDutyCycle(eng.Region.DutyCycleBandForWindow(node.LastChannel, chosen.Window), chosen.End, airtime)
	gw.AcksSent++

	if chosen.Window == RX1 {
		stats.Energy[node.ID].AccumulateRX1(airtime)
	} else {
		stats.Energy[node.ID].AccumulateRX2(airtime)
	}
}

// dispatchDownlink handles one popped downlink Event: the
// destination-side collision test, and either the ack (node accepts the
// ADR command if any, and schedules its next fresh uplink) or a retry
// (spec.md §4.6).
func (eng *Engine) dispatchDownlink(ev *Event, stats *Stats) {
	gdest := ev.GDest
	node := &eng.Nodes[gdest.NodeID]

	inFlight := eng.Queue.pendingOn(ev.Channel, ev.Start)
	survived, _ := ReceiveDownlinkAtNode(eng, gdest.NodeID, ev.GatewayID, ev.Start, ev.End, ev.Channel, ev.SF, eng.Config.GatewayTxPowerDBm, inFlight)
	eng.Queue.recordDispatched(ev)

	if !survived {
		stats.TotalCollisions++
		if node.Confirmed {
			// spec.md §4.6: retry at a short random delay past the RX2
			// window, honouring duty cycle.
			if eng.scheduleRetry(node, ev.End+eng.downlinkRetryDelay(node)) {
				stats.TotalDropped++
			}
			return
		}
		// the uplink itself was already delivered; only the optional ADR
		// command failed to arrive, so there is nothing left to retry.
		eng.scheduleNextUplink(node, ev.End)
		return
	}

	if node.Confirmed {
		node.Acked++
		stats.TotalAcked++
	}
	if gdest.ADRRequested {
		node.TxPowerIndex = gdest.NewPowerIdx
		node.PendingADR = false
	}
	eng.scheduleNextUplink(node, ev.End)
}

// abandonOrRetry handles the no-feasible-gateway / policy-abstention
// outcomes of the downlink planner: a confirmed node retries the
// underlying uplink per spec.md §4.3 step 3; an unconfirmed node simply
// moves on, since its uplink was already delivered and only the optional
// ADR command went unsent.
func (eng *Engine) abandonOrRetry(node *Node, afterTime float64, stats *Stats) {
	if !node.Confirmed {
		eng.scheduleNextUplink(node, afterTime)
		return
	}
	if eng.scheduleRetry(node, afterTime) {
		stats.TotalDropped++
	}
}
