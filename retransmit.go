package lorasim

// retransmit.go implements uplink scheduling: the interarrival-time draw
// for a fresh packet, the random channel-reselection-on-retry rule, the
// per-node retry cap, and the EU868 1% duty-cycle floor on the next
// uplink (spec.md §4.3, §4.7). Channel and packet-size draws follow the
// teacher's flow-sim.go convention: one named rngstream per entity, one
// pure sampling function per distribution.

// scheduleNextUplink draws and enqueues a node's next fresh uplink
// (spec.md §4.3 step 0/§4.7): a random channel (uniform over the
// region's uplink channels), a packet size per Config, and a start time
// no earlier than the node's per-band duty-cycle floor.
func (eng *Engine) scheduleNextUplink(n *Node, afterTime float64) {
	channel := eng.randomChannel(n, -1)
	n.LastChannel = channel
	n.PayloadSize = eng.samplePacketSize(n)
	n.Retries = 0

	interarrival := eng.sampleInterarrival(n)
	start := afterTime + interarrival

	band := eng.Region.BandOf(channel)
	if floor := n.nextAllowed(band); floor > start {
		start = floor
	}

	airtime := Airtime(n.SF, eng.Region.UplinkBW, n.PayloadSize, codingRate)
	end := start + airtime

	n.FCntUp++
	n.Unique++

	eng.Queue.Push(&Event{
		Kind: UplinkEvent, NodeID: n.ID,
		Start: start, End: end, Channel: channel, SF: n.SF, Seq: n.FCntUp,
	})
}

// scheduleRetry re-enqueues the same logical packet on a different
// channel (spec.md §4.3 step 3, "random channel reselection excluding
// the one just used"), or drops it if the retry cap has been reached.
func (eng *Engine) scheduleRetry(n *Node, afterTime float64) (dropped bool) {
	n.Retries++
	if n.Retries > eng.Config.MaxRetr {
		n.Dropped++
		eng.scheduleNextUplink(n, afterTime)
		return true
	}

	channel := eng.randomChannel(n, n.LastChannel)
	n.LastChannel = channel

	start := afterTime
	band := eng.Region.BandOf(channel)
	if floor := n.nextAllowed(band); floor > start {
		start = floor
	}

	airtime := Airtime(n.SF, eng.Region.UplinkBW, n.PayloadSize, codingRate)
	end := start + airtime

	eng.Queue.Push(&Event{
		Kind: UplinkEvent, NodeID: n.ID,
		Start: start, End: end, Channel: channel, SF: n.SF, Seq: n.FCntUp,
	})
	return false
}

// downlinkRetryDelay draws the short random delay spec.md §4.6 adds
// before retrying a packet whose downlink failed the destination-side
// collision test: 2 + U(0,3) seconds past the RX2 window.
func (eng *Engine) downlinkRetryDelay(n *Node) float64 {
	return 2.0 + uniformRV(n.rngstrm.RandU01(), 0, 3)
}

// randomChannel draws a uniform random uplink channel index, excluding
// exclude (pass -1 to exclude nothing), per spec.md §4.3 step 3.
func (eng *Engine) randomChannel(n *Node, exclude int) int {
	nch := len(eng.Region.UplinkChannels)

	var allowed []int
	for i := 0; i < nch; i++ {
		if i != exclude {
			allowed = append(allowed, i)
		}
	}
	if len(allowed) == 0 {
		return 0
	}

	idx := int(uniformRV(n.rngstrm.RandU01(), 0, float64(len(allowed))))
	if idx >= len(allowed) {
		idx = len(allowed) - 1
	}
	return allowed[idx]
}

// sampleInterarrival draws the next-packet interarrival time (spec.md
// §4.3, §6 "packets_per_hour"): a fixed period when FixedPacketRate is
// set, otherwise an exponential draw with that mean rate.
func (eng *Engine) sampleInterarrival(n *Node) float64 {
	meanSeconds := 3600.0 / eng.Config.PacketsPerHour
	if eng.Config.FixedPacketRate {
		return meanSeconds
	}
	return expRV(n.rngstrm.RandU01(), 1.0/meanSeconds)
}

// samplePacketSize draws the payload size in bytes (spec.md §6
// "packet_size"/"packet_size_distr"): fixed, or drawn from the
// configured distribution centered on PacketSize.
func (eng *Engine) samplePacketSize(n *Node) int {
	if eng.Config.FixedPacketSize {
		return eng.Config.PacketSize
	}
	base := float64(eng.Config.PacketSize)
	switch eng.Config.PacketSizeDistr {
	case DistrNormal:
		v := normalRV(n.rngstrm.RandU01(), n.rngstrm.RandU01(), base, base*0.1)
		return clampPacketSize(v)
	default:
		v := uniformRV(n.rngstrm.RandU01(), base*0.5, base*1.5)
		return clampPacketSize(v)
	}
}

func clampPacketSize(v float64) int {
	if v < 1 {
		return 1
	}
	return int(v)
}
