package lorasim

// engine.go wires the terrain, region table, path-loss cache, and event
// queue into the single object the rest of the package operates on, and
// drives the main dispatch loop (spec.md §4.3 steps 1-3). It follows the
// teacher's scheduler.go shape: one struct owning the simulation state,
// one Run-style loop pulling the next event and dispatching on its kind,
// with a logrus.Entry for structured progress/trace output in place of
// the teacher's trace.go bespoke tracing manager.

import (
	"github.com/sirupsen/logrus"
)

// Engine owns every piece of simulation state for one run: the device
// arenas, the region's channel/RX2/duty-cycle table, the path-loss cache,
// the per-channel event queue, and the run configuration.
type Engine struct {
	Config Config

	Nodes    []Node
	Gateways []Gateway

	Region   *RegionTable
	PathLoss *PathLossCache
	Queue    *EventQueue

	Now float64 // current simulation time, seconds

	log *logrus.Entry

	seq int // per-run sequence counter; not read anywhere (uplink Event.Seq comes from Node.FCntUp)
}

// NewEngine builds an Engine from a validated configuration and a parsed
// terrain. It assigns spreading factors to every node before returning,
// since nothing downstream can run without them (spec.md §4.2).
func NewEngine(cfg Config, terrain *Terrain, log *logrus.Entry) *Engine {
	region := RegionTableFor(cfg.FreqPlan)

	nodes := make([]Node, len(terrain.Nodes))
	for i, tn := range terrain.Nodes {
		nodes[i] = Node{
			ID:    NodeID(i),
			Label: tn.Label,
			X:     tn.X,
			Y:     tn.Y,
			rngstrm: newNamedStream("node-"+tn.Label, cfg.Seed),
		}
		nodes[i].Confirmed = nodes[i].rngstrm.RandU01() < cfg.ConfirmedPerc
	}

	gwTerrain := terrain.Gateways
	if cfg.DoubleGWs {
		gwTerrain = doubleGateways(gwTerrain)
	}

	gateways := make([]Gateway, len(gwTerrain))
	for i, tg := range gwTerrain {
		gw := newGateway(GatewayID(i), tg.Label, tg.X, tg.Y, newNamedStream("gw-"+tg.Label, cfg.Seed))
		gateways[i] = *gw
	}

	cache := BuildPathLossCache(nodes, gateways)

	eng := &Engine{
		Config:   cfg,
		Nodes:    nodes,
		Gateways: gateways,
		Region:   region,
		PathLoss: cache,
		Queue:    NewEventQueue(),
		log:      log,
	}

	AssignSF(eng.Nodes, eng.Gateways, eng.PathLoss, eng.Region)

	return eng
}

// doubleGateways duplicates every gateway at the same coordinates under
// a distinguishing label suffix, for the Config.DoubleGWs capacity-study
// knob (spec.md §6 "double_gws"): doubling gateway density at fixed
// terrain is the standard way this model explores the
// reception-redundancy side of capacity without regenerating terrain.
func doubleGateways(gws []TerrainGateway) []TerrainGateway {
	out := make([]TerrainGateway, 0, len(gws)*2)
	out = append(out, gws...)
	for _, g := range gws {
		out = append(out, TerrainGateway{Label: g.Label + "'", X: g.X, Y: g.Y})
	}
	return out
}

// rx2ChannelIndex returns the channel identifier reserved for RX2 in the
// engine's channel numbering: one past the last uplink channel, so RX2
// never aliases an uplink/RX1 channel in the per-channel event queue.
func (eng *Engine) rx2ChannelIndex() int {
	return len(eng.Region.UplinkChannels)
}

// horizonSeconds is the configured simulation horizon in seconds.
func (eng *Engine) horizonSeconds() float64 {
	return eng.Config.SimTimeHours * 3600.0
}

// Run drives the dispatch loop until the event queue empties within the
// horizon, or the auto-stop heuristic (spec.md §9 Design Note, stats.go)
// fires. It returns the accumulated statistics.
func (eng *Engine) Run() *Stats {
	stats := NewStats(eng)

	eng.scheduleInitialUplinks()

	for {
		startTime, ok := eng.Queue.PeekEarliest()
		if !ok {
			break
		}
		if startTime >= eng.horizonSeconds() {
			break
		}

		ev, ok := eng.Queue.PopEarliest()
		if !ok {
			break
		}
		eng.Now = ev.Start

		switch ev.Kind {
		case UplinkEvent:
			eng.dispatchUplink(ev, stats)
		case DownlinkEvent:
			eng.dispatchDownlink(ev, stats)
		}

		if eng.Config.AutoStopEnabled && stats.autoStopTriggered() {
			eng.log.WithField("now", eng.Now).Info("auto-stop threshold reached, ending run early")
			break
		}
	}

	stats.Finalize()
	return stats
}

// scheduleInitialUplinks draws the first uplink for every node, per
// spec.md §4.3 step 0.
func (eng *Engine) scheduleInitialUplinks() {
	for i := range eng.Nodes {
		eng.scheduleNextUplink(&eng.Nodes[i], 0)
	}
}
