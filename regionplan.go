package lorasim

// regionplan.go factors the EU868/US915 channel plan, RX2 parameters, and
// duty-cycle-band rules out of the downlink planner, in the spirit of
// the teacher-adjacent chirpstack-network-server's internal/band package
// (a single Band()-style accessor keyed by region name) — simplified here
// to a small lookup table since this engine only ever needs the handful
// of constants the planner consults, not a full regulatory band model.

// Band identifies a duty-cycle accounting bucket. EU868 has a 1% uplink
// sub-band ("48") and a 10% dedicated downlink sub-band ("54"/rx2ch);
// US915 has no per-band duty cycle in this model (spec.md §4.7, §9 Open
// Question).
type Band int

const (
	BandNone Band = iota // US915: no duty-cycle accounting
	Band48               // EU868 1% uplink/RX1 band
	Band54               // EU868 10% RX2 band
)

// RegionTable holds the channel/RX2/duty-cycle constants for one region
// plan (spec.md §4.5, §6 "fplan").
type RegionTable struct {
	Plan RegionPlan

	UplinkChannels []float64 // Hz, index is the channel identifier used throughout the engine
	UplinkBW       float64   // Hz

	// DownlinkChannels[i] is the RX1 downlink channel paired with
	// UplinkChannels[i] (US915 fixed mapping, spec.md §4.5 (iv); EU868
	// downlink uses the same channel as the uplink so this mirrors
	// UplinkChannels there).
	DownlinkChannels []float64
	DownlinkBW       float64

	RX2SF      int
	RX2Channel float64
	RX2BW      float64

	// BandOf maps an uplink channel index to its duty-cycle band.
	BandOf func(channel int) Band
}

// EU868Table is the channel plan used when Config.FreqPlan == EU868.
var EU868Table = RegionTable{
	Plan:             EU868,
	UplinkChannels:   []float64{868100000, 868300000, 868500000},
	UplinkBW:         125000,
	DownlinkChannels: []float64{868100000, 868300000, 868500000},
	DownlinkBW:       125000,
	RX2SF:            12,
	RX2Channel:       869525000,
	RX2BW:            125000,
	BandOf: func(channel int) Band {
		return Band48
	},
}

// US915Table is the channel plan used when Config.FreqPlan == US915.
var US915Table = RegionTable{
	Plan:           US915,
	UplinkChannels: []float64{902300000, 902500000, 902700000, 902900000, 903100000, 903300000, 903500000, 903700000, 903900000},
	UplinkBW:       125000,
	DownlinkChannels: []float64{
		923300000, 923900000, 924500000, 925100000, 925700000, 926300000, 926900000, 927500000,
	},
	DownlinkBW: 500000,
	RX2SF:      12,
	RX2Channel: 923300000,
	RX2BW:      500000,
	BandOf: func(channel int) Band {
		return BandNone
	},
}

// RegionTableFor returns the channel-plan constants for a region.
func RegionTableFor(plan RegionPlan) *RegionTable {
	if plan == US915 {
		return &US915Table
	}
	return &EU868Table
}

// DownlinkChannel resolves the RX1 downlink channel for a given uplink
// channel index, per spec.md §4.5 (iv): for US915 this is
// channels_d[uplink_ch_index]; for EU868 the downlink reuses the uplink
// channel.
func (rt *RegionTable) DownlinkChannel(uplinkChannel int) int {
	if rt.Plan == US915 {
		return uplinkChannel % len(rt.DownlinkChannels)
	}
	return uplinkChannel
}

// DutyCycleMultiplier returns the next-allowed-time multiplier for a band
// (spec.md §4.5: 99x on the 1% band, 9x on the 10% RX2 band).
func (b Band) DutyCycleMultiplier() float64 {
	switch b {
	case Band48:
		return dutyCycleMultiplier1Pct
	case Band54:
		return dutyCycleMultiplier10Pct
	default:
		return 0
	}
}

// String labels a band for reporting.
func (b Band) String() string {
	switch b {
	case Band48:
		return "48"
	case Band54:
		return "54/rx2ch"
	default:
		return "none"
	}
}

// DutyCycleBandForWindow resolves the duty-cycle band a downlink (or a
// node's own uplink) is charged against: RX1 shares the uplink channel's
// band, RX2 always charges the dedicated 10% band, per spec.md §4.5 and
// the §8 invariant ("10% on 54/rx2ch"). US915 has no per-band duty cycle
// in this model regardless of window.
func (rt *RegionTable) DutyCycleBandForWindow(uplinkChannel, window int) Band {
	if rt.Plan == US915 {
		return BandNone
	}
	if window == RX2 {
		return Band54
	}
	return rt.BandOf(uplinkChannel)
}
