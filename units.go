package lorasim

// units.go declares the physical and protocol constants used throughout
// the engine: the log-distance path-loss parameters, the LoRa airtime
// formula constants, the per-SF sensitivity table, the SF/SF capture
// threshold matrix, and the region-plan constants for EU868 and US915.
// These are design constants, not configuration: spec.md §4.1 and §4.2
// fix their values.

// RegionPlan selects the channel table, RX2 data rate, RX2 channel, and
// duty-cycle rules used by the downlink planner.
type RegionPlan int

const (
	EU868 RegionPlan = iota
	US915
)

func (r RegionPlan) String() string {
	switch r {
	case EU868:
		return "EU868"
	case US915:
		return "US915"
	default:
		return "unknown"
	}
}

// Path-loss model constants (spec.md §4.1): PL(d) = Lpld0 + 10*gamma*log10(d/dref)
const (
	pathLossDref    = 40.0   // m
	pathLossLpld0   = 110.0  // dB
	pathLossGamma   = 2.08   // path-loss exponent
	shadowingStdDev = 3.57   // dB, X ~ N(0, shadowingStdDev^2)
)

// LoRa airtime formula constants (spec.md §4.1). Bandwidth is in Hz and
// airtime is returned in seconds: the later-revision convention named in
// the Open Questions of spec.md §9, adopted here as canonical.
const (
	preambleSymbols  = 8    // N_pre
	preambleFraction = 4.25 // added to N_pre for preamble time
	codingRate       = 1    // CR
	headerEnabled    = 0    // H (explicit header)
	crcEnabled       = 1    // CRC
)

// preambleFloorExcludedSymbols is the number of leading preamble symbols excluded
// from the uplink-lock start time, to model early preamble detection
// (spec.md §4.4, §9 Open Question: "preamble_floor = preamble - 3 + 4.25").
const preambleFloorExcludedSymbols = 3.0

// sensitivity is the receiver sensitivity in dBm for a given (SF, bandwidth)
// pair. Only BW125 is tabulated per spec.md §4.2; BW500 sensitivities
// (used by US915 RX2) are obtained with the same table shifted by the
// 6 dB processing-gain loss of the wider channel, which is the standard
// SX1272/76 datasheet relationship and is applied in sensitivityDBm.
var sensitivityBW125 = map[int]float64{
	7:  -124,
	8:  -127,
	9:  -130,
	10: -133,
	11: -135,
	12: -137,
}

// bw500SensitivityShiftDB accounts for the wider noise bandwidth of a
// 500 kHz channel relative to the tabulated 125 kHz figures.
const bw500SensitivityShiftDB = 6.0

// sensitivityDBm returns the receiver sensitivity for (sf, bwHz).
func sensitivityDBm(sf int, bwHz float64) float64 {
	base, ok := sensitivityBW125[sf]
	if !ok {
		base = sensitivityBW125[12]
	}
	if bwHz > 125000 {
		return base + bw500SensitivityShiftDB
	}
	return base
}

// reachMarginDB is the margin (spec.md §4.2) an SF must clear above
// sensitivity, at the best-shared gateway, to be picked.
const reachMarginDB = 5.0

// captureThreshold is the asymmetric capture-threshold matrix T[sel][other]
// indexed by (SF of the selected/surviving candidate, SF of the other
// transmission), in dB. With the diagonal value of 1, two same-SF
// transmissions whose powers are within 1 dB of each other are both
// destroyed; otherwise the stronger one captures (spec.md §4.4).
// Off-diagonal values model non-orthogonal SF capture.
var captureThreshold = [7][7]float64{
	// rows/cols 1..6 are SF7..SF12 (index sf-6); row 0 and col 0 are unused
	{0, 0, 0, 0, 0, 0, 0},
	{0, 1, -8, -9, -9, -9, -9},
	{0, -11, 1, -11, -12, -13, -13},
	{0, -15, -13, 1, -13, -14, -15},
	{0, -19, -18, -17, 1, -17, -18},
	{0, -22, -22, -21, -20, 1, -20},
	{0, -25, -25, -25, -24, -23, 1},
}

// captureT returns captureThreshold[sel][other], both in 7..12.
func captureT(sel, other int) float64 {
	return captureThreshold[sel-6][other-6]
}

// TX power ladders, dBm, index 0 is the highest power step, consistent
// with the LoRaWAN MAC TXPower index convention used by adr.go.
var txPowerLadderEU868 = []float64{16, 14, 12, 10, 8, 6, 4, 2}
var txPowerLadderUS915 = []float64{30, 28, 26, 24, 22, 20, 18, 16, 14, 12, 10}

func txPowerLadder(plan RegionPlan) []float64 {
	if plan == US915 {
		return txPowerLadderUS915
	}
	return txPowerLadderEU868
}

// Required SNR per SF (dB), SF7..SF12, for ADR margin calculations
// (spec.md §4.5). These are the standard LoRa demodulator floor figures.
var requiredSNR = map[int]float64{
	7:  -7.5,
	8:  -10,
	9:  -12.5,
	10: -15,
	11: -17.5,
	12: -20,
}

// adrMarginDB is the fixed margin subtracted from the best observed SNR
// before computing the number of 3 dB power-down steps (spec.md §4.5).
const adrMarginDB = 5.0

// adrStepDB is the size of one ADR power-ladder step.
const adrStepDB = 3.0

// adrHistoryLen is the rolling window of best-SNR-per-uplink samples a
// node keeps before an ADR decision is made (spec.md §3, §4.5).
const adrHistoryLen = 10

// Duty cycle multipliers (spec.md §4.5, §4.7): 1% bands use a 99x
// multiplier on airtime for the next-allowed-time floor, the 10% RX2 band
// uses 9x.
const (
	dutyCycleMultiplier1Pct  = 99.0
	dutyCycleMultiplier10Pct = 9.0
)

// defaultAbstainFreeGWFrac is the URCB/FBS abstention threshold: abstain
// when more than this fraction of reachable gateways are free (spec.md
// §4.5, §9 Open Question — exposed as Config.AbstainFreeGWFrac).
const defaultAbstainFreeGWFrac = 2.0 / 3.0
