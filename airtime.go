package lorasim

// airtime.go implements the LoRa time-on-air formula (spec.md §4.1) and
// memoizes results by (sf, bw, payload, cr), in the spirit of
// buildDevExecTimeTbl's map[string]map[string]float64 memoization idiom
// in the teacher's mrnes.go, adapted to the airtime domain.

import "math"

type airtimeKey struct {
	sf      int
	bwHz    float64
	payload int
	cr      int
}

var airtimeCache = make(map[airtimeKey]float64)

// Airtime returns the time-on-air in seconds for a LoRa frame with the
// given spreading factor, bandwidth (Hz), payload size (bytes), and
// coding rate. Results are memoized; bw/sf/payload/cr combinations
// recur constantly across a run (same device retransmitting, same
// downlink SF on every ack) so the cache avoids recomputing the
// symbol-count formula every time.
func Airtime(sf int, bwHz float64, payload int, cr int) float64 {
	key := airtimeKey{sf: sf, bwHz: bwHz, payload: payload, cr: cr}
	if v, ok := airtimeCache[key]; ok {
		return v
	}
	v := computeAirtime(sf, bwHz, payload, cr)
	airtimeCache[key] = v
	return v
}

func computeAirtime(sf int, bwHz float64, payload int, cr int) float64 {
	ts := math.Exp2(float64(sf)) / bwHz

	tPreamble := (float64(preambleSymbols) + preambleFraction) * ts

	de := 0
	if bwHz == 125000 && (sf == 11 || sf == 12) {
		de = 1
	}

	numerator := 8*float64(payload) - 4*float64(sf) + 28 + 16*float64(crcEnabled) - 20*float64(headerEnabled)
	denominator := 4 * float64(sf-2*de)

	nSymPayload := 0.0
	if numerator > 0 {
		nSymPayload = math.Ceil(numerator/denominator) * float64(cr+4)
	}
	nSym := 8 + math.Max(nSymPayload, 0)

	tPayload := nSym * ts
	return tPreamble + tPayload
}

// preambleFloorSeconds returns the duration, in seconds, excluded from the
// front of an uplink-lock window to model early preamble detection
// (spec.md §4.4, §9 Open Question).
func preambleFloorSeconds(sf int, bwHz float64) float64 {
	ts := math.Exp2(float64(sf)) / bwHz
	return (float64(preambleSymbols) - preambleFloorExcludedSymbols + preambleFraction) * ts
}
