package lorasim

// rng.go funnels every random draw in the engine through named
// rngstream.RngStream instances, one per node and one per gateway,
// exactly as net.go constructs one rngstream.RngStream per device
// ("ns.rngstrm = rngstream.New(name)") in the teacher repo. Sampling
// helpers follow the teacher's flow-sim.go convention of small pure
// functions taking uniforms and returning a sampled value
// (sampleExpRV, sampleConst), so that the distribution logic is
// trivially testable without a live RNG stream.

import (
	"fmt"
	"math"

	"github.com/iti/rngstream"
)

// rngStream is a short alias for the stream type every entity holds,
// used throughout the package to avoid repeating the import path.
type rngStream = *rngstream.RngStream

// newNamedStream builds a named, seeded RNG stream for one node or
// gateway. seed perturbs the label so that two runs over the same
// terrain with different seeds draw independent streams.
func newNamedStream(label string, seed int64) *rngstream.RngStream {
	return rngstream.New(fmt.Sprintf("%s#%d", label, seed))
}

// expRV samples an exponentially-distributed interarrival time with
// the given rate, given one uniform draw. Ported verbatim in spirit
// from flow-sim.go's expRV/sampleExpRV pair.
func expRV(u01, rate float64) float64 {
	return -math.Log(1.0-u01) / rate
}

// uniformRV maps a uniform draw on [0,1) onto [lo, hi).
func uniformRV(u01, lo, hi float64) float64 {
	return lo + u01*(hi-lo)
}

// normalRV draws one N(mean, stddev) sample via Box-Muller from two
// independent uniform draws. rngstream exposes RandU01() but not a
// Gaussian sampler, so the transform is applied here as a pure
// function, the same shape as flow-sim.go's sampleExpRV helper.
func normalRV(u1, u2, mean, stddev float64) float64 {
	// guard against log(0) from a degenerate draw
	if u1 <= 0 {
		u1 = 1e-12
	}
	z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
	return mean + stddev*z
}

// shadowingSample draws one fresh log-normal shadowing realization (dB)
// from the given stream, per spec.md §4.1: a fresh sample for every
// reception event, so the same packet seen at two gateways gets two
// independent draws.
func shadowingSample(rngstrm *rngstream.RngStream) float64 {
	return normalRV(rngstrm.RandU01(), rngstrm.RandU01(), 0.0, shadowingStdDev)
}
