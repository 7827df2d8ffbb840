package lorasim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOverlapClass(t *testing.T) {
	assert := require.New(t)

	assert.Equal(2, overlapClass(0, 1, 7, Candidate{Start: 5, End: 6, SF: 7}))
	assert.Equal(1, overlapClass(0, 2, 7, Candidate{Start: 1, End: 3, SF: 8}))
	assert.Equal(3, overlapClass(0, 2, 7, Candidate{Start: 1, End: 3, SF: 7}))
}

func TestCaptureCoSF(t *testing.T) {
	t.Run("non-overlapping transmissions do not collide", func(t *testing.T) {
		assert := require.New(t)
		out := Capture(0, 1, 7, -100, []Candidate{{Start: 2, End: 3, SF: 7, RxPowerDBm: -80}}, true)
		assert.Equal(Captured, out)
	})

	t.Run("much stronger selected transmission survives co-SF collision", func(t *testing.T) {
		assert := require.New(t)
		out := Capture(0, 1, 7, -80, []Candidate{{Start: 0, End: 1, SF: 7, RxPowerDBm: -110}}, true)
		assert.Equal(Captured, out)
	})

	t.Run("weaker selected transmission is destroyed by co-SF collision", func(t *testing.T) {
		assert := require.New(t)
		out := Capture(0, 1, 7, -110, []Candidate{{Start: 0, End: 1, SF: 7, RxPowerDBm: -80}}, true)
		assert.Equal(Destroyed, out)
	})

	t.Run("near-equal co-SF powers destroy both", func(t *testing.T) {
		assert := require.New(t)
		out := Capture(0, 1, 7, -80.5, []Candidate{{Start: 0, End: 1, SF: 7, RxPowerDBm: -80}}, true)
		assert.Equal(Destroyed, out)
	})
}

func TestCaptureNonOrthogonal(t *testing.T) {
	t.Run("disabled when full_collision is false", func(t *testing.T) {
		assert := require.New(t)
		out := Capture(0, 1, 7, -130, []Candidate{{Start: 0, End: 1, SF: 8, RxPowerDBm: -60}}, false)
		assert.Equal(Captured, out)
	})

	t.Run("enabled: strong interferer on a different SF can still destroy", func(t *testing.T) {
		assert := require.New(t)
		out := Capture(0, 1, 7, -130, []Candidate{{Start: 0, End: 1, SF: 8, RxPowerDBm: -60}}, true)
		assert.Equal(Destroyed, out)
	})

	t.Run("enabled: sufficient margin over a weak interferer survives", func(t *testing.T) {
		assert := require.New(t)
		out := Capture(0, 1, 7, -60, []Candidate{{Start: 0, End: 1, SF: 8, RxPowerDBm: -130}}, true)
		assert.Equal(Captured, out)
	})
}
