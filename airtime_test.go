package lorasim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAirtime(t *testing.T) {
	t.Run("increases with payload size", func(t *testing.T) {
		assert := require.New(t)
		small := Airtime(7, 125000, 10, codingRate)
		large := Airtime(7, 125000, 50, codingRate)
		assert.Greater(large, small)
	})

	t.Run("increases with spreading factor at fixed payload", func(t *testing.T) {
		assert := require.New(t)
		sf7 := Airtime(7, 125000, 20, codingRate)
		sf12 := Airtime(12, 125000, 20, codingRate)
		assert.Greater(sf12, sf7)
	})

	t.Run("is memoized", func(t *testing.T) {
		assert := require.New(t)
		a := Airtime(9, 125000, 20, codingRate)
		b := Airtime(9, 125000, 20, codingRate)
		assert.Equal(a, b)
	})

	t.Run("is never negative", func(t *testing.T) {
		assert := require.New(t)
		assert.GreaterOrEqual(Airtime(7, 125000, 0, codingRate), 0.0)
	})
}

func TestPreambleFloorSeconds(t *testing.T) {
	assert := require.New(t)
	pf := preambleFloorSeconds(7, 125000)
	assert.Greater(pf, 0.0)
	assert.Less(pf, Airtime(7, 125000, 20, codingRate))
}
