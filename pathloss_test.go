package lorasim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPathLossDB(t *testing.T) {
	t.Run("floors at dref", func(t *testing.T) {
		assert := require.New(t)
		assert.Equal(pathLossLpld0, pathLossDB(1.0))
		assert.Equal(pathLossLpld0, pathLossDB(pathLossDref))
	})

	t.Run("increases with distance beyond dref", func(t *testing.T) {
		assert := require.New(t)
		near := pathLossDB(100)
		far := pathLossDB(1000)
		assert.Greater(far, near)
	})
}

func TestPathLossCache(t *testing.T) {
	assert := require.New(t)
	nodes := []Node{{ID: 0, X: 0, Y: 0}, {ID: 1, X: 300, Y: 0}}
	gateways := []Gateway{{ID: 0, X: 0, Y: 0}, {ID: 1, X: 300, Y: 400}}

	cache := BuildPathLossCache(nodes, gateways)

	assert.Equal(0.0, cache.Distance(0, 0))
	assert.InDelta(500.0, cache.Distance(0, 1), 1e-9)
	assert.InDelta(400.0, cache.Distance(1, 1), 1e-9)

	assert.Equal(pathLossDB(cache.Distance(0, 1)), cache.MeanPathLossDB(0, 1))
}
