package lorasim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGatewayUplinkLock(t *testing.T) {
	t.Run("a fresh gateway holds no lock", func(t *testing.T) {
		assert := require.New(t)
		gw := newGateway(0, "A", 0, 0, nil)
		assert.False(gw.uplinkLockedOn(0, 0, 1, 7, false))
	})

	t.Run("lockUplink installs a lock that then reports overlap", func(t *testing.T) {
		assert := require.New(t)
		gw := newGateway(0, "A", 0, 0, nil)
		ok := gw.lockUplink(0, 0, 10, 7)
		assert.True(ok)
		assert.True(gw.uplinkLockedOn(0, 5, 6, 7, true))
		assert.False(gw.uplinkLockedOn(0, 5, 6, 8, true))
	})

	t.Run("a new lock never pre-empts an active unexpired one", func(t *testing.T) {
		assert := require.New(t)
		gw := newGateway(0, "A", 0, 0, nil)
		assert.True(gw.lockUplink(0, 0, 10, 7))
		assert.False(gw.lockUplink(0, 5, 15, 8))
	})

	t.Run("a lock can be replaced once it has ended", func(t *testing.T) {
		assert := require.New(t)
		gw := newGateway(0, "A", 0, 0, nil)
		assert.True(gw.lockUplink(0, 0, 10, 7))
		assert.True(gw.lockUplink(0, 10, 20, 8))
	})
}

func TestGatewayDownlinkBusy(t *testing.T) {
	assert := require.New(t)
	gw := newGateway(0, "A", 0, 0, nil)

	gw.addDownlinkBusy(0, 5, 10)
	assert.True(gw.downlinkBusyOverlaps(6, 7))
	assert.False(gw.downlinkBusyOverlaps(11, 12))

	gw.purgeDownlinkBusy(20)
	assert.False(gw.downlinkBusyOverlaps(6, 7))
}

func TestGatewayDutyCycle(t *testing.T) {
	assert := require.New(t)
	gw := newGateway(0, "A", 0, 0, nil)

	gw.advanceDutyCycle(Band48, 10, 1.0)
	first := gw.nextDownlinkAllowed(Band48)
	assert.Greater(first, 10.0)

	gw.advanceDutyCycle(Band48, 5, 0.1)
	assert.Equal(first, gw.nextDownlinkAllowed(Band48), "deadline never moves backward")
}
