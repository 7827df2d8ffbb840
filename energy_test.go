package lorasim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnergyAccumulateTX(t *testing.T) {
	assert := require.New(t)
	e := &EnergyAccount{}
	e.AccumulateTX(14, 1.0) // 1s at 14 dBm
	want := (dbmToMW(14) + mcuIdlePowerMW) * 1.0
	assert.InDelta(want, e.TXMillijoules, 1e-9)
	assert.InDelta(want, e.Total(), 1e-9)
}

func TestEnergyAccumulateTXScalesWithDuration(t *testing.T) {
	assert := require.New(t)
	e := &EnergyAccount{}
	e.AccumulateTX(14, 2.0)
	single := &EnergyAccount{}
	single.AccumulateTX(14, 1.0)
	assert.InDelta(single.TXMillijoules*2, e.TXMillijoules, 1e-9)
}

func TestEnergyOtherPhasesAreUnaffectedByTX(t *testing.T) {
	assert := require.New(t)
	e := &EnergyAccount{}
	e.AccumulateSense(1.0)
	e.AccumulateRX1(1.0)
	e.AccumulateRX2(1.0)
	assert.Equal(sensePadPowerMW, e.SenseMillijoules)
	assert.Equal(rxListenPowerMW, e.RX1Millijoules)
	assert.Equal(rxListenPowerMW, e.RX2Millijoules)
	assert.Equal(0.0, e.TXMillijoules)
}
