package lorasim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvaluateADR(t *testing.T) {
	t.Run("no history means no decision", func(t *testing.T) {
		assert := require.New(t)
		n := &Node{SF: 7, TxPowerIndex: 0}
		dec := EvaluateADR(n, len(txPowerLadderEU868))
		assert.False(dec.Changed)
	})

	t.Run("fewer than ten samples never decides, regardless of margin", func(t *testing.T) {
		assert := require.New(t)
		n := &Node{SF: 7, TxPowerIndex: 0, BestSNR: []float64{100, 100, 100}}
		dec := EvaluateADR(n, len(txPowerLadderEU868))
		assert.False(dec.Changed)
	})

	t.Run("large SNR margin steps power down once ten samples are in", func(t *testing.T) {
		assert := require.New(t)
		n := &Node{SF: 7, TxPowerIndex: 0, BestSNR: []float64{20, 19, 21, 20, 19, 21, 20, 19, 21, 20}}
		dec := EvaluateADR(n, len(txPowerLadderEU868))
		assert.True(dec.Changed)
		assert.Greater(dec.NewTxIndex, 0)
	})

	t.Run("new index is clamped to the ladder length", func(t *testing.T) {
		assert := require.New(t)
		n := &Node{SF: 7, TxPowerIndex: 0, BestSNR: []float64{100, 100, 100, 100, 100, 100, 100, 100, 100, 100}}
		dec := EvaluateADR(n, len(txPowerLadderEU868))
		assert.True(dec.Changed)
		assert.Less(dec.NewTxIndex, len(txPowerLadderEU868))
	})

	t.Run("marginal SNR yields no change", func(t *testing.T) {
		assert := require.New(t)
		req := requiredSNR[7]
		snr := req + adrMarginDB
		n := &Node{SF: 7, TxPowerIndex: 0, BestSNR: []float64{snr, snr, snr, snr, snr, snr, snr, snr, snr, snr}}
		dec := EvaluateADR(n, len(txPowerLadderEU868))
		assert.False(dec.Changed)
	})

	t.Run("negative non-multiple-of-3 margin floors toward -1 step, not truncates to 0", func(t *testing.T) {
		assert := require.New(t)
		// margin = maxSNR - req - adrMarginDB; pick maxSNR so margin is
		// exactly -1 dB: floor(-1/3) = -1 (steps power up one rung), while
		// int(-1/3) truncates to 0 and would wrongly report no change.
		req := requiredSNR[7]
		maxSNR := req + adrMarginDB - 1
		n := &Node{SF: 7, TxPowerIndex: 3, BestSNR: []float64{maxSNR, maxSNR, maxSNR, maxSNR, maxSNR, maxSNR, maxSNR, maxSNR, maxSNR, maxSNR}}
		dec := EvaluateADR(n, len(txPowerLadderEU868))
		assert.True(dec.Changed)
		assert.Equal(-1, dec.Steps)
		assert.Equal(2, dec.NewTxIndex)
	})
}
