package effects

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsInRange(t *testing.T) {
	d := Default()
	assert.True(t, d.Equal(d.Clamped()), "defaults must already be valid")
	assert.Len(t, d.EQBands, len(DefaultBands))
}

func TestClone(t *testing.T) {
	a := Default()
	b := a.Clone()
	b.EQBands[0].GainDB = 6
	assert.Equal(t, 0.0, a.EQBands[0].GainDB, "clone must not share EQ bands")
	assert.False(t, a.Equal(b))
}

func TestClamped(t *testing.T) {
	s := Default()
	s.EQBands[1].GainDB = 40
	s.EQBands[2].Q = 0
	s.Compressor.Ratio = 100
	s.Compressor.AttackMs = -5
	s.Reverb.Wet = 2
	s.Limiter.ThresholdDB = -90
	s.DeEsser.FrequencyHz = 100
	s.Exciter.Harmonics = 9
	s.StereoWidth.WidthPercent = 500
	s.OutputGainDB = math.NaN()

	c := s.Clamped()
	assert.Equal(t, MaxBandGainDB, c.EQBands[1].GainDB)
	assert.Equal(t, MinBandQ, c.EQBands[2].Q)
	assert.Equal(t, MaxRatio, c.Compressor.Ratio)
	assert.Equal(t, MinAttackMs, c.Compressor.AttackMs)
	assert.Equal(t, MaxWet, c.Reverb.Wet)
	assert.Equal(t, MinLimiterDB, c.Limiter.ThresholdDB)
	assert.Equal(t, MinDeEsserHz, c.DeEsser.FrequencyHz)
	assert.Equal(t, MaxHarmonics, c.Exciter.Harmonics)
	assert.Equal(t, MaxWidthPercent, c.StereoWidth.WidthPercent)
	assert.Equal(t, MinOutputGainDB, c.OutputGainDB)
}

func TestMerge(t *testing.T) {
	t.Run("replaces only named fields", func(t *testing.T) {
		base := Default()
		merged := base.Merge(Partial{OutputGainDB: Float64(2)})

		assert.Equal(t, 2.0, merged.OutputGainDB)
		assert.Equal(t, base.Compressor, merged.Compressor)
		assert.Equal(t, base.EQBands, merged.EQBands)
		assert.Equal(t, 0.0, base.OutputGainDB, "merge must not mutate the receiver")
	})

	t.Run("sub-records are replaced wholesale", func(t *testing.T) {
		merged := Default().Merge(Partial{Reverb: &Reverb{Enabled: true, Wet: 0.5}})
		assert.True(t, merged.Reverb.Enabled)
		assert.Equal(t, 0.5, merged.Reverb.Wet)
		assert.Equal(t, MinDecaySeconds, merged.Reverb.DecaySeconds, "omitted values are clamped, not kept")
	})

	t.Run("band slice is copied", func(t *testing.T) {
		bands := []EQBand{{FrequencyHz: 100, GainDB: 3, Q: 1, Enabled: true}}
		merged := Default().Merge(Partial{EQBands: bands})
		bands[0].GainDB = -3
		require.Len(t, merged.EQBands, 1)
		assert.Equal(t, 3.0, merged.EQBands[0].GainDB)
	})

	t.Run("empty partial", func(t *testing.T) {
		assert.True(t, Partial{}.Empty())
		assert.False(t, Partial{OutputGainDB: Float64(0)}.Empty())
	})
}

func TestDBToLinear(t *testing.T) {
	assert.InDelta(t, 1.0, DBToLinear(0), 1e-12)
	assert.InDelta(t, 0.5011872336, DBToLinear(-6), 1e-9)
	assert.InDelta(t, 2.0, Settings{OutputGainDB: 6.0206}.OutputGainLinear(), 1e-4)
}
