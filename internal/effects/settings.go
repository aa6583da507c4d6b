package effects

import (
	"math"
	"reflect"
)

// EQBand is one parametric equalizer band.
type EQBand struct {
	FrequencyHz float64 `json:"frequency_hz"`
	GainDB      float64 `json:"gain_db"`
	Q           float64 `json:"q"`
	Enabled     bool    `json:"enabled"`
}

type Compressor struct {
	Enabled      bool    `json:"enabled"`
	ThresholdDB  float64 `json:"threshold_db"`
	Ratio        float64 `json:"ratio"`
	AttackMs     float64 `json:"attack_ms"`
	ReleaseMs    float64 `json:"release_ms"`
	MakeupGainDB float64 `json:"makeup_gain_db"`
}

type Reverb struct {
	Enabled      bool    `json:"enabled"`
	Wet          float64 `json:"wet"`
	DecaySeconds float64 `json:"decay_seconds"`
	PredelayMs   float64 `json:"predelay_ms"`
}

type Limiter struct {
	Enabled     bool    `json:"enabled"`
	ThresholdDB float64 `json:"threshold_db"`
	ReleaseMs   float64 `json:"release_ms"`
}

type DeEsser struct {
	Enabled     bool    `json:"enabled"`
	ThresholdDB float64 `json:"threshold_db"`
	FrequencyHz float64 `json:"frequency_hz"`
}

type Exciter struct {
	Enabled     bool    `json:"enabled"`
	Amount      float64 `json:"amount"`
	FrequencyHz float64 `json:"frequency_hz"`
	Harmonics   int     `json:"harmonics"`
}

type StereoWidth struct {
	Enabled      bool    `json:"enabled"`
	WidthPercent float64 `json:"width_percent"`
}

// Settings is the complete effects-parameter record applied to a session's
// master output by a downstream renderer.
type Settings struct {
	EQBands      []EQBand    `json:"eq_bands"`
	Compressor   Compressor  `json:"compressor"`
	Reverb       Reverb      `json:"reverb"`
	Limiter      Limiter     `json:"limiter"`
	DeEsser      DeEsser     `json:"de_esser"`
	Exciter      Exciter     `json:"exciter"`
	StereoWidth  StereoWidth `json:"stereo_width"`
	OutputGainDB float64     `json:"output_gain_db"`
}

// Parameter ranges.
const (
	MinBandGainDB, MaxBandGainDB           = -12.0, 12.0
	MinBandQ, MaxBandQ                     = 0.1, 10.0
	MinCompThresholdDB, MaxCompThresholdDB = -60.0, 0.0
	MinRatio, MaxRatio                     = 1.0, 20.0
	MinAttackMs, MaxAttackMs               = 0.0, 100.0
	MinReleaseMs, MaxReleaseMs             = 10.0, 1000.0
	MinMakeupDB, MaxMakeupDB               = 0.0, 24.0
	MinWet, MaxWet                         = 0.0, 1.0
	MinDecaySeconds, MaxDecaySeconds       = 0.1, 10.0
	MinPredelayMs, MaxPredelayMs           = 0.0, 500.0
	MinLimiterDB, MaxLimiterDB             = -20.0, 0.0
	MinDeEsserDB, MaxDeEsserDB             = -60.0, 0.0
	MinDeEsserHz, MaxDeEsserHz             = 2000.0, 16000.0
	MinExciterAmount, MaxExciterAmount     = 0.0, 100.0
	MinExciterHz, MaxExciterHz             = 1000.0, 16000.0
	MinHarmonics, MaxHarmonics             = 1, 5
	MinWidthPercent, MaxWidthPercent       = 0.0, 200.0
	MinOutputGainDB, MaxOutputGainDB       = -60.0, 12.0
)

// DefaultBands is the five band layout every built-in preset starts from.
var DefaultBands = []float64{80, 250, 1000, 4000, 12000}

// Default returns the neutral settings used when no default preset exists.
func Default() Settings {
	bands := make([]EQBand, len(DefaultBands))
	for i, hz := range DefaultBands {
		bands[i] = EQBand{FrequencyHz: hz, GainDB: 0, Q: 1, Enabled: true}
	}
	return Settings{
		EQBands: bands,
		Compressor: Compressor{
			Enabled:      true,
			ThresholdDB:  -18,
			Ratio:        3,
			AttackMs:     10,
			ReleaseMs:    120,
			MakeupGainDB: 2,
		},
		Reverb: Reverb{
			Enabled:      false,
			Wet:          0.15,
			DecaySeconds: 1.5,
			PredelayMs:   20,
		},
		Limiter: Limiter{
			Enabled:     true,
			ThresholdDB: -1,
			ReleaseMs:   50,
		},
		DeEsser: DeEsser{
			Enabled:     false,
			ThresholdDB: -30,
			FrequencyHz: 6500,
		},
		Exciter: Exciter{
			Enabled:     false,
			Amount:      20,
			FrequencyHz: 3000,
			Harmonics:   2,
		},
		StereoWidth: StereoWidth{
			Enabled:      false,
			WidthPercent: 100,
		},
		OutputGainDB: 0,
	}
}

// Clone returns a deep copy; the EQ band slice is never shared.
func (s Settings) Clone() Settings {
	out := s
	if s.EQBands != nil {
		out.EQBands = make([]EQBand, len(s.EQBands))
		copy(out.EQBands, s.EQBands)
	}
	return out
}

// Equal reports deep equality of two settings records.
func (s Settings) Equal(o Settings) bool {
	return reflect.DeepEqual(s, o)
}

// Clamped returns a copy with every parameter forced into its valid range.
func (s Settings) Clamped() Settings {
	out := s.Clone()
	for i := range out.EQBands {
		b := &out.EQBands[i]
		b.FrequencyHz = clamp(b.FrequencyHz, 20, 20000)
		b.GainDB = clamp(b.GainDB, MinBandGainDB, MaxBandGainDB)
		b.Q = clamp(b.Q, MinBandQ, MaxBandQ)
	}
	c := &out.Compressor
	c.ThresholdDB = clamp(c.ThresholdDB, MinCompThresholdDB, MaxCompThresholdDB)
	c.Ratio = clamp(c.Ratio, MinRatio, MaxRatio)
	c.AttackMs = clamp(c.AttackMs, MinAttackMs, MaxAttackMs)
	c.ReleaseMs = clamp(c.ReleaseMs, MinReleaseMs, MaxReleaseMs)
	c.MakeupGainDB = clamp(c.MakeupGainDB, MinMakeupDB, MaxMakeupDB)

	r := &out.Reverb
	r.Wet = clamp(r.Wet, MinWet, MaxWet)
	r.DecaySeconds = clamp(r.DecaySeconds, MinDecaySeconds, MaxDecaySeconds)
	r.PredelayMs = clamp(r.PredelayMs, MinPredelayMs, MaxPredelayMs)

	l := &out.Limiter
	l.ThresholdDB = clamp(l.ThresholdDB, MinLimiterDB, MaxLimiterDB)
	l.ReleaseMs = clamp(l.ReleaseMs, MinReleaseMs, MaxReleaseMs)

	d := &out.DeEsser
	d.ThresholdDB = clamp(d.ThresholdDB, MinDeEsserDB, MaxDeEsserDB)
	d.FrequencyHz = clamp(d.FrequencyHz, MinDeEsserHz, MaxDeEsserHz)

	e := &out.Exciter
	e.Amount = clamp(e.Amount, MinExciterAmount, MaxExciterAmount)
	e.FrequencyHz = clamp(e.FrequencyHz, MinExciterHz, MaxExciterHz)
	if e.Harmonics < MinHarmonics {
		e.Harmonics = MinHarmonics
	} else if e.Harmonics > MaxHarmonics {
		e.Harmonics = MaxHarmonics
	}

	out.StereoWidth.WidthPercent = clamp(out.StereoWidth.WidthPercent, MinWidthPercent, MaxWidthPercent)
	out.OutputGainDB = clamp(out.OutputGainDB, MinOutputGainDB, MaxOutputGainDB)
	return out
}

// OutputGainLinear converts the output gain to a linear multiplier.
func (s Settings) OutputGainLinear() float64 {
	return DBToLinear(s.OutputGainDB)
}

// DBToLinear converts decibels to an amplitude ratio.
func DBToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
