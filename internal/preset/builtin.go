package preset

import (
	"github.com/schollz/trackstudio/internal/effects"
	"github.com/schollz/trackstudio/internal/types"
)

// Built-in preset ids are stable so saved projects can reference them.
const (
	BalancedMasterID = "builtin-balanced-master"
	VocalClarityID   = "builtin-vocal-clarity"
	RapVocalID       = "builtin-rap-vocal"
	LoudMasterID     = "builtin-loud-master"
	WarmInstrumentID = "builtin-warm-instrument"
	BrightAcousticID = "builtin-bright-acoustic"
	PodcastVoiceID   = "builtin-podcast-voice"
)

func bands(gains ...float64) []effects.EQBand {
	out := make([]effects.EQBand, len(effects.DefaultBands))
	for i, hz := range effects.DefaultBands {
		g := 0.0
		if i < len(gains) {
			g = gains[i]
		}
		out[i] = effects.EQBand{FrequencyHz: hz, GainDB: g, Q: 1, Enabled: true}
	}
	return out
}

// BuiltIns returns the factory presets in catalog order.
func BuiltIns() []Preset {
	balanced := effects.Default()

	vocal := effects.Default()
	vocal.EQBands = bands(-4, -1, 1.5, 3, 2)
	vocal.Compressor = effects.Compressor{Enabled: true, ThresholdDB: -20, Ratio: 4, AttackMs: 5, ReleaseMs: 100, MakeupGainDB: 4}
	vocal.DeEsser = effects.DeEsser{Enabled: true, ThresholdDB: -28, FrequencyHz: 7000}
	vocal.Reverb = effects.Reverb{Enabled: true, Wet: 0.12, DecaySeconds: 1.2, PredelayMs: 25}

	rap := effects.Default()
	rap.EQBands = bands(-6, -2, 2, 4, 1)
	rap.Compressor = effects.Compressor{Enabled: true, ThresholdDB: -24, Ratio: 6, AttackMs: 3, ReleaseMs: 80, MakeupGainDB: 6}
	rap.DeEsser = effects.DeEsser{Enabled: true, ThresholdDB: -25, FrequencyHz: 6500}
	rap.Exciter = effects.Exciter{Enabled: true, Amount: 25, FrequencyHz: 3500, Harmonics: 2}
	rap.Limiter = effects.Limiter{Enabled: true, ThresholdDB: -2, ReleaseMs: 40}

	loud := effects.Default()
	loud.EQBands = bands(2, 0, -1, 1, 2)
	loud.Compressor = effects.Compressor{Enabled: true, ThresholdDB: -14, Ratio: 4, AttackMs: 15, ReleaseMs: 150, MakeupGainDB: 5}
	loud.Limiter = effects.Limiter{Enabled: true, ThresholdDB: -0.3, ReleaseMs: 30}
	loud.StereoWidth = effects.StereoWidth{Enabled: true, WidthPercent: 120}
	loud.OutputGainDB = 2

	warm := effects.Default()
	warm.EQBands = bands(2, 1.5, 0, -1.5, -3)
	warm.Compressor = effects.Compressor{Enabled: true, ThresholdDB: -16, Ratio: 2.5, AttackMs: 20, ReleaseMs: 200, MakeupGainDB: 2}
	warm.Reverb = effects.Reverb{Enabled: true, Wet: 0.2, DecaySeconds: 2.2, PredelayMs: 15}

	acoustic := effects.Default()
	acoustic.EQBands = bands(-3, -1, 0, 2, 3.5)
	acoustic.Exciter = effects.Exciter{Enabled: true, Amount: 15, FrequencyHz: 5000, Harmonics: 3}
	acoustic.StereoWidth = effects.StereoWidth{Enabled: true, WidthPercent: 140}
	acoustic.Reverb = effects.Reverb{Enabled: true, Wet: 0.18, DecaySeconds: 1.8, PredelayMs: 30}

	podcast := effects.Default()
	podcast.EQBands = bands(-8, -2, 1, 2.5, 0)
	podcast.Compressor = effects.Compressor{Enabled: true, ThresholdDB: -22, Ratio: 3.5, AttackMs: 8, ReleaseMs: 150, MakeupGainDB: 5}
	podcast.DeEsser = effects.DeEsser{Enabled: true, ThresholdDB: -30, FrequencyHz: 6000}
	podcast.Limiter = effects.Limiter{Enabled: true, ThresholdDB: -1.5, ReleaseMs: 60}

	return []Preset{
		{ID: BalancedMasterID, Name: "Balanced Master", Category: types.CategoryMaster, Settings: balanced, IsDefault: true, BuiltIn: true},
		{ID: VocalClarityID, Name: "Vocal Clarity", Category: types.CategoryVocal, Settings: vocal, BuiltIn: true},
		{ID: RapVocalID, Name: "Rap Vocal", Category: types.CategoryVocal, Settings: rap, BuiltIn: true},
		{ID: LoudMasterID, Name: "Loud Master", Category: types.CategoryMaster, Settings: loud, BuiltIn: true},
		{ID: WarmInstrumentID, Name: "Warm Instrument", Category: types.CategoryInstrument, Settings: warm, BuiltIn: true},
		{ID: BrightAcousticID, Name: "Bright Acoustic", Category: types.CategoryInstrument, Settings: acoustic, BuiltIn: true},
		{ID: PodcastVoiceID, Name: "Podcast Voice", Category: types.CategoryVocal, Settings: podcast, BuiltIn: true},
	}
}
