package model

import (
	"fmt"

	"github.com/schollz/trackstudio/internal/effects"
)

// Param is one editable row of the effects view.
type Param struct {
	Group  string
	Label  string
	Step   float64
	Toggle bool
	Get    func(s effects.Settings) float64
	Set    func(s effects.Settings, v float64) effects.Partial
	Format func(v float64) string
}

func onOff(v float64) string {
	if v >= 0.5 {
		return "on"
	}
	return "off"
}

func unit(format string) func(float64) string {
	return func(v float64) string { return fmt.Sprintf(format, v) }
}

func boolVal(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func bandGain(i int) Param {
	hz := effects.DefaultBands[i]
	label := fmt.Sprintf("%.0f Hz", hz)
	if hz >= 1000 {
		label = fmt.Sprintf("%.0f kHz", hz/1000)
	}
	return Param{
		Group: "EQ",
		Label: label,
		Step:  0.5,
		Get: func(s effects.Settings) float64 {
			if i >= len(s.EQBands) {
				return 0
			}
			return s.EQBands[i].GainDB
		},
		Set: func(s effects.Settings, v float64) effects.Partial {
			bands := s.Clone().EQBands
			if i < len(bands) {
				bands[i].GainDB = v
			}
			return effects.Partial{EQBands: bands}
		},
		Format: unit("%+.1f dB"),
	}
}

func compressor(label string, step float64, format string, field func(c *effects.Compressor) *float64) Param {
	return Param{
		Group: "Compressor",
		Label: label,
		Step:  step,
		Get: func(s effects.Settings) float64 {
			c := s.Compressor
			return *field(&c)
		},
		Set: func(s effects.Settings, v float64) effects.Partial {
			c := s.Compressor
			*field(&c) = v
			return effects.Partial{Compressor: &c}
		},
		Format: unit(format),
	}
}

func reverb(label string, step float64, format string, field func(r *effects.Reverb) *float64) Param {
	return Param{
		Group: "Reverb",
		Label: label,
		Step:  step,
		Get: func(s effects.Settings) float64 {
			r := s.Reverb
			return *field(&r)
		},
		Set: func(s effects.Settings, v float64) effects.Partial {
			r := s.Reverb
			*field(&r) = v
			return effects.Partial{Reverb: &r}
		},
		Format: unit(format),
	}
}

// Params lists the effects view rows in display order.
var Params = []Param{
	bandGain(0), bandGain(1), bandGain(2), bandGain(3), bandGain(4),

	{
		Group: "Compressor", Label: "Enabled", Toggle: true,
		Get: func(s effects.Settings) float64 { return boolVal(s.Compressor.Enabled) },
		Set: func(s effects.Settings, v float64) effects.Partial {
			c := s.Compressor
			c.Enabled = v >= 0.5
			return effects.Partial{Compressor: &c}
		},
		Format: onOff,
	},
	compressor("Threshold", 1, "%.0f dB", func(c *effects.Compressor) *float64 { return &c.ThresholdDB }),
	compressor("Ratio", 0.5, "%.1f:1", func(c *effects.Compressor) *float64 { return &c.Ratio }),
	compressor("Attack", 1, "%.0f ms", func(c *effects.Compressor) *float64 { return &c.AttackMs }),
	compressor("Release", 10, "%.0f ms", func(c *effects.Compressor) *float64 { return &c.ReleaseMs }),
	compressor("Makeup", 0.5, "%.1f dB", func(c *effects.Compressor) *float64 { return &c.MakeupGainDB }),

	{
		Group: "Reverb", Label: "Enabled", Toggle: true,
		Get: func(s effects.Settings) float64 { return boolVal(s.Reverb.Enabled) },
		Set: func(s effects.Settings, v float64) effects.Partial {
			r := s.Reverb
			r.Enabled = v >= 0.5
			return effects.Partial{Reverb: &r}
		},
		Format: onOff,
	},
	reverb("Wet", 0.05, "%.2f", func(r *effects.Reverb) *float64 { return &r.Wet }),
	reverb("Decay", 0.1, "%.1f s", func(r *effects.Reverb) *float64 { return &r.DecaySeconds }),
	reverb("Predelay", 5, "%.0f ms", func(r *effects.Reverb) *float64 { return &r.PredelayMs }),

	{
		Group: "Limiter", Label: "Enabled", Toggle: true,
		Get: func(s effects.Settings) float64 { return boolVal(s.Limiter.Enabled) },
		Set: func(s effects.Settings, v float64) effects.Partial {
			l := s.Limiter
			l.Enabled = v >= 0.5
			return effects.Partial{Limiter: &l}
		},
		Format: onOff,
	},
	{
		Group: "Limiter", Label: "Ceiling", Step: 0.5,
		Get: func(s effects.Settings) float64 { return s.Limiter.ThresholdDB },
		Set: func(s effects.Settings, v float64) effects.Partial {
			l := s.Limiter
			l.ThresholdDB = v
			return effects.Partial{Limiter: &l}
		},
		Format: unit("%.1f dB"),
	},

	{
		Group: "De-esser", Label: "Enabled", Toggle: true,
		Get: func(s effects.Settings) float64 { return boolVal(s.DeEsser.Enabled) },
		Set: func(s effects.Settings, v float64) effects.Partial {
			d := s.DeEsser
			d.Enabled = v >= 0.5
			return effects.Partial{DeEsser: &d}
		},
		Format: onOff,
	},
	{
		Group: "De-esser", Label: "Frequency", Step: 500,
		Get: func(s effects.Settings) float64 { return s.DeEsser.FrequencyHz },
		Set: func(s effects.Settings, v float64) effects.Partial {
			d := s.DeEsser
			d.FrequencyHz = v
			return effects.Partial{DeEsser: &d}
		},
		Format: unit("%.0f Hz"),
	},

	{
		Group: "Exciter", Label: "Enabled", Toggle: true,
		Get: func(s effects.Settings) float64 { return boolVal(s.Exciter.Enabled) },
		Set: func(s effects.Settings, v float64) effects.Partial {
			e := s.Exciter
			e.Enabled = v >= 0.5
			return effects.Partial{Exciter: &e}
		},
		Format: onOff,
	},
	{
		Group: "Exciter", Label: "Amount", Step: 5,
		Get: func(s effects.Settings) float64 { return s.Exciter.Amount },
		Set: func(s effects.Settings, v float64) effects.Partial {
			e := s.Exciter
			e.Amount = v
			return effects.Partial{Exciter: &e}
		},
		Format: unit("%.0f%%"),
	},
	{
		Group: "Exciter", Label: "Harmonics", Step: 1,
		Get: func(s effects.Settings) float64 { return float64(s.Exciter.Harmonics) },
		Set: func(s effects.Settings, v float64) effects.Partial {
			e := s.Exciter
			e.Harmonics = int(v)
			return effects.Partial{Exciter: &e}
		},
		Format: unit("%.0f"),
	},

	{
		Group: "Stereo", Label: "Enabled", Toggle: true,
		Get: func(s effects.Settings) float64 { return boolVal(s.StereoWidth.Enabled) },
		Set: func(s effects.Settings, v float64) effects.Partial {
			w := s.StereoWidth
			w.Enabled = v >= 0.5
			return effects.Partial{StereoWidth: &w}
		},
		Format: onOff,
	},
	{
		Group: "Stereo", Label: "Width", Step: 10,
		Get: func(s effects.Settings) float64 { return s.StereoWidth.WidthPercent },
		Set: func(s effects.Settings, v float64) effects.Partial {
			w := s.StereoWidth
			w.WidthPercent = v
			return effects.Partial{StereoWidth: &w}
		},
		Format: unit("%.0f%%"),
	},

	{
		Group: "Output", Label: "Gain", Step: 0.5,
		Get: func(s effects.Settings) float64 { return s.OutputGainDB },
		Set: func(s effects.Settings, v float64) effects.Partial {
			return effects.Partial{OutputGainDB: effects.Float64(v)}
		},
		Format: unit("%+.1f dB"),
	},
}
