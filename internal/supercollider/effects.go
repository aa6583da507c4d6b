package supercollider

import (
	"errors"
	"log"

	"github.com/hypebeast/go-osc/osc"

	"github.com/schollz/trackstudio/internal/effects"
)

func flag(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// SettingsMessages builds the messages that configure the master effects
// chain. All numbers go out as float32 and switches as int32 0/1.
func SettingsMessages(s effects.Settings) []*osc.Message {
	var msgs []*osc.Message
	for i, b := range s.EQBands {
		msgs = append(msgs, osc.NewMessage("/fx_eq", int32(i), float32(b.FrequencyHz), float32(b.GainDB), float32(b.Q), flag(b.Enabled)))
	}
	c := s.Compressor
	msgs = append(msgs,
		osc.NewMessage("/fx_compressor", flag(c.Enabled), float32(c.ThresholdDB), float32(c.Ratio), float32(c.AttackMs), float32(c.ReleaseMs), float32(c.MakeupGainDB)),
		osc.NewMessage("/fx_reverb", flag(s.Reverb.Enabled), float32(s.Reverb.Wet), float32(s.Reverb.DecaySeconds), float32(s.Reverb.PredelayMs)),
		osc.NewMessage("/fx_limiter", flag(s.Limiter.Enabled), float32(s.Limiter.ThresholdDB), float32(s.Limiter.ReleaseMs)),
		osc.NewMessage("/fx_deesser", flag(s.DeEsser.Enabled), float32(s.DeEsser.ThresholdDB), float32(s.DeEsser.FrequencyHz)),
		osc.NewMessage("/fx_exciter", flag(s.Exciter.Enabled), float32(s.Exciter.Amount), float32(s.Exciter.FrequencyHz), int32(s.Exciter.Harmonics)),
		osc.NewMessage("/fx_width", flag(s.StereoWidth.Enabled), float32(s.StereoWidth.WidthPercent)),
		osc.NewMessage("/fx_output", float32(s.OutputGainDB)),
	)
	return msgs
}

// SendSettings pushes the whole effects chain. It keeps going past failed
// sends and returns them joined.
func SendSettings(client Sender, s effects.Settings) error {
	var errs []error
	for _, msg := range SettingsMessages(s) {
		if err := client.Send(msg); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		log.Printf("Failed to send effects settings: %v", err)
		return err
	}
	return nil
}
