package effects

// Partial names the top-level fields an update replaces. Nil fields are left
// untouched; set fields replace the whole sub-record (shallow merge).
type Partial struct {
	EQBands      []EQBand
	Compressor   *Compressor
	Reverb       *Reverb
	Limiter      *Limiter
	DeEsser      *DeEsser
	Exciter      *Exciter
	StereoWidth  *StereoWidth
	OutputGainDB *float64
}

// Empty reports whether the partial names no field at all.
func (p Partial) Empty() bool {
	return p.EQBands == nil && p.Compressor == nil && p.Reverb == nil && p.Limiter == nil &&
		p.DeEsser == nil && p.Exciter == nil && p.StereoWidth == nil && p.OutputGainDB == nil
}

// Merge returns s with the fields named by p replaced, clamped into range.
func (s Settings) Merge(p Partial) Settings {
	out := s.Clone()
	if p.EQBands != nil {
		out.EQBands = make([]EQBand, len(p.EQBands))
		copy(out.EQBands, p.EQBands)
	}
	if p.Compressor != nil {
		out.Compressor = *p.Compressor
	}
	if p.Reverb != nil {
		out.Reverb = *p.Reverb
	}
	if p.Limiter != nil {
		out.Limiter = *p.Limiter
	}
	if p.DeEsser != nil {
		out.DeEsser = *p.DeEsser
	}
	if p.Exciter != nil {
		out.Exciter = *p.Exciter
	}
	if p.StereoWidth != nil {
		out.StereoWidth = *p.StereoWidth
	}
	if p.OutputGainDB != nil {
		out.OutputGainDB = *p.OutputGainDB
	}
	return out.Clamped()
}

// Float64 is a helper for building partials inline.
func Float64(v float64) *float64 { return &v }
