package audio

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/schollz/trackstudio/internal/effects"
	"github.com/schollz/trackstudio/internal/types"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Renderer produces processed copies of takes under <dir>/processed. Only the
// gain stages are applied to the samples; the remaining parameters are passed
// to the real-time renderer.
type Renderer struct {
	dir string
}

func NewRenderer(projectDir string) *Renderer {
	return &Renderer{dir: projectDir}
}

// OutputPath returns where src rendered with s is written. The name is keyed
// by the settings so an unchanged render is reused.
func (r *Renderer) OutputPath(src types.SourceRef, s effects.Settings) (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	sum := sha1.Sum(b)
	base := strings.TrimSuffix(filepath.Base(string(src)), filepath.Ext(string(src)))
	out := filepath.Join(r.dir, "processed", fmt.Sprintf("%s-%s.wav", base, hex.EncodeToString(sum[:4])))
	return filepath.Abs(out)
}

func (r *Renderer) Render(ctx context.Context, src types.SourceRef, s effects.Settings) (types.SourceRef, error) {
	out, err := r.OutputPath(src, s)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(out); err == nil {
		log.Printf("Using cached render %s", out)
		return types.SourceRef(out), nil
	}

	samples, rate, err := ReadWAV(string(src))
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ApplyGainStages(samples, s)

	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return "", err
	}
	if err := WriteWAV(out, samples, rate); err != nil {
		return "", err
	}
	log.Printf("Rendered %s -> %s (%d samples)", src, out, len(samples))
	return types.SourceRef(out), nil
}

// ApplyGainStages scales samples by the compressor makeup and output gain and
// hard-limits them at the limiter ceiling, or at full scale if it is off.
func ApplyGainStages(samples []float64, s effects.Settings) {
	gain := s.OutputGainLinear()
	if s.Compressor.Enabled {
		gain *= effects.DBToLinear(s.Compressor.MakeupGainDB)
	}
	ceiling := 1.0
	if s.Limiter.Enabled {
		ceiling = effects.DBToLinear(s.Limiter.ThresholdDB)
	}
	for i, v := range samples {
		v *= gain
		if v > ceiling {
			v = ceiling
		} else if v < -ceiling {
			v = -ceiling
		}
		samples[i] = v
	}
}
