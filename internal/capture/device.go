package capture

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/schollz/trackstudio/internal/audio"
	"github.com/schollz/trackstudio/internal/recording"
	"github.com/schollz/trackstudio/internal/types"
)

// Source produces the input signal at time t seconds into a take.
type Source func(t float64) float64

// Config describes a WAV capture device.
type Config struct {
	// Dir is where takes are written.
	Dir        string
	SampleRate int
	// MeterInterval is how often a chunk is captured and metered.
	MeterInterval  time.Duration
	DenyPermission bool
	Source         Source
}

// DefaultSource is a 220 Hz tone with a slow swell so the meter has
// something to show.
func DefaultSource(t float64) float64 {
	env := 0.35 + 0.3*math.Sin(2*math.Pi*0.5*t)
	return env * math.Sin(2*math.Pi*220*t)
}

type take struct {
	stop    chan struct{}
	done    chan struct{}
	mu      sync.Mutex
	samples []float64
}

// Device captures from a Source in real time and writes each take to a
// 16-bit mono wav file.
type Device struct {
	cfg Config

	mu    sync.Mutex
	takes map[recording.CaptureHandle]*take
}

var _ recording.CaptureDevice = (*Device)(nil)

func NewDevice(cfg Config) *Device {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 44100
	}
	if cfg.MeterInterval <= 0 {
		cfg.MeterInterval = 50 * time.Millisecond
	}
	if cfg.Source == nil {
		cfg.Source = DefaultSource
	}
	return &Device{cfg: cfg, takes: make(map[recording.CaptureHandle]*take)}
}

func (d *Device) RequestPermission(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return !d.cfg.DenyPermission, nil
}

// StartCapture begins a take. onLevel is called from the capture goroutine
// with the peak of each chunk in dBFS.
func (d *Device) StartCapture(ctx context.Context, onLevel func(db float64)) (recording.CaptureHandle, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(d.cfg.Dir, 0755); err != nil {
		return "", fmt.Errorf("capture dir: %w", err)
	}
	h := recording.CaptureHandle(uuid.NewString())
	tk := &take{stop: make(chan struct{}), done: make(chan struct{})}

	d.mu.Lock()
	d.takes[h] = tk
	d.mu.Unlock()

	go d.run(tk, onLevel)
	log.Printf("Capture %s started at %d Hz", h, d.cfg.SampleRate)
	return h, nil
}

func (d *Device) run(tk *take, onLevel func(db float64)) {
	defer close(tk.done)
	ticker := time.NewTicker(d.cfg.MeterInterval)
	defer ticker.Stop()

	chunk := int(float64(d.cfg.SampleRate) * d.cfg.MeterInterval.Seconds())
	if chunk < 1 {
		chunk = 1
	}
	n := 0
	for {
		select {
		case <-tk.stop:
			return
		case <-ticker.C:
			buf := make([]float64, chunk)
			for i := range buf {
				buf[i] = d.cfg.Source(float64(n+i) / float64(d.cfg.SampleRate))
			}
			n += chunk
			tk.mu.Lock()
			tk.samples = append(tk.samples, buf...)
			tk.mu.Unlock()
			if onLevel != nil {
				onLevel(audio.PeakDB(buf, types.MeterFloorDB))
			}
		}
	}
}

// Stop ends the take and writes it to disk, returning the absolute path.
func (d *Device) Stop(ctx context.Context, h recording.CaptureHandle) (types.SourceRef, error) {
	d.mu.Lock()
	tk, ok := d.takes[h]
	delete(d.takes, h)
	d.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("unknown capture %s", h)
	}

	close(tk.stop)
	select {
	case <-tk.done:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	tk.mu.Lock()
	samples := tk.samples
	tk.mu.Unlock()

	path, err := filepath.Abs(filepath.Join(d.cfg.Dir, fmt.Sprintf("take-%s.wav", uuid.NewString())))
	if err != nil {
		return "", err
	}
	if err := audio.WriteWAV(path, samples, d.cfg.SampleRate); err != nil {
		return "", err
	}
	log.Printf("Capture %s wrote %d samples to %s", h, len(samples), path)
	return types.SourceRef(path), nil
}

// Release deletes a take's file.
func (d *Device) Release(ref types.SourceRef) error {
	err := os.Remove(string(ref))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
