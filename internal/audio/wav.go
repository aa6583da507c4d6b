package audio

import (
	"fmt"
	"math"
	"os"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// BitDepth is the sample depth of every file this package writes.
const BitDepth = 16

const pcmFormat = 1

// WriteWAV writes mono samples in [-1, 1] as 16-bit PCM. Samples outside the
// range are clipped.
func WriteWAV(path string, samples []float64, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	scale := float64(int(1)<<(BitDepth-1) - 1)
	data := make([]int, len(samples))
	for i, v := range samples {
		data[i] = int(math.Round(clip(v) * scale))
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: BitDepth,
	}

	enc := wav.NewEncoder(f, sampleRate, BitDepth, 1, pcmFormat)
	if err := enc.Write(buf); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("failed to finish %s: %w", path, err)
	}
	return f.Close()
}

// ReadWAV decodes a PCM wav file into mono samples in [-1, 1]. Multichannel
// files are averaged down to one channel.
func ReadWAV(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("%s is not a valid wav file", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	depth := buf.SourceBitDepth
	if depth <= 0 {
		depth = BitDepth
	}
	scale := float64(int(1) << (depth - 1))

	frames := len(buf.Data) / channels
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		sum := 0.0
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c]) / scale
		}
		out[i] = sum / float64(channels)
	}
	return out, buf.Format.SampleRate, nil
}

// Duration reports the playing time of a wav file.
func Duration(path string) (time.Duration, error) {
	samples, rate, err := ReadWAV(path)
	if err != nil {
		return 0, err
	}
	if rate <= 0 {
		return 0, fmt.Errorf("%s has no sample rate", path)
	}
	return time.Duration(len(samples)) * time.Second / time.Duration(rate), nil
}

// PeakDB returns the peak level of samples in dBFS, floored at floor.
func PeakDB(samples []float64, floor float64) float64 {
	peak := 0.0
	for _, v := range samples {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	if peak == 0 {
		return floor
	}
	db := 20 * math.Log10(peak)
	if db < floor {
		return floor
	}
	return db
}

func clip(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
