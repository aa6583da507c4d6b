package meter

import "github.com/schollz/trackstudio/internal/types"

// Normalize maps a device decibel reading in [-160, 0] onto [0, 1].
// Readings outside that range are clamped.
func Normalize(db float64) float64 {
	v := (db - types.MeterFloorDB) / -types.MeterFloorDB
	if v != v { // NaN
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// History is a fixed-capacity FIFO of normalized samples, oldest first.
// It is not safe for concurrent use; the owning session guards it.
type History struct {
	samples  []float64
	capacity int
}

// NewHistory creates a history holding at most capacity samples.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = types.LevelHistorySize
	}
	return &History{
		samples:  make([]float64, 0, capacity),
		capacity: capacity,
	}
}

// Push appends a sample, evicting the oldest once the history is full.
func (h *History) Push(v float64) {
	if len(h.samples) == h.capacity {
		copy(h.samples, h.samples[1:])
		h.samples = h.samples[:h.capacity-1]
	}
	h.samples = append(h.samples, v)
}

// Reset drops every sample.
func (h *History) Reset() {
	h.samples = h.samples[:0]
}

func (h *History) Len() int { return len(h.samples) }

func (h *History) Cap() int { return h.capacity }

// Snapshot returns a copy of the samples, oldest first.
func (h *History) Snapshot() []float64 {
	out := make([]float64, len(h.samples))
	copy(out, h.samples)
	return out
}

// Peak returns the loudest sample currently held.
func (h *History) Peak() float64 {
	peak := 0.0
	for _, v := range h.samples {
		if v > peak {
			peak = v
		}
	}
	return peak
}
