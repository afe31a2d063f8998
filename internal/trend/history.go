// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package trend keeps the recent sea-level pressure samples and turns them
// into a coarse rate-of-change indicator.
package trend

// Direction is a discretized pressure change over the trend window.
type Direction int

const (
	FallingFast Direction = iota - 3
	Falling
	FallingSlow
	Flat
	RisingSlow
	Rising
	RisingFast
)

// Backslash is the display cell holding the custom backslash glyph; the
// character ROM of small displays has a yen sign in its place.
const Backslash = "\x03"

const (
	// halfWindow is the number of samples averaged on each side of the split.
	halfWindow = 30
	// minSamples is the buffer length the trend needs; anything shorter is Flat.
	minSamples = 2*halfWindow + 1
)

// Glyph returns the short symbol drawn after the sea-level reading.
func (d Direction) Glyph() string {
	switch d {
	case RisingFast:
		return "^^"
	case Rising:
		return "^"
	case RisingSlow:
		return "/"
	case FallingSlow:
		return Backslash
	case Falling:
		return "v"
	case FallingFast:
		return "vv"
	default:
		return "-"
	}
}

func (d Direction) String() string {
	switch d {
	case RisingFast:
		return "rising fast"
	case Rising:
		return "rising"
	case RisingSlow:
		return "rising slow"
	case FallingSlow:
		return "falling slow"
	case Falling:
		return "falling"
	case FallingFast:
		return "falling fast"
	default:
		return "flat"
	}
}

// History is a FIFO of sea-level pressure samples in Pa, capped at a fixed
// capacity. It is not safe for concurrent use.
type History struct {
	samples  []int
	capacity int
}

// NewHistory returns an empty history holding at most capacity samples.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{
		samples:  make([]int, 0, capacity),
		capacity: capacity,
	}
}

// Append adds a sample, evicting the oldest one when the buffer is full.
func (h *History) Append(pa int) {
	if len(h.samples) == h.capacity {
		copy(h.samples, h.samples[1:])
		h.samples = h.samples[:len(h.samples)-1]
	}
	h.samples = append(h.samples, pa)
}

// Len returns the number of buffered samples.
func (h *History) Len() int { return len(h.samples) }

// Cap returns the capacity.
func (h *History) Cap() int { return h.capacity }

// Samples returns a copy of the buffer, oldest first.
func (h *History) Samples() []int {
	out := make([]int, len(h.samples))
	copy(out, h.samples)
	return out
}

// Delta returns mean(newest 30) - mean(the 30 before them) and whether the
// buffer is long enough for the value to mean anything.
func (h *History) Delta() (float64, bool) {
	n := len(h.samples)
	if n < minSamples {
		return 0, false
	}
	newer := h.samples[n-halfWindow:]
	older := h.samples[n-2*halfWindow : n-halfWindow]
	return mean(newer) - mean(older), true
}

// Trend classifies Delta. Buckets are closed on their lower bound except
// Falling, whose bound at -500 is open: a delta of exactly -500 is
// FallingFast while +500 is RisingFast.
func (h *History) Trend() Direction {
	delta, ok := h.Delta()
	if !ok {
		return Flat
	}
	return Classify(delta)
}

// Classify maps a pressure change in Pa to a Direction.
func Classify(delta float64) Direction {
	switch {
	case delta >= 500:
		return RisingFast
	case delta >= 250:
		return Rising
	case delta >= 25:
		return RisingSlow
	case delta >= -25:
		return Flat
	case delta >= -250:
		return FallingSlow
	case delta > -500:
		return Falling
	default:
		return FallingFast
	}
}

func mean(xs []int) float64 {
	var sum int
	for _, x := range xs {
		sum += x
	}
	return float64(sum) / float64(len(xs))
}
