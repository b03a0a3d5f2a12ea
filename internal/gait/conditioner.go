// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gait

// SignalConditioner applies per-channel exponential smoothing and computes
// the magnitude of the smoothed vector. Each channel filter is independent
// and starts at the zero vector.
type SignalConditioner struct {
	alpha    float64
	filtered [numChannels]Vec3
}

// NewSignalConditioner creates a conditioner with smoothing factor alpha.
func NewSignalConditioner(alpha float64) *SignalConditioner {
	return &SignalConditioner{alpha: alpha}
}

// Update folds raw into the channel filter and returns the filtered vector and
// its magnitude. If either would not be finite the filter is left untouched
// and ok is false.
func (c *SignalConditioner) Update(ch Channel, raw Vec3) (filtered Vec3, magnitude float64, ok bool) {
	f := c.filtered[ch]
	next := Vec3{
		X: f.X + c.alpha*(raw.X-f.X),
		Y: f.Y + c.alpha*(raw.Y-f.Y),
		Z: f.Z + c.alpha*(raw.Z-f.Z),
	}
	mag := next.Norm()
	if !next.IsFinite() || !isFinite(mag) {
		return f, f.Norm(), false
	}
	c.filtered[ch] = next
	return next, mag, true
}

// Filtered returns the current filter state of ch.
func (c *SignalConditioner) Filtered(ch Channel) Vec3 {
	return c.filtered[ch]
}

// Reset zeroes every channel filter.
func (c *SignalConditioner) Reset() {
	c.filtered = [numChannels]Vec3{}
}
