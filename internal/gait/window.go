// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gait

import "time"

// StepWindow is a fixed-capacity FIFO of step timestamps.
// Pushing into a full window evicts the oldest entry.
type StepWindow struct {
	data []time.Time
	pos  int
	full bool
}

// NewStepWindow creates a StepWindow holding at most size timestamps.
func NewStepWindow(size int) *StepWindow {
	return &StepWindow{data: make([]time.Time, size)}
}

// Push appends t, dropping the oldest timestamp when the window is full.
func (w *StepWindow) Push(t time.Time) {
	w.data[w.pos] = t
	w.pos++
	if w.pos >= len(w.data) {
		w.pos = 0
		w.full = true
	}
}

// Len returns the number of timestamps held.
func (w *StepWindow) Len() int {
	if w.full {
		return len(w.data)
	}
	return w.pos
}

// Cap returns the window capacity.
func (w *StepWindow) Cap() int {
	return len(w.data)
}

// Full reports whether the window holds Cap timestamps.
func (w *StepWindow) Full() bool {
	return w.full
}

// Reset empties the window.
func (w *StepWindow) Reset() {
	w.pos = 0
	w.full = false
}

// Slice returns the timestamps oldest first.
func (w *StepWindow) Slice() []time.Time {
	out := make([]time.Time, w.Len())
	if w.full {
		n := copy(out, w.data[w.pos:])
		copy(out[n:], w.data[:w.pos])
	} else {
		copy(out, w.data[:w.pos])
	}
	return out
}

// Intervals returns the Len()-1 differences between consecutive timestamps.
func (w *StepWindow) Intervals() []time.Duration {
	ts := w.Slice()
	if len(ts) < 2 {
		return nil
	}
	out := make([]time.Duration, len(ts)-1)
	for i := 1; i < len(ts); i++ {
		out[i-1] = ts[i].Sub(ts[i-1])
	}
	return out
}
