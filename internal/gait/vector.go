// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gait

import "math"

// Vec3 holds one tri-axial reading.
type Vec3 struct {
	X, Y, Z float64
}

// Norm returns the Euclidean magnitude sqrt(x² + y² + z²) without
// intermediate overflow.
func (v Vec3) Norm() float64 {
	return math.Hypot(math.Hypot(v.X, v.Y), v.Z)
}

// MaxAbs returns the largest absolute axis value.
func (v Vec3) MaxAbs() float64 {
	return math.Max(math.Abs(v.X), math.Max(math.Abs(v.Y), math.Abs(v.Z)))
}

// IsFinite reports whether all three axes are neither NaN nor ±Inf.
func (v Vec3) IsFinite() bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Range is a closed interval [Min, Max].
type Range struct {
	Min float64
	Max float64
}

// Contains reports whether v lies inside the interval, bounds included.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// AxisRanges holds one Range per axis.
type AxisRanges struct {
	X, Y, Z Range
}

// Contains reports whether every axis of v is inside its range.
func (a AxisRanges) Contains(v Vec3) bool {
	return a.X.Contains(v.X) && a.Y.Contains(v.Y) && a.Z.Contains(v.Z)
}

// UniformRanges returns AxisRanges with the same interval on all three axes.
func UniformRanges(min, max float64) AxisRanges {
	r := Range{Min: min, Max: max}
	return AxisRanges{X: r, Y: r, Z: r}
}
