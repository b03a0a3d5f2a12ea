// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gait

import (
	"fmt"
	"time"
)

// maxSampleValueLimit keeps filter arithmetic far away from float64 overflow.
const maxSampleValueLimit = 1e12

// StandardGravity is the standard acceleration of gravity in m/s².
const StandardGravity = 9.80665

// StepMode selects how candidate steps are derived from a channel's magnitude.
type StepMode int

const (
	// StepOnMagnitude fires when the filtered magnitude exceeds the channel threshold.
	StepOnMagnitude StepMode = iota
	// StepOnDelta fires when the magnitude changed by more than the channel threshold
	// since the previous sample of the same channel.
	StepOnDelta
)

func (m StepMode) String() string {
	switch m {
	case StepOnMagnitude:
		return "magnitude"
	case StepOnDelta:
		return "delta"
	default:
		return fmt.Sprintf("stepmode(%d)", int(m))
	}
}

// ParseStepMode parses "magnitude" or "delta".
func ParseStepMode(s string) (StepMode, error) {
	switch s {
	case "magnitude", "":
		return StepOnMagnitude, nil
	case "delta":
		return StepOnDelta, nil
	default:
		return 0, fmt.Errorf("unknown step mode %q (want magnitude or delta)", s)
	}
}

// Config holds every tunable of the classification pipeline.
// Accelerations are in m/s², angular rates in rad/s.
type Config struct {
	// Alpha is the exponential smoothing factor in (0, 1]. 1 disables smoothing.
	Alpha float64

	StepMode StepMode
	// AccelStepThreshold and LinearAccelStepThreshold are compared against the
	// filtered magnitude (StepOnMagnitude) or its sample-to-sample change (StepOnDelta).
	AccelStepThreshold       float64
	LinearAccelStepThreshold float64

	MinStepInterval    time.Duration
	MinStepsForWalking int
	QuickStopInterval  time.Duration
	ResetInterval      time.Duration

	// StepTimingWindow is the number of step timestamps kept to judge cadence.
	StepTimingWindow     int
	MaxIntervalDeviation time.Duration

	Gravity                     float64
	VerticalMovementThreshold   float64
	ConsistentMovementThreshold int

	// MaxSampleValue bounds the absolute value of every raw axis. Larger
	// readings are rejected as sensor faults.
	MaxSampleValue float64

	// RangeGate enables the gyroscope / linear-acceleration axis-range check
	// before entering Walking.
	RangeGate         bool
	GyroRanges        AxisRanges
	LinearAccelRanges AxisRanges
}

// DefaultConfig returns the reference tuning for a handheld phone-class IMU.
func DefaultConfig() Config {
	return Config{
		Alpha:                       0.2,
		StepMode:                    StepOnMagnitude,
		AccelStepThreshold:          10.5,
		LinearAccelStepThreshold:    0.65,
		MinStepInterval:             250 * time.Millisecond,
		MinStepsForWalking:          2,
		QuickStopInterval:           600 * time.Millisecond,
		ResetInterval:               1500 * time.Millisecond,
		StepTimingWindow:            5,
		MaxIntervalDeviation:        150 * time.Millisecond,
		Gravity:                     StandardGravity,
		VerticalMovementThreshold:   1.2,
		ConsistentMovementThreshold: 3,
		MaxSampleValue:              1000,
		RangeGate:                   true,
		GyroRanges:                  UniformRanges(-0.5, 1.0),
		LinearAccelRanges:           UniformRanges(-0.5, 1.0),
	}
}

// Validate checks the configuration and returns an error wrapping ErrInvalidConfig.
func (c Config) Validate() error {
	if !isFinite(c.Alpha) || c.Alpha <= 0 || c.Alpha > 1 {
		return invalid("alpha must be in (0, 1], got %v", c.Alpha)
	}
	if c.StepMode != StepOnMagnitude && c.StepMode != StepOnDelta {
		return invalid("unknown step mode %d", int(c.StepMode))
	}
	if !isFinite(c.AccelStepThreshold) || c.AccelStepThreshold <= 0 {
		return invalid("accelerometer step threshold must be > 0, got %v", c.AccelStepThreshold)
	}
	if !isFinite(c.LinearAccelStepThreshold) || c.LinearAccelStepThreshold <= 0 {
		return invalid("linear acceleration step threshold must be > 0, got %v", c.LinearAccelStepThreshold)
	}
	if c.MinStepInterval < 0 {
		return invalid("min step interval must not be negative, got %v", c.MinStepInterval)
	}
	if c.MinStepsForWalking < 1 {
		return invalid("min steps for walking must be >= 1, got %d", c.MinStepsForWalking)
	}
	if c.QuickStopInterval <= 0 {
		return invalid("quick-stop interval must be > 0, got %v", c.QuickStopInterval)
	}
	if c.ResetInterval <= 0 {
		return invalid("reset interval must be > 0, got %v", c.ResetInterval)
	}
	if c.ResetInterval < c.QuickStopInterval {
		return invalid("reset interval (%v) must not be shorter than quick-stop interval (%v)", c.ResetInterval, c.QuickStopInterval)
	}
	if c.StepTimingWindow < 2 {
		return invalid("step timing window must hold at least 2 steps, got %d", c.StepTimingWindow)
	}
	if c.MaxIntervalDeviation <= 0 {
		return invalid("max interval deviation must be > 0, got %v", c.MaxIntervalDeviation)
	}
	if !isFinite(c.Gravity) || c.Gravity < 0 {
		return invalid("gravity must be finite and >= 0, got %v", c.Gravity)
	}
	if !isFinite(c.VerticalMovementThreshold) || c.VerticalMovementThreshold < 0 {
		return invalid("vertical movement threshold must be >= 0, got %v", c.VerticalMovementThreshold)
	}
	if c.ConsistentMovementThreshold < 0 {
		return invalid("consistent movement threshold must be >= 0, got %d", c.ConsistentMovementThreshold)
	}
	if !isFinite(c.MaxSampleValue) || c.MaxSampleValue <= 0 || c.MaxSampleValue > maxSampleValueLimit {
		return invalid("max sample value must be in (0, %g], got %v", maxSampleValueLimit, c.MaxSampleValue)
	}
	if err := validateRanges("gyro", c.GyroRanges); err != nil {
		return err
	}
	return validateRanges("linear acceleration", c.LinearAccelRanges)
}

func validateRanges(name string, a AxisRanges) error {
	axes := [...]struct {
		name string
		r    Range
	}{{"x", a.X}, {"y", a.Y}, {"z", a.Z}}
	for _, ax := range axes {
		if !isFinite(ax.r.Min) || !isFinite(ax.r.Max) || ax.r.Min > ax.r.Max {
			return invalid("%s %s range [%v, %v] is not a valid interval", name, ax.name, ax.r.Min, ax.r.Max)
		}
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
