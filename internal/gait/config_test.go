// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gait

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestConfigValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero alpha", func(c *Config) { c.Alpha = 0 }},
		{"alpha above one", func(c *Config) { c.Alpha = 1.2 }},
		{"nan alpha", func(c *Config) { c.Alpha = math.NaN() }},
		{"unknown step mode", func(c *Config) { c.StepMode = StepMode(9) }},
		{"zero accel threshold", func(c *Config) { c.AccelStepThreshold = 0 }},
		{"negative linear threshold", func(c *Config) { c.LinearAccelStepThreshold = -1 }},
		{"negative min step interval", func(c *Config) { c.MinStepInterval = -time.Millisecond }},
		{"zero min steps", func(c *Config) { c.MinStepsForWalking = 0 }},
		{"zero quick stop", func(c *Config) { c.QuickStopInterval = 0 }},
		{"negative reset", func(c *Config) { c.ResetInterval = -time.Second }},
		{"reset shorter than quick stop", func(c *Config) { c.ResetInterval = 100 * time.Millisecond }},
		{"empty window", func(c *Config) { c.StepTimingWindow = 0 }},
		{"single slot window", func(c *Config) { c.StepTimingWindow = 1 }},
		{"zero deviation", func(c *Config) { c.MaxIntervalDeviation = 0 }},
		{"negative vertical threshold", func(c *Config) { c.VerticalMovementThreshold = -0.1 }},
		{"negative consistent threshold", func(c *Config) { c.ConsistentMovementThreshold = -1 }},
		{"zero max sample value", func(c *Config) { c.MaxSampleValue = 0 }},
		{"infinite max sample value", func(c *Config) { c.MaxSampleValue = math.Inf(1) }},
		{"max sample value near overflow", func(c *Config) { c.MaxSampleValue = 1e300 }},
		{"inverted gyro range", func(c *Config) { c.GyroRanges.Y = Range{Min: 1, Max: -1} }},
		{"infinite linear range", func(c *Config) { c.LinearAccelRanges.Z = Range{Min: math.Inf(-1), Max: 1} }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))

			_, err = New(cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestParseStepMode(t *testing.T) {
	m, err := ParseStepMode("delta")
	require.NoError(t, err)
	assert.Equal(t, StepOnDelta, m)

	m, err = ParseStepMode("")
	require.NoError(t, err)
	assert.Equal(t, StepOnMagnitude, m)

	_, err = ParseStepMode("peak")
	assert.Error(t, err)
}

func TestParseChannel(t *testing.T) {
	for in, want := range map[string]Channel{
		"accel":               Accelerometer,
		"Accelerometer":       Accelerometer,
		"gyro":                Gyroscope,
		" linear ":            LinearAcceleration,
		"linear_acceleration": LinearAcceleration,
	} {
		got, err := ParseChannel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseChannel("magnetometer")
	assert.ErrorIs(t, err, ErrUnknownChannel)
}
