// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gait

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return t0.Add(time.Duration(ms) * time.Millisecond)
}

// unfilteredConfig disables smoothing so filtered values equal raw values.
func unfilteredConfig() Config {
	cfg := DefaultConfig()
	cfg.Alpha = 1
	return cfg
}

func newRunning(t *testing.T, cfg Config) *Detector {
	t.Helper()
	d, err := New(cfg)
	require.NoError(t, err)
	d.Start()
	return d
}

// quiet feeds gyroscope and linear acceleration readings inside the allowed
// ranges and below the linear step threshold.
func quiet(t *testing.T, d *Detector, ms int) {
	t.Helper()
	require.NoError(t, d.OnSample(Gyroscope, 0.1, 0.1, 0.1, at(ms)))
	require.NoError(t, d.OnSample(LinearAcceleration, 0.2, 0.2, 0.2, at(ms)))
}

// step feeds an accelerometer spike with the device lying flat, so the Y axis
// deviates from gravity on every sample.
func step(t *testing.T, d *Detector, ms int) {
	t.Helper()
	quiet(t, d, ms)
	require.NoError(t, d.OnSample(Accelerometer, 0, 0, 12, at(ms)))
}

// walk feeds n regular steps every cadence ms starting at start and returns
// the time of the last one.
func walk(t *testing.T, d *Detector, start, cadence, n int) int {
	t.Helper()
	ms := start
	for i := 0; i < n; i++ {
		ms = start + i*cadence
		step(t, d, ms)
	}
	return ms
}
