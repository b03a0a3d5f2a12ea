// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"context"
	"log"
	"math"
	"time"

	"github.com/relabs-tech/walking_detector/internal/gait"
)

// Signal levels of the simulated carrier. The phone is carried upright, so
// gravity is on Y and the forward axis is Z. Before each footfall the body
// unloads (Y drops) and the heel strike surges forward on Z.
const (
	mockRestY       = 9.66
	mockLiftY       = 6.0
	mockSurgeZ      = 18.0
	mockLinearRestZ = -0.15
	mockLinearPeakZ = 0.6
)

// MockOptions shapes the simulated walk.
type MockOptions struct {
	Interval    time.Duration // sample period
	Cadence     time.Duration // time between footfalls
	WalkPeriod  time.Duration // 0 walks forever
	StandPeriod time.Duration
}

// MockSource simulates a carrier alternating between walking and standing.
type MockSource struct {
	opts MockOptions
}

// NewMockSource creates a mock source. Zero options fall back to 50 Hz
// sampling at two steps per second.
func NewMockSource(opts MockOptions) *MockSource {
	if opts.Interval <= 0 {
		opts.Interval = 20 * time.Millisecond
	}
	if opts.Cadence <= 0 {
		opts.Cadence = 500 * time.Millisecond
	}
	return &MockSource{opts: opts}
}

// Walking reports whether the simulated carrier walks at elapsed.
func (m *MockSource) Walking(elapsed time.Duration) bool {
	if m.opts.WalkPeriod <= 0 {
		return true
	}
	return elapsed%(m.opts.WalkPeriod+m.opts.StandPeriod) < m.opts.WalkPeriod
}

// Reading returns the accelerometer, gyroscope and linear acceleration
// samples at elapsed, in that order, stamped with at.
func (m *MockSource) Reading(elapsed time.Duration, at time.Time) [3]gait.Sample {
	t := elapsed.Seconds()

	ay := mockRestY + 0.3*math.Cos(t*0.7)
	az := 0.2 * math.Cos(t*0.9)
	lz := mockLinearRestZ

	// the last two fifths of each step cycle lift, the last fifth also strikes
	if m.Walking(elapsed) {
		phase := elapsed % m.opts.Cadence
		if phase >= m.opts.Cadence-2*m.opts.Cadence/5 {
			ay = mockLiftY
		}
		if phase >= m.opts.Cadence-m.opts.Cadence/5 {
			az, lz = mockSurgeZ, mockLinearPeakZ
		}
	}

	return [3]gait.Sample{
		{
			Channel: gait.Accelerometer,
			Values:  gait.Vec3{X: 0.2 * math.Sin(t), Y: ay, Z: az},
			Time:    at,
		},
		{
			Channel: gait.Gyroscope,
			Values:  gait.Vec3{X: 0.2 * math.Sin(2*math.Pi*t), Y: 0.1 * math.Cos(2*math.Pi*t), Z: 0.05 * math.Sin(t)},
			Time:    at,
		},
		{
			Channel: gait.LinearAcceleration,
			Values:  gait.Vec3{X: 0.1 * math.Sin(t*1.3), Y: 0.1 * math.Cos(t*0.9), Z: lz},
			Time:    at,
		},
	}
}

// Run emits one reading per interval until ctx is done.
func (m *MockSource) Run(ctx context.Context, sink Sink) error {
	ticker := time.NewTicker(m.opts.Interval)
	defer ticker.Stop()
	start := time.Now()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			for _, s := range m.Reading(now.Sub(start), now) {
				if err := sink.Ingest(s); err != nil {
					log.Printf("mock source: %v", err)
				}
			}
		}
	}
}
