// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/walking_detector/internal/gait"
	"github.com/relabs-tech/walking_detector/internal/sensors"
)

var t0 = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return t0.Add(time.Duration(ms) * time.Millisecond)
}

// chanSource forwards whatever is sent on its channel.
type chanSource struct {
	samples chan gait.Sample
	err     error
}

func newChanSource() *chanSource {
	return &chanSource{samples: make(chan gait.Sample)}
}

func (s *chanSource) Run(ctx context.Context, sink sensors.Sink) error {
	if s.err != nil {
		return s.err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case smp := <-s.samples:
			_ = sink.Ingest(smp)
		}
	}
}

// send blocks until the source goroutine has taken the sample.
func (s *chanSource) send(t *testing.T, smp gait.Sample) {
	t.Helper()
	select {
	case s.samples <- smp:
	case <-time.After(5 * time.Second):
		t.Fatal("source not consuming samples")
	}
}

// footfall sends one gyro, linear and accelerometer sample at ms; the
// accelerometer sample is a step under the unfiltered detector config.
func (s *chanSource) footfall(t *testing.T, ms int) {
	s.send(t, gait.Sample{Channel: gait.Gyroscope, Values: gait.Vec3{X: 0.1, Y: 0.1, Z: 0.1}, Time: at(ms)})
	s.send(t, gait.Sample{Channel: gait.LinearAcceleration, Values: gait.Vec3{X: 0.2, Y: 0.2, Z: 0.2}, Time: at(ms)})
	s.send(t, gait.Sample{Channel: gait.Accelerometer, Values: gait.Vec3{Z: 12}, Time: at(ms)})
}

func newUnfilteredDetector(t *testing.T) *gait.Detector {
	t.Helper()
	cfg := gait.DefaultConfig()
	cfg.Alpha = 1
	d, err := gait.New(cfg)
	require.NoError(t, err)
	return d
}
