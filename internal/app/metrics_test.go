// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/walking_detector/internal/gait"
	"github.com/relabs-tech/walking_detector/internal/sensors"
)

func TestMetricsSink(t *testing.T) {
	m := NewMetrics()
	bad := errors.New("bad sample")
	sink := m.Sink(sensors.SinkFunc(func(s gait.Sample) error {
		if s.Values.X < 0 {
			return bad
		}
		return nil
	}))

	require.NoError(t, sink.Ingest(gait.Sample{Channel: gait.Accelerometer}))
	require.NoError(t, sink.Ingest(gait.Sample{Channel: gait.Accelerometer}))
	require.NoError(t, sink.Ingest(gait.Sample{Channel: gait.LinearAcceleration}))
	require.ErrorIs(t, sink.Ingest(gait.Sample{Channel: gait.Gyroscope, Values: gait.Vec3{X: -1}}), bad)

	assert.EqualValues(t, 2, m.Counter("samples.accel"))
	assert.EqualValues(t, 0, m.Counter("samples.gyro"))
	assert.EqualValues(t, 1, m.Counter("samples.linear"))
	assert.EqualValues(t, 1, m.Counter("samples.rejected"))
	assert.EqualValues(t, 0, m.Counter("no.such.counter"))

	snap := m.Snapshot()
	assert.EqualValues(t, 3, snap["samples.rate.count"])
	assert.EqualValues(t, 4, snap["samples.ingest.count"])
}

func TestMetricsObservers(t *testing.T) {
	m := NewMetrics()
	m.ObserveTransition(gait.Transition{From: gait.Standing, To: gait.Walking})
	m.ObserveTransition(gait.Transition{From: gait.Walking, To: gait.Standing})
	m.ObservePublish(nil)
	m.ObservePublish(errors.New("broker down"))
	m.ObservePublish(nil)

	assert.EqualValues(t, 2, m.Counter("state.transitions"))
	assert.EqualValues(t, 1, m.Counter("state.walking"))
	assert.EqualValues(t, 2, m.Counter("publish.ok"))
	assert.EqualValues(t, 1, m.Counter("publish.errors"))

	s := m.String()
	assert.Contains(t, s, "publish.errors=1")
	assert.Contains(t, s, "state.transitions=2")
	assert.Regexp(t, `^publish\.errors=1 publish\.ok=2 `, s)
}
