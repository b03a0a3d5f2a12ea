// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/walking_detector/internal/gait"
)

func TestParseSampleLine(t *testing.T) {
	s, err := ParseSampleLine("accel, 0.1, -0.2, 9.8", base)
	require.NoError(t, err)
	assert.Equal(t, gait.Sample{Channel: gait.Accelerometer, Values: gait.Vec3{X: 0.1, Y: -0.2, Z: 9.8}, Time: base}, s)

	s, err = ParseSampleLine("g,1,2,3,1700000000500", base)
	require.NoError(t, err)
	assert.Equal(t, gait.Gyroscope, s.Channel)
	assert.Equal(t, time.UnixMilli(1700000000500), s.Time)

	_, err = ParseSampleLine("linear,1,2", base)
	assert.ErrorIs(t, err, gait.ErrTripleLength)

	_, err = ParseSampleLine("linear,1,2,3,4,5", base)
	assert.ErrorIs(t, err, gait.ErrTripleLength)

	_, err = ParseSampleLine("compass,1,2,3", base)
	assert.ErrorIs(t, err, gait.ErrUnknownChannel)

	_, err = ParseSampleLine("accel,1,x,3", base)
	assert.Error(t, err)

	_, err = ParseSampleLine("accel,1,2,3,soon", base)
	assert.Error(t, err)

	_, err = ParseSampleLine("accel", base)
	assert.Error(t, err)
}

func TestReadSampleLines(t *testing.T) {
	input := strings.Join([]string{
		"# header",
		"accel,0,0,9.8",
		"garbage",
		"",
		"gyro,0.1,0.2,0.3",
		"linear,1,2,3", // no trailing newline
	}, "\n")

	var got []gait.Sample
	err := ReadSampleLines(strings.NewReader(input), SinkFunc(func(s gait.Sample) error {
		got = append(got, s)
		return nil
	}), func() time.Time { return base })
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, gait.Accelerometer, got[0].Channel)
	assert.Equal(t, gait.Gyroscope, got[1].Channel)
	assert.Equal(t, gait.LinearAcceleration, got[2].Channel)
	assert.Equal(t, gait.Vec3{X: 1, Y: 2, Z: 3}, got[2].Values)
}
