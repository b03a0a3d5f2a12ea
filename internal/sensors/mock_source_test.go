// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/walking_detector/internal/gait"
)

var base = time.Date(2026, 4, 2, 7, 0, 0, 0, time.UTC)

func TestMockSourceDrivesDetector(t *testing.T) {
	d, err := gait.New(gait.DefaultConfig())
	require.NoError(t, err)
	d.Start()

	var transitions []gait.Transition
	d.Subscribe(func(tr gait.Transition) { transitions = append(transitions, tr) })

	src := NewMockSource(MockOptions{
		Interval:    20 * time.Millisecond,
		Cadence:     500 * time.Millisecond,
		WalkPeriod:  10 * time.Second,
		StandPeriod: 5 * time.Second,
	})

	states := map[time.Duration]gait.State{}
	for elapsed := time.Duration(0); elapsed <= 12*time.Second; elapsed += 20 * time.Millisecond {
		for _, s := range src.Reading(elapsed, base.Add(elapsed)) {
			require.NoError(t, d.Ingest(s))
		}
		states[elapsed] = d.State()
	}

	assert.Equal(t, gait.Standing, states[2420*time.Millisecond])
	assert.Equal(t, gait.Walking, states[2440*time.Millisecond], "fifth footfall completes the window")
	assert.Equal(t, gait.Walking, states[9980*time.Millisecond])
	assert.Equal(t, gait.Walking, states[10540*time.Millisecond])
	assert.Equal(t, gait.Standing, states[10560*time.Millisecond])

	require.Len(t, transitions, 2)
	assert.Equal(t, gait.Walking, transitions[0].To)
	assert.Equal(t, base.Add(2440*time.Millisecond), transitions[0].At)
	assert.Equal(t, gait.Standing, transitions[1].To)
	assert.Equal(t, base.Add(10560*time.Millisecond), transitions[1].At)
}

func TestMockSourceWalkingNeedsVerticalMovement(t *testing.T) {
	d, err := gait.New(gait.DefaultConfig())
	require.NoError(t, err)
	d.Start()

	src := NewMockSource(MockOptions{Interval: 20 * time.Millisecond, Cadence: 500 * time.Millisecond})
	steps := 0
	for elapsed := time.Duration(0); elapsed <= 6*time.Second; elapsed += 20 * time.Millisecond {
		for _, s := range src.Reading(elapsed, base.Add(elapsed)) {
			if s.Channel == gait.Accelerometer {
				// hold the vertical axis at rest so only the forward surge remains
				s.Values.Y = mockRestY
			}
			require.NoError(t, d.Ingest(s))
		}
		steps = max(steps, d.Stats().StepCount)
		require.Equal(t, gait.Standing, d.State(), "walking at %v", elapsed)
	}
	assert.GreaterOrEqual(t, steps, 5, "footfalls are still detected")
}

func TestMockSourcePhases(t *testing.T) {
	src := NewMockSource(MockOptions{WalkPeriod: time.Second, StandPeriod: time.Second})
	assert.True(t, src.Walking(0))
	assert.True(t, src.Walking(999*time.Millisecond))
	assert.False(t, src.Walking(time.Second))
	assert.True(t, src.Walking(2*time.Second))

	forever := NewMockSource(MockOptions{})
	assert.True(t, forever.Walking(time.Hour))

	r := src.Reading(1500*time.Millisecond, base)
	assert.InDelta(t, mockRestY, r[0].Values.Y, 0.3, "gravity stays on the vertical axis")
	assert.InDelta(t, 0, r[0].Values.Z, 0.2, "standing carries no footfall")

	lift := src.Reading(350*time.Millisecond, base)
	assert.Equal(t, mockLiftY, lift[0].Values.Y)
	strike := src.Reading(450*time.Millisecond, base)
	assert.Equal(t, mockLiftY, strike[0].Values.Y)
	assert.Equal(t, mockSurgeZ, strike[0].Values.Z)
	assert.Equal(t, mockLinearPeakZ, strike[2].Values.Z)
	assert.Equal(t, gait.Accelerometer, r[0].Channel)
	assert.Equal(t, gait.Gyroscope, r[1].Channel)
	assert.Equal(t, gait.LinearAcceleration, r[2].Channel)
}

func TestMockSourceRun(t *testing.T) {
	src := NewMockSource(MockOptions{Interval: time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())

	var mu sync.Mutex
	var got []gait.Sample
	done := make(chan error, 1)
	go func() {
		done <- src.Run(ctx, SinkFunc(func(s gait.Sample) error {
			mu.Lock()
			got = append(got, s)
			mu.Unlock()
			return nil
		}))
	}()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) >= 9
	}, 5*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, gait.Accelerometer, got[0].Channel)
	assert.Equal(t, got[0].Time, got[2].Time)
}
