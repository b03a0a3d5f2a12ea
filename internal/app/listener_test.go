// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/walking_detector/internal/gait"
)

func TestListenerLifecycle(t *testing.T) {
	d := newUnfilteredDetector(t)
	src := newChanSource()
	m := NewMetrics()
	l := NewListener(d, src, m, 0)

	l.Start(context.Background())
	l.Start(context.Background())
	require.True(t, d.Running())

	src.footfall(t, 0)
	require.Eventually(t, func() bool {
		return m.Counter("samples.accel") == 1
	}, time.Second, 5*time.Millisecond)

	l.Stop()
	l.Stop()
	assert.False(t, d.Running())
	assert.NoError(t, l.Err())

	select {
	case <-l.Done():
	default:
		t.Fatal("Done not closed after Stop")
	}

	// the source goroutine is gone, nothing consumes anymore
	select {
	case src.samples <- gait.Sample{Channel: gait.Accelerometer, Time: at(10)}:
		t.Fatal("sample consumed after Stop")
	case <-time.After(50 * time.Millisecond):
	}
	assert.EqualValues(t, 1, m.Counter("samples.accel"))
}

func TestListenerRestart(t *testing.T) {
	d := newUnfilteredDetector(t)
	src := newChanSource()
	l := NewListener(d, src, nil, 0)

	l.Start(context.Background())
	for i := 0; i < 5; i++ {
		src.footfall(t, i*500)
	}
	require.Eventually(t, func() bool {
		return d.State() == gait.Walking
	}, time.Second, 5*time.Millisecond)

	var got []gait.Transition
	cancel := d.Subscribe(func(tr gait.Transition) { got = append(got, tr) })
	defer cancel()

	l.Stop()
	require.Len(t, got, 1)
	assert.Equal(t, gait.Standing, got[0].To)

	l.Start(context.Background())
	defer l.Stop()
	assert.Equal(t, gait.Standing, d.State())
	assert.Zero(t, d.Stats().StepCount)
}

func TestListenerSourceError(t *testing.T) {
	d := newUnfilteredDetector(t)
	src := newChanSource()
	src.err = errors.New("port vanished")
	l := NewListener(d, src, nil, 0)

	l.Start(context.Background())
	select {
	case <-l.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("listener did not finish")
	}
	assert.EqualError(t, l.Err(), "port vanished")
	l.Stop()
	assert.False(t, d.Running())
}

func TestListenerAdvanceSettlesSilentSource(t *testing.T) {
	d := newUnfilteredDetector(t)
	src := newChanSource()
	l := NewListener(d, src, nil, 20*time.Millisecond)
	l.Start(context.Background())
	defer l.Stop()

	for i := 0; i < 5; i++ {
		src.footfall(t, i*500)
	}
	require.Eventually(t, func() bool {
		return d.State() == gait.Walking
	}, time.Second, 5*time.Millisecond)

	// no more samples: the quick-stop timer fires on the extrapolated sample clock
	require.Eventually(t, func() bool {
		return d.State() == gait.Standing
	}, 5*time.Second, 10*time.Millisecond)
}

func TestListenerContextCancel(t *testing.T) {
	d := newUnfilteredDetector(t)
	l := NewListener(d, newChanSource(), nil, 0)

	ctx, cancel := context.WithCancel(context.Background())
	l.Start(ctx)
	cancel()
	select {
	case <-l.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("listener ignored context")
	}
	l.Stop()
	assert.False(t, d.Running())
}
