// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/relabs-tech/walking_detector/internal/config"
	"github.com/relabs-tech/walking_detector/internal/gait"
	"github.com/relabs-tech/walking_detector/internal/sensors"
)

// RunMockConsole feeds the mock source into a local detector and prints
// every transition. It needs no broker.
func RunMockConsole(ctx context.Context) error {
	return runMockConsole(ctx, config.Get(), os.Stdout)
}

func runMockConsole(ctx context.Context, cfg *config.Config, out io.Writer) error {
	d, err := gait.New(cfg.DetectorConfig())
	if err != nil {
		return err
	}
	src := sensors.NewMockSource(sensors.MockOptions{
		Interval:    cfg.SampleInterval,
		Cadence:     cfg.MockCadence,
		WalkPeriod:  cfg.MockWalkPeriod,
		StandPeriod: cfg.MockStandPeriod,
	})

	start := time.Now()
	cancel := d.Subscribe(func(tr gait.Transition) {
		fmt.Fprintf(out, "%8.2fs  %s -> %s  steps=%d\n",
			tr.At.Sub(start).Seconds(), tr.From, tr.To, tr.Steps)
	})
	defer cancel()

	l := NewListener(d, src, nil, cfg.AdvanceInterval)
	l.Start(ctx)
	select {
	case <-ctx.Done():
	case <-l.Done():
	}
	l.Stop()
	return l.Err()
}
