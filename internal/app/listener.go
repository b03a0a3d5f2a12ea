// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/relabs-tech/walking_detector/internal/gait"
	"github.com/relabs-tech/walking_detector/internal/sensors"
)

// Listener binds a sample source to a detector.
type Listener struct {
	detector     *gait.Detector
	source       sensors.Source
	metrics      *Metrics
	advanceEvery time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	err    error

	clockMu    sync.Mutex
	lastSample time.Time // sample clock of the last accepted sample
	lastWall   time.Time // wall clock when it arrived
}

// NewListener creates a stopped listener. When advanceEvery is positive and
// the source stays silent that long, the detector timers are advanced along
// the extrapolated sample clock so a vanished sensor still settles to Standing.
func NewListener(d *gait.Detector, src sensors.Source, m *Metrics, advanceEvery time.Duration) *Listener {
	if m == nil {
		m = NewMetrics()
	}
	return &Listener{detector: d, source: src, metrics: m, advanceEvery: advanceEvery}
}

// Start starts the detector and the source. Calling Start on a running
// listener is a no-op.
func (l *Listener) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		return
	}

	l.detector.Start()
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	l.cancel, l.done, l.err = cancel, done, nil

	go func() {
		defer close(done)
		var wg sync.WaitGroup
		if l.advanceEvery > 0 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				l.advanceLoop(ctx)
			}()
		}

		err := l.source.Run(ctx, l.metrics.Sink(sensors.SinkFunc(l.ingest)))
		if err != nil {
			log.Printf("listener: source stopped: %v", err)
		}
		cancel()
		wg.Wait()

		l.mu.Lock()
		l.err = err
		l.mu.Unlock()
	}()
}

// Stop cancels the source, waits for it to return and stops the detector.
// No sample reaches the detector after Stop returns. Calling Stop twice is a no-op.
func (l *Listener) Stop() {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel = nil
	l.mu.Unlock()
	if cancel == nil {
		return
	}

	cancel()
	<-done
	l.detector.Stop()
}

// Done is closed when the source returns, either after Stop or on its own.
func (l *Listener) Done() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return l.done
}

// Err returns the error the source stopped with, if any.
func (l *Listener) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

func (l *Listener) ingest(s gait.Sample) error {
	if err := l.detector.Ingest(s); err != nil {
		return err
	}
	l.clockMu.Lock()
	if s.Time.After(l.lastSample) {
		l.lastSample = s.Time
	}
	l.lastWall = time.Now()
	l.clockMu.Unlock()
	return nil
}

func (l *Listener) advanceLoop(ctx context.Context) {
	ticker := time.NewTicker(l.advanceEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			l.clockMu.Lock()
			sample, wall := l.lastSample, l.lastWall
			l.clockMu.Unlock()
			if wall.IsZero() {
				continue
			}
			silent := now.Sub(wall)
			if silent < l.advanceEvery {
				continue
			}
			if err := l.detector.Advance(sample.Add(silent)); err != nil {
				return
			}
		}
	}
}
