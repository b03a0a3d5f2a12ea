// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/relabs-tech/walking_detector/internal/broker"
	"github.com/relabs-tech/walking_detector/internal/config"
	"github.com/relabs-tech/walking_detector/internal/gait"
	"github.com/relabs-tech/walking_detector/internal/recorder"
	"github.com/relabs-tech/walking_detector/internal/sensors"
	"github.com/relabs-tech/walking_detector/internal/telemetry"
)

// transitionQueue bounds how many state changes may wait for the publisher.
const transitionQueue = 64

// RunDetector reads samples from the configured source, classifies them and
// publishes every state change plus periodic snapshots until ctx is done.
func RunDetector(ctx context.Context) error {
	return runDetector(ctx, config.Get())
}

func runDetector(ctx context.Context, cfg *config.Config) error {
	log.Printf("starting walking detector (source=%s, publisher=%s)", cfg.Source, cfg.Publisher)

	if cfg.MQTTEmbeddedBroker {
		b, err := broker.Start(cfg.MQTTEmbeddedAddr)
		if err != nil {
			return fmt.Errorf("embedded broker: %w", err)
		}
		defer b.Close()
	}

	d, err := gait.New(cfg.DetectorConfig())
	if err != nil {
		return err
	}
	src, err := sensors.New(cfg)
	if err != nil {
		return fmt.Errorf("sample source: %w", err)
	}
	pub, err := NewPublisher(cfg)
	if err != nil {
		return err
	}
	defer pub.Close()

	metrics := NewMetrics()
	publishState := func(msg telemetry.StateMessage) {
		err := pub.PublishState(msg)
		metrics.ObservePublish(err)
		if err != nil {
			log.Printf("detector: %v", err)
		}
	}
	publishState(telemetry.CurrentState(gait.Standing, 0, time.Now()))

	// Observers run on the ingest path, so publishing happens on its own goroutine.
	transitions := make(chan gait.Transition, transitionQueue)
	cancelSub := d.Subscribe(func(tr gait.Transition) {
		metrics.ObserveTransition(tr)
		select {
		case transitions <- tr:
		default:
			log.Printf("detector: publish queue full, dropping %s -> %s", tr.From, tr.To)
		}
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for tr := range transitions {
			log.Printf("detector: %s -> %s after %d steps", tr.From, tr.To, tr.Steps)
			publishState(telemetry.NewStateMessage(tr))
		}
	}()

	runCtx, stopRun := context.WithCancel(ctx)
	defer stopRun()

	if cfg.RecordEnabled {
		rec, err := recorder.New(d, recorder.Options{
			File:           cfg.RecordFile,
			Interval:       cfg.RecordInterval,
			MaxSizeMB:      cfg.RecordMaxSizeMB,
			MaxBackups:     cfg.RecordMaxBackups,
			ExportDir:      cfg.RecordExportDir,
			ExportSchedule: cfg.RecordExportSchedule,
		})
		if err != nil {
			cancelSub()
			close(transitions)
			wg.Wait()
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := rec.Run(runCtx); err != nil {
				log.Printf("recorder: close: %v", err)
			}
		}()
	}

	listener := NewListener(d, src, metrics, cfg.AdvanceInterval)
	listener.Start(runCtx)

	ticker := time.NewTicker(cfg.SnapshotPublishInterval)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-listener.Done():
			break loop
		case <-ticker.C:
			snap := d.Snapshot()
			if snap.UpdatedAt.IsZero() {
				continue
			}
			err := pub.PublishSnapshot(telemetry.NewSnapshotMessage(snap, d.State(), d.Stats()))
			metrics.ObservePublish(err)
			if err != nil {
				log.Printf("detector: %v", err)
			}
		}
	}

	// Stopping the listener may still emit Walking -> Standing; publish it before closing.
	last := d.Snapshot()
	listener.Stop()
	stopRun()
	cancelSub()
	close(transitions)
	wg.Wait()

	// replace the retained snapshot so it no longer reports the pre-shutdown state
	if !last.UpdatedAt.IsZero() {
		err := pub.PublishSnapshot(telemetry.NewSnapshotMessage(last, gait.Standing, gait.Stats{}))
		metrics.ObservePublish(err)
		if err != nil {
			log.Printf("detector: %v", err)
		}
	}

	log.Printf("detector: stopped, %s", metrics)
	return listener.Err()
}
