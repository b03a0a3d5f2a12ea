// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sensors produces gait samples from simulated, hardware, serial
// and MQTT inputs.
package sensors

import (
	"context"
	"fmt"

	"github.com/relabs-tech/walking_detector/internal/config"
	"github.com/relabs-tech/walking_detector/internal/gait"
)

// Sink receives decoded samples. *gait.Detector is a Sink.
type Sink interface {
	Ingest(s gait.Sample) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(gait.Sample) error

func (f SinkFunc) Ingest(s gait.Sample) error { return f(s) }

// Source delivers samples to a sink until ctx is cancelled or the input fails.
type Source interface {
	Run(ctx context.Context, sink Sink) error
}

// New builds the source selected by cfg.Source.
func New(cfg *config.Config) (Source, error) {
	switch cfg.Source {
	case config.SourceMock:
		return NewMockSource(MockOptions{
			Interval:    cfg.SampleInterval,
			Cadence:     cfg.MockCadence,
			WalkPeriod:  cfg.MockWalkPeriod,
			StandPeriod: cfg.MockStandPeriod,
		}), nil
	case config.SourceIMU:
		return NewIMUSource(cfg)
	case config.SourceSerial:
		return NewSerialSource(cfg.SerialPort, cfg.SerialBaudRate), nil
	case config.SourceMQTT:
		return NewMQTTSource(cfg.MQTTBroker, cfg.MQTTClientIDSource, cfg.TopicSamples), nil
	default:
		return nil, fmt.Errorf("unknown sample source %q", cfg.Source)
	}
}
