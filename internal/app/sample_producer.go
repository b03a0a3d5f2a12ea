// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/walking_detector/internal/config"
	"github.com/relabs-tech/walking_detector/internal/gait"
	"github.com/relabs-tech/walking_detector/internal/sensors"
	"github.com/relabs-tech/walking_detector/internal/telemetry"
)

// RunSampleProducer publishes simulated samples on the samples topic, for a
// detector running with SOURCE=mqtt.
func RunSampleProducer(ctx context.Context) error {
	return runSampleProducer(ctx, config.Get())
}

func runSampleProducer(ctx context.Context, cfg *config.Config) error {
	log.Println("starting walking sample producer (mock)")

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDSource)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT connect error: %w", token.Error())
	}
	defer client.Disconnect(250)
	log.Printf("producer: publishing to %s", cfg.TopicSamples)

	src := sensors.NewMockSource(sensors.MockOptions{
		Interval:    cfg.SampleInterval,
		Cadence:     cfg.MockCadence,
		WalkPeriod:  cfg.MockWalkPeriod,
		StandPeriod: cfg.MockStandPeriod,
	})
	return src.Run(ctx, sensors.SinkFunc(func(s gait.Sample) error {
		payload, err := json.Marshal(telemetry.NewSampleMessage(s))
		if err != nil {
			return fmt.Errorf("json marshal error (sample): %w", err)
		}
		if token := client.Publish(cfg.TopicSamples, 0, false, payload); token.Wait() && token.Error() != nil {
			return fmt.Errorf("MQTT publish error (%s): %w", cfg.TopicSamples, token.Error())
		}
		return nil
	}))
}
