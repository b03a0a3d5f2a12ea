// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/walking_detector/internal/config"
	"github.com/relabs-tech/walking_detector/internal/telemetry"
)

// RunConsoleMQTT prints every state and snapshot message until ctx is done.
func RunConsoleMQTT(ctx context.Context) error {
	return runConsoleMQTT(ctx, config.Get(), os.Stdout)
}

func runConsoleMQTT(ctx context.Context, cfg *config.Config, out io.Writer) error {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	// paho runs handlers on its own goroutines
	var mu sync.Mutex
	printLine := func(line string) {
		mu.Lock()
		fmt.Fprintln(out, line)
		mu.Unlock()
	}

	stateToken := client.Subscribe(cfg.TopicState, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s telemetry.StateMessage
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("console: state unmarshal error: %v", err)
			return
		}
		printLine(formatStateLine(s))
	})
	stateToken.Wait()
	if stateToken.Error() != nil {
		return stateToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicState)

	snapToken := client.Subscribe(cfg.TopicSnapshot, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s telemetry.SnapshotMessage
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("console: snapshot unmarshal error: %v", err)
			return
		}
		printLine(formatSnapshotLine(s))
	})
	snapToken.Wait()
	if snapToken.Error() != nil {
		return snapToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicSnapshot)

	<-ctx.Done()
	log.Println("console: shutting down")
	return nil
}

func formatStateLine(s telemetry.StateMessage) string {
	if s.Previous == "" {
		return fmt.Sprintf("[STATE] %-8s steps=%d", s.State, s.Steps)
	}
	return fmt.Sprintf("[STATE] %-8s (from %s) steps=%d", s.State, s.Previous, s.Steps)
}

func formatSnapshotLine(s telemetry.SnapshotMessage) string {
	return fmt.Sprintf(
		"[SNAP]  %-8s steps=%-3d |a|=%6.2f |g|=%6.2f |l|=%6.2f",
		s.State, s.StepCount, s.Accel.Magnitude, s.Gyro.Magnitude, s.Linear.Magnitude,
	)
}
