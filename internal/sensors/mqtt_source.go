// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"context"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/walking_detector/internal/telemetry"
)

// MQTTSource subscribes to a topic carrying JSON samples.
type MQTTSource struct {
	broker   string
	clientID string
	topic    string
	now      func() time.Time
}

// NewMQTTSource creates a source for samples published on topic.
func NewMQTTSource(broker, clientID, topic string) *MQTTSource {
	return &MQTTSource{broker: broker, clientID: clientID, topic: topic, now: time.Now}
}

// Run subscribes and forwards samples until ctx is done.
func (s *MQTTSource) Run(ctx context.Context, sink Sink) error {
	opts := mqtt.NewClientOptions().
		AddBroker(s.broker).
		SetClientID(s.clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt source: connect %s: %w", s.broker, token.Error())
	}
	defer client.Disconnect(250)
	log.Printf("mqtt source: connected to MQTT broker at %s", s.broker)

	token := client.Subscribe(s.topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		sample, err := telemetry.DecodeSample(msg.Payload(), s.now())
		if err != nil {
			log.Printf("mqtt source: %v", err)
			return
		}
		if err := sink.Ingest(sample); err != nil {
			log.Printf("mqtt source: %v", err)
		}
	})
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("mqtt source: subscribe %s: %w", s.topic, token.Error())
	}
	log.Printf("mqtt source: subscribed to %s", s.topic)

	<-ctx.Done()
	client.Unsubscribe(s.topic).Wait()
	return nil
}
