// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/nats-io/nats.go"

	"github.com/relabs-tech/walking_detector/internal/config"
	"github.com/relabs-tech/walking_detector/internal/telemetry"
)

// Publisher sends detector output to the outside world.
type Publisher interface {
	PublishState(telemetry.StateMessage) error
	PublishSnapshot(telemetry.SnapshotMessage) error
	Close()
}

// NewPublisher connects the publisher selected by cfg.Publisher.
func NewPublisher(cfg *config.Config) (Publisher, error) {
	switch cfg.Publisher {
	case config.PublisherMQTT:
		return newMQTTPublisher(cfg.MQTTBroker, cfg.MQTTClientIDDetector, cfg.TopicState, cfg.TopicSnapshot)
	case config.PublisherNATS:
		return newNATSPublisher(cfg.NATSURL, cfg.SubjectState, cfg.SubjectSnapshot)
	case config.PublisherBoth:
		m, err := newMQTTPublisher(cfg.MQTTBroker, cfg.MQTTClientIDDetector, cfg.TopicState, cfg.TopicSnapshot)
		if err != nil {
			return nil, err
		}
		n, err := newNATSPublisher(cfg.NATSURL, cfg.SubjectState, cfg.SubjectSnapshot)
		if err != nil {
			m.Close()
			return nil, err
		}
		return multiPublisher{m, n}, nil
	case config.PublisherNone:
		return multiPublisher{}, nil
	default:
		return nil, fmt.Errorf("unknown publisher %q", cfg.Publisher)
	}
}

type mqttPublisher struct {
	client        mqtt.Client
	stateTopic    string
	snapshotTopic string
}

func newMQTTPublisher(broker, clientID, stateTopic, snapshotTopic string) (*mqttPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("MQTT connect %s: %w", broker, token.Error())
	}
	log.Printf("detector: connected to MQTT broker at %s", broker)
	return &mqttPublisher{client: client, stateTopic: stateTopic, snapshotTopic: snapshotTopic}, nil
}

func (p *mqttPublisher) PublishState(m telemetry.StateMessage) error {
	return p.publish(p.stateTopic, m)
}

func (p *mqttPublisher) PublishSnapshot(m telemetry.SnapshotMessage) error {
	return p.publish(p.snapshotTopic, m)
}

// publish sends a retained message so late subscribers see the latest value.
func (p *mqttPublisher) publish(topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("json marshal (%s): %w", topic, err)
	}
	if token := p.client.Publish(topic, 0, true, payload); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT publish (%s): %w", topic, token.Error())
	}
	return nil
}

func (p *mqttPublisher) Close() {
	p.client.Disconnect(250)
}

type natsPublisher struct {
	conn            *nats.Conn
	stateSubject    string
	snapshotSubject string
}

func newNATSPublisher(url, stateSubject, snapshotSubject string) (*natsPublisher, error) {
	nc, err := nats.Connect(
		url,
		nats.Name("walking-detector"),
		nats.Timeout(3*time.Second),
		nats.ReconnectWait(500*time.Millisecond),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("NATS connect %s: %w", url, err)
	}
	log.Printf("detector: connected to NATS at %s", url)
	return &natsPublisher{conn: nc, stateSubject: stateSubject, snapshotSubject: snapshotSubject}, nil
}

func (p *natsPublisher) PublishState(m telemetry.StateMessage) error {
	return p.publish(p.stateSubject, m)
}

func (p *natsPublisher) PublishSnapshot(m telemetry.SnapshotMessage) error {
	return p.publish(p.snapshotSubject, m)
}

func (p *natsPublisher) publish(subject string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("json marshal (%s): %w", subject, err)
	}
	if err := p.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("NATS publish (%s): %w", subject, err)
	}
	return nil
}

func (p *natsPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}

// multiPublisher fans out to every publisher and joins their errors.
type multiPublisher []Publisher

func (m multiPublisher) PublishState(msg telemetry.StateMessage) error {
	var errs []error
	for _, p := range m {
		errs = append(errs, p.PublishState(msg))
	}
	return errors.Join(errs...)
}

func (m multiPublisher) PublishSnapshot(msg telemetry.SnapshotMessage) error {
	var errs []error
	for _, p := range m {
		errs = append(errs, p.PublishSnapshot(msg))
	}
	return errors.Join(errs...)
}

func (m multiPublisher) Close() {
	for _, p := range m {
		p.Close()
	}
}
