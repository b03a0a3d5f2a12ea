// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package broker runs an in-process MQTT broker so the detector can work
// without an external mosquitto.
package broker

import (
	"bytes"
	"fmt"
	"log"
	"log/slog"

	mqtt "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/listeners"
	"github.com/mochi-mqtt/server/v2/packets"
)

// Broker is a running embedded broker.
type Broker struct {
	server *mqtt.Server
	addr   string
}

// Start listens on addr (host:port) and serves until Close.
func Start(addr string) (*Broker, error) {
	server := mqtt.New(&mqtt.Options{
		Logger:                 slog.New(slog.NewTextHandler(log.Writer(), &slog.HandlerOptions{Level: slog.LevelWarn})),
		InlineClient:           true,
		SysTopicResendInterval: 5,
		Capabilities:           mqtt.NewDefaultServerCapabilities(),
	})
	if err := server.AddHook(&allowHook{HookBase: &mqtt.HookBase{}}, nil); err != nil {
		return nil, fmt.Errorf("broker: add hook: %w", err)
	}
	if err := server.AddListener(listeners.NewTCP(listeners.Config{
		ID:      "walking-tcp",
		Address: addr,
	})); err != nil {
		return nil, fmt.Errorf("broker: listen %s: %w", addr, err)
	}
	if err := server.Serve(); err != nil {
		return nil, fmt.Errorf("broker: serve: %w", err)
	}
	log.Printf("broker: embedded MQTT broker listening on %s", addr)
	return &Broker{server: server, addr: addr}, nil
}

// Addr returns the listen address.
func (b *Broker) Addr() string {
	return b.addr
}

// Publish sends a message through the inline client.
func (b *Broker) Publish(topic string, payload []byte, retain bool) error {
	return b.server.Publish(topic, payload, retain, 0)
}

// Close stops the listeners and disconnects all clients.
func (b *Broker) Close() error {
	return b.server.Close()
}

// allowHook accepts every client and topic; the broker only listens locally.
type allowHook struct {
	*mqtt.HookBase
}

var _ mqtt.Hook = (*allowHook)(nil)

func (h *allowHook) ID() string {
	return "walking-allow"
}

func (h *allowHook) Provides(b byte) bool {
	return bytes.Contains([]byte{
		mqtt.OnConnectAuthenticate,
		mqtt.OnACLCheck,
	}, []byte{b})
}

func (h *allowHook) OnConnectAuthenticate(cl *mqtt.Client, pk packets.Packet) bool {
	return true
}

func (h *allowHook) OnACLCheck(cl *mqtt.Client, topic string, write bool) bool {
	return true
}
