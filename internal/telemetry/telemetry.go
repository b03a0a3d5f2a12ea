// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package telemetry defines the JSON messages exchanged over MQTT, NATS and
// the web socket.
package telemetry

import (
	"time"

	"github.com/relabs-tech/walking_detector/internal/gait"
)

// Triple is a JSON-friendly gait.Vec3.
type Triple struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func tripleOf(v gait.Vec3) Triple {
	return Triple{X: v.X, Y: v.Y, Z: v.Z}
}

// StateMessage is published (retained) on every state change.
type StateMessage struct {
	State     string `json:"state"` // "walking" or "standing"
	Walking   bool   `json:"walking"`
	Previous  string `json:"previous,omitempty"`
	Steps     int    `json:"steps"`
	Timestamp int64  `json:"ts"` // unix milliseconds
}

// NewStateMessage converts a transition.
func NewStateMessage(tr gait.Transition) StateMessage {
	return StateMessage{
		State:     tr.To.String(),
		Walking:   tr.To.IsWalking(),
		Previous:  tr.From.String(),
		Steps:     tr.Steps,
		Timestamp: unixMilli(tr.At),
	}
}

// CurrentState describes s without a preceding transition, e.g. on startup.
func CurrentState(s gait.State, steps int, at time.Time) StateMessage {
	return StateMessage{
		State:     s.String(),
		Walking:   s.IsWalking(),
		Steps:     steps,
		Timestamp: unixMilli(at),
	}
}

// ChannelMessage carries one channel of a snapshot.
type ChannelMessage struct {
	Raw       Triple  `json:"raw"`
	Filtered  Triple  `json:"filtered"`
	Magnitude float64 `json:"magnitude"`
}

// SnapshotMessage is published periodically with the latest conditioned values.
type SnapshotMessage struct {
	State     string         `json:"state"`
	Walking   bool           `json:"walking"`
	StepCount int            `json:"step_count"`
	Accel     ChannelMessage `json:"accel"`
	Gyro      ChannelMessage `json:"gyro"`
	Linear    ChannelMessage `json:"linear"`
	Timestamp int64          `json:"ts"`
}

// NewSnapshotMessage combines a snapshot with the state it was observed in.
func NewSnapshotMessage(snap gait.Snapshot, state gait.State, stats gait.Stats) SnapshotMessage {
	return SnapshotMessage{
		State:     state.String(),
		Walking:   state.IsWalking(),
		StepCount: stats.StepCount,
		Accel:     channelOf(snap.Accelerometer),
		Gyro:      channelOf(snap.Gyroscope),
		Linear:    channelOf(snap.LinearAcceleration),
		Timestamp: unixMilli(snap.UpdatedAt),
	}
}

func channelOf(r gait.ChannelReading) ChannelMessage {
	return ChannelMessage{
		Raw:       tripleOf(r.Raw),
		Filtered:  tripleOf(r.Filtered),
		Magnitude: r.Magnitude,
	}
}

// SampleMessage is one raw sensor event on the samples topic.
type SampleMessage struct {
	Channel   string  `json:"channel"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Z         float64 `json:"z"`
	Timestamp int64   `json:"ts,omitempty"`
}

// NewSampleMessage converts a sample for publishing.
func NewSampleMessage(s gait.Sample) SampleMessage {
	return SampleMessage{
		Channel:   s.Channel.String(),
		X:         s.Values.X,
		Y:         s.Values.Y,
		Z:         s.Values.Z,
		Timestamp: unixMilli(s.Time),
	}
}

func unixMilli(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
