// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/walking_detector/internal/broker"
	"github.com/relabs-tech/walking_detector/internal/config"
	"github.com/relabs-tech/walking_detector/internal/telemetry"
)

func TestRunDetectorMockEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("runs the mock source in real time")
	}
	b := broker.StartForTest(t)
	dir := t.TempDir()

	cfg := config.Default()
	cfg.MQTTBroker = "tcp://" + b.Addr()
	cfg.MQTTClientIDDetector = "detector-e2e"
	cfg.RecordEnabled = true
	cfg.RecordFile = filepath.Join(dir, "walking_log.txt")
	cfg.RecordExportDir = filepath.Join(dir, "exports")

	states := subscribeMQTT(t, b.Addr(), "detector-e2e-states", cfg.TopicState)
	snapshots := subscribeMQTT(t, b.Addr(), "detector-e2e-snapshots", cfg.TopicSnapshot)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- runDetector(ctx, cfg) }()

	var first telemetry.StateMessage
	require.NoError(t, json.Unmarshal(receive(t, states), &first))
	assert.Equal(t, "standing", first.State)
	assert.Empty(t, first.Previous)

	var snap telemetry.SnapshotMessage
	require.NoError(t, json.Unmarshal(receive(t, snapshots), &snap))
	assert.Greater(t, snap.Accel.Magnitude, 0.0)

	var walkingAt int64
	deadline := time.After(10 * time.Second)
	for walking := false; !walking; {
		select {
		case payload := <-states:
			var msg telemetry.StateMessage
			require.NoError(t, json.Unmarshal(payload, &msg))
			walking = msg.Walking
			if walking {
				assert.Equal(t, "standing", msg.Previous)
				assert.GreaterOrEqual(t, msg.Steps, 2)
				walkingAt = msg.Timestamp
			}
		case <-deadline:
			t.Fatal("detector never reported walking")
		}
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("detector did not shut down")
	}

	// stopping while walking publishes the final standing state
	var last telemetry.StateMessage
	require.NoError(t, json.Unmarshal(receive(t, states), &last))
	assert.Equal(t, "standing", last.State)
	assert.Equal(t, "walking", last.Previous)

	// the retained snapshot is replaced by a standing one on shutdown
	deadline = time.After(10 * time.Second)
	for standing := false; !standing; {
		select {
		case payload := <-snapshots:
			var msg telemetry.SnapshotMessage
			require.NoError(t, json.Unmarshal(payload, &msg))
			standing = msg.State == "standing" && msg.StepCount == 0 && msg.Timestamp >= walkingAt
		case <-deadline:
			t.Fatal("no standing snapshot after shutdown")
		}
	}

	data, err := os.ReadFile(cfg.RecordFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.NotEmpty(t, lines)
	assert.Len(t, strings.Split(lines[len(lines)-1], ","), 14)
}

func TestRunDetectorRejectsBadSource(t *testing.T) {
	cfg := config.Default()
	cfg.Source = "telepathy"
	err := runDetector(context.Background(), cfg)
	assert.ErrorContains(t, err, "telepathy")
}
