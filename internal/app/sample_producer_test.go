// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/walking_detector/internal/broker"
	"github.com/relabs-tech/walking_detector/internal/config"
	"github.com/relabs-tech/walking_detector/internal/gait"
	"github.com/relabs-tech/walking_detector/internal/telemetry"
)

func TestSampleProducer(t *testing.T) {
	b := broker.StartForTest(t)
	cfg := config.Default()
	cfg.MQTTBroker = "tcp://" + b.Addr()
	cfg.MQTTClientIDSource = "producer-test"

	got := subscribeMQTT(t, b.Addr(), "producer-test-sub", cfg.TopicSamples)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runSampleProducer(ctx, cfg) }()

	seen := map[gait.Channel]bool{}
	for len(seen) < 3 {
		s, err := telemetry.DecodeSample(receive(t, got), time.Now())
		require.NoError(t, err)
		assert.True(t, s.Values.IsFinite())
		assert.False(t, s.Time.IsZero())
		seen[s.Channel] = true
	}

	cancel()
	require.NoError(t, <-done)
}
