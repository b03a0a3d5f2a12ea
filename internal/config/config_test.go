// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/walking_detector/internal/gait"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(strings.NewReader("# only comments\n\n"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, gait.DefaultConfig(), cfg.DetectorConfig())
}

func TestParseOverrides(t *testing.T) {
	input := `
MQTT_BROKER = tcp://broker:1883
PUBLISHER=both
NATS_URL=nats://nats:4222
SOURCE=serial
SERIAL_PORT=/dev/ttyUSB0
SAMPLE_INTERVAL=10
DETECTOR_ALPHA=0.5
DETECTOR_STEP_MODE=delta
DETECTOR_ACCEL_THRESHOLD=2.5
DETECTOR_QUICK_STOP=800
DETECTOR_RESET=2000
DETECTOR_WINDOW=4
DETECTOR_RANGE_GATE=false
DETECTOR_GYRO_RANGE=-1, 2
RECORD_ENABLED=true
RECORD_EXPORT_SCHEDULE=@hourly
DETECTOR_MAX_SAMPLE_VALUE=200
`
	cfg, err := Parse(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, "tcp://broker:1883", cfg.MQTTBroker)
	assert.Equal(t, PublisherBoth, cfg.Publisher)
	assert.Equal(t, SourceSerial, cfg.Source)
	assert.Equal(t, "/dev/ttyUSB0", cfg.SerialPort)
	assert.Equal(t, 10*time.Millisecond, cfg.SampleInterval)
	assert.True(t, cfg.RecordEnabled)
	assert.Equal(t, "@hourly", cfg.RecordExportSchedule)

	d := cfg.DetectorConfig()
	assert.Equal(t, 0.5, d.Alpha)
	assert.Equal(t, gait.StepOnDelta, d.StepMode)
	assert.Equal(t, 2.5, d.AccelStepThreshold)
	assert.Equal(t, 200.0, d.MaxSampleValue)
	assert.Equal(t, 800*time.Millisecond, d.QuickStopInterval)
	assert.Equal(t, 2*time.Second, d.ResetInterval)
	assert.Equal(t, 4, d.StepTimingWindow)
	assert.False(t, d.RangeGate)
	assert.Equal(t, gait.UniformRanges(-1, 2), d.GyroRanges)
	assert.Equal(t, gait.UniformRanges(-0.5, 1.0), d.LinearAccelRanges)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"unknown key", "FOO=bar", `config line 1: unknown config key: "FOO"`},
		{"missing equals", "\nMQTT_BROKER", "invalid config line 2"},
		{"bad integer", "WEB_SERVER_PORT=http", "invalid WEB_SERVER_PORT"},
		{"out of range", "IMU_ACCEL_RANGE=4", "IMU_ACCEL_RANGE must be 0-3"},
		{"bad source", "SOURCE=bluetooth", "SOURCE must be"},
		{"bad publisher", "PUBLISHER=kafka", "PUBLISHER must be"},
		{"bad range", "DETECTOR_LINEAR_RANGE=1", `must be "min,max"`},
		{"inverted range", "DETECTOR_LINEAR_RANGE=1,-1", "is above max"},
		{"bad step mode", "DETECTOR_STEP_MODE=peak", "peak"},
		{"serial without port", "SOURCE=serial", "SERIAL_PORT is required"},
		{"detector validation", "DETECTOR_ALPHA=0", "detector settings"},
		{"max sample value", "DETECTOR_MAX_SAMPLE_VALUE=-5", "max sample value"},
		{"display address no longer configurable", "DISPLAY_I2C_ADDR=0x3D", "unknown config key"},
		{"reset below quick stop", "DETECTOR_QUICK_STOP=900\nDETECTOR_RESET=800", "detector settings"},
		{"nats without url", "PUBLISHER=nats\nNATS_URL=", "NATS_URL is required"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadAndGlobal(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "walking_config.txt")
	require.NoError(t, os.WriteFile(path, []byte("WEB_SERVER_PORT=9090\n"), 0o644))

	require.NoError(t, InitGlobal(path))
	require.NotNil(t, Get())
	assert.Equal(t, 9090, Get().WebServerPort)

	// later calls keep the first configuration
	require.NoError(t, InitGlobal(filepath.Join(t.TempDir(), "other.txt")))
	assert.Equal(t, 9090, Get().WebServerPort)
}
