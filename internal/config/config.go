// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/relabs-tech/walking_detector/internal/gait"
)

// Sample sources.
const (
	SourceMock   = "mock"
	SourceIMU    = "imu"
	SourceSerial = "serial"
	SourceMQTT   = "mqtt"
)

// Publishers.
const (
	PublisherMQTT = "mqtt"
	PublisherNATS = "nats"
	PublisherBoth = "both"
	PublisherNone = "none"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker           string
	MQTTClientIDDetector string
	MQTTClientIDSource   string
	MQTTClientIDConsole  string
	MQTTClientIDWeb      string
	MQTTClientIDDisplay  string
	MQTTEmbeddedBroker   bool
	MQTTEmbeddedAddr     string

	// Publishing
	Publisher string
	NATSURL   string

	// Topics
	TopicState    string
	TopicSnapshot string
	TopicSamples  string

	// NATS subjects
	SubjectState    string
	SubjectSnapshot string

	// Pipeline timing
	Source                  string
	SampleInterval          time.Duration
	SnapshotPublishInterval time.Duration
	AdvanceInterval         time.Duration

	// IMU hardware
	IMUSPIDevice string
	IMUCSPin     string
	// Accelerometer: 0=±2g, 1=±4g, 2=±8g, 3=±16g
	IMUAccelRange byte
	// Gyroscope: 0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s
	IMUGyroRange byte
	// Low-pass factor of the gravity estimate used to derive linear acceleration
	IMUGravityAlpha float64

	// Serial line source
	SerialPort     string
	SerialBaudRate int

	// Mock source
	MockCadence     time.Duration
	MockWalkPeriod  time.Duration
	MockStandPeriod time.Duration

	// Detector tuning
	Detector gait.Config

	// Record log
	RecordEnabled        bool
	RecordFile           string
	RecordInterval       time.Duration
	RecordMaxSizeMB      int
	RecordMaxBackups     int
	RecordExportDir      string
	RecordExportSchedule string // cron spec, empty disables scheduled exports

	// Process log
	LogFile      string
	LogMaxSizeMB int

	// Web server
	WebServerPort int

	// Display
	DisplayI2CBus         string
	DisplayUpdateInterval time.Duration
}

// Default returns a configuration that runs the mock source against a local broker.
func Default() *Config {
	return &Config{
		MQTTBroker:           "tcp://localhost:1883",
		MQTTClientIDDetector: "walking-detector",
		MQTTClientIDSource:   "walking-source",
		MQTTClientIDConsole:  "walking-console",
		MQTTClientIDWeb:      "walking-web",
		MQTTClientIDDisplay:  "walking-display",
		MQTTEmbeddedAddr:     ":1883",

		Publisher: PublisherMQTT,
		NATSURL:   "nats://127.0.0.1:4222",

		TopicState:    "walking/state",
		TopicSnapshot: "walking/snapshot",
		TopicSamples:  "walking/samples",

		SubjectState:    "walking.state",
		SubjectSnapshot: "walking.snapshot",

		Source:                  SourceMock,
		SampleInterval:          20 * time.Millisecond,
		SnapshotPublishInterval: 200 * time.Millisecond,
		AdvanceInterval:         100 * time.Millisecond,

		IMUSPIDevice:    "/dev/spidev0.0",
		IMUAccelRange:   1,
		IMUGyroRange:    1,
		IMUGravityAlpha: 0.1,

		SerialBaudRate: 115200,

		MockCadence:     500 * time.Millisecond,
		MockWalkPeriod:  10 * time.Second,
		MockStandPeriod: 5 * time.Second,

		Detector: gait.DefaultConfig(),

		RecordFile:       "walking_log.txt",
		RecordInterval:   50 * time.Millisecond,
		RecordMaxSizeMB:  10,
		RecordMaxBackups: 3,
		RecordExportDir:  "exports",

		LogMaxSizeMB: 10,

		WebServerPort: 8080,

		DisplayUpdateInterval: 250 * time.Millisecond,
	}
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: only reachable through InitGlobal and Get.
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: write lock for initialization, read lock for Get().
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct.
// Keys missing from the file keep their Default value.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()
	return Parse(file)
}

// Parse reads KEY=VALUE lines from r on top of Default.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_DETECTOR":
		c.MQTTClientIDDetector = value
	case "MQTT_CLIENT_ID_SOURCE":
		c.MQTTClientIDSource = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value
	case "MQTT_EMBEDDED_BROKER":
		c.MQTTEmbeddedBroker, err = parseBool(key, value)
	case "MQTT_EMBEDDED_ADDR":
		c.MQTTEmbeddedAddr = value

	// Publishing
	case "PUBLISHER":
		switch value {
		case PublisherMQTT, PublisherNATS, PublisherBoth, PublisherNone:
			c.Publisher = value
		default:
			return fmt.Errorf("PUBLISHER must be mqtt, nats, both or none, got %q", value)
		}
	case "NATS_URL":
		c.NATSURL = value

	// Topics
	case "TOPIC_STATE":
		c.TopicState = value
	case "TOPIC_SNAPSHOT":
		c.TopicSnapshot = value
	case "TOPIC_SAMPLES":
		c.TopicSamples = value
	case "NATS_SUBJECT_STATE":
		c.SubjectState = value
	case "NATS_SUBJECT_SNAPSHOT":
		c.SubjectSnapshot = value

	// Pipeline timing
	case "SOURCE":
		switch value {
		case SourceMock, SourceIMU, SourceSerial, SourceMQTT:
			c.Source = value
		default:
			return fmt.Errorf("SOURCE must be mock, imu, serial or mqtt, got %q", value)
		}
	case "SAMPLE_INTERVAL":
		c.SampleInterval, err = parseMillis(key, value, 1)
	case "SNAPSHOT_PUBLISH_INTERVAL":
		c.SnapshotPublishInterval, err = parseMillis(key, value, 0)
	case "ADVANCE_INTERVAL":
		c.AdvanceInterval, err = parseMillis(key, value, 0)

	// IMU hardware
	case "IMU_SPI_DEVICE":
		c.IMUSPIDevice = value
	case "IMU_CS_PIN":
		c.IMUCSPin = value
	case "IMU_ACCEL_RANGE":
		var v int
		if v, err = parseInt(key, value, 0, 3); err == nil {
			c.IMUAccelRange = byte(v)
		}
	case "IMU_GYRO_RANGE":
		var v int
		if v, err = parseInt(key, value, 0, 3); err == nil {
			c.IMUGyroRange = byte(v)
		}
	case "IMU_GRAVITY_ALPHA":
		c.IMUGravityAlpha, err = parseFloat(key, value)

	// Serial
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD_RATE":
		c.SerialBaudRate, err = parseInt(key, value, 1, 4000000)

	// Mock
	case "MOCK_CADENCE":
		c.MockCadence, err = parseMillis(key, value, 1)
	case "MOCK_WALK_PERIOD":
		c.MockWalkPeriod, err = parseMillis(key, value, 0)
	case "MOCK_STAND_PERIOD":
		c.MockStandPeriod, err = parseMillis(key, value, 0)

	// Detector tuning
	case "DETECTOR_ALPHA":
		c.Detector.Alpha, err = parseFloat(key, value)
	case "DETECTOR_STEP_MODE":
		c.Detector.StepMode, err = gait.ParseStepMode(value)
	case "DETECTOR_ACCEL_THRESHOLD":
		c.Detector.AccelStepThreshold, err = parseFloat(key, value)
	case "DETECTOR_LINEAR_THRESHOLD":
		c.Detector.LinearAccelStepThreshold, err = parseFloat(key, value)
	case "DETECTOR_MIN_STEP_INTERVAL":
		c.Detector.MinStepInterval, err = parseMillis(key, value, 0)
	case "DETECTOR_MIN_STEPS":
		c.Detector.MinStepsForWalking, err = parseInt(key, value, 1, 1000)
	case "DETECTOR_QUICK_STOP":
		c.Detector.QuickStopInterval, err = parseMillis(key, value, 1)
	case "DETECTOR_RESET":
		c.Detector.ResetInterval, err = parseMillis(key, value, 1)
	case "DETECTOR_WINDOW":
		c.Detector.StepTimingWindow, err = parseInt(key, value, 2, 64)
	case "DETECTOR_MAX_DEVIATION":
		c.Detector.MaxIntervalDeviation, err = parseMillis(key, value, 1)
	case "DETECTOR_GRAVITY":
		c.Detector.Gravity, err = parseFloat(key, value)
	case "DETECTOR_VERTICAL_THRESHOLD":
		c.Detector.VerticalMovementThreshold, err = parseFloat(key, value)
	case "DETECTOR_CONSISTENT_THRESHOLD":
		c.Detector.ConsistentMovementThreshold, err = parseInt(key, value, 0, 1000)
	case "DETECTOR_MAX_SAMPLE_VALUE":
		c.Detector.MaxSampleValue, err = parseFloat(key, value)
	case "DETECTOR_RANGE_GATE":
		c.Detector.RangeGate, err = parseBool(key, value)
	case "DETECTOR_GYRO_RANGE":
		var r gait.Range
		if r, err = parseRange(key, value); err == nil {
			c.Detector.GyroRanges = gait.UniformRanges(r.Min, r.Max)
		}
	case "DETECTOR_LINEAR_RANGE":
		var r gait.Range
		if r, err = parseRange(key, value); err == nil {
			c.Detector.LinearAccelRanges = gait.UniformRanges(r.Min, r.Max)
		}

	// Record log
	case "RECORD_ENABLED":
		c.RecordEnabled, err = parseBool(key, value)
	case "RECORD_FILE":
		c.RecordFile = value
	case "RECORD_INTERVAL":
		c.RecordInterval, err = parseMillis(key, value, 1)
	case "RECORD_MAX_SIZE_MB":
		c.RecordMaxSizeMB, err = parseInt(key, value, 1, 10240)
	case "RECORD_MAX_BACKUPS":
		c.RecordMaxBackups, err = parseInt(key, value, 0, 1000)
	case "RECORD_EXPORT_DIR":
		c.RecordExportDir = value
	case "RECORD_EXPORT_SCHEDULE":
		c.RecordExportSchedule = value

	// Process log
	case "LOG_FILE":
		c.LogFile = value
	case "LOG_MAX_SIZE_MB":
		c.LogMaxSizeMB, err = parseInt(key, value, 1, 10240)

	// Web Server
	case "WEB_SERVER_PORT":
		c.WebServerPort, err = parseInt(key, value, 1, 65535)

	// Display
	case "DISPLAY_I2C_BUS":
		c.DisplayI2CBus = value
	case "DISPLAY_UPDATE_INTERVAL":
		c.DisplayUpdateInterval, err = parseMillis(key, value, 1)

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return err
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.usesMQTT() && c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if (c.Publisher == PublisherNATS || c.Publisher == PublisherBoth) && c.NATSURL == "" {
		return fmt.Errorf("NATS_URL is required when PUBLISHER is %s", c.Publisher)
	}
	if c.TopicState == "" || c.TopicSnapshot == "" {
		return fmt.Errorf("TOPIC_STATE and TOPIC_SNAPSHOT are required")
	}
	if c.Source == SourceSerial && c.SerialPort == "" {
		return fmt.Errorf("SERIAL_PORT is required when SOURCE is serial")
	}
	if c.Source == SourceMQTT && c.TopicSamples == "" {
		return fmt.Errorf("TOPIC_SAMPLES is required when SOURCE is mqtt")
	}
	if c.Source == SourceIMU && c.IMUSPIDevice == "" {
		return fmt.Errorf("IMU_SPI_DEVICE is required when SOURCE is imu")
	}
	if c.IMUGravityAlpha <= 0 || c.IMUGravityAlpha > 1 {
		return fmt.Errorf("IMU_GRAVITY_ALPHA must be in (0, 1], got %v", c.IMUGravityAlpha)
	}
	if c.RecordEnabled && c.RecordFile == "" {
		return fmt.Errorf("RECORD_FILE is required when RECORD_ENABLED is true")
	}
	if err := c.Detector.Validate(); err != nil {
		return fmt.Errorf("detector settings: %w", err)
	}
	return nil
}

func (c *Config) usesMQTT() bool {
	return c.Publisher == PublisherMQTT || c.Publisher == PublisherBoth || c.Source == SourceMQTT
}

// DetectorConfig returns the detector tuning.
func (c *Config) DetectorConfig() gait.Config {
	return c.Detector
}

func parseInt(key, value string, min, max int) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v < min || v > max {
		return 0, fmt.Errorf("%s must be %d-%d, got %d", key, min, max, v)
	}
	return v, nil
}

func parseMillis(key, value string, min int) (time.Duration, error) {
	ms, err := parseInt(key, value, min, 24*60*60*1000)
	if err != nil {
		return 0, err
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func parseFloat(key, value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return v, nil
}

func parseBool(key, value string) (bool, error) {
	v, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return v, nil
}

// parseRange reads "min,max".
func parseRange(key, value string) (gait.Range, error) {
	lo, hi, ok := strings.Cut(value, ",")
	if !ok {
		return gait.Range{}, fmt.Errorf("%s must be \"min,max\", got %q", key, value)
	}
	min, err := parseFloat(key, strings.TrimSpace(lo))
	if err != nil {
		return gait.Range{}, err
	}
	max, err := parseFloat(key, strings.TrimSpace(hi))
	if err != nil {
		return gait.Range{}, err
	}
	if min > max {
		return gait.Range{}, fmt.Errorf("%s min %v is above max %v", key, min, max)
	}
	return gait.Range{Min: min, Max: max}, nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
