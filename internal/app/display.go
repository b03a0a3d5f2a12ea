// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"log"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/walking_detector/internal/config"
	"github.com/relabs-tech/walking_detector/internal/telemetry"
)

const (
	displayWidth  = 128
	displayHeight = 64
)

// displayData holds the latest messages for the OLED.
type displayData struct {
	mu       sync.RWMutex
	state    *telemetry.StateMessage
	snapshot *telemetry.SnapshotMessage
}

func (d *displayData) get() (*telemetry.StateMessage, *telemetry.SnapshotMessage) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state, d.snapshot
}

// RunDisplay shows the walking status and channel magnitudes on an SSD1306.
func RunDisplay(ctx context.Context) error {
	cfg := config.Get()

	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	bus, err := i2creg.Open(cfg.DisplayI2CBus)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	// the driver always talks to address 0x3C
	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	defer dev.Halt()
	log.Printf("display: initialized at 0x3C on I2C bus %q", cfg.DisplayI2CBus)

	if err := dev.Draw(dev.Bounds(), renderLines("Walking", "detector", "starting..."), image.Point{}); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	data := &displayData{}

	mqttOpts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDDisplay)

	client := mqtt.NewClient(mqttOpts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("display: connected to MQTT broker at %s", cfg.MQTTBroker)

	token := client.Subscribe(cfg.TopicState, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s telemetry.StateMessage
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("display: state unmarshal error: %v", err)
			return
		}
		data.mu.Lock()
		data.state = &s
		data.mu.Unlock()
	})
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}

	token = client.Subscribe(cfg.TopicSnapshot, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s telemetry.SnapshotMessage
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("display: snapshot unmarshal error: %v", err)
			return
		}
		data.mu.Lock()
		data.snapshot = &s
		data.mu.Unlock()
	})
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("display: subscribed to %s and %s", cfg.TopicState, cfg.TopicSnapshot)

	ticker := time.NewTicker(cfg.DisplayUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			state, snap := data.get()
			if err := dev.Draw(dev.Bounds(), renderStatus(state, snap), image.Point{}); err != nil {
				log.Printf("display: error updating display: %v", err)
			}
		}
	}
}

// statusLines lays out up to four 13px lines of text.
func statusLines(state *telemetry.StateMessage, snap *telemetry.SnapshotMessage) []string {
	if state == nil && snap == nil {
		return []string{"Walking detector", "Waiting..."}
	}

	// state messages are authoritative; a retained snapshot may predate shutdown
	var label string
	if state != nil {
		label = strings.ToUpper(state.State)
	} else {
		label = strings.ToUpper(snap.State)
	}

	lines := make([]string, 0, 4)
	if snap == nil {
		lines = append(lines, label)
	} else {
		lines = append(lines,
			fmt.Sprintf("%s  %d steps", label, snap.StepCount),
			fmt.Sprintf("|a| %7.2f", snap.Accel.Magnitude),
			fmt.Sprintf("|g| %7.2f", snap.Gyro.Magnitude),
			fmt.Sprintf("|l| %7.2f", snap.Linear.Magnitude),
		)
	}
	return lines
}

func renderStatus(state *telemetry.StateMessage, snap *telemetry.SnapshotMessage) *image1bit.VerticalLSB {
	return renderLines(statusLines(state, snap)...)
}

func renderLines(lines ...string) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, displayWidth, displayHeight))

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	for i, line := range lines {
		drawer.Dot = fixed.P(0, 13*(i+1))
		drawer.DrawString(line)
	}
	return img
}
