// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"log"

	"github.com/relabs-tech/walking_detector/internal/app"
)

func main() {
	log.Println("starting walking OLED display (MQTT subscriber)")

	cmd := app.NewCommand("display", "Show the detector state on an SSD1306 OLED", app.RunDisplay)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
