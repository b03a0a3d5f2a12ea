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
	log.Println("starting walking console (MQTT subscriber)")

	cmd := app.NewCommand("console_mqtt", "Print the detector's state and snapshot messages", app.RunConsoleMQTT)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
