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
	log.Println("starting walking detector")

	cmd := app.NewCommand("detector", "Classify walking from motion samples and publish the state", app.RunDetector)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
