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
	log.Println("starting walking detector (mock console)")

	cmd := app.NewCommand("console", "Run the mock source through a local detector and print transitions", app.RunMockConsole)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
