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
	log.Println("exporting walking record log")

	cmd := app.NewCommand("export", "Copy the record log into the export directory", app.RunExport)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
