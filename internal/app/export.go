// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"log"
	"time"

	"github.com/relabs-tech/walking_detector/internal/config"
	"github.com/relabs-tech/walking_detector/internal/recorder"
)

// RunExport copies the current record file into the export directory once.
func RunExport(ctx context.Context) error {
	cfg := config.Get()
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := recorder.ExportFile(cfg.RecordFile, cfg.RecordExportDir, time.Now())
	if err != nil {
		return err
	}
	log.Printf("export: wrote %s", path)
	return nil
}
