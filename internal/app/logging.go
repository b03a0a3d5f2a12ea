// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/relabs-tech/walking_detector/internal/config"
)

// SetupLogging tees the standard logger into a rotating LOG_FILE when one is
// configured. The returned function closes the file.
func SetupLogging(cfg *config.Config) func() {
	if cfg == nil || cfg.LogFile == "" {
		return func() {}
	}
	lj := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    cfg.LogMaxSizeMB,
		MaxBackups: 3,
		LocalTime:  true,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, lj))
	log.Printf("logging to %s", cfg.LogFile)
	return func() {
		log.SetOutput(os.Stderr)
		lj.Close()
	}
}
