// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gait

import "errors"

var (
	// ErrNonFinite is returned when a sample carries NaN or ±Inf.
	ErrNonFinite = errors.New("non-finite sample value")
	// ErrOutOfRange is returned when an axis exceeds the configured physical bound.
	ErrOutOfRange = errors.New("sample value out of range")
	// ErrTripleLength is returned when a sample does not carry exactly three values.
	ErrTripleLength = errors.New("sample must have exactly 3 values")
	// ErrUnknownChannel is returned for channel identifiers outside the known set.
	ErrUnknownChannel = errors.New("unknown channel")
	// ErrNotRunning is returned when samples arrive while the detector is stopped.
	ErrNotRunning = errors.New("detector not running")
	// ErrInvalidConfig wraps every configuration validation failure.
	ErrInvalidConfig = errors.New("invalid detector config")
)
