// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gait

import (
	"fmt"
	"strings"
	"time"
)

// Channel identifies one of the three motion-sensor input streams.
type Channel int

const (
	Accelerometer Channel = iota
	Gyroscope
	LinearAcceleration

	numChannels = 3
)

func (c Channel) String() string {
	switch c {
	case Accelerometer:
		return "accel"
	case Gyroscope:
		return "gyro"
	case LinearAcceleration:
		return "linear"
	default:
		return fmt.Sprintf("channel(%d)", int(c))
	}
}

// Valid reports whether c is one of the known channels.
func (c Channel) Valid() bool {
	return c >= Accelerometer && c < numChannels
}

// ParseChannel accepts the short and long channel names used on the wire.
func ParseChannel(s string) (Channel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "accel", "accelerometer", "a":
		return Accelerometer, nil
	case "gyro", "gyroscope", "g":
		return Gyroscope, nil
	case "linear", "linear_acceleration", "linear_accel", "l":
		return LinearAcceleration, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownChannel, s)
	}
}

// Sample is one decoded sensor event for a single channel.
type Sample struct {
	Channel Channel
	Values  Vec3
	Time    time.Time
}
