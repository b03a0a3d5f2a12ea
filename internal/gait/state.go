// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gait

import "time"

// State is the published gait classification.
type State int

const (
	Standing State = iota
	Walking
)

func (s State) String() string {
	if s == Walking {
		return "walking"
	}
	return "standing"
}

// IsWalking reports whether s is Walking.
func (s State) IsWalking() bool {
	return s == Walking
}

// Transition describes a change of State.
type Transition struct {
	From  State
	To    State
	At    time.Time
	Steps int // steps counted when the transition fired
}

// Stats exposes the internal counters of the state machine.
type Stats struct {
	StepCount           int
	WindowLen           int
	ConsistentMovement  int
	VerticalAccumulator float64
	LastStep            time.Time
}

// ChannelReading is the latest reading of one channel.
type ChannelReading struct {
	Raw       Vec3
	Filtered  Vec3
	Magnitude float64
}

// Snapshot is an immutable view of the three channels. A new Snapshot
// replaces the previous one on every channel update.
type Snapshot struct {
	Accelerometer      ChannelReading
	Gyroscope          ChannelReading
	LinearAcceleration ChannelReading
	UpdatedAt          time.Time
}

// Reading returns the slot for ch.
func (s Snapshot) Reading(ch Channel) ChannelReading {
	switch ch {
	case Gyroscope:
		return s.Gyroscope
	case LinearAcceleration:
		return s.LinearAcceleration
	default:
		return s.Accelerometer
	}
}

func (s Snapshot) with(ch Channel, r ChannelReading, at time.Time) Snapshot {
	switch ch {
	case Accelerometer:
		s.Accelerometer = r
	case Gyroscope:
		s.Gyroscope = r
	case LinearAcceleration:
		s.LinearAcceleration = r
	}
	s.UpdatedAt = at
	return s
}
