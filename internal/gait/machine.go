// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gait

import (
	"math"
	"time"
)

// GaitStateMachine turns conditioned samples into a Standing/Walking state.
// It is not safe for concurrent use; Detector serializes access.
type GaitStateMachine struct {
	cfg   Config
	state State

	stepCount           int
	lastStep            time.Time
	window              *StepWindow
	verticalAccumulator float64
	consistentMovement  int

	// previous magnitude per channel, for StepOnDelta
	prevMag  [numChannels]float64
	havePrev [numChannels]bool

	gyro   Vec3
	linear Vec3
}

// NewGaitStateMachine creates a machine in the Standing state. cfg must be valid.
func NewGaitStateMachine(cfg Config) *GaitStateMachine {
	return &GaitStateMachine{
		cfg:    cfg,
		window: NewStepWindow(cfg.StepTimingWindow),
	}
}

// State returns the current classification.
func (m *GaitStateMachine) State() State {
	return m.state
}

// Stats returns a copy of the internal counters.
func (m *GaitStateMachine) Stats() Stats {
	return Stats{
		StepCount:           m.stepCount,
		WindowLen:           m.window.Len(),
		ConsistentMovement:  m.consistentMovement,
		VerticalAccumulator: m.verticalAccumulator,
		LastStep:            m.lastStep,
	}
}

// Update consumes one conditioned sample. The returned bool is true only
// when the state actually changed.
func (m *GaitStateMachine) Update(ch Channel, filtered Vec3, magnitude float64, now time.Time) (Transition, bool) {
	switch ch {
	case Accelerometer:
		m.updateVerticalMovement(filtered.Y - m.cfg.Gravity)
		step := m.detectStep(ch, magnitude, m.cfg.AccelStepThreshold, now)
		return m.updateWalkingState(step, now)
	case LinearAcceleration:
		m.linear = filtered
		step := m.detectStep(ch, magnitude, m.cfg.LinearAccelStepThreshold, now)
		return m.updateWalkingState(step, now)
	case Gyroscope:
		m.gyro = filtered
	}
	return Transition{}, false
}

// Advance evaluates the quick-stop and reset timers at now without a new sample.
func (m *GaitStateMachine) Advance(now time.Time) (Transition, bool) {
	return m.updateWalkingState(false, now)
}

// Reset returns the machine to its initial Standing state with all counters cleared.
func (m *GaitStateMachine) Reset() {
	m.state = Standing
	m.resetCounters()
	m.lastStep = time.Time{}
	m.verticalAccumulator = 0
	m.prevMag = [numChannels]float64{}
	m.havePrev = [numChannels]bool{}
	m.gyro = Vec3{}
	m.linear = Vec3{}
}

func (m *GaitStateMachine) detectStep(ch Channel, magnitude, threshold float64, now time.Time) bool {
	value := magnitude
	prev, hadPrev := m.prevMag[ch], m.havePrev[ch]
	m.prevMag[ch], m.havePrev[ch] = magnitude, true
	if m.cfg.StepMode == StepOnDelta {
		if !hadPrev {
			return false
		}
		value = math.Abs(magnitude - prev)
	}

	if value <= threshold || m.sinceLastStep(now) < m.cfg.MinStepInterval {
		return false
	}

	m.window.Push(now)
	m.stepCount++
	m.lastStep = now
	return true
}

// updateVerticalMovement only zeroes the accumulator after a crossing; a
// check below the threshold drops the consistency counter but keeps the sum.
func (m *GaitStateMachine) updateVerticalMovement(deviation float64) {
	m.verticalAccumulator += math.Abs(deviation)
	if m.verticalAccumulator > m.cfg.VerticalMovementThreshold {
		m.consistentMovement++
		m.verticalAccumulator = 0
	} else {
		m.consistentMovement = 0
	}
}

func (m *GaitStateMachine) updateWalkingState(step bool, now time.Time) (Transition, bool) {
	since := m.sinceLastStep(now)

	var (
		tr      Transition
		changed bool
	)
	if step && m.stepTimingConsistent() && m.consistentMovement >= m.cfg.ConsistentMovementThreshold {
		if m.stepCount >= m.cfg.MinStepsForWalking && m.axesInRange() {
			tr, changed = m.setState(Walking, now)
		}
	} else if m.state == Walking && since > m.cfg.QuickStopInterval {
		tr, changed = m.setState(Standing, now)
		m.resetCounters()
	}

	if since > m.cfg.ResetInterval {
		m.resetCounters()
	}
	return tr, changed
}

func (m *GaitStateMachine) stepTimingConsistent() bool {
	if !m.window.Full() {
		return false
	}
	intervals := m.window.Intervals()
	var sum time.Duration
	for _, iv := range intervals {
		sum += iv
	}
	mean := float64(sum) / float64(len(intervals))
	limit := float64(m.cfg.MaxIntervalDeviation)
	for _, iv := range intervals {
		if math.Abs(float64(iv)-mean) >= limit {
			return false
		}
	}
	return true
}

func (m *GaitStateMachine) axesInRange() bool {
	if !m.cfg.RangeGate {
		return true
	}
	return m.cfg.GyroRanges.Contains(m.gyro) && m.cfg.LinearAccelRanges.Contains(m.linear)
}

func (m *GaitStateMachine) setState(s State, now time.Time) (Transition, bool) {
	if s == m.state {
		return Transition{}, false
	}
	tr := Transition{From: m.state, To: s, At: now, Steps: m.stepCount}
	m.state = s
	return tr, true
}

// resetCounters clears the step count, timing window and consistency counter together.
func (m *GaitStateMachine) resetCounters() {
	m.stepCount = 0
	m.window.Reset()
	m.consistentMovement = 0
}

// sinceLastStep treats "no step yet" as an unbounded gap.
func (m *GaitStateMachine) sinceLastStep(now time.Time) time.Duration {
	if m.lastStep.IsZero() {
		return time.Duration(math.MaxInt64)
	}
	return now.Sub(m.lastStep)
}
