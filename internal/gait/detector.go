// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package gait classifies tri-axial motion samples (accelerometer, gyroscope,
// linear acceleration) into a Standing / Walking state.
//
// Samples are smoothed per channel, steps are detected by magnitude threshold
// with a debounce interval, and a Walking state is entered only when recent
// step timing is regular, vertical movement has been consistent and the
// gyroscope / linear acceleration stay inside their expected ranges. Timers
// (quick-stop, reset) are evaluated against sample timestamps, so the package
// needs no background goroutine.
package gait

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Detector is the concurrency-safe entry point of the pipeline.
// One mutex guards the conditioner, the state machine and the step window.
type Detector struct {
	cfg Config

	mu          sync.Mutex
	running     bool
	conditioner *SignalConditioner
	machine     *GaitStateMachine
	pending     []Transition

	snapshot atomic.Pointer[Snapshot]

	obsMu     sync.Mutex
	observers map[int]func(Transition)
	nextObsID int

	// notifyMu serializes observer delivery so transitions arrive in order.
	notifyMu sync.Mutex
}

// New validates cfg and creates a stopped Detector.
func New(cfg Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d := &Detector{
		cfg:         cfg,
		conditioner: NewSignalConditioner(cfg.Alpha),
		machine:     NewGaitStateMachine(cfg),
		observers:   make(map[int]func(Transition)),
	}
	d.snapshot.Store(&Snapshot{})
	return d, nil
}

// Config returns the configuration the detector was built with.
func (d *Detector) Config() Config {
	return d.cfg
}

// Start begins accepting samples from a zeroed state. Calling Start on a
// running detector is a no-op.
func (d *Detector) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return
	}
	d.resetLocked()
	d.running = true
}

// Stop discards all state. Once Stop returns no sample can mutate the
// detector until the next Start. Stopping while Walking notifies observers
// of the change to Standing. Calling Stop twice is a no-op.
func (d *Detector) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	if d.machine.State() == Walking {
		d.pending = append(d.pending, Transition{
			From:  Walking,
			To:    Standing,
			At:    d.snapshot.Load().UpdatedAt,
			Steps: d.machine.Stats().StepCount,
		})
	}
	d.resetLocked()
	notify := len(d.pending) > 0
	d.mu.Unlock()

	if notify {
		d.flush()
	}
}

// Running reports whether the detector accepts samples.
func (d *Detector) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// OnSample ingests one raw triple for ch taken at ts.
func (d *Detector) OnSample(ch Channel, x, y, z float64, ts time.Time) error {
	return d.Ingest(Sample{Channel: ch, Values: Vec3{X: x, Y: y, Z: z}, Time: ts})
}

// IngestValues ingests a sample given as a slice, rejecting anything but three values.
func (d *Detector) IngestValues(ch Channel, values []float64, ts time.Time) error {
	if len(values) != 3 {
		return fmt.Errorf("%s sample with %d values: %w", ch, len(values), ErrTripleLength)
	}
	return d.OnSample(ch, values[0], values[1], values[2], ts)
}

// Ingest validates s and runs it through the pipeline. Timestamps must be
// monotonically non-decreasing across all channels.
func (d *Detector) Ingest(s Sample) error {
	if !s.Channel.Valid() {
		return fmt.Errorf("ingest %s: %w", s.Channel, ErrUnknownChannel)
	}
	if !s.Values.IsFinite() {
		return fmt.Errorf("ingest %s sample (%v, %v, %v): %w", s.Channel, s.Values.X, s.Values.Y, s.Values.Z, ErrNonFinite)
	}
	if s.Values.MaxAbs() > d.cfg.MaxSampleValue {
		return fmt.Errorf("ingest %s sample (%v, %v, %v) beyond ±%v: %w",
			s.Channel, s.Values.X, s.Values.Y, s.Values.Z, d.cfg.MaxSampleValue, ErrOutOfRange)
	}

	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return ErrNotRunning
	}
	filtered, mag, ok := d.conditioner.Update(s.Channel, s.Values)
	if !ok {
		d.mu.Unlock()
		return fmt.Errorf("ingest %s sample: filter overflow: %w", s.Channel, ErrNonFinite)
	}
	next := d.snapshot.Load().with(s.Channel, ChannelReading{
		Raw:       s.Values,
		Filtered:  filtered,
		Magnitude: mag,
	}, s.Time)
	d.snapshot.Store(&next)

	tr, changed := d.machine.Update(s.Channel, filtered, mag, s.Time)
	if changed {
		d.pending = append(d.pending, tr)
	}
	d.mu.Unlock()

	if changed {
		d.flush()
	}
	return nil
}

// Advance evaluates the quick-stop and reset timers at now. Hosts whose
// sensors may go silent call it periodically.
func (d *Detector) Advance(now time.Time) error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return ErrNotRunning
	}
	tr, changed := d.machine.Advance(now)
	if changed {
		d.pending = append(d.pending, tr)
	}
	d.mu.Unlock()

	if changed {
		d.flush()
	}
	return nil
}

// Snapshot returns the latest complete snapshot without blocking writers.
func (d *Detector) Snapshot() Snapshot {
	return *d.snapshot.Load()
}

// State returns the current classification.
func (d *Detector) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.machine.State()
}

// Stats returns the state machine counters.
func (d *Detector) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.machine.Stats()
}

// Subscribe registers fn to be called on every state transition. Observers
// are called outside the state lock and must not call Ingest or OnSample.
// The returned function removes the observer.
func (d *Detector) Subscribe(fn func(Transition)) (cancel func()) {
	d.obsMu.Lock()
	id := d.nextObsID
	d.nextObsID++
	d.observers[id] = fn
	d.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.obsMu.Lock()
			delete(d.observers, id)
			d.obsMu.Unlock()
		})
	}
}

func (d *Detector) resetLocked() {
	d.conditioner.Reset()
	d.machine.Reset()
	d.snapshot.Store(&Snapshot{})
}

// flush delivers pending transitions in the order they were produced.
func (d *Detector) flush() {
	d.notifyMu.Lock()
	defer d.notifyMu.Unlock()
	for {
		d.mu.Lock()
		batch := d.pending
		d.pending = nil
		d.mu.Unlock()
		if len(batch) == 0 {
			return
		}

		d.obsMu.Lock()
		observers := make([]func(Transition), 0, len(d.observers))
		for _, fn := range d.observers {
			observers = append(observers, fn)
		}
		d.obsMu.Unlock()

		for _, tr := range batch {
			for _, fn := range observers {
				fn(tr)
			}
		}
	}
}
