// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package recorder appends the detector state and conditioned sensor values
// to a rotating text log and exports copies of it.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/relabs-tech/walking_detector/internal/gait"
)

const (
	recordTimeLayout = "2006-01-02 15:04:05.000"
	exportTimeLayout = "20060102_150405"
)

// Provider is polled for the values to record. *gait.Detector is a Provider.
type Provider interface {
	Snapshot() gait.Snapshot
	State() gait.State
}

// Options configures a Recorder.
type Options struct {
	File           string
	Interval       time.Duration
	MaxSizeMB      int
	MaxBackups     int
	ExportDir      string
	ExportSchedule string // standard cron spec or descriptor such as "@hourly"
}

// Recorder polls a Provider on its own ticker and writes one line per poll.
type Recorder struct {
	opts     Options
	provider Provider
	now      func() time.Time

	mu  sync.Mutex
	out *lumberjack.Logger

	schedule cron.Schedule
}

// New creates a recorder. The export schedule is parsed up front so a bad
// spec fails at startup.
func New(p Provider, opts Options) (*Recorder, error) {
	if opts.File == "" {
		return nil, errors.New("recorder: file is required")
	}
	if opts.Interval <= 0 {
		opts.Interval = 50 * time.Millisecond
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}
	r := &Recorder{
		opts:     opts,
		provider: p,
		now:      time.Now,
		out: &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			LocalTime:  true,
		},
	}
	if opts.ExportSchedule != "" {
		sched, err := cron.ParseStandard(opts.ExportSchedule)
		if err != nil {
			return nil, fmt.Errorf("recorder: export schedule %q: %w", opts.ExportSchedule, err)
		}
		r.schedule = sched
	}
	return r, nil
}

// Run records until ctx is done, then closes the file.
func (r *Recorder) Run(ctx context.Context) error {
	if r.schedule != nil {
		c := cron.New()
		c.Schedule(r.schedule, cron.FuncJob(func() {
			if path, err := r.Export(); err != nil {
				log.Printf("recorder: scheduled export failed: %v", err)
			} else {
				log.Printf("recorder: exported %s", path)
			}
		}))
		c.Start()
		defer func() { <-c.Stop().Done() }()
	}

	ticker := time.NewTicker(r.opts.Interval)
	defer ticker.Stop()
	log.Printf("recorder: writing %s every %v", r.opts.File, r.opts.Interval)

	for {
		select {
		case <-ctx.Done():
			return r.Close()
		case <-ticker.C:
			if err := r.Record(); err != nil {
				log.Printf("recorder: %v", err)
			}
		}
	}
}

// Record writes one line for the provider's current values.
func (r *Recorder) Record() error {
	line := FormatRecord(r.now(), r.provider.State().IsWalking(), r.provider.Snapshot())

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := io.WriteString(r.out, line); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

// Export copies the current record file to ExportDir as
// walking_log_<yyyyMMdd_HHmmss>.txt and returns its path.
func (r *Recorder) Export() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return ExportFile(r.opts.File, r.opts.ExportDir, r.now())
}

// ExportFile copies file into dir under a name stamped with at.
func ExportFile(file, dir string, at time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("export dir: %w", err)
	}
	src, err := os.Open(file)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("export: nothing recorded yet: %w", err)
	}
	if err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	defer src.Close()

	dst, path, err := createExportFile(dir, at)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", fmt.Errorf("export copy: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("export close: %w", err)
	}
	return path, nil
}

// Close closes the record file.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.out.Close()
}

// createExportFile never overwrites an earlier export taken in the same second.
func createExportFile(dir string, at time.Time) (*os.File, string, error) {
	name := "walking_log_" + at.Format(exportTimeLayout)
	for i := 0; i < 100; i++ {
		path := filepath.Join(dir, name+".txt")
		if i > 0 {
			path = filepath.Join(dir, fmt.Sprintf("%s_%d.txt", name, i))
		}
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return nil, "", fmt.Errorf("export create: %w", err)
		}
		return f, path, nil
	}
	return nil, "", fmt.Errorf("export: too many exports named %s", name)
}

// FormatRecord renders
// "yyyy-MM-dd HH:mm:ss.SSS,<walking>,ax,ay,az,gx,gy,gz,lx,ly,lz,|a|,|g|,|l|\n"
// from the filtered values of snap.
func FormatRecord(at time.Time, walking bool, snap gait.Snapshot) string {
	var b strings.Builder
	b.WriteString(at.Format(recordTimeLayout))
	b.WriteByte(',')
	b.WriteString(strconv.FormatBool(walking))

	for _, v := range []gait.Vec3{
		snap.Accelerometer.Filtered,
		snap.Gyroscope.Filtered,
		snap.LinearAcceleration.Filtered,
	} {
		writeFloats(&b, v.X, v.Y, v.Z)
	}
	writeFloats(&b,
		snap.Accelerometer.Magnitude,
		snap.Gyroscope.Magnitude,
		snap.LinearAcceleration.Magnitude,
	)
	b.WriteByte('\n')
	return b.String()
}

func writeFloats(b *strings.Builder, vs ...float64) {
	for _, v := range vs {
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
	}
}
