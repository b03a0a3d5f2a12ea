// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/walking_detector/internal/gait"
)

// SerialSource reads "<channel>,x,y,z[,unix_ms]" lines from a serial port.
type SerialSource struct {
	opts serial.OpenOptions
	now  func() time.Time
}

// NewSerialSource configures an 8N1 port.
func NewSerialSource(port string, baud int) *SerialSource {
	return &SerialSource{
		opts: serial.OpenOptions{
			PortName:              port,
			BaudRate:              uint(baud),
			DataBits:              8,
			StopBits:              1,
			MinimumReadSize:       1,
			ParityMode:            serial.PARITY_NONE,
			InterCharacterTimeout: 0,
		},
		now: time.Now,
	}
}

// Run opens the port and forwards samples until ctx is done or the port fails.
func (s *SerialSource) Run(ctx context.Context, sink Sink) error {
	port, err := serial.Open(s.opts)
	if err != nil {
		return fmt.Errorf("open serial port %s: %w", s.opts.PortName, err)
	}
	log.Printf("serial source: %s opened at %d baud", s.opts.PortName, s.opts.BaudRate)

	// closing the port unblocks the pending read
	go func() {
		<-ctx.Done()
		port.Close()
	}()

	err = ReadSampleLines(port, sink, s.now)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// ReadSampleLines forwards every parsable line of r to sink. Bad lines are
// logged and skipped.
func ReadSampleLines(r io.Reader, sink Sink, now func() time.Time) error {
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if line = strings.TrimSpace(line); line != "" && !strings.HasPrefix(line, "#") {
			sample, perr := ParseSampleLine(line, now())
			if perr != nil {
				log.Printf("serial source: %v", perr)
			} else if ierr := sink.Ingest(sample); ierr != nil {
				log.Printf("serial source: %v", ierr)
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("serial read: %w", err)
		}
	}
}

// ParseSampleLine parses "<channel>,x,y,z" with an optional trailing unix
// millisecond timestamp. now is used when the timestamp is absent.
func ParseSampleLine(line string, now time.Time) (gait.Sample, error) {
	fields := strings.Split(line, ",")
	if len(fields) < 2 {
		return gait.Sample{}, fmt.Errorf("sample line %q: missing values", line)
	}
	ch, err := gait.ParseChannel(fields[0])
	if err != nil {
		return gait.Sample{}, fmt.Errorf("sample line %q: %w", line, err)
	}

	values := fields[1:]
	ts := now
	switch len(values) {
	case 3:
	case 4:
		ms, err := strconv.ParseInt(strings.TrimSpace(values[3]), 10, 64)
		if err != nil {
			return gait.Sample{}, fmt.Errorf("sample line %q: invalid timestamp: %w", line, err)
		}
		ts = time.UnixMilli(ms)
		values = values[:3]
	default:
		return gait.Sample{}, fmt.Errorf("sample line %q: %w", line, gait.ErrTripleLength)
	}

	var v [3]float64
	for i, f := range values {
		if v[i], err = strconv.ParseFloat(strings.TrimSpace(f), 64); err != nil {
			return gait.Sample{}, fmt.Errorf("sample line %q: %w", line, err)
		}
	}
	return gait.Sample{Channel: ch, Values: gait.Vec3{X: v[0], Y: v[1], Z: v[2]}, Time: ts}, nil
}
