// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"sort"
	"strings"
	"time"

	gometrics "github.com/rcrowley/go-metrics"

	"github.com/relabs-tech/walking_detector/internal/gait"
	"github.com/relabs-tech/walking_detector/internal/sensors"
)

// Metrics counts what flows through the detector pipeline.
type Metrics struct {
	registry gometrics.Registry

	samples     [3]gometrics.Counter
	rejected    gometrics.Counter
	transitions gometrics.Counter
	walks       gometrics.Counter
	published   gometrics.Counter
	pubErrors   gometrics.Counter
	rate        gometrics.Meter
	ingest      gometrics.Timer
}

// NewMetrics registers the pipeline metrics in a private registry.
func NewMetrics() *Metrics {
	r := gometrics.NewRegistry()
	m := &Metrics{
		registry:    r,
		rejected:    gometrics.NewRegisteredCounter("samples.rejected", r),
		transitions: gometrics.NewRegisteredCounter("state.transitions", r),
		walks:       gometrics.NewRegisteredCounter("state.walking", r),
		published:   gometrics.NewRegisteredCounter("publish.ok", r),
		pubErrors:   gometrics.NewRegisteredCounter("publish.errors", r),
		rate:        gometrics.NewRegisteredMeter("samples.rate", r),
		ingest:      gometrics.NewRegisteredTimer("samples.ingest", r),
	}
	for _, ch := range []gait.Channel{gait.Accelerometer, gait.Gyroscope, gait.LinearAcceleration} {
		m.samples[ch] = gometrics.NewRegisteredCounter("samples."+ch.String(), r)
	}
	return m
}

// Sink wraps next so every sample is counted and timed.
func (m *Metrics) Sink(next sensors.Sink) sensors.Sink {
	return sensors.SinkFunc(func(s gait.Sample) error {
		start := time.Now()
		err := next.Ingest(s)
		m.ingest.UpdateSince(start)
		if err != nil {
			m.rejected.Inc(1)
			return err
		}
		m.samples[s.Channel].Inc(1)
		m.rate.Mark(1)
		return nil
	})
}

// ObserveTransition counts a state change.
func (m *Metrics) ObserveTransition(tr gait.Transition) {
	m.transitions.Inc(1)
	if tr.To == gait.Walking {
		m.walks.Inc(1)
	}
}

// ObservePublish counts a publish attempt.
func (m *Metrics) ObservePublish(err error) {
	if err != nil {
		m.pubErrors.Inc(1)
		return
	}
	m.published.Inc(1)
}

// Counter returns the value of a registered counter, or 0.
func (m *Metrics) Counter(name string) int64 {
	if c, ok := m.registry.Get(name).(gometrics.Counter); ok {
		return c.Count()
	}
	return 0
}

// Snapshot flattens the registry into name -> value.
func (m *Metrics) Snapshot() map[string]any {
	return registrySnapshot(m.registry)
}

// String renders the counters on one line for the shutdown log.
func (m *Metrics) String() string {
	snap := m.Snapshot()
	keys := make([]string, 0, len(snap))
	for k := range snap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(formatMetric(snap[k]))
	}
	return b.String()
}

func registrySnapshot(r gometrics.Registry) map[string]any {
	out := make(map[string]any)
	r.Each(func(name string, i interface{}) {
		switch v := i.(type) {
		case gometrics.Counter:
			out[name] = v.Count()
		case gometrics.Gauge:
			out[name] = v.Value()
		case gometrics.Meter:
			s := v.Snapshot()
			out[name+".count"] = s.Count()
			out[name+".rate1"] = s.Rate1()
		case gometrics.Timer:
			s := v.Snapshot()
			out[name+".count"] = s.Count()
			out[name+".mean_us"] = s.Mean() / float64(time.Microsecond)
			out[name+".max_us"] = float64(s.Max()) / float64(time.Microsecond)
		}
	})
	return out
}

func formatMetric(v any) string {
	switch x := v.(type) {
	case float64:
		return fmt.Sprintf("%.2f", x)
	default:
		return fmt.Sprint(x)
	}
}
