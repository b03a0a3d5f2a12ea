// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

import (
	"errors"
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"github.com/relabs-tech/walking_detector/internal/gait"
)

// ErrMalformed is returned for payloads that are not a sample object.
var ErrMalformed = errors.New("malformed sample payload")

// DecodeSample parses a sample payload. Both {"channel","x","y","z","ts"} and
// {"channel","values":[x,y,z],"ts"} are accepted; now is used when ts is absent.
func DecodeSample(payload []byte, now time.Time) (gait.Sample, error) {
	if !gjson.ValidBytes(payload) {
		return gait.Sample{}, fmt.Errorf("%w: invalid json", ErrMalformed)
	}
	doc := gjson.ParseBytes(payload)
	if !doc.IsObject() {
		return gait.Sample{}, fmt.Errorf("%w: not an object", ErrMalformed)
	}

	ch, err := gait.ParseChannel(doc.Get("channel").String())
	if err != nil {
		return gait.Sample{}, err
	}

	var values gait.Vec3
	if arr := doc.Get("values"); arr.Exists() {
		items := arr.Array()
		if len(items) != 3 {
			return gait.Sample{}, fmt.Errorf("%s sample with %d values: %w", ch, len(items), gait.ErrTripleLength)
		}
		if values, err = vecOf(items[0], items[1], items[2]); err != nil {
			return gait.Sample{}, err
		}
	} else {
		if values, err = vecOf(doc.Get("x"), doc.Get("y"), doc.Get("z")); err != nil {
			return gait.Sample{}, err
		}
	}

	ts := now
	if v := doc.Get("ts"); v.Exists() {
		if v.Type != gjson.Number {
			return gait.Sample{}, fmt.Errorf("%w: ts is not a number", ErrMalformed)
		}
		ts = time.UnixMilli(v.Int())
	}

	return gait.Sample{Channel: ch, Values: values, Time: ts}, nil
}

func vecOf(x, y, z gjson.Result) (gait.Vec3, error) {
	for _, r := range []gjson.Result{x, y, z} {
		if r.Type != gjson.Number {
			return gait.Vec3{}, fmt.Errorf("%w: component %q is not a number", ErrMalformed, r.Raw)
		}
	}
	return gait.Vec3{X: x.Float(), Y: y.Float(), Z: z.Float()}, nil
}
