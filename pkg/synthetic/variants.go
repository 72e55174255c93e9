/*
 * Copyright (C) 2026 IBM, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

package synthetic

import (
	"math/rand/v2"

	"github.com/robotpm/pm-pipeline/pkg/dataset"
	"github.com/robotpm/pm-pipeline/pkg/model"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	clipLow     = 0.015
	clipHigh    = 0.985
	smoothWidth = 3
)

// RemovePickPoints flattens the sharp spikes of pick operations: every channel
// is clipped to its 1.5% and 98.5% quantiles, then smoothed with a centered
// moving average over three samples (fewer at the edges).
func RemovePickPoints(ds *dataset.Dataset) (*dataset.Dataset, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	out := ds.Clone()
	if out.Len() == 0 {
		return out, nil
	}
	for c, ch := range out.Channels {
		col, _ := out.Column(ch)
		lo, err := model.Percentile(col, clipLow)
		if err != nil {
			return nil, err
		}
		hi, err := model.Percentile(col, clipHigh)
		if err != nil {
			return nil, err
		}
		for i := range col {
			col[i] = max(lo, min(hi, col[i]))
		}
		smoothed := centeredMean(col, smoothWidth)
		for i := range out.Readings {
			out.Readings[i].Values[c] = smoothed[i]
		}
	}
	return out, nil
}

func centeredMean(values []float64, width int) []float64 {
	half := width / 2
	out := make([]float64, len(values))
	for i := range values {
		from, to := max(0, i-half), min(len(values), i-half+width)
		var sum float64
		for _, v := range values[from:to] {
			sum += v
		}
		out[i] = sum / float64(to-from)
	}
	return out
}

// VariantOptions describe how far a simulated robot drifts from the reference one.
type VariantOptions struct {
	ScaleMu  float64 `json:"scale_mu"`
	ScaleSD  float64 `json:"scale_sd"`
	OffsetSD float64 `json:"offset_sd"`
	NoiseSD  float64 `json:"noise_sd"`
}

// VariantMeta records the draws behind a robot variant.
type VariantMeta struct {
	VariantOptions
	Scales  []float64 `json:"scales"`
	Offsets []float64 `json:"offsets"`
}

// Reference variants written by the generate command.
var (
	RobotVariant1 = VariantOptions{ScaleMu: 0.98, ScaleSD: 0.02, OffsetSD: 0.12, NoiseSD: 0.07}
	RobotVariant3 = VariantOptions{ScaleMu: 1.02, ScaleSD: 0.02, OffsetSD: 0.12, NoiseSD: 0.07}
)

// MakeRobotVariant simulates another robot of the same model: every channel
// gets its own gain and offset, plus white noise on each sample.
func MakeRobotVariant(ds *dataset.Dataset, opts VariantOptions, rng *rand.Rand) (*dataset.Dataset, VariantMeta) {
	n := len(ds.Channels)
	meta := VariantMeta{VariantOptions: opts, Scales: make([]float64, n), Offsets: make([]float64, n)}
	scale := distuv.Normal{Mu: opts.ScaleMu, Sigma: opts.ScaleSD, Src: rng}
	offset := distuv.Normal{Sigma: opts.OffsetSD, Src: rng}
	noise := distuv.Normal{Sigma: opts.NoiseSD, Src: rng}
	for c := range meta.Scales {
		meta.Scales[c] = scale.Rand()
	}
	for c := range meta.Offsets {
		meta.Offsets[c] = offset.Rand()
	}
	out := ds.Clone()
	for c := 0; c < n; c++ {
		for i := range out.Readings {
			v := &out.Readings[i].Values[c]
			*v = *v*meta.Scales[c] + meta.Offsets[c] + noise.Rand()
		}
	}
	return out, meta
}
