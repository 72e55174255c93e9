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
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

var slog = logrus.WithField("component", "synthetic")

const minStd = 1e-6

// Options control Generate.
type Options struct {
	Rows int   `yaml:"rows" json:"rows"`
	Seed int64 `yaml:"seed" json:"seed"`
}

// NewSource returns the deterministic random source used by the generators.
func NewSource(seed int64) rand.Source {
	return rand.NewPCG(uint64(seed), uint64(seed))
}

// NewRand wraps NewSource.
func NewRand(seed int64) *rand.Rand {
	return rand.New(NewSource(seed))
}

// Generate creates test readings shaped after train: the time grid starts at
// the training start with the median training step, and every channel is drawn
// from a normal distribution with the training mean and population std.
// The same seed always yields the same dataset.
func Generate(train *dataset.Dataset, opts Options) (*dataset.Dataset, error) {
	if train.Len() == 0 {
		return nil, &model.InsufficientDataError{What: "training dataset has no readings"}
	}
	if err := train.Validate(); err != nil {
		return nil, err
	}
	rows := opts.Rows
	if rows <= 0 {
		rows = 3000
	}
	times := train.Times()
	start := times[0]
	for _, t := range times {
		start = min(start, t)
	}
	step := train.MedianStep()

	src := NewSource(opts.Seed)
	dists := make([]distuv.Normal, len(train.Channels))
	for i, ch := range train.Channels {
		all, _ := train.Column(ch)
		col := dataset.DropNaN(all)
		if len(col) == 0 {
			return nil, &model.InsufficientDataError{What: "training channel " + ch + " has no values"}
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		if !(std > 0) {
			std = minStd
		}
		dists[i] = distuv.Normal{Mu: mean, Sigma: std, Src: src}
	}

	out := dataset.New(train.TimeColumn, train.Channels)
	out.Readings = make([]dataset.Reading, rows)
	for r := range out.Readings {
		out.Readings[r] = dataset.Reading{Time: start + float64(r)*step, Values: make([]float64, len(dists))}
	}
	// channel-major draws keep each channel's sequence independent of the channel count
	for c, d := range dists {
		for r := range out.Readings {
			out.Readings[r].Values[c] = d.Rand()
		}
	}
	slog.Debugf("generated %d readings, start %v step %v", rows, start, step)
	return out, nil
}

// Anomaly is a sustained positive bump added to one channel.
type Anomaly struct {
	Channel  string  `yaml:"channel" json:"channel"`
	Start    float64 `yaml:"start" json:"start"`
	Duration float64 `yaml:"duration" json:"duration"`
	Bump     float64 `yaml:"bump" json:"bump"`
}

// InjectAnomaly returns a copy of ds with bump added to every sample of the
// channel whose time lies in [start, start+duration].
func InjectAnomaly(ds *dataset.Dataset, a Anomaly) (*dataset.Dataset, error) {
	idx, ok := ds.ChannelIndex(a.Channel)
	if !ok {
		return nil, &model.MissingChannelError{Channel: a.Channel, In: "dataset"}
	}
	out := ds.Clone()
	end := a.Start + a.Duration
	for i := range out.Readings {
		if t := out.Readings[i].Time; t >= a.Start && t <= end {
			out.Readings[i].Values[idx] += a.Bump
		}
	}
	return out, nil
}

// DefaultAnomalies are the two bumps placed in generated test sets: a small one
// on axis_2 from the 500th reading and a large one on axis_5 from the 1200th.
// Anomalies whose channel or start reading is missing are left out.
func DefaultAnomalies(ds *dataset.Dataset) []Anomaly {
	var out []Anomaly
	for _, a := range []struct {
		channel        string
		row            int
		duration, bump float64
	}{
		{"axis_2", 500, 20, 2},
		{"axis_5", 1200, 30, 4},
	} {
		if _, ok := ds.ChannelIndex(a.channel); !ok || a.row >= ds.Len() {
			continue
		}
		out = append(out, Anomaly{Channel: a.channel, Start: ds.Readings[a.row].Time, Duration: a.duration, Bump: a.bump})
	}
	return out
}
