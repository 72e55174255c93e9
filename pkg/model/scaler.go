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

package model

import (
	"github.com/robotpm/pm-pipeline/pkg/dataset"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Epsilon floors zero standard deviations and zero min/max spans.
const Epsilon = 1e-9

// ChannelStats holds the reference statistics of one channel.
type ChannelStats struct {
	Min  float64
	Max  float64
	Mean float64
	Std  float64
}

// ScalerStats maps channel names to their reference statistics.
// Once fit it is never modified; every scored dataset is normalized with it.
type ScalerStats map[string]ChannelStats

// FitScaler computes min, max, mean and population standard deviation per channel.
// Missing (NaN) values are skipped.
func FitScaler(ds *dataset.Dataset) (ScalerStats, error) {
	if ds.Len() == 0 {
		return nil, &InsufficientDataError{What: "reference dataset has no readings"}
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	stats := make(ScalerStats, len(ds.Channels))
	for _, ch := range ds.Channels {
		all, _ := ds.Column(ch)
		col := dataset.DropNaN(all)
		if len(col) == 0 {
			return nil, &InsufficientDataError{What: "channel " + ch + " has no values"}
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 {
			std = Epsilon
		}
		stats[ch] = ChannelStats{
			Min:  floats.Min(col),
			Max:  floats.Max(col),
			Mean: mean,
			Std:  std,
		}
	}
	return stats, nil
}

// TransformZScore returns a new dataset with every channel replaced by (x - mean) / std.
func TransformZScore(ds *dataset.Dataset, stats ScalerStats) (*dataset.Dataset, error) {
	return transform(ds, stats, func(x float64, s ChannelStats) float64 {
		return (x - s.Mean) / s.Std
	})
}

// TransformMinMax returns a new dataset with every channel replaced by (x - min) / (max - min).
func TransformMinMax(ds *dataset.Dataset, stats ScalerStats) (*dataset.Dataset, error) {
	return transform(ds, stats, func(x float64, s ChannelStats) float64 {
		return (x - s.Min) / s.span()
	})
}

func (s ChannelStats) span() float64 {
	span := s.Max - s.Min
	if span == 0 {
		return Epsilon
	}
	return span
}

// ZScore normalizes one value with the channel's reference statistics.
func (s ChannelStats) ZScore(x float64) float64 {
	return (x - s.Mean) / s.Std
}

// MinMax scales one value to the channel's reference range.
func (s ChannelStats) MinMax(x float64) float64 {
	return (x - s.Min) / s.span()
}

func transform(ds *dataset.Dataset, stats ScalerStats, f func(float64, ChannelStats) float64) (*dataset.Dataset, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	channelStats := make([]ChannelStats, len(ds.Channels))
	for i, ch := range ds.Channels {
		s, ok := stats[ch]
		if !ok {
			return nil, &MissingChannelError{Channel: ch, In: "scaler stats"}
		}
		channelStats[i] = s
	}
	out := ds.Clone()
	for i := range out.Readings {
		values := out.Readings[i].Values
		for c := range values {
			values[c] = f(values[c], channelStats[c])
		}
	}
	return out, nil
}
