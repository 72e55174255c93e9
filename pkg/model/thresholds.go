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
	"fmt"
	"math"
	"sort"

	"github.com/robotpm/pm-pipeline/pkg/dataset"
	"github.com/robotpm/pm-pipeline/pkg/detect"
)

const (
	DefaultMinQuantile = 0.95
	DefaultMaxQuantile = 0.99
	DefaultMinDuration = 10.0
	DefaultMethod      = "p95/p99 positive residuals"
)

// Thresholds are the persisted detection rules.
type Thresholds struct {
	MinC   float64 `json:"MinC"`
	MaxC   float64 `json:"MaxC"`
	T      float64 `json:"T"`
	Method string  `json:"method,omitempty"`
}

// Rules returns the detector configuration.
func (t Thresholds) Rules() detect.RuleConfig {
	return detect.RuleConfig{MinC: t.MinC, MaxC: t.MaxC, T: t.T}
}

// DiscoveryOptions select the quantiles and minimum duration used by DiscoverThresholds.
// Unset fields select the defaults.
type DiscoveryOptions struct {
	MinQuantile *float64
	MaxQuantile *float64
	MinDuration *float64
}

type discovery struct {
	minQuantile, maxQuantile, minDuration float64
}

func (o DiscoveryOptions) resolve() discovery {
	return discovery{
		minQuantile: valueOr(o.MinQuantile, DefaultMinQuantile),
		maxQuantile: valueOr(o.MaxQuantile, DefaultMaxQuantile),
		minDuration: valueOr(o.MinDuration, DefaultMinDuration),
	}
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// Percentile returns the p-quantile (0 <= p <= 1) of values, interpolating
// linearly between the closest ranks at h = (n-1)p. NaN values are ignored.
// values is not modified.
func Percentile(values []float64, p float64) (float64, error) {
	if p < 0 || p > 1 || math.IsNaN(p) {
		return math.NaN(), fmt.Errorf("quantile %v outside [0, 1]", p)
	}
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	if len(sorted) == 0 {
		return math.NaN(), &InsufficientDataError{What: "no values to compute a percentile"}
	}
	sort.Float64s(sorted)
	h := float64(len(sorted)-1) * p
	lo := int(math.Floor(h))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1], nil
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo]), nil
}

// DiscoverThresholds derives MinC and MaxC from deviations pooled across every channel.
func DiscoverThresholds(pooled []float64, opts DiscoveryOptions) (Thresholds, error) {
	d := opts.resolve()
	if d.minQuantile > d.maxQuantile {
		return Thresholds{}, fmt.Errorf("min quantile %v above max quantile %v", d.minQuantile, d.maxQuantile)
	}
	if d.minDuration < 0 || math.IsNaN(d.minDuration) {
		return Thresholds{}, fmt.Errorf("invalid minimum duration %v", d.minDuration)
	}
	minC, err := Percentile(pooled, d.minQuantile)
	if err != nil {
		return Thresholds{}, err
	}
	maxC, err := Percentile(pooled, d.maxQuantile)
	if err != nil {
		return Thresholds{}, err
	}
	method := DefaultMethod
	if d.minQuantile != DefaultMinQuantile || d.maxQuantile != DefaultMaxQuantile {
		method = fmt.Sprintf("p%g/p%g positive residuals", asPercent(d.minQuantile), asPercent(d.maxQuantile))
	}
	return Thresholds{MinC: minC, MaxC: maxC, T: d.minDuration, Method: method}, nil
}

func asPercent(q float64) float64 {
	return math.Round(q*1e4) / 1e2
}

// PooledDeviations collects the deviations of every channel of an already normalized dataset.
func PooledDeviations(normalized *dataset.Dataset, models Models) ([]float64, error) {
	pooled := make([]float64, 0, normalized.Len()*len(normalized.Channels))
	for _, ch := range normalized.Channels {
		m, ok := models[ch]
		if !ok {
			return nil, &MissingChannelError{Channel: ch, In: "baseline models"}
		}
		devs, err := Deviations(normalized, ch, m)
		if err != nil {
			return nil, err
		}
		pooled = append(pooled, devs...)
	}
	return pooled, nil
}
