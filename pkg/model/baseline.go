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
	"math"

	"github.com/robotpm/pm-pipeline/pkg/dataset"
	"gonum.org/v1/gonum/stat"
)

// olsEpsilon keeps the slope finite when x has no variance.
const olsEpsilon = 1e-12

// Baseline is the linear trend of one channel, signal = Intercept + Slope * time.
type Baseline struct {
	Intercept float64 `json:"intercept"`
	Slope     float64 `json:"slope"`
}

// Models maps channel names to their baselines.
type Models map[string]Baseline

// FitLinear computes the ordinary least squares line through (x, y).
func FitLinear(x, y []float64) (Baseline, error) {
	if len(x) != len(y) {
		return Baseline{}, &ShapeMismatchError{Left: len(x), Right: len(y)}
	}
	if len(x) == 0 {
		return Baseline{}, &InsufficientDataError{What: "no samples to fit"}
	}
	xMean := stat.Mean(x, nil)
	yMean := stat.Mean(y, nil)
	var num, den float64
	for i := range x {
		dx := x[i] - xMean
		num += dx * (y[i] - yMean)
		den += dx * dx
	}
	slope := num / (den + olsEpsilon)
	return Baseline{Intercept: yMean - slope*xMean, Slope: slope}, nil
}

// At evaluates the baseline at x.
func (b Baseline) At(x float64) float64 {
	return b.Intercept + b.Slope*x
}

// Predict evaluates the baseline at every x.
func (b Baseline) Predict(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = b.At(v)
	}
	return out
}

// FitModels fits one independent baseline per channel against the dataset's time column.
// Missing (NaN) values are left out of the fit.
func FitModels(ds *dataset.Dataset) (Models, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	times := ds.Times()
	models := make(Models, len(ds.Channels))
	for _, ch := range ds.Channels {
		col, _ := ds.Column(ch)
		x, y := presentPairs(times, col)
		m, err := FitLinear(x, y)
		if err != nil {
			return nil, err
		}
		models[ch] = m
	}
	return models, nil
}

// presentPairs drops the samples whose value is missing.
func presentPairs(times, values []float64) (x, y []float64) {
	for i, v := range values {
		if !math.IsNaN(v) {
			x = append(x, times[i])
			y = append(y, v)
		}
	}
	return x, y
}

// Residuals returns actual minus predicted for one channel, and the predictions, in row order.
func Residuals(ds *dataset.Dataset, channel string, b Baseline) (residuals, predicted []float64, err error) {
	col, err := ds.Column(channel)
	if err != nil {
		return nil, nil, err
	}
	predicted = b.Predict(ds.Times())
	residuals = make([]float64, len(col))
	for i := range col {
		residuals[i] = col[i] - predicted[i]
	}
	return residuals, predicted, nil
}

// Deviation is the part of a residual above the baseline.
func Deviation(residual float64) float64 {
	if residual < 0 {
		return 0
	}
	return residual
}

// Deviations returns the non-negative residuals of one channel.
func Deviations(ds *dataset.Dataset, channel string, b Baseline) ([]float64, error) {
	r, _, err := Residuals(ds, channel, b)
	if err != nil {
		return nil, err
	}
	for i := range r {
		r[i] = Deviation(r[i])
	}
	return r, nil
}
