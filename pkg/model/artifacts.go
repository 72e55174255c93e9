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
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

const (
	ScalersFile    = "scalers.json"
	ModelsFile     = "linreg_models.json"
	ThresholdsFile = "thresholds.json"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

// Artifacts is everything fitted at training time and reused when scoring.
type Artifacts struct {
	Scalers    ScalerStats
	Models     Models
	Thresholds Thresholds
}

// scalersDoc is the on-disk layout of ScalerStats: one map per statistic.
type scalersDoc struct {
	Min  map[string]float64 `json:"min"`
	Max  map[string]float64 `json:"max"`
	Mean map[string]float64 `json:"mean"`
	Std  map[string]float64 `json:"std"`
}

// MarshalJSON writes the stats grouped by statistic rather than by channel.
func (s ScalerStats) MarshalJSON() ([]byte, error) {
	doc := scalersDoc{
		Min:  map[string]float64{},
		Max:  map[string]float64{},
		Mean: map[string]float64{},
		Std:  map[string]float64{},
	}
	for ch, st := range s {
		doc.Min[ch] = st.Min
		doc.Max[ch] = st.Max
		doc.Mean[ch] = st.Mean
		doc.Std[ch] = st.Std
	}
	return jsonCodec.Marshal(doc)
}

// UnmarshalJSON reads the layout written by MarshalJSON. Every channel needs a mean and a std.
func (s *ScalerStats) UnmarshalJSON(data []byte) error {
	var doc scalersDoc
	if err := jsonCodec.Unmarshal(data, &doc); err != nil {
		return err
	}
	out := ScalerStats{}
	for ch, mean := range doc.Mean {
		std, ok := doc.Std[ch]
		if !ok {
			return errors.Errorf("scaler stats: channel %q has a mean but no std", ch)
		}
		out[ch] = ChannelStats{Min: doc.Min[ch], Max: doc.Max[ch], Mean: mean, Std: std}
	}
	*s = out
	return nil
}

// SaveArtifacts writes the three artifact files into dir, creating it if needed.
func SaveArtifacts(dir string, a *Artifacts) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating artifacts directory %s", dir)
	}
	if err := writeJSON(filepath.Join(dir, ScalersFile), a.Scalers); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, ModelsFile), a.Models); err != nil {
		return err
	}
	return SaveThresholds(filepath.Join(dir, ThresholdsFile), a.Thresholds)
}

// SaveThresholds writes one thresholds file.
func SaveThresholds(path string, t Thresholds) error {
	return writeJSON(path, t)
}

// LoadArtifacts reads the three artifact files from dir.
func LoadArtifacts(dir string) (*Artifacts, error) {
	a := &Artifacts{}
	if err := readJSON(filepath.Join(dir, ScalersFile), &a.Scalers); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(dir, ModelsFile), &a.Models); err != nil {
		return nil, err
	}
	t, err := LoadThresholds(filepath.Join(dir, ThresholdsFile))
	if err != nil {
		return nil, err
	}
	a.Thresholds = t
	return a, nil
}

// LoadThresholds reads one thresholds file and checks that it holds a usable rule configuration.
func LoadThresholds(path string) (Thresholds, error) {
	var t Thresholds
	if err := readJSON(path, &t); err != nil {
		return Thresholds{}, err
	}
	if err := t.Rules().Validate(); err != nil {
		return Thresholds{}, errors.Wrapf(err, "thresholds in %s", path)
	}
	return t, nil
}

// ThresholdsExist reports whether dir already holds a thresholds file.
func ThresholdsExist(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ThresholdsFile))
	return err == nil
}

func writeJSON(path string, v interface{}) error {
	data, err := jsonCodec.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "encoding %s", path)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading %s", path)
	}
	if err := jsonCodec.Unmarshal(data, v); err != nil {
		return errors.Wrapf(err, "decoding %s", path)
	}
	return nil
}
