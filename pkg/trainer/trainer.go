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

package trainer

import (
	"github.com/google/uuid"
	"github.com/robotpm/pm-pipeline/pkg/dataset"
	"github.com/robotpm/pm-pipeline/pkg/detect"
	"github.com/robotpm/pm-pipeline/pkg/model"
	"github.com/sirupsen/logrus"
)

var tlog = logrus.WithField("component", "trainer")

// Options control a training run.
type Options struct {
	Discovery model.DiscoveryOptions
	// Existing thresholds are reused verbatim instead of being discovered again.
	Existing *model.Thresholds
}

// Train fits the scaler on ds, the per-channel baselines on the z-scored
// readings, and discovers thresholds from the pooled training deviations.
func Train(ds *dataset.Dataset, opts Options) (*model.Artifacts, error) {
	runID := uuid.NewString()
	log := tlog.WithField("run", runID)
	log.Debugf("training on %d readings, channels %v", ds.Len(), ds.Channels)

	scalers, err := model.FitScaler(ds)
	if err != nil {
		return nil, err
	}
	normalized, err := model.TransformZScore(ds, scalers)
	if err != nil {
		return nil, err
	}
	models, err := model.FitModels(normalized)
	if err != nil {
		return nil, err
	}

	var thresholds model.Thresholds
	if opts.Existing != nil {
		thresholds = *opts.Existing
		log.Infof("reusing thresholds MinC=%v MaxC=%v T=%v", thresholds.MinC, thresholds.MaxC, thresholds.T)
	} else {
		pooled, err := model.PooledDeviations(normalized, models)
		if err != nil {
			return nil, err
		}
		if thresholds, err = model.DiscoverThresholds(pooled, opts.Discovery); err != nil {
			return nil, err
		}
		log.Infof("discovered thresholds MinC=%v MaxC=%v T=%v from %d pooled deviations",
			thresholds.MinC, thresholds.MaxC, thresholds.T, len(pooled))
	}
	if err := thresholds.Rules().Validate(); err != nil {
		return nil, err
	}
	return &model.Artifacts{Scalers: scalers, Models: models, Thresholds: thresholds}, nil
}

// ScoreOptions control a scoring run.
type ScoreOptions struct {
	detect.Options
	// Rules override the artifact thresholds when set.
	Rules *detect.RuleConfig
}

// Scored is the outcome of scoring one dataset.
type Scored struct {
	Normalized *dataset.Dataset
	Deviations []detect.Series
	Events     []detect.Event
}

// Score normalizes ds with the frozen scaler, computes per-channel deviations
// from the baselines and runs the event detector on every channel.
func Score(ds *dataset.Dataset, artifacts *model.Artifacts, opts ScoreOptions) (*Scored, error) {
	rules := artifacts.Thresholds.Rules()
	if opts.Rules != nil {
		rules = *opts.Rules
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	normalized, err := model.TransformZScore(ds, artifacts.Scalers)
	if err != nil {
		return nil, err
	}
	times := normalized.Times()
	series := make([]detect.Series, 0, len(normalized.Channels))
	for _, ch := range normalized.Channels {
		baseline, ok := artifacts.Models[ch]
		if !ok {
			return nil, &model.MissingChannelError{Channel: ch, In: "baseline models"}
		}
		devs, err := model.Deviations(normalized, ch, baseline)
		if err != nil {
			return nil, err
		}
		series = append(series, detect.Series{Axis: ch, Times: times, Deviations: devs})
	}
	events, err := detect.DetectChannels(series, rules, opts.Options)
	if err != nil {
		return nil, err
	}
	tlog.Debugf("scored %d readings over %d channels: %d events", ds.Len(), len(series), len(events))
	return &Scored{Normalized: normalized, Deviations: series, Events: events}, nil
}
