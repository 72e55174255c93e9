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

package transform

import (
	"errors"

	"github.com/robotpm/pm-pipeline/pkg/config"
	"github.com/robotpm/pm-pipeline/pkg/model"
	"github.com/robotpm/pm-pipeline/pkg/operational"
	"github.com/robotpm/pm-pipeline/pkg/pipeline/utils"
	log "github.com/sirupsen/logrus"
)

var rlog = log.WithField("component", "transform.Residual")

// Residual compares each normalized channel with its linear baseline over time.
type Residual struct {
	timeColumn string
	channels   []string
	models     []model.Baseline
	errors     stageErrors
}

// Transform adds the predicted value, the residual and the deviation of every channel
func (r *Residual) Transform(entry config.GenericMap) (config.GenericMap, bool) {
	t, err := entry.LookupFloat(r.timeColumn)
	if err != nil {
		rlog.WithError(err).Debug("dropping record")
		r.errors.inc("MissingTime")
		return entry, false
	}
	output := entry.Copy()
	for i, ch := range r.channels {
		v, err := entry.LookupFloat(ch)
		if err != nil {
			rlog.WithError(err).Debug("dropping record")
			r.errors.inc("MissingChannel")
			return entry, false
		}
		predicted := r.models[i].At(t)
		residual := v - predicted
		output[utils.PredictedField(ch)] = predicted
		output[utils.ResidualField(ch)] = residual
		output[utils.DeviationField(ch)] = model.Deviation(residual)
	}
	return output, true
}

// NewTransformResidual creates a residual transformer from the baselines of an artifacts directory.
func NewTransformResidual(params config.StageParam, opMetrics *operational.Metrics) (Transformer, error) {
	if params.Transform == nil || params.Transform.Residual == nil {
		return nil, errors.New("missing residual configuration")
	}
	cfg := params.Transform.Residual
	a, timeColumn, channels, err := loadArtifacts(cfg.ArtifactsDir, cfg.Layout)
	if err != nil {
		return nil, err
	}
	models := make([]model.Baseline, len(channels))
	for i, ch := range channels {
		b, ok := a.Models[ch]
		if !ok {
			return nil, &model.MissingChannelError{Channel: ch, In: "models"}
		}
		models[i] = b
	}
	rlog.Infof("NewTransformResidual channels=%v", channels)
	return &Residual{
		timeColumn: timeColumn,
		channels:   channels,
		models:     models,
		errors:     newStageErrors(opMetrics, params),
	}, nil
}
