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
	"fmt"

	"github.com/robotpm/pm-pipeline/pkg/api"
	"github.com/robotpm/pm-pipeline/pkg/config"
	"github.com/robotpm/pm-pipeline/pkg/model"
	"github.com/robotpm/pm-pipeline/pkg/operational"
	log "github.com/sirupsen/logrus"
)

var nlog = log.WithField("component", "transform.Normalize")

// Normalize rescales every channel with the scaler statistics frozen at training time.
type Normalize struct {
	channels []string
	stats    []model.ChannelStats
	scale    func(model.ChannelStats, float64) float64
	errors   stageErrors
}

// Transform replaces each channel value by its normalized value
func (n *Normalize) Transform(entry config.GenericMap) (config.GenericMap, bool) {
	output := entry.Copy()
	for i, ch := range n.channels {
		v, err := entry.LookupFloat(ch)
		if err != nil {
			nlog.WithError(err).Debug("dropping record")
			n.errors.inc("MissingChannel")
			return entry, false
		}
		output[ch] = n.scale(n.stats[i], v)
	}
	return output, true
}

// NewTransformNormalize creates a normalize transformer from the scalers of an artifacts directory.
func NewTransformNormalize(params config.StageParam, opMetrics *operational.Metrics) (Transformer, error) {
	if params.Transform == nil || params.Transform.Normalize == nil {
		return nil, errors.New("missing normalize configuration")
	}
	cfg := params.Transform.Normalize
	var scale func(model.ChannelStats, float64) float64
	switch cfg.Method {
	case "", api.NormalizeMethodName("ZScore"):
		scale = model.ChannelStats.ZScore
	case api.NormalizeMethodName("MinMax"):
		scale = model.ChannelStats.MinMax
	default:
		return nil, fmt.Errorf("unknown normalization method %q", cfg.Method)
	}
	a, _, channels, err := loadArtifacts(cfg.ArtifactsDir, cfg.Layout)
	if err != nil {
		return nil, err
	}
	stats := make([]model.ChannelStats, len(channels))
	for i, ch := range channels {
		s, ok := a.Scalers[ch]
		if !ok {
			return nil, &model.MissingChannelError{Channel: ch, In: "scalers"}
		}
		stats[i] = s
	}
	nlog.Infof("NewTransformNormalize method=%q channels=%v", cfg.Method, channels)
	return &Normalize{
		channels: channels,
		stats:    stats,
		scale:    scale,
		errors:   newStageErrors(opMetrics, params),
	}, nil
}
