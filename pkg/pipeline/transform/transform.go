/*
 * Copyright (C) 2021 IBM, Inc.
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
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robotpm/pm-pipeline/pkg/api"
	"github.com/robotpm/pm-pipeline/pkg/config"
	"github.com/robotpm/pm-pipeline/pkg/dataset"
	"github.com/robotpm/pm-pipeline/pkg/model"
	"github.com/robotpm/pm-pipeline/pkg/operational"
	log "github.com/sirupsen/logrus"
)

// Transformer rewrites one record. A false result drops the record.
type Transformer interface {
	Transform(in config.GenericMap) (config.GenericMap, bool)
}

type transformNone struct {
}

// Transform transforms a record before being stored
func (t *transformNone) Transform(f config.GenericMap) (config.GenericMap, bool) {
	return f, true
}

// NewTransformNone create a new transform
func NewTransformNone() (Transformer, error) {
	log.Debugf("entering NewTransformNone")
	return &transformNone{}, nil
}

var errorsCounter = operational.DefineMetric(
	"transform_errors",
	"Counter of records dropped by a transform stage",
	operational.TypeCounter,
	"stage", "type", "code",
)

type stageErrors struct {
	stage     string
	stageType string
	counter   *prometheus.CounterVec
}

func newStageErrors(opMetrics *operational.Metrics, params config.StageParam) stageErrors {
	return stageErrors{
		stage:     params.Name,
		stageType: params.Transform.Type,
		counter:   opMetrics.NewCounterVec(&errorsCounter),
	}
}

func (s stageErrors) inc(code string) {
	s.counter.WithLabelValues(s.stage, s.stageType, code).Inc()
}

// loadArtifacts reads the artifacts directory and resolves the layout: when no
// channel is configured, the channels the artifacts were trained on are used.
func loadArtifacts(dir string, layout api.Layout) (*model.Artifacts, string, []string, error) {
	if dir == "" {
		return nil, "", nil, errors.New("artifactsDir must be provided")
	}
	a, err := model.LoadArtifacts(dir)
	if err != nil {
		return nil, "", nil, err
	}
	timeColumn := layout.TimeColumn
	if timeColumn == "" {
		timeColumn = dataset.DefaultTimeColumn
	}
	channels := layout.Channels
	if len(channels) == 0 {
		for ch := range a.Scalers {
			channels = append(channels, ch)
		}
		sort.Strings(channels)
	}
	return a, timeColumn, channels, nil
}
