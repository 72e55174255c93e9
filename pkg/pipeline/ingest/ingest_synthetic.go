/*
 * Copyright (C) 2022 IBM, Inc.
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

package ingest

import (
	"errors"

	"github.com/benbjohnson/clock"
	"github.com/robotpm/pm-pipeline/pkg/api"
	"github.com/robotpm/pm-pipeline/pkg/config"
	"github.com/robotpm/pm-pipeline/pkg/dataset"
	"github.com/robotpm/pm-pipeline/pkg/operational"
	"github.com/robotpm/pm-pipeline/pkg/pipeline/utils"
	"github.com/robotpm/pm-pipeline/pkg/synthetic"
	log "github.com/sirupsen/logrus"
)

var slog = log.WithField("component", "ingest.Synthetic")

type IngestSynthetic struct {
	replayer
	params api.IngestSynthetic
}

// Ingest generates readings shaped after a training file, with optional injected anomalies
func (ing *IngestSynthetic) Ingest(out chan<- config.GenericMap) {
	slog.Debugf("entering IngestSynthetic Ingest, params = %v", ing.params)
	ing.metrics.createOutQueueLen(out)
	ds, err := ing.generate()
	if err != nil {
		slog.WithError(err).Error("can't generate readings")
		ing.metrics.error("CannotGenerate")
		return
	}
	slog.Infof("generated %d readings", ds.Len())
	ing.replay(ds, 0, out)
}

func (ing *IngestSynthetic) generate() (*dataset.Dataset, error) {
	train, err := dataset.ReadCSVFile(ing.params.TrainingFile, ing.params.TimeColumn, ing.params.Channels)
	if err != nil {
		return nil, err
	}
	ds, err := synthetic.Generate(train, synthetic.Options{Rows: ing.params.Rows, Seed: ing.params.Seed})
	if err != nil {
		return nil, err
	}
	var anomalies []synthetic.Anomaly
	if ing.params.DefaultAnomalies {
		anomalies = synthetic.DefaultAnomalies(ds)
	}
	for _, a := range ing.params.Anomalies {
		anomalies = append(anomalies, synthetic.Anomaly{
			Channel:  a.Channel,
			Start:    a.Start,
			Duration: a.Duration,
			Bump:     a.Bump,
		})
	}
	for _, a := range anomalies {
		if ds, err = synthetic.InjectAnomaly(ds, a); err != nil {
			return nil, err
		}
		slog.Infof("injected a bump of %v on %s from t=%v for %v", a.Bump, a.Channel, a.Start, a.Duration)
	}
	return ds, nil
}

// NewIngestSynthetic create a new ingester
func NewIngestSynthetic(opMetrics *operational.Metrics, params config.StageParam) (Ingester, error) {
	slog.Debugf("entering NewIngestSynthetic")
	if params.Ingest == nil || params.Ingest.Synthetic == nil || params.Ingest.Synthetic.TrainingFile == "" {
		return nil, errors.New("synthetic ingest requires a training file")
	}
	cfg := *params.Ingest.Synthetic
	if cfg.Rows < 0 {
		return nil, errors.New("synthetic ingest rows must not be negative")
	}

	return &IngestSynthetic{
		params: cfg,
		replayer: replayer{
			interval: cfg.Interval.Duration,
			clock:    clock.New(),
			exitChan: utils.ExitChannel(),
			metrics:  newMetrics(opMetrics, params.Name, params.Ingest.Type),
		},
	}, nil
}
