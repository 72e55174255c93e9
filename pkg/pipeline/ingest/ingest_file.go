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

package ingest

import (
	"errors"

	"github.com/benbjohnson/clock"
	"github.com/robotpm/pm-pipeline/pkg/api"
	"github.com/robotpm/pm-pipeline/pkg/config"
	"github.com/robotpm/pm-pipeline/pkg/dataset"
	"github.com/robotpm/pm-pipeline/pkg/operational"
	"github.com/robotpm/pm-pipeline/pkg/pipeline/utils"
	log "github.com/sirupsen/logrus"
)

var flog = log.WithField("component", "ingest.File")

type ingestFile struct {
	replayer
	params api.IngestFile
}

// Ingest replays the readings of a CSV file, forever when loop is set
func (ing *ingestFile) Ingest(out chan<- config.GenericMap) {
	ing.metrics.createOutQueueLen(out)
	ds, err := dataset.ReadCSVFile(ing.params.Filename, ing.params.TimeColumn, ing.params.Channels)
	if err != nil {
		flog.WithError(err).Error("can't read readings file")
		ing.metrics.error("CannotReadFile")
		return
	}
	flog.Infof("Ingesting %d readings of %d channels from %s", ds.Len(), len(ds.Channels), ing.params.Filename)
	// each pass is shifted by the file period so that times never go backwards
	period := ds.LoopPeriod()
	for pass := 0; ing.replay(ds, float64(pass)*period, out); pass++ {
		if !ing.params.Loop {
			return
		}
		flog.Debugf("replaying %s, pass %d", ing.params.Filename, pass+1)
	}
	flog.Debugf("exiting ingestFile because of signal")
}

// NewIngestFile create a new ingester
func NewIngestFile(opMetrics *operational.Metrics, params config.StageParam) (Ingester, error) {
	return newIngestFile(opMetrics, params, clock.New())
}

func newIngestFile(opMetrics *operational.Metrics, params config.StageParam, clk clock.Clock) (*ingestFile, error) {
	flog.Debugf("entering NewIngestFile")
	if params.Ingest == nil || params.Ingest.File == nil || params.Ingest.File.Filename == "" {
		return nil, errors.New("ingest filename not specified")
	}
	cfg := *params.Ingest.File
	if params.Ingest.Type == api.FileLoopType {
		cfg.Loop = true
	}
	if cfg.Loop && cfg.Interval.Duration <= 0 {
		return nil, errors.New("looping over a file requires a positive interval")
	}
	flog.Infof("input file name = %s", cfg.Filename)

	return &ingestFile{
		params: cfg,
		replayer: replayer{
			interval: cfg.Interval.Duration,
			clock:    clk,
			exitChan: utils.ExitChannel(),
			metrics:  newMetrics(opMetrics, params.Name, params.Ingest.Type),
		},
	}, nil
}
