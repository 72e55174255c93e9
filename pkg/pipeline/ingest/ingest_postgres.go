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

package ingest

import (
	"context"
	"errors"

	"github.com/benbjohnson/clock"
	"github.com/robotpm/pm-pipeline/pkg/api"
	"github.com/robotpm/pm-pipeline/pkg/config"
	"github.com/robotpm/pm-pipeline/pkg/dataset"
	"github.com/robotpm/pm-pipeline/pkg/operational"
	"github.com/robotpm/pm-pipeline/pkg/pipeline/utils"
	"github.com/robotpm/pm-pipeline/pkg/storage/postgres"
	log "github.com/sirupsen/logrus"
)

var plog = log.WithField("component", "ingest.Postgres")

type readingsReader interface {
	ReadReadings(ctx context.Context, table, timeColumn string, channels []string, limit int) (*dataset.Dataset, error)
	Close() error
}

type ingestPostgres struct {
	replayer
	params api.IngestPostgres
	repo   readingsReader
}

// Ingest reads a readings table in id order and sends its rows down the pipeline
func (ing *ingestPostgres) Ingest(out chan<- config.GenericMap) {
	ing.metrics.createOutQueueLen(out)
	defer func() {
		if err := ing.repo.Close(); err != nil {
			plog.WithError(err).Warn("can't close database connection")
		}
	}()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-ing.exitChan:
			cancel()
		case <-ctx.Done():
		}
	}()
	ds, err := ing.repo.ReadReadings(ctx, ing.params.Table, ing.params.TimeColumn, ing.params.Channels, ing.params.Limit)
	if err != nil {
		plog.WithError(err).Errorf("can't read table %s", ing.params.Table)
		ing.metrics.error("CannotReadTable")
		return
	}
	plog.Infof("Ingesting %d readings from %s", ds.Len(), ing.params.Table)
	ing.replay(ds, 0, out)
}

// NewIngestPostgres create a new ingester reading a PostgreSQL readings table
func NewIngestPostgres(opMetrics *operational.Metrics, params config.StageParam) (Ingester, error) {
	plog.Debugf("entering NewIngestPostgres")
	if params.Ingest == nil || params.Ingest.Postgres == nil {
		return nil, errors.New("missing postgres ingest configuration")
	}
	cfg := *params.Ingest.Postgres
	if err := postgres.ValidateIdentifier(cfg.Table); err != nil {
		return nil, err
	}
	repo, err := postgres.Open(cfg.Connection.WithEnvDefaults())
	if err != nil {
		return nil, err
	}
	return newIngestPostgres(opMetrics, params, repo), nil
}

func newIngestPostgres(opMetrics *operational.Metrics, params config.StageParam, repo readingsReader) *ingestPostgres {
	return &ingestPostgres{
		params: *params.Ingest.Postgres,
		repo:   repo,
		replayer: replayer{
			clock:    clock.New(),
			exitChan: utils.ExitChannel(),
			metrics:  newMetrics(opMetrics, params.Name, params.Ingest.Type),
		},
	}
}
