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

package write

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/robotpm/pm-pipeline/pkg/api"
	"github.com/robotpm/pm-pipeline/pkg/config"
	"github.com/robotpm/pm-pipeline/pkg/dataset"
	"github.com/robotpm/pm-pipeline/pkg/detect"
	"github.com/robotpm/pm-pipeline/pkg/operational"
	"github.com/robotpm/pm-pipeline/pkg/pipeline/utils"
	"github.com/robotpm/pm-pipeline/pkg/storage/postgres"
	log "github.com/sirupsen/logrus"
)

var plog = log.WithField("component", "write.Postgres")

const defaultPostgresBatchSize = 100

type tableWriter interface {
	EnsureReadingsTable(ctx context.Context, table, timeColumn string, channels []string) error
	EnsureEventsTable(ctx context.Context, table string) error
	InsertReadings(ctx context.Context, table string, ds *dataset.Dataset) error
	InsertEvents(ctx context.Context, table string, events []detect.Event) error
	Close() error
}

type writePostgres struct {
	params  api.WritePostgres
	repo    tableWriter
	pending []config.GenericMap
	mutex   sync.Mutex
	metrics *metrics
	// first insert failure, reported by Close
	failure error
}

// Write buffers the record and inserts the buffer once it reaches the batch size
func (w *writePostgres) Write(in config.GenericMap) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.pending = append(w.pending, in)
	if len(w.pending) >= w.params.BatchSize {
		w.flush()
	}
}

// Close inserts the remaining records and closes the connection pool
func (w *writePostgres) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.flush()
	closeErr := w.repo.Close()
	if w.failure != nil {
		return w.failure
	}
	return closeErr
}

// flush must be called with the mutex held. A failed batch is dropped and counted,
// and the first failure is kept for Close.
func (w *writePostgres) flush() {
	if len(w.pending) == 0 {
		return
	}
	batch := w.pending
	w.pending = nil
	ctx := context.Background()
	var n int
	var err error
	if w.params.Records == api.PostgresRecordsName("Readings") {
		n, err = w.insertReadings(ctx, batch)
	} else {
		n, err = w.insertEvents(ctx, batch)
	}
	if err != nil {
		plog.WithError(err).Errorf("can't insert %d records into %s", len(batch), w.params.Table)
		w.metrics.error("CannotInsert")
		if w.failure == nil {
			w.failure = fmt.Errorf("inserting %d records into %s: %w", len(batch), w.params.Table, err)
		}
		return
	}
	w.metrics.written.Add(float64(n))
}

func (w *writePostgres) insertEvents(ctx context.Context, batch []config.GenericMap) (int, error) {
	events := make([]detect.Event, 0, len(batch))
	for _, record := range batch {
		if !utils.IsEvent(record) {
			w.metrics.error("NotAnEvent")
			continue
		}
		e, err := utils.RecordToEvent(record)
		if err != nil {
			plog.WithError(err).Warn("skipping malformed event")
			w.metrics.error("NotAnEvent")
			continue
		}
		events = append(events, e)
	}
	if len(events) == 0 {
		return 0, nil
	}
	return len(events), w.repo.InsertEvents(ctx, w.params.Table, events)
}

func (w *writePostgres) insertReadings(ctx context.Context, batch []config.GenericMap) (int, error) {
	records := make([]map[string]interface{}, len(batch))
	for i := range batch {
		records[i] = batch[i]
	}
	ds, err := dataset.FromRecords(records, w.params.TimeColumn, w.params.Channels)
	if err != nil {
		return 0, err
	}
	return ds.Len(), w.repo.InsertReadings(ctx, w.params.Table, ds)
}

// NewWritePostgres creates a writer inserting events, or raw readings, into a PostgreSQL table
func NewWritePostgres(opMetrics *operational.Metrics, params config.StageParam) (Writer, error) {
	plog.Debugf("entering NewWritePostgres")
	if params.Write == nil || params.Write.Postgres == nil {
		return nil, errors.New("missing postgres write configuration")
	}
	if err := postgres.ValidateIdentifier(params.Write.Postgres.Table); err != nil {
		return nil, err
	}
	repo, err := postgres.Open(params.Write.Postgres.Connection.WithEnvDefaults())
	if err != nil {
		return nil, err
	}
	w, err := newWritePostgres(opMetrics, params, repo)
	if err != nil {
		_ = repo.Close()
		return nil, err
	}
	return w, nil
}

func newWritePostgres(opMetrics *operational.Metrics, params config.StageParam, repo tableWriter) (*writePostgres, error) {
	cfg := *params.Write.Postgres
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultPostgresBatchSize
	}
	if cfg.Records == "" {
		cfg.Records = api.PostgresRecordsName("Events")
	}
	ds := dataset.New(cfg.TimeColumn, cfg.Channels)
	cfg.TimeColumn, cfg.Channels = ds.TimeColumn, ds.Channels

	var ensure func(ctx context.Context) error
	switch cfg.Records {
	case api.PostgresRecordsName("Events"):
		ensure = func(ctx context.Context) error { return repo.EnsureEventsTable(ctx, cfg.Table) }
	case api.PostgresRecordsName("Readings"):
		ensure = func(ctx context.Context) error {
			return repo.EnsureReadingsTable(ctx, cfg.Table, cfg.TimeColumn, cfg.Channels)
		}
	default:
		return nil, fmt.Errorf("unknown postgres records kind: %s", cfg.Records)
	}
	if cfg.Ensure {
		if err := ensure(context.Background()); err != nil {
			return nil, err
		}
	}
	return &writePostgres{
		params:  cfg,
		repo:    repo,
		metrics: newMetrics(opMetrics, params.Name, api.PostgresType),
	}, nil
}
