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

package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/robotpm/pm-pipeline/pkg/api"
	"github.com/robotpm/pm-pipeline/pkg/config"
	"github.com/robotpm/pm-pipeline/pkg/dataset"
	"github.com/robotpm/pm-pipeline/pkg/detect"
	"github.com/robotpm/pm-pipeline/pkg/model"
	"github.com/robotpm/pm-pipeline/pkg/operational"
	"github.com/robotpm/pm-pipeline/pkg/pipeline/utils"
	"github.com/robotpm/pm-pipeline/pkg/pipeline/write"
	"github.com/robotpm/pm-pipeline/pkg/trainer"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	defaultScoreInput  = "data/synthetic_test/synthetic_test.csv"
	defaultEventsCSV   = "outputs/logs/events.csv"
	defaultEventsTable = "pm_events"
	previewedEvents    = 10
)

type scoreOptions struct {
	input       string
	artifacts   string
	events      string
	dbEvents    bool
	eventsTable string
	preview     int
	parallel    bool

	minC, maxC, t float64
	overrides     ruleOverrides
}

// ruleOverrides hold the thresholds given explicitly on the command line.
type ruleOverrides struct {
	minC, maxC, t *float64
}

func newScoreCmd() *cobra.Command {
	return (&scoreOptions{}).command()
}

func (o *scoreOptions) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a readings CSV with trained artifacts and write the detected events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			o.setOverrides(cmd)
			_, err := runScore(o, cmd.OutOrStdout())
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.input, "input", defaultScoreInput, "readings CSV to score")
	f.StringVar(&o.artifacts, "artifacts", defaultArtifactsDir, "artifacts directory")
	f.StringVar(&o.events, "events", defaultEventsCSV, "events CSV output")
	f.BoolVar(&o.dbEvents, "db-events", false, "also insert the events into PostgreSQL")
	f.StringVar(&o.eventsTable, "events-table", envOr("EVENTS_TABLE", defaultEventsTable), "events table")
	f.IntVar(&o.preview, "preview", previewedEvents, "number of events printed on standard output")
	f.BoolVar(&o.parallel, "parallel", false, "detect events on all axes concurrently")
	f.Float64Var(&o.minC, "min-c", 0, "override the MinC threshold")
	f.Float64Var(&o.maxC, "max-c", 0, "override the MaxC threshold")
	f.Float64Var(&o.t, "t", 0, "override the minimum duration T")
	return cmd
}

func (o *scoreOptions) setOverrides(cmd *cobra.Command) {
	o.overrides = ruleOverrides{
		minC: changedFloat(cmd, "min-c", &o.minC),
		maxC: changedFloat(cmd, "max-c", &o.maxC),
		t:    changedFloat(cmd, "t", &o.t),
	}
}

// rules returns the thresholds to apply: the artifact ones with the overrides set on the command line.
func (o *scoreOptions) rules(artifacts *model.Artifacts) *detect.RuleConfig {
	ov := o.overrides
	if ov.minC == nil && ov.maxC == nil && ov.t == nil {
		return nil
	}
	rules := artifacts.Thresholds.Rules()
	if ov.minC != nil {
		rules.MinC = *ov.minC
	}
	if ov.maxC != nil {
		rules.MaxC = *ov.maxC
	}
	if ov.t != nil {
		rules.T = *ov.t
	}
	return &rules
}

func runScore(o *scoreOptions, stdout io.Writer) ([]detect.Event, error) {
	artifacts, err := model.LoadArtifacts(o.artifacts)
	if err != nil {
		return nil, err
	}
	ds, err := dataset.ReadCSVFile(o.input, dataset.DefaultTimeColumn, dataset.DefaultChannels())
	if err != nil {
		return nil, err
	}
	scored, err := trainer.Score(ds, artifacts, trainer.ScoreOptions{
		Options: detect.Options{Parallel: o.parallel},
		Rules:   o.rules(artifacts),
	})
	if err != nil {
		return nil, err
	}

	opMetrics := operational.NewMetricsWithRegisterer(&config.MetricsSettings{}, promclient.NewRegistry())
	if err := os.MkdirAll(filepath.Dir(o.events), 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating directory for %s", o.events)
	}
	sinks := []config.StageParam{{
		Name:  "events-csv",
		Write: &config.Write{Type: api.CSVType, CSV: &api.WriteCSV{Filename: o.events}},
	}}
	if o.dbEvents {
		sinks = append(sinks, config.StageParam{
			Name: "events-db",
			Write: &config.Write{Type: api.PostgresType, Postgres: &api.WritePostgres{
				Table:   o.eventsTable,
				Records: api.PostgresRecordsName("Events"),
				Ensure:  true,
			}},
		})
	}
	for i := range sinks {
		if err := writeEvents(opMetrics, sinks[i], scored.Events); err != nil {
			return nil, err
		}
	}

	log.Infof("scored %d readings: %d events written to %s", ds.Len(), len(scored.Events), o.events)
	if err := previewEvents(opMetrics, stdout, scored.Events, o.preview); err != nil {
		return nil, err
	}
	return scored.Events, nil
}

func newEventsWriter(opMetrics *operational.Metrics, params config.StageParam) (write.Writer, error) {
	switch params.Write.Type {
	case api.CSVType:
		return write.NewWriteCSV(opMetrics, params)
	case api.PostgresType:
		return write.NewWritePostgres(opMetrics, params)
	default:
		return nil, errors.Errorf("unsupported events sink %q", params.Write.Type)
	}
}

func writeEvents(opMetrics *operational.Metrics, params config.StageParam, events []detect.Event) error {
	w, err := newEventsWriter(opMetrics, params)
	if err != nil {
		return errors.Wrapf(err, "stage %s", params.Name)
	}
	for _, e := range events {
		w.Write(utils.EventToRecord(e))
	}
	if closer, ok := w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func previewEvents(opMetrics *operational.Metrics, stdout io.Writer, events []detect.Event, n int) error {
	if n <= 0 || len(events) == 0 {
		return nil
	}
	w, err := write.NewWriteStdoutTo(opMetrics, config.StageParam{
		Name:  "events-preview",
		Write: &config.Write{Type: api.StdoutType, Stdout: &api.WriteStdout{Format: api.StdoutFormatName("Printf")}},
	}, stdout)
	if err != nil {
		return err
	}
	for _, e := range events[:min(n, len(events))] {
		w.Write(utils.EventToRecord(e))
	}
	return nil
}
