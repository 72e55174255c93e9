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
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/robotpm/pm-pipeline/pkg/api"
	"github.com/robotpm/pm-pipeline/pkg/dataset"
	"github.com/robotpm/pm-pipeline/pkg/model"
	"github.com/robotpm/pm-pipeline/pkg/storage/postgres"
	"github.com/robotpm/pm-pipeline/pkg/trainer"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	defaultTrainCSV     = "data/training/RMBR4-2_export_test.csv"
	defaultArtifactsDir = "outputs/models"
	defaultRawTable     = "robot_currents_raw"
)

type trainOptions struct {
	trainCSV   string
	fromDB     bool
	seedDB     bool
	rawTable   string
	limit      int
	artifacts  string
	rediscover bool

	minQuantile float64
	maxQuantile float64
	minDuration float64
	discovery   model.DiscoveryOptions
}

func newTrainCmd() *cobra.Command {
	return (&trainOptions{}).command()
}

func (o *trainOptions) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit the scaler, the per-axis baselines and the alert thresholds",
		RunE: func(cmd *cobra.Command, _ []string) error {
			o.setDiscovery(cmd)
			return runTrain(cmd.Context(), o)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.trainCSV, "train-csv", defaultTrainCSV, "training readings CSV")
	f.BoolVar(&o.fromDB, "from-db", false, "read the training readings from PostgreSQL instead of the CSV")
	f.BoolVar(&o.seedDB, "seed-db", false, "insert the training CSV into the raw readings table first")
	f.StringVar(&o.rawTable, "raw-table", envOr("RAW_TABLE", defaultRawTable), "raw readings table")
	f.IntVar(&o.limit, "limit", 0, "maximum readings read from PostgreSQL (default: all)")
	f.StringVar(&o.artifacts, "artifacts", defaultArtifactsDir, "artifacts directory")
	f.BoolVar(&o.rediscover, "rediscover", false, "discover thresholds again even when a thresholds file exists")
	f.Float64Var(&o.minQuantile, "min-quantile", model.DefaultMinQuantile, "quantile of the pooled deviations used as MinC")
	f.Float64Var(&o.maxQuantile, "max-quantile", model.DefaultMaxQuantile, "quantile of the pooled deviations used as MaxC")
	f.Float64Var(&o.minDuration, "min-duration", model.DefaultMinDuration, "minimum sustained duration T")
	return cmd
}

func (o *trainOptions) setDiscovery(cmd *cobra.Command) {
	o.discovery = model.DiscoveryOptions{
		MinQuantile: changedFloat(cmd, "min-quantile", &o.minQuantile),
		MaxQuantile: changedFloat(cmd, "max-quantile", &o.maxQuantile),
		MinDuration: changedFloat(cmd, "min-duration", &o.minDuration),
	}
}

func runTrain(ctx context.Context, o *trainOptions) error {
	ds, err := loadTrainingSet(ctx, o)
	if err != nil {
		return err
	}

	trainOpts := trainer.Options{Discovery: o.discovery}
	if !o.rediscover && model.ThresholdsExist(o.artifacts) {
		existing, err := model.LoadArtifacts(o.artifacts)
		if err != nil {
			return err
		}
		trainOpts.Existing = &existing.Thresholds
	}

	artifacts, err := trainer.Train(ds, trainOpts)
	if err != nil {
		return err
	}
	if err := model.SaveArtifacts(o.artifacts, artifacts); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"readings": ds.Len(),
		"minC":     artifacts.Thresholds.MinC,
		"maxC":     artifacts.Thresholds.MaxC,
		"t":        artifacts.Thresholds.T,
	}).Infof("artifacts written to %s", o.artifacts)
	return nil
}

func loadTrainingSet(ctx context.Context, o *trainOptions) (*dataset.Dataset, error) {
	if !o.fromDB && !o.seedDB {
		return dataset.ReadCSVFile(o.trainCSV, dataset.DefaultTimeColumn, dataset.DefaultChannels())
	}

	repo, err := postgres.Open(api.PostgresConnection{}.WithEnvDefaults())
	if err != nil {
		return nil, err
	}
	defer repo.Close()

	if o.seedDB {
		ds, err := dataset.ReadCSVFile(o.trainCSV, dataset.DefaultTimeColumn, dataset.DefaultChannels())
		if err != nil {
			return nil, err
		}
		if err := seedReadings(ctx, repo, o.rawTable, ds); err != nil {
			return nil, err
		}
		if !o.fromDB {
			return ds, nil
		}
	}

	ds, err := repo.ReadReadings(ctx, o.rawTable, dataset.DefaultTimeColumn, dataset.DefaultChannels(), o.limit)
	if err != nil {
		return nil, err
	}
	if ds.Len() == 0 {
		return nil, errors.Errorf("table %s holds no readings", o.rawTable)
	}
	return ds, nil
}

type readingsTable interface {
	EnsureReadingsTable(ctx context.Context, table, timeColumn string, channels []string) error
	InsertReadings(ctx context.Context, table string, ds *dataset.Dataset) error
}

func seedReadings(ctx context.Context, repo readingsTable, table string, ds *dataset.Dataset) error {
	if err := repo.EnsureReadingsTable(ctx, table, ds.TimeColumn, ds.Channels); err != nil {
		return err
	}
	if err := repo.InsertReadings(ctx, table, ds); err != nil {
		return err
	}
	log.Infof("seeded %d readings into %s", ds.Len(), table)
	return nil
}

// changedFloat returns v when the flag was set on the command line, nil otherwise.
func changedFloat(cmd *cobra.Command, name string, v *float64) *float64 {
	if cmd.Flags().Changed(name) {
		return v
	}
	return nil
}

func envOr(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}
