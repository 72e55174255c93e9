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
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/robotpm/pm-pipeline/pkg/api"
	"github.com/robotpm/pm-pipeline/pkg/dataset"
	"github.com/robotpm/pm-pipeline/pkg/storage/postgres"
	"github.com/robotpm/pm-pipeline/pkg/synthetic"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	defaultSyntheticCSV = "data/synthetic_test/synthetic_test.csv"
	defaultVariantsDir  = "data/training"
	defaultMetadataFile = "data/processed/robot_generation_metadata.json"
	variantSeed         = 42
)

type generateOptions struct {
	trainCSV    string
	output      string
	rows        int
	seed        int64
	noAnomalies bool

	robotVariants bool
	variantsDir   string
	metadata      string
	seedDB        bool
}

func newGenerateCmd() *cobra.Command {
	o := generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate synthetic test readings with injected anomalies",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd.Context(), &o)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.trainCSV, "train-csv", defaultTrainCSV, "training readings CSV the synthetic data is shaped after")
	f.StringVar(&o.output, "output", defaultSyntheticCSV, "synthetic readings CSV output")
	f.IntVar(&o.rows, "rows", 3000, "number of synthetic readings")
	f.Int64Var(&o.seed, "seed", 7, "random seed")
	f.BoolVar(&o.noAnomalies, "no-anomalies", false, "do not inject the default anomalies")
	f.BoolVar(&o.robotVariants, "robot-variants", false, "also write two simulated robots derived from the training readings")
	f.StringVar(&o.variantsDir, "variants-dir", defaultVariantsDir, "output directory of the robot variants")
	f.StringVar(&o.metadata, "metadata", defaultMetadataFile, "robot variants metadata JSON output")
	f.BoolVar(&o.seedDB, "seed-db", false, "insert the robot variants into their PostgreSQL tables")
	return cmd
}

func runGenerate(ctx context.Context, o *generateOptions) error {
	train, err := dataset.ReadCSVFile(o.trainCSV, dataset.DefaultTimeColumn, dataset.DefaultChannels())
	if err != nil {
		return err
	}

	ds, err := synthetic.Generate(train, synthetic.Options{Rows: o.rows, Seed: o.seed})
	if err != nil {
		return err
	}
	if !o.noAnomalies {
		for _, a := range synthetic.DefaultAnomalies(ds) {
			if ds, err = synthetic.InjectAnomaly(ds, a); err != nil {
				return err
			}
			log.Infof("injected %+v", a)
		}
	}
	if err := writeDataset(o.output, ds); err != nil {
		return err
	}
	log.Infof("wrote %d synthetic readings to %s", ds.Len(), o.output)

	if !o.robotVariants {
		return nil
	}
	return generateRobotVariants(ctx, o, train)
}

type robotVariant struct {
	name  string
	file  string
	table string
	opts  synthetic.VariantOptions
}

func robotVariants() []robotVariant {
	return []robotVariant{
		{name: "RMBR4-1", file: "RMBR4-1_export_artificial.csv", table: envOr("ROBOT1_TABLE", "robot_currents_raw_r1"), opts: synthetic.RobotVariant1},
		{name: "RMBR4-3", file: "RMBR4-3_export_artificial.csv", table: envOr("ROBOT3_TABLE", "robot_currents_raw_r3"), opts: synthetic.RobotVariant3},
	}
}

func generateRobotVariants(ctx context.Context, o *generateOptions, train *dataset.Dataset) error {
	base, err := synthetic.RemovePickPoints(train)
	if err != nil {
		return err
	}
	rng := synthetic.NewRand(variantSeed)
	variants := robotVariants()
	generated := make([]*dataset.Dataset, len(variants))
	meta := make(map[string]synthetic.VariantMeta, len(variants))
	for i, v := range variants {
		ds, m := synthetic.MakeRobotVariant(base, v.opts, rng)
		path := filepath.Join(o.variantsDir, v.file)
		if err := writeDataset(path, ds); err != nil {
			return err
		}
		log.Infof("wrote robot %s to %s", v.name, path)
		generated[i] = ds
		meta[v.name] = m
	}

	doc, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(meta, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshalling robot metadata")
	}
	if err := os.MkdirAll(filepath.Dir(o.metadata), 0o755); err != nil {
		return errors.Wrapf(err, "creating directory for %s", o.metadata)
	}
	if err := os.WriteFile(o.metadata, doc, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", o.metadata)
	}

	if !o.seedDB {
		return nil
	}
	repo, err := postgres.Open(api.PostgresConnection{}.WithEnvDefaults())
	if err != nil {
		return err
	}
	defer repo.Close()
	for i, v := range variants {
		if err := seedReadings(ctx, repo, v.table, generated[i]); err != nil {
			return err
		}
	}
	return nil
}

func writeDataset(path string, ds *dataset.Dataset) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "creating directory for %s", path)
	}
	return dataset.WriteCSVFile(path, ds)
}
