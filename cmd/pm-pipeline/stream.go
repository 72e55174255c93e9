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
	"os/signal"
	"syscall"
	"time"

	"github.com/robotpm/pm-pipeline/pkg/api"
	"github.com/robotpm/pm-pipeline/pkg/dataset"
	"github.com/robotpm/pm-pipeline/pkg/storage/postgres"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	defaultStreamTable = "robot_currents_stream_test"
	defaultChunkSize   = 80
)

type streamOptions struct {
	input     string
	table     string
	chunkSize int
	interval  time.Duration
	ensure    bool
}

func newStreamCmd() *cobra.Command {
	o := streamOptions{}
	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Stream a readings CSV into a PostgreSQL table in paced chunks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			repo, err := postgres.Open(api.PostgresConnection{}.WithEnvDefaults())
			if err != nil {
				return err
			}
			defer repo.Close()
			return runStream(ctx, &o, repo)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.input, "input", defaultSyntheticCSV, "readings CSV to stream")
	f.StringVar(&o.table, "table", envOr("STREAM_TABLE", defaultStreamTable), "destination readings table")
	f.IntVar(&o.chunkSize, "chunk-size", defaultChunkSize, "readings inserted per chunk")
	f.DurationVar(&o.interval, "interval", time.Second, "pause between chunks")
	f.BoolVar(&o.ensure, "ensure", true, "create the table when missing")
	return cmd
}

func runStream(ctx context.Context, o *streamOptions, repo readingsTable) error {
	ds, err := dataset.ReadCSVFile(o.input, dataset.DefaultTimeColumn, dataset.DefaultChannels())
	if err != nil {
		return err
	}
	if o.ensure {
		if err := repo.EnsureReadingsTable(ctx, o.table, ds.TimeColumn, ds.Channels); err != nil {
			return err
		}
	}
	streamer := postgres.NewStreamer(repo, o.chunkSize, o.interval)
	n, err := streamer.Stream(ctx, o.table, ds)
	log.Infof("streamed %d/%d readings into %s", n, ds.Len(), o.table)
	return err
}
