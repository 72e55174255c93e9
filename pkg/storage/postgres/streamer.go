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

package postgres

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/robotpm/pm-pipeline/pkg/dataset"
)

// ReadingsWriter is the part of Repository the Streamer needs.
type ReadingsWriter interface {
	InsertReadings(ctx context.Context, table string, ds *dataset.Dataset) error
}

// Streamer replays a dataset into a readings table in small chunks, pausing
// between chunks, so that consumers see the table grow as it would on a live robot.
type Streamer struct {
	Writer    ReadingsWriter
	Clock     clock.Clock
	ChunkSize int
	Interval  time.Duration
}

// NewStreamer returns a Streamer on the wall clock.
func NewStreamer(w ReadingsWriter, chunkSize int, interval time.Duration) *Streamer {
	return &Streamer{Writer: w, Clock: clock.New(), ChunkSize: chunkSize, Interval: interval}
}

// Stream writes ds into table. It returns the number of readings written.
func (s *Streamer) Stream(ctx context.Context, table string, ds *dataset.Dataset) (int, error) {
	chunk := s.ChunkSize
	if chunk <= 0 {
		chunk = 50
	}
	clk := s.Clock
	if clk == nil {
		clk = clock.New()
	}
	written := 0
	for from := 0; from < ds.Len(); from += chunk {
		to := min(from+chunk, ds.Len())
		if err := s.Writer.InsertReadings(ctx, table, ds.Slice(from, to)); err != nil {
			return written, err
		}
		written = to
		plog.Debugf("streamed %d/%d readings into %s", written, ds.Len(), table)
		if s.Interval <= 0 || to == ds.Len() {
			continue
		}
		select {
		case <-ctx.Done():
			return written, ctx.Err()
		case <-clk.After(s.Interval):
		}
	}
	return written, nil
}
