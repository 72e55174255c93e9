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
	"time"

	"github.com/benbjohnson/clock"
	"github.com/robotpm/pm-pipeline/pkg/config"
	"github.com/robotpm/pm-pipeline/pkg/dataset"
)

// replayer sends the readings of a dataset in order, optionally pacing them.
type replayer struct {
	interval time.Duration
	clock    clock.Clock
	exitChan <-chan struct{}
	metrics  *metrics
}

// replay sends the readings with shift added to their time. It returns false
// when the pipeline is exiting.
func (r *replayer) replay(ds *dataset.Dataset, shift float64, out chan<- config.GenericMap) bool {
	for i := 0; i < ds.Len(); i++ {
		if i > 0 && r.interval > 0 {
			select {
			case <-r.exitChan:
				return false
			case <-r.clock.After(r.interval):
			}
		}
		select {
		case <-r.exitChan:
			return false
		case out <- shifted(ds, i, shift):
			r.metrics.records.Inc()
		}
	}
	return true
}

func shifted(ds *dataset.Dataset, i int, shift float64) config.GenericMap {
	record := config.GenericMap(ds.ToRecord(i))
	if shift != 0 {
		record[ds.TimeColumn] = ds.Readings[i].Time + shift
	}
	return record
}
