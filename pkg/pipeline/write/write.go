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

package write

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robotpm/pm-pipeline/pkg/config"
	"github.com/robotpm/pm-pipeline/pkg/operational"
	log "github.com/sirupsen/logrus"
)

// Writer is the last stage of a pipeline. Writers that buffer records also implement io.Closer,
// which is called once the pipeline input is exhausted.
type Writer interface {
	Write(in config.GenericMap)
}

type writeNone struct{}

// Write writes entries
func (t *writeNone) Write(_ config.GenericMap) {}

// NewWriteNone create a new write
func NewWriteNone() (Writer, error) {
	log.Debugf("entering NewWriteNone")
	return &writeNone{}, nil
}

var (
	recordsWritten = operational.DefineMetric(
		"records_written",
		"Number of records written by a write stage",
		operational.TypeCounter,
		"stage", "type",
	)
	errorsCounter = operational.DefineMetric(
		"write_errors",
		"Counter of errors in write stages",
		operational.TypeCounter,
		"stage", "type", "code",
	)
)

type metrics struct {
	stage     string
	stageType string
	written   prometheus.Counter
	errors    *prometheus.CounterVec
}

func newMetrics(opMetrics *operational.Metrics, stage, stageType string) *metrics {
	return &metrics{
		stage:     stage,
		stageType: stageType,
		written:   opMetrics.NewCounter(&recordsWritten, stage, stageType),
		errors:    opMetrics.NewCounterVec(&errorsCounter),
	}
}

// `code` must not carry dynamic values with high cardinality
func (m *metrics) error(code string) {
	m.errors.WithLabelValues(m.stage, m.stageType, code).Inc()
}
