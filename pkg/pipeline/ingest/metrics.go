/*
 * Copyright (C) 2022 IBM, Inc.
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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robotpm/pm-pipeline/pkg/config"
	"github.com/robotpm/pm-pipeline/pkg/operational"
)

var (
	recordsIngested = operational.DefineMetric(
		"ingest_records",
		"Number of readings records sent down the pipeline",
		operational.TypeCounter,
		"stage",
	)
	errorsCounter = operational.DefineMetric(
		"ingest_errors",
		"Counter of errors during ingestion",
		operational.TypeCounter,
		"stage", "type", "code",
	)
)

type metrics struct {
	*operational.Metrics
	stage     string
	stageType string
	records   prometheus.Counter
	errors    *prometheus.CounterVec
}

func newMetrics(opMetrics *operational.Metrics, stage, stageType string) *metrics {
	return &metrics{
		Metrics:   opMetrics,
		stage:     stage,
		stageType: stageType,
		records:   opMetrics.NewCounter(&recordsIngested, stage),
		errors:    opMetrics.NewCounterVec(&errorsCounter),
	}
}

func (m *metrics) createOutQueueLen(out chan<- config.GenericMap) {
	m.CreateOutQueueSizeGauge(m.stage, func() int { return len(out) })
}

// Increment error counter
// `code` should reflect any error code relative to this type. It can be a short string message,
// but make sure to not include any dynamic value with high cardinality
func (m *metrics) error(code string) {
	m.errors.WithLabelValues(m.stage, m.stageType, code).Inc()
}
