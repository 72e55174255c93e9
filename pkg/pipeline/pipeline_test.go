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

package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/robotpm/pm-pipeline/pkg/config"
	"github.com/robotpm/pm-pipeline/pkg/model"
	"github.com/robotpm/pm-pipeline/pkg/pipeline/write"
	"github.com/robotpm/pm-pipeline/pkg/test"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// raw readings of axis_1 that normalize to 0,1,1,1,0,2,2,2,2,0 with mean 2 and std 0.5
var rawAxis1 = []float64{2, 2.5, 2.5, 2.5, 2, 3, 3, 3, 3, 2}

const configTemplate = `---
log-level: debug
pipeline:
  - name: ingest1
  - name: normalize1
    follows: ingest1
  - name: residual1
    follows: normalize1
  - name: events1
    follows: residual1
  - name: writer1
    follows: events1
parameters:
  - name: ingest1
    ingest:
      type: file
      file:
        filename: %s
        channels: [axis_1]
  - name: normalize1
    transform:
      type: normalize
      normalize:
        artifactsDir: %[2]s
  - name: residual1
    transform:
      type: residual
      residual:
        artifactsDir: %[2]s
  - name: events1
    extract:
      type: events
      events:
        artifactsDir: %[2]s
  - name: writer1
    write:
      type: none
`

func scoringConfig(tb testing.TB) string {
	dir := tb.TempDir()
	artifacts := filepath.Join(dir, "artifacts")
	require.NoError(tb, model.SaveArtifacts(artifacts, &model.Artifacts{
		Scalers:    model.ScalerStats{"axis_1": {Min: 2, Max: 3, Mean: 2, Std: 0.5}},
		Models:     model.Models{"axis_1": {Intercept: 0, Slope: 0}},
		Thresholds: model.Thresholds{MinC: 1, MaxC: 2, T: 2, Method: model.DefaultMethod},
	}))
	rows := make([][]float64, len(rawAxis1))
	for i, v := range rawAxis1 {
		rows[i] = []float64{float64(i), v}
	}
	file := filepath.Join(dir, "readings.csv")
	require.NoError(tb, os.WriteFile(file, []byte(test.ReadingsCSV([]string{"axis_1"}, rows...)), 0o644))
	return fmt.Sprintf(configTemplate, file, artifacts)
}

func Test_ScoringPipeline(t *testing.T) {
	_, cfg := test.InitConfig(t, scoringConfig(t))
	mainPipeline, err := NewPipeline(cfg)
	require.NoError(t, err)

	fake := write.NewWriteFake()
	mainPipeline.pipelineEntryMap["writer1"].Writer = fake

	done := make(chan struct{})
	go func() {
		mainPipeline.Run()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		require.Fail(t, "timeout waiting for the pipeline to end")
	}

	require.True(t, fake.Closed())
	require.Equal(t, []config.GenericMap{{
		"axis_name": "axis_1", "event_type": "ALERT", "start_time": 1.0, "end_time": 3.0,
		"duration_s": 2.0, "threshold": 1.0, "max_deviation": 1.0,
	}, {
		"axis_name": "axis_1", "event_type": "ERROR", "start_time": 5.0, "end_time": 8.0,
		"duration_s": 3.0, "threshold": 2.0, "max_deviation": 2.0,
	}}, fake.AllRecords())
	require.False(t, mainPipeline.IsRunning)

	exposed := test.ReadExposedMetrics(t)
	require.Contains(t, exposed, `pm_pipeline_records_processed{stage="events1"}`)
	require.Contains(t, exposed, `pm_pipeline_stage_duration_ms_bucket{stage="residual1"`)
}

func BenchmarkPipeline(b *testing.B) {
	logrus.StandardLogger().SetLevel(logrus.ErrorLevel)
	t := &testing.T{}
	_, cfg := test.InitConfig(t, scoringConfig(b))
	if t.Failed() {
		b.Fatalf("unexpected error loading config")
	}
	for n := 0; n < b.N; n++ {
		b.StopTimer()
		p, err := NewPipeline(cfg)
		if err != nil {
			b.Fatalf("unexpected error %s", err)
		}
		b.StartTimer()
		p.Run()
	}
}
