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

package test

import (
	"testing"

	"github.com/robotpm/pm-pipeline/pkg/config"
	"github.com/stretchr/testify/require"
)

func Test_InitConfig(t *testing.T) {
	viper, out := InitConfig(t, "")
	require.NotNil(t, viper)
	require.NotNil(t, out)
	require.Empty(t, out.Pipeline)

	_, out = InitConfig(t, `---
pipeline:
  - name: ingest
  - name: write
    follows: ingest
parameters:
  - name: ingest
    ingest:
      type: file
      file:
        filename: /tmp/readings.csv
        interval: 1s
  - name: write
    write:
      type: stdout
metricsSettings:
  port: 9102
`)
	require.Len(t, out.Pipeline, 2)
	require.Equal(t, "ingest", out.Pipeline[1].Follows)
	require.Equal(t, "/tmp/readings.csv", out.Parameters[0].Ingest.File.Filename)
	require.Equal(t, "1s", out.Parameters[0].Ingest.File.Interval.String())
	require.Equal(t, 9102, out.MetricsSettings.Port)
}

func Test_ReadingsCSV(t *testing.T) {
	csv := ReadingsCSV([]string{"a", "b"}, []float64{0, 1.5, 2}, []float64{1, -1, 0.25})
	require.Equal(t, "time_s,a,b\n0,1.5,2\n1,-1,0.25\n", csv)

	path := CreateTempFile(t, "r.csv", csv)
	require.FileExists(t, path)
}

func Test_DeserializeJSONToMap(t *testing.T) {
	m := DeserializeJSONToMap(t, `{"axis_name":"axis_1","duration_s":12}`)
	require.Equal(t, config.GenericMap{"axis_name": "axis_1", "duration_s": 12.0}, m)
}
