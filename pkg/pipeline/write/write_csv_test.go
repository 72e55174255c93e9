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

package write

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/robotpm/pm-pipeline/pkg/api"
	"github.com/robotpm/pm-pipeline/pkg/config"
	"github.com/robotpm/pm-pipeline/pkg/detect"
	"github.com/robotpm/pm-pipeline/pkg/operational"
	"github.com/robotpm/pm-pipeline/pkg/pipeline/utils"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV_Events(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.csv")
	w, err := NewWriteCSV(operational.NewMetrics(nil), config.StageParam{
		Name:  "events-out",
		Write: &config.Write{Type: api.CSVType, CSV: &api.WriteCSV{Filename: path}},
	})
	require.NoError(t, err)

	w.Write(utils.EventToRecord(detect.Event{
		AxisName:     "axis_2",
		EventType:    detect.EventError,
		StartTime:    10,
		EndTime:      12.5,
		DurationS:    2.5,
		Threshold:    3.25,
		MaxDeviation: 4,
	}))
	require.NoError(t, w.(*writeCSV).Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t,
		"axis_name,event_type,start_time,end_time,duration_s,threshold,max_deviation\n"+
			"axis_2,ERROR,10,12.5,2.5,3.25,4\n",
		string(content))
}

func TestWriteCSV_Columns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readings.csv")
	w, err := NewWriteCSV(operational.NewMetrics(nil), config.StageParam{
		Name:  "readings-out",
		Write: &config.Write{Type: api.CSVType, CSV: &api.WriteCSV{Filename: path, Columns: []string{"time_s", "axis_1_residual", "note"}}},
	})
	require.NoError(t, err)

	w.Write(config.GenericMap{"time_s": 0.5, "axis_1_residual": -0.125, "ignored": 1})
	w.Write(config.GenericMap{"time_s": 1.0, "note": "gap"})
	require.NoError(t, w.(*writeCSV).Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "time_s,axis_1_residual,note\n0.5,-0.125,\n1,,gap\n", string(content))
}

func TestWriteCSV_MissingFilename(t *testing.T) {
	_, err := NewWriteCSV(operational.NewMetrics(nil), config.StageParam{
		Write: &config.Write{Type: api.CSVType, CSV: &api.WriteCSV{}},
	})
	require.Error(t, err)
}
