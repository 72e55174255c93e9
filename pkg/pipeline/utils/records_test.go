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

package utils

import (
	"testing"

	"github.com/robotpm/pm-pipeline/pkg/config"
	"github.com/robotpm/pm-pipeline/pkg/detect"
	"github.com/stretchr/testify/require"
)

func TestEventRecords(t *testing.T) {
	e := detect.Event{
		AxisName:     "axis_5",
		EventType:    detect.EventError,
		StartTime:    1200,
		EndTime:      1230,
		DurationS:    30,
		Threshold:    1.25,
		MaxDeviation: 4.5,
	}
	rec := EventToRecord(e)
	require.True(t, IsEvent(rec))
	require.Len(t, rec, len(EventFields))
	for _, f := range EventFields {
		require.Contains(t, rec, f)
	}

	back, err := RecordToEvent(rec)
	require.NoError(t, err)
	require.Equal(t, e, back)

	// records read back from JSON or CSV carry other numeric types
	back, err = RecordToEvent(config.GenericMap{
		"axis_name": "axis_1", "event_type": "ALERT", "start_time": 3, "end_time": "13.5",
		"duration_s": int64(10), "threshold": 0.5, "max_deviation": float32(0.75), "extra": true,
	})
	require.NoError(t, err)
	require.Equal(t, detect.Event{AxisName: "axis_1", EventType: detect.EventAlert, StartTime: 3, EndTime: 13.5,
		DurationS: 10, Threshold: 0.5, MaxDeviation: 0.75}, back)

	_, err = RecordToEvent(config.GenericMap{"start_time": "abc"})
	require.Error(t, err)

	require.False(t, IsEvent(config.GenericMap{"time_s": 1.0, "axis_1": 2.0}))
	require.Equal(t, "axis_1_deviation", DeviationField("axis_1"))
	require.Equal(t, "axis_1_residual", ResidualField("axis_1"))
	require.Equal(t, "axis_1_predicted", PredictedField("axis_1"))
}
