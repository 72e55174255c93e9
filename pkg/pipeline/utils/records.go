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
	"github.com/mitchellh/mapstructure"
	"github.com/robotpm/pm-pipeline/pkg/config"
	"github.com/robotpm/pm-pipeline/pkg/detect"
)

// Fields added to readings records by the residual transform.
const (
	PredictedSuffix = "_predicted"
	ResidualSuffix  = "_residual"
	DeviationSuffix = "_deviation"
)

func PredictedField(channel string) string { return channel + PredictedSuffix }
func ResidualField(channel string) string  { return channel + ResidualSuffix }
func DeviationField(channel string) string { return channel + DeviationSuffix }

// EventFields are the fields of an event record, in table column order.
var EventFields = []string{"axis_name", "event_type", "start_time", "end_time", "duration_s", "threshold", "max_deviation"}

// EventToRecord flattens an event into a pipeline record.
func EventToRecord(e detect.Event) config.GenericMap {
	return config.GenericMap{
		"axis_name":     e.AxisName,
		"event_type":    string(e.EventType),
		"start_time":    e.StartTime,
		"end_time":      e.EndTime,
		"duration_s":    e.DurationS,
		"threshold":     e.Threshold,
		"max_deviation": e.MaxDeviation,
	}
}

// RecordToEvent decodes an event record, whatever the numeric types of its fields.
func RecordToEvent(record config.GenericMap) (detect.Event, error) {
	var e detect.Event
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      false,
		Result:           &e,
	})
	if err != nil {
		return e, err
	}
	if err := dec.Decode(map[string]interface{}(record)); err != nil {
		return e, err
	}
	return e, nil
}

// IsEvent tells event records apart from readings records.
func IsEvent(record config.GenericMap) bool {
	_, hasAxis := record["axis_name"]
	_, hasType := record["event_type"]
	return hasAxis && hasType
}
