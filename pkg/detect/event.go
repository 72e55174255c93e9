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

package detect

// EventType is the severity of a detected event.
type EventType string

const (
	EventAlert EventType = "ALERT"
	EventError EventType = "ERROR"
)

// Event is a sustained excursion of one channel's deviation above a threshold.
type Event struct {
	AxisName     string    `json:"axis_name" mapstructure:"axis_name" db:"axis_name"`
	EventType    EventType `json:"event_type" mapstructure:"event_type" db:"event_type"`
	StartTime    float64   `json:"start_time" mapstructure:"start_time" db:"start_time"`
	EndTime      float64   `json:"end_time" mapstructure:"end_time" db:"end_time"`
	DurationS    float64   `json:"duration_s" mapstructure:"duration_s" db:"duration_s"`
	Threshold    float64   `json:"threshold" mapstructure:"threshold" db:"threshold"`
	MaxDeviation float64   `json:"max_deviation" mapstructure:"max_deviation" db:"max_deviation"`
}
