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

package dataset

import (
	"fmt"
	"math"
	"sort"

	"github.com/robotpm/pm-pipeline/pkg/utils"
)

// DefaultTimeColumn is the name of the time field in robot exports.
const DefaultTimeColumn = "time_s"

// DefaultChannels returns the current-draw channels of the reference robot: axis_1 ... axis_8.
func DefaultChannels() []string {
	channels := make([]string, 0, 8)
	for i := 1; i <= 8; i++ {
		channels = append(channels, fmt.Sprintf("axis_%d", i))
	}
	return channels
}

// Reading is one sample: a timestamp and one value per channel.
type Reading struct {
	Time   float64
	Values []float64
}

// Dataset is an ordered sequence of readings sharing the same channel layout.
type Dataset struct {
	TimeColumn string
	Channels   []string
	Readings   []Reading
}

// New creates an empty dataset; empty arguments select the defaults.
func New(timeColumn string, channels []string) *Dataset {
	if timeColumn == "" {
		timeColumn = DefaultTimeColumn
	}
	if len(channels) == 0 {
		channels = DefaultChannels()
	}
	return &Dataset{
		TimeColumn: timeColumn,
		Channels:   append([]string(nil), channels...),
	}
}

// Len returns the number of readings.
func (d *Dataset) Len() int {
	return len(d.Readings)
}

// Append adds a reading; values are given in channel order.
func (d *Dataset) Append(t float64, values ...float64) {
	d.Readings = append(d.Readings, Reading{Time: t, Values: values})
}

// ChannelIndex returns the position of a channel in the readings' values.
func (d *Dataset) ChannelIndex(channel string) (int, bool) {
	for i, c := range d.Channels {
		if c == channel {
			return i, true
		}
	}
	return -1, false
}

// Times returns the time column.
func (d *Dataset) Times() []float64 {
	out := make([]float64, len(d.Readings))
	for i := range d.Readings {
		out[i] = d.Readings[i].Time
	}
	return out
}

// Column returns the values of one channel, in reading order.
func (d *Dataset) Column(channel string) ([]float64, error) {
	idx, ok := d.ChannelIndex(channel)
	if !ok {
		return nil, fmt.Errorf("unknown channel %q", channel)
	}
	out := make([]float64, len(d.Readings))
	for i := range d.Readings {
		out[i] = d.Readings[i].Values[idx]
	}
	return out, nil
}

// Clone returns a deep copy.
func (d *Dataset) Clone() *Dataset {
	out := &Dataset{
		TimeColumn: d.TimeColumn,
		Channels:   append([]string(nil), d.Channels...),
		Readings:   make([]Reading, len(d.Readings)),
	}
	for i, r := range d.Readings {
		out.Readings[i] = Reading{Time: r.Time, Values: append([]float64(nil), r.Values...)}
	}
	return out
}

// Slice returns a deep copy of readings [from, to).
func (d *Dataset) Slice(from, to int) *Dataset {
	out := &Dataset{TimeColumn: d.TimeColumn, Channels: append([]string(nil), d.Channels...)}
	for _, r := range d.Readings[from:to] {
		out.Readings = append(out.Readings, Reading{Time: r.Time, Values: append([]float64(nil), r.Values...)})
	}
	return out
}

// MedianStep returns the median gap between consecutive readings. It is 1
// when the dataset has fewer than two readings or the median is not positive.
func (d *Dataset) MedianStep() float64 {
	steps := make([]float64, 0, len(d.Readings))
	for i := 1; i < len(d.Readings); i++ {
		if s := d.Readings[i].Time - d.Readings[i-1].Time; !math.IsNaN(s) {
			steps = append(steps, s)
		}
	}
	if len(steps) == 0 {
		return 1
	}
	sort.Float64s(steps)
	mid := len(steps) / 2
	step := steps[mid]
	if len(steps)%2 == 0 {
		step = (steps[mid-1] + steps[mid]) / 2
	}
	if !(step > 0) {
		return 1
	}
	return step
}

// LoopPeriod is the time shift between two consecutive replays of the dataset:
// its span plus one median step, so that the replayed times keep increasing.
func (d *Dataset) LoopPeriod() float64 {
	if len(d.Readings) == 0 {
		return 0
	}
	return d.Readings[len(d.Readings)-1].Time - d.Readings[0].Time + d.MedianStep()
}

// DropNaN returns the values that are not NaN, in order. Missing readings are NaN.
func DropNaN(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Validate checks that every reading carries one value per channel.
func (d *Dataset) Validate() error {
	if len(d.Channels) == 0 {
		return fmt.Errorf("dataset has no channels")
	}
	for i, r := range d.Readings {
		if len(r.Values) != len(d.Channels) {
			return fmt.Errorf("reading %d has %d values, expected %d", i, len(r.Values), len(d.Channels))
		}
	}
	return nil
}

// ToRecord converts reading i to a flat record keyed by column name.
func (d *Dataset) ToRecord(i int) map[string]interface{} {
	r := d.Readings[i]
	record := make(map[string]interface{}, len(d.Channels)+1)
	record[d.TimeColumn] = r.Time
	for c, name := range d.Channels {
		record[name] = r.Values[c]
	}
	return record
}

// ReadingFromRecord extracts a reading from a flat record. Every channel must be present and numeric.
func ReadingFromRecord(record map[string]interface{}, timeColumn string, channels []string) (Reading, error) {
	rawTime, ok := record[timeColumn]
	if !ok {
		return Reading{}, fmt.Errorf("missing time field %q", timeColumn)
	}
	t, err := utils.ConvertToFloat64(rawTime)
	if err != nil {
		return Reading{}, fmt.Errorf("time field %q: %w", timeColumn, err)
	}
	values := make([]float64, len(channels))
	for i, ch := range channels {
		raw, ok := record[ch]
		if !ok {
			return Reading{}, fmt.Errorf("missing channel %q", ch)
		}
		if values[i], err = utils.ConvertToFloat64(raw); err != nil {
			return Reading{}, fmt.Errorf("channel %q: %w", ch, err)
		}
	}
	return Reading{Time: t, Values: values}, nil
}

// ToRecords converts every reading to a flat record.
func (d *Dataset) ToRecords() []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(d.Readings))
	for i := range d.Readings {
		out = append(out, d.ToRecord(i))
	}
	return out
}

// FromRecords builds a dataset from flat records. The first failing record aborts the conversion.
func FromRecords(records []map[string]interface{}, timeColumn string, channels []string) (*Dataset, error) {
	ds := New(timeColumn, channels)
	for i, record := range records {
		r, err := ReadingFromRecord(record, ds.TimeColumn, ds.Channels)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		ds.Readings = append(ds.Readings, r)
	}
	return ds, nil
}
