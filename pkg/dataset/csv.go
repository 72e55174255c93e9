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
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var errMissingTime = errors.New("missing time value")

// ReadCSV parses a CSV export with a header row. When channels is empty every
// column other than the time column (and an optional "id" column) is a channel.
// Empty channel cells are read as NaN, which fitting and scoring skip. An empty
// time cell is an error.
func ReadCSV(r io.Reader, timeColumn string, channels []string) (*Dataset, error) {
	if timeColumn == "" {
		timeColumn = DefaultTimeColumn
	}
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("empty csv input")
		}
		return nil, errors.Wrap(err, "failed to read csv header")
	}
	columns := map[string]int{}
	for i, h := range header {
		columns[strings.TrimSpace(h)] = i
	}
	timeIdx, ok := columns[timeColumn]
	if !ok {
		return nil, fmt.Errorf("missing time column %q in csv header", timeColumn)
	}
	if len(channels) == 0 {
		for _, h := range header {
			h = strings.TrimSpace(h)
			if h != timeColumn && h != "id" {
				channels = append(channels, h)
			}
		}
	}
	indexes := make([]int, len(channels))
	for i, ch := range channels {
		if indexes[i], ok = columns[ch]; !ok {
			return nil, fmt.Errorf("missing channel column %q in csv header", ch)
		}
	}

	ds := &Dataset{TimeColumn: timeColumn, Channels: append([]string(nil), channels...)}
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, errors.Wrapf(err, "csv read error at line %d", line)
		}
		t, err := parseCell(record[timeIdx])
		if err == nil && math.IsNaN(t) {
			err = errMissingTime
		}
		if err != nil {
			return nil, fmt.Errorf("line %d, column %q: %w", line, timeColumn, err)
		}
		values := make([]float64, len(indexes))
		for i, idx := range indexes {
			if values[i], err = parseCell(record[idx]); err != nil {
				return nil, fmt.Errorf("line %d, column %q: %w", line, channels[i], err)
			}
		}
		ds.Readings = append(ds.Readings, Reading{Time: t, Values: values})
	}
	return ds, nil
}

func parseCell(cell string) (float64, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(cell, 64)
}

func formatCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ReadCSVFile is ReadCSV on a file path.
func ReadCSVFile(path, timeColumn string, channels []string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	ds, err := ReadCSV(f, timeColumn, channels)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return ds, nil
}

// WriteCSV writes the dataset with a header row: the time column, then the channels.
func WriteCSV(w io.Writer, ds *Dataset) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(append([]string{ds.TimeColumn}, ds.Channels...)); err != nil {
		return err
	}
	row := make([]string, len(ds.Channels)+1)
	for _, r := range ds.Readings {
		row[0] = strconv.FormatFloat(r.Time, 'g', -1, 64)
		for i, v := range r.Values {
			row[i+1] = formatCell(v)
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteCSVFile is WriteCSV to a file path, creating or truncating it.
func WriteCSVFile(path string, ds *Dataset) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, ds); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "writing %s", path)
	}
	return f.Close()
}
