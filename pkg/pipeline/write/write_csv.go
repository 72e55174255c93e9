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
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/robotpm/pm-pipeline/pkg/api"
	"github.com/robotpm/pm-pipeline/pkg/config"
	"github.com/robotpm/pm-pipeline/pkg/operational"
	"github.com/robotpm/pm-pipeline/pkg/pipeline/utils"
	log "github.com/sirupsen/logrus"
)

var clog = log.WithField("component", "write.CSV")

type writeCSV struct {
	columns []string
	file    io.Closer
	csv     *csv.Writer
	mutex   sync.Mutex
	metrics *metrics
}

// Write appends one row per record. Fields missing from the record are left empty.
func (w *writeCSV) Write(in config.GenericMap) {
	row := make([]string, len(w.columns))
	for i, c := range w.columns {
		row[i] = formatCell(in[c])
	}
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if err := w.csv.Write(row); err != nil {
		clog.WithError(err).Warn("can't write row")
		w.metrics.error("CannotWrite")
		return
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		clog.WithError(err).Warn("can't flush row")
		w.metrics.error("CannotWrite")
		return
	}
	w.metrics.written.Inc()
}

// Close flushes the pending rows and closes the file
func (w *writeCSV) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.csv.Flush()
	err := w.csv.Error()
	if w.file != nil {
		if cerr := w.file.Close(); err == nil {
			err = cerr
		}
		w.file = nil
	}
	return err
}

func formatCell(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'g', -1, 32)
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

// NewWriteCSV creates a writer appending records to a CSV file with a header row.
// The file is truncated when the stage starts.
func NewWriteCSV(opMetrics *operational.Metrics, params config.StageParam) (Writer, error) {
	clog.Debugf("entering NewWriteCSV")
	if params.Write == nil || params.Write.CSV == nil || params.Write.CSV.Filename == "" {
		return nil, errors.New("missing csv filename")
	}
	f, err := os.Create(params.Write.CSV.Filename)
	if err != nil {
		return nil, err
	}
	w, err := newWriteCSV(opMetrics, params, f, f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return w, nil
}

func newWriteCSV(opMetrics *operational.Metrics, params config.StageParam, out io.Writer, closer io.Closer) (*writeCSV, error) {
	columns := params.Write.CSV.Columns
	if len(columns) == 0 {
		columns = utils.EventFields
	}
	w := &writeCSV{
		columns: columns,
		file:    closer,
		csv:     csv.NewWriter(out),
		metrics: newMetrics(opMetrics, params.Name, api.CSVType),
	}
	if err := w.csv.Write(columns); err != nil {
		return nil, err
	}
	w.csv.Flush()
	return w, w.csv.Error()
}
