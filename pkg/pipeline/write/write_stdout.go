/*
 * Copyright (C) 2021 IBM, Inc.
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
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/robotpm/pm-pipeline/pkg/api"
	"github.com/robotpm/pm-pipeline/pkg/config"
	"github.com/robotpm/pm-pipeline/pkg/operational"
	log "github.com/sirupsen/logrus"
)

type writeStdout struct {
	format  string
	out     io.Writer
	mutex   sync.Mutex
	metrics *metrics
}

// Write writes a record to stdout, one line per record
func (t *writeStdout) Write(v config.GenericMap) {
	var line string
	if t.format == api.StdoutFormatName("JSON") {
		txt, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(v)
		if err != nil {
			log.WithError(err).Warn("can't marshal record to JSON")
			t.metrics.error("CannotMarshal")
			return
		}
		line = string(txt)
	} else {
		line = printfLine(v)
	}
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if _, err := fmt.Fprintln(t.out, line); err != nil {
		t.metrics.error("CannotWrite")
		return
	}
	t.metrics.written.Inc()
}

func printfLine(v config.GenericMap) string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%s=%v", k, v[k])
	}
	return sb.String()
}

// NewWriteStdout create a new write
func NewWriteStdout(opMetrics *operational.Metrics, params config.StageParam) (Writer, error) {
	log.Debugf("entering NewWriteStdout")
	return newWriteStdout(opMetrics, params, os.Stdout)
}

// NewWriteStdoutTo is NewWriteStdout writing to out instead of the process standard output
func NewWriteStdoutTo(opMetrics *operational.Metrics, params config.StageParam, out io.Writer) (Writer, error) {
	return newWriteStdout(opMetrics, params, out)
}

func newWriteStdout(opMetrics *operational.Metrics, params config.StageParam, out io.Writer) (*writeStdout, error) {
	format := api.StdoutFormatName("Printf")
	if params.Write != nil && params.Write.Stdout != nil && params.Write.Stdout.Format != "" {
		format = params.Write.Stdout.Format
	}
	switch format {
	case api.StdoutFormatName("Printf"), api.StdoutFormatName("JSON"):
	default:
		return nil, fmt.Errorf("unknown stdout format: %s", format)
	}
	return &writeStdout{
		format:  format,
		out:     out,
		metrics: newMetrics(opMetrics, params.Name, api.StdoutType),
	}, nil
}
