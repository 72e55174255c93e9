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

package write

import (
	"bytes"
	"strings"
	"testing"

	"github.com/robotpm/pm-pipeline/pkg/api"
	"github.com/robotpm/pm-pipeline/pkg/config"
	"github.com/robotpm/pm-pipeline/pkg/operational"
	"github.com/robotpm/pm-pipeline/pkg/test"
	"github.com/stretchr/testify/require"
)

func stdoutParams(format string) config.StageParam {
	return config.StageParam{Name: "out", Write: &config.Write{Type: api.StdoutType, Stdout: &api.WriteStdout{Format: format}}}
}

func Test_WriteStdout_Printf(t *testing.T) {
	buf := &bytes.Buffer{}
	ws, err := newWriteStdout(operational.NewMetrics(nil), stdoutParams(""), buf)
	require.NoError(t, err)

	ws.Write(config.GenericMap{"event_type": "ALERT", "axis_name": "axis_1", "start_time": 1.5})
	ws.Write(config.GenericMap{"time_s": 2.0})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Equal(t, []string{
		"axis_name=axis_1 event_type=ALERT start_time=1.5",
		"time_s=2",
	}, lines)
}

func Test_WriteStdout_JSON(t *testing.T) {
	buf := &bytes.Buffer{}
	ws, err := newWriteStdout(operational.NewMetrics(nil), stdoutParams("json"), buf)
	require.NoError(t, err)

	ws.Write(config.GenericMap{"axis_name": "axis_3", "duration_s": 0.25})

	out := test.DeserializeJSONToMap(t, strings.TrimSpace(buf.String()))
	require.Equal(t, config.GenericMap{"axis_name": "axis_3", "duration_s": 0.25}, out)
}

func Test_WriteStdout_UnknownFormat(t *testing.T) {
	_, err := NewWriteStdout(operational.NewMetrics(nil), stdoutParams("yaml"))
	require.Error(t, err)
}
