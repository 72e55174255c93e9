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
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/common/model"
	"github.com/robotpm/pm-pipeline/pkg/api"
	"github.com/robotpm/pm-pipeline/pkg/config"
	"github.com/robotpm/pm-pipeline/pkg/detect"
	"github.com/robotpm/pm-pipeline/pkg/operational"
	"github.com/robotpm/pm-pipeline/pkg/pipeline/utils"
	"github.com/robotpm/pm-pipeline/pkg/test"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const timeout = 5 * time.Second

type fakeEmitter struct {
	mock.Mock
}

func (f *fakeEmitter) Handle(labels model.LabelSet, timestamp time.Time, record string) error {
	// sort alphabetically records just for simplifying testing verification with JSON strings
	recordMap := map[string]interface{}{}
	if err := json.Unmarshal([]byte(record), &recordMap); err != nil {
		panic("expected JSON: " + err.Error())
	}
	recordBytes, err := json.Marshal(recordMap)
	if err != nil {
		panic("error unmarshaling: " + err.Error())
	}
	a := f.Mock.Called(labels, timestamp, string(recordBytes))
	return a.Error(0)
}

func (f *fakeEmitter) Stop() {
	f.Mock.Called()
}

func newFakeEmitter() *fakeEmitter {
	fe := fakeEmitter{}
	fe.On("Handle", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	fe.On("Stop").Return()
	return &fe
}

func Test_buildLokiConfig(t *testing.T) {
	var yamlConfig = `
log-level: debug
pipeline:
  - name: write1
parameters:
  - name: write1
    write:
      type: loki
      loki:
        tenantID: theTenant
        url: "https://foo:8888/"
        batchWait: 1m
        minBackoff: 5s
        labels:
          - foo
          - bar
        staticLabels:
          baz: bae
          tiki: taka
`
	v, cfg := test.InitConfig(t, yamlConfig)
	require.NotNil(t, v)

	loki, err := NewWriteLoki(operational.NewMetrics(&config.MetricsSettings{}), cfg.Parameters[0])
	require.NoError(t, err)

	assert.Equal(t, "https://foo:8888/loki/api/v1/push", loki.lokiConfig.URL.String())
	assert.Equal(t, "theTenant", loki.lokiConfig.TenantID)
	assert.Equal(t, time.Minute, loki.lokiConfig.BatchWait)
	assert.Equal(t, 5*time.Second, loki.lokiConfig.BackoffConfig.MinBackoff)
	assert.Equal(t, 5*time.Minute, loki.lokiConfig.BackoffConfig.MaxBackoff)
	assert.Equal(t, model.LabelSet{"baz": "bae", "tiki": "taka"}, loki.staticLabels)

	// Make sure default batch size is set
	assert.Equal(t, 102400, loki.lokiConfig.BatchSize)
	assert.Equal(t, loki.apiConfig.BatchSize, loki.lokiConfig.BatchSize)
}

func Test_buildLokiConfig_InvalidDuration(t *testing.T) {
	_, err := NewWriteLoki(operational.NewMetrics(nil), config.StageParam{
		Write: &config.Write{Type: api.LokiType, Loki: &api.WriteLoki{BatchWait: "soon"}},
	})
	require.Error(t, err)
}

func TestLoki_ProcessEvent(t *testing.T) {
	var yamlConfig = `
log-level: debug
pipeline:
  - name: write1
parameters:
  - name: write1
    write:
      type: loki
      loki:
        url: http://loki:3100/
        ignoreList:
        - threshold
`
	v, cfg := test.InitConfig(t, yamlConfig)
	require.NotNil(t, v)

	loki, err := NewWriteLoki(operational.NewMetrics(&config.MetricsSettings{}), cfg.Parameters[0])
	require.NoError(t, err)
	fe := newFakeEmitter()
	loki.client = fe
	loki.timeNow = func() time.Time { return time.Unix(1000, 0) }

	// WHEN it processes an event record
	require.NoError(t, loki.ProcessRecord(utils.EventToRecord(detect.Event{
		AxisName:     "axis_5",
		EventType:    detect.EventError,
		StartTime:    10,
		EndTime:      16,
		DurationS:    6,
		Threshold:    3,
		MaxDeviation: 4.5,
	})))

	// THEN the axis and type become labels, next to the default static label
	fe.AssertCalled(t, "Handle", model.LabelSet{
		"app":        "pm-pipeline",
		"axis_name":  "axis_5",
		"event_type": "ERROR",
	}, time.Unix(1000, 0), `{"duration_s":6,"end_time":16,"max_deviation":4.5,"start_time":10}`)

	require.NoError(t, loki.Close())
	fe.AssertCalled(t, "Stop")
}

func TestTimestampScale(t *testing.T) {
	// verifies that the unix residual time (below 1-second precision) is properly
	// incorporated into the timestamp whichever scale it is
	for _, testCase := range []struct {
		unit     string
		expected time.Time
	}{
		{unit: "1m", expected: time.Unix(123456789*60, 0)},
		{unit: "1s", expected: time.Unix(123456789, 0)},
		{unit: "100ms", expected: time.Unix(12345678, 900000000)},
		{unit: "1ms", expected: time.Unix(123456, 789000000)},
	} {
		t.Run(fmt.Sprintf("unit %v", testCase.unit), func(t *testing.T) {
			yamlConf := fmt.Sprintf(`log-level: debug
pipeline:
  - name: write1
parameters:
  - name: write1
    write:
      type: loki
      loki:
        url: http://loki:3100/
        timestampLabel: start_time
        timestampScale: %s
`, testCase.unit)
			v, cfg := test.InitConfig(t, yamlConf)
			require.NotNil(t, v)

			loki, err := NewWriteLoki(operational.NewMetrics(&config.MetricsSettings{}), cfg.Parameters[0])
			require.NoError(t, err)
			fe := newFakeEmitter()
			loki.client = fe

			require.NoError(t, loki.ProcessRecord(map[string]interface{}{"start_time": 123456789}))
			fe.AssertCalled(t, "Handle", model.LabelSet{"app": "pm-pipeline"},
				testCase.expected, `{"start_time":123456789}`)
		})
	}
}

// Tests those cases where the timestamp can't be extracted and reports the current time
func TestTimestampExtraction_LocalTime(t *testing.T) {
	for _, testCase := range []struct {
		name    string
		tsLabel string
		input   map[string]interface{}
	}{
		{name: "undefined ts label", tsLabel: "", input: map[string]interface{}{"ts": 444}},
		{name: "non-existing ts entry", tsLabel: "asdfasdf", input: map[string]interface{}{"ts": 444}},
		{name: "non-numeric ts value", tsLabel: "ts", input: map[string]interface{}{"ts": "string value"}},
		{name: "zero ts value", tsLabel: "ts", input: map[string]interface{}{"ts": 0}},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			loki, err := NewWriteLoki(operational.NewMetrics(nil), config.StageParam{
				Write: &config.Write{Type: api.LokiType, Loki: &api.WriteLoki{URL: "http://loki:3100/", TimestampLabel: testCase.tsLabel}},
			})
			require.NoError(t, err)
			fe := newFakeEmitter()
			loki.client = fe
			loki.timeNow = func() time.Time {
				return time.Unix(12345678, 0)
			}

			jsonInput, _ := json.Marshal(testCase.input)
			require.NoError(t, loki.ProcessRecord(testCase.input))
			fe.AssertCalled(t, "Handle", model.LabelSet{"app": "pm-pipeline"},
				time.Unix(12345678, 0), string(jsonInput))
		})
	}
}

// Tests that labels are sanitized before being sent to loki.
// Labels that are invalid even if sanitized are ignored
func TestSanitizedLabels(t *testing.T) {
	loki, err := NewWriteLoki(operational.NewMetrics(nil), config.StageParam{
		Write: &config.Write{Type: api.LokiType, Loki: &api.WriteLoki{
			URL:          "http://loki:3100/",
			StaticLabels: map[string]string{},
			Labels:       []string{"fo.o", "ba-r", "ba/z", "ignored?"},
		}},
	})
	require.NoError(t, err)
	fe := newFakeEmitter()
	loki.client = fe

	require.NoError(t, loki.ProcessRecord(map[string]interface{}{
		"ba/z": "isBaz", "fo.o": "isFoo", "ba-r": "isBar", "ignored?": "yes!"}))

	fe.AssertCalled(t, "Handle", model.LabelSet{
		"ba_r": "isBar",
		"fo_o": "isFoo",
		"ba_z": "isBaz",
	}, mock.Anything, mock.Anything)
}

func TestHTTPInvocations(t *testing.T) {
	entries := make(chan test.LokiEntry, 256)
	fakeLoki := httptest.NewServer(test.FakeLokiHandler(entries))
	defer fakeLoki.Close()

	loki, err := NewWriteLoki(operational.NewMetrics(nil), config.StageParam{
		Name:  "write1",
		Write: &config.Write{Type: api.LokiType, Loki: &api.WriteLoki{URL: fakeLoki.URL, BatchWait: "100ms"}},
	})
	require.NoError(t, err)

	loki.Write(config.GenericMap{"axis_name": "axis_1", "event_type": "ALERT", "max_deviation": 2.5})
	require.NoError(t, loki.Close())

	select {
	case entry := <-entries:
		assert.Equal(t, map[string]interface{}{"max_deviation": 2.5}, entry.Record)
		assert.Contains(t, entry.Labels, `axis_name="axis_1"`)
		assert.Contains(t, entry.Labels, `event_type="ALERT"`)
	case <-time.After(timeout):
		require.Fail(t, "timeout while waiting for the Loki writer to forward data")
	}
}

func BenchmarkWriteLoki(b *testing.B) {
	logrus.SetLevel(logrus.ErrorLevel)
	entries := make(chan test.LokiEntry, 256)
	fakeLoki := httptest.NewServer(test.FakeLokiHandler(entries))
	defer fakeLoki.Close()
	go func() {
		for range entries {
		}
	}()

	loki, err := NewWriteLoki(operational.NewMetrics(nil), config.StageParam{Write: &config.Write{Loki: &api.WriteLoki{URL: fakeLoki.URL}}})
	require.NoError(b, err)

	for i := 0; i < b.N; i++ {
		loki.Write(utils.EventToRecord(detect.Event{
			AxisName:     fmt.Sprintf("axis_%d", i%8+1),
			EventType:    detect.EventAlert,
			StartTime:    float64(i),
			EndTime:      float64(i) + 0.5,
			DurationS:    0.5,
			Threshold:    2,
			MaxDeviation: 2.2,
		}))
	}
	require.NoError(b, loki.Close())
}
