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

package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robotpm/pm-pipeline/pkg/api"
	"github.com/robotpm/pm-pipeline/pkg/config"
	"github.com/robotpm/pm-pipeline/pkg/dataset"
	"github.com/robotpm/pm-pipeline/pkg/operational"
	"github.com/robotpm/pm-pipeline/pkg/pipeline/extract"
	"github.com/robotpm/pm-pipeline/pkg/test"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testKafkaConfig = `---
log-level: debug
pipeline:
  - name: ingest1
parameters:
  - name: ingest1
    ingest:
      type: kafka
      kafka:
        brokers: ["1.1.1.1:9092"]
        topic: currents
        groupid: group1
        startOffset: LastOffset
        channels: [axis_1, axis_2]
`

var opMetrics = operational.NewMetrics(&config.MetricsSettings{})

func collect(out chan config.GenericMap, n int, t *testing.T) []config.GenericMap {
	var records []config.GenericMap
	for i := 0; i < n; i++ {
		select {
		case r := <-out:
			records = append(records, r)
		case <-time.After(5 * time.Second):
			require.Failf(t, "timeout", "received %d records out of %d", len(records), n)
		}
	}
	return records
}

func TestIngestFile(t *testing.T) {
	path := test.CreateTempFile(t, "readings.csv", test.ReadingsCSV([]string{"axis_1", "axis_2"},
		[]float64{0, 1, 2}, []float64{1, 3, 4}, []float64{2, 5, 6}))
	ing, err := NewIngestFile(opMetrics, config.StageParam{Name: "file", Ingest: &config.Ingest{
		Type: api.FileType,
		File: &api.IngestFile{Filename: path},
	}})
	require.NoError(t, err)

	out := make(chan config.GenericMap, 10)
	ing.Ingest(out)
	require.Len(t, out, 3)
	records := collect(out, 3, t)
	require.Equal(t, config.GenericMap{"time_s": 0.0, "axis_1": 1.0, "axis_2": 2.0}, records[0])
	require.Equal(t, config.GenericMap{"time_s": 2.0, "axis_1": 5.0, "axis_2": 6.0}, records[2])
}

func TestIngestFile_LoopWithClock(t *testing.T) {
	path := test.CreateTempFile(t, "readings.csv", test.ReadingsCSV([]string{"a"},
		[]float64{0, 1}, []float64{1, 2}))
	clk := clock.NewMock()
	ing, err := newIngestFile(opMetrics, config.StageParam{Name: "loop", Ingest: &config.Ingest{
		Type: api.FileType,
		File: &api.IngestFile{Filename: path, Loop: true, Interval: api.Duration{Duration: time.Second}},
	}}, clk)
	require.NoError(t, err)
	exit := make(chan struct{})
	ing.exitChan = exit

	out := make(chan config.GenericMap)
	done := make(chan struct{})
	go func() {
		ing.Ingest(out)
		close(done)
	}()

	// the first reading of each pass goes out without waiting
	require.Equal(t, 1.0, collect(out, 1, t)[0]["a"])
	test.Eventually(t, 5*time.Second, func(t require.TestingT) {
		clk.Add(time.Second)
		select {
		case r := <-out:
			require.Equal(t, 2.0, r["a"])
		case <-time.After(10 * time.Millisecond):
			require.Fail(t, "second reading not sent yet")
		}
	})
	// second pass, shifted by the span of the file plus one step
	second := collect(out, 1, t)[0]
	require.Equal(t, 1.0, second["a"])
	require.Equal(t, 2.0, second["time_s"])

	close(exit)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		require.Fail(t, "ingester did not exit")
	}
}

func TestIngestFile_LoopKeepsDetectingEvents(t *testing.T) {
	dev := []float64{0, 6, 6, 6, 6, 0}
	rows := make([][]float64, len(dev))
	for i, d := range dev {
		rows[i] = []float64{float64(i), d}
	}
	path := test.CreateTempFile(t, "deviations.csv", test.ReadingsCSV([]string{"axis_1_deviation"}, rows...))
	exit := make(chan struct{})
	ing := &ingestFile{
		params: api.IngestFile{Filename: path, Loop: true},
		replayer: replayer{
			clock:    clock.New(),
			exitChan: exit,
			metrics:  newMetrics(opMetrics, "loop-events", api.FileLoopType),
		},
	}
	out := make(chan config.GenericMap)
	done := make(chan struct{})
	go func() {
		ing.Ingest(out)
		close(done)
	}()
	records := collect(out, 2*len(dev), t)
	close(exit)
	<-done

	minC, maxC, minT := 5.0, 10.0, 2.0
	ex, err := extract.NewExtractEvents(operational.NewMetricsWithRegisterer(nil, prometheus.NewRegistry()), config.StageParam{
		Name:    "events",
		Extract: &config.Extract{Type: api.EventsType, Events: &api.ExtractEvents{MinC: &minC, MaxC: &maxC, T: &minT}},
	})
	require.NoError(t, err)
	events := ex.Extract(records)
	require.Len(t, events, 2)
	require.Equal(t, 1.0, events[0]["start_time"])
	require.Equal(t, 4.0, events[0]["end_time"])
	require.Equal(t, 7.0, events[1]["start_time"])
	require.Equal(t, 10.0, events[1]["end_time"])
}

func TestIngestFile_Errors(t *testing.T) {
	_, err := NewIngestFile(opMetrics, config.StageParam{Ingest: &config.Ingest{Type: api.FileType, File: &api.IngestFile{}}})
	require.Error(t, err)
	_, err = NewIngestFile(opMetrics, config.StageParam{Ingest: &config.Ingest{Type: api.FileType, File: &api.IngestFile{Filename: "x.csv", Loop: true}}})
	require.ErrorContains(t, err, "interval")

	// a missing file ends the ingestion without records
	ing, err := NewIngestFile(opMetrics, config.StageParam{Name: "missing", Ingest: &config.Ingest{Type: api.FileType, File: &api.IngestFile{Filename: "/does/not/exist.csv"}}})
	require.NoError(t, err)
	out := make(chan config.GenericMap, 1)
	ing.Ingest(out)
	require.Empty(t, out)
}

func TestIngestSynthetic(t *testing.T) {
	var rows [][]float64
	for i := 0; i < 20; i++ {
		rows = append(rows, []float64{float64(i) * 0.5, 1 + float64(i%3), 10 - float64(i%4)})
	}
	path := test.CreateTempFile(t, "train.csv", test.ReadingsCSV([]string{"axis_1", "axis_2"}, rows...))
	params := config.StageParam{Name: "synth", Ingest: &config.Ingest{Type: api.SyntheticType, Synthetic: &api.IngestSynthetic{
		TrainingFile: path,
		Rows:         40,
		Seed:         7,
		Anomalies:    []api.SyntheticAnomaly{{Channel: "axis_1", Start: 5, Duration: 2, Bump: 1000}},
	}}}

	run := func() []config.GenericMap {
		ing, err := NewIngestSynthetic(opMetrics, params)
		require.NoError(t, err)
		out := make(chan config.GenericMap, 100)
		ing.Ingest(out)
		require.Len(t, out, 40)
		return collect(out, 40, t)
	}
	first := run()
	require.Equal(t, first, run())

	require.Equal(t, 0.0, first[0]["time_s"])
	require.Equal(t, 0.5, first[1]["time_s"])
	for _, r := range first {
		ts := r["time_s"].(float64)
		if ts >= 5 && ts <= 7 {
			require.Greater(t, r["axis_1"].(float64), 500.0)
		} else {
			require.Less(t, r["axis_1"].(float64), 500.0)
		}
	}

	_, err := NewIngestSynthetic(opMetrics, config.StageParam{Ingest: &config.Ingest{Type: api.SyntheticType, Synthetic: &api.IngestSynthetic{}}})
	require.Error(t, err)
}

type fakeReadingsReader struct {
	ds     *dataset.Dataset
	err    error
	closed bool
	table  string
	limit  int
}

func (f *fakeReadingsReader) ReadReadings(_ context.Context, table, _ string, _ []string, limit int) (*dataset.Dataset, error) {
	f.table, f.limit = table, limit
	return f.ds, f.err
}

func (f *fakeReadingsReader) Close() error {
	f.closed = true
	return nil
}

func TestIngestPostgres(t *testing.T) {
	ds := dataset.New("", []string{"axis_1"})
	ds.Append(0, 1.5)
	ds.Append(1, 2.5)
	repo := &fakeReadingsReader{ds: ds}
	ing := newIngestPostgres(opMetrics, config.StageParam{Name: "pg", Ingest: &config.Ingest{Type: api.PostgresType, Postgres: &api.IngestPostgres{
		Table: "robot_currents_stream_test",
		Limit: 10,
	}}}, repo)

	out := make(chan config.GenericMap, 10)
	ing.Ingest(out)
	require.Equal(t, "robot_currents_stream_test", repo.table)
	require.Equal(t, 10, repo.limit)
	require.True(t, repo.closed)
	records := collect(out, 2, t)
	require.Equal(t, config.GenericMap{"time_s": 1.0, "axis_1": 2.5}, records[1])

	repo = &fakeReadingsReader{err: errors.New("connection refused")}
	ing.repo = repo
	ing.Ingest(out)
	require.Empty(t, out)
	require.True(t, repo.closed)
}

func TestNewIngestPostgres_InvalidTable(t *testing.T) {
	_, err := NewIngestPostgres(opMetrics, config.StageParam{Ingest: &config.Ingest{Type: api.PostgresType, Postgres: &api.IngestPostgres{
		Table: "readings; DROP TABLE x",
	}}})
	require.Error(t, err)
}

type fakeKafkaReader struct {
	mock.Mock
	messages chan kafkago.Message
}

// ReadMessage blocks until a message is queued or the context is canceled.
func (f *fakeKafkaReader) ReadMessage(ctx context.Context) (kafkago.Message, error) {
	select {
	case m := <-f.messages:
		return m, nil
	case <-ctx.Done():
		return kafkago.Message{}, ctx.Err()
	}
}

func (f *fakeKafkaReader) Config() kafkago.ReaderConfig {
	return kafkago.ReaderConfig{Topic: "currents"}
}

func (f *fakeKafkaReader) Close() error {
	args := f.Called()
	return args.Error(0)
}

func TestNewIngestKafka(t *testing.T) {
	_, cfg := test.InitConfig(t, testKafkaConfig)
	ing, err := NewIngestKafka(opMetrics, cfg.Parameters[0])
	require.NoError(t, err)
	ik := ing.(*ingestKafka)
	require.Equal(t, "currents", ik.kafkaParams.Topic)
	require.Equal(t, "group1", ik.kafkaParams.GroupID)
	require.Equal(t, kafkago.LastOffset, ik.kafkaReader.Config().StartOffset)
	require.Equal(t, "time_s", ik.timeColumn)

	cfg.Parameters[0].Ingest.Kafka.StartOffset = "Middle"
	_, err = NewIngestKafka(opMetrics, cfg.Parameters[0])
	require.Error(t, err)
}

func TestIngestKafka(t *testing.T) {
	_, cfg := test.InitConfig(t, testKafkaConfig)
	fr := &fakeKafkaReader{messages: make(chan kafkago.Message, 10)}
	fr.On("Close").Return(nil)
	ik := newIngestKafka(opMetrics, cfg.Parameters[0], fr)
	exit := make(chan struct{})
	ik.exitChan = exit

	fr.messages <- kafkago.Message{Value: []byte(`{"time_s":1,"axis_1":0.5,"axis_2":"1.5","other":"x"}`)}
	fr.messages <- kafkago.Message{Value: []byte(`{"time_s":2,"axis_1":0.5}`)}
	fr.messages <- kafkago.Message{Value: []byte(`not json`)}
	fr.messages <- kafkago.Message{Value: []byte(`{"time_s":3,"axis_1":1,"axis_2":2}`)}

	out := make(chan config.GenericMap, 10)
	done := make(chan struct{})
	go func() {
		ik.Ingest(out)
		close(done)
	}()

	records := collect(out, 2, t)
	require.Equal(t, config.GenericMap{"time_s": 1.0, "axis_1": 0.5, "axis_2": 1.5}, records[0])
	require.Equal(t, config.GenericMap{"time_s": 3.0, "axis_1": 1.0, "axis_2": 2.0}, records[1])

	close(exit)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		require.Fail(t, "kafka ingester did not exit")
	}
	fr.AssertCalled(t, "Close")
}
