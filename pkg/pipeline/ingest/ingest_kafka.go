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
	"fmt"
	"math"

	jsoniter "github.com/json-iterator/go"
	"github.com/robotpm/pm-pipeline/pkg/api"
	"github.com/robotpm/pm-pipeline/pkg/config"
	"github.com/robotpm/pm-pipeline/pkg/dataset"
	"github.com/robotpm/pm-pipeline/pkg/operational"
	"github.com/robotpm/pm-pipeline/pkg/pipeline/utils"
	kafkago "github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
)

var klog = log.WithField("component", "ingest.Kafka")

type kafkaReadMessage interface {
	ReadMessage(ctx context.Context) (kafkago.Message, error)
	Config() kafkago.ReaderConfig
	Close() error
}

type ingestKafka struct {
	kafkaParams api.IngestKafka
	kafkaReader kafkaReadMessage
	timeColumn  string
	channels    []string
	exitChan    <-chan struct{}
	metrics     *metrics
}

// Ingest ingests JSON readings from a kafka topic and sends them down the pipeline
func (k *ingestKafka) Ingest(out chan<- config.GenericMap) {
	klog.Debugf("entering ingestKafka.Ingest")
	k.metrics.createOutQueueLen(out)
	klog.Infof("reading readings from topic %s", k.kafkaReader.Config().Topic)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-k.exitChan
		klog.Debugf("exiting ingestKafka because of signal")
		cancel()
	}()
	defer func() {
		if err := k.kafkaReader.Close(); err != nil {
			klog.WithError(err).Warn("can't close kafka reader")
		}
	}()

	for {
		m, err := k.kafkaReader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			klog.WithError(err).Error("can't read kafka message")
			k.metrics.error("CannotReadMessage")
			continue
		}
		klog.Debugf("message at topic:%v partition:%v offset:%v", m.Topic, m.Partition, m.Offset)
		record, err := k.decode(m.Value)
		if err != nil {
			klog.WithError(err).Warn("dropping invalid reading")
			k.metrics.error("InvalidReading")
			continue
		}
		select {
		case <-ctx.Done():
			return
		case out <- record:
			k.metrics.records.Inc()
		}
	}
}

// decode keeps the time column and the channels, as float64 values
func (k *ingestKafka) decode(value []byte) (config.GenericMap, error) {
	raw := map[string]interface{}{}
	if err := jsoniter.Unmarshal(value, &raw); err != nil {
		return nil, err
	}
	channels := k.channels
	if len(channels) == 0 {
		for key := range raw {
			if key != k.timeColumn && key != "id" {
				channels = append(channels, key)
			}
		}
	}
	reading, err := dataset.ReadingFromRecord(raw, k.timeColumn, channels)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(reading.Time) {
		return nil, fmt.Errorf("invalid %s value", k.timeColumn)
	}
	record := make(config.GenericMap, len(channels)+1)
	record[k.timeColumn] = reading.Time
	for i, ch := range channels {
		record[ch] = reading.Values[i]
	}
	return record, nil
}

// NewIngestKafka create a new ingester
func NewIngestKafka(opMetrics *operational.Metrics, params config.StageParam) (Ingester, error) {
	klog.Debugf("entering NewIngestKafka")
	if params.Ingest == nil || params.Ingest.Kafka == nil {
		return nil, errors.New("missing kafka ingest configuration")
	}
	jsonIngestKafka := *params.Ingest.Kafka
	if len(jsonIngestKafka.Brokers) == 0 || jsonIngestKafka.Topic == "" {
		return nil, errors.New("kafka ingest requires brokers and a topic")
	}

	var startOffset int64
	switch jsonIngestKafka.StartOffset {
	case "", "FirstOffset":
		startOffset = kafkago.FirstOffset
	case "LastOffset":
		startOffset = kafkago.LastOffset
	default:
		return nil, fmt.Errorf("illegal value for startOffset: %s", jsonIngestKafka.StartOffset)
	}
	klog.Infof("startOffset = %v", jsonIngestKafka.StartOffset)

	readerConfig := kafkago.ReaderConfig{
		Brokers:     jsonIngestKafka.Brokers,
		Topic:       jsonIngestKafka.Topic,
		GroupID:     jsonIngestKafka.GroupID,
		StartOffset: startOffset,
	}
	if jsonIngestKafka.MaxBytes > 0 {
		readerConfig.MaxBytes = jsonIngestKafka.MaxBytes
	}
	kafkaReader := kafkago.NewReader(readerConfig)
	if kafkaReader == nil {
		errMsg := "NewIngestKafka: failed to create kafka reader"
		klog.Errorf("%s", errMsg)
		return nil, errors.New(errMsg)
	}
	klog.Debugf("kafkaReader = %v", kafkaReader)

	return newIngestKafka(opMetrics, params, kafkaReader), nil
}

func newIngestKafka(opMetrics *operational.Metrics, params config.StageParam, reader kafkaReadMessage) *ingestKafka {
	cfg := *params.Ingest.Kafka
	timeColumn := cfg.TimeColumn
	if timeColumn == "" {
		timeColumn = dataset.DefaultTimeColumn
	}
	return &ingestKafka{
		kafkaParams: cfg,
		kafkaReader: reader,
		timeColumn:  timeColumn,
		channels:    cfg.Channels,
		exitChan:    utils.ExitChannel(),
		metrics:     newMetrics(opMetrics, params.Name, params.Ingest.Type),
	}
}
