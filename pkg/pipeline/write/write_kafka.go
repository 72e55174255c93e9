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
	"context"
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/robotpm/pm-pipeline/pkg/api"
	"github.com/robotpm/pm-pipeline/pkg/config"
	"github.com/robotpm/pm-pipeline/pkg/operational"
	kafkago "github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
)

var klog = log.WithField("component", "write.Kafka")

const (
	defaultReadTimeoutSeconds  = int64(10)
	defaultWriteTimeoutSeconds = int64(10)
)

type kafkaWriteMessage interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

type writeKafka struct {
	kafkaParams api.WriteKafka
	kafkaWriter kafkaWriteMessage
	metrics     *metrics
}

// Write sends the record as a JSON message. Event records are keyed by axis so that one axis
// always lands on the same partition.
func (w *writeKafka) Write(entry config.GenericMap) {
	klog.Tracef("entering Kafka Write %v", entry)
	value, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(entry)
	if err != nil {
		klog.WithError(err).Warn("can't marshal record")
		w.metrics.error("CannotMarshal")
		return
	}
	msg := kafkago.Message{Value: value}
	if axis, ok := entry.LookupString("axis_name"); ok {
		msg.Key = []byte(axis)
	}
	if err := w.kafkaWriter.WriteMessages(context.Background(), msg); err != nil {
		klog.WithError(err).Error("can't write message")
		w.metrics.error("CannotWriteMessage")
		return
	}
	w.metrics.written.Inc()
}

// Close flushes pending messages and closes the connections
func (w *writeKafka) Close() error {
	return w.kafkaWriter.Close()
}

// NewWriteKafka create a new writer to kafka
func NewWriteKafka(opMetrics *operational.Metrics, params config.StageParam) (Writer, error) {
	klog.Debugf("entering NewWriteKafka")
	if params.Write == nil || params.Write.Kafka == nil {
		return nil, errors.New("missing kafka write configuration")
	}
	cfg := *params.Write.Kafka
	if cfg.Address == "" || cfg.Topic == "" {
		return nil, errors.New("kafka address and topic are required")
	}

	var balancer kafkago.Balancer
	switch cfg.Balancer {
	case api.KafkaBalancerName("RoundRobin"):
		balancer = &kafkago.RoundRobin{}
	case api.KafkaBalancerName("LeastBytes"):
		balancer = &kafkago.LeastBytes{}
	case api.KafkaBalancerName("Hash"):
		balancer = &kafkago.Hash{}
	case api.KafkaBalancerName("Crc32"):
		balancer = &kafkago.CRC32Balancer{}
	case api.KafkaBalancerName("Murmur2"):
		balancer = &kafkago.Murmur2Balancer{}
	case "":
		balancer = &kafkago.Hash{}
	default:
		return nil, fmt.Errorf("unknown kafka balancer: %s", cfg.Balancer)
	}

	readTimeoutSecs := defaultReadTimeoutSeconds
	if cfg.ReadTimeout != 0 {
		readTimeoutSecs = cfg.ReadTimeout
	}

	writeTimeoutSecs := defaultWriteTimeoutSeconds
	if cfg.WriteTimeout != 0 {
		writeTimeoutSecs = cfg.WriteTimeout
	}

	kafkaWriter := kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Address),
		Topic:        cfg.Topic,
		Balancer:     balancer,
		ReadTimeout:  time.Duration(readTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(writeTimeoutSecs) * time.Second,
		BatchSize:    cfg.BatchSize,
		BatchBytes:   cfg.BatchBytes,
	}

	return &writeKafka{
		kafkaParams: cfg,
		kafkaWriter: &kafkaWriter,
		metrics:     newMetrics(opMetrics, params.Name, api.KafkaType),
	}, nil
}
