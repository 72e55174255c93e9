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
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	logAdapter "github.com/go-kit/kit/log/logrus"
	jsonIter "github.com/json-iterator/go"
	"github.com/netobserv/loki-client-go/loki"
	"github.com/netobserv/loki-client-go/pkg/backoff"
	"github.com/netobserv/loki-client-go/pkg/urlutil"
	"github.com/prometheus/common/model"
	"github.com/robotpm/pm-pipeline/pkg/api"
	"github.com/robotpm/pm-pipeline/pkg/config"
	"github.com/robotpm/pm-pipeline/pkg/operational"
	log "github.com/sirupsen/logrus"
)

var (
	llog        = log.WithField("component", "write.Loki")
	keyReplacer = strings.NewReplacer("/", "_", ".", "_", "-", "_")
)

type emitter interface {
	Handle(labels model.LabelSet, timestamp time.Time, record string) error
	Stop()
}

// Loki record writer
type Loki struct {
	lokiConfig   loki.Config
	apiConfig    api.WriteLoki
	staticLabels model.LabelSet
	client       emitter
	timeNow      func() time.Time
	metrics      *metrics
}

func buildLokiConfig(c *api.WriteLoki) (loki.Config, error) {
	batchWait, err := time.ParseDuration(c.BatchWait)
	if err != nil {
		return loki.Config{}, fmt.Errorf("failed in parsing BatchWait : %w", err)
	}

	timeout, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return loki.Config{}, fmt.Errorf("failed in parsing Timeout : %w", err)
	}

	minBackoff, err := time.ParseDuration(c.MinBackoff)
	if err != nil {
		return loki.Config{}, fmt.Errorf("failed in parsing MinBackoff : %w", err)
	}

	maxBackoff, err := time.ParseDuration(c.MaxBackoff)
	if err != nil {
		return loki.Config{}, fmt.Errorf("failed in parsing MaxBackoff : %w", err)
	}

	cfg := loki.Config{
		TenantID:  c.TenantID,
		BatchWait: batchWait,
		BatchSize: c.BatchSize,
		Timeout:   timeout,
		BackoffConfig: backoff.BackoffConfig{
			MinBackoff: minBackoff,
			MaxBackoff: maxBackoff,
			MaxRetries: c.MaxRetries,
		},
	}
	var clientURL urlutil.URLValue
	err = clientURL.Set(strings.TrimSuffix(c.URL, "/") + "/loki/api/v1/push")
	if err != nil {
		return cfg, fmt.Errorf("failed to parse client URL: %w", err)
	}
	cfg.URL = clientURL
	return cfg, nil
}

// ProcessRecord pushes one record as a JSON log line. Configured label fields become stream labels
// and are removed from the line, together with the ignore list.
func (l *Loki) ProcessRecord(record config.GenericMap) error {
	// the record may be shared with other stages
	recordCopy := record.Copy()

	timestamp := l.extractTimestamp(recordCopy)

	labels := model.LabelSet{}
	for k, v := range l.staticLabels {
		labels[k] = v
	}
	l.addNonStaticLabels(recordCopy, labels)

	for _, label := range l.apiConfig.IgnoreList {
		delete(recordCopy, label)
	}
	for _, label := range l.apiConfig.Labels {
		delete(recordCopy, label)
	}

	js, err := jsonIter.ConfigCompatibleWithStandardLibrary.Marshal(recordCopy)
	if err != nil {
		return err
	}

	if err := l.client.Handle(labels, timestamp, string(js)); err != nil {
		return err
	}
	l.metrics.written.Inc()
	return nil
}

func (l *Loki) extractTimestamp(record map[string]interface{}) time.Time {
	if l.apiConfig.TimestampLabel == "" {
		return l.timeNow()
	}
	timestamp, ok := record[l.apiConfig.TimestampLabel]
	if !ok {
		llog.WithField("timestampLabel", l.apiConfig.TimestampLabel).
			Warnf("Timestamp label not found in record. Using local time")
		return l.timeNow()
	}
	ft, ok := getFloat64(timestamp)
	if !ok {
		llog.WithField(l.apiConfig.TimestampLabel, timestamp).
			Warnf("Invalid timestamp found: float64 expected but got %T. Using local time", timestamp)
		return l.timeNow()
	}
	if ft == 0 {
		llog.WithField("timestampLabel", l.apiConfig.TimestampLabel).
			Warnf("Empty timestamp in record. Using local time")
		return l.timeNow()
	}

	timestampScale, err := time.ParseDuration(l.apiConfig.TimestampScale)
	if err != nil {
		llog.Warnf("failed in parsing TimestampScale : %v", err)
		return l.timeNow()
	}

	tsNanos := int64(ft * float64(timestampScale))
	return time.Unix(tsNanos/int64(time.Second), tsNanos%int64(time.Second))
}

func (l *Loki) addNonStaticLabels(record map[string]interface{}, labels model.LabelSet) {
	for _, label := range l.apiConfig.Labels {
		val, ok := record[label]
		if !ok {
			continue
		}
		sanitizedKey := model.LabelName(keyReplacer.Replace(label))
		if !sanitizedKey.IsValid() {
			llog.WithFields(log.Fields{"key": label, "sanitizedKey": sanitizedKey}).
				Debug("Invalid label. Ignoring it")
			continue
		}
		lv := model.LabelValue(fmt.Sprint(val))
		if !lv.IsValid() {
			llog.WithFields(log.Fields{"key": label, "sanitizedKey": sanitizedKey, "value": val}).
				Debug("Invalid label value. Ignoring it")
			continue
		}
		labels[sanitizedKey] = lv
	}
}

func getFloat64(timestamp interface{}) (ft float64, ok bool) {
	switch i := timestamp.(type) {
	case float64:
		return i, true
	case float32:
		return float64(i), true
	case int64:
		return float64(i), true
	case int32:
		return float64(i), true
	case uint64:
		return float64(i), true
	case uint32:
		return float64(i), true
	case int:
		return float64(i), true
	default:
		return math.NaN(), false
	}
}

// Write pushes a record to the Loki client, which batches it
func (l *Loki) Write(record config.GenericMap) {
	if err := l.ProcessRecord(record); err != nil {
		llog.WithError(err).Error("can't write record")
		l.metrics.error("CannotWrite")
	}
}

// Close sends the pending batch and stops the client
func (l *Loki) Close() error {
	l.client.Stop()
	return nil
}

// NewWriteLoki creates a Loki writer from configuration
func NewWriteLoki(opMetrics *operational.Metrics, params config.StageParam) (*Loki, error) {
	llog.Debugf("entering NewWriteLoki")

	lokiParams := api.GetWriteLokiDefaults()
	if params.Write != nil && params.Write.Loki != nil {
		mergeLokiParams(&lokiParams, params.Write.Loki)
	}
	if err := lokiParams.Validate(); err != nil {
		return nil, fmt.Errorf("the provided config is not valid: %w", err)
	}

	lokiConfig, err := buildLokiConfig(&lokiParams)
	if err != nil {
		return nil, err
	}
	client, err := loki.NewWithLogger(lokiConfig, logAdapter.NewLogger(llog))
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, errors.New("can't create loki client")
	}

	staticLabels := model.LabelSet{}
	for k, v := range lokiParams.StaticLabels {
		staticLabels[model.LabelName(k)] = model.LabelValue(v)
	}

	return &Loki{
		lokiConfig:   lokiConfig,
		apiConfig:    lokiParams,
		staticLabels: staticLabels,
		client:       client,
		timeNow:      time.Now,
		metrics:      newMetrics(opMetrics, params.Name, api.LokiType),
	}, nil
}

// mergeLokiParams overrides the defaults with every field set in the stage configuration
func mergeLokiParams(dst *api.WriteLoki, src *api.WriteLoki) {
	if src.URL != "" {
		dst.URL = src.URL
	}
	if src.TenantID != "" {
		dst.TenantID = src.TenantID
	}
	if src.BatchWait != "" {
		dst.BatchWait = src.BatchWait
	}
	if src.BatchSize != 0 {
		dst.BatchSize = src.BatchSize
	}
	if src.Timeout != "" {
		dst.Timeout = src.Timeout
	}
	if src.MinBackoff != "" {
		dst.MinBackoff = src.MinBackoff
	}
	if src.MaxBackoff != "" {
		dst.MaxBackoff = src.MaxBackoff
	}
	if src.MaxRetries != 0 {
		dst.MaxRetries = src.MaxRetries
	}
	if src.Labels != nil {
		dst.Labels = src.Labels
	}
	if src.StaticLabels != nil {
		dst.StaticLabels = src.StaticLabels
	}
	if src.IgnoreList != nil {
		dst.IgnoreList = src.IgnoreList
	}
	if src.TimestampLabel != "" {
		dst.TimestampLabel = src.TimestampLabel
	}
	if src.TimestampScale != "" {
		dst.TimestampScale = src.TimestampScale
	}
}
