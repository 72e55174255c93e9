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

package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robotpm/pm-pipeline/pkg/api"
	"github.com/robotpm/pm-pipeline/pkg/config"
	"github.com/robotpm/pm-pipeline/pkg/dataset"
	"github.com/robotpm/pm-pipeline/pkg/detect"
	"github.com/robotpm/pm-pipeline/pkg/model"
	"github.com/robotpm/pm-pipeline/pkg/operational"
	"github.com/robotpm/pm-pipeline/pkg/pipeline/utils"
	log "github.com/sirupsen/logrus"
)

var elog = log.WithField("component", "extract.Events")

var (
	eventsEmitted = operational.DefineMetric(
		"events_emitted",
		"Number of ALERT and ERROR events emitted",
		operational.TypeCounter,
		"stage", "type",
	)
	outOfOrderRecords = operational.DefineMetric(
		"events_out_of_order_records",
		"Number of records dropped because their time precedes the previous record",
		operational.TypeCounter,
		"stage",
	)
	extractErrors = operational.DefineMetric(
		"extract_errors",
		"Counter of records dropped by an extract stage",
		operational.TypeCounter,
		"stage", "code",
	)
)

// Events runs one streaming detector per channel over the deviations carried
// by the records, and emits the events they close.
type Events struct {
	stage      string
	timeColumn string
	channels   []string
	rules      detect.RuleConfig
	streams    []*detect.Stream
	started    bool
	lastTime   float64
	emitted    *prometheus.CounterVec
	outOfOrder prometheus.Counter
	errors     *prometheus.CounterVec
}

// Extract feeds each record to the detectors and returns the closed events as records
func (e *Events) Extract(entries []config.GenericMap) []config.GenericMap {
	var out []config.GenericMap
	for _, entry := range entries {
		out = append(out, e.push(entry)...)
	}
	return out
}

func (e *Events) push(entry config.GenericMap) []config.GenericMap {
	t, err := entry.LookupFloat(e.timeColumn)
	if err != nil {
		elog.WithError(err).Debug("dropping record")
		e.errors.WithLabelValues(e.stage, "MissingTime").Inc()
		return nil
	}
	if e.started && t < e.lastTime {
		elog.Warnf("dropping record at %s=%v: it precedes %v", e.timeColumn, t, e.lastTime)
		e.outOfOrder.Inc()
		return nil
	}
	if e.streams == nil {
		if err := e.initStreams(entry); err != nil {
			elog.WithError(err).Error("can't start detectors")
			e.errors.WithLabelValues(e.stage, "NoChannel").Inc()
			return nil
		}
	}
	deviations := make([]float64, len(e.channels))
	for i, ch := range e.channels {
		d, err := deviation(entry, ch)
		if err != nil {
			elog.WithError(err).Debug("dropping record")
			e.errors.WithLabelValues(e.stage, "MissingDeviation").Inc()
			return nil
		}
		deviations[i] = d
	}
	e.started, e.lastTime = true, t

	var out []config.GenericMap
	for i, s := range e.streams {
		out = e.emit(out, s.Push(t, deviations[i]))
	}
	return out
}

// Flush closes the runs still open at the end of the input
func (e *Events) Flush() []config.GenericMap {
	var out []config.GenericMap
	for _, s := range e.streams {
		out = e.emit(out, s.Flush())
	}
	e.streams = nil
	e.started = false
	return out
}

func (e *Events) emit(out []config.GenericMap, events []detect.Event) []config.GenericMap {
	for _, ev := range events {
		e.emitted.WithLabelValues(e.stage, string(ev.EventType)).Inc()
		out = append(out, utils.EventToRecord(ev))
	}
	return out
}

func (e *Events) initStreams(entry config.GenericMap) error {
	if len(e.channels) == 0 {
		e.channels = discoverChannels(entry)
		if len(e.channels) == 0 {
			return errors.New("no deviation or residual field in the first record")
		}
		elog.Infof("detecting events on channels %v", e.channels)
	}
	streams := make([]*detect.Stream, 0, len(e.channels))
	for _, ch := range e.channels {
		s, err := detect.NewStream(ch, e.rules)
		if err != nil {
			return err
		}
		streams = append(streams, s)
	}
	e.streams = streams
	return nil
}

// deviation prefers the deviation field, then clamps the residual.
func deviation(entry config.GenericMap, ch string) (float64, error) {
	if _, ok := entry[utils.DeviationField(ch)]; ok {
		return entry.LookupFloat(utils.DeviationField(ch))
	}
	if _, ok := entry[utils.ResidualField(ch)]; ok {
		r, err := entry.LookupFloat(utils.ResidualField(ch))
		if err != nil {
			return 0, err
		}
		return model.Deviation(r), nil
	}
	return 0, fmt.Errorf("no deviation for channel %q", ch)
}

func discoverChannels(entry config.GenericMap) []string {
	seen := map[string]struct{}{}
	for k := range entry {
		for _, suffix := range []string{utils.DeviationSuffix, utils.ResidualSuffix} {
			if ch, ok := strings.CutSuffix(k, suffix); ok && ch != "" {
				seen[ch] = struct{}{}
			}
		}
	}
	channels := make([]string, 0, len(seen))
	for ch := range seen {
		channels = append(channels, ch)
	}
	sort.Strings(channels)
	return channels
}

// rulesFor reads the persisted thresholds, if any, and applies the overrides.
func rulesFor(cfg *api.ExtractEvents) (detect.RuleConfig, error) {
	var rules detect.RuleConfig
	if cfg.ArtifactsDir != "" {
		t, err := model.LoadThresholds(filepath.Join(cfg.ArtifactsDir, model.ThresholdsFile))
		if err != nil {
			return rules, err
		}
		rules = t.Rules()
	} else if cfg.MinC == nil || cfg.MaxC == nil || cfg.T == nil {
		return rules, errors.New("without artifactsDir, minC, maxC and t must all be provided")
	}
	if cfg.MinC != nil {
		rules.MinC = *cfg.MinC
	}
	if cfg.MaxC != nil {
		rules.MaxC = *cfg.MaxC
	}
	if cfg.T != nil {
		rules.T = *cfg.T
	}
	return rules, rules.Validate()
}

// NewExtractEvents creates the event detection stage
func NewExtractEvents(opMetrics *operational.Metrics, params config.StageParam) (Extractor, error) {
	elog.Debugf("entering NewExtractEvents")
	if params.Extract == nil || params.Extract.Events == nil {
		return nil, errors.New("missing events configuration")
	}
	cfg := params.Extract.Events
	rules, err := rulesFor(cfg)
	if err != nil {
		return nil, err
	}
	timeColumn := cfg.TimeColumn
	if timeColumn == "" {
		timeColumn = dataset.DefaultTimeColumn
	}
	elog.Infof("NewExtractEvents minC=%v maxC=%v T=%v channels=%v", rules.MinC, rules.MaxC, rules.T, cfg.Channels)
	return &Events{
		stage:      params.Name,
		timeColumn: timeColumn,
		channels:   append([]string(nil), cfg.Channels...),
		rules:      rules,
		emitted:    opMetrics.NewCounterVec(&eventsEmitted),
		outOfOrder: opMetrics.NewCounter(&outOfOrderRecords, params.Name),
		errors:     opMetrics.NewCounterVec(&extractErrors),
	}, nil
}
