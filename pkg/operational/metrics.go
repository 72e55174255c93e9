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

package operational

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robotpm/pm-pipeline/pkg/config"
	log "github.com/sirupsen/logrus"
)

const defaultPrefix = "pm_pipeline_"

type MetricType string

const TypeCounter MetricType = "counter"
const TypeGauge MetricType = "gauge"
const TypeHistogram MetricType = "histogram"

var (
	allMetrics   = []MetricDefinition{}
	allMetricsMu sync.Mutex
	mlog         = log.WithField("component", "operational")
)

type MetricDefinition struct {
	Name   string
	Help   string
	Type   MetricType
	Labels []string
}

// DefineMetric declares an operational metric. Definitions are collected so
// that GetDocumentation can list them.
func DefineMetric(name, help string, t MetricType, labels ...string) MetricDefinition {
	def := MetricDefinition{
		Name:   name,
		Help:   help,
		Type:   t,
		Labels: labels,
	}
	allMetricsMu.Lock()
	allMetrics = append(allMetrics, def)
	allMetricsMu.Unlock()
	return def
}

var (
	recordsProcessed = DefineMetric(
		"records_processed",
		"Number of records processed by a stage",
		TypeCounter,
		"stage",
	)
	stageInQueueSize = DefineMetric(
		"stage_in_queue_size",
		"Pipeline stage input queue size (number of records)",
		TypeGauge,
		"stage",
	)
	stageOutQueueSize = DefineMetric(
		"stage_out_queue_size",
		"Pipeline stage output queue size (number of records)",
		TypeGauge,
		"stage",
	)
	stageDuration = DefineMetric(
		"stage_duration_ms",
		"Pipeline stage duration in milliseconds",
		TypeHistogram,
		"stage",
	)
)

func (def *MetricDefinition) mapLabels(labels []string) prometheus.Labels {
	if len(labels) != len(def.Labels) {
		mlog.Errorf("Could not map labels, length differ in def %s [%v / %v]", def.Name, def.Labels, labels)
	}
	labelsMap := prometheus.Labels{}
	for i, label := range labels {
		if i < len(def.Labels) {
			labelsMap[def.Labels[i]] = label
		}
	}
	return labelsMap
}

func verifyMetricType(def *MetricDefinition, t MetricType) {
	if def.Type != t {
		mlog.Panicf("operational metric for %s has wrong type: %s, expected %s", def.Name, def.Type, t)
	}
}

// Metrics creates and registers the operational metrics of the pipeline,
// on the default prometheus registerer unless told otherwise.
type Metrics struct {
	settings           *config.MetricsSettings
	registerer         prometheus.Registerer
	stageDurationHisto *prometheus.HistogramVec
	mu                 sync.Mutex
}

func NewMetrics(settings *config.MetricsSettings) *Metrics {
	return NewMetricsWithRegisterer(settings, prometheus.DefaultRegisterer)
}

func NewMetricsWithRegisterer(settings *config.MetricsSettings, reg prometheus.Registerer) *Metrics {
	if settings == nil {
		settings = &config.MetricsSettings{}
	}
	return &Metrics{settings: settings, registerer: reg}
}

func (o *Metrics) prefix() string {
	if o.settings.Prefix == "" {
		return defaultPrefix
	}
	return o.settings.Prefix
}

// register registers the collector, or returns the one already registered
// under the same descriptor.
func (o *Metrics) register(c prometheus.Collector, name string) prometheus.Collector {
	err := o.registerer.Register(c)
	if err == nil {
		return c
	}
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		return already.ExistingCollector
	}
	if o.settings.NoPanic {
		mlog.Errorf("metrics registration error [%s]: %v", name, err)
		return c
	}
	mlog.Panicf("metrics registration error [%s]: %v", name, err)
	return nil
}

func (o *Metrics) NewCounter(def *MetricDefinition, labels ...string) prometheus.Counter {
	verifyMetricType(def, TypeCounter)
	fullName := o.prefix() + def.Name
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        fullName,
		Help:        def.Help,
		ConstLabels: def.mapLabels(labels),
	})
	return o.register(c, fullName).(prometheus.Counter)
}

func (o *Metrics) NewCounterVec(def *MetricDefinition) *prometheus.CounterVec {
	verifyMetricType(def, TypeCounter)
	fullName := o.prefix() + def.Name
	c := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: fullName,
		Help: def.Help,
	}, def.Labels)
	return o.register(c, fullName).(*prometheus.CounterVec)
}

func (o *Metrics) NewGauge(def *MetricDefinition, labels ...string) prometheus.Gauge {
	verifyMetricType(def, TypeGauge)
	fullName := o.prefix() + def.Name
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        fullName,
		Help:        def.Help,
		ConstLabels: def.mapLabels(labels),
	})
	return o.register(g, fullName).(prometheus.Gauge)
}

func (o *Metrics) NewGaugeVec(def *MetricDefinition) *prometheus.GaugeVec {
	verifyMetricType(def, TypeGauge)
	fullName := o.prefix() + def.Name
	g := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: fullName,
		Help: def.Help,
	}, def.Labels)
	return o.register(g, fullName).(*prometheus.GaugeVec)
}

func (o *Metrics) newGaugeFunc(def *MetricDefinition, f func() float64, labels ...string) {
	verifyMetricType(def, TypeGauge)
	fullName := o.prefix() + def.Name
	gf := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name:        fullName,
		Help:        def.Help,
		ConstLabels: def.mapLabels(labels),
	}, f)
	o.register(gf, fullName)
}

func (o *Metrics) NewHistogram(def *MetricDefinition, buckets []float64, labels ...string) prometheus.Histogram {
	verifyMetricType(def, TypeHistogram)
	fullName := o.prefix() + def.Name
	h := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        fullName,
		Help:        def.Help,
		ConstLabels: def.mapLabels(labels),
		Buckets:     buckets,
	})
	return o.register(h, fullName).(prometheus.Histogram)
}

func (o *Metrics) NewHistogramVec(def *MetricDefinition, buckets []float64) *prometheus.HistogramVec {
	verifyMetricType(def, TypeHistogram)
	fullName := o.prefix() + def.Name
	h := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    fullName,
		Help:    def.Help,
		Buckets: buckets,
	}, def.Labels)
	return o.register(h, fullName).(*prometheus.HistogramVec)
}

// RecordsProcessed returns the processed records counter of a stage.
func (o *Metrics) RecordsProcessed(stage string) prometheus.Counter {
	return o.NewCounter(&recordsProcessed, stage)
}

func (o *Metrics) CreateInQueueSizeGauge(stage string, f func() int) {
	o.newGaugeFunc(&stageInQueueSize, func() float64 { return float64(f()) }, stage)
}

func (o *Metrics) CreateOutQueueSizeGauge(stage string, f func() int) {
	o.newGaugeFunc(&stageOutQueueSize, func() float64 { return float64(f()) }, stage)
}

func (o *Metrics) GetOrCreateStageDurationHisto() *prometheus.HistogramVec {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stageDurationHisto == nil {
		o.stageDurationHisto = o.NewHistogramVec(&stageDuration, []float64{.001, .01, .1, 1, 10, 100, 1000, 10000})
	}
	return o.stageDurationHisto
}

// GetDocumentation renders every defined metric as markdown.
func GetDocumentation() string {
	allMetricsMu.Lock()
	defs := make([]MetricDefinition, len(allMetrics))
	copy(defs, allMetrics)
	allMetricsMu.Unlock()
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })

	var sb strings.Builder
	for _, opts := range defs {
		sb.WriteString(fmt.Sprintf(
			`
### %s
| **Name** | %s |
|:---|:---|
| **Description** | %s |
| **Type** | %s |
| **Labels** | %s |

`,
			opts.Name,
			defaultPrefix+opts.Name,
			opts.Help,
			opts.Type,
			strings.Join(opts.Labels, ", "),
		))
	}
	return sb.String()
}

// Timer observes the milliseconds elapsed since its creation.
type Timer struct {
	startTime *time.Time
	observer  prometheus.Observer
}

func NewTimer(o prometheus.Observer) *Timer {
	return &Timer{
		observer: o,
	}
}

// Start starts or restarts the timer
func (t *Timer) Start() time.Time {
	now := time.Now()
	t.startTime = &now
	return now
}

// ObserveMilliseconds stops the timer and observes the duration in milliseconds
func (t *Timer) ObserveMilliseconds() {
	if t.startTime == nil {
		return
	}
	t.observer.Observe(float64(time.Since(*t.startTime).Milliseconds()))
	t.startTime = nil
}
