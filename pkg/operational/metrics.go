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

	"github.com/labqc/spc-pipeline/pkg/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

type MetricType string

const (
	TypeCounter   MetricType = "counter"
	TypeGauge     MetricType = "gauge"
	TypeHistogram MetricType = "histogram"
)

var log = logrus.WithField("component", "operational")

type MetricDefinition struct {
	Name   string
	Help   string
	Type   MetricType
	Labels []string
}

var (
	allMetrics   []MetricDefinition
	allMetricsMu sync.Mutex
)

// DefineMetric declares an operational metric. Definitions are kept for documentation.
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

// Metrics creates the operational collectors, prefixed with the configured prefix and
// registered in the default prometheus registry.
type Metrics struct {
	settings   *config.MetricsSettings
	registerer prometheus.Registerer
}

func NewMetrics(settings *config.MetricsSettings) *Metrics {
	if settings == nil {
		settings = &config.MetricsSettings{Prefix: config.DefaultMetricsPrefix}
	}
	return &Metrics{
		settings:   settings,
		registerer: prometheus.DefaultRegisterer,
	}
}

// NewMetricsWithRegisterer is used by tests that need an isolated registry.
func NewMetricsWithRegisterer(settings *config.MetricsSettings, reg prometheus.Registerer) *Metrics {
	m := NewMetrics(settings)
	m.registerer = reg
	return m
}

func (o *Metrics) fullName(def *MetricDefinition) string {
	return o.settings.Prefix + def.Name
}

// register returns the collector already registered under the same description when
// there is one, so that components can be instantiated several times.
func (o *Metrics) register(c prometheus.Collector, name string) prometheus.Collector {
	err := o.registerer.Register(c)
	if err == nil {
		return c
	}
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		return already.ExistingCollector
	}
	log.Errorf("could not register metric %s: %v", name, err)
	return c
}

func (o *Metrics) NewCounter(def *MetricDefinition) prometheus.Counter {
	name := o.fullName(def)
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: def.Help})
	return o.register(c, name).(prometheus.Counter)
}

func (o *Metrics) NewCounterVec(def *MetricDefinition) *prometheus.CounterVec {
	name := o.fullName(def)
	c := prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: def.Help}, def.Labels)
	return o.register(c, name).(*prometheus.CounterVec)
}

func (o *Metrics) NewGauge(def *MetricDefinition) prometheus.Gauge {
	name := o.fullName(def)
	g := prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: def.Help})
	return o.register(g, name).(prometheus.Gauge)
}

func (o *Metrics) NewHistogramVec(def *MetricDefinition, buckets []float64) *prometheus.HistogramVec {
	name := o.fullName(def)
	h := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: name, Help: def.Help, Buckets: buckets}, def.Labels)
	return o.register(h, name).(*prometheus.HistogramVec)
}

// GetDocumentation renders every defined metric as markdown.
func GetDocumentation() string {
	allMetricsMu.Lock()
	defs := append([]MetricDefinition{}, allMetrics...)
	allMetricsMu.Unlock()
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })

	doc := ""
	for _, opts := range defs {
		name := config.DefaultMetricsPrefix + opts.Name
		labels := strings.Join(opts.Labels, ", ")
		doc += fmt.Sprintf(
			`
### %s
| **Name** | %s |
|:---|:---|
| **Description** | %s |
| **Type** | %s |
| **Labels** | %s |

`,
			name,
			name,
			opts.Help,
			opts.Type,
			labels,
		)
	}

	return doc
}
