/*
 * Copyright (C) 2024 IBM, Inc.
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

package aggregate

import (
	"strings"

	"github.com/labqc/spc-pipeline/pkg/api"
	"github.com/labqc/spc-pipeline/pkg/operational"
	"github.com/labqc/spc-pipeline/pkg/spc/rules"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// Separator follows every fired rule in a violation label.
const Separator = "|"

var log = logrus.WithField("component", "spc.Aggregator")

var (
	violationsCounter = operational.DefineMetric(
		"rule_violations_total",
		"Counter of points flagged by each rule",
		operational.TypeCounter,
		"rule",
	)
	unrecognizedCounter = operational.DefineMetric(
		"unrecognized_rules_total",
		"Counter of requested rule identifiers without a detector",
		operational.TypeCounter,
	)
)

// Point is one observation with the rules it violates.
type Point struct {
	Value     float64
	Violation string
}

// Report is the result of one aggregation.
type Report struct {
	Points       []Point
	Unrecognized []api.RuleID
}

type Aggregator struct {
	engine       *rules.Engine
	violations   *prometheus.CounterVec
	unrecognized prometheus.Counter
}

func NewAggregator(engine *rules.Engine, opMetrics *operational.Metrics) *Aggregator {
	return &Aggregator{
		engine:       engine,
		violations:   opMetrics.NewCounterVec(&violationsCounter),
		unrecognized: opMetrics.NewCounter(&unrecognizedCounter),
	}
}

// Aggregate evaluates the requested rules, in request order, and labels every point
// with the identifiers of the rules it violates, each followed by Separator.
// Identifiers without a detector are skipped and reported once per call.
func (a *Aggregator) Aggregate(ruleIDs []api.RuleID, s rules.Series) (Report, error) {
	if len(ruleIDs) == 0 {
		return Report{}, &rules.ConfigurationError{Reason: "empty rule list"}
	}
	if err := s.Validate(); err != nil {
		return Report{}, err
	}

	labels := make([]strings.Builder, s.Len())
	var unrecognized []api.RuleID
	for _, id := range ruleIDs {
		detect, ok := a.engine.Lookup(id)
		if !ok {
			unrecognized = append(unrecognized, id)
			continue
		}
		fired := 0
		for i, violated := range detect(s) {
			if violated {
				labels[i].WriteString(string(id))
				labels[i].WriteString(Separator)
				fired++
			}
		}
		if fired > 0 {
			a.violations.WithLabelValues(string(id)).Add(float64(fired))
		}
	}

	if len(unrecognized) > 0 {
		a.unrecognized.Add(float64(len(unrecognized)))
		log.WithField("rules", unrecognized).Warn("The provided rule list includes unrecognized rule names.")
	}

	points := make([]Point, s.Len())
	for i := range points {
		points[i] = Point{Value: s.Values[i], Violation: labels[i].String()}
	}
	return Report{Points: points, Unrecognized: unrecognized}, nil
}
