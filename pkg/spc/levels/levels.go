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

package levels

import (
	"context"
	"sort"

	"github.com/labqc/spc-pipeline/pkg/api"
	"github.com/labqc/spc-pipeline/pkg/config"
	"github.com/labqc/spc-pipeline/pkg/operational"
	"github.com/labqc/spc-pipeline/pkg/spc/aggregate"
	"github.com/labqc/spc-pipeline/pkg/spc/rules"
	"github.com/labqc/spc-pipeline/pkg/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var log = logrus.WithField("component", "spc.Levels")

var droppedPointsCounter = operational.DefineMetric(
	"dropped_points_total",
	"Counter of data points dropped because value, mean or sd is missing or not numeric",
	operational.TypeCounter,
	"level",
)

// Result is the evaluation of one request.
type Result struct {
	Response     api.SPCResponse
	Rules        []api.RuleID
	Unrecognized []api.RuleID
}

// Evaluator turns SPC requests into per index violation reports.
type Evaluator struct {
	engine           *rules.Engine
	aggregator       *aggregate.Aggregator
	keepRequestOrder bool
	maxParallel      int
	profiles         map[string]api.RuleProfile
	profileNames     []string
	dropped          *prometheus.CounterVec
}

func NewEvaluator(settings api.RulesSettings, opMetrics *operational.Metrics) (*Evaluator, error) {
	engine, err := rules.NewEngine(settings)
	if err != nil {
		return nil, err
	}

	all := append([]api.RuleProfile{}, BuiltinProfiles...)
	if settings.ProfilesFile != "" {
		fromFile, err := config.LoadProfiles(settings.ProfilesFile)
		if err != nil {
			return nil, err
		}
		all = append(all, fromFile...)
	}
	all = append(all, settings.Profiles...)

	e := &Evaluator{
		engine:           engine,
		aggregator:       aggregate.NewAggregator(engine, opMetrics),
		keepRequestOrder: settings.KeepRequestOrder,
		maxParallel:      settings.MaxParallel,
		profiles:         map[string]api.RuleProfile{},
		dropped:          opMetrics.NewCounterVec(&droppedPointsCounter),
	}
	if e.maxParallel <= 0 {
		e.maxParallel = config.DefaultMaxParallel
	}
	for _, p := range all {
		if _, exists := e.profiles[p.Name]; !exists {
			e.profileNames = append(e.profileNames, p.Name)
		}
		e.profiles[p.Name] = p
	}
	log.Infof("NewEvaluator r4sMode=%s keepRequestOrder=%t profiles=%v", engine.R4sMode(), e.keepRequestOrder, e.profileNames)
	return e, nil
}

func (e *Evaluator) Engine() *rules.Engine {
	return e.engine
}

// Profiles returns the available profiles, built-in ones first.
func (e *Evaluator) Profiles() []api.RuleProfile {
	out := make([]api.RuleProfile, 0, len(e.profileNames))
	for _, name := range e.profileNames {
		out = append(out, e.profiles[name])
	}
	return out
}

// levelSeries is the observation window of one level, with the run index of each point.
type levelSeries struct {
	level   int
	indexes []int64
	series  rules.Series
	report  aggregate.Report
}

// Evaluate validates the request, evaluates every requested level and reshapes the
// results per run index.
func (e *Evaluator) Evaluate(ctx context.Context, req *api.SPCRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	ruleIDs, err := e.resolveRules(req)
	if err != nil {
		return nil, err
	}
	if len(ruleIDs) == 0 {
		return nil, &rules.ConfigurationError{Reason: "empty rule list: no requested rule is part of the catalogue"}
	}

	selected := e.groupByLevel(req)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxParallel)
	for _, ls := range selected {
		ls := ls
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			report, err := e.aggregator.Aggregate(ruleIDs, ls.series)
			if err != nil {
				return err
			}
			ls.report = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{Rules: ruleIDs, Response: reshape(selected)}
	for _, id := range ruleIDs {
		if !rules.IsKnown(id) {
			res.Unrecognized = append(res.Unrecognized, id)
		}
	}
	return res, nil
}

// groupByLevel builds one series per requested level, in ascending level order, with
// the points that carry a numeric value, mean and sd.
func (e *Evaluator) groupByLevel(req *api.SPCRequest) []*levelSeries {
	wanted := map[int]bool{}
	for _, l := range req.LevelList {
		wanted[l] = true
	}

	byLevel := map[int]*levelSeries{}
	for _, rec := range req.Data {
		for _, dp := range rec.Datas {
			if !wanted[dp.Level] {
				continue
			}
			value, errV := utils.ConvertToFiniteFloat64(dp.Value)
			mean, errM := utils.ConvertToFiniteFloat64(dp.Mean)
			sd, errS := utils.ConvertToFiniteFloat64(dp.SD)
			if errV != nil || errM != nil || errS != nil {
				log.Debugf("dropping point index=%d level=%d: value=%v mean=%v sd=%v", rec.Index, dp.Level, dp.Value, dp.Mean, dp.SD)
				e.dropped.WithLabelValues(levelLabel(dp.Level)).Inc()
				continue
			}
			ls, ok := byLevel[dp.Level]
			if !ok {
				ls = &levelSeries{level: dp.Level}
				byLevel[dp.Level] = ls
			}
			ls.indexes = append(ls.indexes, rec.Index)
			ls.series.Values = append(ls.series.Values, value)
			ls.series.Means = append(ls.series.Means, mean)
			ls.series.Stds = append(ls.series.Stds, sd)
		}
	}

	out := make([]*levelSeries, 0, len(byLevel))
	for _, ls := range byLevel {
		out = append(out, ls)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].level < out[j].level })
	return out
}

// reshape walks levels in ascending order and groups their points per run index. Indexes
// appear in the order they are first met; a level already reported for an index is
// not added again.
func reshape(evaluated []*levelSeries) api.SPCResponse {
	response := api.SPCResponse{}
	position := map[int64]int{}
	for _, ls := range evaluated {
		for i, index := range ls.indexes {
			lr := api.LevelResult{Level: ls.level, SPCViolation: ls.report.Points[i].Violation}
			pos, ok := position[index]
			if !ok {
				position[index] = len(response)
				response = append(response, api.IndexResult{Index: index, Result: []api.LevelResult{lr}})
				continue
			}
			if !hasLevel(response[pos].Result, ls.level) {
				response[pos].Result = append(response[pos].Result, lr)
			}
		}
	}
	return response
}

func hasLevel(results []api.LevelResult, level int) bool {
	for _, r := range results {
		if r.Level == level {
			return true
		}
	}
	return false
}

func levelLabel(level int) string {
	return string(rune('0' + level))
}
