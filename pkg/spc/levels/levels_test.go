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
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/labqc/spc-pipeline/pkg/api"
	"github.com/labqc/spc-pipeline/pkg/operational"
	"github.com/labqc/spc-pipeline/pkg/spc/rules"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEvaluator(t *testing.T, settings api.RulesSettings) *Evaluator {
	e, err := NewEvaluator(settings, operational.NewMetricsWithRegisterer(nil, prometheus.NewRegistry()))
	require.NoError(t, err)
	return e
}

func point(level int, value, mean, sd interface{}) api.DataPoint {
	return api.DataPoint{Level: level, Value: value, Mean: mean, SD: sd}
}

func TestReorderRules(t *testing.T) {
	got := ReorderRules([]api.RuleID{api.Rule10x, "bogus", api.Rule2of3_2, api.Rule1_2s, api.RuleR4s})
	assert.Equal(t, []api.RuleID{api.Rule1_2s, api.Rule2of3_2, api.RuleR4s, api.Rule10x}, got)
	assert.Empty(t, ReorderRules(nil))
}

func TestResolveRules(t *testing.T) {
	e := newTestEvaluator(t, api.RulesSettings{})

	ids, err := e.resolveRules(&api.SPCRequest{Profile: "westgard", RuleList: []string{"1-2s", "1-3s"}})
	require.NoError(t, err)
	assert.Equal(t, []api.RuleID{api.Rule1_2s, api.Rule1_3s, api.Rule2_2s, api.RuleR4s, api.Rule4_1s, api.Rule10x}, ids)

	_, err = e.resolveRules(&api.SPCRequest{Profile: "nope"})
	require.True(t, errors.Is(err, ErrUnknownProfile))

	keep := newTestEvaluator(t, api.RulesSettings{KeepRequestOrder: true})
	ids, err = keep.resolveRules(&api.SPCRequest{RuleList: []string{"7-x", "bogus", "1-2s", "7-x"}})
	require.NoError(t, err)
	assert.Equal(t, []api.RuleID{api.Rule7x, "bogus", api.Rule1_2s}, ids)
}

func TestProfiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
profiles:
  - name: westgard
    description: overridden
    rules: ["1-3s"]
  - name: trend
    rules: ["7-T"]
`), 0o600))

	e := newTestEvaluator(t, api.RulesSettings{
		ProfilesFile: path,
		Profiles:     []api.RuleProfile{{Name: "inline", Rules: []api.RuleID{api.Rule1_2s}}},
	})
	profiles := e.Profiles()
	require.Len(t, profiles, 4)
	assert.Equal(t, "westgard", profiles[0].Name)
	assert.Equal(t, "overridden", profiles[0].Description)
	assert.Equal(t, "westgard-warning", profiles[1].Name)
	assert.Equal(t, "trend", profiles[2].Name)
	assert.Equal(t, "inline", profiles[3].Name)

	_, err := NewEvaluator(api.RulesSettings{ProfilesFile: filepath.Join(dir, "missing.yaml")}, operational.NewMetricsWithRegisterer(nil, prometheus.NewRegistry()))
	require.Error(t, err)
}

func TestEvaluateReshapesPerIndex(t *testing.T) {
	e := newTestEvaluator(t, api.RulesSettings{})
	req := &api.SPCRequest{
		RuleList:  []string{"1-2s", "1-3s"},
		LevelList: []int{2, 1},
		Data: []api.LevelRecord{
			{Index: 7, Datas: []api.DataPoint{point(2, 10, 10, 1), point(1, 13.5, 10, 1)}},
			{Index: 3, Datas: []api.DataPoint{point(1, "12.5", "10", "1")}},
			{Index: 5, Datas: []api.DataPoint{point(2, 7.5, 10, 1), point(3, 100, 10, 1)}},
		},
	}

	res, err := e.Evaluate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []api.RuleID{api.Rule1_2s, api.Rule1_3s}, res.Rules)
	assert.Empty(t, res.Unrecognized)
	assert.Equal(t, api.SPCResponse{
		{Index: 7, Result: []api.LevelResult{{Level: 1, SPCViolation: "1-2s|1-3s|"}, {Level: 2, SPCViolation: ""}}},
		{Index: 3, Result: []api.LevelResult{{Level: 1, SPCViolation: "1-2s|"}}},
		{Index: 5, Result: []api.LevelResult{{Level: 2, SPCViolation: "1-2s|"}}},
	}, res.Response)
}

func TestEvaluateDropsUnusablePoints(t *testing.T) {
	e := newTestEvaluator(t, api.RulesSettings{})
	req := &api.SPCRequest{
		RuleList:  []string{"2-2s"},
		LevelList: []int{1},
		Data: []api.LevelRecord{
			{Index: 1, Datas: []api.DataPoint{point(1, 12.5, 10, 1)}},
			{Index: 2, Datas: []api.DataPoint{point(1, "n/a", 10, 1)}},
			{Index: 3, Datas: []api.DataPoint{point(1, 12.5, nil, 1)}},
			{Index: 4, Datas: []api.DataPoint{point(1, 12.5, 10, 1)}},
		},
	}
	res, err := e.Evaluate(context.Background(), req)
	require.NoError(t, err)
	// the dropped points do not break the run between 1 and 4
	assert.Equal(t, api.SPCResponse{
		{Index: 1, Result: []api.LevelResult{{Level: 1, SPCViolation: ""}}},
		{Index: 4, Result: []api.LevelResult{{Level: 1, SPCViolation: "2-2s|"}}},
	}, res.Response)
	assert.Equal(t, 2.0, testutil.ToFloat64(e.dropped.WithLabelValues("1")))
}

func TestEvaluateDuplicateLevelFirstWins(t *testing.T) {
	e := newTestEvaluator(t, api.RulesSettings{})
	req := &api.SPCRequest{
		RuleList:  []string{"1-3s"},
		LevelList: []int{1},
		Data: []api.LevelRecord{
			{Index: 1, Datas: []api.DataPoint{point(1, 20, 10, 1), point(1, 10, 10, 1)}},
		},
	}
	res, err := e.Evaluate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, api.SPCResponse{
		{Index: 1, Result: []api.LevelResult{{Level: 1, SPCViolation: "1-3s|"}}},
	}, res.Response)
}

func TestEvaluateUnrecognized(t *testing.T) {
	e := newTestEvaluator(t, api.RulesSettings{})
	req := &api.SPCRequest{
		RuleList:  []string{"2/3-2s", "1-2s"},
		LevelList: []int{1, 2},
		Data: []api.LevelRecord{
			{Index: 1, Datas: []api.DataPoint{point(1, 10, 10, 1), point(2, 10, 10, 1)}},
		},
	}
	res, err := e.Evaluate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []api.RuleID{api.Rule2of3_2}, res.Unrecognized)
}

func TestEvaluateUnrecognizedWithoutUsablePoints(t *testing.T) {
	e := newTestEvaluator(t, api.RulesSettings{})
	req := &api.SPCRequest{
		RuleList:  []string{"1-2s", "2/3-2s"},
		LevelList: []int{1},
		Data: []api.LevelRecord{
			{Index: 1, Datas: []api.DataPoint{{Level: 1, Value: "n/a", Mean: 10, SD: 1}}},
		},
	}
	res, err := e.Evaluate(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, res.Response)
	assert.Equal(t, []api.RuleID{api.Rule2of3_2}, res.Unrecognized)

	req.LevelList = []int{5}
	res, err = e.Evaluate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []api.RuleID{api.Rule2of3_2}, res.Unrecognized)
}

func TestEvaluateNoSelectedLevel(t *testing.T) {
	e := newTestEvaluator(t, api.RulesSettings{})
	req := &api.SPCRequest{
		RuleList:  []string{"1-2s"},
		LevelList: []int{4},
		Data:      []api.LevelRecord{{Index: 1, Datas: []api.DataPoint{point(1, 10, 10, 1)}}},
	}
	res, err := e.Evaluate(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, res.Response)
}

func TestEvaluateErrors(t *testing.T) {
	e := newTestEvaluator(t, api.RulesSettings{})
	data := []api.LevelRecord{{Index: 1, Datas: []api.DataPoint{point(1, 10, 10, 1)}}}

	_, err := e.Evaluate(context.Background(), &api.SPCRequest{RuleList: []string{"1-2s"}})
	var invalid *api.InvalidRequestError
	require.True(t, errors.As(err, &invalid))

	_, err = e.Evaluate(context.Background(), &api.SPCRequest{RuleList: []string{"bogus"}, LevelList: []int{1}, Data: data})
	var cfgErr *rules.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.Evaluate(ctx, &api.SPCRequest{RuleList: []string{"1-2s"}, LevelList: []int{1}, Data: data})
	require.ErrorIs(t, err, context.Canceled)
}
