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

package decode

import (
	"testing"

	"github.com/labqc/spc-pipeline/pkg/api"
	"github.com/stretchr/testify/require"
)

func initNewDecodeJSON(t *testing.T) Decoder {
	newDecode, err := NewDecodeJSON()
	require.NoError(t, err)
	return newDecode
}

func TestDecodeJSON(t *testing.T) {
	decoder := initNewDecodeJSON(t)
	in := `{
		"request_id": "abc",
		"rule_list": ["1-2s", "R-4s"],
		"level_list": [1, 2],
		"data": [
			{"index": 12, "datas": [{"level": 1, "value": 10.5, "mean": "10", "sd": 0.5}]},
			{"index": 13, "datas": [{"level": 2, "value": "x"}]}
		]
	}`
	req, err := decoder.Decode([]byte(in))
	require.NoError(t, err)
	require.Equal(t, "abc", req.RequestID)
	require.Equal(t, []string{"1-2s", "R-4s"}, req.RuleList)
	require.Equal(t, []int{1, 2}, req.LevelList)
	require.Len(t, req.Data, 2)
	require.Equal(t, int64(12), req.Data[0].Index)
	require.Equal(t, api.DataPoint{Level: 1, Value: 10.5, Mean: "10", SD: 0.5}, req.Data[0].Datas[0])
	require.Equal(t, api.DataPoint{Level: 2, Value: "x"}, req.Data[1].Datas[0])
}

func TestDecodeJSONWeakTypes(t *testing.T) {
	decoder := initNewDecodeJSON(t)
	in := `{"rule_list": "1-3s", "level_list": ["3"], "data": [{"index": "7", "datas": [{"level": "3", "value": 1, "mean": 1, "sd": 1}]}]}`
	req, err := decoder.Decode([]byte(in))
	require.NoError(t, err)
	require.Equal(t, []string{"1-3s"}, req.RuleList)
	require.Equal(t, []int{3}, req.LevelList)
	require.Equal(t, int64(7), req.Data[0].Index)
	require.Equal(t, 3, req.Data[0].Datas[0].Level)
}

func TestDecodeJSONRejectsInexactIntegers(t *testing.T) {
	decoder := initNewDecodeJSON(t)
	tests := []struct {
		name string
		in   string
		err  string
	}{
		{"fractional index", `{"data": [{"index": 1.2, "datas": [{"level": 1, "value": 13, "mean": 10, "sd": 1}]}]}`, "got 1.2"},
		{"fractional level", `{"data": [{"index": 1, "datas": [{"level": 1.5}]}]}`, "got 1.5"},
		{"fractional level_list", `{"level_list": [1, 2.7]}`, "got 2.7"},
		{"boolean level", `{"data": [{"index": 3, "datas": [{"level": true, "value": 13, "mean": 10, "sd": 1}]}]}`, "got boolean true"},
		{"boolean index", `{"data": [{"index": false}]}`, "got boolean false"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decoder.Decode([]byte(tt.in))
			require.ErrorContains(t, err, tt.err)
		})
	}

	// integral floats and numeric strings still decode
	req, err := decoder.Decode([]byte(`{"level_list": [2.0], "data": [{"index": 1e3, "datas": [{"level": "2", "value": true}]}]}`))
	require.NoError(t, err)
	require.Equal(t, []int{2}, req.LevelList)
	require.Equal(t, int64(1000), req.Data[0].Index)
	require.Equal(t, 2, req.Data[0].Datas[0].Level)
}

func TestDecodeJSONErrors(t *testing.T) {
	decoder := initNewDecodeJSON(t)
	for _, in := range []string{``, `not json`, `[1, 2]`, `null`, `{"data": "oops"}`, `{"level_list": [{"a": 1}]}`} {
		t.Run(in, func(t *testing.T) {
			_, err := decoder.Decode([]byte(in))
			require.Error(t, err)
		})
	}
}
