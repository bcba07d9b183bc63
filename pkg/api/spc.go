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

package api

const (
	MinLevel = 1
	MaxLevel = 6
)

// SPCRequest is the body accepted by the SPC endpoint and by stream ingesters.
type SPCRequest struct {
	RequestID string        `json:"request_id,omitempty"`
	Data      []LevelRecord `json:"data" validate:"required,min=1,dive"`
	RuleList  []string      `json:"rule_list,omitempty"`
	Profile   string        `json:"profile,omitempty"`
	LevelList []int         `json:"level_list" validate:"required,min=1,dive,min=1,max=6"`
}

// LevelRecord groups the data points measured for one run index.
type LevelRecord struct {
	Index int64       `json:"index"`
	Datas []DataPoint `json:"datas" validate:"dive"`
}

// DataPoint values are kept loosely typed: numbers and numeric strings are accepted,
// anything else makes the point unusable for its level.
type DataPoint struct {
	Level int         `json:"level" validate:"min=1,max=6"`
	Value interface{} `json:"value,omitempty"`
	Mean  interface{} `json:"mean,omitempty"`
	SD    interface{} `json:"sd,omitempty"`
}

type LevelResult struct {
	Level        int    `json:"level"`
	SPCViolation string `json:"spcViolation"`
}

type IndexResult struct {
	Index  int64         `json:"index"`
	Result []LevelResult `json:"result"`
}

type SPCResponse []IndexResult

// SPCResult wraps a response with the metadata written by the stream writers.
type SPCResult struct {
	RequestID    string      `json:"request_id,omitempty"`
	Results      SPCResponse `json:"results"`
	Unrecognized []string    `json:"unrecognized,omitempty"`
	Error        string      `json:"error,omitempty"`
}
