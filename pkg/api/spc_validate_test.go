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

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() SPCRequest {
	return SPCRequest{
		Data: []LevelRecord{
			{Index: 1, Datas: []DataPoint{{Level: 1, Value: 10.0, Mean: 10.0, SD: 1.0}}},
		},
		RuleList:  []string{"1-2s"},
		LevelList: []int{1},
	}
}

func TestSPCRequestValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(r *SPCRequest)
		problems []string
	}{
		{
			name:   "valid",
			mutate: func(_ *SPCRequest) {},
		},
		{
			name:   "profile instead of rule list",
			mutate: func(r *SPCRequest) { r.RuleList = nil; r.Profile = "westgard" },
		},
		{
			name:     "missing rules and profile",
			mutate:   func(r *SPCRequest) { r.RuleList = nil },
			problems: []string{"either rule_list or profile must be provided"},
		},
		{
			name:     "missing data",
			mutate:   func(r *SPCRequest) { r.Data = nil },
			problems: []string{"data is required"},
		},
		{
			name:     "empty level list",
			mutate:   func(r *SPCRequest) { r.LevelList = []int{} },
			problems: []string{"level_list must contain at least 1 element(s)"},
		},
		{
			name:     "level out of range in level list",
			mutate:   func(r *SPCRequest) { r.LevelList = []int{1, 7} },
			problems: []string{"level_list[1] must be between 1 and 6, got 7"},
		},
		{
			name:     "data point without level",
			mutate:   func(r *SPCRequest) { r.Data[0].Datas[0].Level = 0 },
			problems: []string{"data[0].datas[0].level must be between 1 and 6, got 0"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			err := req.Validate()
			if len(tt.problems) == 0 {
				require.NoError(t, err)
				return
			}
			var invalid *InvalidRequestError
			require.True(t, errors.As(err, &invalid), "unexpected error %v", err)
			assert.Equal(t, tt.problems, invalid.Problems)
		})
	}
}

func TestTLSConfigDisabled(t *testing.T) {
	var nilConfig *TLSConfig
	require.False(t, nilConfig.IsEnabled())

	cfg, err := nilConfig.AsServer()
	require.NoError(t, err)
	require.Nil(t, cfg)

	cfg, err = (&TLSConfig{Type: TLSNone}).AsServer()
	require.NoError(t, err)
	require.Nil(t, cfg)
}

func TestTLSConfigErrors(t *testing.T) {
	tests := []struct {
		cfg TLSConfig
		err string
	}{
		{cfg: TLSConfig{Type: TLSSimple}, err: "simple TLS needs both certPath and keyPath"},
		{cfg: TLSConfig{Type: TLSMutual, CertPath: "/tmp/cert.pem"}, err: "mutual TLS needs both certPath and keyPath"},
		{cfg: TLSConfig{Type: TLSMutual, CertPath: "/tmp/cert.pem", KeyPath: "/tmp/key.pem"}, err: "mutual TLS needs caCertPath"},
		{cfg: TLSConfig{Type: "ssl", CertPath: "/tmp/cert.pem", KeyPath: "/tmp/key.pem"}, err: `unknown TLS type "ssl"`},
	}
	for _, tt := range tests {
		_, err := tt.cfg.AsServer()
		require.EqualError(t, err, tt.err)
	}

	_, err := (&TLSConfig{Type: TLSSimple, CertPath: "/nonexistent/cert.pem", KeyPath: "/nonexistent/key.pem"}).AsServer()
	require.ErrorContains(t, err, "loading server certificate")
}

func TestRulesSettingsDefaultMode(t *testing.T) {
	require.Equal(t, R4sPrefixMin, (&RulesSettings{}).GetR4sMode())
	require.Equal(t, R4sSeriesMin, (&RulesSettings{R4sMode: R4sSeriesMin}).GetR4sMode())
}
