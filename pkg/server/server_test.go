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

package server

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"github.com/labqc/spc-pipeline/pkg/api"
	"github.com/labqc/spc-pipeline/pkg/operational"
	"github.com/labqc/spc-pipeline/pkg/spc/levels"
	"github.com/labqc/spc-pipeline/pkg/test"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T, settings api.ServerSettings) *Server {
	opMetrics := operational.NewMetricsWithRegisterer(nil, prometheus.NewRegistry())
	evaluator, err := levels.NewEvaluator(api.RulesSettings{}, opMetrics)
	require.NoError(t, err)
	s, err := NewServer(settings, evaluator, opMetrics)
	require.NoError(t, err)
	return s
}

func do(s *Server, method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestHandleSPC(t *testing.T) {
	s := newTestServer(t, api.ServerSettings{})
	body, err := json.Marshal(test.ShiftRequest("7-x", "1-2s", "2/3-2s"))
	require.NoError(t, err)

	w := do(s, http.MethodPost, "/spc", body, map[string]string{RequestIDHeader: "lab-42"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "lab-42", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "2/3-2s", w.Header().Get(UnrecognizedHeader))

	var resp api.SPCResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 7)
	// canonical order: 1-2s before 7-x
	assert.Equal(t, api.IndexResult{Index: 7, Result: []api.LevelResult{{Level: 1, SPCViolation: "1-2s|7-x|"}}}, resp[6])
	assert.Equal(t, api.IndexResult{Index: 1, Result: []api.LevelResult{{Level: 1, SPCViolation: ""}}}, resp[0])

	assert.Equal(t, 1.0, testutil.ToFloat64(s.requests.WithLabelValues("200")))
}

func TestHandleSPCRequestID(t *testing.T) {
	s := newTestServer(t, api.ServerSettings{})

	body, err := json.Marshal(test.ShiftRequest("1-2s"))
	require.NoError(t, err)
	w := do(s, http.MethodPost, "/spc", body, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "shift", w.Header().Get(RequestIDHeader))

	req := test.ShiftRequest("1-2s")
	req.RequestID = ""
	body, err = json.Marshal(req)
	require.NoError(t, err)
	w = do(s, http.MethodPost, "/spc", body, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
}

func TestHandleSPCProfile(t *testing.T) {
	s := newTestServer(t, api.ServerSettings{})
	req := test.ShiftRequest()
	req.Profile = "westgard-warning"
	body, err := json.Marshal(req)
	require.NoError(t, err)

	w := do(s, http.MethodPost, "/spc", body, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp api.SPCResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "1-2s|", resp[6].Result[0].SPCViolation)
}

func TestHandleSPCErrors(t *testing.T) {
	s := newTestServer(t, api.ServerSettings{MaxBodyBytes: 512})
	large := `{"rule_list": ["1-2s"], "level_list": [1], "data": [` + strings.Repeat(`{"index": 1, "datas": []},`, 40) + `{"index": 1}]}`

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{name: "not json", body: `{`, status: http.StatusBadRequest, code: "INVALID_JSON"},
		{name: "missing data", body: `{"rule_list": ["1-2s"], "level_list": [1]}`, status: http.StatusBadRequest, code: "INVALID_REQUEST"},
		{name: "level out of range", body: `{"rule_list": ["1-2s"], "level_list": [7], "data": [{"index": 1}]}`, status: http.StatusBadRequest, code: "INVALID_REQUEST"},
		{name: "no known rule", body: `{"rule_list": ["bogus"], "level_list": [1], "data": [{"index": 1}]}`, status: http.StatusBadRequest, code: "CONFIGURATION_ERROR"},
		{name: "unknown profile", body: `{"profile": "nope", "level_list": [1], "data": [{"index": 1}]}`, status: http.StatusBadRequest, code: "UNKNOWN_PROFILE"},
		{name: "too large", body: large, status: http.StatusRequestEntityTooLarge, code: "BODY_TOO_LARGE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(s, http.MethodPost, "/spc", []byte(tt.body), nil)
			require.Equal(t, tt.status, w.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Code)
			assert.NotEmpty(t, resp.Error)
		})
	}
	assert.Equal(t, 5.0, testutil.ToFloat64(s.requests.WithLabelValues("400")))
}

func TestHandleRulesAndProfiles(t *testing.T) {
	s := newTestServer(t, api.ServerSettings{})

	w := do(s, http.MethodGet, "/rules", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var rules RulesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rules))
	assert.Equal(t, api.R4sPrefixMin, rules.R4sMode)
	require.Len(t, rules.Rules, 16)
	assert.Equal(t, api.Rule1_2s, rules.Rules[0].ID)

	w = do(s, http.MethodGet, "/profiles", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var profiles []api.RuleProfile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profiles))
	require.Len(t, profiles, 2)
	assert.Equal(t, "westgard", profiles[0].Name)

	w = do(s, http.MethodGet, "/nowhere", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServerStartShutdown(t *testing.T) {
	s := newTestServer(t, api.ServerSettings{Address: "127.0.0.1", Port: 7011})
	done := make(chan error, 1)
	go func() { done <- s.Start() }()

	url := fmt.Sprintf("http://127.0.0.1:%d/rules", 7011)
	test.Eventually(t, 5*time.Second, func(t require.TestingT) {
		resp, err := http.Get(url)
		require.NoError(t, err)
		_ = resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	})
	require.NoError(t, s.IsReady()())

	require.NoError(t, s.Shutdown(context.Background()))
	require.NoError(t, <-done)
	require.Error(t, s.IsReady()())
}

func TestServerBadTLS(t *testing.T) {
	s := newTestServer(t, api.ServerSettings{Address: "127.0.0.1", Port: 7012, TLS: &api.TLSConfig{Type: api.TLSSimple}})
	require.Error(t, s.Start())
}

func TestServerTLS(t *testing.T) {
	ca, cert, key, cleanup := test.CreateAllCerts(t)
	defer cleanup()

	tests := []struct {
		name string
		port int
		tls  api.TLSConfig
	}{
		{name: "simple", port: 7013, tls: api.TLSConfig{Type: api.TLSSimple, CertPath: cert, KeyPath: key}},
		{name: "mutual", port: 7014, tls: api.TLSConfig{Type: api.TLSMutual, CertPath: cert, KeyPath: key, CACertPath: ca}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tlsConfig := tt.tls
			s := newTestServer(t, api.ServerSettings{Address: "127.0.0.1", Port: tt.port, TLS: &tlsConfig})
			done := make(chan error, 1)
			go func() { done <- s.Start() }()

			client := &http.Client{Transport: &http.Transport{TLSClientConfig: test.ClientTLS(t)}}
			url := fmt.Sprintf("https://127.0.0.1:%d/profiles", tt.port)
			test.Eventually(t, 5*time.Second, func(t require.TestingT) {
				resp, err := client.Get(url)
				require.NoError(t, err)
				_ = resp.Body.Close()
				require.Equal(t, http.StatusOK, resp.StatusCode)
			})

			require.NoError(t, s.Shutdown(context.Background()))
			require.NoError(t, <-done)
		})
	}
}
