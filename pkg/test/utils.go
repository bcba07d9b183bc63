/*
 * Copyright (C) 2021 IBM, Inc.
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

package test

import (
	"bytes"
	"fmt"
	"os"
	"runtime"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/labqc/spc-pipeline/pkg/api"
	"github.com/labqc/spc-pipeline/pkg/config"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

// InitConfig reads a YAML configuration the way the command line does: every section
// is turned into its JSON option, then parsed with config.ParseConfig.
func InitConfig(t *testing.T, conf string) (*viper.Viper, *config.ConfigFileStruct) {
	var json = jsoniter.ConfigCompatibleWithStandardLibrary
	v := viper.New()
	v.SetConfigType("yaml")
	err := v.ReadConfig(bytes.NewReader([]byte(conf)))
	require.NoError(t, err)

	section := func(key string) string {
		if !v.IsSet(key) {
			return ""
		}
		b, err := json.Marshal(v.Get(key))
		require.NoError(t, err)
		return string(b)
	}

	opts := config.Options{
		Mode:            v.GetString("mode"),
		Server:          section("server"),
		Stream:          section("stream"),
		Rules:           section("rules"),
		MetricsSettings: section("metricsSettings"),
	}
	cfg, err := config.ParseConfig(&opts)
	require.NoError(t, err)
	return v, &cfg
}

// Point builds a data point for one level.
func Point(level int, value, mean, sd interface{}) api.DataPoint {
	return api.DataPoint{Level: level, Value: value, Mean: mean, SD: sd}
}

// ShiftRequest is a single level request where runs 1 to 7 sit below the mean and run 7
// is also beyond 2 SD.
func ShiftRequest(rules ...string) *api.SPCRequest {
	values := []float64{9, 9, 9, 9, 9, 9, 7}
	req := &api.SPCRequest{
		RequestID: "shift",
		RuleList:  rules,
		LevelList: []int{1},
	}
	for i, v := range values {
		req.Data = append(req.Data, api.LevelRecord{
			Index: int64(i + 1),
			Datas: []api.DataPoint{Point(1, v, 10, 1)},
		})
	}
	return req
}

// DumpToTemp writes content to a temporary file and returns its path with a cleanup
// function.
func DumpToTemp(content string) (string, func(), error) {
	file, err := os.CreateTemp("", "spc-pipeline-test-")
	if err != nil {
		return "", nil, err
	}
	defer file.Close()
	if _, err := file.WriteString(content); err != nil {
		_ = os.Remove(file.Name())
		return "", nil, err
	}
	return file.Name(), func() { _ = os.Remove(file.Name()) }, nil
}

type attempt struct {
	errs   []string
	failed bool
}

func (a *attempt) Errorf(format string, args ...interface{}) {
	a.errs = append(a.errs, fmt.Sprintf(format, args...))
	a.failed = true
}

func (a *attempt) FailNow() {
	a.failed = true
	runtime.Goexit()
}

// Eventually retries testFunc until it passes without failing, or marks t as failed
// once timeout elapses.
func Eventually(t *testing.T, timeout time.Duration, testFunc func(t require.TestingT)) {
	deadline := time.After(timeout)
	var last []string
	for {
		a := &attempt{}
		done := make(chan struct{})
		go func() {
			defer close(done)
			testFunc(a)
		}()
		select {
		case <-done:
			if !a.failed {
				return
			}
			last = a.errs
		case <-deadline:
			t.Errorf("timed out after %s: %v", timeout, last)
			return
		}
		select {
		case <-deadline:
			t.Errorf("timed out after %s: %v", timeout, last)
			return
		case <-time.After(10 * time.Millisecond):
		}
	}
}
