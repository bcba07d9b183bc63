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

package config

import (
	"bytes"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/labqc/spc-pipeline/pkg/api"
	"github.com/sirupsen/logrus"
)

const (
	DefaultMetricsPrefix = "spc_"
	DefaultMetricsPort   = 9102
	DefaultServerAddress = "0.0.0.0"
	DefaultServerPort    = 5000
	DefaultMaxBodyBytes  = 8 << 20
	DefaultTimeoutSecs   = 30
	DefaultMaxParallel   = api.MaxLevel
)

// Options holds the raw command line values. Structured sections are passed as JSON
// strings; viper copies config file sections into them.
type Options struct {
	Mode            string
	Server          string
	Stream          string
	Rules           string
	MetricsSettings string
	Health          Health
	Profile         Profile
}

type Health struct {
	Address string
	Port    string
}

type Profile struct {
	Port int
}

type ConfigFileStruct struct {
	LogLevel        string             `yaml:"log-level,omitempty" json:"log-level,omitempty"`
	Mode            string             `yaml:"mode,omitempty" json:"mode,omitempty"`
	Server          api.ServerSettings `yaml:"server,omitempty" json:"server,omitempty"`
	Stream          Stream             `yaml:"stream,omitempty" json:"stream,omitempty"`
	Rules           api.RulesSettings  `yaml:"rules,omitempty" json:"rules,omitempty"`
	MetricsSettings MetricsSettings    `yaml:"metricsSettings,omitempty" json:"metricsSettings,omitempty"`
}

type Stream struct {
	Ingest api.Ingest `yaml:"ingest" json:"ingest"`
	Write  api.Write  `yaml:"write" json:"write"`
}

type MetricsSettings struct {
	api.PromConnectionInfo `yaml:",inline" json:",inline"`
	DisableGlobalServer    bool   `yaml:"disableGlobalServer,omitempty" json:"disableGlobalServer,omitempty" doc:"disabling the global metrics server makes operational metrics unavailable"`
	Prefix                 string `yaml:"prefix,omitempty" json:"prefix,omitempty" doc:"prefix for names of the operational metrics"`
	NoPanic                bool   `yaml:"noPanic,omitempty" json:"noPanic,omitempty"`
	SuppressGoMetrics      bool   `yaml:"suppressGoMetrics,omitempty" json:"suppressGoMetrics,omitempty" doc:"filter out Go and process metrics"`
}

// ParseConfig creates the internal unmarshalled representation from the Options json sections
func ParseConfig(opts *Options) (ConfigFileStruct, error) {
	out := ConfigFileStruct{Mode: opts.Mode}

	sections := []struct {
		name  string
		value string
		into  interface{}
	}{
		{"server", opts.Server, &out.Server},
		{"stream", opts.Stream, &out.Stream},
		{"rules", opts.Rules, &out.Rules},
		{"metricsSettings", opts.MetricsSettings, &out.MetricsSettings},
	}
	for _, section := range sections {
		logrus.Debugf("opts.%s = %v ", section.name, section.value)
		if section.value == "" {
			continue
		}
		if err := JsonUnmarshalStrict([]byte(section.value), section.into); err != nil {
			logrus.Errorf("error when parsing %s: %v", section.name, err)
			return out, fmt.Errorf("invalid %s configuration: %w", section.name, err)
		}
	}

	out.SetDefaults()
	if err := out.Validate(); err != nil {
		return out, err
	}
	logrus.Debugf("config = %+v ", out)
	return out, nil
}

// SetDefaults fills every unset value that has a default.
func (c *ConfigFileStruct) SetDefaults() {
	if c.Mode == "" {
		c.Mode = api.ModeServer
	}
	if c.Server.Address == "" {
		c.Server.Address = DefaultServerAddress
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = DefaultTimeoutSecs
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultTimeoutSecs
	}
	if c.Rules.R4sMode == "" {
		c.Rules.R4sMode = api.R4sPrefixMin
	}
	if c.Rules.MaxParallel <= 0 {
		c.Rules.MaxParallel = DefaultMaxParallel
	}
	if c.MetricsSettings.Prefix == "" {
		c.MetricsSettings.Prefix = DefaultMetricsPrefix
	}
	if c.MetricsSettings.Port == 0 {
		c.MetricsSettings.Port = DefaultMetricsPort
	}
}

func (c *ConfigFileStruct) Validate() error {
	switch c.Mode {
	case api.ModeServer:
	case api.ModeStream:
		switch c.Stream.Ingest.Type {
		case api.KafkaType, api.FileType:
		default:
			return fmt.Errorf("stream mode requires an ingest of type %q or %q, got %q", api.KafkaType, api.FileType, c.Stream.Ingest.Type)
		}
		switch c.Stream.Write.Type {
		case api.KafkaType, api.StdoutType, api.NoneType:
		default:
			return fmt.Errorf("stream mode requires a write of type %q, %q or %q, got %q", api.KafkaType, api.StdoutType, api.NoneType, c.Stream.Write.Type)
		}
	default:
		return fmt.Errorf("unknown mode %q: expected %q or %q", c.Mode, api.ModeServer, api.ModeStream)
	}
	return nil
}

// JsonUnmarshalStrict is like Unmarshal except that any fields that are found
// in the data that do not have corresponding struct members, or mapping
// keys that are duplicates, will result in an error.
func JsonUnmarshalStrict(data []byte, v interface{}) error {
	dec := jsoniter.ConfigCompatibleWithStandardLibrary.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
