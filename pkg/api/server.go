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

type ServerSettings struct {
	Address      string     `yaml:"address,omitempty" json:"address,omitempty" doc:"address to listen on (default: 0.0.0.0)"`
	Port         int        `yaml:"port,omitempty" json:"port,omitempty" doc:"port to listen on (default: 5000)"`
	MaxBodyBytes int64      `yaml:"maxBodyBytes,omitempty" json:"maxBodyBytes,omitempty" doc:"maximum accepted request body size in bytes (default: 8MiB)"`
	ReadTimeout  int64      `yaml:"readTimeout,omitempty" json:"readTimeout,omitempty" doc:"read timeout in seconds (default: 30)"`
	WriteTimeout int64      `yaml:"writeTimeout,omitempty" json:"writeTimeout,omitempty" doc:"write timeout in seconds (default: 30)"`
	TLS          *TLSConfig `yaml:"tls,omitempty" json:"tls,omitempty" doc:"TLS configuration for the server"`
}

type PromConnectionInfo struct {
	Address string     `yaml:"address,omitempty" json:"address,omitempty" doc:"endpoint address to expose"`
	Port    int        `yaml:"port,omitempty" json:"port,omitempty" doc:"endpoint port number to expose"`
	TLS     *TLSConfig `yaml:"tls,omitempty" json:"tls,omitempty" doc:"TLS configuration for the endpoint"`
}
