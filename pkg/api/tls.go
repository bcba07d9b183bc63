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

package api

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
)

// TLSType selects the TLS flavour of a server.
type TLSType string

const (
	TLSNone   TLSType = "none"   // No TLS
	TLSSimple TLSType = "simple" // One-way TLS
	TLSMutual TLSType = "mutual" // Mutual TLS
)

type TLSConfig struct {
	Type       TLSType `yaml:"type,omitempty" json:"type,omitempty" doc:"(enum) type of TLS configuration: none, simple or mutual"`
	CertPath   string  `yaml:"certPath,omitempty" json:"certPath,omitempty" doc:"path to the server certificate"`
	KeyPath    string  `yaml:"keyPath,omitempty" json:"keyPath,omitempty" doc:"path to the server private key"`
	CACertPath string  `yaml:"caCertPath,omitempty" json:"caCertPath,omitempty" doc:"path to the CA certificate, used to verify clients in mutual mode"`
}

func (c *TLSConfig) IsEnabled() bool {
	return c != nil && c.Type != "" && c.Type != TLSNone
}

// AsServer builds a server side tls.Config, or returns nil when TLS is disabled.
// Mutual TLS additionally requires clients to present a certificate signed by the CA.
func (c *TLSConfig) AsServer() (*tls.Config, error) {
	if !c.IsEnabled() {
		return nil, nil
	}
	switch {
	case c.CertPath == "" || c.KeyPath == "":
		return nil, fmt.Errorf("%s TLS needs both certPath and keyPath", c.Type)
	case c.Type == TLSMutual && c.CACertPath == "":
		return nil, errors.New("mutual TLS needs caCertPath")
	case c.Type != TLSSimple && c.Type != TLSMutual:
		return nil, fmt.Errorf("unknown TLS type %q", c.Type)
	}

	pair, err := tls.LoadX509KeyPair(c.CertPath, c.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("loading server certificate: %w", err)
	}
	cfg := &tls.Config{
		Certificates: []tls.Certificate{pair},
		MinVersion:   tls.VersionTLS12,
	}
	if c.Type == TLSMutual {
		pem, err := os.ReadFile(c.CACertPath)
		if err != nil {
			return nil, fmt.Errorf("reading CA certificate: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificate found in %s", c.CACertPath)
		}
		cfg.ClientCAs = pool
		cfg.ClientAuth = tls.RequireAndVerifyClientCert
	}
	return cfg, nil
}
