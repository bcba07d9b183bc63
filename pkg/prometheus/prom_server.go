/*
 * Copyright (C) 2023 IBM, Inc.
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

package prometheus

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/labqc/spc-pipeline/pkg/config"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var plog = logrus.WithField("component", "prometheus")

// InitializePrometheus starts the global metrics server in the background.
func InitializePrometheus(settings *config.MetricsSettings) *http.Server {
	if settings.NoPanic {
		plog.Info("metrics server will not exit the process on errors")
	}
	if settings.SuppressGoMetrics {
		prom.Unregister(collectors.NewGoCollector())
		prom.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	port := settings.Port
	if port == 0 {
		port = config.DefaultMetricsPort
	}

	mux := http.NewServeMux()
	// The Handler function provides a default handler to expose metrics
	// via an HTTP server. "/metrics" is the usual endpoint for that.
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		// if value of address is empty, then by default it will take 0.0.0.0
		Addr:              fmt.Sprintf("%s:%v", settings.Address, port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go StartServerAsync(settings, server)
	return server
}

// StartServerAsync listens for prometheus resource usage requests
func StartServerAsync(settings *config.MetricsSettings, server *http.Server) {
	plog.Infof("Prometheus server: addr = %s", server.Addr)
	tlsConfig, err := settings.TLS.AsServer()
	if err != nil {
		plog.Errorf("error getting TLS configuration: %v", err)
		if !settings.NoPanic {
			os.Exit(1)
		}
		return
	}
	server.TLSConfig = tlsConfig

	if tlsConfig != nil {
		err = server.ListenAndServeTLS("", "")
	} else {
		err = server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		plog.Errorf("error in http.ListenAndServe: %v", err)
		if !settings.NoPanic {
			os.Exit(1)
		}
	}
}
