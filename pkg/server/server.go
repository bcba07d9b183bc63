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
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gin-gonic/gin"
	"github.com/heptiolabs/healthcheck"
	"github.com/labqc/spc-pipeline/pkg/api"
	"github.com/labqc/spc-pipeline/pkg/config"
	"github.com/labqc/spc-pipeline/pkg/operational"
	"github.com/labqc/spc-pipeline/pkg/pipeline/decode"
	"github.com/labqc/spc-pipeline/pkg/spc/levels"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "server")

var (
	requestsCounter = operational.DefineMetric(
		"http_requests_total",
		"Counter of HTTP requests, per status code",
		operational.TypeCounter,
		"code",
	)
	durationHistogram = operational.DefineMetric(
		"http_request_duration_seconds",
		"Duration of HTTP requests, per route",
		operational.TypeHistogram,
		"route",
	)
)

// Server exposes the evaluator over HTTP.
type Server struct {
	settings   api.ServerSettings
	evaluator  *levels.Evaluator
	decoder    decode.Decoder
	clock      clock.Clock
	httpServer *http.Server
	serving    atomic.Bool

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewServer(settings api.ServerSettings, evaluator *levels.Evaluator, opMetrics *operational.Metrics) (*Server, error) {
	decoder, err := decode.NewDecodeJSON()
	if err != nil {
		return nil, err
	}
	if settings.MaxBodyBytes <= 0 {
		settings.MaxBodyBytes = config.DefaultMaxBodyBytes
	}
	s := &Server{
		settings:  settings,
		evaluator: evaluator,
		decoder:   decoder,
		clock:     clock.New(),
		requests:  opMetrics.NewCounterVec(&requestsCounter),
		duration:  opMetrics.NewHistogramVec(&durationHistogram, prometheus.DefBuckets),
	}
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", settings.Address, settings.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Duration(settings.ReadTimeout) * time.Second,
		WriteTimeout:      time.Duration(settings.WriteTimeout) * time.Second,
	}
	return s, nil
}

// Router builds the gin engine with every route.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.instrument())
	router.POST("/spc", s.handleSPC)
	router.GET("/rules", s.handleRules)
	router.GET("/profiles", s.handleProfiles)
	return router
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	tlsConfig, err := s.settings.TLS.AsServer()
	if err != nil {
		return fmt.Errorf("server TLS configuration: %w", err)
	}
	s.httpServer.TLSConfig = tlsConfig
	log.Infof("SPC server: addr = %s, tls = %t", s.httpServer.Addr, tlsConfig != nil)

	s.serving.Store(true)
	defer s.serving.Store(false)
	if tlsConfig != nil {
		err = s.httpServer.ListenAndServeTLS("", "")
	} else {
		err = s.httpServer.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) IsReady() healthcheck.Check {
	return func() error {
		if !s.serving.Load() {
			return errors.New("server is not serving")
		}
		return nil
	}
}

// instrument counts requests per status code and times them per route.
func (s *Server) instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := s.clock.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		s.requests.WithLabelValues(strconv.Itoa(c.Writer.Status())).Inc()
		s.duration.WithLabelValues(route).Observe(s.clock.Since(start).Seconds())
	}
}
