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

package operational

import (
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/heptiolabs/healthcheck"
	"github.com/labqc/spc-pipeline/pkg/config"
)

const defaultServerHost = "0.0.0.0"

// NewHealthServer starts serving /live and /ready in the background.
func NewHealthServer(opts *config.Options, isAlive healthcheck.Check, isReady healthcheck.Check) *http.Server {
	handler := healthcheck.NewHandler()
	host := opts.Health.Address
	if host == "" {
		host = defaultServerHost
	}
	address := net.JoinHostPort(host, opts.Health.Port)

	handler.AddLivenessCheck("SPCCheck", isAlive)
	handler.AddReadinessCheck("SPCCheck", isReady)

	server := &http.Server{
		Addr:              address,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		for {
			err := server.ListenAndServe()
			if errors.Is(err, http.ErrServerClosed) {
				return
			}
			log.Errorf("health server: http.ListenAndServe error %v", err)
			time.Sleep(60 * time.Second)
		}
	}()

	return server
}
