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
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/labqc/spc-pipeline/pkg/api"
	"github.com/labqc/spc-pipeline/pkg/spc/levels"
	"github.com/labqc/spc-pipeline/pkg/spc/rules"
	"github.com/sirupsen/logrus"
)

const (
	RequestIDHeader    = "X-Request-ID"
	UnrecognizedHeader = "X-SPC-Unrecognized-Rules"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// RulesResponse lists the rule catalogue.
type RulesResponse struct {
	R4sMode api.R4sMode      `json:"r4sMode"`
	Rules   []rules.RuleInfo `json:"rules"`
}

// handleSPC handles POST /spc. The body is an SPC request; the response is the list of
// violations per run index.
func (s *Server) handleSPC(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := log.WithFields(logrus.Fields{"request_id": requestID, "handler": "handleSPC"})

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, s.settings.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			logger.Warnf("request body exceeds %d bytes", tooLarge.Limit)
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: err.Error(), Code: "BODY_TOO_LARGE"})
			return
		}
		logger.Warnf("cannot read request body: %v", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "cannot read request body", Code: "INVALID_REQUEST"})
		return
	}

	req, err := s.decoder.Decode(body)
	if err != nil {
		logger.Warnf("invalid request body: %v", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_JSON"})
		return
	}
	// the header wins over the request_id of the body
	if req.RequestID == "" || c.GetHeader(RequestIDHeader) != "" {
		req.RequestID = requestID
	} else {
		requestID = req.RequestID
		c.Header(RequestIDHeader, requestID)
		logger = logger.WithField("request_id", requestID)
	}

	res, err := s.evaluator.Evaluate(c.Request.Context(), req)
	if err != nil {
		status, code := classify(err)
		logger.WithField("code", code).Errorf("evaluation failed: %v", err)
		c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
		return
	}

	if len(res.Unrecognized) > 0 {
		names := make([]string, 0, len(res.Unrecognized))
		for _, id := range res.Unrecognized {
			names = append(names, string(id))
		}
		c.Header(UnrecognizedHeader, strings.Join(names, ","))
	}
	logger.Debugf("evaluated %d indexes with rules %v", len(res.Response), res.Rules)
	c.JSON(http.StatusOK, res.Response)
}

// handleRules handles GET /rules.
func (s *Server) handleRules(c *gin.Context) {
	engine := s.evaluator.Engine()
	c.JSON(http.StatusOK, RulesResponse{R4sMode: engine.R4sMode(), Rules: engine.Rules()})
}

// handleProfiles handles GET /profiles.
func (s *Server) handleProfiles(c *gin.Context) {
	c.JSON(http.StatusOK, s.evaluator.Profiles())
}

func classify(err error) (int, string) {
	var invalid *api.InvalidRequestError
	var cfgErr *rules.ConfigurationError
	switch {
	case errors.As(err, &invalid):
		return http.StatusBadRequest, "INVALID_REQUEST"
	case errors.As(err, &cfgErr):
		return http.StatusBadRequest, "CONFIGURATION_ERROR"
	case errors.Is(err, levels.ErrUnknownProfile):
		return http.StatusBadRequest, "UNKNOWN_PROFILE"
	default:
		return http.StatusInternalServerError, "EVALUATION_FAILED"
	}
}

func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header(RequestIDHeader, requestID)
	return requestID
}
