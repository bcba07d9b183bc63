/*
 * Copyright (C) 2019 IBM, Inc.
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

package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/heptiolabs/healthcheck"
	"github.com/labqc/spc-pipeline/pkg/api"
	"github.com/labqc/spc-pipeline/pkg/config"
	"github.com/labqc/spc-pipeline/pkg/operational"
	"github.com/labqc/spc-pipeline/pkg/pipeline/decode"
	"github.com/labqc/spc-pipeline/pkg/pipeline/ingest"
	"github.com/labqc/spc-pipeline/pkg/pipeline/write"
	"github.com/labqc/spc-pipeline/pkg/spc/levels"
	"github.com/netobserv/gopipes/pkg/node"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "pipeline")

// interface definitions of pipeline components
const (
	StageIngest   = "ingest"
	StageDecode   = "decode"
	StageEvaluate = "evaluate"
	StageWrite    = "write"
)

var (
	stageErrorsCounter = operational.DefineMetric(
		"stream_errors_total",
		"Counter of stream requests that failed, per stage",
		operational.TypeCounter,
		"stage",
	)
	processedCounter = operational.DefineMetric(
		"stream_requests_total",
		"Counter of stream requests written",
		operational.TypeCounter,
	)
	latencyHistogram = operational.DefineMetric(
		"stream_latency_seconds",
		"Time from decoding a stream request to writing its result",
		operational.TypeHistogram,
	)
)

// Error is a failure of one pipeline stage.
type Error struct {
	StageName string
	wrapped   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.StageName, e.wrapped.Error())
}

func (e *Error) Unwrap() error {
	return e.wrapped
}

func stageError(stage string, err error) *Error {
	return &Error{StageName: stage, wrapped: err}
}

type envelope struct {
	received time.Time
	request  *api.SPCRequest
	result   api.SPCResult
}

// Pipeline manager
type Pipeline struct {
	running   atomic.Bool
	ingester  ingest.Ingester
	decoder   decode.Decoder
	evaluator *levels.Evaluator
	writer    write.Writer
	clock     clock.Clock

	stageErrors *prometheus.CounterVec
	processed   prometheus.Counter
	latency     *prometheus.HistogramVec
}

// NewPipeline builds the stream stages described by cfg.Stream.
func NewPipeline(cfg *config.ConfigFileStruct, evaluator *levels.Evaluator, opMetrics *operational.Metrics) (*Pipeline, error) {
	log.Debugf("entering NewPipeline")
	ingester, err := ingest.NewIngester(cfg.Stream.Ingest)
	if err != nil {
		return nil, stageError(StageIngest, err)
	}
	decoder, err := decode.NewDecodeJSON()
	if err != nil {
		return nil, stageError(StageDecode, err)
	}
	writer, err := write.NewWriter(cfg.Stream.Write)
	if err != nil {
		return nil, stageError(StageWrite, err)
	}
	return newPipeline(ingester, decoder, evaluator, writer, opMetrics, clock.New()), nil
}

func newPipeline(ingester ingest.Ingester, decoder decode.Decoder, evaluator *levels.Evaluator, writer write.Writer, opMetrics *operational.Metrics, clk clock.Clock) *Pipeline {
	return &Pipeline{
		ingester:    ingester,
		decoder:     decoder,
		evaluator:   evaluator,
		writer:      writer,
		clock:       clk,
		stageErrors: opMetrics.NewCounterVec(&stageErrorsCounter),
		processed:   opMetrics.NewCounter(&processedCounter),
		latency:     opMetrics.NewHistogramVec(&latencyHistogram, prometheus.ExponentialBuckets(0.0005, 4, 10)),
	}
}

// Run blocks until the ingester is exhausted or stopped, and every ingested request
// has been written.
func (p *Pipeline) Run() {
	start := node.AsInit(p.ingester.Ingest)
	decoder := node.AsMiddle(p.decodeStage)
	evaluator := node.AsMiddle(p.evaluateStage)
	writer := node.AsTerminal(p.writeStage)
	start.SendsTo(decoder)
	decoder.SendsTo(evaluator)
	evaluator.SendsTo(writer)

	p.running.Store(true)
	defer p.running.Store(false)
	start.Start()
	<-writer.Done()
	log.Info("stream pipeline done")
}

func (p *Pipeline) decodeStage(in <-chan []byte, out chan<- *envelope) {
	for payload := range in {
		received := p.clock.Now()
		req, err := p.decoder.Decode(payload)
		if err != nil {
			p.fail(stageError(StageDecode, err), "")
			continue
		}
		if req.RequestID == "" {
			req.RequestID = uuid.NewString()
		}
		out <- &envelope{received: received, request: req}
	}
}

func (p *Pipeline) evaluateStage(in <-chan *envelope, out chan<- *envelope) {
	for env := range in {
		env.result.RequestID = env.request.RequestID
		res, err := p.evaluator.Evaluate(context.Background(), env.request)
		if err != nil {
			p.fail(stageError(StageEvaluate, err), env.request.RequestID)
			env.result.Error = err.Error()
		} else {
			env.result.Results = res.Response
			for _, id := range res.Unrecognized {
				env.result.Unrecognized = append(env.result.Unrecognized, string(id))
			}
		}
		out <- env
	}
}

func (p *Pipeline) writeStage(in <-chan *envelope) {
	for env := range in {
		if err := p.writer.Write(env.result); err != nil {
			p.fail(stageError(StageWrite, err), env.result.RequestID)
			continue
		}
		p.processed.Inc()
		p.latency.WithLabelValues().Observe(p.clock.Since(env.received).Seconds())
	}
}

func (p *Pipeline) fail(err *Error, requestID string) {
	p.stageErrors.WithLabelValues(err.StageName).Inc()
	log.WithFields(logrus.Fields{"stage": err.StageName, "request_id": requestID}).Errorf("request failed: %v", err)
}

func (p *Pipeline) IsReady() healthcheck.Check {
	return func() error {
		if !p.running.Load() {
			return fmt.Errorf("pipeline is not running")
		}
		return nil
	}
}

func (p *Pipeline) IsAlive() healthcheck.Check {
	return func() error {
		if !p.running.Load() {
			return fmt.Errorf("pipeline is not running")
		}
		return nil
	}
}
