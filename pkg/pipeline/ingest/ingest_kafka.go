/*
 * Copyright (C) 2022 IBM, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *	 http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/labqc/spc-pipeline/pkg/api"
	"github.com/labqc/spc-pipeline/pkg/pipeline/utils"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

var klog = logrus.WithField("component", "ingest.Kafka")

const (
	defaultPullQueueCapacity = 100
	defaultCommitInterval    = int64(500)
)

type kafkaReadMessage interface {
	ReadMessage(ctx context.Context) (kafkago.Message, error)
	Config() kafkago.ReaderConfig
	Close() error
}

type ingestKafka struct {
	kafkaParams api.IngestKafka
	kafkaReader kafkaReadMessage
	in          chan []byte
	exitChan    <-chan struct{}
}

// Ingest ingests requests from the kafka topic and sends them down the pipeline
func (k *ingestKafka) Ingest(out chan<- []byte) {
	klog.Debugf("entering ingestKafka.Ingest")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go k.kafkaListener(ctx)

	for {
		select {
		case <-k.exitChan:
			klog.Debugf("exiting ingestKafka because of signal")
			if err := k.kafkaReader.Close(); err != nil {
				klog.Warnf("closing kafka reader: %v", err)
			}
			return
		case payload := <-k.in:
			out <- payload
		}
	}
}

// kafkaListener reads messages until ctx is cancelled
func (k *ingestKafka) kafkaListener(ctx context.Context) {
	klog.Debugf("entering kafkaListener")
	for {
		m, err := k.kafkaReader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			klog.Errorln(err)
			continue
		}
		klog.Debugf("message at topic:%v partition:%v offset:%v key:%s", m.Topic, m.Partition, m.Offset, string(m.Key))
		select {
		case k.in <- m.Value:
		case <-ctx.Done():
			return
		}
	}
}

// NewIngestKafka create a new ingester
func NewIngestKafka(params api.Ingest) (Ingester, error) {
	klog.Debugf("entering NewIngestKafka")
	if params.Kafka == nil {
		return nil, errors.New("missing kafka configuration")
	}
	jsonIngestKafka := *params.Kafka
	if len(jsonIngestKafka.Brokers) == 0 || jsonIngestKafka.Topic == "" {
		return nil, errors.New("kafka ingest requires brokers and a topic")
	}

	// connect to the kafka server
	startOffset := kafkago.FirstOffset
	switch jsonIngestKafka.StartOffset {
	case "", "FirstOffset":
	case "LastOffset":
		startOffset = kafkago.LastOffset
	default:
		return nil, fmt.Errorf("illegal value for StartOffset: %s", jsonIngestKafka.StartOffset)
	}

	commitInterval := defaultCommitInterval
	if jsonIngestKafka.CommitInterval != 0 {
		commitInterval = jsonIngestKafka.CommitInterval
	}
	queueCapacity := defaultPullQueueCapacity
	if jsonIngestKafka.PullQueueCapacity > 0 {
		queueCapacity = jsonIngestKafka.PullQueueCapacity
	}

	kafkaReader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        jsonIngestKafka.Brokers,
		Topic:          jsonIngestKafka.Topic,
		GroupID:        jsonIngestKafka.GroupID,
		StartOffset:    startOffset,
		CommitInterval: time.Duration(commitInterval) * time.Millisecond,
		QueueCapacity:  queueCapacity,
	})
	if kafkaReader == nil {
		errMsg := "NewIngestKafka: failed to create kafka reader"
		klog.Errorf("%s", errMsg)
		return nil, errors.New(errMsg)
	}
	klog.Debugf("kafkaReader.Config = %v", kafkaReader.Config())

	return &ingestKafka{
		kafkaParams: jsonIngestKafka,
		kafkaReader: kafkaReader,
		in:          make(chan []byte, queueCapacity),
		exitChan:    utils.ExitChannel(),
	}, nil
}
