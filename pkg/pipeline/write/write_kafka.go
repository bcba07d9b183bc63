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

package write

import (
	"context"
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/labqc/spc-pipeline/pkg/api"
	kafkago "github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
)

const (
	defaultReadTimeoutSeconds  = int64(10)
	defaultWriteTimeoutSeconds = int64(10)
)

type kafkaWriteMessage interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
}

type Kafka struct {
	kafkaParams  api.WriteKafka
	kafkaWriter  kafkaWriteMessage
	writeTimeout time.Duration
}

// Write sends one result to the kafka topic, keyed by request ID
func (r *Kafka) Write(result api.SPCResult) error {
	log.Debugf("entering Kafka Write, request = %s", result.RequestID)
	value, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(result)
	if err != nil {
		return err
	}
	msg := kafkago.Message{Value: value}
	if result.RequestID != "" {
		msg.Key = []byte(result.RequestID)
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.writeTimeout)
	defer cancel()
	if err := r.kafkaWriter.WriteMessages(ctx, msg); err != nil {
		log.Errorf("Kafka error: %v", err)
		return err
	}
	return nil
}

// NewWriteKafka create a new writer to kafka
func NewWriteKafka(params api.Write) (Writer, error) {
	log.Debugf("entering NewWriteKafka")
	if params.Kafka == nil {
		return nil, errors.New("missing kafka configuration")
	}
	jsonWriteKafka := *params.Kafka
	if jsonWriteKafka.Address == "" || jsonWriteKafka.Topic == "" {
		return nil, errors.New("kafka write requires an address and a topic")
	}

	var balancer kafkago.Balancer
	switch jsonWriteKafka.Balancer {
	case api.KafkaRoundRobin:
		balancer = &kafkago.RoundRobin{}
	case api.KafkaLeastBytes, "":
		balancer = &kafkago.LeastBytes{}
	case api.KafkaHash:
		balancer = &kafkago.Hash{}
	case api.KafkaCrc32:
		balancer = &kafkago.CRC32Balancer{}
	case api.KafkaMurmur2:
		balancer = &kafkago.Murmur2Balancer{}
	default:
		return nil, fmt.Errorf("unknown kafka balancer %q", jsonWriteKafka.Balancer)
	}

	readTimeoutSecs := defaultReadTimeoutSeconds
	if jsonWriteKafka.ReadTimeout != 0 {
		readTimeoutSecs = jsonWriteKafka.ReadTimeout
	}

	writeTimeoutSecs := defaultWriteTimeoutSeconds
	if jsonWriteKafka.WriteTimeout != 0 {
		writeTimeoutSecs = jsonWriteKafka.WriteTimeout
	}

	// connect to the kafka server
	kafkaWriter := kafkago.Writer{
		Addr:         kafkago.TCP(jsonWriteKafka.Address),
		Topic:        jsonWriteKafka.Topic,
		Balancer:     balancer,
		ReadTimeout:  time.Duration(readTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(writeTimeoutSecs) * time.Second,
		BatchSize:    jsonWriteKafka.BatchSize,
		BatchBytes:   jsonWriteKafka.BatchBytes,
	}

	return &Kafka{
		kafkaParams:  jsonWriteKafka,
		kafkaWriter:  &kafkaWriter,
		writeTimeout: time.Duration(writeTimeoutSecs) * time.Second,
	}, nil
}
