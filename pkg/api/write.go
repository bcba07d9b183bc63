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

type Write struct {
	Type   string       `yaml:"type" json:"type" doc:"(enum) write type: kafka, stdout or none"`
	Kafka  *WriteKafka  `yaml:"kafka,omitempty" json:"kafka,omitempty"`
	Stdout *WriteStdout `yaml:"stdout,omitempty" json:"stdout,omitempty"`
}

type WriteStdout struct {
	Format string `yaml:"format,omitempty" json:"format,omitempty" doc:"the format of each line: printf (default) or json"`
}

// KafkaBalancer names a kafka-go balancer.
type KafkaBalancer string

const (
	KafkaRoundRobin KafkaBalancer = "roundRobin" // RoundRobin balancer
	KafkaLeastBytes KafkaBalancer = "leastBytes" // LeastBytes balancer
	KafkaHash       KafkaBalancer = "hash"       // Hash balancer
	KafkaCrc32      KafkaBalancer = "crc32"      // Crc32 balancer
	KafkaMurmur2    KafkaBalancer = "murmur2"    // Murmur2 balancer
)

type WriteKafka struct {
	Address      string        `yaml:"address" json:"address" doc:"address of kafka server"`
	Topic        string        `yaml:"topic" json:"topic" doc:"kafka topic to write to"`
	Balancer     KafkaBalancer `yaml:"balancer,omitempty" json:"balancer,omitempty" doc:"(enum) one of the following:"`
	WriteTimeout int64         `yaml:"writeTimeout,omitempty" json:"writeTimeout,omitempty" doc:"timeout (in seconds) for write operation performed by the Writer"`
	ReadTimeout  int64         `yaml:"readTimeout,omitempty" json:"readTimeout,omitempty" doc:"timeout (in seconds) for read operation performed by the Writer"`
	BatchBytes   int64         `yaml:"batchBytes,omitempty" json:"batchBytes,omitempty" doc:"limit the maximum size of a request in bytes before being sent to a partition"`
	BatchSize    int           `yaml:"batchSize,omitempty" json:"batchSize,omitempty" doc:"limit on how many messages will be buffered before being sent to a partition"`
}
