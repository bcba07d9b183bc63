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

type Ingest struct {
	Type  string       `yaml:"type" json:"type" doc:"(enum) ingest type: kafka or file"`
	Kafka *IngestKafka `yaml:"kafka,omitempty" json:"kafka,omitempty"`
	File  *IngestFile  `yaml:"file,omitempty" json:"file,omitempty"`
}

type IngestKafka struct {
	Brokers           []string `yaml:"brokers,omitempty" json:"brokers,omitempty" doc:"list of kafka broker addresses"`
	Topic             string   `yaml:"topic,omitempty" json:"topic,omitempty" doc:"kafka topic to listen on"`
	GroupID           string   `yaml:"groupid,omitempty" json:"groupid,omitempty" doc:"separate groupid for each consumer on specified topic"`
	StartOffset       string   `yaml:"startOffset,omitempty" json:"startOffset,omitempty" doc:"FirstOffset (least recent - default) or LastOffset (most recent) offset available for a partition"`
	CommitInterval    int64    `yaml:"commitInterval,omitempty" json:"commitInterval,omitempty" doc:"the interval (in milliseconds) at which offsets are committed to the broker; if 0, commits will be handled synchronously"`
	PullQueueCapacity int      `yaml:"pullQueueCapacity,omitempty" json:"pullQueueCapacity,omitempty" doc:"the capacity of the queue used to store pulled requests (default: 100)"`
}

type IngestFile struct {
	Filename string `yaml:"filename" json:"filename" doc:"the path of the file containing requests"`
	Lines    bool   `yaml:"lines,omitempty" json:"lines,omitempty" doc:"read one JSON request per line instead of one request per file"`
}
