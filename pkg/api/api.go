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

const TagYaml = "yaml"
const TagDoc = "doc"

const (
	FileType   = "file"
	KafkaType  = "kafka"
	StdoutType = "stdout"
	NoneType   = "none"
)

const (
	ModeServer = "server"
	ModeStream = "stream"
)

// Note: items beginning with doc: "## title" are top level items that get divided into sections inside api.md.

type API struct {
	Server      ServerSettings `yaml:"server" doc:"## Server API\nFollowing is the supported API format for the SPC HTTP server:\n"`
	Rules       RulesSettings  `yaml:"rules" doc:"## Rules API\nFollowing is the supported API format for rule evaluation settings:\n"`
	IngestKafka IngestKafka    `yaml:"kafka" doc:"## Ingest Kafka API\nFollowing is the supported API format for the kafka ingest:\n"`
	IngestFile  IngestFile     `yaml:"file" doc:"## Ingest File API\nFollowing is the supported API format for the file ingest:\n"`
	WriteKafka  WriteKafka     `yaml:"writeKafka" doc:"## Write Kafka API\nFollowing is the supported API format for writing results to kafka:\n"`
	WriteStdout WriteStdout    `yaml:"stdout" doc:"## Write Standard Output API\nFollowing is the supported API format for writing results to stdout:\n"`
}
