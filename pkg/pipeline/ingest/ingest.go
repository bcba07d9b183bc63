/*
 * Copyright (C) 2021 IBM, Inc.
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

package ingest

import (
	"fmt"

	"github.com/labqc/spc-pipeline/pkg/api"
)

// Ingester sends raw SPC requests, one per slice, until its source is exhausted or an
// exit signal is received. Ingest returns without closing out.
type Ingester interface {
	Ingest(out chan<- []byte)
}

// NewIngester builds the ingester selected by params.Type.
func NewIngester(params api.Ingest) (Ingester, error) {
	switch params.Type {
	case api.FileType:
		return NewIngestFile(params)
	case api.KafkaType:
		return NewIngestKafka(params)
	default:
		return nil, fmt.Errorf("`ingest` type %q not defined", params.Type)
	}
}
