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

package write

import (
	"fmt"

	"github.com/labqc/spc-pipeline/pkg/api"
)

type Writer interface {
	Write(result api.SPCResult) error
}

type WriteNone struct{}

// Write drops the result
func (t *WriteNone) Write(_ api.SPCResult) error {
	return nil
}

// NewWriteNone create a new write
func NewWriteNone() (Writer, error) {
	return &WriteNone{}, nil
}

// NewWriter builds the writer selected by params.Type.
func NewWriter(params api.Write) (Writer, error) {
	switch params.Type {
	case api.StdoutType:
		return NewWriteStdout(params)
	case api.KafkaType:
		return NewWriteKafka(params)
	case api.NoneType:
		return NewWriteNone()
	default:
		return nil, fmt.Errorf("`write` type %q not defined; if no writer needed, specify `none`", params.Type)
	}
}
