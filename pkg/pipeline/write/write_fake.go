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

package write

import (
	"sync"

	"github.com/labqc/spc-pipeline/pkg/api"
	log "github.com/sirupsen/logrus"
)

// WriteFake keeps every result in memory.
type WriteFake struct {
	mu         sync.Mutex
	allResults []api.SPCResult
	Err        error
}

// Write stores the result in memory.
func (w *WriteFake) Write(result api.SPCResult) error {
	log.Debugf("entering writeFake Write")
	w.mu.Lock()
	defer w.mu.Unlock()
	w.allResults = append(w.allResults, result)
	return w.Err
}

// AllResults returns a copy of the results written so far.
func (w *WriteFake) AllResults() []api.SPCResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]api.SPCResult{}, w.allResults...)
}

// NewWriteFake creates a new write.
func NewWriteFake() *WriteFake {
	log.Debugf("entering NewWriteFake")
	return &WriteFake{}
}
