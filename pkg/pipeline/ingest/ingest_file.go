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
	"bufio"
	"bytes"
	"fmt"
	"os"

	"github.com/labqc/spc-pipeline/pkg/api"
	"github.com/labqc/spc-pipeline/pkg/pipeline/utils"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var flog = logrus.WithField("component", "ingest.File")

// maxLineBytes bounds a single request in line mode.
const maxLineBytes = 16 << 20

type ingestFile struct {
	params   api.IngestFile
	exitChan <-chan struct{}
}

// Ingest sends the whole file as one request, or one request per non empty line.
func (r *ingestFile) Ingest(out chan<- []byte) {
	file, err := os.Open(r.params.Filename)
	if err != nil {
		flog.Errorf("cannot open %s: %v", r.params.Filename, err)
		return
	}
	defer func() {
		_ = file.Close()
	}()

	if !r.params.Lines {
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(file); err != nil {
			flog.Errorf("cannot read %s: %v", r.params.Filename, err)
			return
		}
		r.send(out, buf.Bytes())
		return
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	count := 0
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		// the scanner reuses its buffer
		if !r.send(out, append([]byte(nil), line...)) {
			return
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		flog.Errorf("error reading %s after %d requests: %v", r.params.Filename, count, err)
		return
	}
	flog.Infof("ingested %d requests from %s", count, r.params.Filename)
}

func (r *ingestFile) send(out chan<- []byte, payload []byte) bool {
	select {
	case <-r.exitChan:
		flog.Debugf("exiting ingestFile because of signal")
		return false
	case out <- payload:
		return true
	}
}

// NewIngestFile create a new ingester
func NewIngestFile(params api.Ingest) (Ingester, error) {
	flog.Debugf("entering NewIngestFile")
	if params.File == nil || params.File.Filename == "" {
		return nil, fmt.Errorf("ingest filename not specified")
	}
	if _, err := os.Stat(params.File.Filename); err != nil {
		return nil, errors.Wrapf(err, "ingest file %s", params.File.Filename)
	}

	flog.Infof("input file name = %s", params.File.Filename)
	return &ingestFile{
		params:   *params.File,
		exitChan: utils.ExitChannel(),
	}, nil
}
