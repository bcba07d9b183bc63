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
	"io"
	"os"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/labqc/spc-pipeline/pkg/api"
	log "github.com/sirupsen/logrus"
)

type writeStdout struct {
	format string
	out    io.Writer
	now    func() time.Time
}

// Write prints one result per line
func (t *writeStdout) Write(result api.SPCResult) error {
	log.Debugf("entering writeStdout Write")
	if t.format == "json" {
		txt, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(result)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(t.out, string(txt))
		return err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: request=%s", t.now().Format(time.StampMilli), result.RequestID)
	if result.Error != "" {
		fmt.Fprintf(&sb, " error=%q", result.Error)
	}
	if len(result.Unrecognized) > 0 {
		fmt.Fprintf(&sb, " unrecognized=%v", result.Unrecognized)
	}
	for _, ir := range result.Results {
		for _, lr := range ir.Result {
			if lr.SPCViolation != "" {
				fmt.Fprintf(&sb, " [index=%d level=%d %s]", ir.Index, lr.Level, lr.SPCViolation)
			}
		}
	}
	_, err := fmt.Fprintln(t.out, sb.String())
	return err
}

// NewWriteStdout create a new write
func NewWriteStdout(params api.Write) (Writer, error) {
	log.Debugf("entering NewWriteStdout")
	format := "printf"
	if params.Stdout != nil && params.Stdout.Format != "" {
		format = params.Stdout.Format
	}
	switch format {
	case "printf", "json":
	default:
		return nil, fmt.Errorf("unknown stdout format %q: expected printf or json", format)
	}
	return &writeStdout{
		format: format,
		out:    os.Stdout,
		now:    time.Now,
	}, nil
}
