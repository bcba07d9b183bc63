/*
 * Copyright (C) 2024 IBM, Inc.
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

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/labqc/spc-pipeline/pkg/config"
	"github.com/labqc/spc-pipeline/pkg/operational"
	"github.com/labqc/spc-pipeline/pkg/pipeline/decode"
	"github.com/labqc/spc-pipeline/pkg/spc/levels"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// offlineEvaluator builds an evaluator whose metrics stay out of the default registry.
func offlineEvaluator() (*levels.Evaluator, error) {
	cfg, err := config.ParseConfig(&config.Options{Rules: opts.Rules})
	if err != nil {
		return nil, err
	}
	opMetrics := operational.NewMetricsWithRegisterer(&cfg.MetricsSettings, prometheus.NewRegistry())
	return levels.NewEvaluator(cfg.Rules, opMetrics)
}

func evaluateFile(out io.Writer, path string) error {
	var (
		payload []byte
		err     error
	)
	if path == "-" {
		payload, err = io.ReadAll(os.Stdin)
	} else {
		payload, err = os.ReadFile(path)
	}
	if err != nil {
		return errors.Wrapf(err, "reading %s", path)
	}

	decoder, err := decode.NewDecodeJSON()
	if err != nil {
		return err
	}
	req, err := decoder.Decode(payload)
	if err != nil {
		return err
	}
	evaluator, err := offlineEvaluator()
	if err != nil {
		return err
	}
	res, err := evaluator.Evaluate(context.Background(), req)
	if err != nil {
		return err
	}
	if len(res.Unrecognized) > 0 {
		fmt.Fprintf(os.Stderr, "unrecognized rules: %v\n", res.Unrecognized)
	}

	b, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(res.Response, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s\n", b)
	return err
}

func printRules(out io.Writer) error {
	evaluator, err := offlineEvaluator()
	if err != nil {
		return err
	}
	engine := evaluator.Engine()

	var sb strings.Builder
	sb.WriteString("# SPC rules\n\n")
	fmt.Fprintf(&sb, "R-4s mode: `%s`\n\n", engine.R4sMode())
	sb.WriteString("| **Rule** | **Window** | **SD based** | **Description** |\n|:---|:---|:---|:---|\n")
	for _, r := range engine.Rules() {
		fmt.Fprintf(&sb, "| %s | %d | %t | %s |\n", r.ID, r.Window, r.SDBased, r.Description)
	}
	sb.WriteString("\n# Profiles\n\n")
	for _, p := range evaluator.Profiles() {
		fmt.Fprintf(&sb, "- **%s**: %v %s\n", p.Name, p.Rules, p.Description)
	}
	sb.WriteString("\n# Operational metrics\n")
	sb.WriteString(operational.GetDocumentation())

	_, err = io.WriteString(out, sb.String())
	return err
}
