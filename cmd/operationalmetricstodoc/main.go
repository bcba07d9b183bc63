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

package main

import (
	"fmt"

	"github.com/labqc/spc-pipeline/pkg/operational"
	"github.com/labqc/spc-pipeline/pkg/pipeline"
	"github.com/labqc/spc-pipeline/pkg/server"
)

func main() {
	// referencing the packages initializes their metric definitions
	var _ *pipeline.Pipeline
	var _ *server.Server

	header := `
> Note: this file was automatically generated, to update execute "go run ./cmd/operationalmetricstodoc > docs/operational-metrics.md"

# spc-pipeline Operational Metrics

Each table below documents an operational metric exported by spc-pipeline, in server or stream mode.

`
	fmt.Printf("%s\n%s\n", header, operational.GetDocumentation())
}
