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
	"bytes"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/labqc/spc-pipeline/pkg/api"
)

// writeDoc walks the zero value of t and prints every field carrying a doc tag.
// Doc tags starting with "#" open a new section.
func writeDoc(output io.Writer, t reflect.Type, indent int) {
	switch t.Kind() {
	case reflect.Ptr:
		// a pointer prints at the level of the struct it points to
		writeDoc(output, t.Elem(), indent)
	case reflect.Slice, reflect.Map:
		writeDoc(output, t.Elem(), indent+1)
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			doc := field.Tag.Get(api.TagDoc)
			if doc == "" {
				continue
			}
			name := strings.ReplaceAll(field.Tag.Get(api.TagYaml), ",omitempty", "")
			if strings.HasPrefix(doc, "#") {
				fmt.Fprintf(output, "\n%s\n<pre>\n%s %s:\n", doc, strings.Repeat(" ", 4*indent), name)
				writeDoc(output, field.Type, indent+1)
				fmt.Fprint(output, "</pre>")
				continue
			}
			fmt.Fprintf(output, "%s %s: %s\n", strings.Repeat(" ", 4*(indent+1)), name, doc)
			writeDoc(output, field.Type, indent+1)
		}
	}
}

func main() {
	output := new(bytes.Buffer)
	output.WriteString("> Note: this file was automatically generated, to update execute \"go run ./cmd/apitodoc > docs/api.md\"\n\n# spc-pipeline API\n")
	writeDoc(output, reflect.TypeOf(api.API{}), 0)
	fmt.Print(output)
}
