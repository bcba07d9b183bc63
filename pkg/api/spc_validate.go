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

package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var requestValidate *validator.Validate

func init() {
	requestValidate = validator.New()
	requestValidate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// InvalidRequestError lists every problem found in a request.
type InvalidRequestError struct {
	Problems []string
}

func (e *InvalidRequestError) Error() string {
	return "invalid SPC request: " + strings.Join(e.Problems, "; ")
}

// Validate checks the structural constraints of the request. Data points with missing
// or non numeric values are not an error: they are dropped during evaluation.
func (r *SPCRequest) Validate() error {
	invalid := &InvalidRequestError{}
	if err := requestValidate.Struct(r); err != nil {
		var fieldErrors validator.ValidationErrors
		if !errors.As(err, &fieldErrors) {
			return err
		}
		for _, fe := range fieldErrors {
			invalid.Problems = append(invalid.Problems, describeFieldError(fe))
		}
	}
	if len(r.RuleList) == 0 && r.Profile == "" {
		invalid.Problems = append(invalid.Problems, "either rule_list or profile must be provided")
	}
	if len(invalid.Problems) > 0 {
		return invalid
	}
	return nil
}

func describeFieldError(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "SPCRequest.")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min", "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at least %s element(s)", field, fe.Param())
		}
		return fmt.Sprintf("%s must be between %d and %d, got %v", field, MinLevel, MaxLevel, fe.Value())
	default:
		return fmt.Sprintf("%s failed on the %q constraint", field, fe.Tag())
	}
}
