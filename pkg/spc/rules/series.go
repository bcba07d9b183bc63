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

package rules

import "fmt"

// ConfigurationError reports input that cannot be evaluated at all, such as sequences
// of different lengths or an empty rule list.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// Series is the observation window of a single control level. The three slices are
// positionally aligned and ordered by run.
type Series struct {
	Values []float64
	Means  []float64
	Stds   []float64
}

func (s Series) Len() int {
	return len(s.Values)
}

// Validate fails when the value, mean and std sequences differ in length.
func (s Series) Validate() error {
	if len(s.Means) != len(s.Values) || len(s.Stds) != len(s.Values) {
		return &ConfigurationError{Reason: fmt.Sprintf(
			"sequence length mismatch: %d values, %d means, %d stds",
			len(s.Values), len(s.Means), len(s.Stds))}
	}
	return nil
}

// StdValid is false where the reference std is zero; SD based rules never fire there.
func (s Series) StdValid(i int) bool {
	return s.Stds[i] != 0
}

func (s Series) deviation(i int) float64 {
	return s.Values[i] - s.Means[i]
}
