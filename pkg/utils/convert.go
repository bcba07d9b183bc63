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

package utils

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ConvertToFloat64 accepts numbers, json.Number and numeric strings.
func ConvertToFloat64(unk interface{}) (float64, error) {
	switch i := unk.(type) {
	case float64:
		return i, nil
	case float32:
		return float64(i), nil
	case int64:
		return float64(i), nil
	case int32:
		return float64(i), nil
	case int:
		return float64(i), nil
	case uint64:
		return float64(i), nil
	case uint32:
		return float64(i), nil
	case uint:
		return float64(i), nil
	case json.Number:
		return i.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(i), 64)
	case nil:
		return math.NaN(), fmt.Errorf("missing value")
	default:
		return math.NaN(), fmt.Errorf("can't convert %v (%T) to float64", unk, unk)
	}
}

// ConvertToFiniteFloat64 is like ConvertToFloat64 but also rejects NaN and infinities.
func ConvertToFiniteFloat64(unk interface{}) (float64, error) {
	f, err := ConvertToFloat64(unk)
	if err != nil {
		return f, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f, fmt.Errorf("%v is not a finite number", unk)
	}
	return f, nil
}
