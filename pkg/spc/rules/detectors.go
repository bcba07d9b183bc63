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

import "math"

// Detector flags the points of a series violating one rule. The result always has
// s.Len() entries and the series is never modified.
type Detector func(s Series) []bool

const rangeLimitSD = 4

// beyondSD flags single points further than k SD from their mean.
func beyondSD(k float64) Detector {
	return func(s Series) []bool {
		out := make([]bool, s.Len())
		for i := range out {
			out[i] = s.StdValid(i) && math.Abs(s.deviation(i)) > k*s.Stds[i]
		}
		return out
	}
}

// consecutiveBeyondSD flags the last point of n consecutive points that are all
// above mean+k*SD, or all below mean-k*SD. A zero std breaks the run.
func consecutiveBeyondSD(n int, k float64) Detector {
	return func(s Series) []bool {
		out := make([]bool, s.Len())
		above, below := 0, 0
		for i := range out {
			if !s.StdValid(i) {
				above, below = 0, 0
				continue
			}
			dev, limit := s.deviation(i), k*s.Stds[i]
			above = extendRun(above, dev > limit)
			below = extendRun(below, dev < -limit)
			out[i] = above >= n || below >= n
		}
		return out
	}
}

// sameSideOfMean flags the last point of n consecutive values strictly below their
// means, or strictly above them. The std is not involved.
func sameSideOfMean(n int) Detector {
	return func(s Series) []bool {
		out := make([]bool, s.Len())
		above, below := 0, 0
		for i := range out {
			above = extendRun(above, s.Values[i] > s.Means[i])
			below = extendRun(below, s.Values[i] < s.Means[i])
			out[i] = above >= n || below >= n
		}
		return out
	}
}

// trend flags the last point of n values that strictly increase or strictly decrease.
func trend(n int) Detector {
	return func(s Series) []bool {
		out := make([]bool, s.Len())
		// number of consecutive strict steps ending at i
		up, down := 0, 0
		for i := 1; i < len(out); i++ {
			up = extendRun(up, s.Values[i] > s.Values[i-1])
			down = extendRun(down, s.Values[i] < s.Values[i-1])
			out[i] = up >= n-1 || down >= n-1
		}
		return out
	}
}

// rangeSD implements R-4s. The standardized deviation of each point is compared with
// the minimum standardized deviation seen so far (prefix) or over the whole series.
func rangeSD(wholeSeries bool) Detector {
	return func(s Series) []bool {
		out := make([]bool, s.Len())
		lowest := math.Inf(1)
		if wholeSeries {
			for i := range out {
				if s.StdValid(i) {
					lowest = math.Min(lowest, s.deviation(i)/s.Stds[i])
				}
			}
		}
		for i := range out {
			if !s.StdValid(i) {
				continue
			}
			z := s.deviation(i) / s.Stds[i]
			lowest = math.Min(lowest, z)
			out[i] = z-lowest >= rangeLimitSD
		}
		return out
	}
}

// rangeRaw implements the raw value variant of R-4s: the distance between a value and
// the running minimum of raw values, compared with 4 times the current std.
func rangeRaw(s Series) []bool {
	out := make([]bool, s.Len())
	lowest := math.Inf(1)
	for i := range out {
		lowest = math.Min(lowest, s.Values[i])
		out[i] = s.StdValid(i) && s.Values[i]-lowest >= rangeLimitSD*s.Stds[i]
	}
	return out
}

func extendRun(run int, ok bool) int {
	if ok {
		return run + 1
	}
	return 0
}
