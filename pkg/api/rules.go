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

// RuleID identifies a Westgard-style rule.
// For doc generation, enum definitions must match format `Constant Type = "value" // doc`
type RuleID string

const (
	Rule1_2s   RuleID = "1-2s"   // one observation outside mean ±2SD
	Rule1_25s  RuleID = "1-2.5s" // one observation outside mean ±2.5SD
	Rule1_3s   RuleID = "1-3s"   // one observation outside mean ±3SD
	Rule1_35s  RuleID = "1-3.5s" // one observation outside mean ±3.5SD
	Rule1_4s   RuleID = "1-4s"   // one observation outside mean ±4SD
	Rule1_5s   RuleID = "1-5s"   // one observation outside mean ±5SD
	Rule2_2s   RuleID = "2-2s"   // two consecutive observations beyond 2SD on the same side
	Rule2of3_2 RuleID = "2/3-2s" // accepted in rule lists, no detector
	RuleR4s    RuleID = "R-4s"   // range of standardized deviations reaches 4SD
	Rule3_1s   RuleID = "3-1s"   // three consecutive observations beyond 1SD on the same side
	Rule4_1s   RuleID = "4-1s"   // four consecutive observations beyond 1SD on the same side
	Rule7T     RuleID = "7-T"    // seven observations strictly trending up or down
	Rule7x     RuleID = "7-x"    // seven observations on the same side of the mean
	Rule8x     RuleID = "8-x"    // eight observations on the same side of the mean
	Rule9x     RuleID = "9-x"    // nine observations on the same side of the mean
	Rule10x    RuleID = "10-x"   // ten observations on the same side of the mean
	Rule12x    RuleID = "12-x"   // twelve observations on the same side of the mean
)

// CanonicalRuleOrder is the priority order used when reordering requested rules.
var CanonicalRuleOrder = []RuleID{
	Rule1_2s, Rule1_25s, Rule1_3s, Rule1_35s, Rule1_4s, Rule1_5s,
	Rule2_2s, Rule2of3_2, RuleR4s, Rule3_1s, Rule4_1s,
	Rule7T, Rule7x, Rule8x, Rule9x, Rule10x, Rule12x,
}

// R4sMode selects how the R-4s range is measured.
type R4sMode string

const (
	R4sPrefixMin     R4sMode = "prefix-min"      // standardized deviation minus its running minimum over points 0..i
	R4sSeriesMin     R4sMode = "series-min"      // standardized deviation minus its minimum over the whole series
	R4sRollingRawMin R4sMode = "rolling-raw-min" // raw value minus running minimum raw value, compared to 4 x current SD
)

type RuleProfile struct {
	Name        string   `yaml:"name" json:"name" doc:"profile name, referenced by requests"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty" doc:"free text description"`
	Rules       []RuleID `yaml:"rules" json:"rules" doc:"ordered list of rule identifiers"`
}

type RulesSettings struct {
	R4sMode          R4sMode       `yaml:"r4sMode,omitempty" json:"r4sMode,omitempty" doc:"(enum) R-4s definition: prefix-min (default), series-min or rolling-raw-min"`
	KeepRequestOrder bool          `yaml:"keepRequestOrder,omitempty" json:"keepRequestOrder,omitempty" doc:"evaluate rules in request order instead of the canonical priority order"`
	ProfilesFile     string        `yaml:"profilesFile,omitempty" json:"profilesFile,omitempty" doc:"YAML file with additional rule profiles"`
	Profiles         []RuleProfile `yaml:"profiles,omitempty" json:"profiles,omitempty" doc:"inline rule profiles"`
	MaxParallel      int           `yaml:"maxParallel,omitempty" json:"maxParallel,omitempty" doc:"maximum number of levels evaluated concurrently for one request (default: 6)"`
}

func (r *RulesSettings) GetR4sMode() R4sMode {
	if r.R4sMode == "" {
		return R4sPrefixMin
	}
	return r.R4sMode
}
