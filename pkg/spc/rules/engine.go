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

import (
	"errors"
	"fmt"

	"github.com/labqc/spc-pipeline/pkg/api"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "spc.Rules")

var ErrUnknownRule = errors.New("unknown rule")

// RuleInfo describes a catalogue entry.
type RuleInfo struct {
	ID          api.RuleID `json:"id"`
	Window      int        `json:"window"`
	SDBased     bool       `json:"sdBased"`
	Description string     `json:"description"`
}

type catalogueEntry struct {
	RuleInfo
	detect Detector
}

// Engine evaluates rules through a fixed identifier to detector table. It holds no
// mutable state and can be shared between goroutines.
type Engine struct {
	r4sMode api.R4sMode
	order   []api.RuleID
	table   map[api.RuleID]catalogueEntry
}

func NewEngine(settings api.RulesSettings) (*Engine, error) {
	mode := settings.GetR4sMode()
	var r4s Detector
	switch mode {
	case api.R4sPrefixMin:
		r4s = rangeSD(false)
	case api.R4sSeriesMin:
		r4s = rangeSD(true)
	case api.R4sRollingRawMin:
		r4s = rangeRaw
	default:
		return nil, &ConfigurationError{Reason: fmt.Sprintf("unknown R-4s mode %q", mode)}
	}
	log.Debugf("NewEngine r4sMode=%s", mode)

	entries := catalogue(r4s)
	e := &Engine{
		r4sMode: mode,
		order:   make([]api.RuleID, 0, len(entries)),
		table:   make(map[api.RuleID]catalogueEntry, len(entries)),
	}
	for _, ce := range entries {
		e.order = append(e.order, ce.ID)
		e.table[ce.ID] = ce
	}
	return e, nil
}

func catalogue(r4s Detector) []catalogueEntry {
	return []catalogueEntry{
		{RuleInfo{api.Rule1_2s, 1, true, "warning rule: one observation outside mean ±2SD"}, beyondSD(2)},
		{RuleInfo{api.Rule1_25s, 1, true, "random error: one observation outside mean ±2.5SD"}, beyondSD(2.5)},
		{RuleInfo{api.Rule1_3s, 1, true, "random error or start of a large systematic error: one observation outside mean ±3SD"}, beyondSD(3)},
		{RuleInfo{api.Rule1_35s, 1, true, "random error: one observation outside mean ±3.5SD"}, beyondSD(3.5)},
		{RuleInfo{api.Rule1_4s, 1, true, "random error: one observation outside mean ±4SD"}, beyondSD(4)},
		{RuleInfo{api.Rule1_5s, 1, true, "random error: one observation outside mean ±5SD"}, beyondSD(5)},
		{RuleInfo{api.Rule2_2s, 2, true, "systematic error: two consecutive observations beyond 2SD on the same side of the mean"}, consecutiveBeyondSD(2, 2)},
		{RuleInfo{api.RuleR4s, 1, true, "random error: 4SD range between observations"}, r4s},
		{RuleInfo{api.Rule3_1s, 3, true, "systematic error: three consecutive observations beyond 1SD on the same side of the mean"}, consecutiveBeyondSD(3, 1)},
		{RuleInfo{api.Rule4_1s, 4, true, "systematic error: four consecutive observations beyond 1SD on the same side of the mean"}, consecutiveBeyondSD(4, 1)},
		{RuleInfo{api.Rule7T, 7, false, "trend: seven observations strictly increasing or strictly decreasing"}, trend(7)},
		{RuleInfo{api.Rule7x, 7, false, "shift: seven observations on the same side of the mean"}, sameSideOfMean(7)},
		{RuleInfo{api.Rule8x, 8, false, "shift: eight observations on the same side of the mean"}, sameSideOfMean(8)},
		{RuleInfo{api.Rule9x, 9, false, "shift: nine observations on the same side of the mean"}, sameSideOfMean(9)},
		{RuleInfo{api.Rule10x, 10, false, "shift: ten observations on the same side of the mean"}, sameSideOfMean(10)},
		{RuleInfo{api.Rule12x, 12, false, "shift: twelve observations on the same side of the mean"}, sameSideOfMean(12)},
	}
}

var knownRules = func() map[api.RuleID]struct{} {
	known := map[api.RuleID]struct{}{}
	for _, ce := range catalogue(rangeRaw) {
		known[ce.ID] = struct{}{}
	}
	return known
}()

// IsKnown tells whether a detector exists for the rule.
func IsKnown(rule api.RuleID) bool {
	_, ok := knownRules[rule]
	return ok
}

func (e *Engine) R4sMode() api.R4sMode {
	return e.r4sMode
}

// Lookup returns the detector registered for the rule.
func (e *Engine) Lookup(rule api.RuleID) (Detector, bool) {
	ce, ok := e.table[rule]
	if !ok {
		return nil, false
	}
	return ce.detect, true
}

// Rules lists the catalogue in canonical order.
func (e *Engine) Rules() []RuleInfo {
	infos := make([]RuleInfo, 0, len(e.order))
	for _, id := range e.order {
		infos = append(infos, e.table[id].RuleInfo)
	}
	return infos
}

// Evaluate runs one rule over the series.
func (e *Engine) Evaluate(rule api.RuleID, s Series) ([]bool, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	detect, ok := e.Lookup(rule)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRule, rule)
	}
	return detect(s), nil
}
