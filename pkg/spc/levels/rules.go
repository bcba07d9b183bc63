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

package levels

import (
	"errors"
	"fmt"
	"sort"

	"github.com/labqc/spc-pipeline/pkg/api"
)

var ErrUnknownProfile = errors.New("unknown rule profile")

// BuiltinProfiles are always available; configured profiles with the same name replace them.
var BuiltinProfiles = []api.RuleProfile{
	{
		Name:        "westgard",
		Description: "Westgard multirule: 1-3s/2-2s/R-4s/4-1s/10-x",
		Rules:       []api.RuleID{api.Rule1_3s, api.Rule2_2s, api.RuleR4s, api.Rule4_1s, api.Rule10x},
	},
	{
		Name:        "westgard-warning",
		Description: "Westgard multirule with the 1-2s warning rule",
		Rules:       []api.RuleID{api.Rule1_2s, api.Rule1_3s, api.Rule2_2s, api.RuleR4s, api.Rule4_1s, api.Rule10x},
	},
}

var canonicalRank = func() map[api.RuleID]int {
	rank := make(map[api.RuleID]int, len(api.CanonicalRuleOrder))
	for i, id := range api.CanonicalRuleOrder {
		rank[id] = i
	}
	return rank
}()

// ReorderRules keeps the identifiers that belong to the canonical priority list and
// sorts them in that order.
func ReorderRules(requested []api.RuleID) []api.RuleID {
	out := make([]api.RuleID, 0, len(requested))
	for _, id := range requested {
		if _, ok := canonicalRank[id]; ok {
			out = append(out, id)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return canonicalRank[out[i]] < canonicalRank[out[j]]
	})
	return out
}

func dedupRules(ids []api.RuleID) []api.RuleID {
	seen := make(map[api.RuleID]struct{}, len(ids))
	out := make([]api.RuleID, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// resolveRules expands the profile, appends the explicit rule list and applies the
// configured ordering.
func (e *Evaluator) resolveRules(req *api.SPCRequest) ([]api.RuleID, error) {
	var ids []api.RuleID
	if req.Profile != "" {
		p, ok := e.profiles[req.Profile]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownProfile, req.Profile)
		}
		ids = append(ids, p.Rules...)
	}
	for _, r := range req.RuleList {
		ids = append(ids, api.RuleID(r))
	}
	if !e.keepRequestOrder {
		ids = ReorderRules(ids)
	}
	return dedupRules(ids), nil
}
