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

package config

import (
	"os"

	"github.com/labqc/spc-pipeline/pkg/api"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

type profilesFile struct {
	Profiles []api.RuleProfile `yaml:"profiles"`
}

// LoadProfiles reads rule profiles from a YAML file of the form:
//
//	profiles:
//	  - name: westgard
//	    rules: ["1-3s", "2-2s", "R-4s"]
func LoadProfiles(path string) ([]api.RuleProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading profiles file %s", path)
	}
	return ParseProfiles(data)
}

func ParseProfiles(data []byte) ([]api.RuleProfile, error) {
	var pf profilesFile
	if err := yaml.UnmarshalStrict(data, &pf); err != nil {
		return nil, errors.Wrap(err, "parsing rule profiles")
	}
	seen := map[string]struct{}{}
	for i, p := range pf.Profiles {
		if p.Name == "" {
			return nil, errors.Errorf("profile #%d has no name", i)
		}
		if _, dup := seen[p.Name]; dup {
			return nil, errors.Errorf("duplicate profile %q", p.Name)
		}
		if len(p.Rules) == 0 {
			return nil, errors.Errorf("profile %q has no rules", p.Name)
		}
		seen[p.Name] = struct{}{}
	}
	return pf.Profiles, nil
}
