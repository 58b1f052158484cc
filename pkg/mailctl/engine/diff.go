// Copyright 2024 Wes Nick
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package engine

// Plan is the outcome of diffing desired rules against live rules.
// ToCreate preserves document order; ToDelete preserves live listing
// order. Applying a plan and diffing again yields an empty plan.
type Plan struct {
	ToCreate []RuleSpec
	ToDelete []LiveRule
}

// Empty returns true if the plan contains no changes.
func (p Plan) Empty() bool {
	return len(p.ToCreate) == 0 && len(p.ToDelete) == 0
}

// Diff computes a plan from desired and live rules. It is a pure
// function of its inputs and never touches the provider.
//
// Rules are matched by canonical key. Desired rules with no live
// counterpart go to ToCreate. Live rules with no desired counterpart go
// to ToDelete only when deleteMissing is set; otherwise unmanaged live
// rules are left alone. When two live rules share a key, the last one
// listed wins and the earlier ones are ignored.
func Diff(desired []RuleSpec, live []LiveRule, idToName map[string]string, deleteMissing bool) Plan {
	liveByKey := make(map[string]LiveRule, len(live))
	keys := make([]string, 0, len(live))
	for _, r := range live {
		k := LiveKey(r, idToName)
		if _, seen := liveByKey[k]; !seen {
			keys = append(keys, k)
		}
		liveByKey[k] = r
	}

	desiredKeys := make(map[string]bool, len(desired))
	var plan Plan
	for _, r := range desired {
		k := DesiredKey(r)
		desiredKeys[k] = true
		if _, ok := liveByKey[k]; !ok {
			plan.ToCreate = append(plan.ToCreate, r)
		}
	}

	if deleteMissing {
		for _, k := range keys {
			if !desiredKeys[k] {
				plan.ToDelete = append(plan.ToDelete, liveByKey[k])
			}
		}
	}
	return plan
}
