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

// MatchFromCriteria is the inverse of CriteriaFromMatch, used when
// exporting live rules back into a desired-state document.
func MatchFromCriteria(c Criteria) Match {
	return Match{
		From:           c.From,
		To:             c.To,
		Subject:        c.Subject,
		Query:          c.Query,
		NegatedQuery:   c.NegatedQuery,
		HasAttachment:  c.HasAttachment,
		Size:           c.Size,
		SizeComparison: c.SizeComparison,
	}
}

// SpecFromLive converts live rules into desired rules, translating
// label ids to names. The result round-trips: diffing it against the
// same live rules yields an empty plan.
func SpecFromLive(live []LiveRule, idToName map[string]string) []RuleSpec {
	specs := make([]RuleSpec, 0, len(live))
	for _, r := range live {
		specs = append(specs, RuleSpec{
			Match: MatchFromCriteria(r.Criteria),
			Action: Action{
				Add:     namesForIDs(r.Action.AddLabelIDs, idToName),
				Remove:  namesForIDs(r.Action.RemoveLabelIDs, idToName),
				Forward: r.Action.Forward,
			},
		})
	}
	return specs
}
