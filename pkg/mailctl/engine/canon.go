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

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
)

// canonKey is the identity of a rule, independent of rule ids and of
// the order labels happen to be listed in. Label references are by
// name on both sides; add and remove lists are sorted with duplicates
// preserved, so two rules differing only in repetition count get
// distinct keys.
type canonKey struct {
	From           string
	To             string
	Subject        string
	Query          string
	NegatedQuery   string
	HasAttachment  bool
	Size           int64
	SizeComparison string
	Add            string
	Remove         string
	Forward        string
}

// CanonicalKey fingerprints a criteria/action pair. The same logical
// rule always produces the same key, regardless of which side of the
// diff it came from.
func CanonicalKey(c Criteria, add, remove []string, forward string) string {
	k := canonKey{
		From:           c.From,
		To:             c.To,
		Subject:        c.Subject,
		Query:          c.Query,
		NegatedQuery:   c.NegatedQuery,
		HasAttachment:  c.HasAttachment,
		Size:           c.Size,
		SizeComparison: c.SizeComparison,
		Add:            joinSorted(add),
		Remove:         joinSorted(remove),
		Forward:        forward,
	}
	return hashStruct(k)
}

// DesiredKey computes the canonical key of a desired rule. Category
// shortcuts expand to their system label names before sorting.
func DesiredKey(r RuleSpec) string {
	return CanonicalKey(CriteriaFromMatch(r.Match), r.Action.AddNames(), r.Action.Remove, r.Action.Forward)
}

// LiveKey computes the canonical key of a live rule, translating label
// ids to names through idToName. Unknown ids fall back to the raw id,
// which already equals the name for system labels.
func LiveKey(r LiveRule, idToName map[string]string) string {
	return CanonicalKey(r.Criteria,
		namesForIDs(r.Action.AddLabelIDs, idToName),
		namesForIDs(r.Action.RemoveLabelIDs, idToName),
		r.Action.Forward)
}

func namesForIDs(ids []string, idToName map[string]string) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := idToName[id]; ok {
			names = append(names, name)
		} else {
			names = append(names, id)
		}
	}
	return names
}

func joinSorted(ss []string) string {
	sorted := append([]string{}, ss...)
	sort.Strings(sorted)
	return strings.Join(sorted, "\x00")
}

func hashStruct(a interface{}) string {
	h := sha256.New()
	h.Write([]byte(fmt.Sprintf("%#v", a)))
	return fmt.Sprintf("%x", h.Sum(nil))
}
