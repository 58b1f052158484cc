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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffCreatesMissing(t *testing.T) {
	desired := []RuleSpec{
		{Match: Match{From: "a@x.com"}, Action: Action{Add: []string{"A"}}},
		{Match: Match{From: "b@x.com"}, Action: Action{Add: []string{"B"}}},
	}
	live := []LiveRule{
		{ID: "f1", Criteria: Criteria{From: "a@x.com"}, Action: LiveAction{AddLabelIDs: []string{"Label_1"}}},
	}
	idToName := map[string]string{"Label_1": "A"}

	plan := Diff(desired, live, idToName, false)
	require.Len(t, plan.ToCreate, 1)
	assert.Equal(t, "b@x.com", plan.ToCreate[0].Match.From)
	assert.Empty(t, plan.ToDelete)
}

func TestDiffDeleteGating(t *testing.T) {
	live := []LiveRule{
		{ID: "f1", Criteria: Criteria{From: "stale@x.com"}, Action: LiveAction{AddLabelIDs: []string{"Label_1"}}},
	}
	idToName := map[string]string{"Label_1": "A"}

	plan := Diff(nil, live, idToName, false)
	assert.True(t, plan.Empty(), "unmanaged rules must survive without --delete-missing")

	plan = Diff(nil, live, idToName, true)
	require.Len(t, plan.ToDelete, 1)
	assert.Equal(t, "f1", plan.ToDelete[0].ID)
}

func TestDiffIdempotence(t *testing.T) {
	desired := []RuleSpec{
		{Match: Match{From: "a@x.com"}, Action: Action{Add: []string{"A"}, Remove: []string{"INBOX"}}},
		{Match: Match{Query: "unsubscribe"}, Action: Action{CategorizeAs: "promotions"}},
	}
	live := []LiveRule{
		{ID: "f9", Criteria: Criteria{From: "old@x.com"}, Action: LiveAction{AddLabelIDs: []string{"Label_1"}}},
	}
	idToName := map[string]string{"Label_1": "A"}
	nameToID := map[string]string{"A": "Label_1"}

	plan := Diff(desired, live, idToName, true)
	require.Len(t, plan.ToCreate, 2)
	require.Len(t, plan.ToDelete, 1)

	// Apply the plan to the live set by hand, with the id lookups the
	// executor would perform.
	var next []LiveRule
	for _, r := range live {
		deleted := false
		for _, d := range plan.ToDelete {
			if d.ID == r.ID {
				deleted = true
				break
			}
		}
		if !deleted {
			next = append(next, r)
		}
	}
	for i, r := range plan.ToCreate {
		var addIDs []string
		for _, n := range r.Action.AddNames() {
			if id, ok := nameToID[n]; ok {
				addIDs = append(addIDs, id)
			} else {
				addIDs = append(addIDs, n)
			}
		}
		next = append(next, LiveRule{
			ID:       string(rune('a' + i)),
			Criteria: CriteriaFromMatch(r.Match),
			Action:   LiveAction{AddLabelIDs: addIDs, RemoveLabelIDs: r.Action.Remove, Forward: r.Action.Forward},
		})
	}

	again := Diff(desired, next, idToName, true)
	assert.True(t, again.Empty(), "re-diff after apply must be empty, got %+v", again)
}

func TestDiffDuplicateLiveKeysLastWins(t *testing.T) {
	live := []LiveRule{
		{ID: "f1", Criteria: Criteria{From: "dup@x.com"}},
		{ID: "f2", Criteria: Criteria{From: "dup@x.com"}},
	}
	plan := Diff(nil, live, nil, true)
	require.Len(t, plan.ToDelete, 1)
	assert.Equal(t, "f2", plan.ToDelete[0].ID)
}

func TestDiffPreservesDocumentOrder(t *testing.T) {
	desired := []RuleSpec{
		{Match: Match{From: "z@x.com"}, Action: Action{Add: []string{"Z"}}},
		{Match: Match{From: "a@x.com"}, Action: Action{Add: []string{"A"}}},
	}
	plan := Diff(desired, nil, nil, false)
	require.Len(t, plan.ToCreate, 2)
	assert.Equal(t, "z@x.com", plan.ToCreate[0].Match.From)
	assert.Equal(t, "a@x.com", plan.ToCreate[1].Match.From)
}
