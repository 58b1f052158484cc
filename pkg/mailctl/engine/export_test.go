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

func TestSpecFromLiveRoundTrips(t *testing.T) {
	live := []LiveRule{
		{
			ID:       "f1",
			Criteria: Criteria{From: "news@acme.com", HasAttachment: true},
			Action:   LiveAction{AddLabelIDs: []string{"Label_1", "CATEGORY_UPDATES"}, Forward: "b@y.com"},
		},
		{
			ID:       "f2",
			Criteria: Criteria{Query: "unsubscribe"},
			Action:   LiveAction{RemoveLabelIDs: []string{"INBOX"}},
		},
	}
	idToName := map[string]string{"Label_1": "Newsletters"}

	specs := SpecFromLive(live, idToName)
	require.Len(t, specs, 2)
	assert.Equal(t, []string{"Newsletters", "CATEGORY_UPDATES"}, specs[0].Action.Add)
	assert.Equal(t, "b@y.com", specs[0].Action.Forward)
	assert.Equal(t, []string{"INBOX"}, specs[1].Action.Remove)

	// The exported document describes exactly the live state.
	plan := Diff(specs, live, idToName, true)
	assert.True(t, plan.Empty(), "exported rules must diff clean against their source, got %+v", plan)
}
