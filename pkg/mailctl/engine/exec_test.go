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
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExecutor(p Provider) *Executor {
	e := NewExecutor(p)
	e.Sleep = func(time.Duration) {}
	return e
}

func TestSyncCreatesThenDeletes(t *testing.T) {
	p := newFakeProvider()
	p.labels = []Label{{ID: "Label_1", Name: "A", Type: "user"}}
	p.filters = []LiveRule{{ID: "stale", Criteria: Criteria{From: "old@x.com"}}}

	plan := Plan{
		ToCreate: []RuleSpec{{Match: Match{From: "a@x.com"}, Action: Action{Add: []string{"A"}}}},
		ToDelete: []LiveRule{{ID: "stale", Criteria: Criteria{From: "old@x.com"}}},
	}
	res, err := newTestExecutor(p).Sync(context.Background(), plan)
	require.NoError(t, err)

	assert.Equal(t, SyncResult{Created: 1, Deleted: 1}, res)
	require.Len(t, p.createdFilters, 1)
	assert.Equal(t, []string{"Label_1"}, p.createdFilters[0].Action.AddLabelIDs)
	assert.Equal(t, []string{"stale"}, p.deletedFilters)
}

func TestSyncPreconditionGateIsAtomic(t *testing.T) {
	p := newFakeProvider()
	p.verified = []string{"ok@backup.com"}

	plan := Plan{
		ToCreate: []RuleSpec{
			{Match: Match{From: "a@x.com"}, Action: Action{Add: []string{"A"}}},
			{Match: Match{From: "b@x.com"}, Action: Action{Forward: "nope@backup.com"}},
		},
		ToDelete: []LiveRule{{ID: "stale"}},
	}
	e := newTestExecutor(p)
	e.RequireForwardVerified = true
	res, err := e.Sync(context.Background(), plan)

	var perr *PreconditionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "nope@backup.com", perr.Forward)
	assert.Equal(t, SyncResult{}, res)
	assert.Empty(t, p.createdFilters, "no mutation may precede the gate")
	assert.Empty(t, p.deletedFilters)
}

func TestSyncVerifiedForwardPasses(t *testing.T) {
	p := newFakeProvider()
	p.verified = []string{"ok@backup.com"}

	plan := Plan{
		ToCreate: []RuleSpec{{Match: Match{From: "a@x.com"}, Action: Action{Forward: "ok@backup.com"}}},
	}
	e := newTestExecutor(p)
	e.RequireForwardVerified = true
	res, err := e.Sync(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
}

func TestSyncCreateFailsFast(t *testing.T) {
	p := newFakeProvider()
	p.createErr = errors.New("quota exceeded")

	plan := Plan{
		ToCreate: []RuleSpec{{Match: Match{From: "a@x.com"}}},
		ToDelete: []LiveRule{{ID: "stale"}},
	}
	res, err := newTestExecutor(p).Sync(context.Background(), plan)
	require.Error(t, err)
	assert.Equal(t, SyncResult{Failed: 1}, res)
	assert.Empty(t, p.deletedFilters, "deletes must not run after a failed create")
}

func TestSyncDeleteRetriesThenSucceeds(t *testing.T) {
	p := newFakeProvider()
	p.filters = []LiveRule{{ID: "flaky"}}
	p.deleteFailures["flaky"] = 2

	plan := Plan{ToDelete: []LiveRule{{ID: "flaky"}}}
	res, err := newTestExecutor(p).Sync(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, SyncResult{Deleted: 1}, res)
	assert.Equal(t, []string{"flaky"}, p.deletedFilters)
}

func TestSyncDeleteExhaustionContinues(t *testing.T) {
	p := newFakeProvider()
	p.filters = []LiveRule{{ID: "stuck"}, {ID: "fine"}}
	p.deleteFailures["stuck"] = 5

	plan := Plan{ToDelete: []LiveRule{{ID: "stuck"}, {ID: "fine"}}}
	res, err := newTestExecutor(p).Sync(context.Background(), plan)

	// The stuck delete must not block the rest of the plan, but it
	// must surface as an error so the run does not report success.
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deleting filter stuck")
	assert.Equal(t, SyncResult{Deleted: 1, Failed: 1}, res)
	assert.Equal(t, []string{"fine"}, p.deletedFilters)
}

func TestSyncDryRun(t *testing.T) {
	p := newFakeProvider()
	p.labels = []Label{{ID: "Label_1", Name: "A", Type: "user"}}

	plan := Plan{
		ToCreate: []RuleSpec{{Match: Match{From: "a@x.com"}, Action: Action{Add: []string{"A"}}}},
		ToDelete: []LiveRule{{ID: "stale"}},
	}
	e := newTestExecutor(p)
	e.DryRun = true
	res, err := e.Sync(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, SyncResult{Created: 1, Deleted: 1}, res)
	assert.Empty(t, p.createdFilters)
	assert.Empty(t, p.deletedFilters)
}

func TestRenderPlan(t *testing.T) {
	plan := Plan{
		ToCreate: []RuleSpec{{Match: Match{From: "a@x.com"}, Action: Action{Add: []string{"A"}}}},
		ToDelete: []LiveRule{{ID: "f1", Criteria: Criteria{From: "old@x.com"}, Action: LiveAction{AddLabelIDs: []string{"B"}}}},
	}
	out := RenderPlan(plan, false)
	assert.Contains(t, out, "Current")
	assert.Contains(t, out, "TO BE APPLIED")
	assert.Contains(t, out, "a@x.com")
	assert.Contains(t, out, "old@x.com")

	assert.True(t, strings.Contains(RenderPlan(Plan{}, false), "No changes"))
}

func TestPruneEmpty(t *testing.T) {
	p := newFakeProvider()
	p.filters = []LiveRule{
		{ID: "busy", Criteria: Criteria{From: "busy@x.com"}},
		{ID: "idle", Criteria: Criteria{From: "idle@x.com"}},
	}
	busyQuery := BuildQuery(Match{From: "busy@x.com"}, Window{NewerThanDays: 90}, false)
	p.messages[busyQuery] = msgIDs(4)

	res, err := newTestExecutor(p).PruneEmpty(context.Background(), Window{NewerThanDays: 90}, false, 10, 500)
	require.NoError(t, err)
	assert.Equal(t, PruneResult{Scanned: 2, Empty: 1, Deleted: 1}, res)
	assert.Equal(t, []string{"idle"}, p.deletedFilters)
}

func TestAddForwardByLabel(t *testing.T) {
	p := newFakeProvider()
	p.labels = []Label{{ID: "Label_1", Name: "Critical", Type: "user"}}
	p.filters = []LiveRule{
		{ID: "f1", Criteria: Criteria{From: "a@x.com"}, Action: LiveAction{AddLabelIDs: []string{"Label_1"}}},
		{ID: "f2", Criteria: Criteria{From: "b@x.com"}, Action: LiveAction{AddLabelIDs: []string{"Label_1"}, Forward: "pager@backup.com"}},
		{ID: "f3", Criteria: Criteria{From: "c@x.com"}},
	}
	p.verified = []string{"pager@backup.com"}

	n, err := AddForwardByLabel(context.Background(), p, "Critical", "pager@backup.com", true, false)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, p.createdFilters, 1)
	assert.Equal(t, "pager@backup.com", p.createdFilters[0].Action.Forward)
	assert.Equal(t, []string{"f1"}, p.deletedFilters)
}

func TestAddForwardByLabelUnverified(t *testing.T) {
	p := newFakeProvider()
	_, err := AddForwardByLabel(context.Background(), p, "Critical", "nope@backup.com", true, false)
	var perr *PreconditionError
	require.ErrorAs(t, err, &perr)
}
