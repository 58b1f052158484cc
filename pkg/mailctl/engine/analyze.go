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
	"fmt"

	log "github.com/sirupsen/logrus"
)

// ImpactRow is the sampled message count for one rule's query.
type ImpactRow struct {
	Query   string `json:"query"`
	Matched int    `json:"matched"`
}

// Impact samples how many messages each desired rule would touch inside
// the window. Counts are capped by the sweeper's page limits, so they
// are a floor, not an exact total.
func (s *Sweeper) Impact(ctx context.Context, rules []RuleSpec, w Window) ([]ImpactRow, error) {
	var rows []ImpactRow
	for _, r := range rules {
		if r.Match.Empty() {
			continue
		}
		query := BuildQuery(r.Match, w, s.OnlyInbox)
		ids, err := s.Provider.ListMessageIDs(ctx, query, s.Pages, s.PageSize)
		if err != nil {
			return rows, &ProviderError{Op: fmt.Sprintf("searching %q", query), Err: err}
		}
		rows = append(rows, ImpactRow{Query: query, Matched: len(ids)})
	}
	return rows, nil
}

// PruneResult reports a prune-empty pass.
type PruneResult struct {
	Scanned int `json:"scanned"`
	Empty   int `json:"empty"`
	Deleted int `json:"deleted"`
}

// PruneEmpty deletes live rules whose criteria match no messages in the
// sampled window. Deletion uses the same bounded retry as sync; a rule
// that cannot be deleted is logged and skipped.
func (e *Executor) PruneEmpty(ctx context.Context, w Window, onlyInbox bool, pages, pageSize int) (PruneResult, error) {
	var res PruneResult
	live, err := e.Provider.ListFilters(ctx)
	if err != nil {
		return res, &ProviderError{Op: "listing filters", Err: err}
	}
	for _, r := range live {
		if r.Criteria.Empty() {
			continue
		}
		res.Scanned++
		query := BuildQuery(MatchFromCriteria(r.Criteria), w, onlyInbox)
		ids, err := e.Provider.ListMessageIDs(ctx, query, pages, pageSize)
		if err != nil {
			return res, &ProviderError{Op: fmt.Sprintf("searching %q", query), Err: err}
		}
		if len(ids) > 0 {
			continue
		}
		res.Empty++
		if e.DryRun {
			log.Infof("dry-run: would delete empty filter %s (%s)", r.ID, r.Criteria)
			continue
		}
		if err := e.deleteWithRetry(ctx, r.ID); err != nil {
			log.Warnf("giving up on deleting empty filter %s: %v", r.ID, err)
			continue
		}
		res.Deleted++
	}
	return res, nil
}
