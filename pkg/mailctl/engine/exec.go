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
	"strings"
	"time"

	multierror "github.com/hashicorp/go-multierror"
	"github.com/pmezard/go-difflib/difflib"
	log "github.com/sirupsen/logrus"

	"github.com/wesnick/mailctl/pkg/mailctl/engine/reporting"
)

const (
	deleteAttempts     = 3
	deleteBackoffBase  = time.Second
	defaultDiffContext = 5
)

// SyncResult reports what a sync actually did. Counts are returned even
// when the sync ends in error.
type SyncResult struct {
	Created int `json:"created"`
	Deleted int `json:"deleted"`
	Failed  int `json:"failed"`
}

// Executor applies plans against a provider.
type Executor struct {
	Provider Provider
	Resolver *Resolver
	// DryRun logs mutations instead of performing them.
	DryRun bool
	// RequireForwardVerified gates the whole sync on every forward
	// address in the plan being verified by the provider.
	RequireForwardVerified bool
	// Sleep is replaceable for tests; defaults to time.Sleep.
	Sleep func(time.Duration)
}

// NewExecutor returns an executor with a fresh resolver over p.
func NewExecutor(p Provider) *Executor {
	return &Executor{Provider: p, Resolver: NewResolver(p), Sleep: time.Sleep}
}

// RenderPlan renders a plan as a unified diff of the current rules
// against the rules to be applied.
func RenderPlan(p Plan, colorize bool) string {
	if p.Empty() {
		return "No changes.\n"
	}
	var removed, added strings.Builder
	for _, r := range p.ToDelete {
		removed.WriteString(renderLive(r))
	}
	for _, r := range p.ToCreate {
		added.WriteString(renderSpec(r))
	}
	s, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(removed.String()),
		B:        difflib.SplitLines(added.String()),
		FromFile: "Current",
		ToFile:   "TO BE APPLIED",
		Context:  defaultDiffContext,
	})
	if err != nil {
		return fmt.Sprintf("Removed:\n%s\nAdded:\n%s", removed.String(), added.String())
	}
	if colorize {
		s = reporting.ColorizeDiff(s)
	}
	return s
}

func renderSpec(r RuleSpec) string {
	var b strings.Builder
	b.WriteString("* Criteria:\n")
	b.WriteString("    " + CriteriaFromMatch(r.Match).String() + "\n")
	b.WriteString("  Actions:\n")
	writeList(&b, "add", r.Action.AddNames())
	writeList(&b, "remove", r.Action.Remove)
	if r.Action.Forward != "" {
		b.WriteString("    forward: " + r.Action.Forward + "\n")
	}
	return b.String()
}

func renderLive(r LiveRule) string {
	var b strings.Builder
	b.WriteString("* Criteria:\n")
	b.WriteString("    " + r.Criteria.String() + "\n")
	b.WriteString("  Actions:\n")
	writeList(&b, "add", r.Action.AddLabelIDs)
	writeList(&b, "remove", r.Action.RemoveLabelIDs)
	if r.Action.Forward != "" {
		b.WriteString("    forward: " + r.Action.Forward + "\n")
	}
	return b.String()
}

func writeList(b *strings.Builder, name string, vals []string) {
	if len(vals) == 0 {
		return
	}
	b.WriteString("    " + name + ": " + strings.Join(vals, ", ") + "\n")
}

// Sync applies a plan: creates first, then deletes. Creates fail fast.
// Deletes are retried with backoff; an exhausted delete is logged and
// skipped so one stuck rule cannot block the rest of the plan, but the
// failures are collected and returned so the run does not report
// success.
func (e *Executor) Sync(ctx context.Context, p Plan) (SyncResult, error) {
	var res SyncResult

	if e.RequireForwardVerified {
		if err := e.checkForwards(ctx, p); err != nil {
			return res, err
		}
	}

	for _, r := range p.ToCreate {
		if err := e.createRule(ctx, r); err != nil {
			res.Failed++
			return res, fmt.Errorf("creating rule (%s): %w", CriteriaFromMatch(r.Match), err)
		}
		res.Created++
	}

	var merr *multierror.Error
	for _, r := range p.ToDelete {
		if err := e.deleteWithRetry(ctx, r.ID); err != nil {
			log.Warnf("giving up on deleting filter %s: %v", r.ID, err)
			res.Failed++
			merr = multierror.Append(merr, fmt.Errorf("deleting filter %s: %w", r.ID, err))
			continue
		}
		res.Deleted++
	}
	return res, merr.ErrorOrNil()
}

// checkForwards verifies every forward address in the plan against the
// provider's verified set before any mutation happens.
func (e *Executor) checkForwards(ctx context.Context, p Plan) error {
	wanted := map[string]bool{}
	for _, r := range p.ToCreate {
		if r.Action.Forward != "" {
			wanted[r.Action.Forward] = true
		}
	}
	if len(wanted) == 0 {
		return nil
	}
	verified, err := e.Provider.VerifiedForwardingAddresses(ctx)
	if err != nil {
		return &ProviderError{Op: "listing forwarding addresses", Err: err}
	}
	ok := map[string]bool{}
	for _, a := range verified {
		ok[a] = true
	}
	for addr := range wanted {
		if !ok[addr] {
			return &PreconditionError{Forward: addr}
		}
	}
	return nil
}

func (e *Executor) createRule(ctx context.Context, r RuleSpec) error {
	criteria := CriteriaFromMatch(r.Match)
	addIDs, err := e.Resolver.ResolveAll(ctx, r.Action.AddNames())
	if err != nil {
		return err
	}
	removeIDs, err := e.Resolver.ResolveAll(ctx, r.Action.Remove)
	if err != nil {
		return err
	}
	action := LiveAction{AddLabelIDs: addIDs, RemoveLabelIDs: removeIDs, Forward: r.Action.Forward}
	if e.DryRun {
		log.Infof("dry-run: would create filter (%s)", criteria)
		return nil
	}
	id, err := e.Provider.CreateFilter(ctx, criteria, action)
	if err != nil {
		return err
	}
	log.Debugf("created filter %s (%s)", id, criteria)
	return nil
}

func (e *Executor) deleteWithRetry(ctx context.Context, id string) error {
	if e.DryRun {
		log.Infof("dry-run: would delete filter %s", id)
		return nil
	}
	var err error
	for attempt := 0; attempt < deleteAttempts; attempt++ {
		if err = e.Provider.DeleteFilter(ctx, id); err == nil {
			return nil
		}
		if attempt < deleteAttempts-1 {
			wait := deleteBackoffBase * time.Duration(1<<attempt)
			log.Debugf("delete filter %s failed (attempt %d): %v, retrying in %s", id, attempt+1, err, wait)
			e.sleep(wait)
		}
	}
	return err
}

func (e *Executor) sleep(d time.Duration) {
	if e.Sleep != nil {
		e.Sleep(d)
		return
	}
	time.Sleep(d)
}
