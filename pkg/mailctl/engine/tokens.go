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

	log "github.com/sirupsen/logrus"
)

// TokenUpdate is one pending rewrite of a live rule's from-criterion.
// The rule is replaced rather than edited: the new rule is created
// first and the old one deleted only after the create succeeds.
type TokenUpdate struct {
	Old     LiveRule
	NewFrom string
}

const tokenSeparator = " OR "

// SplitTokens splits a from-criterion into its OR-joined tokens,
// trimming whitespace and dropping empties.
func SplitTokens(from string) []string {
	var tokens []string
	for _, t := range strings.Split(from, tokenSeparator) {
		if t = strings.TrimSpace(t); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// JoinTokens is the inverse of SplitTokens.
func JoinTokens(tokens []string) string {
	return strings.Join(tokens, tokenSeparator)
}

// matchesPrefix reports whether a label name falls under prefix: equal
// to it or nested below it with a slash.
func matchesPrefix(name, prefix string) bool {
	return name == prefix || strings.HasPrefix(name, prefix+"/")
}

// selectRules picks the live rules whose add-labels fall under prefix
// and whose from-criterion contains needle, case-insensitively.
func selectRules(live []LiveRule, idToName map[string]string, prefix, needle string) []LiveRule {
	lowNeedle := strings.ToLower(needle)
	var selected []LiveRule
	for _, r := range live {
		if !strings.Contains(strings.ToLower(r.Criteria.From), lowNeedle) {
			continue
		}
		for _, name := range namesForIDs(r.Action.AddLabelIDs, idToName) {
			if matchesPrefix(name, prefix) {
				selected = append(selected, r)
				break
			}
		}
	}
	return selected
}

// AddTokens plans token additions on the selected rules. Tokens already
// present (ignoring case) are skipped; added tokens keep the caller's
// casing. Rules that end up unchanged produce no update, so the
// operation is idempotent.
func AddTokens(live []LiveRule, idToName map[string]string, prefix, needle string, tokens []string) []TokenUpdate {
	var updates []TokenUpdate
	for _, r := range selectRules(live, idToName, prefix, needle) {
		existing := SplitTokens(r.Criteria.From)
		have := map[string]bool{}
		for _, t := range existing {
			have[strings.ToLower(t)] = true
		}
		merged := append([]string{}, existing...)
		for _, t := range tokens {
			if t = strings.TrimSpace(t); t == "" || have[strings.ToLower(t)] {
				continue
			}
			have[strings.ToLower(t)] = true
			merged = append(merged, t)
		}
		if len(merged) == len(existing) {
			continue
		}
		updates = append(updates, TokenUpdate{Old: r, NewFrom: JoinTokens(merged)})
	}
	return updates
}

// RemoveTokens plans token removals on the selected rules. A rule whose
// from-criterion would end up empty is skipped with a warning rather
// than turned into a match-everything rule.
func RemoveTokens(live []LiveRule, idToName map[string]string, prefix, needle string, tokens []string) []TokenUpdate {
	drop := map[string]bool{}
	for _, t := range tokens {
		drop[strings.ToLower(strings.TrimSpace(t))] = true
	}
	var updates []TokenUpdate
	for _, r := range selectRules(live, idToName, prefix, needle) {
		existing := SplitTokens(r.Criteria.From)
		var kept []string
		for _, t := range existing {
			if !drop[strings.ToLower(t)] {
				kept = append(kept, t)
			}
		}
		if len(kept) == len(existing) {
			continue
		}
		if len(kept) == 0 {
			log.Warnf("skipping filter %s: removing %d token(s) would leave it empty", r.ID, len(existing))
			continue
		}
		updates = append(updates, TokenUpdate{Old: r, NewFrom: JoinTokens(kept)})
	}
	return updates
}

// ApplyTokenUpdates replaces each rule with its rewritten version,
// creating the new rule before deleting the old one so a failure never
// loses a rule.
func ApplyTokenUpdates(ctx context.Context, p Provider, updates []TokenUpdate, dryRun bool) (int, error) {
	applied := 0
	for _, u := range updates {
		criteria := u.Old.Criteria
		criteria.From = u.NewFrom
		if dryRun {
			log.Infof("dry-run: would rewrite filter %s from-criterion to %q", u.Old.ID, u.NewFrom)
			applied++
			continue
		}
		newID, err := p.CreateFilter(ctx, criteria, u.Old.Action)
		if err != nil {
			return applied, &ProviderError{Op: fmt.Sprintf("creating replacement for filter %s", u.Old.ID), Err: err}
		}
		if err := p.DeleteFilter(ctx, u.Old.ID); err != nil {
			return applied, &ProviderError{Op: fmt.Sprintf("deleting filter %s (replacement %s exists)", u.Old.ID, newID), Err: err}
		}
		applied++
	}
	return applied, nil
}
