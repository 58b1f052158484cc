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

// Window bounds a sweep to messages between two ages, in days. A zero
// bound is open on that side.
type Window struct {
	OlderThanDays int
	NewerThanDays int
}

// Tile splits [fromDays, toDays) into consecutive windows of at most
// step days. The last window is clipped to toDays, so the union of the
// tiles covers the range exactly with no overlap. A non-positive step
// or an empty range yields no windows.
func Tile(fromDays, toDays, step int) []Window {
	if step <= 0 || toDays <= fromDays {
		return nil
	}
	var windows []Window
	for cur := fromDays; cur < toDays; cur += step {
		end := cur + step
		if end > toDays {
			end = toDays
		}
		windows = append(windows, Window{NewerThanDays: end, OlderThanDays: cur})
	}
	return windows
}

// BuildQuery renders a desired match as a provider search query,
// bounded to the window and optionally to the inbox. A subject
// containing a space is quoted; a negated query is wrapped as -(...).
func BuildQuery(m Match, w Window, onlyInbox bool) string {
	var parts []string
	if m.From != "" {
		parts = append(parts, fmt.Sprintf("from:(%s)", m.From))
	}
	if m.To != "" {
		parts = append(parts, fmt.Sprintf("to:(%s)", m.To))
	}
	if m.Subject != "" {
		subject := m.Subject
		if strings.Contains(subject, " ") {
			subject = fmt.Sprintf("%q", subject)
		}
		parts = append(parts, fmt.Sprintf("subject:%s", subject))
	}
	if m.Query != "" {
		parts = append(parts, m.Query)
	}
	if m.NegatedQuery != "" {
		parts = append(parts, fmt.Sprintf("-(%s)", m.NegatedQuery))
	}
	if m.HasAttachment {
		parts = append(parts, "has:attachment")
	}
	if w.NewerThanDays > 0 {
		parts = append(parts, fmt.Sprintf("newer_than:%dd", w.NewerThanDays))
	}
	if w.OlderThanDays > 0 {
		parts = append(parts, fmt.Sprintf("older_than:%dd", w.OlderThanDays))
	}
	if onlyInbox {
		parts = append(parts, "in:inbox")
	}
	return strings.Join(parts, " ")
}

// SweepResult aggregates what a sweep touched.
type SweepResult struct {
	Rules    int `json:"rules"`
	Matched  int `json:"matched"`
	Modified int `json:"modified"`
	Batches  int `json:"batches"`
}

// Sweeper retroactively applies desired rule actions to historical
// messages by searching and batch-modifying in chunks.
type Sweeper struct {
	Provider  Provider
	Resolver  *Resolver
	Pages     int
	PageSize  int
	BatchSize int
	// MaxMsgs caps the total messages modified per rule; zero is
	// unlimited.
	MaxMsgs   int
	OnlyInbox bool
	DryRun    bool
}

// NewSweeper returns a sweeper with the provider's defaults.
func NewSweeper(p Provider) *Sweeper {
	return &Sweeper{
		Provider:  p,
		Resolver:  NewResolver(p),
		Pages:     10,
		PageSize:  500,
		BatchSize: 1000,
	}
}

// Sweep applies every desired rule to messages inside the window.
func (s *Sweeper) Sweep(ctx context.Context, rules []RuleSpec, w Window) (SweepResult, error) {
	var res SweepResult
	for _, r := range rules {
		if r.Action.Empty() || r.Match.Empty() {
			continue
		}
		res.Rules++
		rr, err := s.sweepRule(ctx, r, w)
		if err != nil {
			return res, err
		}
		res.Matched += rr.Matched
		res.Modified += rr.Modified
		res.Batches += rr.Batches
	}
	return res, nil
}

// SweepRange tiles [fromDays, toDays) into step-day windows and sweeps
// each in turn, oldest window last.
func (s *Sweeper) SweepRange(ctx context.Context, rules []RuleSpec, fromDays, toDays, step int) (SweepResult, error) {
	var res SweepResult
	for _, w := range Tile(fromDays, toDays, step) {
		wr, err := s.Sweep(ctx, rules, w)
		if err != nil {
			return res, err
		}
		res.Rules = wr.Rules
		res.Matched += wr.Matched
		res.Modified += wr.Modified
		res.Batches += wr.Batches
	}
	return res, nil
}

func (s *Sweeper) sweepRule(ctx context.Context, r RuleSpec, w Window) (SweepResult, error) {
	var res SweepResult
	query := BuildQuery(r.Match, w, s.OnlyInbox)

	ids, err := s.Provider.ListMessageIDs(ctx, query, s.Pages, s.PageSize)
	if err != nil {
		return res, &ProviderError{Op: fmt.Sprintf("searching %q", query), Err: err}
	}
	res.Matched = len(ids)
	if s.MaxMsgs > 0 && len(ids) > s.MaxMsgs {
		ids = ids[:s.MaxMsgs]
	}
	if len(ids) == 0 {
		return res, nil
	}

	addIDs, err := s.Resolver.ResolveAll(ctx, r.Action.AddNames())
	if err != nil {
		return res, err
	}
	removeIDs, err := s.Resolver.ResolveAll(ctx, r.Action.Remove)
	if err != nil {
		return res, err
	}

	for start := 0; start < len(ids); start += s.BatchSize {
		end := start + s.BatchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]
		if s.DryRun {
			log.Infof("dry-run: %q would modify %d messages (+%v -%v)", query, len(batch), addIDs, removeIDs)
		} else {
			if err := s.Provider.BatchModifyMessages(ctx, batch, addIDs, removeIDs); err != nil {
				return res, &ProviderError{Op: fmt.Sprintf("batch modify %d messages", len(batch)), Err: err}
			}
			res.Modified += len(batch)
		}
		res.Batches++
	}
	log.Debugf("swept %q: %d matched, %d modified in %d batches", query, res.Matched, res.Modified, res.Batches)
	return res, nil
}
