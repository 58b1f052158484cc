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

// Package engine implements the declarative reconciliation engine:
// canonicalization of desired and live filter rules, set-difference
// planning, plan execution against a mail provider, retroactive sweeps
// over historical messages, and token-level criteria edits.
package engine

import (
	"fmt"
	"strings"
)

// Match is the criteria half of a desired rule, as written in config.
type Match struct {
	From           string `yaml:"from,omitempty" json:"from,omitempty"`
	To             string `yaml:"to,omitempty" json:"to,omitempty"`
	Subject        string `yaml:"subject,omitempty" json:"subject,omitempty"`
	Query          string `yaml:"query,omitempty" json:"query,omitempty"`
	NegatedQuery   string `yaml:"negatedQuery,omitempty" json:"negatedQuery,omitempty"`
	HasAttachment  bool   `yaml:"hasAttachment,omitempty" json:"hasAttachment,omitempty"`
	Size           int64  `yaml:"size,omitempty" json:"size,omitempty"`
	SizeComparison string `yaml:"sizeComparison,omitempty" json:"sizeComparison,omitempty"`
}

// Empty returns true if no criteria is specified.
func (m Match) Empty() bool {
	return m == Match{}
}

// Action is the action half of a desired rule. Add and Remove hold label
// names; CategorizeAs and Categories hold friendly category shortcuts
// that expand to Gmail system category labels.
type Action struct {
	Add          []string `yaml:"add,omitempty" json:"add,omitempty"`
	Remove       []string `yaml:"remove,omitempty" json:"remove,omitempty"`
	Forward      string   `yaml:"forward,omitempty" json:"forward,omitempty"`
	CategorizeAs string   `yaml:"categorizeAs,omitempty" json:"categorizeAs,omitempty"`
	Categories   []string `yaml:"categories,omitempty" json:"categories,omitempty"`
}

// Empty returns true if no action is specified.
func (a Action) Empty() bool {
	return len(a.Add) == 0 && len(a.Remove) == 0 && a.Forward == "" &&
		a.CategorizeAs == "" && len(a.Categories) == 0
}

// RuleSpec is one desired rule from the config document. It is immutable
// once loaded; document order is preserved for display only.
type RuleSpec struct {
	Match  Match  `yaml:"match" json:"match"`
	Action Action `yaml:"action" json:"action"`
}

// Criteria is the provider-native criteria of a live rule.
type Criteria struct {
	From           string
	To             string
	Subject        string
	Query          string
	NegatedQuery   string
	HasAttachment  bool
	Size           int64
	SizeComparison string
}

// Empty returns true if no criteria is specified.
func (c Criteria) Empty() bool {
	return c == Criteria{}
}

// LiveAction is the provider-native action of a live rule. Labels are
// referenced by opaque provider ids.
type LiveAction struct {
	AddLabelIDs    []string
	RemoveLabelIDs []string
	Forward        string
}

// LiveRule is a rule as reported by the provider. The engine never
// mutates a live rule in place; the provider has no update verb, so
// every change is a create plus a delete.
type LiveRule struct {
	ID       string
	Criteria Criteria
	Action   LiveAction
}

// Label is a provider label.
type Label struct {
	ID            string
	Name          string
	Type          string
	MessagesTotal int64
}

// System labels use all-uppercase well-known identifiers and are never
// created or deleted by the engine.
const (
	LabelIDInbox = "INBOX"

	labelIDCategoryPersonal   = "CATEGORY_PERSONAL"
	labelIDCategorySocial     = "CATEGORY_SOCIAL"
	labelIDCategoryUpdates    = "CATEGORY_UPDATES"
	labelIDCategoryForums     = "CATEGORY_FORUMS"
	labelIDCategoryPromotions = "CATEGORY_PROMOTIONS"
)

var categoryLabels = map[string]string{
	"personal":   labelIDCategoryPersonal,
	"social":     labelIDCategorySocial,
	"updates":    labelIDCategoryUpdates,
	"forums":     labelIDCategoryForums,
	"promotions": labelIDCategoryPromotions,
}

// ExpandCategories returns the system label names for the friendly
// category shortcuts of an action, in spec order. Unknown categories are
// ignored.
func ExpandCategories(a Action) []string {
	var res []string
	if a.CategorizeAs != "" {
		if id, ok := categoryLabels[strings.ToLower(strings.TrimSpace(a.CategorizeAs))]; ok {
			res = append(res, id)
		}
	}
	for _, c := range a.Categories {
		if id, ok := categoryLabels[strings.ToLower(strings.TrimSpace(c))]; ok {
			res = append(res, id)
		}
	}
	return res
}

// AddNames returns the full list of labels the action applies: explicit
// add entries followed by expanded category shortcuts. Duplicates are
// preserved.
func (a Action) AddNames() []string {
	names := append([]string{}, a.Add...)
	return append(names, ExpandCategories(a)...)
}

// CriteriaFromMatch maps a desired match to the provider-native criteria
// shape, normalizing booleans and sizes to stable primitive values.
func CriteriaFromMatch(m Match) Criteria {
	return Criteria{
		From:           m.From,
		To:             m.To,
		Subject:        m.Subject,
		Query:          m.Query,
		NegatedQuery:   m.NegatedQuery,
		HasAttachment:  m.HasAttachment,
		Size:           m.Size,
		SizeComparison: m.SizeComparison,
	}
}

// String renders criteria compactly for previews and logs.
func (c Criteria) String() string {
	var parts []string
	add := func(name, value string) {
		if value != "" {
			parts = append(parts, fmt.Sprintf("%s=%s", name, value))
		}
	}
	add("from", c.From)
	add("to", c.To)
	add("subject", c.Subject)
	add("query", c.Query)
	add("negatedQuery", c.NegatedQuery)
	if c.HasAttachment {
		parts = append(parts, "hasAttachment")
	}
	if c.Size > 0 {
		parts = append(parts, fmt.Sprintf("size%s%d", comparisonGlyph(c.SizeComparison), c.Size))
	}
	if len(parts) == 0 {
		return "(empty)"
	}
	return strings.Join(parts, " ")
}

func comparisonGlyph(cmp string) string {
	switch cmp {
	case "larger":
		return ">"
	case "smaller":
		return "<"
	default:
		return "="
	}
}
