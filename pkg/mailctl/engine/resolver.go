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
	"unicode"

	log "github.com/sirupsen/logrus"
)

// Resolver turns label names into provider ids, creating user labels
// on first reference. All-uppercase names are treated as system label
// ids and pass through untouched. The name-to-id map is cached for the
// lifetime of the resolver, so repeated resolution of the same name is
// idempotent within a run. The cache is advisory only; a concurrent
// writer may still create the same label, and the provider dedups by
// name.
type Resolver struct {
	provider Provider
	byName   map[string]string
}

// NewResolver returns a resolver backed by the given provider. The
// label map is fetched lazily on first resolution.
func NewResolver(p Provider) *Resolver {
	return &Resolver{provider: p}
}

// ResolveAll resolves a list of names, preserving order and duplicates.
func (r *Resolver) ResolveAll(ctx context.Context, names []string) ([]string, error) {
	ids := make([]string, 0, len(names))
	for _, n := range names {
		id, err := r.Resolve(ctx, n)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Resolve returns the provider id for a label name, creating the label
// if it does not exist yet.
func (r *Resolver) Resolve(ctx context.Context, name string) (string, error) {
	if isSystemLabelID(name) {
		return name, nil
	}
	if r.byName == nil {
		m, err := r.provider.LabelIDMap(ctx)
		if err != nil {
			return "", fmt.Errorf("fetching label map: %w", err)
		}
		r.byName = m
	}
	if id, ok := r.byName[name]; ok {
		return id, nil
	}
	label, err := r.provider.CreateLabel(ctx, name)
	if err != nil {
		return "", fmt.Errorf("creating label %q: %w", name, err)
	}
	log.Debugf("created label %q (%s)", name, label.ID)
	r.byName[name] = label.ID
	return label.ID, nil
}

// isSystemLabelID reports whether name is written like a well-known
// system label id: at least one cased letter and no lowercase ones.
func isSystemLabelID(name string) bool {
	cased := false
	for _, r := range name {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}
