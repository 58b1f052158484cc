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

// AddForwardByLabel adds a forward action to every live rule whose
// add-labels fall under prefix. Rules already forwarding to the address
// are left alone. Each change replaces the rule with
// create-before-delete, like token edits. With requireVerified set, the
// address must be in the provider's verified set before any mutation.
func AddForwardByLabel(ctx context.Context, p Provider, prefix, email string, requireVerified, dryRun bool) (int, error) {
	if requireVerified {
		verified, err := p.VerifiedForwardingAddresses(ctx)
		if err != nil {
			return 0, &ProviderError{Op: "listing forwarding addresses", Err: err}
		}
		ok := false
		for _, a := range verified {
			if a == email {
				ok = true
				break
			}
		}
		if !ok {
			return 0, &PreconditionError{Forward: email}
		}
	}

	live, err := p.ListFilters(ctx)
	if err != nil {
		return 0, &ProviderError{Op: "listing filters", Err: err}
	}
	idToName, err := idToNameMap(ctx, p)
	if err != nil {
		return 0, err
	}

	changed := 0
	for _, r := range live {
		if r.Action.Forward == email {
			continue
		}
		match := false
		for _, name := range namesForIDs(r.Action.AddLabelIDs, idToName) {
			if matchesPrefix(name, prefix) {
				match = true
				break
			}
		}
		if !match {
			continue
		}
		if dryRun {
			log.Infof("dry-run: would add forward %s to filter %s", email, r.ID)
			changed++
			continue
		}
		action := r.Action
		action.Forward = email
		newID, err := p.CreateFilter(ctx, r.Criteria, action)
		if err != nil {
			return changed, &ProviderError{Op: fmt.Sprintf("creating replacement for filter %s", r.ID), Err: err}
		}
		if err := p.DeleteFilter(ctx, r.ID); err != nil {
			return changed, &ProviderError{Op: fmt.Sprintf("deleting filter %s (replacement %s exists)", r.ID, newID), Err: err}
		}
		changed++
	}
	return changed, nil
}

// idToNameMap inverts the provider's name-to-id label map.
func idToNameMap(ctx context.Context, p Provider) (map[string]string, error) {
	byName, err := p.LabelIDMap(ctx)
	if err != nil {
		return nil, &ProviderError{Op: "fetching label map", Err: err}
	}
	byID := make(map[string]string, len(byName))
	for name, id := range byName {
		byID[id] = name
	}
	return byID, nil
}
