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
)

// fakeProvider is an in-memory Provider for tests. Messages maps a
// search query to the ids it returns. Failure injection is per method.
type fakeProvider struct {
	labels   []Label
	filters  []LiveRule
	messages map[string][]string
	verified []string

	nextID int

	createdFilters []LiveRule
	deletedFilters []string
	batchCalls     [][]string

	deleteFailures map[string]int
	createErr      error
	listMsgErr     error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{messages: map[string][]string{}, deleteFailures: map[string]int{}}
}

func (f *fakeProvider) ListLabels(ctx context.Context) ([]Label, error) {
	return f.labels, nil
}

func (f *fakeProvider) LabelIDMap(ctx context.Context) (map[string]string, error) {
	m := map[string]string{}
	for _, l := range f.labels {
		m[l.Name] = l.ID
	}
	return m, nil
}

func (f *fakeProvider) CreateLabel(ctx context.Context, name string) (Label, error) {
	f.nextID++
	l := Label{ID: fmt.Sprintf("Label_%d", f.nextID), Name: name, Type: "user"}
	f.labels = append(f.labels, l)
	return l, nil
}

func (f *fakeProvider) DeleteLabel(ctx context.Context, id string) error {
	for i, l := range f.labels {
		if l.ID == id {
			f.labels = append(f.labels[:i], f.labels[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("label %s not found", id)
}

func (f *fakeProvider) ListFilters(ctx context.Context) ([]LiveRule, error) {
	return f.filters, nil
}

func (f *fakeProvider) CreateFilter(ctx context.Context, criteria Criteria, action LiveAction) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.nextID++
	r := LiveRule{ID: fmt.Sprintf("filter_%d", f.nextID), Criteria: criteria, Action: action}
	f.filters = append(f.filters, r)
	f.createdFilters = append(f.createdFilters, r)
	return r.ID, nil
}

func (f *fakeProvider) DeleteFilter(ctx context.Context, id string) error {
	if n := f.deleteFailures[id]; n > 0 {
		f.deleteFailures[id] = n - 1
		return fmt.Errorf("transient failure deleting %s", id)
	}
	for i, r := range f.filters {
		if r.ID == id {
			f.filters = append(f.filters[:i], f.filters[i+1:]...)
			break
		}
	}
	f.deletedFilters = append(f.deletedFilters, id)
	return nil
}

func (f *fakeProvider) ListMessageIDs(ctx context.Context, query string, maxPages, pageSize int) ([]string, error) {
	if f.listMsgErr != nil {
		return nil, f.listMsgErr
	}
	ids := f.messages[query]
	if limit := maxPages * pageSize; limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (f *fakeProvider) BatchModifyMessages(ctx context.Context, ids, addLabelIDs, removeLabelIDs []string) error {
	f.batchCalls = append(f.batchCalls, ids)
	return nil
}

func (f *fakeProvider) VerifiedForwardingAddresses(ctx context.Context) ([]string, error) {
	return f.verified, nil
}

func msgIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("msg_%d", i)
	}
	return ids
}
