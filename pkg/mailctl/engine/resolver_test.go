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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolverSystemPassthrough(t *testing.T) {
	tests := []struct {
		name   string
		label  string
		system bool
	}{
		{"inbox", "INBOX", true},
		{"category", "CATEGORY_UPDATES", true},
		{"lowercase", "newsletters", false},
		{"mixed", "Newsletters", false},
		{"digits only", "1234", false},
		{"upper with digits", "SPAM2", true},
	}
	p := newFakeProvider()
	r := NewResolver(p)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			id, err := r.Resolve(context.Background(), tc.label)
			require.NoError(t, err)
			if tc.system {
				assert.Equal(t, tc.label, id)
			} else {
				assert.NotEqual(t, tc.label, id)
			}
		})
	}
}

func TestResolverExisting(t *testing.T) {
	p := newFakeProvider()
	p.labels = []Label{{ID: "Label_9", Name: "Receipts", Type: "user"}}
	r := NewResolver(p)

	id, err := r.Resolve(context.Background(), "Receipts")
	require.NoError(t, err)
	assert.Equal(t, "Label_9", id)
}

func TestResolverCreateOnMissIsCached(t *testing.T) {
	p := newFakeProvider()
	r := NewResolver(p)

	id1, err := r.Resolve(context.Background(), "Fresh")
	require.NoError(t, err)
	id2, err := r.Resolve(context.Background(), "Fresh")
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.Len(t, p.labels, 1, "second resolution must hit the cache")
}

func TestResolveAllPreservesOrderAndDuplicates(t *testing.T) {
	p := newFakeProvider()
	p.labels = []Label{{ID: "Label_1", Name: "A", Type: "user"}}
	r := NewResolver(p)

	ids, err := r.ResolveAll(context.Background(), []string{"A", "INBOX", "A"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Label_1", "INBOX", "Label_1"}, ids)
}
