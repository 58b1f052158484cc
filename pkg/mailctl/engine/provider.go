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

import "context"

// Provider is the narrow mail-provider surface the engine needs. The
// Gmail implementation lives in pkg/mailctl/gmail; tests use fakes.
type Provider interface {
	// ListLabels returns all labels of the account.
	ListLabels(ctx context.Context) ([]Label, error)
	// LabelIDMap returns the name-to-id mapping for all labels.
	LabelIDMap(ctx context.Context) (map[string]string, error)
	// CreateLabel creates a user label and returns it with its id set.
	CreateLabel(ctx context.Context, name string) (Label, error)
	// DeleteLabel removes a user label by id.
	DeleteLabel(ctx context.Context, id string) error

	// ListFilters returns all live filter rules.
	ListFilters(ctx context.Context) ([]LiveRule, error)
	// CreateFilter creates a rule and returns its assigned id.
	CreateFilter(ctx context.Context, criteria Criteria, action LiveAction) (string, error)
	// DeleteFilter removes a rule by id.
	DeleteFilter(ctx context.Context, id string) error

	// ListMessageIDs returns up to maxPages pages of message ids matching
	// the search query.
	ListMessageIDs(ctx context.Context, query string, maxPages, pageSize int) ([]string, error)
	// BatchModifyMessages adds and removes label ids on a batch of
	// messages in one call.
	BatchModifyMessages(ctx context.Context, ids, addLabelIDs, removeLabelIDs []string) error

	// VerifiedForwardingAddresses returns the forwarding addresses the
	// account may legally forward to.
	VerifiedForwardingAddresses(ctx context.Context) ([]string, error)
}
