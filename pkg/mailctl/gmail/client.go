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

// Package gmail implements the engine provider on the Gmail API.
package gmail

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	gmailv1 "google.golang.org/api/gmail/v1"

	"github.com/wesnick/mailctl/pkg/mailctl"
	"github.com/wesnick/mailctl/pkg/mailctl/engine"
)

const userID = "me"

const (
	cacheKeyLabels  = "labels"
	cacheKeyFilters = "filters"
)

// Client implements engine.Provider over a Gmail API service. The
// optional cache shadows label and filter listings; mutations
// invalidate the affected key.
type Client struct {
	svc   *gmailv1.Service
	cache *mailctl.Cache
}

// NewClient wraps a Gmail service. Cache may be nil.
func NewClient(svc *gmailv1.Service, cache *mailctl.Cache) *Client {
	return &Client{svc: svc, cache: cache}
}

// ListLabels returns all labels of the account.
func (c *Client) ListLabels(ctx context.Context) ([]engine.Label, error) {
	var labels []engine.Label
	if c.cache.Get(cacheKeyLabels, &labels) {
		return labels, nil
	}
	resp, err := c.svc.Users.Labels.List(userID).Context(ctx).Do()
	if err != nil {
		return nil, errors.Wrap(err, "listing labels")
	}
	for _, l := range resp.Labels {
		labels = append(labels, engine.Label{
			ID:            l.Id,
			Name:          l.Name,
			Type:          l.Type,
			MessagesTotal: l.MessagesTotal,
		})
	}
	c.cache.Put(cacheKeyLabels, labels)
	return labels, nil
}

// LabelIDMap returns the name-to-id mapping for all labels.
func (c *Client) LabelIDMap(ctx context.Context) (map[string]string, error) {
	labels, err := c.ListLabels(ctx)
	if err != nil {
		return nil, err
	}
	m := make(map[string]string, len(labels))
	for _, l := range labels {
		m[l.Name] = l.ID
	}
	return m, nil
}

// CreateLabel creates a user label.
func (c *Client) CreateLabel(ctx context.Context, name string) (engine.Label, error) {
	l, err := c.svc.Users.Labels.Create(userID, &gmailv1.Label{
		Name:                  name,
		LabelListVisibility:   "labelShow",
		MessageListVisibility: "show",
	}).Context(ctx).Do()
	if err != nil {
		return engine.Label{}, errors.Wrapf(err, "creating label %q", name)
	}
	c.cache.Invalidate(cacheKeyLabels)
	log.Debugf("created label %q (%s)", name, l.Id)
	return engine.Label{ID: l.Id, Name: l.Name, Type: l.Type}, nil
}

// DeleteLabel removes a user label by id.
func (c *Client) DeleteLabel(ctx context.Context, id string) error {
	if err := c.svc.Users.Labels.Delete(userID, id).Context(ctx).Do(); err != nil {
		return errors.Wrapf(err, "deleting label %s", id)
	}
	c.cache.Invalidate(cacheKeyLabels)
	return nil
}

// ListFilters returns all live filter rules.
func (c *Client) ListFilters(ctx context.Context) ([]engine.LiveRule, error) {
	var rules []engine.LiveRule
	if c.cache.Get(cacheKeyFilters, &rules) {
		return rules, nil
	}
	resp, err := c.svc.Users.Settings.Filters.List(userID).Context(ctx).Do()
	if err != nil {
		return nil, errors.Wrap(err, "listing filters")
	}
	for _, f := range resp.Filter {
		rules = append(rules, fromAPIFilter(f))
	}
	c.cache.Put(cacheKeyFilters, rules)
	return rules, nil
}

// CreateFilter creates a rule and returns its assigned id.
func (c *Client) CreateFilter(ctx context.Context, criteria engine.Criteria, action engine.LiveAction) (string, error) {
	f, err := c.svc.Users.Settings.Filters.Create(userID, toAPIFilter(criteria, action)).Context(ctx).Do()
	if err != nil {
		return "", errors.Wrap(err, "creating filter")
	}
	c.cache.Invalidate(cacheKeyFilters)
	log.Debugf("created filter %s", f.Id)
	return f.Id, nil
}

// DeleteFilter removes a rule by id.
func (c *Client) DeleteFilter(ctx context.Context, id string) error {
	if err := c.svc.Users.Settings.Filters.Delete(userID, id).Context(ctx).Do(); err != nil {
		return errors.Wrapf(err, "deleting filter %s", id)
	}
	c.cache.Invalidate(cacheKeyFilters)
	return nil
}

// ListMessageIDs returns up to maxPages pages of message ids matching
// the search query.
func (c *Client) ListMessageIDs(ctx context.Context, query string, maxPages, pageSize int) ([]string, error) {
	var ids []string
	token := ""
	for page := 0; page < maxPages; page++ {
		call := c.svc.Users.Messages.List(userID).
			Q(query).
			MaxResults(int64(pageSize)).
			Fields("messages/id,nextPageToken").
			Context(ctx)
		if token != "" {
			call = call.PageToken(token)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, errors.Wrapf(err, "listing messages for %q (page %d)", query, page)
		}
		for _, m := range resp.Messages {
			ids = append(ids, m.Id)
		}
		token = resp.NextPageToken
		if token == "" {
			break
		}
	}
	return ids, nil
}

// BatchModifyMessages adds and removes label ids on a batch of messages
// in one call.
func (c *Client) BatchModifyMessages(ctx context.Context, ids, addLabelIDs, removeLabelIDs []string) error {
	err := c.svc.Users.Messages.BatchModify(userID, &gmailv1.BatchModifyMessagesRequest{
		Ids:            ids,
		AddLabelIds:    addLabelIDs,
		RemoveLabelIds: removeLabelIDs,
	}).Context(ctx).Do()
	return errors.Wrapf(err, "batch modifying %d messages", len(ids))
}

// VerifiedForwardingAddresses returns the forwarding addresses Gmail
// has accepted verification for.
func (c *Client) VerifiedForwardingAddresses(ctx context.Context) ([]string, error) {
	resp, err := c.svc.Users.Settings.ForwardingAddresses.List(userID).Context(ctx).Do()
	if err != nil {
		return nil, errors.Wrap(err, "listing forwarding addresses")
	}
	var verified []string
	for _, a := range resp.ForwardingAddresses {
		if a.VerificationStatus == "accepted" {
			verified = append(verified, a.ForwardingEmail)
		}
	}
	return verified, nil
}

func fromAPIFilter(f *gmailv1.Filter) engine.LiveRule {
	rule := engine.LiveRule{ID: f.Id}
	if f.Criteria != nil {
		rule.Criteria = engine.Criteria{
			From:           f.Criteria.From,
			To:             f.Criteria.To,
			Subject:        f.Criteria.Subject,
			Query:          f.Criteria.Query,
			NegatedQuery:   f.Criteria.NegatedQuery,
			HasAttachment:  f.Criteria.HasAttachment,
			Size:           f.Criteria.Size,
			SizeComparison: f.Criteria.SizeComparison,
		}
	}
	if f.Action != nil {
		rule.Action = engine.LiveAction{
			AddLabelIDs:    f.Action.AddLabelIds,
			RemoveLabelIDs: f.Action.RemoveLabelIds,
			Forward:        f.Action.Forward,
		}
	}
	return rule
}

func toAPIFilter(criteria engine.Criteria, action engine.LiveAction) *gmailv1.Filter {
	return &gmailv1.Filter{
		Criteria: &gmailv1.FilterCriteria{
			From:           criteria.From,
			To:             criteria.To,
			Subject:        criteria.Subject,
			Query:          criteria.Query,
			NegatedQuery:   criteria.NegatedQuery,
			HasAttachment:  criteria.HasAttachment,
			Size:           criteria.Size,
			SizeComparison: criteria.SizeComparison,
		},
		Action: &gmailv1.FilterAction{
			AddLabelIds:    action.AddLabelIDs,
			RemoveLabelIds: action.RemoveLabelIDs,
			Forward:        action.Forward,
		},
	}
}
