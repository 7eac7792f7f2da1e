// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package models defines the data structures shared across the lead pipeline.
package models

import "time"

// Client is a tenant of the CRM. It owns leads, routing rules,
// classification rules, and its own disposition vocabulary.
type Client struct {
	ID                 int64
	Name               string
	Company            string
	Email              string
	Phone              string
	EmailNotifications bool
	// NotificationEmails is the list of addresses that receive new-lead
	// notifications. Empty means "fall back to the primary email".
	NotificationEmails []string
	// Dispositions maps a status key to its display label. May be nil in
	// storage; read through DispositionMap, which never returns empty.
	Dispositions map[string]string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DefaultDispositions is the status vocabulary applied to clients that have
// not configured their own.
func DefaultDispositions() map[string]string {
	return map[string]string{
		"new":       "New",
		"contacted": "Contacted",
		"qualified": "Qualified",
		"closed":    "Closed Won",
		"lost":      "Closed Lost",
	}
}

// DispositionMap returns the client's status vocabulary, defaulted when
// unset so it is never empty at read time.
func (c *Client) DispositionMap() map[string]string {
	if len(c.Dispositions) == 0 {
		return DefaultDispositions()
	}
	return c.Dispositions
}

// HasDisposition reports whether the given status key exists in the
// client's vocabulary.
func (c *Client) HasDisposition(status string) bool {
	_, ok := c.DispositionMap()[status]
	return ok
}

// NotificationEmailList returns the addresses that should receive new-lead
// notifications, falling back to the primary email when none are configured.
func (c *Client) NotificationEmailList() []string {
	if len(c.NotificationEmails) > 0 {
		return c.NotificationEmails
	}
	if c.Email == "" {
		return nil
	}
	return []string{c.Email}
}
