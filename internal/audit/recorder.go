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

// Package audit writes the append-only processing log. Every pipeline
// decision — received, matched, failed, created, duplicate, notified,
// errored — produces exactly one entry, so the trail is complete even when
// no lead comes out the other end.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/leadgate/pipeline/internal/models"
)

// Sink persists log entries. Implemented by store.Store.
type Sink interface {
	InsertLogEntry(ctx context.Context, entry *models.LogEntry) error
}

// Recorder writes audit entries through a sink. A failed insert is logged
// and swallowed: auditing must never abort the pipeline.
type Recorder struct {
	sink Sink
}

// NewRecorder creates a recorder over the given sink.
func NewRecorder(sink Sink) *Recorder {
	return &Recorder{sink: sink}
}

func (r *Recorder) record(ctx context.Context, entry *models.LogEntry) {
	entry.ID = uuid.New().String()
	entry.CreatedAt = time.Now().UTC()
	if err := r.sink.InsertLogEntry(ctx, entry); err != nil {
		slog.Warn("audit entry not persisted",
			"type", entry.Type,
			"status", entry.Status,
			"error", err,
		)
	}
}

func optID(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}

// EmailReceived records that a message was pulled from the mailbox.
func (r *Recorder) EmailReceived(ctx context.Context, status models.LogStatus, details map[string]any) {
	r.record(ctx, &models.LogEntry{
		Type:    models.LogEmailReceived,
		Status:  status,
		Details: details,
	})
}

// RuleMatched records a routing/classification rule hit for a client.
// ruleID zero means the client was matched without a concrete rule
// (domain fallback or the configured default client).
func (r *Recorder) RuleMatched(ctx context.Context, clientID int64, ruleKind string, ruleID int64, details map[string]any) {
	r.record(ctx, &models.LogEntry{
		Type:     models.LogRuleMatched,
		Status:   models.LogSuccess,
		ClientID: optID(clientID),
		RuleKind: ruleKind,
		RuleID:   optID(ruleID),
		Details:  details,
	})
}

// RuleFailed records a rule that was evaluated and did not match.
// Informational only; never an error.
func (r *Recorder) RuleFailed(ctx context.Context, clientID int64, ruleKind string, ruleID int64, details map[string]any) {
	r.record(ctx, &models.LogEntry{
		Type:     models.LogRuleFailed,
		Status:   models.LogSkipped,
		ClientID: optID(clientID),
		RuleKind: ruleKind,
		RuleID:   optID(ruleID),
		Details:  details,
	})
}

// LeadCreated records a freshly created lead.
func (r *Recorder) LeadCreated(ctx context.Context, clientID, leadID int64, details map[string]any) {
	r.record(ctx, &models.LogEntry{
		Type:     models.LogLeadCreated,
		Status:   models.LogSuccess,
		ClientID: optID(clientID),
		LeadID:   optID(leadID),
		Details:  details,
	})
}

// LeadDuplicate records a merge into an existing lead instead of a create.
func (r *Recorder) LeadDuplicate(ctx context.Context, clientID, leadID int64, details map[string]any) {
	r.record(ctx, &models.LogEntry{
		Type:     models.LogLeadDuplicate,
		Status:   models.LogSkipped,
		ClientID: optID(clientID),
		LeadID:   optID(leadID),
		Details:  details,
	})
}

// NotificationSent records one notification attempt (client or admin).
func (r *Recorder) NotificationSent(ctx context.Context, status models.LogStatus, clientID, leadID int64, details map[string]any) {
	r.record(ctx, &models.LogEntry{
		Type:     models.LogNotificationSent,
		Status:   status,
		ClientID: optID(clientID),
		LeadID:   optID(leadID),
		Details:  details,
	})
}

// Error records a failure that terminated processing of one message.
func (r *Recorder) Error(ctx context.Context, details map[string]any) {
	r.record(ctx, &models.LogEntry{
		Type:    models.LogError,
		Status:  models.LogFailed,
		Details: details,
	})
}
