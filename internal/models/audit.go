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

package models

import "time"

// LogType classifies a processing log entry.
type LogType string

const (
	LogEmailReceived    LogType = "email_received"
	LogRuleMatched      LogType = "rule_matched"
	LogRuleFailed       LogType = "rule_failed"
	LogLeadCreated      LogType = "lead_created"
	LogLeadDuplicate    LogType = "lead_duplicate"
	LogNotificationSent LogType = "notification_sent"
	LogError            LogType = "error"
)

// LogStatus is the outcome recorded on a log entry.
type LogStatus string

const (
	LogSuccess LogStatus = "success"
	LogFailed  LogStatus = "failed"
	LogSkipped LogStatus = "skipped"
)

// LogEntry is one immutable audit record. The pipeline writes entries for
// every decision it takes and never updates or deletes them.
type LogEntry struct {
	ID       string // uuid
	Type     LogType
	Status   LogStatus
	ClientID *int64
	LeadID   *int64
	// RuleKind/RuleID reference the rule involved, when applicable.
	RuleKind string
	RuleID   *int64
	// Details is a free-form payload (stored as JSONB).
	Details   map[string]any
	CreatedAt time.Time
}
