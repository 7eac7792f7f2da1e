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

package store

import (
	"context"

	"github.com/leadgate/pipeline/internal/models"
)

// InsertLogEntry appends one immutable processing log record. Entries are
// never updated or deleted by the pipeline.
func (s *Store) InsertLogEntry(ctx context.Context, e *models.LogEntry) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO processing_log
			(id, type, status, client_id, lead_id, rule_kind, rule_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, e.ID, e.Type, e.Status, e.ClientID, e.LeadID, e.RuleKind, e.RuleID, e.Details, e.CreatedAt)
	return err
}
