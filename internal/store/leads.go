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
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/leadgate/pipeline/internal/models"
)

const leadColumns = `id, client_id, name, email, phone, message, notes,
	from_email, subject, email_received_at, status, source, campaign,
	created_at, updated_at`

// FindDuplicateLead looks up an existing lead for the client with exactly
// matching name and email. When the new message carries a phone the phone
// must match exactly; otherwise only phone-less leads count as duplicates.
// Returns nil when no duplicate exists.
func (s *Store) FindDuplicateLead(ctx context.Context, clientID int64, name, email string, phone *string) (*models.Lead, error) {
	var row pgx.Row
	if phone != nil && *phone != "" {
		row = s.pool.QueryRow(ctx, `
			SELECT `+leadColumns+`
			FROM leads
			WHERE client_id = $1 AND name = $2 AND email = $3 AND phone = $4
			ORDER BY id
			LIMIT 1
		`, clientID, name, email, *phone)
	} else {
		row = s.pool.QueryRow(ctx, `
			SELECT `+leadColumns+`
			FROM leads
			WHERE client_id = $1 AND name = $2 AND email = $3 AND phone IS NULL
			ORDER BY id
			LIMIT 1
		`, clientID, name, email)
	}
	return scanLead(row)
}

// CreateLead inserts a new lead and fills in its generated fields.
func (s *Store) CreateLead(ctx context.Context, l *models.Lead) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO leads
			(client_id, name, email, phone, message, notes, from_email,
			 subject, email_received_at, status, source, campaign)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`, l.ClientID, l.Name, l.Email, l.Phone, l.Message, l.Notes, l.FromEmail,
		l.Subject, l.EmailReceivedAt, l.Status, l.Source, l.Campaign,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
}

// AppendDuplicate merges a repeat submission into an existing lead:
// the formatted block is appended to the message, the note to the notes,
// and the received timestamp moves forward to the new message's.
func (s *Store) AppendDuplicate(ctx context.Context, leadID int64, messageBlock, note string, receivedAt time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE leads
		SET message = message || $1,
		    notes = CASE WHEN notes = '' THEN $2 ELSE notes || E'\n' || $2 END,
		    email_received_at = $3,
		    updated_at = NOW()
		WHERE id = $4
	`, messageBlock, note, receivedAt, leadID)
	return err
}

// UpdateLeadDisposition sets a lead's status.
func (s *Store) UpdateLeadDisposition(ctx context.Context, leadID int64, status string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE leads
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`, status, leadID)
	return err
}

// UpdateLeadClassification rewrites a lead's source and campaign, used by
// bulk re-classification.
func (s *Store) UpdateLeadClassification(ctx context.Context, leadID int64, source models.LeadSource, campaign string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE leads
		SET source = $1, campaign = $2, updated_at = NOW()
		WHERE id = $3
	`, source, campaign, leadID)
	return err
}

// LeadsByContact returns leads of OTHER clients sharing the given name and
// at least one contact channel — the candidate set for cross-client
// disposition propagation.
func (s *Store) LeadsByContact(ctx context.Context, name, email string, phone *string, excludeClientID int64) ([]models.Lead, error) {
	var p string
	if phone != nil {
		p = *phone
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE name = $1
		  AND (($2 <> '' AND email = $2) OR ($3 <> '' AND phone = $3))
		  AND client_id <> $4
		ORDER BY id
	`, name, email, p, excludeClientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLeads(rows)
}

// LeadsByClient returns all leads for one client, or every lead when
// clientID is zero. Used by bulk re-classification.
func (s *Store) LeadsByClient(ctx context.Context, clientID int64) ([]models.Lead, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE $1 = 0 OR client_id = $1
		ORDER BY id
	`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLeads(rows)
}

func scanLead(row pgx.Row) (*models.Lead, error) {
	var l models.Lead
	err := row.Scan(
		&l.ID, &l.ClientID, &l.Name, &l.Email, &l.Phone, &l.Message, &l.Notes,
		&l.FromEmail, &l.Subject, &l.EmailReceivedAt, &l.Status, &l.Source,
		&l.Campaign, &l.CreatedAt, &l.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func collectLeads(rows pgx.Rows) ([]models.Lead, error) {
	var leads []models.Lead
	for rows.Next() {
		var l models.Lead
		if err := rows.Scan(
			&l.ID, &l.ClientID, &l.Name, &l.Email, &l.Phone, &l.Message, &l.Notes,
			&l.FromEmail, &l.Subject, &l.EmailReceivedAt, &l.Status, &l.Source,
			&l.Campaign, &l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, err
		}
		leads = append(leads, l)
	}
	return leads, rows.Err()
}
