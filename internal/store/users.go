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

	"github.com/jackc/pgx/v5"

	"github.com/leadgate/pipeline/internal/models"
)

// Admins returns all admin users with their notification preferences
// attached. A kind absent from an admin's map means no preference row
// exists and the configured default applies.
func (s *Store) Admins(ctx context.Context) ([]models.AdminUser, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, email FROM admin_users ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var admins []models.AdminUser
	byID := make(map[int64]int)
	for rows.Next() {
		var a models.AdminUser
		if err := rows.Scan(&a.ID, &a.Email); err != nil {
			return nil, err
		}
		a.Preferences = make(map[models.AdminKind]bool)
		byID[a.ID] = len(admins)
		admins = append(admins, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	prefRows, err := s.pool.Query(ctx, `
		SELECT admin_id, kind, enabled FROM admin_preferences
	`)
	if err != nil {
		return nil, err
	}
	defer prefRows.Close()

	for prefRows.Next() {
		var (
			adminID int64
			kind    models.AdminKind
			enabled bool
		)
		if err := prefRows.Scan(&adminID, &kind, &enabled); err != nil {
			return nil, err
		}
		if i, ok := byID[adminID]; ok {
			admins[i].Preferences[kind] = enabled
		}
	}
	return admins, prefRows.Err()
}

// PortalUserByEmail retrieves the client-portal account for an address,
// nil when no account exists.
func (s *Store) PortalUserByEmail(ctx context.Context, email string) (*models.PortalUser, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, client_id, email, notify_campaigns
		FROM portal_users
		WHERE lower(email) = lower($1)
	`, email)

	var u models.PortalUser
	err := row.Scan(&u.ID, &u.ClientID, &u.Email, &u.NotifyCampaigns)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
