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

const clientColumns = `id, name, company, email, phone, email_notifications,
	notification_emails, dispositions, created_at, updated_at`

// Clients returns all clients.
func (s *Store) Clients(ctx context.Context) ([]models.Client, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+clientColumns+`
		FROM clients
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectClients(rows)
}

// ClientByID retrieves a single client, nil when absent.
func (s *Store) ClientByID(ctx context.Context, id int64) (*models.Client, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+clientColumns+`
		FROM clients
		WHERE id = $1
	`, id)
	return scanClient(row)
}

func scanClient(row pgx.Row) (*models.Client, error) {
	var c models.Client
	err := row.Scan(
		&c.ID, &c.Name, &c.Company, &c.Email, &c.Phone, &c.EmailNotifications,
		&c.NotificationEmails, &c.Dispositions, &c.CreatedAt, &c.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func collectClients(rows pgx.Rows) ([]models.Client, error) {
	var clients []models.Client
	for rows.Next() {
		var c models.Client
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Company, &c.Email, &c.Phone, &c.EmailNotifications,
			&c.NotificationEmails, &c.Dispositions, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}
