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

// Package store provides the Postgres-backed persistence layer for clients,
// rules, leads, the processing log, and notification preferences. The
// administrative UI owns rule and client configuration; the pipeline is the
// sole writer of leads and log entries.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store wraps a Postgres pool with the pipeline's persistence operations.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a store backed by the given Postgres pool. It ensures the
// schema exists on creation.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	s := &Store{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure pipeline schema: %w", err)
	}
	slog.Info("pipeline store initialised")
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS clients (
			id                  BIGSERIAL PRIMARY KEY,
			name                TEXT NOT NULL,
			company             TEXT NOT NULL DEFAULT '',
			email               TEXT NOT NULL,
			phone               TEXT NOT NULL DEFAULT '',
			email_notifications BOOLEAN NOT NULL DEFAULT TRUE,
			notification_emails TEXT[] NOT NULL DEFAULT '{}',
			dispositions        JSONB,
			created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS routing_rules (
			id         BIGSERIAL PRIMARY KEY,
			client_id  BIGINT NOT NULL,
			kind       TEXT NOT NULL,
			email      TEXT NOT NULL DEFAULT '',
			condition  TEXT NOT NULL DEFAULT '',
			is_active  BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_routing_client ON routing_rules(client_id);

		CREATE TABLE IF NOT EXISTS source_rules (
			id          BIGSERIAL PRIMARY KEY,
			client_id   BIGINT NOT NULL,
			match_type  TEXT NOT NULL,
			match_field TEXT NOT NULL,
			match_value TEXT NOT NULL,
			source      TEXT NOT NULL,
			priority    INT NOT NULL DEFAULT 0,
			is_active   BOOLEAN NOT NULL DEFAULT TRUE,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_source_priority ON source_rules(priority DESC, id);

		CREATE TABLE IF NOT EXISTS campaign_rules (
			id          BIGSERIAL PRIMARY KEY,
			client_id   BIGINT NOT NULL,
			match_type  TEXT NOT NULL,
			match_field TEXT NOT NULL,
			match_value TEXT NOT NULL,
			campaign    TEXT NOT NULL,
			priority    INT NOT NULL DEFAULT 0,
			is_active   BOOLEAN NOT NULL DEFAULT TRUE,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_campaign_priority ON campaign_rules(priority DESC, id);

		CREATE TABLE IF NOT EXISTS leads (
			id                BIGSERIAL PRIMARY KEY,
			client_id         BIGINT NOT NULL,
			name              TEXT NOT NULL,
			email             TEXT NOT NULL DEFAULT '',
			phone             TEXT,
			message           TEXT NOT NULL DEFAULT '',
			notes             TEXT NOT NULL DEFAULT '',
			from_email        TEXT NOT NULL DEFAULT '',
			subject           TEXT NOT NULL DEFAULT '',
			email_received_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			status            TEXT NOT NULL DEFAULT 'new',
			source            TEXT NOT NULL DEFAULT 'other',
			campaign          TEXT NOT NULL DEFAULT '',
			created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_leads_client ON leads(client_id);
		CREATE INDEX IF NOT EXISTS idx_leads_dup ON leads(client_id, name, email);
		CREATE INDEX IF NOT EXISTS idx_leads_contact ON leads(name, email);

		CREATE TABLE IF NOT EXISTS processing_log (
			id         UUID PRIMARY KEY,
			type       TEXT NOT NULL,
			status     TEXT NOT NULL,
			client_id  BIGINT,
			lead_id    BIGINT,
			rule_kind  TEXT NOT NULL DEFAULT '',
			rule_id    BIGINT,
			details    JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_log_type ON processing_log(type);
		CREATE INDEX IF NOT EXISTS idx_log_created ON processing_log(created_at);

		CREATE TABLE IF NOT EXISTS admin_users (
			id    BIGSERIAL PRIMARY KEY,
			email TEXT NOT NULL UNIQUE
		);

		CREATE TABLE IF NOT EXISTS admin_preferences (
			id       BIGSERIAL PRIMARY KEY,
			admin_id BIGINT NOT NULL,
			kind     TEXT NOT NULL,
			enabled  BOOLEAN NOT NULL,
			UNIQUE(admin_id, kind)
		);

		CREATE TABLE IF NOT EXISTS portal_users (
			id               BIGSERIAL PRIMARY KEY,
			client_id        BIGINT NOT NULL,
			email            TEXT NOT NULL UNIQUE,
			notify_campaigns TEXT[] NOT NULL DEFAULT '{}'
		);
	`)
	return err
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
