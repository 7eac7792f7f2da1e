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

// ActiveRoutingRules returns all active routing rules in insertion order.
func (s *Store) ActiveRoutingRules(ctx context.Context) ([]models.RoutingRule, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, client_id, kind, email, condition, is_active, created_at
		FROM routing_rules
		WHERE is_active
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []models.RoutingRule
	for rows.Next() {
		var r models.RoutingRule
		if err := rows.Scan(&r.ID, &r.ClientID, &r.Kind, &r.Email, &r.Condition, &r.IsActive, &r.CreatedAt); err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// ActiveSourceRules returns active source rules ordered by descending
// priority, ascending id — the classification evaluation order.
func (s *Store) ActiveSourceRules(ctx context.Context) ([]models.SourceRule, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, client_id, match_type, match_field, match_value, source,
		       priority, is_active, created_at
		FROM source_rules
		WHERE is_active
		ORDER BY priority DESC, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []models.SourceRule
	for rows.Next() {
		var r models.SourceRule
		if err := rows.Scan(&r.ID, &r.ClientID, &r.Type, &r.Field, &r.Value, &r.Source,
			&r.Priority, &r.IsActive, &r.CreatedAt); err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// ActiveCampaignRules returns active campaign rules in the same order
// contract as ActiveSourceRules.
func (s *Store) ActiveCampaignRules(ctx context.Context) ([]models.CampaignRule, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, client_id, match_type, match_field, match_value, campaign,
		       priority, is_active, created_at
		FROM campaign_rules
		WHERE is_active
		ORDER BY priority DESC, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []models.CampaignRule
	for rows.Next() {
		var r models.CampaignRule
		if err := rows.Scan(&r.ID, &r.ClientID, &r.Type, &r.Field, &r.Value, &r.Campaign,
			&r.Priority, &r.IsActive, &r.CreatedAt); err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}
