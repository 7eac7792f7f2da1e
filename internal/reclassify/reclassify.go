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

// Package reclassify re-runs source and campaign classification over leads
// already in the database, for when rules change after ingestion.
package reclassify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/leadgate/pipeline/internal/models"
	"github.com/leadgate/pipeline/internal/rules"
)

// Store is the persistence surface the runner reads and writes.
type Store interface {
	Clients(ctx context.Context) ([]models.Client, error)
	LeadsByClient(ctx context.Context, clientID int64) ([]models.Lead, error)
	ActiveSourceRules(ctx context.Context) ([]models.SourceRule, error)
	ActiveCampaignRules(ctx context.Context) ([]models.CampaignRule, error)
	UpdateLeadClassification(ctx context.Context, leadID int64, source models.LeadSource, campaign string) error
}

// Request defines the scope of a reclassification run.
type Request struct {
	// ClientIDs restricts the run; empty means every client.
	ClientIDs []int64
	// DryRun computes changes without writing them.
	DryRun bool
}

// ClientResult tracks per-client progress.
type ClientResult struct {
	ClientID int64
	Examined int
	Updated  int
	Errors   int
}

// Result summarises a completed run.
type Result struct {
	ClientResults []ClientResult
	TotalExamined int
	TotalUpdated  int
	Elapsed       time.Duration
}

// Runner performs the reclassification.
type Runner struct {
	store Store
}

// NewRunner creates a runner.
func NewRunner(store Store) *Runner {
	return &Runner{store: store}
}

// Run reclassifies every lead in scope. A failing client is recorded and
// the run continues with the rest.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	srcRules, err := r.store.ActiveSourceRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("load source rules: %w", err)
	}
	campRules, err := r.store.ActiveCampaignRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("load campaign rules: %w", err)
	}

	clientIDs := req.ClientIDs
	if len(clientIDs) == 0 {
		clients, err := r.store.Clients(ctx)
		if err != nil {
			return nil, fmt.Errorf("load clients: %w", err)
		}
		for _, c := range clients {
			clientIDs = append(clientIDs, c.ID)
		}
	}

	slog.Info("starting reclassification",
		"clients", len(clientIDs),
		"source_rules", len(srcRules),
		"campaign_rules", len(campRules),
		"dry_run", req.DryRun,
	)

	result := &Result{}
	for _, clientID := range clientIDs {
		cr, err := r.reclassifyClient(ctx, clientID, srcRules, campRules, req.DryRun)
		if err != nil {
			slog.Error("reclassification failed for client",
				"client_id", clientID,
				"error", err,
			)
			cr = ClientResult{ClientID: clientID, Errors: 1}
		}
		result.ClientResults = append(result.ClientResults, cr)
		result.TotalExamined += cr.Examined
		result.TotalUpdated += cr.Updated
	}

	result.Elapsed = time.Since(start)
	slog.Info("reclassification complete",
		"examined", result.TotalExamined,
		"updated", result.TotalUpdated,
		"elapsed", result.Elapsed,
	)
	return result, nil
}

func (r *Runner) reclassifyClient(ctx context.Context, clientID int64, srcRules []models.SourceRule, campRules []models.CampaignRule, dryRun bool) (ClientResult, error) {
	cr := ClientResult{ClientID: clientID}

	leads, err := r.store.LeadsByClient(ctx, clientID)
	if err != nil {
		return cr, fmt.Errorf("load leads: %w", err)
	}
	cr.Examined = len(leads)

	for i := range leads {
		lead := &leads[i]
		matchable := lead.Matchable()

		source := rules.LegacySource(matchable)
		if match, ok := rules.FirstSourceMatch(srcRules, matchable); ok {
			source = match.Source
		}
		campaign := lead.Campaign
		if match, ok := rules.FirstCampaignMatch(campRules, matchable); ok {
			campaign = match.Campaign
		} else if fallback, ok := rules.FallbackCampaign(matchable); ok {
			campaign = fallback
		}

		if source == lead.Source && campaign == lead.Campaign {
			continue
		}

		slog.Debug("lead classification changed",
			"lead_id", lead.ID,
			"source", source,
			"campaign", campaign,
		)
		if dryRun {
			cr.Updated++
			continue
		}
		if err := r.store.UpdateLeadClassification(ctx, lead.ID, source, campaign); err != nil {
			slog.Warn("classification update failed", "lead_id", lead.ID, "error", err)
			cr.Errors++
			continue
		}
		cr.Updated++
	}

	slog.Info("client reclassification complete",
		"client_id", clientID,
		"examined", cr.Examined,
		"updated", cr.Updated,
		"errors", cr.Errors,
	)
	return cr, nil
}
