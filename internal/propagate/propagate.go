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

// Package propagate carries disposition changes across clients: when a
// lead's disposition moves, sibling leads for the same contact under other
// clients follow, provided the target client recognises that disposition.
package propagate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leadgate/pipeline/internal/models"
)

// LeadIndex finds and updates sibling leads. Implemented by store.Store.
type LeadIndex interface {
	LeadsByContact(ctx context.Context, name, email string, phone *string, excludeClientID int64) ([]models.Lead, error)
	UpdateLeadDisposition(ctx context.Context, leadID int64, disposition string) error
}

// ClientLookup resolves a client's disposition vocabulary.
type ClientLookup interface {
	ClientByID(ctx context.Context, id int64) (*models.Client, error)
}

// DispositionChanged describes one disposition move on a source lead.
type DispositionChanged struct {
	Lead        models.Lead
	Disposition string
}

// Result tallies one propagation pass.
type Result struct {
	Examined int
	Updated  int
	Skipped  int
}

// Policy applies disposition changes to sibling leads.
type Policy struct {
	leads   LeadIndex
	clients ClientLookup
}

// NewPolicy creates the propagation policy.
func NewPolicy(leads LeadIndex, clients ClientLookup) *Policy {
	return &Policy{leads: leads, clients: clients}
}

// Apply pushes ev's disposition onto every lead sharing the source lead's
// contact identity (name, email, phone) under a different client. A sibling
// is skipped when its client does not carry the disposition in its
// vocabulary; a failing sibling is logged and skipped without aborting the
// rest.
func (p *Policy) Apply(ctx context.Context, ev DispositionChanged) (*Result, error) {
	siblings, err := p.leads.LeadsByContact(ctx, ev.Lead.Name, ev.Lead.Email, ev.Lead.Phone, ev.Lead.ClientID)
	if err != nil {
		return nil, fmt.Errorf("find sibling leads: %w", err)
	}

	res := &Result{Examined: len(siblings)}
	vocab := make(map[int64]bool)

	for i := range siblings {
		s := &siblings[i]

		allowed, ok := vocab[s.ClientID]
		if !ok {
			client, cerr := p.clients.ClientByID(ctx, s.ClientID)
			if cerr != nil {
				slog.Warn("client lookup failed during propagation",
					"client_id", s.ClientID, "lead_id", s.ID, "error", cerr)
				res.Skipped++
				continue
			}
			allowed = client != nil && client.HasDisposition(ev.Disposition)
			vocab[s.ClientID] = allowed
		}
		if !allowed {
			res.Skipped++
			continue
		}

		if uerr := p.leads.UpdateLeadDisposition(ctx, s.ID, ev.Disposition); uerr != nil {
			slog.Warn("disposition propagation failed",
				"lead_id", s.ID, "disposition", ev.Disposition, "error", uerr)
			res.Skipped++
			continue
		}
		res.Updated++
	}

	slog.Info("disposition propagated",
		"source_lead", ev.Lead.ID,
		"disposition", ev.Disposition,
		"examined", res.Examined,
		"updated", res.Updated,
		"skipped", res.Skipped,
	)
	return res, nil
}
