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

package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/leadgate/pipeline/internal/audit"
	"github.com/leadgate/pipeline/internal/models"
)

// AdminDirectory lists admins with their per-kind preferences attached.
type AdminDirectory interface {
	Admins(ctx context.Context) ([]models.AdminUser, error)
}

// AdminNotifier dispatches operational alerts to staff. The recipient set
// per kind: admins with an explicit preference-true flag, plus admins with
// no preference row for whom the injected config default is true. Delivery
// is best-effort; a failure to reach one admin never blocks the others and
// never escalates further.
type AdminNotifier struct {
	mailer   MailSender
	dir      AdminDirectory
	defaults map[models.AdminKind]bool
	audit    *audit.Recorder
}

// NewAdminNotifier creates the admin dispatcher. defaults supplies the
// fallback for admins without an explicit preference row, injected at
// construction time rather than read from the environment ad hoc.
func NewAdminNotifier(mailer MailSender, dir AdminDirectory, defaults map[models.AdminKind]bool, rec *audit.Recorder) *AdminNotifier {
	if defaults == nil {
		defaults = map[models.AdminKind]bool{}
	}
	return &AdminNotifier{mailer: mailer, dir: dir, defaults: defaults, audit: rec}
}

func (n *AdminNotifier) dispatch(ctx context.Context, kind models.AdminKind, subject, body string) {
	admins, err := n.dir.Admins(ctx)
	if err != nil {
		slog.Error("load admin recipients failed", "kind", kind, "error", err)
		return
	}

	var recipients []string
	for i := range admins {
		if admins[i].WantsNotification(kind, n.defaults) {
			recipients = append(recipients, admins[i].Email)
		}
	}
	if len(recipients) == 0 {
		return
	}

	sent, failures := Each(recipients, func(to string) error {
		return n.mailer.Send(to, subject, body)
	})

	failed := make(map[string]bool, len(failures))
	for _, f := range failures {
		failed[f.Item] = true
		n.audit.NotificationSent(ctx, models.LogFailed, 0, 0, map[string]any{
			"kind":      string(kind),
			"recipient": f.Item,
			"error":     f.Err.Error(),
		})
		slog.Error("admin alert delivery failed",
			"kind", kind,
			"recipient", f.Item,
			"error", f.Err,
		)
	}
	for _, to := range recipients {
		if !failed[to] {
			n.audit.NotificationSent(ctx, models.LogSuccess, 0, 0, map[string]any{
				"kind":      string(kind),
				"recipient": to,
			})
		}
	}

	slog.Info("admin alert dispatched", "kind", kind, "sent", sent, "failed", len(failures))
}

// ProcessedSummary describes a fully processed inbound email for the
// consolidated success alert.
type ProcessedSummary struct {
	FromAddress string
	Subject     string
	Clients     int
	Created     int
	Merged      int
	UsedDefault bool
}

// EmailProcessed sends one consolidated alert per inbound email that
// produced at least one lead.
func (n *AdminNotifier) EmailProcessed(ctx context.Context, s ProcessedSummary) {
	subject := fmt.Sprintf("Email processed: %d lead(s) across %d client(s)", s.Created+s.Merged, s.Clients)
	var b strings.Builder
	fmt.Fprintf(&b, "From:    %s\n", s.FromAddress)
	fmt.Fprintf(&b, "Subject: %s\n", s.Subject)
	fmt.Fprintf(&b, "Matched clients: %d\n", s.Clients)
	fmt.Fprintf(&b, "Leads created:   %d\n", s.Created)
	fmt.Fprintf(&b, "Leads merged:    %d\n", s.Merged)
	if s.UsedDefault {
		b.WriteString("\nNo routing rule matched; the default client was used.\n")
	}
	n.dispatch(ctx, models.AdminEmailProcessed, subject, b.String())
}

// EmailError reports a processing or delivery failure.
func (n *AdminNotifier) EmailError(ctx context.Context, summary string, details map[string]any) {
	var b strings.Builder
	b.WriteString(summary)
	b.WriteString("\n\n")
	for _, k := range sortedKeys(details) {
		fmt.Fprintf(&b, "%s: %v\n", k, details[k])
	}
	n.dispatch(ctx, models.AdminEmailError, "Lead pipeline error: "+summary, b.String())
}

// RuleNotMatched reports an email no routing rule (or fallback) claimed.
func (n *AdminNotifier) RuleNotMatched(ctx context.Context, from, subject string) {
	body := fmt.Sprintf("No routing rule matched this email and no default client is configured.\n\nFrom:    %s\nSubject: %s\n", from, subject)
	n.dispatch(ctx, models.AdminRuleNotMatched, "No routing rule matched", body)
}

// DuplicateLead reports a merge into an existing lead.
func (n *AdminNotifier) DuplicateLead(ctx context.Context, clientName string, leadID int64, from string) {
	body := fmt.Sprintf("A repeat submission was merged into an existing lead.\n\nClient: %s\nLead:   %d\nFrom:   %s\n", clientName, leadID, from)
	n.dispatch(ctx, models.AdminDuplicateLead, "Duplicate lead detected", body)
}

// CampaignRuleNotMatched reports that campaign rules exist but none claimed
// this email.
func (n *AdminNotifier) CampaignRuleNotMatched(ctx context.Context, from, subject string) {
	body := fmt.Sprintf("Campaign rules are configured but none matched this email.\n\nFrom:    %s\nSubject: %s\n", from, subject)
	n.dispatch(ctx, models.AdminCampaignRuleNotMatched, "No campaign rule matched", body)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
