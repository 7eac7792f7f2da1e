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
	"net/mail"
	"strings"

	"github.com/leadgate/pipeline/internal/audit"
	"github.com/leadgate/pipeline/internal/models"
)

// PortalDirectory looks up client-portal users at dispatch time; the
// latest stored preference always wins.
type PortalDirectory interface {
	PortalUserByEmail(ctx context.Context, email string) (*models.PortalUser, error)
}

// ErrorAlerter is the slice of the admin dispatcher the lead fan-out needs.
type ErrorAlerter interface {
	EmailError(ctx context.Context, summary string, details map[string]any)
}

// LeadNotifier delivers new-lead notifications to a client's recipients.
type LeadNotifier struct {
	mailer MailSender
	users  PortalDirectory
	audit  *audit.Recorder
	admin  ErrorAlerter
}

// NewLeadNotifier creates the client-facing fan-out.
func NewLeadNotifier(mailer MailSender, users PortalDirectory, rec *audit.Recorder, admin ErrorAlerter) *LeadNotifier {
	return &LeadNotifier{mailer: mailer, users: users, audit: rec, admin: admin}
}

// NotifyNewLead fans out one freshly created lead. Triggered on create
// only, never on merge. Recipient resolution: the client's notification
// list (primary email fallback), minus invalid addresses, minus portal
// users whose campaign preference excludes this lead's campaign. Every
// send is independently isolated; a failing recipient never blocks the
// rest. Returns the sent/failed tally.
func (n *LeadNotifier) NotifyNewLead(ctx context.Context, client *models.Client, lead *models.Lead) (int, int) {
	if !client.EmailNotifications {
		n.audit.NotificationSent(ctx, models.LogSkipped, client.ID, lead.ID, map[string]any{
			"reason": "notifications_disabled",
		})
		return 0, 0
	}

	var recipients []string
	for _, addr := range client.NotificationEmailList() {
		if _, err := mail.ParseAddress(addr); err != nil {
			n.audit.NotificationSent(ctx, models.LogSkipped, client.ID, lead.ID, map[string]any{
				"reason":    "invalid_address",
				"recipient": addr,
			})
			continue
		}

		user, err := n.users.PortalUserByEmail(ctx, addr)
		if err != nil {
			// Preference lookup trouble must not suppress the
			// notification; treat the address as having no account.
			slog.Warn("portal user lookup failed", "recipient", addr, "error", err)
			user = nil
		}
		if user != nil && !user.WantsLeadNotification(lead.Campaign) {
			n.audit.NotificationSent(ctx, models.LogSkipped, client.ID, lead.ID, map[string]any{
				"reason":    "campaign_preference",
				"recipient": addr,
				"campaign":  lead.Campaign,
			})
			continue
		}
		recipients = append(recipients, addr)
	}

	subject := fmt.Sprintf("New lead: %s", lead.Name)
	body := renderLeadBody(client, lead)

	sent, failures := Each(recipients, func(to string) error {
		return n.mailer.Send(to, subject, body)
	})

	failed := make(map[string]bool, len(failures))
	for _, f := range failures {
		failed[f.Item] = true
		kind := ClassifyError(f.Err)
		n.audit.NotificationSent(ctx, models.LogFailed, client.ID, lead.ID, map[string]any{
			"recipient":  f.Item,
			"error":      f.Err.Error(),
			"error_kind": string(kind),
		})
		n.admin.EmailError(ctx,
			fmt.Sprintf("lead notification to %s failed (%s)", f.Item, kind),
			map[string]any{
				"client_id":  client.ID,
				"lead_id":    lead.ID,
				"recipient":  f.Item,
				"error":      f.Err.Error(),
				"error_kind": string(kind),
			})
	}
	for _, addr := range recipients {
		if !failed[addr] {
			n.audit.NotificationSent(ctx, models.LogSuccess, client.ID, lead.ID, map[string]any{
				"recipient": addr,
			})
		}
	}

	slog.Info("lead notification fan-out complete",
		"client_id", client.ID,
		"lead_id", lead.ID,
		"sent", sent,
		"failed", len(failures),
	)
	return sent, len(failures)
}

func renderLeadBody(client *models.Client, lead *models.Lead) string {
	var b strings.Builder
	fmt.Fprintf(&b, "A new lead has arrived for %s.\n\n", client.Name)
	fmt.Fprintf(&b, "Name:    %s\n", lead.Name)
	if lead.Email != "" {
		fmt.Fprintf(&b, "Email:   %s\n", lead.Email)
	}
	if lead.Phone != nil && *lead.Phone != "" {
		fmt.Fprintf(&b, "Phone:   %s\n", *lead.Phone)
	}
	fmt.Fprintf(&b, "Source:  %s\n", lead.Source)
	if lead.Campaign != "" {
		fmt.Fprintf(&b, "Campaign: %s\n", lead.Campaign)
	}
	fmt.Fprintf(&b, "Subject: %s\n", lead.Subject)
	fmt.Fprintf(&b, "Received: %s\n\n", lead.EmailReceivedAt.Format("2006-01-02 15:04 MST"))
	b.WriteString(lead.Message)
	b.WriteString("\n")
	return b.String()
}
