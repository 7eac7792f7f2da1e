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

// Package pipeline sequences the email-to-lead flow: fetch, extract,
// classify, resolve clients, dedup or create, audit, notify. Processing is
// strictly sequential — one message completes before the next begins, and
// within a message per-client work runs in order so the audit trail
// reflects causal order.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/leadgate/pipeline/internal/audit"
	"github.com/leadgate/pipeline/internal/extract"
	"github.com/leadgate/pipeline/internal/models"
	"github.com/leadgate/pipeline/internal/notify"
	"github.com/leadgate/pipeline/internal/rules"
)

// Mailbox is the gateway surface the processor drives.
type Mailbox interface {
	ListUnseen() ([]uint32, error)
	Fetch(uid uint32) (*models.InboundEmail, error)
	MarkSeen(uid uint32) error
}

// RuleSource provides the active classification rules.
type RuleSource interface {
	ActiveSourceRules(ctx context.Context) ([]models.SourceRule, error)
	ActiveCampaignRules(ctx context.Context) ([]models.CampaignRule, error)
}

// LeadStore is the dedup/create/merge surface.
type LeadStore interface {
	FindDuplicateLead(ctx context.Context, clientID int64, name, email string, phone *string) (*models.Lead, error)
	CreateLead(ctx context.Context, l *models.Lead) error
	AppendDuplicate(ctx context.Context, leadID int64, messageBlock, note string, receivedAt time.Time) error
}

// ClientResolver finds every client a message should produce a lead for.
type ClientResolver interface {
	Resolve(ctx context.Context, email models.MatchableEmail) ([]rules.Match, error)
}

// LeadAlerter fans out client-facing new-lead notifications.
type LeadAlerter interface {
	NotifyNewLead(ctx context.Context, client *models.Client, lead *models.Lead) (sent, failed int)
}

// AdminAlerter dispatches operational alerts to staff.
type AdminAlerter interface {
	EmailProcessed(ctx context.Context, s notify.ProcessedSummary)
	EmailError(ctx context.Context, summary string, details map[string]any)
	RuleNotMatched(ctx context.Context, from, subject string)
	DuplicateLead(ctx context.Context, clientName string, leadID int64, from string)
	CampaignRuleNotMatched(ctx context.Context, from, subject string)
}

// EventPublisher emits lead lifecycle events for downstream consumers.
// Optional; delivery is best-effort.
type EventPublisher interface {
	PublishLeadCreated(ctx context.Context, lead *models.Lead, client *models.Client) error
}

// SeenFilter guards against re-processing messages across restarted runs.
// Optional.
type SeenFilter interface {
	IsNew(ctx context.Context, messageID string) (bool, error)
}

// Config wires a Processor.
type Config struct {
	Mailbox  Mailbox
	Rules    RuleSource
	Leads    LeadStore
	Resolver ClientResolver
	Audit    *audit.Recorder
	Notify   LeadAlerter
	Admin    AdminAlerter
	Events   EventPublisher // optional
	Seen     SeenFilter     // optional
}

// Processor is the per-run orchestrator.
type Processor struct {
	mailbox  Mailbox
	rules    RuleSource
	leads    LeadStore
	resolver ClientResolver
	audit    *audit.Recorder
	notify   LeadAlerter
	admin    AdminAlerter
	events   EventPublisher
	seen     SeenFilter
}

// New creates a processor.
func New(cfg Config) *Processor {
	return &Processor{
		mailbox:  cfg.Mailbox,
		rules:    cfg.Rules,
		leads:    cfg.Leads,
		resolver: cfg.Resolver,
		audit:    cfg.Audit,
		notify:   cfg.Notify,
		admin:    cfg.Admin,
		events:   cfg.Events,
		seen:     cfg.Seen,
	}
}

// RunResult summarises one batch run.
type RunResult struct {
	Listed  int
	Skipped int
	Created int
	Merged  int
	Errors  int
	Elapsed time.Duration
}

// Run processes every unseen message once, sequentially. A listing failure
// is fatal for the run and surfaced to the caller; any failure inside a
// single message is contained: logged as an error entry, admin-alerted, and
// the loop moves on. Messages are marked seen after processing, success or
// failure, so they are never picked up twice.
func (p *Processor) Run(ctx context.Context) (*RunResult, error) {
	start := time.Now()

	uids, err := p.mailbox.ListUnseen()
	if err != nil {
		return nil, fmt.Errorf("list unseen messages: %w", err)
	}

	result := &RunResult{Listed: len(uids)}
	slog.Info("processing unseen messages", "count", len(uids))

	for _, uid := range uids {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		messageID := strconv.FormatUint(uint64(uid), 10)

		if p.seen != nil {
			isNew, serr := p.seen.IsNew(ctx, messageID)
			if serr != nil {
				slog.Warn("seen filter check failed", "message_id", messageID, "error", serr)
			} else if !isNew {
				result.Skipped++
				p.markSeen(uid)
				continue
			}
		}

		email, ferr := p.mailbox.Fetch(uid)
		if ferr != nil {
			// Recoverable: skip this message, keep the batch going.
			p.audit.Error(ctx, map[string]any{
				"stage":      "fetch",
				"message_id": messageID,
				"error":      ferr.Error(),
			})
			p.admin.EmailError(ctx, "message fetch failed", map[string]any{
				"message_id": messageID,
				"error":      ferr.Error(),
			})
			result.Errors++
			p.markSeen(uid)
			continue
		}

		out, perr := p.safeProcess(ctx, email)
		if perr != nil {
			p.audit.Error(ctx, map[string]any{
				"stage":      "process",
				"message_id": messageID,
				"from":       email.FromAddress,
				"subject":    email.Subject,
				"error":      perr.Error(),
			})
			p.admin.EmailError(ctx, "message processing failed", map[string]any{
				"message_id": messageID,
				"from":       email.FromAddress,
				"error":      perr.Error(),
			})
			result.Errors++
		} else {
			result.Created += out.created
			result.Merged += out.merged
			if out.skipped {
				result.Skipped++
			}
		}

		p.markSeen(uid)
	}

	result.Elapsed = time.Since(start)
	slog.Info("batch run complete",
		"listed", result.Listed,
		"created", result.Created,
		"merged", result.Merged,
		"skipped", result.Skipped,
		"errors", result.Errors,
		"elapsed", result.Elapsed,
	)
	return result, nil
}

func (p *Processor) markSeen(uid uint32) {
	if err := p.mailbox.MarkSeen(uid); err != nil {
		slog.Warn("mark seen failed", "uid", uid, "error", err)
	}
}

type messageOutcome struct {
	created int
	merged  int
	skipped bool
}

// safeProcess contains any panic from a single message so the batch
// survives it.
func (p *Processor) safeProcess(ctx context.Context, email *models.InboundEmail) (out *messageOutcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return p.process(ctx, email)
}

// process runs the per-message state machine:
// received → (rejected | ignored) | classified → resolved →
// {created | merged}×N → notified.
func (p *Processor) process(ctx context.Context, email *models.InboundEmail) (*messageOutcome, error) {
	out := &messageOutcome{}

	// Automated senders are ignored silently, not errors.
	if extract.IsAutomatedSender(email.FromAddress, email.Subject) {
		p.audit.EmailReceived(ctx, models.LogSkipped, map[string]any{
			"message_id": email.MessageID,
			"from":       email.FromAddress,
			"subject":    email.Subject,
			"reason":     "automated_sender",
		})
		out.skipped = true
		return out, nil
	}

	p.audit.EmailReceived(ctx, models.LogSuccess, map[string]any{
		"message_id": email.MessageID,
		"from":       email.FromAddress,
		"subject":    email.Subject,
	})

	// Hard rejects: no sender, no name. Expected rejections, not thrown
	// errors — but they write an error entry and alert staff.
	if email.FromAddress == "" {
		p.reject(ctx, email, "missing_sender")
		return out, nil
	}
	name := extract.ExtractName(email)
	if name == "" {
		p.reject(ctx, email, "missing_name")
		return out, nil
	}

	plainBody := extract.PlainText(email.TextBody)
	if plainBody == "" {
		plainBody = extract.PlainText(email.HTMLBody)
	}
	phone := extract.ExtractPhone(plainBody)
	message := extract.ExtractMessage(email)
	leadEmail := extract.ExtractEmailAddress(plainBody, email.FromAddress)
	matchable := email.Matchable()

	source, campaign, err := p.classify(ctx, matchable, email)
	if err != nil {
		return nil, err
	}

	matches, err := p.resolver.Resolve(ctx, matchable)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		p.audit.Error(ctx, map[string]any{
			"message_id": email.MessageID,
			"from":       email.FromAddress,
			"subject":    email.Subject,
			"reason":     "no_client_matched",
		})
		p.admin.RuleNotMatched(ctx, email.FromAddress, email.Subject)
		return out, nil
	}

	var phonePtr *string
	if phone != "" {
		phonePtr = &phone
	}

	// Dedup and create are per matched client: the same message can merge
	// for one client and create for another.
	for i := range matches {
		m := &matches[i]
		dup, derr := p.leads.FindDuplicateLead(ctx, m.Client.ID, name, leadEmail, phonePtr)
		if derr != nil {
			return nil, fmt.Errorf("duplicate lookup for client %d: %w", m.Client.ID, derr)
		}

		if dup != nil {
			block := formatDuplicateBlock(email, message)
			note := fmt.Sprintf("[%s] Duplicate submission received.", email.Date.UTC().Format("2006-01-02 15:04"))
			if aerr := p.leads.AppendDuplicate(ctx, dup.ID, block, note, email.Date); aerr != nil {
				return nil, fmt.Errorf("merge duplicate into lead %d: %w", dup.ID, aerr)
			}
			p.audit.LeadDuplicate(ctx, m.Client.ID, dup.ID, map[string]any{
				"message_id": email.MessageID,
				"from":       email.FromAddress,
			})
			p.admin.DuplicateLead(ctx, m.Client.Name, dup.ID, email.FromAddress)
			out.merged++
			continue
		}

		lead := &models.Lead{
			ClientID:        m.Client.ID,
			Name:            name,
			Email:           leadEmail,
			Phone:           phonePtr,
			Message:         message,
			FromEmail:       email.FromAddress,
			Subject:         email.Subject,
			EmailReceivedAt: email.Date,
			Status:          models.StatusNew,
			Source:          source,
			Campaign:        campaign,
		}
		if cerr := p.leads.CreateLead(ctx, lead); cerr != nil {
			return nil, fmt.Errorf("create lead for client %d: %w", m.Client.ID, cerr)
		}
		p.audit.LeadCreated(ctx, m.Client.ID, lead.ID, map[string]any{
			"message_id": email.MessageID,
			"source":     string(source),
			"campaign":   campaign,
			"via":        m.Via,
		})
		if p.events != nil {
			if eerr := p.events.PublishLeadCreated(ctx, lead, &m.Client); eerr != nil {
				slog.Warn("lead event publish failed", "lead_id", lead.ID, "error", eerr)
			}
		}
		p.notify.NotifyNewLead(ctx, &m.Client, lead)
		out.created++
	}

	if out.created+out.merged > 0 {
		p.admin.EmailProcessed(ctx, notify.ProcessedSummary{
			FromAddress: email.FromAddress,
			Subject:     email.Subject,
			Clients:     len(matches),
			Created:     out.created,
			Merged:      out.merged,
			UsedDefault: rules.UsedDefault(matches),
		})
	}
	return out, nil
}

// classify determines the lead source and campaign for a message, before
// client resolution, over all active rules in priority order.
func (p *Processor) classify(ctx context.Context, matchable models.MatchableEmail, email *models.InboundEmail) (models.LeadSource, string, error) {
	srcRules, err := p.rules.ActiveSourceRules(ctx)
	if err != nil {
		return "", "", fmt.Errorf("load source rules: %w", err)
	}
	source := rules.LegacySource(matchable)
	if match, ok := rules.FirstSourceMatch(srcRules, matchable); ok {
		source = match.Source
		p.audit.RuleMatched(ctx, match.ClientID, "source", match.ID, map[string]any{
			"source": string(match.Source),
		})
	}

	campRules, err := p.rules.ActiveCampaignRules(ctx)
	if err != nil {
		return "", "", fmt.Errorf("load campaign rules: %w", err)
	}
	var campaign string
	if match, ok := rules.FirstCampaignMatch(campRules, matchable); ok {
		campaign = match.Campaign
		p.audit.RuleMatched(ctx, match.ClientID, "campaign", match.ID, map[string]any{
			"campaign": match.Campaign,
		})
	} else if fallback, ok := rules.FallbackCampaign(matchable); ok {
		campaign = fallback
	} else if len(campRules) > 0 {
		p.admin.CampaignRuleNotMatched(ctx, email.FromAddress, email.Subject)
	}
	return source, campaign, nil
}

func (p *Processor) reject(ctx context.Context, email *models.InboundEmail, reason string) {
	p.audit.Error(ctx, map[string]any{
		"message_id": email.MessageID,
		"from":       email.FromAddress,
		"subject":    email.Subject,
		"reason":     reason,
	})
	p.admin.EmailError(ctx, "message rejected: "+reason, map[string]any{
		"message_id": email.MessageID,
		"from":       email.FromAddress,
		"subject":    email.Subject,
	})
}

// DuplicateMarker heads every merged submission block inside a lead's
// message field.
const DuplicateMarker = "--- DUPLICATE SUBMISSION DETECTED ---"

func formatDuplicateBlock(email *models.InboundEmail, message string) string {
	return fmt.Sprintf("\n\n%s\nReceived: %s\nFrom: %s\nSubject: %s\n\n%s",
		DuplicateMarker,
		email.Date.UTC().Format("2006-01-02 15:04:05"),
		email.FromAddress,
		email.Subject,
		message,
	)
}
