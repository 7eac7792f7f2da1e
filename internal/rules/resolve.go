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

package rules

import (
	"context"
	"fmt"
	"strings"

	"github.com/leadgate/pipeline/internal/audit"
	"github.com/leadgate/pipeline/internal/models"
)

// MatchRouting evaluates one routing rule against an email. Inactive rules
// never match. Custom conditions evaluate over the body; combined rules
// require both the address check and the condition to hold.
func MatchRouting(r *models.RoutingRule, email models.MatchableEmail) bool {
	if !r.IsActive {
		return false
	}
	switch r.Kind {
	case models.RouteEmailMatch:
		return matchAddress(r.Email, email.FromAddress)
	case models.RouteCustom:
		return evalCondition(r.Condition, email.Body)
	case models.RouteCombined:
		return matchAddress(r.Email, email.FromAddress) && evalCondition(r.Condition, email.Body)
	default:
		return false
	}
}

// matchAddress compares a rule's address pattern against the sender:
// "@domain" patterns match as a suffix, anything else exactly.
func matchAddress(pattern, addr string) bool {
	p := strings.ToLower(strings.TrimSpace(pattern))
	a := strings.ToLower(strings.TrimSpace(addr))
	if p == "" || a == "" {
		return false
	}
	if strings.HasPrefix(p, "@") {
		return strings.HasSuffix(a, p)
	}
	return a == p
}

func evalCondition(condition, body string) bool {
	expr, err := ParseCondition(condition)
	if err != nil {
		return false
	}
	return expr.Eval(body)
}

// How a client came to be matched.
const (
	ViaRule           = "rule"
	ViaDomainFallback = "domain_fallback"
	ViaDefaultClient  = "default_client"
)

// Match is one resolved client for an inbound email.
type Match struct {
	Client models.Client
	// Rule is the routing rule that matched, nil for fallback matches.
	Rule *models.RoutingRule
	Via  string
}

// Directory provides the routing configuration the resolver reads.
// Implemented by store.Store.
type Directory interface {
	ActiveRoutingRules(ctx context.Context) ([]models.RoutingRule, error)
	Clients(ctx context.Context) ([]models.Client, error)
}

// Resolver finds every client an inbound email should produce a lead for.
type Resolver struct {
	dir             Directory
	audit           *audit.Recorder
	defaultClientID int64
}

// NewResolver creates a resolver. defaultClientID zero disables the
// default-client fallback.
func NewResolver(dir Directory, rec *audit.Recorder, defaultClientID int64) *Resolver {
	return &Resolver{dir: dir, audit: rec, defaultClientID: defaultClientID}
}

// Resolve runs three rule passes (exact address, @domain suffix,
// custom/combined conditions), keeping every match and deduplicating by
// client id — a client matched by two rules appears once, attributed to the
// first rule that hit. With zero rule matches it falls back to naive domain
// matching over client email/company fields, then to the configured default
// client. An empty result means the message produces no leads.
func (r *Resolver) Resolve(ctx context.Context, email models.MatchableEmail) ([]Match, error) {
	rulesList, err := r.dir.ActiveRoutingRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("load routing rules: %w", err)
	}
	clients, err := r.dir.Clients(ctx)
	if err != nil {
		return nil, fmt.Errorf("load clients: %w", err)
	}
	byID := make(map[int64]models.Client, len(clients))
	for _, c := range clients {
		byID[c.ID] = c
	}

	var matches []Match
	seen := make(map[int64]bool)

	add := func(clientID int64, rule *models.RoutingRule, via string) {
		if seen[clientID] {
			return
		}
		client, ok := byID[clientID]
		if !ok {
			return
		}
		seen[clientID] = true
		matches = append(matches, Match{Client: client, Rule: rule, Via: via})

		details := map[string]any{"via": via, "from": email.FromAddress}
		var ruleID int64
		if rule != nil {
			details["kind"] = string(rule.Kind)
			ruleID = rule.ID
		}
		r.audit.RuleMatched(ctx, clientID, "routing", ruleID, details)
	}

	// Pass 1: exact address rules.
	for i := range rulesList {
		rule := &rulesList[i]
		if rule.Kind != models.RouteEmailMatch || strings.HasPrefix(strings.TrimSpace(rule.Email), "@") {
			continue
		}
		if MatchRouting(rule, email) {
			add(rule.ClientID, rule, ViaRule)
		}
	}

	// Pass 2: @domain suffix rules.
	for i := range rulesList {
		rule := &rulesList[i]
		if rule.Kind != models.RouteEmailMatch || !strings.HasPrefix(strings.TrimSpace(rule.Email), "@") {
			continue
		}
		if MatchRouting(rule, email) {
			add(rule.ClientID, rule, ViaRule)
		}
	}

	// Pass 3: custom and combined rules. Non-matches are audited for
	// observability.
	for i := range rulesList {
		rule := &rulesList[i]
		if rule.Kind != models.RouteCustom && rule.Kind != models.RouteCombined {
			continue
		}
		if MatchRouting(rule, email) {
			add(rule.ClientID, rule, ViaRule)
		} else {
			r.audit.RuleFailed(ctx, rule.ClientID, "routing", rule.ID, map[string]any{
				"kind": string(rule.Kind),
				"from": email.FromAddress,
			})
		}
	}

	if len(matches) > 0 {
		return matches, nil
	}

	// Naive fallback: any client whose primary email or company field
	// textually contains the sender's domain.
	if domain := email.FromDomain(); domain != "" {
		for _, c := range clients {
			if strings.Contains(strings.ToLower(c.Email), domain) ||
				strings.Contains(strings.ToLower(c.Company), domain) {
				add(c.ID, nil, ViaDomainFallback)
			}
		}
	}
	if len(matches) > 0 {
		return matches, nil
	}

	// Last resort: the configured default client.
	if r.defaultClientID != 0 {
		add(r.defaultClientID, nil, ViaDefaultClient)
	}

	return matches, nil
}

// UsedDefault reports whether the resolution fell through to the configured
// default client.
func UsedDefault(matches []Match) bool {
	for _, m := range matches {
		if m.Via == ViaDefaultClient {
			return true
		}
	}
	return false
}
