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

package models

import "time"

// RoutingKind selects how a routing rule matches an inbound email.
type RoutingKind string

const (
	RouteEmailMatch RoutingKind = "email_match"
	RouteCustom     RoutingKind = "custom"
	RouteCombined   RoutingKind = "combined"
)

// MatchType is the comparison a classification rule applies.
type MatchType string

const (
	MatchContains MatchType = "contains"
	MatchExact    MatchType = "exact"
	MatchRegex    MatchType = "regex"
	MatchURLParam MatchType = "url_parameter"
	MatchDomain   MatchType = "domain" // source rules only
)

// MatchField selects which part of the email a rule inspects.
type MatchField string

const (
	FieldBody       MatchField = "body"
	FieldSubject    MatchField = "subject"
	FieldFromEmail  MatchField = "from_email"
	FieldFromDomain MatchField = "from_domain" // source rules only
	FieldURL        MatchField = "url"
)

// RoutingRule determines which client an inbound email belongs to.
// All active routing rules are evaluated and every match is kept; routing
// is deliberately NOT first-match-wins.
type RoutingRule struct {
	ID       int64
	ClientID int64
	Kind     RoutingKind
	// Email is an exact address or an "@domain" suffix (email_match and
	// combined kinds).
	Email string
	// Condition is a boolean expression over substring checks
	// (custom and combined kinds). See rules.ParseCondition.
	Condition string
	IsActive  bool
	CreatedAt time.Time
}

// RuleSpec is the generic shape shared by both classification rule kinds.
type RuleSpec struct {
	Type  MatchType
	Field MatchField
	Value string
}

// SourceRule stamps a lead source onto matching emails. Rules are evaluated
// in descending priority order (ties by ascending id); first match wins.
type SourceRule struct {
	ID       int64
	ClientID int64
	Type     MatchType
	Field    MatchField
	Value    string
	// Source is the lead source assigned when this rule matches.
	Source    LeadSource
	Priority  int
	IsActive  bool
	CreatedAt time.Time
}

// Spec returns the rule's generic match descriptor.
func (r *SourceRule) Spec() RuleSpec {
	return RuleSpec{Type: r.Type, Field: r.Field, Value: r.Value}
}

// CampaignRule stamps a campaign label onto matching emails. Same evaluation
// semantics as SourceRule.
type CampaignRule struct {
	ID       int64
	ClientID int64
	Type     MatchType
	Field    MatchField
	Value    string
	// Campaign is the label assigned when this rule matches.
	Campaign  string
	Priority  int
	IsActive  bool
	CreatedAt time.Time
}

// Spec returns the rule's generic match descriptor.
func (r *CampaignRule) Spec() RuleSpec {
	return RuleSpec{Type: r.Type, Field: r.Field, Value: r.Value}
}
