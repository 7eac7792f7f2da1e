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

// Package rules implements the matching machinery of the pipeline: the
// generic rule engine shared by source and campaign classification, the
// routing condition mini-language, priority-ordered classifiers, and the
// client resolver.
package rules

import (
	"regexp"
	"strings"

	"github.com/leadgate/pipeline/internal/models"
)

var urlPattern = regexp.MustCompile(`https?://[^\s<>"']+`)

// ExtractURLs returns all http(s) URLs found in the text, in order.
func ExtractURLs(text string) []string {
	return urlPattern.FindAllString(text, -1)
}

// Matches evaluates a generic rule descriptor against a normalized email.
// Activity flags are the caller's concern; this is pure content matching.
func Matches(spec models.RuleSpec, email models.MatchableEmail) bool {
	field := selectField(spec.Field, email)
	value := strings.TrimSpace(spec.Value)
	if value == "" {
		return false
	}

	switch spec.Type {
	case models.MatchContains:
		return strings.Contains(strings.ToLower(field), strings.ToLower(value))
	case models.MatchExact:
		return strings.EqualFold(strings.TrimSpace(field), value)
	case models.MatchRegex:
		// The pattern is trusted verbatim. A pattern that does not compile
		// simply never matches.
		re, err := regexp.Compile("(?i)" + value)
		if err != nil {
			return false
		}
		return re.MatchString(field)
	case models.MatchURLParam:
		return matchURLParam(field, value)
	case models.MatchDomain:
		return matchDomainSuffix(field, value)
	default:
		return false
	}
}

// selectField picks the email field a rule inspects. The url field is the
// set of URLs found in the body, space-joined.
func selectField(field models.MatchField, email models.MatchableEmail) string {
	switch field {
	case models.FieldSubject:
		return email.Subject
	case models.FieldFromEmail:
		return email.FromAddress
	case models.FieldFromDomain:
		return email.FromDomain()
	case models.FieldURL:
		return strings.Join(ExtractURLs(email.Body), " ")
	default:
		return email.Body
	}
}

// matchURLParam checks query parameters of every URL in the field. A value
// containing "=" must appear as an exact key=value pair; a bare value only
// requires the key to be present as a parameter name.
func matchURLParam(field, value string) bool {
	wantPair := strings.Contains(value, "=")
	want := strings.ToLower(value)

	for _, u := range ExtractURLs(field) {
		q := strings.Index(u, "?")
		if q < 0 || q == len(u)-1 {
			continue
		}
		for _, pair := range strings.Split(u[q+1:], "&") {
			pair = strings.ToLower(pair)
			if wantPair {
				if pair == want {
					return true
				}
				continue
			}
			key := pair
			if eq := strings.Index(pair, "="); eq >= 0 {
				key = pair[:eq]
			}
			if key == want {
				return true
			}
		}
	}
	return false
}

// matchDomainSuffix matches a domain exactly or as a parent domain
// ("example.com" matches both "example.com" and "mail.example.com").
func matchDomainSuffix(field, value string) bool {
	f := strings.ToLower(strings.TrimSpace(field))
	v := strings.ToLower(strings.TrimSpace(value))
	return f == v || strings.HasSuffix(f, "."+v)
}

// MatchSource evaluates a source rule. Inactive rules never match.
func MatchSource(r *models.SourceRule, email models.MatchableEmail) bool {
	if !r.IsActive {
		return false
	}
	return Matches(r.Spec(), email)
}

// MatchCampaign evaluates a campaign rule. Inactive rules never match.
func MatchCampaign(r *models.CampaignRule, email models.MatchableEmail) bool {
	if !r.IsActive {
		return false
	}
	return Matches(r.Spec(), email)
}
