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
	"net/url"
	"sort"
	"strings"

	"github.com/leadgate/pipeline/internal/models"
)

// FirstSourceMatch returns the first active source rule matching the email.
// Rules are evaluated in descending priority order, ties broken by
// ascending id; input order does not matter.
func FirstSourceMatch(rs []models.SourceRule, email models.MatchableEmail) (*models.SourceRule, bool) {
	ordered := make([]models.SourceRule, len(rs))
	copy(ordered, rs)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Priority != ordered[j].Priority {
			return ordered[i].Priority > ordered[j].Priority
		}
		return ordered[i].ID < ordered[j].ID
	})
	for i := range ordered {
		if MatchSource(&ordered[i], email) {
			r := ordered[i]
			return &r, true
		}
	}
	return nil, false
}

// FirstCampaignMatch returns the first active campaign rule matching the
// email, with the same ordering semantics as FirstSourceMatch.
func FirstCampaignMatch(rs []models.CampaignRule, email models.MatchableEmail) (*models.CampaignRule, bool) {
	ordered := make([]models.CampaignRule, len(rs))
	copy(ordered, rs)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Priority != ordered[j].Priority {
			return ordered[i].Priority > ordered[j].Priority
		}
		return ordered[i].ID < ordered[j].ID
	})
	for i := range ordered {
		if MatchCampaign(&ordered[i], email) {
			r := ordered[i]
			return &r, true
		}
	}
	return nil, false
}

var (
	websiteSubjectKeywords = []string{
		"website", "contact form", "new submission", "inquiry", "enquiry",
		"quote request", "form submission",
	}
	socialDomainKeywords = []string{
		"facebook", "instagram", "twitter", "linkedin", "tiktok",
	}
)

// LegacySource is the keyword heuristic applied when no source rule
// matches: contact-form subjects map to website, social-network sender
// domains to social, everything else to other.
func LegacySource(email models.MatchableEmail) models.LeadSource {
	subject := strings.ToLower(email.Subject)
	for _, kw := range websiteSubjectKeywords {
		if strings.Contains(subject, kw) {
			return models.SourceWebsite
		}
	}
	domain := email.FromDomain()
	for _, kw := range socialDomainKeywords {
		if strings.Contains(domain, kw) {
			return models.SourceSocial
		}
	}
	return models.SourceOther
}

// FallbackCampaign sniffs Google Ads attribution parameters out of URLs in
// the body when no campaign rule matched: a utm_campaign value wins, a bare
// gad_campaignid yields the literal "Google Ads" label.
func FallbackCampaign(email models.MatchableEmail) (string, bool) {
	gad := false
	for _, u := range ExtractURLs(email.Body) {
		q := strings.Index(u, "?")
		if q < 0 || q == len(u)-1 {
			continue
		}
		for _, pair := range strings.Split(u[q+1:], "&") {
			key, value := pair, ""
			if eq := strings.Index(pair, "="); eq >= 0 {
				key, value = pair[:eq], pair[eq+1:]
			}
			switch strings.ToLower(key) {
			case "utm_campaign":
				if decoded, err := url.QueryUnescape(value); err == nil && decoded != "" {
					return decoded, true
				}
			case "gad_campaignid":
				gad = true
			}
		}
	}
	if gad {
		return "Google Ads", true
	}
	return "", false
}
