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

// AdminKind names an operational admin notification.
type AdminKind string

const (
	AdminEmailProcessed         AdminKind = "email_processed"
	AdminEmailError             AdminKind = "email_error"
	AdminRuleNotMatched         AdminKind = "rule_not_matched"
	AdminDuplicateLead          AdminKind = "duplicate_lead"
	AdminCampaignRuleNotMatched AdminKind = "campaign_rule_not_matched"
)

// AdminUser is a staff member who may receive operational alerts.
type AdminUser struct {
	ID    int64
	Email string
	// Preferences maps notification kind to an explicit opt-in/out. A kind
	// absent from the map means "no preference row" — the dispatcher falls
	// back to the configured global default for that kind.
	Preferences map[AdminKind]bool
}

// WantsNotification resolves whether this admin receives the given kind,
// using the global default when no explicit preference exists.
func (a *AdminUser) WantsNotification(kind AdminKind, defaults map[AdminKind]bool) bool {
	if v, ok := a.Preferences[kind]; ok {
		return v
	}
	return defaults[kind]
}

// PortalUser is a client-portal account. Its campaign preference gates which
// new-lead notifications it receives.
type PortalUser struct {
	ID       int64
	ClientID int64
	Email    string
	// NotifyCampaigns limits new-lead notifications to these campaigns.
	// Empty means "all campaigns". Leads with no campaign always notify.
	NotifyCampaigns []string
}

// WantsLeadNotification applies the user's campaign preference to a lead's
// campaign label.
func (u *PortalUser) WantsLeadNotification(campaign string) bool {
	if len(u.NotifyCampaigns) == 0 || campaign == "" {
		return true
	}
	for _, c := range u.NotifyCampaigns {
		if c == campaign {
			return true
		}
	}
	return false
}
