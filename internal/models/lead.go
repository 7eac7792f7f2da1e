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

// LeadSource is where a lead originated.
type LeadSource string

const (
	SourceWebsite  LeadSource = "website"
	SourcePhone    LeadSource = "phone"
	SourceReferral LeadSource = "referral"
	SourceSocial   LeadSource = "social"
	SourceOther    LeadSource = "other"
)

// Lead is a prospective customer record tied to exactly one client.
type Lead struct {
	ID       int64
	ClientID int64
	Name     string
	// Email and Phone: at least one is always set. Phone may be nil.
	Email string
	Phone *string
	// Message is the extracted inquiry text. Duplicate submissions are
	// appended here rather than creating new rows.
	Message string
	// Notes is client-editable; the pipeline only appends duplicate markers.
	Notes string
	// Originating email metadata.
	FromEmail       string
	Subject         string
	EmailReceivedAt time.Time
	// Status is validated against the owning client's disposition map.
	Status   string
	Source   LeadSource
	Campaign string // empty = no campaign attributed
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StatusNew is the disposition stamped on every freshly created lead.
const StatusNew = "new"

// Matchable projects the lead back into the shape both rule engines
// consume, so stored leads can be re-run through classification without
// fabricating a fake inbound message.
func (l *Lead) Matchable() MatchableEmail {
	return MatchableEmail{
		Subject:     l.Subject,
		FromAddress: l.FromEmail,
		Body:        l.Message,
	}
}

// HasContact reports whether the lead carries at least one contact channel.
func (l *Lead) HasContact() bool {
	return l.Email != "" || (l.Phone != nil && *l.Phone != "")
}
