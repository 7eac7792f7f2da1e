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

package events

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/leadgate/pipeline/internal/models"
)

// TestNewLeadCreated verifies the envelope shape and payload mapping.
func TestNewLeadCreated(t *testing.T) {
	phone := "5551234567"
	lead := &models.Lead{
		ID:              7,
		ClientID:        3,
		Name:            "Jane Cooper",
		Email:           "jane@example.com",
		Phone:           &phone,
		Source:          models.SourceWebsite,
		Campaign:        "Spring Sale",
		Subject:         "New inquiry",
		EmailReceivedAt: time.Date(2026, 8, 14, 9, 30, 0, 0, time.UTC),
	}
	client := &models.Client{ID: 3, Name: "Alpha Realty"}

	env := NewLeadCreated(lead, client)
	if env.Type != "lead.created" {
		t.Errorf("type = %q", env.Type)
	}
	if env.ID == "" {
		t.Error("event id should be set")
	}
	if env.Lead.LeadID != 7 || env.Lead.ClientID != 3 || env.Lead.ClientName != "Alpha Realty" {
		t.Errorf("payload identity fields: %+v", env.Lead)
	}
	if env.Lead.Phone != "5551234567" {
		t.Errorf("phone = %q", env.Lead.Phone)
	}
	if env.Lead.ReceivedAt != "2026-08-14T09:30:00Z" {
		t.Errorf("received_at = %q", env.Lead.ReceivedAt)
	}
}

// TestEnvelope_JSON verifies the wire format and optional-field omission.
func TestEnvelope_JSON(t *testing.T) {
	lead := &models.Lead{ID: 7, ClientID: 3, Name: "Jane Cooper", Email: "jane@example.com"}
	env := NewLeadCreated(lead, &models.Client{ID: 3, Name: "Alpha Realty"})

	payload, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(payload)
	if !strings.Contains(s, `"type":"lead.created"`) {
		t.Errorf("payload missing type: %s", s)
	}
	if strings.Contains(s, `"phone"`) || strings.Contains(s, `"campaign"`) {
		t.Errorf("empty optional fields should be omitted: %s", s)
	}

	var decoded Envelope
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Lead.Name != "Jane Cooper" {
		t.Errorf("round-trip name = %q", decoded.Lead.Name)
	}
}
