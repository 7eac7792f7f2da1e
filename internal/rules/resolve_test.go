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
	"testing"

	"github.com/leadgate/pipeline/internal/audit"
	"github.com/leadgate/pipeline/internal/models"
)

type fakeDirectory struct {
	rules   []models.RoutingRule
	clients []models.Client
}

func (d *fakeDirectory) ActiveRoutingRules(ctx context.Context) ([]models.RoutingRule, error) {
	return d.rules, nil
}

func (d *fakeDirectory) Clients(ctx context.Context) ([]models.Client, error) {
	return d.clients, nil
}

type nopSink struct{}

func (nopSink) InsertLogEntry(ctx context.Context, entry *models.LogEntry) error { return nil }

func testRecorder() *audit.Recorder {
	return audit.NewRecorder(nopSink{})
}

// TestResolve_AllMatchesKept verifies routing is not first-match-wins: one
// email matched by rules for two clients yields both.
func TestResolve_AllMatchesKept(t *testing.T) {
	dir := &fakeDirectory{
		rules: []models.RoutingRule{
			{ID: 1, ClientID: 10, Kind: models.RouteEmailMatch, Email: "convo@zillow.com", IsActive: true},
			{ID: 2, ClientID: 20, Kind: models.RouteEmailMatch, Email: "@zillow.com", IsActive: true},
		},
		clients: []models.Client{{ID: 10, Name: "Alpha Realty"}, {ID: 20, Name: "Beta Homes"}},
	}
	r := NewResolver(dir, testRecorder(), 0)

	matches, err := r.Resolve(context.Background(), models.MatchableEmail{FromAddress: "convo@zillow.com"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	if matches[0].Client.ID != 10 || matches[1].Client.ID != 20 {
		t.Errorf("unexpected match order: %d, %d", matches[0].Client.ID, matches[1].Client.ID)
	}
}

// TestResolve_DedupByClient verifies a client matched by multiple rules
// appears once, attributed to the first rule that hit.
func TestResolve_DedupByClient(t *testing.T) {
	dir := &fakeDirectory{
		rules: []models.RoutingRule{
			{ID: 1, ClientID: 10, Kind: models.RouteEmailMatch, Email: "convo@zillow.com", IsActive: true},
			{ID: 2, ClientID: 10, Kind: models.RouteEmailMatch, Email: "@zillow.com", IsActive: true},
		},
		clients: []models.Client{{ID: 10, Name: "Alpha Realty"}},
	}
	r := NewResolver(dir, testRecorder(), 0)

	matches, err := r.Resolve(context.Background(), models.MatchableEmail{FromAddress: "convo@zillow.com"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}
	if matches[0].Rule == nil || matches[0].Rule.ID != 1 {
		t.Error("expected attribution to the exact-address rule from pass 1")
	}
}

// TestResolve_CombinedRule verifies both the address and the condition must
// hold for combined rules.
func TestResolve_CombinedRule(t *testing.T) {
	dir := &fakeDirectory{
		rules: []models.RoutingRule{
			{ID: 1, ClientID: 10, Kind: models.RouteCombined, Email: "@zillow.com", Condition: "oak avenue", IsActive: true},
		},
		clients: []models.Client{{ID: 10, Name: "Alpha Realty"}},
	}
	r := NewResolver(dir, testRecorder(), 0)

	email := models.MatchableEmail{FromAddress: "a@zillow.com", Body: "Inquiry about Oak Avenue listing"}
	matches, err := r.Resolve(context.Background(), email)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}

	email.Body = "Inquiry about Elm Street listing"
	matches, err = r.Resolve(context.Background(), email)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("got %d matches, want 0 when the condition fails", len(matches))
	}
}

// TestResolve_InactiveRuleIgnored verifies inactive routing rules never
// contribute matches.
func TestResolve_InactiveRuleIgnored(t *testing.T) {
	dir := &fakeDirectory{
		rules: []models.RoutingRule{
			{ID: 1, ClientID: 10, Kind: models.RouteEmailMatch, Email: "a@b.com", IsActive: false},
		},
		clients: []models.Client{{ID: 10}},
	}
	r := NewResolver(dir, testRecorder(), 0)

	matches, err := r.Resolve(context.Background(), models.MatchableEmail{FromAddress: "a@b.com"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("got %d matches, want 0", len(matches))
	}
}

// TestResolve_DomainFallback verifies the naive domain fallback fires only
// when no rule matched.
func TestResolve_DomainFallback(t *testing.T) {
	dir := &fakeDirectory{
		clients: []models.Client{
			{ID: 10, Name: "Alpha Realty", Email: "office@alpharealty.com"},
			{ID: 20, Name: "Beta Homes", Email: "office@betahomes.com"},
		},
	}
	r := NewResolver(dir, testRecorder(), 0)

	matches, err := r.Resolve(context.Background(), models.MatchableEmail{FromAddress: "agent@alpharealty.com"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(matches) != 1 || matches[0].Client.ID != 10 {
		t.Fatalf("expected domain fallback to client 10, got %+v", matches)
	}
	if matches[0].Via != ViaDomainFallback {
		t.Errorf("via = %q, want %q", matches[0].Via, ViaDomainFallback)
	}
}

// TestResolve_DefaultClient verifies the configured default client is the
// last resort and is reported by UsedDefault.
func TestResolve_DefaultClient(t *testing.T) {
	dir := &fakeDirectory{
		clients: []models.Client{{ID: 10, Name: "Alpha Realty", Email: "office@alpharealty.com"}},
	}
	r := NewResolver(dir, testRecorder(), 10)

	matches, err := r.Resolve(context.Background(), models.MatchableEmail{FromAddress: "someone@elsewhere.net"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(matches) != 1 || matches[0].Via != ViaDefaultClient {
		t.Fatalf("expected default-client match, got %+v", matches)
	}
	if !UsedDefault(matches) {
		t.Error("UsedDefault should report true")
	}
}

// TestResolve_NoMatchNoDefault verifies the empty result when nothing
// claims the email.
func TestResolve_NoMatchNoDefault(t *testing.T) {
	dir := &fakeDirectory{
		clients: []models.Client{{ID: 10, Email: "office@alpharealty.com"}},
	}
	r := NewResolver(dir, testRecorder(), 0)

	matches, err := r.Resolve(context.Background(), models.MatchableEmail{FromAddress: "someone@elsewhere.net"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("got %d matches, want 0", len(matches))
	}
	if UsedDefault(matches) {
		t.Error("UsedDefault should report false for an empty result")
	}
}

// TestMatchRouting_AddressPatterns verifies exact vs @domain semantics.
func TestMatchRouting_AddressPatterns(t *testing.T) {
	tests := []struct {
		pattern string
		from    string
		want    bool
	}{
		{"convo@zillow.com", "Convo@Zillow.com", true},
		{"convo@zillow.com", "other@zillow.com", false},
		{"@zillow.com", "anyone@zillow.com", true},
		{"@zillow.com", "anyone@notzillow.org", false},
	}
	for _, tt := range tests {
		rule := models.RoutingRule{Kind: models.RouteEmailMatch, Email: tt.pattern, IsActive: true}
		email := models.MatchableEmail{FromAddress: tt.from}
		if got := MatchRouting(&rule, email); got != tt.want {
			t.Errorf("pattern %q vs %q = %v, want %v", tt.pattern, tt.from, got, tt.want)
		}
	}
}
