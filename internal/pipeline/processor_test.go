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

package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/leadgate/pipeline/internal/audit"
	"github.com/leadgate/pipeline/internal/models"
	"github.com/leadgate/pipeline/internal/notify"
	"github.com/leadgate/pipeline/internal/rules"
)

type fakeMailbox struct {
	order    []uint32
	messages map[uint32]*models.InboundEmail
	fetchErr map[uint32]error
	seen     map[uint32]bool
}

func (m *fakeMailbox) ListUnseen() ([]uint32, error) { return m.order, nil }

func (m *fakeMailbox) Fetch(uid uint32) (*models.InboundEmail, error) {
	if err, ok := m.fetchErr[uid]; ok {
		return nil, err
	}
	return m.messages[uid], nil
}

func (m *fakeMailbox) MarkSeen(uid uint32) error {
	if m.seen == nil {
		m.seen = map[uint32]bool{}
	}
	m.seen[uid] = true
	return nil
}

type fakeRules struct {
	source   []models.SourceRule
	campaign []models.CampaignRule
}

func (r *fakeRules) ActiveSourceRules(ctx context.Context) ([]models.SourceRule, error) {
	return r.source, nil
}

func (r *fakeRules) ActiveCampaignRules(ctx context.Context) ([]models.CampaignRule, error) {
	return r.campaign, nil
}

type appendCall struct {
	LeadID int64
	Block  string
	Note   string
}

type fakeLeadStore struct {
	existing []models.Lead
	created  []models.Lead
	appended []appendCall
	nextID   int64
}

func (s *fakeLeadStore) FindDuplicateLead(ctx context.Context, clientID int64, name, email string, phone *string) (*models.Lead, error) {
	for i := range s.existing {
		l := &s.existing[i]
		if l.ClientID != clientID || l.Name != name || l.Email != email {
			continue
		}
		if phone == nil {
			if l.Phone == nil {
				return l, nil
			}
			continue
		}
		if l.Phone != nil && *l.Phone == *phone {
			return l, nil
		}
	}
	return nil, nil
}

func (s *fakeLeadStore) CreateLead(ctx context.Context, l *models.Lead) error {
	s.nextID++
	l.ID = s.nextID
	s.created = append(s.created, *l)
	s.existing = append(s.existing, *l)
	return nil
}

func (s *fakeLeadStore) AppendDuplicate(ctx context.Context, leadID int64, block, note string, receivedAt time.Time) error {
	s.appended = append(s.appended, appendCall{LeadID: leadID, Block: block, Note: note})
	return nil
}

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

type captureSink struct {
	mu      sync.Mutex
	entries []models.LogEntry
}

func (s *captureSink) InsertLogEntry(ctx context.Context, entry *models.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *captureSink) count(typ models.LogType, status models.LogStatus) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.entries {
		if e.Type == typ && e.Status == status {
			n++
		}
	}
	return n
}

type notifyCall struct {
	ClientID int64
	LeadID   int64
}

type fakeLeadAlerter struct {
	calls []notifyCall
}

func (a *fakeLeadAlerter) NotifyNewLead(ctx context.Context, client *models.Client, lead *models.Lead) (int, int) {
	a.calls = append(a.calls, notifyCall{ClientID: client.ID, LeadID: lead.ID})
	return 1, 0
}

type fakeAdmin struct {
	processed          []notify.ProcessedSummary
	errors             []string
	ruleNotMatched     int
	duplicates         int
	campaignNotMatched int
}

func (a *fakeAdmin) EmailProcessed(ctx context.Context, s notify.ProcessedSummary) {
	a.processed = append(a.processed, s)
}

func (a *fakeAdmin) EmailError(ctx context.Context, summary string, details map[string]any) {
	a.errors = append(a.errors, summary)
}

func (a *fakeAdmin) RuleNotMatched(ctx context.Context, from, subject string) { a.ruleNotMatched++ }

func (a *fakeAdmin) DuplicateLead(ctx context.Context, clientName string, leadID int64, from string) {
	a.duplicates++
}

func (a *fakeAdmin) CampaignRuleNotMatched(ctx context.Context, from, subject string) {
	a.campaignNotMatched++
}

type harness struct {
	mailbox *fakeMailbox
	leads   *fakeLeadStore
	sink    *captureSink
	notify  *fakeLeadAlerter
	admin   *fakeAdmin
	proc    *Processor
}

func newHarness(mb *fakeMailbox, dir *fakeDirectory, rs *fakeRules, leads *fakeLeadStore, defaultClientID int64) *harness {
	sink := &captureSink{}
	rec := audit.NewRecorder(sink)
	alerter := &fakeLeadAlerter{}
	admin := &fakeAdmin{}
	proc := New(Config{
		Mailbox:  mb,
		Rules:    rs,
		Leads:    leads,
		Resolver: rules.NewResolver(dir, rec, defaultClientID),
		Audit:    rec,
		Notify:   alerter,
		Admin:    admin,
	})
	return &harness{mailbox: mb, leads: leads, sink: sink, notify: alerter, admin: admin, proc: proc}
}

func zillowEmail() *models.InboundEmail {
	return &models.InboundEmail{
		MessageID:   "1",
		FromAddress: "convo@zillow.com",
		FromName:    "Zillow",
		Subject:     "New Inquiry from Zillow",
		TextBody:    "Name: Jane Cooper\nPhone: 555-123-4567\nEmail: jane@example.com\nInterested in 42 Oak Ave",
		Date:        time.Date(2026, 8, 14, 9, 30, 0, 0, time.UTC),
	}
}

func zillowDirectory() *fakeDirectory {
	return &fakeDirectory{
		rules: []models.RoutingRule{
			{ID: 1, ClientID: 10, Kind: models.RouteEmailMatch, Email: "convo@zillow.com", IsActive: true},
			{ID: 2, ClientID: 20, Kind: models.RouteEmailMatch, Email: "@zillow.com", IsActive: true},
		},
		clients: []models.Client{
			{ID: 10, Name: "Alpha Realty"},
			{ID: 20, Name: "Beta Homes"},
		},
	}
}

// TestRun_CreatesLeadForEveryMatchedClient verifies the multi-client path:
// one message, two matching rules, two leads, one consolidated alert.
func TestRun_CreatesLeadForEveryMatchedClient(t *testing.T) {
	mb := &fakeMailbox{order: []uint32{1}, messages: map[uint32]*models.InboundEmail{1: zillowEmail()}}
	h := newHarness(mb, zillowDirectory(), &fakeRules{}, &fakeLeadStore{}, 0)

	res, err := h.proc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Created != 2 || res.Merged != 0 || res.Errors != 0 {
		t.Fatalf("result = %+v, want 2 created", res)
	}

	if len(h.leads.created) != 2 {
		t.Fatalf("created %d leads, want 2", len(h.leads.created))
	}
	for _, l := range h.leads.created {
		if l.Name != "Jane Cooper" {
			t.Errorf("lead name = %q", l.Name)
		}
		if l.Email != "jane@example.com" {
			t.Errorf("lead email = %q", l.Email)
		}
		if l.Phone == nil || *l.Phone != "5551234567" {
			t.Errorf("lead phone = %v", l.Phone)
		}
		if l.Status != models.StatusNew {
			t.Errorf("lead status = %q", l.Status)
		}
	}
	if h.leads.created[0].ClientID == h.leads.created[1].ClientID {
		t.Error("leads should belong to different clients")
	}

	if len(h.notify.calls) != 2 {
		t.Errorf("lead notifications = %d, want 2", len(h.notify.calls))
	}
	if len(h.admin.processed) != 1 {
		t.Fatalf("processed alerts = %d, want 1", len(h.admin.processed))
	}
	if s := h.admin.processed[0]; s.Created != 2 || s.Clients != 2 {
		t.Errorf("summary = %+v", s)
	}
	if !mb.seen[1] {
		t.Error("message should be marked seen")
	}
	if got := h.sink.count(models.LogLeadCreated, models.LogSuccess); got != 2 {
		t.Errorf("lead_created entries = %d, want 2", got)
	}
}

// TestRun_AutomatedSenderSkipped verifies machine mail produces zero leads,
// one skipped email-received entry, and no error entries.
func TestRun_AutomatedSenderSkipped(t *testing.T) {
	email := zillowEmail()
	email.FromAddress = "noreply@zillow.com"
	mb := &fakeMailbox{order: []uint32{1}, messages: map[uint32]*models.InboundEmail{1: email}}
	h := newHarness(mb, zillowDirectory(), &fakeRules{}, &fakeLeadStore{}, 0)

	res, err := h.proc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Created != 0 || res.Skipped != 1 {
		t.Errorf("result = %+v, want 1 skipped", res)
	}
	if got := h.sink.count(models.LogEmailReceived, models.LogSkipped); got != 1 {
		t.Errorf("skipped email_received entries = %d, want 1", got)
	}
	if got := h.sink.count(models.LogError, models.LogFailed); got != 0 {
		t.Errorf("error entries = %d, want 0", got)
	}
	if !mb.seen[1] {
		t.Error("skipped message should still be marked seen")
	}
}

// TestRun_DuplicateMerged verifies a repeat submission appends to the
// existing lead instead of creating a new one, and does not re-notify.
func TestRun_DuplicateMerged(t *testing.T) {
	phone := "5551234567"
	store := &fakeLeadStore{
		existing: []models.Lead{
			{ID: 99, ClientID: 10, Name: "Jane Cooper", Email: "jane@example.com", Phone: &phone},
		},
		nextID: 99,
	}
	dir := &fakeDirectory{
		rules: []models.RoutingRule{
			{ID: 1, ClientID: 10, Kind: models.RouteEmailMatch, Email: "convo@zillow.com", IsActive: true},
		},
		clients: []models.Client{{ID: 10, Name: "Alpha Realty"}},
	}
	mb := &fakeMailbox{order: []uint32{1}, messages: map[uint32]*models.InboundEmail{1: zillowEmail()}}
	h := newHarness(mb, dir, &fakeRules{}, store, 0)

	res, err := h.proc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Created != 0 || res.Merged != 1 {
		t.Fatalf("result = %+v, want 1 merged", res)
	}
	if len(store.appended) != 1 {
		t.Fatalf("appends = %d, want 1", len(store.appended))
	}
	call := store.appended[0]
	if call.LeadID != 99 {
		t.Errorf("appended to lead %d, want 99", call.LeadID)
	}
	if !strings.Contains(call.Block, DuplicateMarker) {
		t.Errorf("block missing duplicate marker: %q", call.Block)
	}
	if !strings.Contains(call.Note, "Duplicate submission received.") {
		t.Errorf("note = %q", call.Note)
	}

	if len(h.notify.calls) != 0 {
		t.Error("merges must not trigger lead notifications")
	}
	if h.admin.duplicates != 1 {
		t.Errorf("duplicate alerts = %d, want 1", h.admin.duplicates)
	}
	if got := h.sink.count(models.LogLeadDuplicate, models.LogSkipped); got != 1 {
		t.Errorf("lead_duplicate entries = %d, want 1", got)
	}
	if len(h.admin.processed) != 1 || h.admin.processed[0].Merged != 1 {
		t.Errorf("processed summary = %+v", h.admin.processed)
	}
}

// TestRun_DuplicatePerClient verifies dedup is scoped per client: the same
// message merges for one client and creates for another.
func TestRun_DuplicatePerClient(t *testing.T) {
	phone := "5551234567"
	store := &fakeLeadStore{
		existing: []models.Lead{
			{ID: 99, ClientID: 10, Name: "Jane Cooper", Email: "jane@example.com", Phone: &phone},
		},
		nextID: 99,
	}
	mb := &fakeMailbox{order: []uint32{1}, messages: map[uint32]*models.InboundEmail{1: zillowEmail()}}
	h := newHarness(mb, zillowDirectory(), &fakeRules{}, store, 0)

	res, err := h.proc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Created != 1 || res.Merged != 1 {
		t.Fatalf("result = %+v, want 1 created and 1 merged", res)
	}
	if len(store.created) != 1 || store.created[0].ClientID != 20 {
		t.Errorf("created = %+v, want one lead for client 20", store.created)
	}
}

// TestRun_MissingSenderRejected verifies the hard-reject path writes an
// error entry and alerts staff without producing a lead.
func TestRun_MissingSenderRejected(t *testing.T) {
	email := zillowEmail()
	email.FromAddress = ""
	mb := &fakeMailbox{order: []uint32{1}, messages: map[uint32]*models.InboundEmail{1: email}}
	h := newHarness(mb, zillowDirectory(), &fakeRules{}, &fakeLeadStore{}, 0)

	res, err := h.proc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Created != 0 {
		t.Errorf("created = %d, want 0", res.Created)
	}
	if got := h.sink.count(models.LogError, models.LogFailed); got != 1 {
		t.Errorf("error entries = %d, want 1", got)
	}
	if len(h.admin.errors) != 1 {
		t.Errorf("admin error alerts = %d, want 1", len(h.admin.errors))
	}
	if !mb.seen[1] {
		t.Error("rejected message should still be marked seen")
	}
}

// TestRun_NoClientMatched verifies the unroutable path: no lead, a
// rule-not-matched alert, no crash.
func TestRun_NoClientMatched(t *testing.T) {
	email := zillowEmail()
	email.FromAddress = "jane@elsewhere.net"
	dir := &fakeDirectory{clients: []models.Client{{ID: 10, Name: "Alpha Realty"}}}
	mb := &fakeMailbox{order: []uint32{1}, messages: map[uint32]*models.InboundEmail{1: email}}
	h := newHarness(mb, dir, &fakeRules{}, &fakeLeadStore{}, 0)

	res, err := h.proc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Created != 0 {
		t.Errorf("created = %d, want 0", res.Created)
	}
	if h.admin.ruleNotMatched != 1 {
		t.Errorf("rule-not-matched alerts = %d, want 1", h.admin.ruleNotMatched)
	}
	if len(h.admin.processed) != 0 {
		t.Error("no processed alert without leads")
	}
}

// TestRun_DefaultClientFallback verifies unmatched mail lands on the
// configured default client and the summary says so.
func TestRun_DefaultClientFallback(t *testing.T) {
	email := zillowEmail()
	email.FromAddress = "jane@elsewhere.net"
	dir := &fakeDirectory{clients: []models.Client{{ID: 10, Name: "Alpha Realty"}}}
	mb := &fakeMailbox{order: []uint32{1}, messages: map[uint32]*models.InboundEmail{1: email}}
	h := newHarness(mb, dir, &fakeRules{}, &fakeLeadStore{}, 10)

	res, err := h.proc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Created != 1 {
		t.Fatalf("created = %d, want 1", res.Created)
	}
	if len(h.admin.processed) != 1 || !h.admin.processed[0].UsedDefault {
		t.Errorf("summary should report default-client use: %+v", h.admin.processed)
	}
}

// TestRun_FetchFailureIsolated verifies one unfetchable message does not
// stop the batch.
func TestRun_FetchFailureIsolated(t *testing.T) {
	mb := &fakeMailbox{
		order:    []uint32{1, 2},
		messages: map[uint32]*models.InboundEmail{2: zillowEmail()},
		fetchErr: map[uint32]error{1: errors.New("connection reset")},
	}
	h := newHarness(mb, zillowDirectory(), &fakeRules{}, &fakeLeadStore{}, 0)

	res, err := h.proc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Errors != 1 || res.Created != 2 {
		t.Errorf("result = %+v, want 1 error and 2 created", res)
	}
	if !mb.seen[1] || !mb.seen[2] {
		t.Error("both messages should be marked seen")
	}
}

// TestRun_Classification verifies source and campaign rules stamp the
// created lead, and a configured-but-unmatched campaign set alerts staff.
func TestRun_Classification(t *testing.T) {
	rs := &fakeRules{
		source: []models.SourceRule{
			{ID: 1, Type: models.MatchDomain, Field: models.FieldFromDomain, Value: "zillow.com", Source: models.SourceReferral, Priority: 10, IsActive: true},
		},
		campaign: []models.CampaignRule{
			{ID: 1, Type: models.MatchContains, Field: models.FieldBody, Value: "spring promo", Campaign: "Spring", Priority: 10, IsActive: true},
		},
	}
	mb := &fakeMailbox{order: []uint32{1}, messages: map[uint32]*models.InboundEmail{1: zillowEmail()}}
	h := newHarness(mb, zillowDirectory(), rs, &fakeLeadStore{}, 0)

	if _, err := h.proc.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(h.leads.created) == 0 {
		t.Fatal("expected created leads")
	}
	if got := h.leads.created[0].Source; got != models.SourceReferral {
		t.Errorf("source = %s, want referral", got)
	}
	if got := h.leads.created[0].Campaign; got != "" {
		t.Errorf("campaign = %q, want empty", got)
	}
	if h.admin.campaignNotMatched != 1 {
		t.Errorf("campaign-not-matched alerts = %d, want 1", h.admin.campaignNotMatched)
	}
}

// TestRun_LegacySourceFallback verifies the keyword heuristic applies when
// no source rule matches.
func TestRun_LegacySourceFallback(t *testing.T) {
	mb := &fakeMailbox{order: []uint32{1}, messages: map[uint32]*models.InboundEmail{1: zillowEmail()}}
	h := newHarness(mb, zillowDirectory(), &fakeRules{}, &fakeLeadStore{}, 0)

	if _, err := h.proc.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Subject "New Inquiry from Zillow" hits the website keyword heuristic.
	if got := h.leads.created[0].Source; got != models.SourceWebsite {
		t.Errorf("source = %s, want website", got)
	}
}
