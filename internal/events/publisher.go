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

// Package events publishes lead lifecycle events to a Redis list so
// downstream CRM integrations (webhooks, analytics, sync jobs) can consume
// them without touching the pipeline's database.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/leadgate/pipeline/internal/models"
)

// Publisher sends lead events to Redis as JSON envelopes.
type Publisher struct {
	rdb       *redis.Client
	queueName string
}

// NewPublisher creates a publisher targeting the specified list.
func NewPublisher(rdb *redis.Client, queueName string) *Publisher {
	return &Publisher{
		rdb:       rdb,
		queueName: queueName,
	}
}

// Envelope is the wire format consumers deserialise.
type Envelope struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Lead       LeadData  `json:"lead"`
}

// LeadData is the lead payload carried by an event.
type LeadData struct {
	LeadID     int64  `json:"lead_id"`
	ClientID   int64  `json:"client_id"`
	ClientName string `json:"client_name"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	Source     string `json:"source"`
	Campaign   string `json:"campaign,omitempty"`
	Subject    string `json:"subject"`
	ReceivedAt string `json:"received_at"`
}

// NewLeadCreated builds the envelope for a freshly created lead.
func NewLeadCreated(lead *models.Lead, client *models.Client) Envelope {
	var phone string
	if lead.Phone != nil {
		phone = *lead.Phone
	}
	return Envelope{
		ID:         uuid.New().String(),
		Type:       "lead.created",
		OccurredAt: time.Now().UTC(),
		Lead: LeadData{
			LeadID:     lead.ID,
			ClientID:   lead.ClientID,
			ClientName: client.Name,
			Name:       lead.Name,
			Email:      lead.Email,
			Phone:      phone,
			Source:     string(lead.Source),
			Campaign:   lead.Campaign,
			Subject:    lead.Subject,
			ReceivedAt: lead.EmailReceivedAt.UTC().Format(time.RFC3339),
		},
	}
}

// PublishLeadCreated serialises the event and pushes it onto the queue.
// Consumers read with BRPOP, so LPUSH keeps FIFO order.
func (p *Publisher) PublishLeadCreated(ctx context.Context, lead *models.Lead, client *models.Client) error {
	env := NewLeadCreated(lead, client)

	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal lead event: %w", err)
	}

	if err := p.rdb.LPush(ctx, p.queueName, payload).Err(); err != nil {
		return fmt.Errorf("redis LPUSH: %w", err)
	}

	slog.Info("published lead event",
		"event_id", env.ID,
		"lead_id", lead.ID,
		"client_id", lead.ClientID,
		"queue", p.queueName,
	)

	return nil
}

// Ping checks the Redis connection.
func (p *Publisher) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return p.rdb.Ping(ctx).Err()
}
