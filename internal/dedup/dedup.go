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

// Package dedup provides message deduplication using a Redis SET with TTL.
// A run that dies after creating leads but before its \Seen flags land
// would otherwise re-process the same messages on restart; the seen filter
// closes that window.
package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultTTL is how long a processed message id is remembered. Unseen
	// messages older than this have long since had their flags persisted.
	DefaultTTL = 7 * 24 * time.Hour

	// keyPrefix namespaces seen-filter keys in Redis.
	keyPrefix = "leadgate:seen:"
)

// Filter tracks which mailbox message ids have already been processed.
type Filter struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewFilter creates a seen filter backed by Redis.
func NewFilter(rdb *redis.Client) *Filter {
	return &Filter{
		rdb: rdb,
		ttl: DefaultTTL,
	}
}

// NewFilterWithTTL creates a seen filter with a custom retention window.
// A non-positive ttl falls back to DefaultTTL.
func NewFilterWithTTL(rdb *redis.Client, ttl time.Duration) *Filter {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Filter{rdb: rdb, ttl: ttl}
}

// IsNew returns true if the message id has NOT been seen before.
// If true, the id is marked as seen atomically (SETNX).
func (f *Filter) IsNew(ctx context.Context, messageID string) (bool, error) {
	key := fmt.Sprintf("%s%s", keyPrefix, messageID)

	// SET NX = set only if key does not exist. Returns true if the key was set.
	set, err := f.rdb.SetNX(ctx, key, 1, f.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedup SETNX: %w", err)
	}

	return set, nil
}
