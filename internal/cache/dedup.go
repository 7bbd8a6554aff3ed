// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// dedup.go provides a Valkey-backed first-seen marker. SETNX answers "has
// this key been seen inside the TTL window" in one round trip, which lets
// the analytics gate skip the database for repeat page views. It is an
// optimization only: a cold or unreachable Valkey just means the caller
// falls back to its authoritative check.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const dedupKeyPrefix = "seen:"

// Dedup marks keys as seen with an expiry.
type Dedup struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDedup creates a Dedup marker with the given TTL per key.
func NewDedup(client *redis.Client, ttl time.Duration) *Dedup {
	return &Dedup{client: client, ttl: ttl}
}

// FirstSeen atomically marks the key and reports whether this call was the
// first to do so within the TTL window.
func (d *Dedup) FirstSeen(ctx context.Context, key string) (bool, error) {
	return d.client.SetNX(ctx, dedupKeyPrefix+key, "1", d.ttl).Result()
}

// Forget drops the marker, letting the next FirstSeen succeed again. The
// analytics gate calls it when a visit insert fails after the marker was
// already set, so the event is not lost to the dedup window.
func (d *Dedup) Forget(ctx context.Context, key string) error {
	return d.client.Del(ctx, dedupKeyPrefix+key).Err()
}
