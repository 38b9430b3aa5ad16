// Package dedupe remembers which gateway charges were already applied, so a
// redelivered notification is acknowledged without touching the ledger again.
package dedupe

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"enroll/pkg/platform/sentinel"
)

// Store claims keys. Claim returns true for the first caller within the TTL;
// Release lets a failed attempt be retried on redelivery.
type Store interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// Redis shares claims between replicas.
type Redis struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedis(client redis.UniversalClient, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Redis{client: client, prefix: "enroll:webhook:", ttl: ttl}
}

func (r *Redis) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, r.prefix+key, time.Now().UTC().Format(time.RFC3339), r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim %s: %w: %w", key, sentinel.ErrUnavailable, err)
	}
	return ok, nil
}

func (r *Redis) Release(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("release %s: %w: %w", key, sentinel.ErrUnavailable, err)
	}
	return nil
}

// Memory is the single-replica fallback when Redis is not configured.
type Memory struct {
	ttl time.Duration
	now func() time.Time

	mu     sync.Mutex
	claims map[string]time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Memory{ttl: ttl, now: time.Now, claims: map[string]time.Time{}}
}

func (m *Memory) Claim(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for k, expires := range m.claims {
		if !now.Before(expires) {
			delete(m.claims, k)
		}
	}
	if _, ok := m.claims[key]; ok {
		return false, nil
	}
	m.claims[key] = now.Add(m.ttl)
	return true, nil
}

func (m *Memory) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.claims, key)
	return nil
}

// Noop claims every key; the ledger's idempotent mutations absorb duplicates.
type Noop struct{}

func (Noop) Claim(context.Context, string) (bool, error) { return true, nil }
func (Noop) Release(context.Context, string) error       { return nil }
