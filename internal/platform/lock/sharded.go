package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"enroll/pkg/platform/sentinel"
)

// numShards trades memory for contention; keys hash onto shards with FNV-1a.
const numShards = 128

// Sharded is an in-process Locker. Distinct keys may share a shard, which only
// costs throughput.
type Sharded struct {
	shards  [numShards]chan struct{}
	timeout time.Duration
	once    sync.Once
}

func NewSharded(timeout time.Duration) *Sharded {
	s := &Sharded{timeout: timeout}
	s.init()
	return s
}

func (s *Sharded) init() {
	s.once.Do(func() {
		for i := range s.shards {
			s.shards[i] = make(chan struct{}, 1)
		}
	})
}

func (s *Sharded) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	s.init()
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("lock %s: %w: %w", key, sentinel.ErrLocked, err)
	}
	ctx, cancel := withDefaultTimeout(ctx, s.timeout)
	defer cancel()

	shard := s.shards[hashKey(key)%numShards]
	select {
	case shard <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("lock %s: %w: %w", key, sentinel.ErrLocked, ctx.Err())
	}
	defer func() { <-shard }()

	return fn(ctx)
}

// hashKey is FNV-1a.
func hashKey(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}
