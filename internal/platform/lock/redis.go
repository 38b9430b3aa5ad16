package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"enroll/pkg/platform/sentinel"
)

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Redis is a Locker shared by every replica. The TTL bounds how long a crashed
// holder blocks others; it must exceed the slowest store round trip.
type Redis struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	retry  time.Duration
}

func NewRedis(client redis.UniversalClient, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Redis{client: client, prefix: "enroll:lock:", ttl: ttl, retry: 50 * time.Millisecond}
}

func (r *Redis) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	ctx, cancel := withDefaultTimeout(ctx, r.ttl)
	defer cancel()

	redisKey := r.prefix + key
	token := uuid.NewString()
	for {
		ok, err := r.client.SetNX(ctx, redisKey, token, r.ttl).Result()
		if err != nil {
			return fmt.Errorf("lock %s: %w: %w", key, sentinel.ErrUnavailable, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("lock %s: %w: %w", key, sentinel.ErrLocked, ctx.Err())
		case <-time.After(r.retry):
		}
	}
	defer func() {
		// release even when the request context is gone
		_ = releaseScript.Run(context.WithoutCancel(ctx), r.client, []string{redisKey}, token).Err()
	}()

	return fn(ctx)
}
