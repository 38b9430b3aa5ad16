// Package lock serializes mutations of one registrant across concurrent requests.
package lock

import (
	"context"
	"time"
)

// Locker runs fn while holding the lock for key. Implementations wrap
// sentinel.ErrLocked when the lock cannot be acquired before ctx ends.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// defaultLockTimeout bounds acquisition plus work when the caller set no deadline.
const defaultLockTimeout = 15 * time.Second

func withDefaultTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	if timeout <= 0 {
		timeout = defaultLockTimeout
	}
	return context.WithTimeout(ctx, timeout)
}
