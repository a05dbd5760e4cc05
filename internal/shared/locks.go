package shared

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrLockHeld reports a critical section already in progress elsewhere.
var ErrLockHeld = errors.New("lock already held")

// Locker serialises cross-process critical sections through redis. A nil
// Locker grants every request; single-instance deployments rely on the
// database row locks alone.
type Locker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLocker constructs a Locker. The ttl bounds how long a crashed holder
// can block others.
func NewLocker(client *redis.Client, ttl time.Duration) *Locker {
	return &Locker{client: client, ttl: ttl}
}

// Acquire takes the named lock and returns its release function.
func (l *Locker) Acquire(ctx context.Context, key string) (func(), error) {
	if l == nil || l.client == nil {
		return func() {}, nil
	}
	ok, err := l.client.SetNX(ctx, key, "1", l.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockHeld
	}
	return func() {
		_ = l.client.Del(context.WithoutCancel(ctx), key).Err()
	}, nil
}

// PeriodCloseLockKey guards the close of one fiscal period.
func PeriodCloseLockKey(year, month int) string {
	return fmt.Sprintf("ledger:period:%d-%02d:close", year, month)
}
