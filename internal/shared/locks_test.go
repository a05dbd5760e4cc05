package shared

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestLockerAcquireRelease(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() {
		_ = client.Close()
		mr.Close()
	}()
	locker := NewLocker(client, time.Minute)
	ctx := context.Background()
	key := PeriodCloseLockKey(2025, 6)

	release, err := locker.Acquire(ctx, key)
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, key)
	require.ErrorIs(t, err, ErrLockHeld)

	release()

	release, err = locker.Acquire(ctx, key)
	require.NoError(t, err)
	release()
}

func TestNilLockerGrants(t *testing.T) {
	var locker *Locker
	release, err := locker.Acquire(context.Background(), "anything")
	require.NoError(t, err)
	release()
}
