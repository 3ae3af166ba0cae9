package infrastructure

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adsimport/internal/domain"
	"adsimport/pkg/logger"
)

// newTestRedisLocker requires a running Redis on localhost and skips
// otherwise.
func newTestRedisLocker(t *testing.T) *RedisLocker {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	client, err := OpenRedis(ctx, "localhost:6379", "", 0)
	if err != nil {
		t.Skip("Skipping Redis integration test: redis not available")
	}
	t.Cleanup(func() { client.Close() })
	return NewRedisLocker(client, 5*time.Second, logger.Discard())
}

func TestRedisLocker_LockAndRelease(t *testing.T) {
	locker := newTestRedisLocker(t)
	key := "adsimport:test:" + t.Name()

	unlock, err := locker.Lock(context.Background(), key)
	require.NoError(t, err)
	unlock()

	unlock, err = locker.Lock(context.Background(), key)
	require.NoError(t, err)
	unlock()
}

func TestRedisLocker_HeldKeyTimesOut(t *testing.T) {
	locker := newTestRedisLocker(t)
	key := "adsimport:test:" + t.Name()

	unlock, err := locker.Lock(context.Background(), key)
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err = locker.Lock(ctx, key)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrLockNotAcquired))
}

func TestRedisLocker_ReleaseKeepsForeignToken(t *testing.T) {
	locker := newTestRedisLocker(t)
	key := "adsimport:test:" + t.Name()
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, key)
	require.NoError(t, err)

	// Simulate expiry followed by another owner taking the key.
	require.NoError(t, locker.client.Set(ctx, key, "other-owner", time.Second).Err())
	unlock()

	val, err := locker.client.Get(ctx, key).Result()
	require.NoError(t, err)
	assert.Equal(t, "other-owner", val)
	require.NoError(t, locker.client.Del(ctx, key).Err())
}
