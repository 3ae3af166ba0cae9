package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"adsimport/internal/domain"
	"adsimport/pkg/logger"
)

// releaseScript deletes the lock only when it still holds our token.
// KEYS[1] = lock key
// ARGV[1] = owner token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`)

const defaultLockRetry = 50 * time.Millisecond

// RedisLocker implements domain.Locker with SET NX PX so that several
// service replicas serialize the read-merge-write cycle.
type RedisLocker struct {
	client redis.UniversalClient
	ttl    time.Duration
	retry  time.Duration
	logger *logger.Logger
}

func NewRedisLocker(client redis.UniversalClient, ttl time.Duration, logger *logger.Logger) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl, retry: defaultLockRetry, logger: logger}
}

// OpenRedis connects and pings a Redis client.
func OpenRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, eris.Wrap(err, "redis: ping")
	}
	return client, nil
}

// Lock polls until the key is acquired or ctx ends. A ctx that ends while
// the key is held by someone else yields domain.ErrLockNotAcquired.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("redis: lock %s: %w", key, domain.ErrLockNotAcquired)
			}
			return nil, eris.Wrap(err, "redis: acquire lock")
		}
		if ok {
			return l.unlocker(key, token), nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("redis: lock %s: %w", key, domain.ErrLockNotAcquired)
		case <-time.After(l.retry):
		}
	}
}

func (l *RedisLocker) unlocker(key, token string) func() {
	return func() {
		// The caller's ctx may already be done; release on a fresh one.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			l.logger.WithError(err).WithField("key", key).Warn("Failed to release merge lock")
		}
	}
}
