// Package lock guards batch runs so only one writer touches the store at a time.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL bounds how long a crashed run can hold the lock.
const DefaultTTL = 30 * time.Minute

// ErrLocked is returned when another run holds the lock.
var ErrLocked = errors.New("another run holds the lock")

// Locker acquires a named run lock. The returned release func is safe to call once.
type Locker interface {
	Acquire(ctx context.Context, name string) (release func(context.Context) error, err error)
}

// releaseScript deletes the key only when it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLock is a Locker backed by SET NX PX.
type RedisLock struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisLock creates a lock using client. A non-positive ttl uses DefaultTTL.
func NewRedisLock(client *redis.Client, ttl time.Duration) *RedisLock {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisLock{client: client, prefix: "landsync:lock:", ttl: ttl}
}

// Acquire takes the lock or returns ErrLocked.
func (l *RedisLock) Acquire(ctx context.Context, name string) (func(context.Context) error, error) {
	key := l.prefix + name
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", name, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, name)
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("failed to release lock %s: %w", name, err)
		}
		return nil
	}
	return release, nil
}

// Ping checks the Redis connection.
func (l *RedisLock) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// NoopLock always succeeds. It is used when Redis is not configured.
type NoopLock struct{}

// Acquire returns a release func that does nothing.
func (NoopLock) Acquire(context.Context, string) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}
