package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"fuelrecon-backend/internal/logger"
)

// Locker keeps a job from running on two instances at once.
type Locker interface {
	// Acquire returns ok=false without error when another instance holds the key.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

type redisLocker struct {
	client *redislock.Client
}

func NewRedisLocker(rdb *redis.Client) Locker {
	return &redisLocker{client: redislock.New(rdb)}
}

func (l *redisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	lock, err := l.client.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	release := func() {
		if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			logger.Warn("Failed to release job lock", "key", key, "error", err)
		}
	}
	return release, true, nil
}
