package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/fxconvert/pkg/repository"
	"github.com/redis/go-redis/v9"
)

const lastFetchKey = "rates:last_fetch"

// RedisTimestampStore keeps the last fetch time in Redis so that every
// instance sharing the rate table agrees on freshness.
type RedisTimestampStore struct {
	client redis.UniversalClient
	prefix string
	logger *slog.Logger
}

// NewRedisTimestampStore creates a store on client; keys are prefixed with prefix.
func NewRedisTimestampStore(client redis.UniversalClient, prefix string, logger *slog.Logger) *RedisTimestampStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisTimestampStore{client: client, prefix: prefix, logger: logger}
}

func (r *RedisTimestampStore) key() string {
	return r.prefix + lastFetchKey
}

// Get implements repository.TimestampStore.
func (r *RedisTimestampStore) Get(ctx context.Context) (int64, error) {
	val, err := r.client.Get(ctx, r.key()).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil // never fetched
	}
	if err != nil {
		r.logger.Error("Redis get last fetch error", "key", r.key(), "error", err)
		return 0, err
	}
	ts, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		r.logger.Error("Redis parse last fetch error", "key", r.key(), "value", val, "error", err)
		return 0, fmt.Errorf("parse last fetch %q: %w", val, err)
	}
	return ts.UnixMilli(), nil
}

// Set implements repository.TimestampStore.
func (r *RedisTimestampStore) Set(ctx context.Context, ms int64) error {
	val := time.UnixMilli(ms).UTC().Format(time.RFC3339Nano)
	if err := r.client.Set(ctx, r.key(), val, 0).Err(); err != nil {
		r.logger.Error("Redis set last fetch error", "key", r.key(), "error", err)
		return err
	}
	r.logger.Debug("Redis set last fetch", "key", r.key(), "timestamp", val)
	return nil
}

var _ repository.TimestampStore = (*RedisTimestampStore)(nil)
