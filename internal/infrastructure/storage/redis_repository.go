package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"FeedNotifier/internal/domain"
	"FeedNotifier/internal/ports"
)

// DefaultRedisKey holds processed identities scored by first-mark time.
const DefaultRedisKey = "feednotifier:processed"

// RedisRepository keeps processed identities in a Redis sorted set.
// Marks are acknowledged after the server applies them; durability across a
// Redis restart requires appendonly with appendfsync always.
type RedisRepository struct {
	client redis.UniversalClient
	key    string
	now    func() time.Time
}

var (
	_ ports.ProcessedStore = (*RedisRepository)(nil)
	_ ports.Pruner         = (*RedisRepository)(nil)
)

// NewRedisRepository wires a go-redis client and the sorted-set key.
func NewRedisRepository(client redis.UniversalClient, key string) *RedisRepository {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisRepository{client: client, key: key, now: time.Now}
}

// Init verifies connectivity; the key is created lazily on first mark.
func (r *RedisRepository) Init(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

// HasSeen reports whether the identity is a member of the set.
func (r *RedisRepository) HasSeen(ctx context.Context, id domain.Identity) (bool, error) {
	err := r.client.ZScore(ctx, r.key, string(id)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("zscore: %w", err)
	}
	return true, nil
}

// MarkSeen adds the identity; NX keeps the first mark time on repeats.
func (r *RedisRepository) MarkSeen(ctx context.Context, id domain.Identity) error {
	member := redis.Z{Score: float64(r.now().Unix()), Member: string(id)}
	if err := r.client.ZAddNX(ctx, r.key, member).Err(); err != nil {
		return fmt.Errorf("zadd: %w", err)
	}
	return nil
}

// Prune removes identities first marked before olderThan.
func (r *RedisRepository) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	upper := "(" + strconv.FormatInt(olderThan.Unix(), 10)
	removed, err := r.client.ZRemRangeByScore(ctx, r.key, "-inf", upper).Result()
	if err != nil {
		return 0, fmt.Errorf("zremrangebyscore: %w", err)
	}
	return removed, nil
}
