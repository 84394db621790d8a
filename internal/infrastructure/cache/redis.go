package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/advancehq/steward/internal/infrastructure/logging"
)

const (
	// priorityKeyPrefix namespaces the per-organization priority rankings.
	// one sorted set per organization keeps the leaderboards independent.
	priorityKeyPrefix = "steward:priority:"

	// default connection timeout
	defaultConnectTimeout = 10 * time.Second
)

var (
	ErrRedisNotConnected = errors.New("redis not connected")
	ErrRedisEmpty        = errors.New("redis leaderboard is empty")
)

// RedisConfig holds configuration for Redis connection.
type RedisConfig struct {
	URL string
}

// RedisClient wraps the go-redis client with the priority leaderboard
// operations. postgres remains the source of truth, redis serves reads.
type RedisClient struct {
	client *redis.Client
	logger *logging.Logger
}

// NewRedisClient creates a new Redis client from the config.
// returns nil if the URL is empty (redis disabled).
func NewRedisClient(cfg RedisConfig, logger *logging.Logger) (*RedisClient, error) {
	if cfg.URL == "" {
		logger.Info("redis disabled: no REDIS_URL configured")
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	opts.DialTimeout = defaultConnectTimeout
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.PoolSize = 100
	opts.MinIdleConns = 10

	client := redis.NewClient(opts)

	rc := &RedisClient{
		client: client,
		logger: logger.WithComponent("redis"),
	}

	return rc, nil
}

// priorityKey builds the sorted set key for one organization.
func priorityKey(organizationID string) string {
	return priorityKeyPrefix + organizationID
}

// Connect tests the connection to Redis.
func (r *RedisClient) Connect(ctx context.Context) error {
	if r.client == nil {
		return ErrRedisNotConnected
	}

	ctx, cancel := context.WithTimeout(ctx, defaultConnectTimeout)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}

	r.logger.Info("redis connected")
	return nil
}

// Close closes the Redis connection.
func (r *RedisClient) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

// Client returns the underlying redis client.
// exposed for advanced usage, but prefer using the wrapped methods.
func (r *RedisClient) Client() *redis.Client {
	return r.client
}

// UpdatePriorityScore upserts a constituent's priority score in the
// organization's ranking.
func (r *RedisClient) UpdatePriorityScore(ctx context.Context, organizationID, constituentID string, score float64) error {
	if r.client == nil {
		return ErrRedisNotConnected
	}

	err := r.client.ZAdd(ctx, priorityKey(organizationID), redis.Z{
		Score:  score,
		Member: constituentID,
	}).Err()

	if err != nil {
		r.logger.Error("failed to update priority ranking",
			"organization_id", organizationID,
			"constituent_id", constituentID,
			"score", score,
			"error", err.Error(),
		)
		return fmt.Errorf("zadd failed: %w", err)
	}

	r.logger.Debug("priority ranking updated",
		"organization_id", organizationID,
		"constituent_id", constituentID,
		"score", score,
	)

	return nil
}

// TopConstituents returns constituent ids ordered by priority score
// (descending). ids only, use these to fetch full rows from postgres.
func (r *RedisClient) TopConstituents(ctx context.Context, organizationID string, limit, offset int64) ([]string, error) {
	if r.client == nil {
		return nil, ErrRedisNotConnected
	}

	start := offset
	stop := offset + limit - 1

	members, err := r.client.ZRevRange(ctx, priorityKey(organizationID), start, stop).Result()
	if err != nil {
		r.logger.Error("failed to get top constituents",
			"organization_id", organizationID,
			"limit", limit,
			"offset", offset,
			"error", err.Error(),
		)
		return nil, fmt.Errorf("zrevrange failed: %w", err)
	}

	if len(members) == 0 {
		return nil, ErrRedisEmpty
	}

	return members, nil
}

// RemoveConstituent drops a constituent from the organization's ranking.
// used when a constituent is deleted or moved between organizations.
func (r *RedisClient) RemoveConstituent(ctx context.Context, organizationID, constituentID string) error {
	if r.client == nil {
		return ErrRedisNotConnected
	}

	if err := r.client.ZRem(ctx, priorityKey(organizationID), constituentID).Err(); err != nil {
		return fmt.Errorf("zrem failed: %w", err)
	}

	r.logger.Debug("removed from priority ranking",
		"organization_id", organizationID,
		"constituent_id", constituentID,
	)
	return nil
}

// ConstituentRank returns a constituent's rank (0-based, highest priority
// first). returns -1 if the constituent is not in the ranking.
func (r *RedisClient) ConstituentRank(ctx context.Context, organizationID, constituentID string) (int64, error) {
	if r.client == nil {
		return -1, ErrRedisNotConnected
	}

	rank, err := r.client.ZRevRank(ctx, priorityKey(organizationID), constituentID).Result()
	if err == redis.Nil {
		return -1, nil
	}
	if err != nil {
		return -1, fmt.Errorf("zrevrank failed: %w", err)
	}

	return rank, nil
}

// RankingSize returns the number of scored constituents in an
// organization's ranking.
func (r *RedisClient) RankingSize(ctx context.Context, organizationID string) (int64, error) {
	if r.client == nil {
		return 0, ErrRedisNotConnected
	}

	count, err := r.client.ZCard(ctx, priorityKey(organizationID)).Result()
	if err != nil {
		return 0, fmt.Errorf("zcard failed: %w", err)
	}

	return count, nil
}

// HealthCheck verifies Redis is responding.
func (r *RedisClient) HealthCheck(ctx context.Context) error {
	if r.client == nil {
		return ErrRedisNotConnected
	}

	return r.client.Ping(ctx).Err()
}
