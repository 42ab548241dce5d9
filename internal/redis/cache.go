package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gamehub-ledger/internal/config"
	"github.com/gamehub-ledger/internal/domain"
)

// Cache is a read-through store for assembled leaderboard pages. It is a
// derived copy of ledger state, never authoritative: every ledger mutation
// invalidates the affected keys and the next read rebuilds from Postgres.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCache creates a new leaderboard page cache
func NewCache(cfg *config.RedisConfig, ttl time.Duration, logger *slog.Logger) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	// Test connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &Cache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}, nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}

// pageKey returns the Redis key for a leaderboard page. The global board
// uses the scope "global"; per-activity boards use the activity identifier.
func (c *Cache) pageKey(activity string, limit int) string {
	scope := activity
	if scope == "" {
		scope = "global"
	}
	return fmt.Sprintf("leaderboard:%s:top:%d", scope, limit)
}

// GetPage returns a cached leaderboard page, or (nil, nil) on a miss
func (c *Cache) GetPage(ctx context.Context, activity string, limit int) ([]domain.LeaderboardRow, error) {
	data, err := c.client.Get(ctx, c.pageKey(activity, limit)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting leaderboard page: %w", err)
	}

	var rows []domain.LeaderboardRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decoding cached page: %w", err)
	}
	return rows, nil
}

// SetPage stores a leaderboard page with the configured TTL
func (c *Cache) SetPage(ctx context.Context, activity string, limit int, rows []domain.LeaderboardRow) error {
	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encoding leaderboard page: %w", err)
	}
	if err := c.client.Set(ctx, c.pageKey(activity, limit), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("setting leaderboard page: %w", err)
	}
	return nil
}

// InvalidateActivity drops all cached pages for one activity plus the global
// pages that include its points.
func (c *Cache) InvalidateActivity(ctx context.Context, activity string) error {
	if activity == "" {
		return c.InvalidateAll(ctx)
	}
	patterns := []string{
		fmt.Sprintf("leaderboard:%s:top:*", activity),
		"leaderboard:global:top:*",
	}
	for _, pattern := range patterns {
		if err := c.deleteByPattern(ctx, pattern); err != nil {
			return err
		}
	}
	return nil
}

// InvalidateAll drops every cached leaderboard page
func (c *Cache) InvalidateAll(ctx context.Context) error {
	return c.deleteByPattern(ctx, "leaderboard:*")
}

func (c *Cache) deleteByPattern(ctx context.Context, pattern string) error {
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("deleting cached page: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scanning cache keys: %w", err)
	}
	return nil
}
