// Package cache persists the latest applied snapshots in Redis so a
// restarted dashboard paints immediately instead of waiting for the first
// poll round-trip. Seeded records carry their original snapshot timestamp,
// so the first live fetch supersedes them by last-write-wins.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tradedeck/internal/config"
	"tradedeck/internal/models"
)

const snapshotTTL = 24 * time.Hour

// Client wraps the Redis client with snapshot cache operations
type Client struct {
	rdb *redis.Client
}

// New creates a new Redis cache client
func New(cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks if Redis is reachable
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

type snapshotEnvelope struct {
	AsOf    time.Time       `json:"as_of"`
	Records json.RawMessage `json:"records"`
}

func snapshotKey(kind models.Kind) string {
	return fmt.Sprintf("tradedeck:snapshot:%s", kind)
}

// SaveSnapshot write-throughs the latest applied snapshot for a resource.
func (c *Client) SaveSnapshot(ctx context.Context, kind models.Kind, records []models.Record, asOf time.Time) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal %s snapshot: %w", kind, err)
	}
	env, err := json.Marshal(snapshotEnvelope{AsOf: asOf, Records: data})
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot envelope: %w", err)
	}
	return c.rdb.Set(ctx, snapshotKey(kind), env, snapshotTTL).Err()
}

// LoadSnapshot returns the cached snapshot for a resource as raw JSON plus
// its original timestamp. A cache miss returns no data and no error.
func (c *Client) LoadSnapshot(ctx context.Context, kind models.Kind) (json.RawMessage, time.Time, error) {
	data, err := c.rdb.Get(ctx, snapshotKey(kind)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, err
	}

	var env snapshotEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to unmarshal snapshot envelope: %w", err)
	}
	return env.Records, env.AsOf, nil
}

// Delete removes cached snapshots
func (c *Client) Delete(ctx context.Context, kinds ...models.Kind) error {
	keys := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		keys = append(keys, snapshotKey(kind))
	}
	return c.rdb.Del(ctx, keys...).Err()
}
