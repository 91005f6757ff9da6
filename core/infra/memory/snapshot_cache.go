package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/TamimulAhsan/sentineliam/core/policy"
)

const (
	defaultRedisURL = "redis://localhost:6379"
	snapshotKey     = "catalog:snapshot"
	// snapshot TTL guards against serving very stale catalogs; configurable via env.
	defaultSnapshotTTL          = 24 * time.Hour
	envSnapshotTTLInSeconds     = "CATALOG_SNAPSHOT_TTL_SECONDS"
	envSnapshotTTLFallback      = "CATALOG_SNAPSHOT_TTL" // accepts ParseDuration values (e.g. 24h)
	defaultSnapshotConnectLimit = 2 * time.Second
)

// ErrNoSnapshot indicates the cache holds no catalog snapshot.
var ErrNoSnapshot = errors.New("no cached catalog snapshot")

// SnapshotCache persists the last good catalog snapshot so a restarted
// console can show a stale view while the policy store is unreachable.
type SnapshotCache interface {
	Put(ctx context.Context, records []policy.Record) error
	Get(ctx context.Context) ([]policy.Record, error)
	Close() error
}

// snapshotEnvelope is the stored wire shape.
type snapshotEnvelope struct {
	CapturedAt string          `json:"captured_at"`
	Records    []policy.Record `json:"records"`
}

// RedisSnapshotCache implements SnapshotCache using Redis.
type RedisSnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSnapshotCache constructs a cache from a redis:// URL.
func NewRedisSnapshotCache(url string) (*RedisSnapshotCache, error) {
	if url == "" {
		url = defaultRedisURL
	}

	ttl := defaultSnapshotTTL
	if v := os.Getenv(envSnapshotTTLInSeconds); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			ttl = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv(envSnapshotTTLFallback); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil && parsed > 0 {
			ttl = parsed
		}
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), defaultSnapshotConnectLimit)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	return &RedisSnapshotCache{client: client, ttl: ttl}, nil
}

// Put replaces the cached snapshot with the given records.
func (c *RedisSnapshotCache) Put(ctx context.Context, records []policy.Record) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("snapshot cache not initialized")
	}
	env := snapshotEnvelope{
		CapturedAt: time.Now().UTC().Format(time.RFC3339),
		Records:    records,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return c.client.Set(ctx, snapshotKey, data, c.ttl).Err()
}

// Get returns the cached snapshot records in their stored order.
func (c *RedisSnapshotCache) Get(ctx context.Context) ([]policy.Record, error) {
	if c == nil || c.client == nil {
		return nil, fmt.Errorf("snapshot cache not initialized")
	}
	data, err := c.client.Get(ctx, snapshotKey).Bytes()
	if err == redis.Nil {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, err
	}
	var env snapshotEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return env.Records, nil
}

func (c *RedisSnapshotCache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
