package locks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = 30 * time.Second

// Lease is a single-owner expiring lock. The watch loop takes one so only a
// single process reloads the catalog and republishes events at a time.
type Lease struct {
	Resource  string
	Owner     string
	ExpiresAt time.Time
}

// Store grants and renews leases.
type Store interface {
	Acquire(ctx context.Context, resource, owner string, ttl time.Duration) (*Lease, bool, error)
	Renew(ctx context.Context, resource, owner string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, resource, owner string) error
	Close() error
}

// RedisStore implements Store on a single Redis instance. Ownership checks
// run server-side so a lapsed owner can never release or renew a lease that
// has moved on.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects and verifies the Redis instance is reachable.
func NewRedisStore(url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

// Close shuts down the Redis client.
func (s *RedisStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

// Acquire takes the lease if it is free. The second return reports whether
// the caller now holds it.
func (s *RedisStore) Acquire(ctx context.Context, resource, owner string, ttl time.Duration) (*Lease, bool, error) {
	resource = strings.TrimSpace(resource)
	owner = strings.TrimSpace(owner)
	if resource == "" || owner == "" {
		return nil, false, fmt.Errorf("resource and owner required")
	}
	ttl = normalizeTTL(ttl)

	ok, err := s.client.SetNX(ctx, leaseKey(resource), owner, ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	return &Lease{
		Resource:  resource,
		Owner:     owner,
		ExpiresAt: time.Now().UTC().Add(ttl),
	}, true, nil
}

// Renew extends the lease TTL if the caller still owns it.
func (s *RedisStore) Renew(ctx context.Context, resource, owner string, ttl time.Duration) (bool, error) {
	resource = strings.TrimSpace(resource)
	owner = strings.TrimSpace(owner)
	if resource == "" || owner == "" {
		return false, fmt.Errorf("resource and owner required")
	}
	ttl = normalizeTTL(ttl)

	res, err := s.client.Eval(ctx, renewScript, []string{leaseKey(resource)},
		owner, ttl.Milliseconds(),
	).Result()
	if err != nil {
		return false, err
	}
	n, _ := res.(int64)
	return n == 1, nil
}

// Release drops the lease if the caller owns it. Releasing a lease held by
// someone else is a no-op.
func (s *RedisStore) Release(ctx context.Context, resource, owner string) error {
	resource = strings.TrimSpace(resource)
	owner = strings.TrimSpace(owner)
	if resource == "" || owner == "" {
		return fmt.Errorf("resource and owner required")
	}
	return s.client.Eval(ctx, releaseScript, []string{leaseKey(resource)}, owner).Err()
}

func normalizeTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return defaultTTL
	}
	return ttl
}

func leaseKey(resource string) string {
	return "lease:" + resource
}

const renewScript = `
local key = KEYS[1]
local owner = ARGV[1]
local ttl = tonumber(ARGV[2])
if redis.call("GET", key) == owner then
  redis.call("PEXPIRE", key, ttl)
  return 1
end
return 0
`

const releaseScript = `
local key = KEYS[1]
local owner = ARGV[1]
if redis.call("GET", key) == owner then
  redis.call("DEL", key)
end
return 0
`
