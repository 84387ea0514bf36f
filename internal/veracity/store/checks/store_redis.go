package checks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"verax/internal/veracity/models"
	"verax/internal/veracity/ports"
)

// Redis key prefix for checks documents
const checksKeyPrefix = "verax:checks:"

// RedisStore is a Redis-backed checks store for deployments that share one
// cache across machines, such as CI fleets. Values are the same JSON
// documents the disk store writes, keyed by canonical purl, without expiry.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed checks store.
func NewRedisStore(client *redis.Client) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("checks: redis client is required")
	}
	return &RedisStore{client: client}, nil
}

// Find retrieves the cached checks for pkg.
// Returns ports.ErrNotFound if the key does not exist.
func (s *RedisStore) Find(ctx context.Context, pkg models.Package) (models.Checks, error) {
	data, err := s.client.Get(ctx, checksKeyPrefix+pkg.Purl()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.Checks{}, ports.ErrNotFound
		}
		return models.Checks{}, fmt.Errorf("redis get checks for %s: %w", pkg, err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return models.Checks{}, fmt.Errorf("decode checks for %s: %w", pkg, err)
	}
	return rec.checks(), nil
}

// Save stores the checks for pkg, replacing any previous value.
func (s *RedisStore) Save(ctx context.Context, pkg models.Package, checks models.Checks) error {
	data, err := json.Marshal(recordFrom(pkg, checks))
	if err != nil {
		return fmt.Errorf("encode checks for %s: %w", pkg, err)
	}
	if err := s.client.Set(ctx, checksKeyPrefix+pkg.Purl(), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set checks for %s: %w", pkg, err)
	}
	return nil
}
