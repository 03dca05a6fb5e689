package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"railbook/internal/domain"
)

const searchGenerationKey = "railbook:search:gen"

// SearchCache keeps search results in redis. Entries are namespaced by a
// generation counter, so invalidation is a single INCR and stale keys age out
// through their TTL.
type SearchCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSearchCache(rdb *redis.Client, ttl time.Duration) *SearchCache {
	return &SearchCache{rdb: rdb, ttl: ttl}
}

func (c *SearchCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.rdb.Get(ctx, searchGenerationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, err
	}
	return gen, nil
}

func searchKey(gen int64, source, destination, date string) string {
	return fmt.Sprintf("railbook:search:%d:%s:%s:%s", gen,
		strings.ToLower(strings.TrimSpace(source)),
		strings.ToLower(strings.TrimSpace(destination)),
		date)
}

// Get reports a miss with ok=false; err is only set for transport problems.
// The returned generation must be handed to Set for the same search, so rows
// read before an Invalidate land under the old generation, which nobody reads.
func (c *SearchCache) Get(ctx context.Context, source, destination, date string) ([]domain.Train, int64, bool, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return nil, 0, false, err
	}
	raw, err := c.rdb.Get(ctx, searchKey(gen, source, destination, date)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, false, nil
	}
	if err != nil {
		return nil, 0, false, err
	}
	trains := []domain.Train{}
	if err := json.Unmarshal(raw, &trains); err != nil {
		return nil, gen, false, err
	}
	return trains, gen, true, nil
}

func (c *SearchCache) Set(ctx context.Context, gen int64, source, destination, date string, trains []domain.Train) error {
	raw, err := json.Marshal(trains)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, searchKey(gen, source, destination, date), raw, c.ttl).Err()
}

func (c *SearchCache) Invalidate(ctx context.Context) error {
	return c.rdb.Incr(ctx, searchGenerationKey).Err()
}

func (c *SearchCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
