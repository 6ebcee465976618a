package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"TemplePlayer/model"

	"github.com/go-redis/redis/v8"
)

// keyValue is the part of the redis client the search cache uses.
type keyValue interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// SearchCache stores search result pages as JSON under a key prefix.
type SearchCache struct {
	kv     keyValue
	prefix string
}

// NewSearchCache wraps a redis client. Keys are stored as prefix + key.
func NewSearchCache(kv keyValue, prefix string) *SearchCache {
	return &SearchCache{kv: kv, prefix: prefix}
}

// GetSearch returns the cached page for key; ok is false on a miss.
func (c *SearchCache) GetSearch(ctx context.Context, key string) (model.SearchResult, bool, error) {
	data, err := c.kv.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.SearchResult{}, false, nil
	}
	if err != nil {
		return model.SearchResult{}, false, fmt.Errorf("get %s: %w", key, err)
	}

	var res model.SearchResult
	if err := json.Unmarshal(data, &res); err != nil {
		return model.SearchResult{}, false, fmt.Errorf("decode %s: %w", key, err)
	}
	return res, true, nil
}

// SetSearch stores a page for ttl. A zero ttl keeps it without expiry.
func (c *SearchCache) SetSearch(ctx context.Context, key string, res model.SearchResult, ttl time.Duration) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := c.kv.Set(ctx, c.prefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}
