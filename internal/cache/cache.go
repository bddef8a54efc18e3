package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/finchdev/ffe-scraper/internal/models"
)

const keyPrefix = "scrape:record:"

// RecordCache keeps recent scrape results in Redis so repeated submissions
// of the same product link don't re-hit the vendor inside the TTL window.
// A nil *RecordCache is valid and disables caching.
type RecordCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func New(client *redis.Client, ttl time.Duration) *RecordCache {
	if ttl == 0 {
		ttl = 6 * time.Hour
	}
	return &RecordCache{
		client: client,
		ttl:    ttl,
		logger: slog.Default().With("component", "cache"),
	}
}

func (c *RecordCache) Get(ctx context.Context, url string) (*models.ProductRecord, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, keyPrefix+url).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache get failed", "url", url, "error", err)
		}
		return nil, false
	}

	var record models.ProductRecord
	if err := json.Unmarshal(data, &record); err != nil {
		c.logger.Warn("cache entry corrupt, dropping", "url", url, "error", err)
		c.client.Del(ctx, keyPrefix+url)
		return nil, false
	}

	return &record, true
}

func (c *RecordCache) Set(ctx context.Context, url string, record *models.ProductRecord) {
	if c == nil || c.client == nil || record == nil {
		return
	}

	data, err := json.Marshal(record)
	if err != nil {
		c.logger.Warn("cache marshal failed", "url", url, "error", err)
		return
	}

	if err := c.client.Set(ctx, keyPrefix+url, data, c.ttl).Err(); err != nil {
		c.logger.Warn("cache set failed", "url", url, "error", err)
	}
}
