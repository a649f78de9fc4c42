package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"lifeos/internal/model"

	"github.com/redis/go-redis/v9"
)

const (
	KeyPrefix  = "lifeos:"
	DefaultTTL = 30 * time.Minute

	parsePrefix  = KeyPrefix + "parse:"
	reportPrefix = KeyPrefix + "report:"
)

// Cache stores extraction results and generated reports in Redis. Every
// failure of the backend is treated as a miss so callers never see it.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{client: client, ttl: ttl}
}

// Fingerprint is the cache key for an input text.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(text))))
	return parsePrefix + hex.EncodeToString(sum[:])
}

func ReportKey(period string, userID int64) string {
	return fmt.Sprintf("%s%s:%d", reportPrefix, period, userID)
}

func (c *Cache) available(ctx context.Context) bool {
	if c == nil || c.client == nil {
		return false
	}
	if err := c.client.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unavailable, skipping cache", "error", err)
		return false
	}
	return true
}

func (c *Cache) Get(ctx context.Context, text string) (model.ExtractionResult, bool) {
	var result model.ExtractionResult
	if !c.available(ctx) {
		return result, false
	}

	data, err := c.client.Get(ctx, Fingerprint(text)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("error reading parse cache", "error", err)
		}
		return result, false
	}

	if err := json.Unmarshal(data, &result); err != nil {
		slog.Warn("corrupt parse cache entry", "error", err)
		return model.ExtractionResult{}, false
	}
	if len(result.RecordTypes) == 0 {
		return model.ExtractionResult{}, false
	}
	return result, true
}

func (c *Cache) Put(ctx context.Context, text string, result model.ExtractionResult) {
	if !c.available(ctx) {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		slog.Warn("error encoding parse cache entry", "error", err)
		return
	}

	if err := c.client.Set(ctx, Fingerprint(text), data, c.ttl).Err(); err != nil {
		slog.Warn("error writing parse cache", "error", err)
	}
}

func (c *Cache) GetReport(ctx context.Context, period string, userID int64) (string, bool) {
	if !c.available(ctx) {
		return "", false
	}

	report, err := c.client.Get(ctx, ReportKey(period, userID)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("error reading report cache", "error", err)
		}
		return "", false
	}
	return report, true
}

func (c *Cache) PutReport(ctx context.Context, period string, userID int64, report string, ttl time.Duration) {
	if !c.available(ctx) {
		return
	}
	if ttl <= 0 {
		ttl = c.ttl
	}

	if err := c.client.Set(ctx, ReportKey(period, userID), report, ttl).Err(); err != nil {
		slog.Warn("error writing report cache", "error", err)
	}
}

// DeleteReports drops every cached report of userID. Called whenever the
// user's records change.
func (c *Cache) DeleteReports(ctx context.Context, userID int64) {
	if !c.available(ctx) {
		return
	}

	keys := []string{ReportKey("weekly", userID), ReportKey("monthly", userID)}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		slog.Warn("error deleting cached reports", "user_id", userID, "error", err)
	}
}

// ClearAll deletes every cached extraction and report and returns how many
// keys were removed. Other keys under the lifeos: prefix are left alone.
func (c *Cache) ClearAll(ctx context.Context) (int64, error) {
	if c == nil || c.client == nil {
		return 0, errors.New("cache not configured")
	}

	var deleted int64
	for _, prefix := range []string{parsePrefix, reportPrefix} {
		n, err := c.deletePrefix(ctx, prefix)
		deleted += n
		if err != nil {
			return deleted, err
		}
	}
	return deleted, nil
}

func (c *Cache) deletePrefix(ctx context.Context, prefix string) (int64, error) {
	var deleted int64
	iter := c.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			n, err := c.client.Del(ctx, batch...).Result()
			if err != nil {
				return deleted, err
			}
			deleted += n
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, err
	}

	if len(batch) > 0 {
		n, err := c.client.Del(ctx, batch...).Result()
		if err != nil {
			return deleted, err
		}
		deleted += n
	}
	return deleted, nil
}
