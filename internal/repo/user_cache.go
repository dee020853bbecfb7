package repo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/yanditv/api-app/internal/model"
)

const summaryCacheTTL = 5 * time.Minute

// UserCache is a best-effort redis cache of user summaries used when
// populating conversation participant lists. A nil *UserCache (redis not
// configured) misses on every lookup, so callers never branch on it.
type UserCache struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewUserCache(rdb *redis.Client, logger *zap.Logger) *UserCache {
	if rdb == nil {
		return nil
	}
	return &UserCache{rdb: rdb, logger: logger}
}

func summaryKey(userID string) string {
	return "user:summary:" + userID
}

// GetSummary returns the cached summary and whether it was found.
func (c *UserCache) GetSummary(ctx context.Context, userID string) (*model.UserSummary, bool) {
	if c == nil {
		return nil, false
	}

	val, err := c.rdb.Get(ctx, summaryKey(userID)).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("user cache read failed", zap.String("user_id", userID), zap.Error(err))
		return nil, false
	}

	var summary model.UserSummary
	if err := json.Unmarshal([]byte(val), &summary); err != nil {
		c.logger.Warn("user cache entry corrupt", zap.String("user_id", userID), zap.Error(err))
		return nil, false
	}
	return &summary, true
}

// SetSummary stores a summary with a short TTL.
func (c *UserCache) SetSummary(ctx context.Context, summary model.UserSummary) {
	if c == nil {
		return
	}

	data, err := json.Marshal(summary)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, summaryKey(summary.UserID), data, summaryCacheTTL).Err(); err != nil {
		c.logger.Warn("user cache write failed", zap.String("user_id", summary.UserID), zap.Error(err))
	}
}

// Invalidate drops a cached summary, e.g. after a profile or presence change.
func (c *UserCache) Invalidate(ctx context.Context, userID string) {
	if c == nil {
		return
	}
	if err := c.rdb.Del(ctx, summaryKey(userID)).Err(); err != nil {
		c.logger.Warn("user cache invalidation failed", zap.String("user_id", userID), zap.Error(err))
	}
}

// OpenRedis connects the cache client. Returns nil when addr is empty.
func OpenRedis(addr, password string, database int) (*redis.Client, error) {
	if addr == "" {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       database,
	})

	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		return nil, err
	}
	return rdb, nil
}
