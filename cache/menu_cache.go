package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yashrajoria/bistro-backend/models"
	"go.uber.org/zap"
)

const (
	MenuListCachePrefix = "menu:v:"
	MenuVersionKey      = "menu:version"
	DefaultMenuTTL      = 5 * time.Minute
)

// MenuCache keeps the full menu listing in Redis. Writes bump a version key
// instead of deleting entries. A nil *MenuCache is a permanent miss.
type MenuCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewMenuCache(client *redis.Client, ttl time.Duration) *MenuCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = DefaultMenuTTL
	}
	return &MenuCache{redis: client, ttl: ttl}
}

// Get returns the cached menu and whether it was a hit. The returned version
// is the one the lookup ran against; a caller that loads the menu after a miss
// stores it with Set/SetAsync under that version, so a write that invalidates
// in between makes the stored listing unreachable. Version 0 means unknown.
func (mc *MenuCache) Get(ctx context.Context) ([]models.MenuItem, int64, bool) {
	if mc == nil {
		return nil, 0, false
	}
	version, err := mc.version(ctx)
	if err != nil {
		return nil, 0, false
	}

	data, err := mc.redis.Get(ctx, listKey(version)).Bytes()
	if err != nil {
		return nil, version, false
	}

	var items []models.MenuItem
	if err := json.Unmarshal(data, &items); err != nil {
		zap.L().Warn("Failed to unmarshal cached menu", zap.Error(err))
		return nil, version, false
	}
	return items, version, true
}

// Set stores items under version. Version 0 is skipped.
func (mc *MenuCache) Set(ctx context.Context, version int64, items []models.MenuItem) error {
	if mc == nil || version <= 0 {
		return nil
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal menu for cache: %w", err)
	}
	if err := mc.redis.Set(ctx, listKey(version), payload, mc.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache menu: %w", err)
	}
	return nil
}

// SetAsync runs Set without blocking the caller.
func (mc *MenuCache) SetAsync(version int64, items []models.MenuItem) {
	if mc == nil || version <= 0 {
		return
	}
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mc.Set(bgCtx, version, items); err != nil {
			zap.L().Warn("Menu cache write failed", zap.Int64("version", version), zap.Error(err))
		}
	}()
}

// Invalidate bumps the menu version so the next read misses.
func (mc *MenuCache) Invalidate(ctx context.Context) error {
	if mc == nil {
		return nil
	}
	newVersion, err := mc.redis.Incr(ctx, MenuVersionKey).Result()
	if err != nil {
		return fmt.Errorf("failed to invalidate menu cache: %w", err)
	}
	zap.L().Info("Menu cache invalidated", zap.Int64("new_version", newVersion))
	return nil
}

func (mc *MenuCache) version(ctx context.Context) (int64, error) {
	ver, err := mc.redis.Get(ctx, MenuVersionKey).Int64()
	if err == nil && ver > 0 {
		return ver, nil
	}
	if err == redis.Nil {
		// SETNX so concurrent first readers agree on version 1
		if err := mc.redis.SetNX(ctx, MenuVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return mc.redis.Get(ctx, MenuVersionKey).Int64()
	}
	if err == nil {
		err = fmt.Errorf("invalid menu cache version %d", ver)
	}
	return 0, err
}

func listKey(version int64) string {
	return fmt.Sprintf("%s%d:all", MenuListCachePrefix, version)
}
