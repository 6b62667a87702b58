package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tipgrid/tipgrid/internal/model"
)

// Cache key prefixes and TTLs.
const (
	profileKeyPrefix  = "profile:"
	negCacheKeySuffix = ":neg"

	// DefaultProfileTTL is the TTL for cached public profiles.
	DefaultProfileTTL = 1 * time.Hour

	// NegativeCacheTTL is the TTL for negative cache entries.
	NegativeCacheTTL = 5 * time.Minute
)

// Common cache errors.
var (
	ErrCacheMiss = errors.New("cache miss")
)

// GetProfile retrieves a cached public profile by username.
// Returns ErrCacheMiss if not found.
func (c *Cache) GetProfile(ctx context.Context, username string) (*model.Profile, error) {
	key := profileKeyPrefix + username

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, ErrCacheMiss
	}

	var profile model.Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		// Corrupted cache entry - treat as miss
		return nil, ErrCacheMiss
	}

	return &profile, nil
}

// SetProfile stores a public profile in cache, keyed by username.
func (c *Cache) SetProfile(ctx context.Context, profile *model.Profile) error {
	key := profileKeyPrefix + profile.Username

	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	if err := c.client.Set(ctx, key, data, DefaultProfileTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache profile: %w", err)
	}

	// Remove negative cache if exists
	c.client.Del(ctx, key+negCacheKeySuffix)

	return nil
}

// DeleteProfile removes a profile from cache.
// Called after any profile write so the next public read rebuilds it.
func (c *Cache) DeleteProfile(ctx context.Context, username string) error {
	key := profileKeyPrefix + username

	pipe := c.client.Pipeline()
	pipe.Del(ctx, key)
	pipe.Del(ctx, key+negCacheKeySuffix)

	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete profile from cache: %w", err)
	}

	return nil
}

// IsNegativelyCached checks if a username is in negative cache.
func (c *Cache) IsNegativelyCached(ctx context.Context, username string) (bool, error) {
	key := profileKeyPrefix + username + negCacheKeySuffix

	exists, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check negative cache: %w", err)
	}

	return exists > 0, nil
}

// SetNegativeCache marks a username as not found.
func (c *Cache) SetNegativeCache(ctx context.Context, username string) error {
	key := profileKeyPrefix + username + negCacheKeySuffix

	err := c.client.SetEx(ctx, key, "", NegativeCacheTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to set negative cache: %w", err)
	}

	return nil
}
