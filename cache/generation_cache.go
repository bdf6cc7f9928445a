package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"VerseForge/model"

	"github.com/go-redis/redis/v8"
)

const (
	recentSongsKey = "songs:recent"
	recentSongsTTL = 24 * time.Hour
	recentSongsMax = 50
)

// GenerationCache keeps recently finished generations in a Redis
// sorted set, scored by completion time, so the songs listing does not
// hit the database on every request.
type GenerationCache struct {
	client *redis.Client
}

// NewGenerationCache creates a cache backed by the given client.
func NewGenerationCache(client *redis.Client) *GenerationCache {
	return &GenerationCache{client: client}
}

// CacheSong adds a finished song to the recent set and trims old entries.
func (c *GenerationCache) CacheSong(ctx context.Context, song *model.Song) error {
	if c.client == nil {
		return fmt.Errorf("redis client not initialized")
	}

	songJSON, err := json.Marshal(song)
	if err != nil {
		return fmt.Errorf("failed to marshal song: %w", err)
	}

	now := time.Now()
	err = c.client.ZAdd(ctx, recentSongsKey, &redis.Z{
		Score:  float64(now.UnixNano()),
		Member: songJSON,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to add song to cache: %w", err)
	}

	// Keep only the newest entries.
	err = c.client.ZRemRangeByRank(ctx, recentSongsKey, 0, int64(-recentSongsMax-1)).Err()
	if err != nil {
		return fmt.Errorf("failed to trim song cache: %w", err)
	}

	err = c.client.Expire(ctx, recentSongsKey, recentSongsTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to set song cache expiration: %w", err)
	}

	return nil
}

// RecentSongs returns up to limit cached songs, newest first. A miss
// (empty set) returns an empty slice and no error.
func (c *GenerationCache) RecentSongs(ctx context.Context, limit int) ([]*model.Song, error) {
	if c.client == nil {
		return nil, fmt.Errorf("redis client not initialized")
	}
	if limit <= 0 {
		limit = 20
	}

	result, err := c.client.ZRevRange(ctx, recentSongsKey, 0, int64(limit-1)).Result()
	if err != nil {
		if err == redis.Nil {
			return []*model.Song{}, nil
		}
		return nil, fmt.Errorf("failed to read song cache: %w", err)
	}

	songs := make([]*model.Song, 0, len(result))
	for _, songJSON := range result {
		var song model.Song
		if err := json.Unmarshal([]byte(songJSON), &song); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cached song: %w", err)
		}
		songs = append(songs, &song)
	}

	return songs, nil
}
