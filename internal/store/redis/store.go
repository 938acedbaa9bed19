// Package redisstore implements crawler.SuppressionStore on Redis.
package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/JakeFAU/crawler-notifier/internal/crawler"
)

const suppressedValue = "1"

// Store keeps suppression entries as Redis keys with a TTL.
type Store struct {
	client redis.UniversalClient
}

// NewClient parses redisURL and verifies connectivity.
func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL(%q): %w", redisURL, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

// New wraps an existing client.
func New(client redis.UniversalClient) *Store {
	return &Store{client: client}
}

// IsSuppressed reports whether key exists. Redis drops expired keys itself.
func (s *Store) IsSuppressed(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("%w: exists %s: %w", crawler.ErrStoreUnavailable, key, err)
	}
	return n > 0, nil
}

// SuppressUntil writes key with an absolute expiry (SET EXAT) so the TTL is
// measured by Redis against expiresAt itself.
func (s *Store) SuppressUntil(ctx context.Context, key string, expiresAt time.Time) error {
	err := s.client.SetArgs(ctx, key, suppressedValue, redis.SetArgs{ExpireAt: expiresAt}).Err()
	if err != nil {
		return fmt.Errorf("%w: set %s: %w", crawler.ErrStoreUnavailable, key, err)
	}
	return nil
}
