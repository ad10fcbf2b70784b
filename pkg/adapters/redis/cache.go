package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/atelier/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// ByteCache implements ports.ByteCache using Redis. It is the tier shared
// by every replica.
type ByteCache struct {
	client *backend.Client
	prefix string
}

// NewByteCache creates a cache whose keys live under prefix.
func NewByteCache(client *backend.Client, prefix string) *ByteCache {
	if prefix == "" {
		prefix = "atelier:cache:"
	}
	return &ByteCache{client: client, prefix: prefix}
}

func (c *ByteCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}
	return val, nil
}

func (c *ByteCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in redis: %w", err)
	}
	return nil
}

func (c *ByteCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.prefix+key).Err()
}

// DeletePrefix scans for matching keys and deletes them in batches.
func (c *ByteCache) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	return c.DeleteFunc(ctx, prefix, nil)
}

// DeleteFunc scans the keys under prefix once and deletes, batch by batch,
// those match accepts. A nil match accepts every key.
func (c *ByteCache) DeleteFunc(ctx context.Context, prefix string, match func(key string) bool) (int, error) {
	pattern := escapeGlob(c.prefix+prefix) + "*"
	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 500).Result()
		if err != nil {
			return removed, fmt.Errorf("failed to scan redis: %w", err)
		}
		if match != nil {
			kept := keys[:0]
			for _, k := range keys {
				if match(strings.TrimPrefix(k, c.prefix)) {
					kept = append(kept, k)
				}
			}
			keys = kept
		}
		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				return removed, fmt.Errorf("failed to delete from redis: %w", err)
			}
			removed += int(n)
		}
		if next == 0 {
			return removed, nil
		}
		cursor = next
	}
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}
