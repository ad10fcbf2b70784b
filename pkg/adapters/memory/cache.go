package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/atelier/pkg/domain"
)

type cached struct {
	value   []byte
	expires time.Time
}

// ByteCache implements ports.ByteCache in memory. It stands in for the
// shared tier in single-process deployments and tests.
type ByteCache struct {
	mu   sync.Mutex
	data map[string]cached
	now  func() time.Time
}

// NewByteCache creates an empty cache. now may be nil.
func NewByteCache(now func() time.Time) *ByteCache {
	if now == nil {
		now = time.Now
	}
	return &ByteCache{data: make(map[string]cached), now: now}
}

func (c *ByteCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.data[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if !e.expires.IsZero() && !c.now().Before(e.expires) {
		delete(c.data, key)
		return nil, domain.ErrNotFound
	}
	return slices.Clone(e.value), nil
}

// Set stores value; a zero ttl never expires.
func (c *ByteCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := cached{value: slices.Clone(value)}
	if ttl > 0 {
		e.expires = c.now().Add(ttl)
	}
	c.data[key] = e
	return nil
}

func (c *ByteCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *ByteCache) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	return c.DeleteFunc(ctx, prefix, nil)
}

func (c *ByteCache) DeleteFunc(ctx context.Context, prefix string, match func(key string) bool) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k := range c.data {
		if strings.HasPrefix(k, prefix) && (match == nil || match(k)) {
			delete(c.data, k)
			n++
		}
	}
	return n, nil
}
