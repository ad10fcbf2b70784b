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

// farFuture scores index members that never expire (2100-01-01).
const farFuture = 4102444800

// Store implements ports.ObjectStore and ports.ObjectLister using Redis.
// Paths are indexed in a sorted set scored by expiry.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for artifacts.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for artifacts.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "atelier:artifact:",
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) key(path string) string {
	return s.prefix + path
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Exists reports whether path is stored.
func (s *Store) Exists(ctx context.Context, path string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(path)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check redis key: %w", err)
	}
	return n > 0, nil
}

// Get retrieves the artifact.
func (s *Store) Get(ctx context.Context, path string) ([]byte, error) {
	val, err := s.client.Get(ctx, s.key(path)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}
	return val, nil
}

// Put stores the artifact and indexes its path.
func (s *Store) Put(ctx context.Context, path string, data []byte) error {
	pipe := s.client.Pipeline()

	pipe.Set(ctx, s.key(path), data, s.ttl)

	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = farFuture
	}
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  score,
		Member: path,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Delete removes the artifact.
func (s *Store) Delete(ctx context.Context, path string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(path))
	pipe.ZRem(ctx, s.indexKey(), path)
	_, err := pipe.Exec(ctx)
	return err
}

// List returns indexed paths starting with prefix. Expired members are
// pruned from the index first.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	now := float64(time.Now().Unix())
	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired artifacts: %w", err)
	}

	paths, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	out := paths[:0]
	for _, p := range paths {
		if strings.HasPrefix(p, prefix) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
