package inflight

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/atelier/internal/logging"
	"github.com/aretw0/atelier/pkg/domain"
	"github.com/aretw0/atelier/pkg/ports"
)

// DefaultLockTTL bounds how long a crashed replica can hold a key.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds a one-slot semaphore and the reference count.
// A semaphore instead of a mutex lets waiters give up when their
// context ends.
type lockEntry struct {
	sem  chan struct{}
	refs int
}

// Group serializes work per key. Entries are reference counted and removed
// once the last holder releases them.
type Group struct {
	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Group.
type Option func(*Group)

// WithLocker extends the per-key lock across processes.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(g *Group) {
		g.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(g *Group) {
		g.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Group.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Group) {
		g.logger = logger
	}
}

// New creates a Group.
func New(opts ...Option) *Group {
	g := &Group{
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller must call release(key) once done with the entry.
func (g *Group) acquire(key string) *lockEntry {
	g.mu.Lock()
	defer g.mu.Unlock()

	entry, ok := g.locks[key]
	if !ok {
		entry = &lockEntry{sem: make(chan struct{}, 1)}
		g.locks[key] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and drops the entry at zero.
func (g *Group) release(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	entry, ok := g.locks[key]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(g.locks, key)
	}
}

// Do runs fn while holding the lock for key. Callers re-check their caches
// inside fn, so a waiter finds the result of the holder instead of
// computing it again. A waiter returns ctx.Err() if its context ends
// before the key frees up.
func (g *Group) Do(ctx context.Context, key string, fn func(context.Context) error) error {
	entry := g.acquire(key)
	defer g.release(key)

	select {
	case entry.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-entry.sem }()

	if err := ctx.Err(); err != nil {
		return err
	}

	if g.locker != nil {
		unlock, err := g.locker.Lock(ctx, key, g.lockTTL)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", domain.ErrLockAcquire, key, err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				g.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"key", key,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// Active returns the number of keys currently held or awaited.
func (g *Group) Active() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.locks)
}
