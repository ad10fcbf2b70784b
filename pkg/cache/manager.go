package cache

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/atelier/internal/logging"
	"github.com/aretw0/atelier/pkg/domain"
	"github.com/aretw0/atelier/pkg/inflight"
	"github.com/aretw0/atelier/pkg/ports"
)

// Namespace names.
const (
	NSRaster   = "raster"
	NSRender   = "render"
	NSMetadata = "metadata"
	NSContract = "contract"
	NSShared   = "shared"
	NSStore    = "store"
)

// sharedPrefix scopes render keys inside the shared tier.
const sharedPrefix = "render:"

// Tier is where a fetched artifact came from.
type Tier string

const (
	TierMemory   Tier = "memory"
	TierShared   Tier = "shared"
	TierStore    Tier = "store"
	TierComputed Tier = "computed"
)

// Manager owns the in-memory namespaces and the optional shared and
// persistent tiers behind them.
type Manager struct {
	Raster   *Namespace[image.Image]
	Render   *Namespace[[]byte]
	Metadata *Namespace[domain.TraitInfo]
	Contract *Namespace[any]

	shared ports.ByteCache
	store  ports.ObjectStore
	flight *inflight.Group
	hooks  domain.LifecycleHooks
	logger *slog.Logger
}

type managerConfig struct {
	now       func() time.Time
	rasterCap int
	shared    ports.ByteCache
	store     ports.ObjectStore
	locker    ports.DistributedLocker
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
}

// Option configures the Manager.
type Option func(*managerConfig)

// WithClock injects the time source of every namespace.
func WithClock(now func() time.Time) Option {
	return func(c *managerConfig) { c.now = now }
}

// WithRasterCap bounds the raster namespace.
func WithRasterCap(n int) Option {
	return func(c *managerConfig) { c.rasterCap = n }
}

// WithSharedCache adds a tier shared between replicas.
func WithSharedCache(bc ports.ByteCache) Option {
	return func(c *managerConfig) { c.shared = bc }
}

// WithObjectStore adds the persistent tier.
func WithObjectStore(store ports.ObjectStore) Option {
	return func(c *managerConfig) { c.store = store }
}

// WithLocker makes cache fills exclusive across replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(c *managerConfig) { c.locker = locker }
}

// WithHooks reports cache lookups.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(c *managerConfig) { c.hooks = hooks }
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(c *managerConfig) { c.logger = logger }
}

// NewManager creates a Manager with empty namespaces.
func NewManager(opts ...Option) *Manager {
	cfg := managerConfig{
		now:       time.Now,
		rasterCap: DefaultRasterCap,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	clock := WithNamespaceClock(cfg.now)
	flightOpts := []inflight.Option{inflight.WithLogger(cfg.logger)}
	if cfg.locker != nil {
		flightOpts = append(flightOpts, inflight.WithLocker(cfg.locker))
	}
	return &Manager{
		Raster:   NewNamespace[image.Image](NSRaster, clock, WithMaxEntries(cfg.rasterCap)),
		Render:   NewNamespace[[]byte](NSRender, clock),
		Metadata: NewNamespace[domain.TraitInfo](NSMetadata, clock),
		Contract: NewNamespace[any](NSContract, clock),
		shared:   cfg.shared,
		store:    cfg.store,
		flight:   inflight.New(flightOpts...),
		hooks:    cfg.hooks,
		logger:   cfg.logger,
	}
}

// FetchRequest identifies one render artifact.
type FetchRequest struct {
	// Key is the artifact filename; it is also the store path.
	Key     string
	TokenID int
	// Custom selects the long TTL of explicit trait selections.
	Custom bool
	// Persist enables the ObjectStore tier for this artifact.
	Persist bool
}

func (r FetchRequest) ttl() time.Duration {
	if r.Custom {
		return CustomTTL
	}
	return RenderTTL(r.TokenID)
}

// ComputeFunc produces an artifact on a full miss.
type ComputeFunc func(ctx context.Context) ([]byte, error)

// Fetch resolves an artifact through memory, the shared tier, the store and
// finally compute. Concurrent misses of one key compute once: waiters
// re-check the tiers after the holder finishes.
func (m *Manager) Fetch(ctx context.Context, req FetchRequest, compute ComputeFunc) ([]byte, Tier, error) {
	if data, tier, ok := m.lookup(ctx, req); ok {
		return data, tier, nil
	}

	var (
		data []byte
		tier Tier
	)
	fill := func(ctx context.Context) error {
		if d, t, ok := m.lookup(ctx, req); ok {
			data, tier = d, t
			return nil
		}
		d, err := compute(ctx)
		if err != nil {
			return err
		}
		data, tier = d, TierComputed
		m.writeBack(ctx, req, d)
		return nil
	}

	err := m.flight.Do(ctx, req.Key, fill)
	if errors.Is(err, domain.ErrLockAcquire) {
		m.logger.Warn("render lock unavailable, computing without it", "key", req.Key, "err", err)
		err = fill(ctx)
	}
	if err != nil {
		return nil, "", err
	}
	return data, tier, nil
}

// lookup checks memory, shared and store in order, promoting hits upwards.
func (m *Manager) lookup(ctx context.Context, req FetchRequest) ([]byte, Tier, bool) {
	data, ok := m.Render.Get(req.Key)
	m.report(ctx, req, NSRender, ok)
	if ok {
		return data, TierMemory, true
	}

	if m.shared != nil {
		data, err := m.shared.Get(ctx, sharedPrefix+req.Key)
		switch {
		case err == nil:
			m.report(ctx, req, NSShared, true)
			m.Render.Set(req.Key, data, req.ttl())
			return data, TierShared, true
		case !errors.Is(err, domain.ErrNotFound):
			m.logger.Warn("shared cache read failed", "key", req.Key, "err", err)
		}
		m.report(ctx, req, NSShared, false)
	}

	if m.store != nil && req.Persist {
		data, err := m.store.Get(ctx, req.Key)
		switch {
		case err == nil:
			m.report(ctx, req, NSStore, true)
			m.Render.Set(req.Key, data, req.ttl())
			m.setShared(ctx, req, data)
			return data, TierStore, true
		case !errors.Is(err, domain.ErrNotFound):
			m.logger.Warn("object store read failed", "key", req.Key, "err", err)
		}
		m.report(ctx, req, NSStore, false)
	}
	return nil, "", false
}

func (m *Manager) writeBack(ctx context.Context, req FetchRequest, data []byte) {
	m.Render.Set(req.Key, data, req.ttl())
	m.setShared(ctx, req, data)
	if m.store != nil && req.Persist {
		if err := m.store.Put(ctx, req.Key, data); err != nil {
			m.logger.Warn("render not persisted",
				"key", req.Key,
				"err", fmt.Errorf("%w: %w", domain.ErrStoreFailure, err),
			)
		}
	}
}

func (m *Manager) setShared(ctx context.Context, req FetchRequest, data []byte) {
	if m.shared == nil {
		return
	}
	if err := m.shared.Set(ctx, sharedPrefix+req.Key, data, req.ttl()); err != nil {
		m.logger.Warn("shared cache write failed", "key", req.Key, "err", err)
	}
}

func (m *Manager) report(ctx context.Context, req FetchRequest, ns string, hit bool) {
	if m.hooks.OnCacheLookup == nil {
		return
	}
	m.hooks.OnCacheLookup(ctx, &domain.CacheEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventCacheLookup, TokenID: req.TokenID},
		Namespace: ns,
		Hit:       hit,
	})
}

// InvalidateToken drops the renders and trait source reads of one token
// from memory and the shared tier. Persisted artifacts stay: their names
// already encode the state they were drawn from.
func (m *Manager) InvalidateToken(ctx context.Context, tokenID int) (int, error) {
	prefix := strconv.Itoa(tokenID) + "_"
	n := m.Render.InvalidateFunc(func(k string) bool {
		id, ok := renderKeyToken(k)
		return ok && id == tokenID
	})
	n += m.Contract.InvalidateFunc(func(k string) bool { return keyMentionsToken(k, tokenID) })
	if m.shared != nil {
		removed, err := m.shared.DeletePrefix(ctx, sharedPrefix+prefix)
		if err != nil {
			return n, fmt.Errorf("invalidate shared renders of %d: %w", tokenID, err)
		}
		n += removed
	}
	return n, nil
}

// InvalidateRange drops every token in [start, end].
func (m *Manager) InvalidateRange(ctx context.Context, start, end int) (int, error) {
	if start > end {
		return 0, fmt.Errorf("%w: range %d..%d", domain.ErrInvalidToken, start, end)
	}
	in := func(id int) bool { return id >= start && id <= end }
	n := m.Render.InvalidateFunc(func(k string) bool {
		id, ok := renderKeyToken(k)
		return ok && in(id)
	})
	n += m.Contract.InvalidateFunc(func(k string) bool {
		for _, id := range contractKeyTokens(k) {
			if in(id) {
				return true
			}
		}
		return false
	})
	if m.shared != nil {
		removed, err := m.shared.DeleteFunc(ctx, sharedPrefix, func(k string) bool {
			id, ok := renderKeyToken(strings.TrimPrefix(k, sharedPrefix))
			return ok && in(id)
		})
		if err != nil {
			return n, fmt.Errorf("invalidate shared renders of %d..%d: %w", start, end, err)
		}
		n += removed
	}
	return n, nil
}

// InvalidateAll clears every namespace and the shared render keys.
func (m *Manager) InvalidateAll(ctx context.Context) (int, error) {
	n := m.Raster.Clear() + m.Render.Clear() + m.Metadata.Clear() + m.Contract.Clear()
	if m.shared != nil {
		removed, err := m.shared.DeletePrefix(ctx, sharedPrefix)
		if err != nil {
			return n, fmt.Errorf("invalidate shared renders: %w", err)
		}
		n += removed
	}
	return n, nil
}

// Stats returns per-namespace statistics.
func (m *Manager) Stats() []Stats {
	return []Stats{m.Raster.Stats(), m.Render.Stats(), m.Metadata.Stats(), m.Contract.Stats()}
}

// Sweep drops expired entries from every namespace.
func (m *Manager) Sweep() int {
	return m.Raster.Sweep() + m.Render.Sweep() + m.Metadata.Sweep() + m.Contract.Sweep()
}

// StartSweeper sweeps every interval until ctx is done.
func (m *Manager) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := m.Sweep(); n > 0 {
					m.logger.Debug("cache sweep", "removed", n)
				}
			}
		}
	}()
}
