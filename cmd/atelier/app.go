package main

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/atelier"
	"github.com/aretw0/atelier/internal/config"
	"github.com/aretw0/atelier/pkg/adapters/delegate"
	"github.com/aretw0/atelier/pkg/adapters/file"
	"github.com/aretw0/atelier/pkg/adapters/httpsource"
	"github.com/aretw0/atelier/pkg/adapters/loam"
	"github.com/aretw0/atelier/pkg/adapters/memory"
	"github.com/aretw0/atelier/pkg/adapters/redis"
	"github.com/aretw0/atelier/pkg/adapters/sqlite"
	"github.com/aretw0/atelier/pkg/observability"
	"github.com/aretw0/atelier/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
)

// app is an Engine wired from the configuration, with the resources it owns.
type app struct {
	engine   *atelier.Engine
	registry *prometheus.Registry
	rdb      *goredis.Client
	closers  []func() error
}

func newApp(cfg config.Config, logger *slog.Logger) (*app, error) {
	a := &app{}
	opts := []atelier.Option{
		atelier.WithLogger(logger),
		atelier.WithCanvasSize(cfg.Render.CanvasSize),
		atelier.WithRasterCap(cfg.Cache.RasterCap),
		atelier.WithFrameCap(cfg.Render.FrameCap),
		atelier.WithSamuraiImageBase(cfg.Render.SamuraiImageBase),
		atelier.WithPreloadConcurrency(cfg.Render.PreloadWorkers),
	}
	if cfg.Render.PersistModesOnly {
		opts = append(opts, atelier.WithPersistPolicy(atelier.PersistModesOnly))
	}

	hooks := observability.LogHooks(logger)
	if cfg.Metrics {
		a.registry = prometheus.NewRegistry()
		hooks = observability.Chain(hooks, observability.NewMetrics(a.registry).Hooks())
	}
	opts = append(opts, atelier.WithLifecycleHooks(hooks))

	store, err := a.openStore(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	opts = append(opts, store...)

	if cfg.Tokens != "" {
		src, err := memory.LoadTokens(cfg.Tokens)
		if err != nil {
			a.Close()
			return nil, err
		}
		opts = append(opts, atelier.WithTraitSource(src))
	}

	if cfg.Catalog.Dir != "" {
		catalog, err := loam.Open(cfg.Catalog.Dir, loam.WithLogger(logger))
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to open trait catalog: %w", err)
		}
		opts = append(opts, atelier.WithCatalog(catalog))
	}

	if d := cfg.DelegateConfig(); d.Enabled {
		opts = append(opts, atelier.WithDelegate(delegate.New(d, delegate.WithLogger(logger))))
	}

	engine, err := atelier.New(assetSource(cfg, logger), opts...)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("error initializing atelier: %w", err)
	}
	a.engine = engine
	return a, nil
}

func assetSource(cfg config.Config, logger *slog.Logger) ports.AssetSource {
	if cfg.Assets.Dir != "" {
		return file.NewAssetSource(cfg.Assets.Dir, file.WithMaxAssetBytes(cfg.Assets.MaxBytes))
	}
	opts := []httpsource.Option{
		httpsource.WithMaxAssetBytes(cfg.Assets.MaxBytes),
		httpsource.WithProbeConcurrency(cfg.Render.PreloadWorkers),
		httpsource.WithLogger(logger),
	}
	if cfg.Assets.DesignsURL != "" {
		opts = append(opts, httpsource.WithDesignsURL(cfg.Assets.DesignsURL))
	}
	return httpsource.New(cfg.Assets.BaseURL, opts...)
}

// openStore builds the persistent tier and, with redis, the shared cache
// and render locks on the same client.
func (a *app) openStore(cfg config.Config) ([]atelier.Option, error) {
	var opts []atelier.Option
	switch cfg.Store.Backend {
	case config.StoreMemory:
		opts = append(opts, atelier.WithObjectStore(memory.NewStore()))
	case config.StoreFile:
		opts = append(opts, atelier.WithObjectStore(file.New(cfg.Store.Path)))
	case config.StoreSQLite:
		store, err := sqlite.Open(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		opts = append(opts, atelier.WithObjectStore(store))
	case config.StoreRedis:
		opts = append(opts, atelier.WithObjectStore(redis.NewFromClient(a.redisClient(cfg))))
	}

	if cfg.Cache.Shared {
		opts = append(opts, atelier.WithSharedCache(redis.NewByteCache(a.redisClient(cfg), "")))
	}
	if cfg.Redis.Lock {
		opts = append(opts, atelier.WithLocker(redis.NewLocker(a.redisClient(cfg), "atelier:")))
	}
	return opts, nil
}

func (a *app) redisClient(cfg config.Config) *goredis.Client {
	if a.rdb == nil {
		a.rdb = goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		a.closers = append(a.closers, a.rdb.Close)
	}
	return a.rdb
}

// Close releases the stores and clients of the app.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func sweepInterval(cfg config.Config) time.Duration {
	d, _ := cfg.SweepEvery()
	return d
}
