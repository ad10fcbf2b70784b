package atelier

import (
	"log/slog"
	"time"

	"github.com/aretw0/atelier/pkg/domain"
	"github.com/aretw0/atelier/pkg/ports"
	"go.opentelemetry.io/otel/trace"
)

// PersistPolicy decides whether a render is written to the ObjectStore.
type PersistPolicy func(req domain.RenderRequest) bool

// PersistAll stores every render.
func PersistAll(domain.RenderRequest) bool { return true }

// PersistModesOnly stores only renders with at least one mode flag set.
func PersistModesOnly(req domain.RenderRequest) bool { return req.Modes.Any() }

type settings struct {
	traits      ports.TraitSource
	catalog     ports.TraitCatalog
	raster      ports.Rasterizer
	gif         ports.GIFEncoder
	delegate    ports.RenderDelegate
	store       ports.ObjectStore
	shared      ports.ByteCache
	locker      ports.DistributedLocker
	persist     PersistPolicy
	hooks       domain.LifecycleHooks
	tracer      trace.TracerProvider
	logger      *slog.Logger
	now         func() time.Time
	size        int
	rasterCap   int
	frameCap    int
	samuraiBase int
	preload     int
}

// Option defines a functional option for configuring the Engine.
type Option func(*settings)

// WithTraitSource sets the token read model used by RequestFor.
func WithTraitSource(src ports.TraitSource) Option {
	return func(s *settings) {
		s.traits = src
	}
}

// WithCatalog enables animated trait detection.
func WithCatalog(c ports.TraitCatalog) Option {
	return func(s *settings) {
		s.catalog = c
	}
}

// WithRasterizer replaces the SVG rasterizer.
func WithRasterizer(r ports.Rasterizer) Option {
	return func(s *settings) {
		s.raster = r
	}
}

// WithGIFEncoder replaces the GIF encoder.
func WithGIFEncoder(g ports.GIFEncoder) Option {
	return func(s *settings) {
		s.gif = g
	}
}

// WithDelegate hands renders to a remote worker first.
func WithDelegate(d ports.RenderDelegate) Option {
	return func(s *settings) {
		s.delegate = d
	}
}

// WithObjectStore adds the persistent cache tier.
func WithObjectStore(store ports.ObjectStore) Option {
	return func(s *settings) {
		s.store = store
	}
}

// WithSharedCache adds a cache tier shared between replicas.
func WithSharedCache(bc ports.ByteCache) Option {
	return func(s *settings) {
		s.shared = bc
	}
}

// WithLocker coordinates identical renders across replicas.
func WithLocker(l ports.DistributedLocker) Option {
	return func(s *settings) {
		s.locker = l
	}
}

// WithPersistPolicy gates the ObjectStore per request (default PersistAll).
func WithPersistPolicy(p PersistPolicy) Option {
	return func(s *settings) {
		s.persist = p
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *settings) {
		s.hooks = hooks
	}
}

// WithTracerProvider sets the OpenTelemetry provider (default: global).
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *settings) {
		s.tracer = tp
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithClock injects the time source of the caches.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		s.now = now
	}
}

// WithCanvasSize overrides the 1000px canvas.
func WithCanvasSize(px int) Option {
	return func(s *settings) {
		s.size = px
	}
}

// WithRasterCap bounds the raster cache namespace.
func WithRasterCap(n int) Option {
	return func(s *settings) {
		s.rasterCap = n
	}
}

// WithFrameCap sets the largest LCM kept as a perfect loop.
func WithFrameCap(n int) Option {
	return func(s *settings) {
		s.frameCap = n
	}
}

// WithSamuraiImageBase sets the id of the first SamuraiZERO tag image.
func WithSamuraiImageBase(base int) Option {
	return func(s *settings) {
		s.samuraiBase = base
	}
}

// WithPreloadConcurrency bounds concurrent asset loads.
func WithPreloadConcurrency(n int) Option {
	return func(s *settings) {
		s.preload = n
	}
}
