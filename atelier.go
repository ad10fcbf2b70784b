package atelier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/atelier/internal/logging"
	"github.com/aretw0/atelier/pkg/adapters/raster"
	"github.com/aretw0/atelier/pkg/cache"
	"github.com/aretw0/atelier/pkg/compose"
	"github.com/aretw0/atelier/pkg/composite"
	"github.com/aretw0/atelier/pkg/domain"
	"github.com/aretw0/atelier/pkg/fingerprint"
	"github.com/aretw0/atelier/pkg/framesync"
	"github.com/aretw0/atelier/pkg/observability"
	"github.com/aretw0/atelier/pkg/ports"
	"go.opentelemetry.io/otel/trace"
)

// Render outcomes reported in RenderEvent.Outcome.
const (
	OutcomeCache    = "cache"
	OutcomeDelegate = "delegate"
	OutcomeLocal    = "local"
	OutcomeError    = "error"
)

// Engine is the high-level entry point of the atelier library.
// It wires composition, caching, painting and delegation behind a small API.
type Engine struct {
	composer   *compose.Composer
	compositor *composite.Compositor
	cache      *cache.Manager
	traits     ports.TraitSource
	catalog    ports.TraitCatalog
	watchable  ports.Watchable
	gif        ports.GIFEncoder
	delegate   ports.RenderDelegate
	persist    PersistPolicy
	frameCap   int
	hooks      domain.LifecycleHooks
	tracer     trace.Tracer
	logger     *slog.Logger
}

// New initializes an Engine fetching layer assets from assets.
func New(assets ports.AssetSource, opts ...Option) (*Engine, error) {
	if assets == nil {
		return nil, errors.New("asset source is required")
	}
	s := settings{
		raster:    raster.NewSVG(),
		gif:       raster.NewGIF(),
		persist:   PersistAll,
		now:       time.Now,
		size:      composite.CanvasSize,
		rasterCap: cache.DefaultRasterCap,
		frameCap:  framesync.DefaultCap,
		preload:   composite.DefaultPreloadConcurrency,
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	if s.size <= 0 {
		return nil, fmt.Errorf("invalid canvas size %d", s.size)
	}

	cacheOpts := []cache.Option{
		cache.WithClock(s.now),
		cache.WithRasterCap(s.rasterCap),
		cache.WithHooks(s.hooks),
		cache.WithLogger(s.logger),
	}
	if s.shared != nil {
		cacheOpts = append(cacheOpts, cache.WithSharedCache(s.shared))
	}
	if s.store != nil {
		cacheOpts = append(cacheOpts, cache.WithObjectStore(s.store))
	}
	if s.locker != nil {
		cacheOpts = append(cacheOpts, cache.WithLocker(s.locker))
	}
	mgr := cache.NewManager(cacheOpts...)

	e := &Engine{
		cache:    mgr,
		gif:      s.gif,
		delegate: s.delegate,
		persist:  s.persist,
		frameCap: s.frameCap,
		hooks:    s.hooks,
		tracer:   observability.Tracer(s.tracer),
		logger:   s.logger,
	}
	if s.traits != nil {
		e.traits = cache.NewTraitSource(s.traits, mgr)
	}

	composeOpts := []compose.Option{
		compose.WithSamuraiImageBase(s.samuraiBase),
		compose.WithLogger(s.logger),
	}
	if s.catalog != nil {
		e.catalog = cache.NewCatalog(s.catalog, mgr)
		if w, ok := s.catalog.(ports.Watchable); ok {
			e.watchable = w
		}
		composeOpts = append(composeOpts,
			compose.WithCatalog(e.catalog),
			compose.WithVariantProber(assets),
		)
	}
	e.composer = compose.New(composeOpts...)
	e.compositor = composite.New(assets, s.raster,
		composite.WithRasterCache(mgr.Raster),
		composite.WithSize(s.size),
		composite.WithPreloadConcurrency(s.preload),
		composite.WithHooks(s.hooks),
		composite.WithLogger(s.logger),
	)
	return e, nil
}

func validToken(tokenID int) error {
	if tokenID < 0 {
		return fmt.Errorf("%w: %d", domain.ErrInvalidToken, tokenID)
	}
	return nil
}

// ComputeFingerprint returns the static render fingerprint of req.
func (e *Engine) ComputeFingerprint(req domain.RenderRequest) string {
	return fingerprint.Compute(req, e.composer.Resolve(req))
}

// Plan returns the ordered layers req would be painted from.
func (e *Engine) Plan(ctx context.Context, req domain.RenderRequest) (compose.Plan, error) {
	if err := validToken(req.TokenID); err != nil {
		return compose.Plan{}, err
	}
	return e.composer.Compose(ctx, req)
}

// ComposeStaticRender returns the PNG of req. Cached artifacts are served
// first; on a miss the delegate is tried before painting locally, unless
// req asks for effects the delegate cannot draw.
func (e *Engine) ComposeStaticRender(ctx context.Context, req domain.RenderRequest) ([]byte, error) {
	if err := validToken(req.TokenID); err != nil {
		return nil, err
	}
	resolved := e.composer.Resolve(req)
	fp := fingerprint.Compute(req, resolved)
	fetch := cache.FetchRequest{
		Key:     fingerprint.BuildFilename(req.TokenID, fp, fingerprint.ExtPNG),
		TokenID: req.TokenID,
		Persist: e.persist(req),
	}
	return e.render(ctx, domain.KindStatic, fetch, fp, func(ctx context.Context) ([]byte, string, error) {
		if delegable(req) {
			if data, ok := e.tryDelegate(ctx, buildJob(req, resolved)); ok {
				return data, OutcomeDelegate, nil
			}
		}
		data, err := e.renderStatic(ctx, req)
		return data, OutcomeLocal, err
	})
}

func (e *Engine) renderStatic(ctx context.Context, req domain.RenderRequest) ([]byte, error) {
	plan, err := e.compose(ctx, req)
	if err != nil {
		return nil, err
	}
	paintCtx, span := observability.StartSpan(ctx, e.tracer, "atelier.paint", req.TokenID)
	loaded, err := e.compositor.Preload(paintCtx, req.TokenID, plan.Layers, false)
	if err != nil {
		observability.EndSpan(span, err)
		return nil, err
	}
	img, err := e.compositor.Render(paintCtx, loaded, domain.Frame{}, req.Modes)
	observability.EndSpan(span, err)
	if err != nil {
		return nil, err
	}
	return composite.EncodePNG(img)
}

func (e *Engine) compose(ctx context.Context, req domain.RenderRequest) (compose.Plan, error) {
	ctx, span := observability.StartSpan(ctx, e.tracer, "atelier.compose", req.TokenID)
	plan, err := e.composer.Compose(ctx, req)
	observability.EndSpan(span, err)
	return plan, err
}

// ComposeTraitRender returns a single trait painted on a transparent canvas.
func (e *Engine) ComposeTraitRender(ctx context.Context, traitID string) ([]byte, error) {
	if traitID == "" || strings.ContainsAny(traitID, `/\.`) {
		return nil, fmt.Errorf("%w: trait id %q", domain.ErrInvalidToken, traitID)
	}
	fp := fingerprint.TraitHash(traitID)
	fetch := cache.FetchRequest{
		Key:     fingerprint.TraitFilename(traitID, fp),
		Custom:  true,
		Persist: true,
	}
	return e.render(ctx, domain.KindTrait, fetch, fp, func(ctx context.Context) ([]byte, string, error) {
		source, path := compose.Route(traitID)
		layer := domain.TraitLayer{TraitID: traitID, Source: source, Path: path}
		if e.catalog != nil {
			if info, err := e.catalog.Lookup(ctx, traitID); err == nil {
				layer.Category = info.Category
			}
		}
		loaded, err := e.compositor.Preload(ctx, 0, []domain.TraitLayer{layer}, false)
		if err != nil {
			return nil, OutcomeLocal, err
		}
		img, err := e.compositor.Paint(ctx, loaded, domain.Frame{})
		if err != nil {
			return nil, OutcomeLocal, err
		}
		data, err := composite.EncodePNG(img)
		return data, OutcomeLocal, err
	})
}

type computeFunc func(ctx context.Context) ([]byte, string, error)

// render runs one cached render and reports it through the hooks.
func (e *Engine) render(ctx context.Context, kind string, fetch cache.FetchRequest, fp string, compute computeFunc) ([]byte, error) {
	start := time.Now()
	if e.hooks.OnRenderStart != nil {
		e.hooks.OnRenderStart(ctx, &domain.RenderEvent{
			EventBase: domain.EventBase{Timestamp: start, Type: domain.EventRenderStart, TokenID: fetch.TokenID, Fingerprint: fp},
			Kind:      kind,
		})
	}

	outcome := OutcomeCache
	data, _, err := e.cache.Fetch(ctx, fetch, func(ctx context.Context) ([]byte, error) {
		d, o, err := compute(ctx)
		outcome = o
		return d, err
	})
	if err != nil {
		outcome = OutcomeError
	}

	if e.hooks.OnRenderDone != nil {
		e.hooks.OnRenderDone(ctx, &domain.RenderEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventRenderDone, TokenID: fetch.TokenID, Fingerprint: fp},
			Kind:      kind,
			Outcome:   outcome,
			Duration:  time.Since(start),
			Err:       err,
		})
	}
	if err != nil {
		return nil, err
	}
	e.logger.Debug("render served", "token_id", fetch.TokenID, "fingerprint", fp, "kind", kind, "outcome", outcome)
	return data, nil
}

// tryDelegate hands job to the remote worker. A false result means the
// caller renders locally.
func (e *Engine) tryDelegate(ctx context.Context, job ports.RenderJob) ([]byte, bool) {
	if e.delegate == nil || !e.delegate.Enabled() {
		return nil, false
	}
	start := time.Now()
	spanCtx, span := observability.StartSpan(ctx, e.tracer, "atelier.delegate", job.TokenID)
	data, res, err := e.delegate.Render(spanCtx, job)
	observability.EndSpan(span, err)

	if e.hooks.OnDelegate != nil {
		e.hooks.OnDelegate(ctx, &domain.DelegateEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventDelegateReply, TokenID: job.TokenID},
			OK:        err == nil,
			Duration:  time.Since(start),
			Err:       err,
		})
	}
	if err != nil {
		e.logger.Warn("external render failed, rendering locally", "token_id", job.TokenID, "err", err)
		return nil, false
	}
	e.logger.Debug("external render done", "token_id", job.TokenID, "render_time", res.RenderTime, "frames", res.FrameCount)
	return data, true
}

// RequestFor builds the render request of a token from the trait source.
func (e *Engine) RequestFor(ctx context.Context, tokenID int, modes domain.Modes) (domain.RenderRequest, error) {
	if err := validToken(tokenID); err != nil {
		return domain.RenderRequest{}, err
	}
	if e.traits == nil {
		return domain.RenderRequest{}, errors.New("no trait source configured")
	}
	traits, err := e.traits.EquippedTraits(ctx, tokenID)
	if err != nil {
		return domain.RenderRequest{}, fmt.Errorf("read traits of %d: %w", tokenID, err)
	}
	serums, err := e.traits.SerumHistory(ctx, tokenID)
	if err != nil {
		return domain.RenderRequest{}, fmt.Errorf("read serum history of %d: %w", tokenID, err)
	}
	data, err := e.traits.TokenData(ctx, tokenID)
	if err != nil {
		return domain.RenderRequest{}, fmt.Errorf("read token data of %d: %w", tokenID, err)
	}
	skin, err := e.traits.Skin(ctx, tokenID)
	if err != nil {
		return domain.RenderRequest{}, fmt.Errorf("read skin of %d: %w", tokenID, err)
	}
	tag, err := e.traits.Tag(ctx, tokenID)
	if err != nil {
		return domain.RenderRequest{}, fmt.Errorf("read tag of %d: %w", tokenID, err)
	}
	return domain.RenderRequest{
		TokenID:         tokenID,
		Generation:      data.Generation,
		Skin:            skin,
		Serums:          serums,
		Traits:          traits,
		Modes:           modes,
		Tag:             tag,
		MutationLevel:   data.MutationLevel,
		CanReplicate:    data.CanReplicate,
		HasBeenModified: data.HasBeenModified,
	}, nil
}

// Invalidate drops the cached renders and trait reads of one token.
func (e *Engine) Invalidate(ctx context.Context, tokenID int) (int, error) {
	if err := validToken(tokenID); err != nil {
		return 0, err
	}
	return e.cache.InvalidateToken(ctx, tokenID)
}

// InvalidateRange drops every token in [start, end].
func (e *Engine) InvalidateRange(ctx context.Context, start, end int) (int, error) {
	if err := validToken(start); err != nil {
		return 0, err
	}
	return e.cache.InvalidateRange(ctx, start, end)
}

// InvalidateAll clears every cache namespace.
func (e *Engine) InvalidateAll(ctx context.Context) (int, error) {
	return e.cache.InvalidateAll(ctx)
}

// Stats returns per-namespace cache statistics.
func (e *Engine) Stats() []cache.Stats {
	return e.cache.Stats()
}

// StartSweeper drops expired cache entries every interval until ctx is done.
func (e *Engine) StartSweeper(ctx context.Context, interval time.Duration) {
	e.cache.StartSweeper(ctx, interval)
}

// Watch invalidates the cached metadata of traits that change in the
// catalog and forwards their ids. The channel must be drained; it closes
// when ctx is done.
func (e *Engine) Watch(ctx context.Context) (<-chan string, error) {
	if e.watchable == nil {
		return nil, errors.New("current catalog does not support watching")
	}
	changes, err := e.watchable.Watch(ctx)
	if err != nil {
		return nil, err
	}
	out := make(chan string, 16)
	go func() {
		defer close(out)
		for id := range changes {
			e.cache.Metadata.Invalidate(cache.MetadataKey(id))
			e.logger.Info("trait metadata changed", "trait_id", id)
			select {
			case out <- id:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
