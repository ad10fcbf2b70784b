package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/atelier/pkg/domain"
)

// Chain merges hook sets; each callback runs the non-nil callbacks of
// every set in order.
func Chain(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		out.OnRenderStart = chain(out.OnRenderStart, h.OnRenderStart)
		out.OnRenderDone = chain(out.OnRenderDone, h.OnRenderDone)
		out.OnCacheLookup = chain(out.OnCacheLookup, h.OnCacheLookup)
		out.OnLayerSkipped = chain(out.OnLayerSkipped, h.OnLayerSkipped)
		out.OnDelegate = chain(out.OnDelegate, h.OnDelegate)
	}
	return out
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}

// LogHooks logs render outcomes and delegate failures.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRenderDone: func(ctx context.Context, e *domain.RenderEvent) {
			attrs := []any{
				"token_id", e.TokenID,
				"fingerprint", e.Fingerprint,
				"kind", e.Kind,
				"outcome", e.Outcome,
				"duration", e.Duration,
			}
			if e.Err != nil {
				logger.WarnContext(ctx, "render failed", append(attrs, "err", e.Err)...)
				return
			}
			logger.InfoContext(ctx, "render done", attrs...)
		},
		OnDelegate: func(ctx context.Context, e *domain.DelegateEvent) {
			if !e.OK {
				logger.WarnContext(ctx, "external render failed", "token_id", e.TokenID, "err", e.Err)
			}
		},
	}
}
