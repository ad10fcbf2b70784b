package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aretw0/atelier/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnRenderDone(ctx, &domain.RenderEvent{Kind: domain.KindStatic, Outcome: "local", Duration: 20 * time.Millisecond})
	hooks.OnRenderDone(ctx, &domain.RenderEvent{Kind: domain.KindStatic, Outcome: "cache"})
	hooks.OnCacheLookup(ctx, &domain.CacheEvent{Namespace: "render", Hit: true})
	hooks.OnCacheLookup(ctx, &domain.CacheEvent{Namespace: "render"})
	hooks.OnCacheLookup(ctx, &domain.CacheEvent{Namespace: "render"})
	hooks.OnLayerSkipped(ctx, &domain.LayerEvent{})
	hooks.OnDelegate(ctx, &domain.DelegateEvent{OK: false})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Renders.WithLabelValues(domain.KindStatic, "local")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Renders.WithLabelValues(domain.KindStatic, "cache")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("render", "hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("render", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LayersSkipped))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DelegateRequests.WithLabelValues("error")))

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "atelier_renders_total")
}

func TestChain(t *testing.T) {
	var calls []string
	a := domain.LifecycleHooks{OnRenderStart: func(context.Context, *domain.RenderEvent) { calls = append(calls, "a") }}
	b := domain.LifecycleHooks{
		OnRenderStart: func(context.Context, *domain.RenderEvent) { calls = append(calls, "b") },
		OnDelegate:    func(context.Context, *domain.DelegateEvent) { calls = append(calls, "delegate") },
	}
	h := Chain(a, domain.LifecycleHooks{}, b)
	h.OnRenderStart(context.Background(), &domain.RenderEvent{})
	h.OnDelegate(context.Background(), &domain.DelegateEvent{})
	assert.Equal(t, []string{"a", "b", "delegate"}, calls)
	assert.Nil(t, h.OnCacheLookup)
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	h := LogHooks(logger)
	h.OnRenderDone(context.Background(), &domain.RenderEvent{EventBase: domain.EventBase{TokenID: 5}, Outcome: "local"})
	h.OnRenderDone(context.Background(), &domain.RenderEvent{Err: errors.New("boom")})
	out := buf.String()
	assert.Contains(t, out, "render done")
	assert.Contains(t, out, "token_id=5")
	assert.Contains(t, out, "render failed")
}

func TestSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	tracer := Tracer(tp)

	_, span := StartSpan(context.Background(), tracer, "paint", 7)
	EndSpan(span, nil)
	_, span = StartSpan(context.Background(), tracer, "delegate", 7)
	EndSpan(span, errors.New("down"))

	ended := sr.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "paint", ended[0].Name())
	assert.Equal(t, codes.Unset, ended[0].Status().Code)
	assert.Equal(t, codes.Error, ended[1].Status().Code)
}
