package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/atelier/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the engine.
type Metrics struct {
	Renders          *prometheus.CounterVec
	RenderDuration   *prometheus.HistogramVec
	CacheLookups     *prometheus.CounterVec
	DelegateRequests *prometheus.CounterVec
	LayersSkipped    prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		Renders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "atelier_renders_total",
				Help: "Total number of renders by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		RenderDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "atelier_render_duration_seconds",
				Help:    "Duration of renders",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
			},
			[]string{"kind"},
		),
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "atelier_cache_lookups_total",
				Help: "Cache lookups by namespace and result",
			},
			[]string{"namespace", "result"},
		),
		DelegateRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "atelier_delegate_requests_total",
				Help: "External render attempts by outcome",
			},
			[]string{"outcome"},
		),
		LayersSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "atelier_layers_skipped_total",
			Help: "Layers dropped because their asset was unavailable",
		}),
	}
	reg.MustRegister(m.Renders, m.RenderDuration, m.CacheLookups, m.DelegateRequests, m.LayersSkipped)
	return m
}

// Hooks returns lifecycle hooks that record into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRenderDone: func(ctx context.Context, e *domain.RenderEvent) {
			m.Renders.WithLabelValues(e.Kind, e.Outcome).Inc()
			m.RenderDuration.WithLabelValues(e.Kind).Observe(e.Duration.Seconds())
		},
		OnCacheLookup: func(ctx context.Context, e *domain.CacheEvent) {
			result := "miss"
			if e.Hit {
				result = "hit"
			}
			m.CacheLookups.WithLabelValues(e.Namespace, result).Inc()
		},
		OnLayerSkipped: func(ctx context.Context, e *domain.LayerEvent) {
			m.LayersSkipped.Inc()
		},
		OnDelegate: func(ctx context.Context, e *domain.DelegateEvent) {
			outcome := "ok"
			if !e.OK {
				outcome = "error"
			}
			m.DelegateRequests.WithLabelValues(outcome).Inc()
		},
	}
}

// Handler serves the collectors of g in the Prometheus text format.
// A nil g uses prometheus.DefaultGatherer.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
