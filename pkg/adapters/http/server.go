package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/atelier"
	"github.com/aretw0/atelier/internal/logging"
	"github.com/aretw0/atelier/pkg/cache"
	"github.com/aretw0/atelier/pkg/compose"
	"github.com/aretw0/atelier/pkg/domain"
	"github.com/aretw0/atelier/pkg/fingerprint"
	"github.com/aretw0/atelier/pkg/motion"
	"github.com/aretw0/atelier/pkg/observability"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/routers"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

//go:embed openapi.yaml
var rawSpec []byte

// MaxBodyBytes bounds JSON request bodies.
const MaxBodyBytes = 1 << 20

// Engine is the part of the atelier engine served over HTTP.
type Engine interface {
	ComposeStaticRender(ctx context.Context, req domain.RenderRequest) ([]byte, error)
	ComposeAnimatedRender(ctx context.Context, req domain.RenderRequest, spec motion.Spec) ([]byte, error)
	ComposeTraitRender(ctx context.Context, traitID string) ([]byte, error)
	ComputeFingerprint(req domain.RenderRequest) string
	Plan(ctx context.Context, req domain.RenderRequest) (compose.Plan, error)
	RequestFor(ctx context.Context, tokenID int, modes domain.Modes) (domain.RenderRequest, error)
	Invalidate(ctx context.Context, tokenID int) (int, error)
	InvalidateRange(ctx context.Context, start, end int) (int, error)
	InvalidateAll(ctx context.Context) (int, error)
	Stats() []cache.Stats
	Watch(ctx context.Context) (<-chan string, error)
}

var _ Engine = (*atelier.Engine)(nil)

// Server serves an Engine.
type Server struct {
	engine   Engine
	doc      *openapi3.T
	router   routers.Router
	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics exposes the collectors of g on /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// LoadSpec parses and validates the embedded OpenAPI document.
func LoadSpec(ctx context.Context) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(rawSpec)
	if err != nil {
		return nil, fmt.Errorf("load openapi spec: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid openapi spec: %w", err)
	}
	return doc, nil
}

// NewHandler creates the HTTP handler for the engine. Every API route is
// validated against the embedded OpenAPI document before it is served.
func NewHandler(engine Engine, opts ...Option) (http.Handler, error) {
	s := &Server{
		engine: engine,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	doc, err := LoadSpec(context.Background())
	if err != nil {
		return nil, err
	}
	router, err := newRouter(doc)
	if err != nil {
		return nil, err
	}
	s.doc, s.router = doc, router

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})
	if s.gatherer != nil {
		r.Handle("/metrics", observability.Handler(s.gatherer))
	}

	r.Group(func(r chi.Router) {
		r.Use(s.validate)
		r.Get("/health", s.GetHealth)
		r.Get("/info", s.GetInfo)
		r.Get("/render/{tokenId}", s.GetRender)
		r.Get("/render/{tokenId}/animated", s.GetAnimatedRender)
		r.Post("/render", s.PostRender)
		r.Post("/animate", s.PostAnimatedRender)
		r.Get("/trait/{traitId}", s.GetTraitRender)
		r.Post("/fingerprint", s.PostFingerprint)
		r.Post("/plan", s.PostPlan)
		r.Get("/cache/stats", s.GetCacheStats)
		r.Post("/cache/invalidate", s.PostCacheInvalidate)
		r.Get("/events", s.SubscribeEvents)
	})
	return enableCORS(r), nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if s.doc.Info != nil {
		apiVersion = s.doc.Info.Version
	}
	s.writeJSON(w, map[string]string{
		"app":         "atelier-http",
		"version":     strings.TrimSpace(atelier.Version),
		"api_version": apiVersion,
	})
}

// GetRender handles GET /render/{tokenId}: the token is read from the
// trait source and rendered with the query modes.
func (s *Server) GetRender(w http.ResponseWriter, r *http.Request) {
	tokenID, err := bindTokenID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	modes, err := bindModes(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	req, err := s.engine.RequestFor(r.Context(), tokenID, modes)
	if err != nil {
		s.fail(w, "read token", tokenID, err)
		return
	}
	req.Messages = r.URL.Query().Get("messages")
	s.renderStatic(w, r, req)
}

// PostRender handles POST /render with an explicit request.
func (s *Server) PostRender(w http.ResponseWriter, r *http.Request) {
	var req domain.RenderRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.renderStatic(w, r, req)
}

func (s *Server) renderStatic(w http.ResponseWriter, r *http.Request, req domain.RenderRequest) {
	data, err := s.engine.ComposeStaticRender(r.Context(), req)
	if err != nil {
		s.fail(w, "render", req.TokenID, err)
		return
	}
	w.Header().Set("X-Render-Fingerprint", s.engine.ComputeFingerprint(req))
	s.writeImage(w, data)
}

// GetAnimatedRender handles GET /render/{tokenId}/animated.
func (s *Server) GetAnimatedRender(w http.ResponseWriter, r *http.Request) {
	tokenID, err := bindTokenID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	modes, err := bindModes(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	spec, err := motion.Decode(animationQuery(r))
	if err != nil {
		s.fail(w, "decode animation", tokenID, err)
		return
	}
	req, err := s.engine.RequestFor(r.Context(), tokenID, modes)
	if err != nil {
		s.fail(w, "read token", tokenID, err)
		return
	}
	s.renderAnimated(w, r, req, spec)
}

type animateBody struct {
	Request   domain.RenderRequest `json:"request"`
	Animation map[string]any       `json:"animation"`
}

// PostAnimatedRender handles POST /animate.
func (s *Server) PostAnimatedRender(w http.ResponseWriter, r *http.Request) {
	var body animateBody
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if body.Animation == nil {
		body.Animation = map[string]any{}
	}
	spec, err := motion.Decode(body.Animation)
	if err != nil {
		s.fail(w, "decode animation", body.Request.TokenID, err)
		return
	}
	s.renderAnimated(w, r, body.Request, spec)
}

func (s *Server) renderAnimated(w http.ResponseWriter, r *http.Request, req domain.RenderRequest, spec motion.Spec) {
	data, err := s.engine.ComposeAnimatedRender(r.Context(), req, spec)
	if err != nil {
		s.fail(w, "animated render", req.TokenID, err)
		return
	}
	s.writeImage(w, data)
}

// GetTraitRender handles GET /trait/{traitId}.
func (s *Server) GetTraitRender(w http.ResponseWriter, r *http.Request) {
	traitID := chi.URLParam(r, "traitId")
	data, err := s.engine.ComposeTraitRender(r.Context(), traitID)
	if err != nil {
		s.fail(w, "trait render", 0, err)
		return
	}
	s.writeImage(w, data)
}

type fingerprintResponse struct {
	Fingerprint string `json:"fingerprint"`
	Filename    string `json:"filename"`
}

// PostFingerprint handles POST /fingerprint.
func (s *Server) PostFingerprint(w http.ResponseWriter, r *http.Request) {
	var req domain.RenderRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	fp := s.engine.ComputeFingerprint(req)
	s.writeJSON(w, fingerprintResponse{
		Fingerprint: fp,
		Filename:    fingerprint.BuildFilename(req.TokenID, fp, fingerprint.ExtPNG),
	})
}

// PostPlan handles POST /plan.
func (s *Server) PostPlan(w http.ResponseWriter, r *http.Request) {
	var req domain.RenderRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	plan, err := s.engine.Plan(r.Context(), req)
	if err != nil {
		s.fail(w, "plan", req.TokenID, err)
		return
	}
	s.writeJSON(w, plan)
}

// GetCacheStats handles GET /cache/stats.
func (s *Server) GetCacheStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]any{"namespaces": s.engine.Stats()})
}

// PostCacheInvalidate handles POST /cache/invalidate. Exactly one of
// token, start/end or all selects what is dropped.
func (s *Server) PostCacheInvalidate(w http.ResponseWriter, r *http.Request) {
	p, err := bindInvalidate(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	var n int
	switch {
	case p.All:
		n, err = s.engine.InvalidateAll(r.Context())
	case p.Token != nil:
		n, err = s.engine.Invalidate(r.Context(), *p.Token)
	case p.Start != nil && p.End != nil:
		n, err = s.engine.InvalidateRange(r.Context(), *p.Start, *p.End)
	default:
		s.writeError(w, http.StatusBadRequest, errors.New("one of token, start and end, or all is required"))
		return
	}
	if err != nil {
		s.fail(w, "invalidate", 0, err)
		return
	}
	s.logger.Info("cache invalidated", "removed", n)
	s.writeJSON(w, map[string]int{"invalidated": n})
}

// SubscribeEvents handles GET /events: trait ids whose metadata changed
// are streamed as server-sent events.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, errors.New("streaming not supported"))
		return
	}
	events, err := s.engine.Watch(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("watch: %w", err))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("sse client disconnected")
			return
		case id, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: trait\ndata: %s\n\n", id)
			flusher.Flush()
		}
	}
}

func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
