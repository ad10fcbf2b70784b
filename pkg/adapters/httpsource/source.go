// Package httpsource fetches vector assets over HTTP.
package httpsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/atelier/internal/logging"
	"github.com/aretw0/atelier/pkg/compose"
	"github.com/aretw0/atelier/pkg/domain"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxAssetBytes is the largest asset body accepted.
const DefaultMaxAssetBytes = 10 << 20

// variantLetters are the suffixes probed for animated variants.
const variantLetters = "abcdefghij"

// namedAssetRoot holds skins, serums and other non-numeric assets.
const namedAssetRoot = "traits/"

// Source implements ports.AssetSource against an asset host and an
// external design host.
type Source struct {
	baseURL    string
	designsURL string
	maxBytes   int64
	probes     int
	client     *http.Client
	logger     *slog.Logger
}

// Option configures a Source.
type Option func(*Source)

// WithDesignsURL sets the host of external design ids.
func WithDesignsURL(u string) Option {
	return func(s *Source) { s.designsURL = strings.TrimRight(u, "/") }
}

// WithMaxAssetBytes overrides DefaultMaxAssetBytes.
func WithMaxAssetBytes(n int64) Option {
	return func(s *Source) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Source) {
		if c != nil {
			s.client = c
		}
	}
}

// WithProbeConcurrency bounds the concurrent variant probes.
func WithProbeConcurrency(n int) Option {
	return func(s *Source) {
		if n > 0 {
			s.probes = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Source) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Source rooted at baseURL.
func New(baseURL string, opts ...Option) *Source {
	s := &Source{
		baseURL:  strings.TrimRight(baseURL, "/"),
		maxBytes: DefaultMaxAssetBytes,
		probes:   len(variantLetters),
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.designsURL == "" {
		s.designsURL = s.baseURL
	}
	return s
}

// Fetch loads the asset of layer, trying its fallbacks in order.
// Oversized bodies fail immediately with domain.ErrInputTooLarge.
func (s *Source) Fetch(ctx context.Context, layer domain.TraitLayer) ([]byte, error) {
	var lastErr error
	for _, u := range s.candidates(layer) {
		data, err := s.get(ctx, u)
		if err == nil {
			return data, nil
		}
		if errors.Is(err, domain.ErrInputTooLarge) || ctx.Err() != nil {
			return nil, err
		}
		s.logger.Debug("asset fetch failed", "url", u, "err", err)
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("no location")
	}
	return nil, fmt.Errorf("%w: %s: %v", domain.ErrAssetUnavailable, layer.ID(), lastErr)
}

// candidates lists the URLs of a layer, primary first.
func (s *Source) candidates(layer domain.TraitLayer) []string {
	var urls []string
	add := func(u string) {
		for _, seen := range urls {
			if seen == u {
				return
			}
		}
		urls = append(urls, u)
	}

	if layer.Path != "" {
		add(s.resolve(layer.Source, layer.Path))
	}
	if layer.Fallback != "" {
		add(s.resolve(sourceOf(layer.Fallback), layer.Fallback))
	}
	if layer.Source == domain.SourceAsset {
		if _, ok := domain.TraitID(layer.TraitID); ok {
			add(s.resolve(domain.SourceLocal, compose.LocalPath(layer.TraitID)))
		}
	}
	return urls
}

func (s *Source) resolve(source domain.SourceKind, path string) string {
	switch source {
	case domain.SourceExternal:
		return s.designsURL + "/" + path
	case domain.SourceAsset:
		return s.baseURL + "/" + namedAssetRoot + path
	}
	return s.baseURL + "/" + path
}

// sourceOf classifies a fallback path by its pool prefix.
func sourceOf(path string) domain.SourceKind {
	for _, pool := range []string{"labimages/", "ogpunks/", "samuraizero/"} {
		if strings.HasPrefix(path, pool) {
			return domain.SourceLocal
		}
	}
	return domain.SourceAsset
}

func (s *Source) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %d", u, resp.StatusCode)
	}
	if resp.ContentLength > s.maxBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes", domain.ErrInputTooLarge, u, resp.ContentLength)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", u, err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", domain.ErrInputTooLarge, u, s.maxBytes)
	}
	return data, nil
}

// Variants probes {id}a through {id}j concurrently and returns the ids
// that exist, in letter order. A failed probe counts as absent.
func (s *Source) Variants(ctx context.Context, traitID string) ([]string, error) {
	found := make([]bool, len(variantLetters))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.probes)
	for i, letter := range variantLetters {
		id := traitID + string(letter)
		g.Go(func() error {
			found[i] = s.exists(gctx, s.resolve(domain.SourceLocal, compose.LocalPath(id)))
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var ids []string
	for i, ok := range found {
		if ok {
			ids = append(ids, traitID+string(variantLetters[i]))
		}
	}
	return ids, nil
}

func (s *Source) exists(ctx context.Context, u string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u, nil)
	if err != nil {
		return false
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
