package httpsource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/aretw0/atelier/pkg/domain"
	"github.com/aretw0/atelier/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.AssetSource = (*Source)(nil)

// assetHost serves a fixed set of paths and records every request.
type assetHost struct {
	mu     sync.Mutex
	assets map[string]string
	seen   []string
}

func (h *assetHost) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	h.seen = append(h.seen, r.Method+" "+r.URL.Path)
	body, ok := h.assets[r.URL.Path]
	h.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	_, _ = w.Write([]byte(body))
}

func newHost(t *testing.T, assets map[string]string) (*assetHost, *httptest.Server) {
	h := &assetHost{assets: assets}
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return h, srv
}

func TestFetch_Routing(t *testing.T) {
	_, assets := newHost(t, map[string]string{
		"/labimages/12.svg":            "local",
		"/ogpunks/100002.svg":          "secondary",
		"/samuraizero/512.svg":         "samurai",
		"/traits/ADRIAN/GEN1-Dark.svg": "named",
	})
	_, designs := newHost(t, map[string]string{"/31000.svg": "external"})
	src := New(assets.URL, WithDesignsURL(designs.URL+"/"))
	ctx := context.Background()

	tests := []struct {
		layer domain.TraitLayer
		want  string
	}{
		{domain.TraitLayer{Category: "EYES", TraitID: "12", Source: domain.SourceLocal, Path: "labimages/12.svg"}, "local"},
		{domain.TraitLayer{Category: "NECK", TraitID: "100002", Source: domain.SourceSecondary, Path: "ogpunks/100002.svg"}, "secondary"},
		{domain.TraitLayer{Category: "TOP", TraitID: "512", Source: domain.SourceSamurai, Path: "samuraizero/512.svg"}, "samurai"},
		{domain.TraitLayer{Category: "HAT", TraitID: "31000", Source: domain.SourceExternal, Path: "31000.svg"}, "external"},
		{domain.TraitLayer{Category: "BASE", Source: domain.SourceAsset, Path: "ADRIAN/GEN1-Dark.svg"}, "named"},
	}
	for _, tt := range tests {
		data, err := src.Fetch(ctx, tt.layer)
		require.NoError(t, err, tt.layer.ID())
		assert.Equal(t, tt.want, string(data))
	}
}

func TestFetch_Fallbacks(t *testing.T) {
	host, srv := newHost(t, map[string]string{
		"/traits/ADRIAN/GEN0-Medium.svg": "gen0",
		"/labimages/48.svg":              "gear",
	})
	src := New(srv.URL)
	ctx := context.Background()

	data, err := src.Fetch(ctx, domain.TraitLayer{
		Category: "BASE", Source: domain.SourceAsset,
		Path: "ADRIAN/GEN3-Medium.svg", Fallback: "ADRIAN/GEN0-Medium.svg",
	})
	require.NoError(t, err)
	assert.Equal(t, "gen0", string(data))

	// Named trait assets fall back to the numbered pool.
	data, err = src.Fetch(ctx, domain.TraitLayer{
		Category: "GEAR", TraitID: "48", Source: domain.SourceAsset, Path: "GEAR/48.svg",
	})
	require.NoError(t, err)
	assert.Equal(t, "gear", string(data))
	assert.Contains(t, host.seen, "GET /traits/GEAR/48.svg")

	_, err = src.Fetch(ctx, domain.TraitLayer{Category: "HAT", TraitID: "999", Source: domain.SourceLocal, Path: "labimages/999.svg"})
	assert.ErrorIs(t, err, domain.ErrAssetUnavailable)
}

func TestFetch_SizeGuard(t *testing.T) {
	_, srv := newHost(t, map[string]string{
		"/labimages/1.svg": strings.Repeat("x", 64),
		"/labimages/2.svg": strings.Repeat("x", 16),
	})
	src := New(srv.URL, WithMaxAssetBytes(32))
	ctx := context.Background()

	_, err := src.Fetch(ctx, domain.TraitLayer{TraitID: "1", Source: domain.SourceLocal, Path: "labimages/1.svg", Fallback: "labimages/2.svg"})
	assert.ErrorIs(t, err, domain.ErrInputTooLarge)

	data, err := src.Fetch(ctx, domain.TraitLayer{TraitID: "2", Source: domain.SourceLocal, Path: "labimages/2.svg"})
	require.NoError(t, err)
	assert.Len(t, data, 16)
}

func TestFetch_SizeGuardWithoutContentLength(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		for range 8 {
			_, _ = w.Write([]byte("xxxxxxxx"))
			flusher.Flush()
		}
	}))
	defer srv.Close()

	src := New(srv.URL, WithMaxAssetBytes(32))
	_, err := src.Fetch(context.Background(), domain.TraitLayer{Source: domain.SourceLocal, Path: "labimages/1.svg"})
	assert.ErrorIs(t, err, domain.ErrInputTooLarge)
}

func TestVariants(t *testing.T) {
	host, srv := newHost(t, map[string]string{
		"/labimages/60a.svg": "a",
		"/labimages/60c.svg": "c",
		"/labimages/60j.svg": "j",
	})
	src := New(srv.URL, WithProbeConcurrency(3))

	ids, err := src.Variants(context.Background(), "60")
	require.NoError(t, err)
	assert.Equal(t, []string{"60a", "60c", "60j"}, ids)
	assert.Len(t, host.seen, 10)
	for _, req := range host.seen {
		assert.True(t, strings.HasPrefix(req, "HEAD "), req)
	}

	ids, err = src.Variants(context.Background(), "61")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestVariants_Canceled(t *testing.T) {
	_, srv := newHost(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(srv.URL).Variants(ctx, "60")
	assert.ErrorIs(t, err, context.Canceled)
}
