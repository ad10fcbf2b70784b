package delegate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/atelier/pkg/domain"
	"github.com/aretw0/atelier/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.RenderDelegate = (*Client)(nil)

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("EXTERNAL_RENDER_URL", "http://worker:9000")
	t.Setenv("EXTERNAL_RENDER_ENABLED", "true")
	t.Setenv("EXTERNAL_RENDER_TIMEOUT", "1500")

	cfg, err := LoadConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, Config{URL: "http://worker:9000", Enabled: true, TimeoutMs: 1500}, cfg)
	assert.Equal(t, 1500*time.Millisecond, cfg.Timeout())
}

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"EXTERNAL_RENDER_URL", "EXTERNAL_RENDER_ENABLED", "EXTERNAL_RENDER_TIMEOUT"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := LoadConfigFromEnv()
	require.NoError(t, err)
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Timeout())
	assert.False(t, New(cfg).Enabled())
}

func TestLoadConfigFromEnv_Invalid(t *testing.T) {
	t.Setenv("EXTERNAL_RENDER_TIMEOUT", "soon")
	_, err := LoadConfigFromEnv()
	assert.Error(t, err)
}

func TestEnabled_RequiresURL(t *testing.T) {
	assert.False(t, New(Config{Enabled: true}).Enabled())
	assert.True(t, New(Config{Enabled: true, URL: "http://x"}).Enabled())
}

func TestRender_Static(t *testing.T) {
	var got ports.RenderJob
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/render", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set(HeaderRenderTime, "250")
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	client := New(Config{URL: srv.URL + "/", Enabled: true, TimeoutMs: 1000})
	job := ports.RenderJob{TokenID: 12, Generation: 1, SkinType: "Dark", FinalTraits: domain.TraitSet{"EYES": "3"}}
	data, result, err := client.Render(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
	assert.Equal(t, 250*time.Millisecond, result.RenderTime)
	assert.Zero(t, result.FrameCount)
	assert.Equal(t, job.FinalTraits, got.FinalTraits)
	assert.Equal(t, 12, got.TokenID)
}

func TestRender_AnimatedUsesGIFEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gif", r.URL.Path)
		// Slower than the static timeout, within the stretched one.
		time.Sleep(150 * time.Millisecond)
		w.Header().Set(HeaderRenderTime, "1.5s")
		w.Header().Set(HeaderFrameCount, "12")
		_, _ = w.Write([]byte("GIF89a"))
	}))
	defer srv.Close()

	client := New(Config{URL: srv.URL, Enabled: true, TimeoutMs: 100})
	job := ports.RenderJob{TokenID: 1, Animation: map[string]any{"kind": "bounce"}}
	data, result, err := client.Render(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, "GIF89a", string(data))
	assert.Equal(t, 1500*time.Millisecond, result.RenderTime)
	assert.Equal(t, 12, result.FrameCount)
}

func TestRender_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		timeout bool
	}{
		{"Status", func(w http.ResponseWriter, r *http.Request) { http.Error(w, "boom", http.StatusBadGateway) }, false},
		{"EmptyBody", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }, false},
		{"Timeout", func(w http.ResponseWriter, r *http.Request) { time.Sleep(300 * time.Millisecond) }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			client := New(Config{URL: srv.URL, Enabled: true, TimeoutMs: 50})
			_, _, err := client.Render(context.Background(), ports.RenderJob{TokenID: 1})
			assert.ErrorIs(t, err, domain.ErrDelegateFailure)
			if tt.timeout {
				assert.ErrorIs(t, err, domain.ErrDelegateTimeout)
			} else {
				assert.NotErrorIs(t, err, domain.ErrDelegateTimeout)
			}
		})
	}
}

func TestRender_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, _, err := New(Config{URL: url, Enabled: true}).Render(context.Background(), ports.RenderJob{})
	assert.ErrorIs(t, err, domain.ErrDelegateFailure)
}

func TestRender_Disabled(t *testing.T) {
	_, _, err := New(Config{URL: "http://x"}).Render(context.Background(), ports.RenderJob{})
	assert.ErrorIs(t, err, domain.ErrDelegateFailure)
}

func TestHealth(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		if !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	client := New(Config{URL: srv.URL})
	assert.NoError(t, client.Health(context.Background()))
	healthy.Store(false)
	assert.ErrorIs(t, client.Health(context.Background()), domain.ErrDelegateFailure)
}
