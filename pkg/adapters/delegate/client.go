// Package delegate hands renders to an external render worker over HTTP.
package delegate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/atelier/internal/logging"
	"github.com/aretw0/atelier/pkg/domain"
	"github.com/aretw0/atelier/pkg/ports"
	"github.com/caarlos0/env/v11"
)

const (
	// HeaderRenderTime carries the worker-side render time.
	HeaderRenderTime = "X-Render-Time"
	// HeaderFrameCount carries the number of frames of a GIF render.
	HeaderFrameCount = "X-Frame-Count"

	healthTimeout = 5 * time.Second
	// gifTimeoutFactor stretches the timeout of animated jobs.
	gifTimeoutFactor = 3
)

// Config selects and tunes the external worker.
type Config struct {
	URL       string `env:"EXTERNAL_RENDER_URL"`
	Enabled   bool   `env:"EXTERNAL_RENDER_ENABLED" envDefault:"false"`
	TimeoutMs int    `env:"EXTERNAL_RENDER_TIMEOUT" envDefault:"30000"`
}

// LoadConfigFromEnv reads the EXTERNAL_RENDER_* variables.
func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Timeout is the deadline of a static render.
func (c Config) Timeout() time.Duration {
	if c.TimeoutMs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// Client implements ports.RenderDelegate.
type Client struct {
	cfg    Config
	base   string
	http   *http.Client
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default client. Per-call deadlines still apply.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a delegate client.
func New(cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg:    cfg,
		base:   strings.TrimRight(cfg.URL, "/"),
		http:   &http.Client{},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether jobs should be delegated at all.
func (c *Client) Enabled() bool {
	return c.cfg.Enabled && c.base != ""
}

// Render posts the job to /render, or to /gif for animated jobs.
// Every failure wraps domain.ErrDelegateFailure; deadlines also wrap
// domain.ErrDelegateTimeout.
func (c *Client) Render(ctx context.Context, job ports.RenderJob) ([]byte, ports.DelegateResult, error) {
	if !c.Enabled() {
		return nil, ports.DelegateResult{}, fmt.Errorf("%w: delegate disabled", domain.ErrDelegateFailure)
	}

	endpoint, timeout := "/render", c.cfg.Timeout()
	if job.Animated() {
		endpoint, timeout = "/gif", timeout*gifTimeoutFactor
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return nil, ports.DelegateResult{}, fmt.Errorf("%w: encode job: %v", domain.ErrDelegateFailure, err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, ports.DelegateResult{}, fmt.Errorf("%w: %v", domain.ErrDelegateFailure, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, ports.DelegateResult{}, c.fail(ctx, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, ports.DelegateResult{}, fmt.Errorf("%w: %s returned %d: %s",
			domain.ErrDelegateFailure, endpoint, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ports.DelegateResult{}, c.fail(ctx, endpoint, err)
	}
	if len(body) == 0 {
		return nil, ports.DelegateResult{}, fmt.Errorf("%w: %s returned an empty body", domain.ErrDelegateFailure, endpoint)
	}

	result := ports.DelegateResult{
		RenderTime: parseRenderTime(resp.Header.Get(HeaderRenderTime), time.Since(start)),
	}
	if n, err := strconv.Atoi(resp.Header.Get(HeaderFrameCount)); err == nil {
		result.FrameCount = n
	}
	c.logger.Debug("delegate render done",
		"token_id", job.TokenID, "endpoint", endpoint, "bytes", len(body), "render_time", result.RenderTime)
	return body, result, nil
}

// Health checks GET /health.
func (c *Client) Health(ctx context.Context) error {
	if c.base == "" {
		return fmt.Errorf("%w: no delegate url", domain.ErrDelegateFailure)
	}
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/health", nil)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDelegateFailure, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return c.fail(ctx, "/health", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: /health returned %d", domain.ErrDelegateFailure, resp.StatusCode)
	}
	return nil
}

func (c *Client) fail(ctx context.Context, endpoint string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || isTimeout(err) {
		return fmt.Errorf("%w: %w: %s: %v", domain.ErrDelegateFailure, domain.ErrDelegateTimeout, endpoint, err)
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrDelegateFailure, endpoint, err)
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// parseRenderTime accepts a Go duration ("1.2s") or plain milliseconds.
func parseRenderTime(v string, fallback time.Duration) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if ms, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(ms * float64(time.Millisecond))
	}
	return fallback
}
