// Package config loads the atelier service configuration from a file and
// the environment.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/atelier/pkg/adapters/delegate"
	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

// Config is the full service configuration. File values are overridden by
// ATELIER_* variables, and those by command flags.
type Config struct {
	Listen    string `yaml:"listen" json:"listen" toml:"listen" env:"LISTEN"`
	LogLevel  string `yaml:"log_level" json:"log_level" toml:"log_level" env:"LOG_LEVEL"`
	LogFormat string `yaml:"log_format" json:"log_format" toml:"log_format" env:"LOG_FORMAT"`
	Metrics   bool   `yaml:"metrics" json:"metrics" toml:"metrics" env:"METRICS"`

	Assets   Assets   `yaml:"assets" json:"assets" toml:"assets" envPrefix:"ASSETS_"`
	Render   Render   `yaml:"render" json:"render" toml:"render" envPrefix:"RENDER_"`
	Cache    Cache    `yaml:"cache" json:"cache" toml:"cache" envPrefix:"CACHE_"`
	Store    Store    `yaml:"store" json:"store" toml:"store" envPrefix:"STORE_"`
	Redis    Redis    `yaml:"redis" json:"redis" toml:"redis" envPrefix:"REDIS_"`
	Catalog  Catalog  `yaml:"catalog" json:"catalog" toml:"catalog" envPrefix:"CATALOG_"`
	Tokens   string   `yaml:"tokens" json:"tokens" toml:"tokens" env:"TOKENS"`
	Delegate Delegate `yaml:"delegate" json:"delegate" toml:"delegate"`
}

// Assets locates the vector asset hosts.
type Assets struct {
	BaseURL    string `yaml:"base_url" json:"base_url" toml:"base_url" env:"BASE_URL"`
	DesignsURL string `yaml:"designs_url" json:"designs_url" toml:"designs_url" env:"DESIGNS_URL"`
	MaxBytes   int64  `yaml:"max_bytes" json:"max_bytes" toml:"max_bytes" env:"MAX_BYTES"`
	// Dir serves assets from a local directory instead of BaseURL.
	Dir string `yaml:"dir" json:"dir" toml:"dir" env:"DIR"`
}

// Render tunes painting.
type Render struct {
	CanvasSize       int  `yaml:"canvas_size" json:"canvas_size" toml:"canvas_size" env:"CANVAS_SIZE"`
	FrameCap         int  `yaml:"frame_cap" json:"frame_cap" toml:"frame_cap" env:"FRAME_CAP"`
	SamuraiImageBase int  `yaml:"samurai_image_base" json:"samurai_image_base" toml:"samurai_image_base" env:"SAMURAI_IMAGE_BASE"`
	PersistModesOnly bool `yaml:"persist_modes_only" json:"persist_modes_only" toml:"persist_modes_only" env:"PERSIST_MODES_ONLY"`
	PreloadWorkers   int  `yaml:"preload_workers" json:"preload_workers" toml:"preload_workers" env:"PRELOAD_WORKERS"`
}

// Cache tunes the in-memory namespaces.
type Cache struct {
	RasterCap     int    `yaml:"raster_cap" json:"raster_cap" toml:"raster_cap" env:"RASTER_CAP"`
	SweepInterval string `yaml:"sweep_interval" json:"sweep_interval" toml:"sweep_interval" env:"SWEEP_INTERVAL"`
	Shared        bool   `yaml:"shared" json:"shared" toml:"shared" env:"SHARED"`
}

// Store selects the persistent artifact tier.
type Store struct {
	Backend string `yaml:"backend" json:"backend" toml:"backend" env:"BACKEND"`
	// Path is the directory of the file backend or the database of sqlite.
	Path string `yaml:"path" json:"path" toml:"path" env:"PATH"`
}

// Redis configures the redis backend, shared tier and render locks.
type Redis struct {
	Addr     string `yaml:"addr" json:"addr" toml:"addr" env:"ADDR"`
	Password string `yaml:"password" json:"password" toml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" json:"db" toml:"db" env:"DB"`
	Lock     bool   `yaml:"lock" json:"lock" toml:"lock" env:"LOCK"`
}

// Catalog configures the loam trait catalog.
type Catalog struct {
	Dir   string `yaml:"dir" json:"dir" toml:"dir" env:"DIR"`
	Watch bool   `yaml:"watch" json:"watch" toml:"watch" env:"WATCH"`
}

// Delegate mirrors delegate.Config; its variables keep the EXTERNAL_RENDER_ names.
type Delegate struct {
	URL       string `yaml:"url" json:"url" toml:"url" env:"EXTERNAL_RENDER_URL"`
	Enabled   bool   `yaml:"enabled" json:"enabled" toml:"enabled" env:"EXTERNAL_RENDER_ENABLED"`
	TimeoutMs int    `yaml:"timeout_ms" json:"timeout_ms" toml:"timeout_ms" env:"EXTERNAL_RENDER_TIMEOUT"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Listen:    ":8080",
		LogLevel:  "info",
		LogFormat: "text",
		Metrics:   true,
		Assets: Assets{
			MaxBytes: 10 << 20,
		},
		Render: Render{
			CanvasSize:     1000,
			FrameCap:       15,
			PreloadWorkers: 8,
		},
		Cache: Cache{
			RasterCap:     500,
			SweepInterval: "5m",
		},
		Store:    Store{Backend: StoreFile, Path: "renders"},
		Redis:    Redis{Addr: "localhost:6379"},
		Delegate: Delegate{TimeoutMs: 30000},
	}
}

// Load reads the configuration with Read and validates it.
func Load(path string) (Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Read decodes path (when not empty) over the defaults, then applies the
// environment. The file format follows the extension. The result is not
// validated, so callers can apply their own overrides first.
func Read(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "ATELIER_"}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	// The delegate variables are not prefixed.
	if err := env.Parse(&cfg.Delegate); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".json":
		err = json.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("unsupported config format %q", ext)
	}
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// Validate checks values that cannot be fixed by defaults.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case StoreMemory, StoreFile, StoreRedis, StoreSQLite:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Render.CanvasSize <= 0 {
		return fmt.Errorf("canvas size must be positive, got %d", c.Render.CanvasSize)
	}
	if c.Assets.BaseURL == "" && c.Assets.Dir == "" {
		return fmt.Errorf("one of assets.base_url or assets.dir is required")
	}
	if _, err := c.SweepEvery(); err != nil {
		return err
	}
	return nil
}

// SweepEvery parses Cache.SweepInterval. Zero disables sweeping.
func (c Config) SweepEvery() (time.Duration, error) {
	if c.Cache.SweepInterval == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Cache.SweepInterval)
	if err != nil {
		return 0, fmt.Errorf("invalid cache.sweep_interval: %w", err)
	}
	return d, nil
}

// DelegateConfig converts the delegate section for the delegate adapter.
func (c Config) DelegateConfig() delegate.Config {
	return delegate.Config{
		URL:       c.Delegate.URL,
		Enabled:   c.Delegate.Enabled,
		TimeoutMs: c.Delegate.TimeoutMs,
	}
}
