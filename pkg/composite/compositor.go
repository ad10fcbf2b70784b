// Package composite rasterizes composition plans and paints them onto a
// fixed-size canvas, one image per frame.
package composite

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"math"
	"time"

	"github.com/anthonynsimon/bild/transform"
	"github.com/aretw0/atelier/internal/logging"
	"github.com/aretw0/atelier/pkg/cache"
	"github.com/aretw0/atelier/pkg/compose"
	"github.com/aretw0/atelier/pkg/domain"
	"github.com/aretw0/atelier/pkg/ports"
	"github.com/h2non/filetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
	"golang.org/x/sync/errgroup"
)

// CanvasSize is the default canvas edge in pixels.
const CanvasSize = 1000

// DefaultPreloadConcurrency bounds concurrent asset loads.
const DefaultPreloadConcurrency = 8

// Compositor loads layer assets and paints them.
type Compositor struct {
	assets  ports.AssetSource
	raster  ports.Rasterizer
	rasters *cache.Namespace[image.Image]
	size    int
	preload int
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
}

// Option configures a Compositor.
type Option func(*Compositor)

// WithRasterCache memoizes rasterizations by vector digest.
func WithRasterCache(ns *cache.Namespace[image.Image]) Option {
	return func(c *Compositor) { c.rasters = ns }
}

// WithSize overrides CanvasSize.
func WithSize(px int) Option {
	return func(c *Compositor) {
		if px > 0 {
			c.size = px
		}
	}
}

// WithPreloadConcurrency overrides DefaultPreloadConcurrency.
func WithPreloadConcurrency(n int) Option {
	return func(c *Compositor) {
		if n > 0 {
			c.preload = n
		}
	}
}

// WithHooks reports skipped layers.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(c *Compositor) { c.hooks = h }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Compositor) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Compositor.
func New(assets ports.AssetSource, raster ports.Rasterizer, opts ...Option) *Compositor {
	c := &Compositor{
		assets:  assets,
		raster:  raster,
		size:    CanvasSize,
		preload: DefaultPreloadConcurrency,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Size is the canvas edge in pixels.
func (c *Compositor) Size() int {
	return c.size
}

// Loaded is a layer with its rasters. Animated layers carry one raster per
// variant; every other layer carries exactly one.
type Loaded struct {
	Layer  domain.TraitLayer
	Images []image.Image
}

// At returns the raster of a variant, wrapping around the variant count.
func (l Loaded) At(variant int) image.Image {
	if len(l.Images) == 0 {
		return nil
	}
	n := len(l.Images)
	return l.Images[((variant%n)+n)%n]
}

// Load fetches and rasterizes a single layer asset. PNG assets are decoded
// directly and scaled to the canvas.
func (c *Compositor) Load(ctx context.Context, layer domain.TraitLayer) (image.Image, error) {
	data, err := c.assets.Fetch(ctx, layer)
	if err != nil {
		return nil, err
	}
	return c.decode(ctx, data)
}

func (c *Compositor) decode(ctx context.Context, data []byte) (image.Image, error) {
	if filetype.Is(data, "png") {
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: decode png: %v", domain.ErrAssetUnavailable, err)
		}
		if b := img.Bounds(); b.Dx() != c.size || b.Dy() != c.size {
			img = transform.Resize(img, c.size, c.size, transform.Linear)
		}
		return img, nil
	}

	key := cache.RasterKey(data, c.size)
	if c.rasters != nil {
		if img, ok := c.rasters.Get(key); ok {
			return img, nil
		}
	}
	img, err := c.raster.Rasterize(ctx, data, c.size)
	if err != nil {
		return nil, err
	}
	if c.rasters != nil {
		c.rasters.Set(key, img, cache.RasterTTL)
	}
	return img, nil
}

// Preload loads every layer concurrently. When animate is set, animated
// layers load one raster per variant. Layers whose asset is unavailable
// are skipped and reported; an oversized asset aborts the whole preload.
func (c *Compositor) Preload(ctx context.Context, tokenID int, layers []domain.TraitLayer, animate bool) ([]Loaded, error) {
	loaded := make([]Loaded, len(layers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.preload)

	for i, layer := range layers {
		if animate && layer.Animated && len(layer.Variants) > 0 {
			loaded[i] = Loaded{Layer: layer, Images: make([]image.Image, len(layer.Variants))}
			for v, variantID := range layer.Variants {
				variant := layer
				variant.TraitID = variantID
				variant.Source, variant.Path = compose.Route(variantID)
				variant.Fallback = ""
				g.Go(func() error {
					return c.preloadOne(gctx, tokenID, variant, &loaded[i].Images[v])
				})
			}
			continue
		}
		loaded[i] = Loaded{Layer: layer, Images: make([]image.Image, 1)}
		g.Go(func() error {
			return c.preloadOne(gctx, tokenID, layer, &loaded[i].Images[0])
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Loaded, 0, len(loaded))
	for _, l := range loaded {
		images := l.Images[:0]
		for _, img := range l.Images {
			if img != nil {
				images = append(images, img)
			}
		}
		if len(images) == 0 {
			continue
		}
		l.Images = images
		out = append(out, l)
	}
	return out, nil
}

func (c *Compositor) preloadOne(ctx context.Context, tokenID int, layer domain.TraitLayer, dst *image.Image) error {
	img, err := c.Load(ctx, layer)
	if err == nil {
		*dst = img
		return nil
	}
	if errors.Is(err, domain.ErrInputTooLarge) {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	c.logger.Warn("layer skipped", "token_id", tokenID, "layer", layer.ID(), "path", layer.Path, "err", err)
	if c.hooks.OnLayerSkipped != nil {
		c.hooks.OnLayerSkipped(ctx, &domain.LayerEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventLayerSkipped, TokenID: tokenID},
			Layer:     layer,
			Err:       err,
		})
	}
	return nil
}

// Paint draws layers in order onto a transparent canvas. frame selects the
// variant and transform of each layer; the zero Frame paints every layer
// at rest with its first raster.
func (c *Compositor) Paint(ctx context.Context, layers []Loaded, frame domain.Frame) (*image.RGBA, error) {
	canvas := image.NewRGBA(image.Rect(0, 0, c.size, c.size))
	for _, l := range layers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id := l.Layer.ID()
		img := l.At(frame.Variants[id])
		if img == nil {
			continue
		}
		drawTransformed(canvas, img, frame.TransformFor(id))
	}
	return canvas, nil
}

// drawTransformed draws src over dst, scaled and rotated around the canvas
// center, then translated.
func drawTransformed(dst *image.RGBA, src image.Image, t domain.Transform) {
	if t.Opacity <= 0 || t.Scale <= 0 {
		return
	}
	var mask image.Image
	if t.Opacity < 1 {
		mask = image.NewUniform(color.Alpha16{A: uint16(math.Round(t.Opacity * 0xffff))})
	}

	if t.X == 0 && t.Y == 0 && t.Scale == 1 && t.Rotation == 0 {
		draw.DrawMask(dst, dst.Bounds(), src, src.Bounds().Min, mask, image.Point{}, draw.Over)
		return
	}

	theta := t.Rotation * math.Pi / 180
	a, b := math.Cos(theta)*t.Scale, -math.Sin(theta)*t.Scale
	d, e := -b, a
	cx, cy := float64(dst.Bounds().Dx())/2, float64(dst.Bounds().Dy())/2
	m := f64.Aff3{
		a, b, cx + t.X - (a*cx + b*cy),
		d, e, cy + t.Y - (d*cx + e*cy),
	}
	draw.BiLinear.Transform(dst, m, src, src.Bounds(), draw.Over, &draw.Options{SrcMask: mask})
}
