// Package raster turns vector assets into pixels and frames into GIFs.
package raster

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"math"

	"github.com/aretw0/atelier/pkg/domain"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// SVG implements ports.Rasterizer with oksvg.
type SVG struct {
	// Strict fails on SVG elements oksvg cannot draw instead of skipping them.
	Strict bool
}

// NewSVG returns a lenient rasterizer.
func NewSVG() *SVG {
	return &SVG{}
}

// Rasterize draws vector at the given width. The height follows the
// viewBox aspect ratio; a missing viewBox renders a square.
func (s *SVG) Rasterize(ctx context.Context, vector []byte, width int) (image.Image, error) {
	if width <= 0 {
		return nil, fmt.Errorf("%w: width %d", domain.ErrAssetUnavailable, width)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mode := oksvg.IgnoreErrorMode
	if s.Strict {
		mode = oksvg.StrictErrorMode
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(vector), mode)
	if err != nil {
		return nil, fmt.Errorf("%w: parse svg: %v", domain.ErrAssetUnavailable, err)
	}

	height := width
	if vb := icon.ViewBox; vb.W > 0 && vb.H > 0 {
		height = max(1, int(math.Round(float64(width)*vb.H/vb.W)))
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	icon.SetTarget(0, 0, float64(width), float64(height))
	scanner := rasterx.NewScannerGV(width, height, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(width, height, scanner), 1)
	return img, nil
}
