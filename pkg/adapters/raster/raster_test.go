package raster

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"testing"

	"github.com/aretw0/atelier/pkg/domain"
	"github.com/aretw0/atelier/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ ports.Rasterizer = (*SVG)(nil)
	_ ports.GIFEncoder = (*GIF)(nil)
)

const halfRed = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10" width="10" height="10">
<rect x="0" y="0" width="10" height="5" fill="#ff0000"/>
</svg>`

func TestSVG_Rasterize(t *testing.T) {
	img, err := NewSVG().Rasterize(context.Background(), []byte(halfRed), 100)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 100, 100), img.Bounds())

	r, g, b, a := img.At(50, 20).RGBA()
	assert.Greater(t, r, uint32(0xf000))
	assert.Less(t, g+b, uint32(0x200))
	assert.Greater(t, a, uint32(0xf000))
	_, _, _, a = img.At(50, 80).RGBA()
	assert.Zero(t, a)
}

func TestSVG_AspectRatio(t *testing.T) {
	wide := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 20 10"><rect width="20" height="10" fill="#00f"/></svg>`
	img, err := NewSVG().Rasterize(context.Background(), []byte(wide), 200)
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 100, img.Bounds().Dy())
}

func TestSVG_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewSVG().Rasterize(ctx, []byte("not svg at all <"), 10)
	assert.ErrorIs(t, err, domain.ErrAssetUnavailable)

	_, err = NewSVG().Rasterize(ctx, []byte(halfRed), 0)
	assert.ErrorIs(t, err, domain.ErrAssetUnavailable)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = NewSVG().Rasterize(canceled, []byte(halfRed), 10)
	assert.ErrorIs(t, err, context.Canceled)
}

func solid(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestGIF_Encode(t *testing.T) {
	frames := []image.Image{
		solid(4, 4, color.RGBA{R: 255, A: 255}),
		solid(4, 4, color.RGBA{G: 255, A: 255}),
		solid(4, 4, color.RGBA{}),
	}
	data, err := NewGIF().Encode(frames, []int{100, 45, 1})
	require.NoError(t, err)

	anim, err := gif.DecodeAll(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, anim.Image, 3)
	assert.Equal(t, 0, anim.LoopCount)
	assert.Equal(t, []int{10, 5, 1}, anim.Delay)
	assert.Equal(t, 4, anim.Config.Width)

	r, g, _, _ := anim.Image[0].At(1, 1).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Zero(t, g)
	r, g, _, _ = anim.Image[1].At(1, 1).RGBA()
	assert.Zero(t, r)
	assert.Equal(t, uint32(0xffff), g)
	_, _, _, a := anim.Image[2].At(1, 1).RGBA()
	assert.Zero(t, a)
}

func TestGIF_PaletteBound(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := range 64 {
		for x := range 64 {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 4), B: uint8((x + y) * 2), A: 255})
		}
	}
	pal := buildPalette(img)
	assert.Len(t, pal, maxColors)
	assert.Equal(t, color.RGBA{}, pal[0])

	_, err := NewGIF().Encode([]image.Image{img}, []int{80})
	require.NoError(t, err)
}

func TestGIF_Rejects(t *testing.T) {
	_, err := NewGIF().Encode(nil, nil)
	assert.ErrorIs(t, err, domain.ErrAnimationConfig)

	_, err = NewGIF().Encode([]image.Image{solid(1, 1, color.White)}, []int{10, 20})
	assert.ErrorIs(t, err, domain.ErrAnimationConfig)
}

func TestCentiseconds(t *testing.T) {
	assert.Equal(t, 10, Centiseconds(100))
	assert.Equal(t, 8, Centiseconds(80))
	assert.Equal(t, 1, Centiseconds(0))
	assert.Equal(t, 1000, Centiseconds(10000))
}
