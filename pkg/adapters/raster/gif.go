package raster

import (
	"bytes"
	"cmp"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"slices"

	"github.com/aretw0/atelier/pkg/domain"
	"golang.org/x/image/draw"
)

// maxColors is the GIF palette size, including the transparent entry.
const maxColors = 256

// GIF implements ports.GIFEncoder. Each frame gets its own palette of its
// most frequent colors, dithered with Floyd-Steinberg.
type GIF struct{}

// NewGIF returns a GIF encoder.
func NewGIF() *GIF {
	return &GIF{}
}

// Encode writes an infinitely looping GIF. delaysMs lines up with frames
// and is rounded to centiseconds.
func (GIF) Encode(frames []image.Image, delaysMs []int) ([]byte, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("%w: no frames", domain.ErrAnimationConfig)
	}
	if len(delaysMs) != len(frames) {
		return nil, fmt.Errorf("%w: %d delays for %d frames", domain.ErrAnimationConfig, len(delaysMs), len(frames))
	}

	bounds := frames[0].Bounds()
	anim := &gif.GIF{
		Image:     make([]*image.Paletted, len(frames)),
		Delay:     make([]int, len(frames)),
		Disposal:  make([]byte, len(frames)),
		LoopCount: 0,
		Config: image.Config{
			Width:  bounds.Dx(),
			Height: bounds.Dy(),
		},
	}
	for i, frame := range frames {
		r := frame.Bounds()
		pal := image.NewPaletted(image.Rect(0, 0, bounds.Dx(), bounds.Dy()), buildPalette(frame))
		draw.FloydSteinberg.Draw(pal, pal.Bounds(), frame, r.Min)
		anim.Image[i] = pal
		anim.Delay[i] = Centiseconds(delaysMs[i])
		anim.Disposal[i] = gif.DisposalBackground
	}
	anim.Config.ColorModel = anim.Image[0].Palette

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, anim); err != nil {
		return nil, fmt.Errorf("encode gif: %w", err)
	}
	return buf.Bytes(), nil
}

// Centiseconds converts a frame delay to GIF units, never below one.
func Centiseconds(ms int) int {
	return max(1, (ms+5)/10)
}

// buildPalette keeps the most frequent colors of img at 5 bits per channel.
// Index 0 is fully transparent.
func buildPalette(img image.Image) color.Palette {
	type bucket struct {
		c     color.RGBA
		count int
	}
	buckets := make(map[uint16]*bucket)
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if c.A < 128 {
				continue
			}
			key := uint16(c.R>>3)<<10 | uint16(c.G>>3)<<5 | uint16(c.B>>3)
			if bk, ok := buckets[key]; ok {
				bk.count++
				continue
			}
			buckets[key] = &bucket{c: color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}, count: 1}
		}
	}

	ranked := make([]*bucket, 0, len(buckets))
	for _, bk := range buckets {
		ranked = append(ranked, bk)
	}
	slices.SortFunc(ranked, func(a, b *bucket) int {
		if n := cmp.Compare(b.count, a.count); n != 0 {
			return n
		}
		return cmp.Compare(rgbKey(a.c), rgbKey(b.c))
	})

	pal := color.Palette{color.RGBA{}}
	for _, bk := range ranked {
		if len(pal) == maxColors {
			break
		}
		pal = append(pal, bk.c)
	}
	if len(pal) == 1 {
		// A palette needs at least one visible entry.
		pal = append(pal, color.RGBA{A: 0xff})
	}
	return pal
}

func rgbKey(c color.RGBA) uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}
