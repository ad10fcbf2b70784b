package composite

import (
	"context"
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/parallel"
	"github.com/anthonynsimon/bild/transform"
	"github.com/aretw0/atelier/pkg/domain"
	"golang.org/x/image/draw"
)

// Effect constants.
const (
	shadowAlpha   = 0.3
	shadowOffsetX = -40
	shadowOffsetY = 15

	// Closeup crops this square at (closeupX, closeupY) of a 1000px canvas.
	CloseupCrop = 640
	closeupX    = 200
	closeupY    = 85
)

// glowRings are drawn from the innermost out.
var glowRings = []struct{ scale, opacity float64 }{
	{1.05, 0.6},
	{1.10, 0.4},
	{1.15, 0.3},
	{1.20, 0.2},
	{1.25, 0.15},
}

// Render paints one frame and applies the mode effects. Glow takes
// precedence over shadow, and shadow over blackout. Grayscale runs last.
func (c *Compositor) Render(ctx context.Context, layers []Loaded, frame domain.Frame, modes domain.Modes) (image.Image, error) {
	var out *image.RGBA
	if modes.Glow || modes.Shadow || modes.Blackout {
		var background, figure []Loaded
		for _, l := range layers {
			if l.Layer.Category == domain.CategoryBackground {
				background = append(background, l)
			} else {
				figure = append(figure, l)
			}
		}
		var err error
		if out, err = c.Paint(ctx, background, frame); err != nil {
			return nil, err
		}
		content, err := c.Paint(ctx, figure, frame)
		if err != nil {
			return nil, err
		}
		switch {
		case modes.Glow:
			Glow(out, content)
		case modes.Shadow:
			draw.Draw(out, out.Bounds(), Silhouette(content, shadowAlpha), image.Pt(-shadowOffsetX, -shadowOffsetY), draw.Over)
		case modes.Blackout:
			content = Silhouette(content, 1)
		}
		draw.Draw(out, out.Bounds(), content, image.Point{}, draw.Over)
	} else {
		var err error
		if out, err = c.Paint(ctx, layers, frame); err != nil {
			return nil, err
		}
	}

	var img image.Image = out
	if modes.Closeup {
		img = Closeup(out, CloseupCrop*c.size/CanvasSize)
	}
	if modes.BN {
		img = Grayscale(img)
	}
	return img, nil
}

// Silhouette blackens every visible pixel and scales its alpha.
func Silhouette(img image.Image, alpha float64) *image.RGBA {
	return adjust.Apply(img, func(c color.RGBA) color.RGBA {
		if c.A == 0 {
			return c
		}
		return color.RGBA{A: uint8(math.Round(float64(c.A) * alpha))}
	})
}

// Grayscale converts to luma with 0.299/0.587/0.114 weights, keeping alpha.
func Grayscale(img image.Image) *image.RGBA {
	return adjust.Apply(img, func(c color.RGBA) color.RGBA {
		if c.A == 0 {
			return c
		}
		g := uint8(math.Round(0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)))
		return color.RGBA{R: g, G: g, B: g, A: c.A}
	})
}

// Closeup crops the head region of the canvas and resizes it to width.
func Closeup(img image.Image, width int) *image.RGBA {
	b := img.Bounds()
	scale := float64(b.Dx()) / CanvasSize
	x := b.Min.X + int(math.Round(closeupX*scale))
	y := b.Min.Y + int(math.Round(closeupY*scale))
	side := int(math.Round(CloseupCrop * scale))
	cropped := transform.Crop(img, image.Rect(x, y, x+side, y+side))
	// Crop keeps source coordinates. Pix starts at Rect.Min, so rebasing is safe.
	cropped.Rect = cropped.Rect.Sub(cropped.Rect.Min)
	if width <= 0 || width == side {
		return cropped
	}
	return transform.Resize(cropped, width, width, transform.Linear)
}

// Glow draws rainbow-tinted, enlarged copies of content onto dst, centered.
func Glow(dst *image.RGBA, content image.Image) {
	size := dst.Bounds().Dx()
	for _, ring := range glowRings {
		side := int(math.Round(float64(size) * ring.scale))
		layer := transform.Resize(content, side, side, transform.Linear)
		tintRainbow(layer, ring.opacity)
		offset := (size - side) / 2
		draw.Draw(dst, dst.Bounds(), layer, image.Pt(-offset, -offset), draw.Over)
	}
}

// tintRainbow recolors visible pixels by their angle and distance from the
// center, scaling alpha by opacity.
func tintRainbow(img *image.RGBA, opacity float64) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	half := float64(w) / 2
	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < w; x++ {
				i := y*img.Stride + x*4
				a := img.Pix[i+3]
				if a == 0 {
					continue
				}
				dx, dy := float64(x)-half, float64(y)-float64(h)/2
				dist := math.Hypot(dx, dy)
				angle := (math.Atan2(dy, dx) + math.Pi) / (2 * math.Pi)
				hue := math.Mod(angle*360+dist*0.1, 360) / 360
				light := 0.5 + dist/half*0.3
				r, g, bl := hslToRGB(hue, 1, math.Min(light, 1))
				na := math.Round(float64(a) * opacity)
				// Pix is premultiplied.
				img.Pix[i] = uint8(math.Round(r * na))
				img.Pix[i+1] = uint8(math.Round(g * na))
				img.Pix[i+2] = uint8(math.Round(bl * na))
				img.Pix[i+3] = uint8(na)
			}
		}
	})
}

func hslToRGB(h, s, l float64) (r, g, b float64) {
	if s == 0 {
		return l, l, l
	}
	q := l + s - l*s
	if l < 0.5 {
		q = l * (1 + s)
	}
	p := 2*l - q
	return hueToRGB(p, q, h+1.0/3), hueToRGB(p, q, h), hueToRGB(p, q, h-1.0/3)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 0.5:
		return q
	case t < 2.0/3:
		return p + (q-p)*(2.0/3-t)*6
	}
	return p
}
