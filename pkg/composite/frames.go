package composite

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/aretw0/atelier/pkg/domain"
)

// EncodePNG encodes a rendered image.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderFrames renders every frame in order and returns the images with
// their delays. Cancellation is checked between frames.
func (c *Compositor) RenderFrames(ctx context.Context, layers []Loaded, frames []domain.Frame, modes domain.Modes) ([]image.Image, []int, error) {
	if len(frames) == 0 {
		return nil, nil, domain.ErrNothingToAnimate
	}
	images := make([]image.Image, len(frames))
	delays := make([]int, len(frames))
	for i, frame := range frames {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		img, err := c.Render(ctx, layers, frame, modes)
		if err != nil {
			return nil, nil, fmt.Errorf("frame %d: %w", frame.Index, err)
		}
		images[i] = img
		delays[i] = frame.DelayMs
	}
	return images, delays, nil
}
