package atelier

import (
	"context"
	"image"

	"github.com/anthonynsimon/bild/transform"
	"github.com/aretw0/atelier/pkg/cache"
	"github.com/aretw0/atelier/pkg/domain"
	"github.com/aretw0/atelier/pkg/fingerprint"
	"github.com/aretw0/atelier/pkg/framesync"
	"github.com/aretw0/atelier/pkg/motion"
	"github.com/aretw0/atelier/pkg/observability"
	"go.opentelemetry.io/otel/attribute"
)

// ComposeAnimatedRender returns the looping GIF of req animated by spec.
// Animated traits cycle through their variants; a motion spec moves layers.
func (e *Engine) ComposeAnimatedRender(ctx context.Context, req domain.RenderRequest, spec motion.Spec) ([]byte, error) {
	if err := validToken(req.TokenID); err != nil {
		return nil, err
	}
	spec = spec.WithDefaults()
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	resolved := e.composer.Resolve(req)
	fp := fingerprint.ComputeAnimated(req, resolved, spec.Key())
	fetch := cache.FetchRequest{
		Key:     fingerprint.BuildFilename(req.TokenID, fp, fingerprint.ExtGIF),
		TokenID: req.TokenID,
		Persist: e.persist(req),
	}
	return e.render(ctx, domain.KindAnimated, fetch, fp, func(ctx context.Context) ([]byte, string, error) {
		if !delegable(req) {
			data, err := e.renderAnimated(ctx, req, spec)
			return data, OutcomeLocal, err
		}
		job := buildJob(req, resolved)
		anim, err := animationPayload(spec)
		if err != nil {
			return nil, OutcomeLocal, err
		}
		job.Animation = anim
		if data, ok := e.tryDelegate(ctx, job); ok {
			return data, OutcomeDelegate, nil
		}
		data, err := e.renderAnimated(ctx, req, spec)
		return data, OutcomeLocal, err
	})
}

// ComputeAnimatedFingerprint returns the fingerprint of req animated by spec.
func (e *Engine) ComputeAnimatedFingerprint(req domain.RenderRequest, spec motion.Spec) string {
	return fingerprint.ComputeAnimated(req, e.composer.Resolve(req), spec.WithDefaults().Key())
}

func (e *Engine) renderAnimated(ctx context.Context, req domain.RenderRequest, spec motion.Spec) ([]byte, error) {
	plan, err := e.compose(ctx, req)
	if err != nil {
		return nil, err
	}

	animated := plan.Animated()
	counts := make([]int, len(animated))
	ids := make([]string, len(animated))
	for i, l := range animated {
		counts[i] = len(l.Variants)
		ids[i] = l.ID()
	}
	syncOpts := []framesync.Option{framesync.WithCap(e.frameCap)}
	if spec.IsMotion() {
		syncOpts = append(syncOpts, framesync.WithGenerator(spec.Frames))
	}
	timeline, err := framesync.Plan(counts, syncOpts...)
	if err != nil {
		return nil, err
	}
	frames, err := timeline.Frames(ids, spec.DelayMs)
	if err != nil {
		return nil, err
	}
	size := e.compositor.Size()
	applyMotion(frames, plan.Layers, spec, size)

	paintCtx, span := observability.StartSpan(ctx, e.tracer, "atelier.paint", req.TokenID,
		attribute.Int("atelier.frames", len(frames)),
		attribute.String("atelier.sync", string(timeline.Mode)),
	)
	loaded, err := e.compositor.Preload(paintCtx, req.TokenID, plan.Layers, true)
	if err != nil {
		observability.EndSpan(span, err)
		return nil, err
	}
	images, delays, err := e.compositor.RenderFrames(paintCtx, loaded, frames, req.Modes)
	observability.EndSpan(span, err)
	if err != nil {
		return nil, err
	}

	if spec.Kind == motion.KindExplodedView && spec.Size != size {
		for i, img := range images {
			images[i] = resizeFrame(img, spec.Size)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.logger.Debug("animation frames ready",
		"token_id", req.TokenID,
		"frames", len(images),
		"sync", timeline.Mode,
		"animated_layers", len(animated),
	)
	return e.gif.Encode(images, delays)
}

// resizeFrame scales a square frame to width. Closeups keep their aspect.
func resizeFrame(img image.Image, width int) image.Image {
	b := img.Bounds()
	height := width * b.Dy() / b.Dx()
	return transform.Resize(img, width, height, transform.Linear)
}

// applyMotion fills the per-layer transforms of every frame. Offsets are
// computed in output pixels and converted to canvas pixels, so exploded
// views keep their distance after the frame is scaled to spec.Size.
func applyMotion(frames []domain.Frame, layers []domain.TraitLayer, spec motion.Spec, canvas int) {
	if !spec.IsMotion() {
		return
	}
	scale := 1.0
	if spec.Kind == motion.KindExplodedView && spec.Size > 0 {
		scale = float64(canvas) / float64(spec.Size)
	}
	// Stack motions place every layer, background included.
	stack := spec.Kind == motion.KindExplode || spec.Kind == motion.KindExplodedView
	total := len(frames)
	for fi := range frames {
		transforms := make(map[string]domain.Transform, len(layers))
		for i, l := range layers {
			if !spec.Applies(l.Category) {
				continue
			}
			if !stack && spec.Target == "" && l.Category == domain.CategoryBackground {
				continue
			}
			t := motion.ApplyLayer(spec, motion.Layer{Index: i, Count: len(layers), Category: l.Category}, frames[fi].Index, total)
			t.X *= scale
			t.Y *= scale
			transforms[l.ID()] = t
		}
		frames[fi].Transforms = transforms
	}
}
