// Package framesync aligns animated traits with different variant counts
// onto one shared frame timeline.
package framesync

import (
	"fmt"
	"math"

	"github.com/aretw0/atelier/pkg/domain"
)

// DefaultCap is the largest LCM kept as a perfect loop.
const DefaultCap = 15

// MaxDelayMs bounds the per-frame delay.
const MaxDelayMs = 10000

// Mode describes how the total frame count was chosen.
type Mode string

const (
	// ModePerfect loops every trait an integer number of times.
	ModePerfect Mode = "perfect"
	// ModeCycled uses the longest trait; shorter ones wrap mid-loop.
	ModeCycled Mode = "cycled"
	// ModeCustom takes the total from a frame generator.
	ModeCustom Mode = "custom"
)

// Timeline is the result of synchronizing variant counts.
type Timeline struct {
	Total  int
	Mode   Mode
	Counts []int
	// LCM is zero when the least common multiple overflows an int.
	LCM int
}

type options struct {
	cap       int
	generator int
}

// Option configures Plan.
type Option func(*options)

// WithCap overrides the perfect-loop ceiling.
func WithCap(n int) Option {
	return func(o *options) { o.cap = n }
}

// WithGenerator makes a custom frame generator own the timeline length.
func WithGenerator(total int) Option {
	return func(o *options) { o.generator = total }
}

// Plan computes the shared timeline for the given per-trait variant counts.
func Plan(counts []int, opts ...Option) (Timeline, error) {
	o := options{cap: DefaultCap}
	for _, opt := range opts {
		opt(&o)
	}
	for i, c := range counts {
		if c <= 0 {
			return Timeline{}, fmt.Errorf("%w: trait %d has %d variants", domain.ErrAnimationConfig, i, c)
		}
	}
	counts = append([]int(nil), counts...)

	if o.generator != 0 {
		if o.generator < 0 {
			return Timeline{}, fmt.Errorf("%w: generator total %d", domain.ErrAnimationConfig, o.generator)
		}
		l, _ := lcmAll(counts)
		return Timeline{Total: o.generator, Mode: ModeCustom, Counts: counts, LCM: l}, nil
	}

	switch len(counts) {
	case 0:
		return Timeline{}, domain.ErrNothingToAnimate
	case 1:
		return Timeline{Total: counts[0], Mode: ModePerfect, Counts: counts, LCM: counts[0]}, nil
	}

	l, ok := lcmAll(counts)
	if ok && l <= o.cap {
		return Timeline{Total: l, Mode: ModePerfect, Counts: counts, LCM: l}, nil
	}
	return Timeline{Total: maxOf(counts), Mode: ModeCycled, Counts: counts, LCM: l}, nil
}

// VariantIndex is the variant of trait i painted in frame.
func (t Timeline) VariantIndex(trait, frame int) int {
	if trait < 0 || trait >= len(t.Counts) {
		return 0
	}
	return frame % t.Counts[trait]
}

// Frames expands the timeline into frame skeletons keyed by the given layer
// ids, which must line up with Counts.
func (t Timeline) Frames(layerIDs []string, delayMs int) ([]domain.Frame, error) {
	if delayMs <= 0 || delayMs > MaxDelayMs {
		return nil, fmt.Errorf("%w: delay %dms", domain.ErrAnimationConfig, delayMs)
	}
	if len(layerIDs) != len(t.Counts) {
		return nil, fmt.Errorf("%w: %d layer ids for %d counts", domain.ErrAnimationConfig, len(layerIDs), len(t.Counts))
	}
	frames := make([]domain.Frame, t.Total)
	for f := range frames {
		variants := make(map[string]int, len(layerIDs))
		for i, id := range layerIDs {
			variants[id] = t.VariantIndex(i, f)
		}
		frames[f] = domain.Frame{Index: f, Variants: variants, DelayMs: delayMs}
	}
	return frames, nil
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// lcmAll returns the least common multiple of counts, or false when it
// does not fit in an int.
func lcmAll(counts []int) (int, bool) {
	if len(counts) == 0 {
		return 0, true
	}
	l := counts[0]
	for _, c := range counts[1:] {
		step := l / gcd(l, c)
		if step > math.MaxInt/c {
			return 0, false
		}
		l = step * c
	}
	return l, true
}

func maxOf(counts []int) int {
	m := counts[0]
	for _, c := range counts[1:] {
		m = max(m, c)
	}
	return m
}
