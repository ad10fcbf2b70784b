package motion

import "math"

// Easing maps linear progress in [0,1] to eased progress.
type Easing func(float64) float64

func clamp01(p float64) float64 {
	return math.Max(0, math.Min(1, p))
}

// Linear returns p unchanged.
func Linear(p float64) float64 { return p }

// CubicOut decelerates towards the end.
func CubicOut(p float64) float64 {
	q := 1 - p
	return 1 - q*q*q
}

// CubicInOut accelerates then decelerates.
func CubicInOut(p float64) float64 {
	if p < 0.5 {
		return 4 * p * p * p
	}
	q := -2*p + 2
	return 1 - q*q*q/2
}

// QuintOut decelerates sharply towards the end.
func QuintOut(p float64) float64 {
	return 1 - math.Pow(1-p, 5)
}

// QuintInOut is the quintic ease in and out.
func QuintInOut(p float64) float64 {
	if p < 0.5 {
		return 16 * math.Pow(p, 5)
	}
	return 1 - math.Pow(-2*p+2, 5)/2
}

// SineInOut is the sinusoidal ease in and out.
func SineInOut(p float64) float64 {
	return -(math.Cos(math.Pi*p) - 1) / 2
}

// AbsSineBounce goes 0 -> 1 -> 0 twice over [0,1].
func AbsSineBounce(p float64) float64 {
	return math.Abs(math.Sin(p * math.Pi * 2))
}

var easings = map[string]Easing{
	"":            Linear,
	"linear":      Linear,
	"ease-out":    CubicOut,
	"ease-in-out": CubicInOut,
	"bounce":      AbsSineBounce,
}

// EasingByName resolves an easing name. The boolean is false for unknown names.
func EasingByName(name string) (Easing, bool) {
	e, ok := easings[name]
	return e, ok
}
