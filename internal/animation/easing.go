package animation

import (
	"math"
	"sort"
)

// EasingFunc maps linear progress (0.0 to 1.0) to eased progress
type EasingFunc func(t float64) float64

var easings = map[string]EasingFunc{
	"linear":       func(t float64) float64 { return t },
	"in_quad":      func(t float64) float64 { return t * t },
	"out_quad":     func(t float64) float64 { return 1 - (1-t)*(1-t) },
	"in_out_quad":  easeInOutQuad,
	"in_cubic":     func(t float64) float64 { return t * t * t },
	"out_cubic":    func(t float64) float64 { return 1 - pow(1-t, 3) },
	"in_out_cubic": easeInOutCubic,
	"in_sine":      func(t float64) float64 { return 1 - math.Cos(t*math.Pi/2) },
	"out_sine":     func(t float64) float64 { return math.Sin(t * math.Pi / 2) },
	"in_out_sine":  func(t float64) float64 { return -(math.Cos(math.Pi*t) - 1) / 2 },
	"out_bounce":   easeOutBounce,
}

// IsEasing reports whether name is a registered easing
func IsEasing(name string) bool {
	_, ok := easings[name]
	return ok
}

// Names returns the registered easing names in sorted order
func Names() []string {
	names := make([]string, 0, len(easings))
	for name := range easings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Ease applies the named easing to t. Unknown names fall back to linear.
func Ease(name string, t float64) float64 {
	t = clamp(t)
	fn, ok := easings[name]
	if !ok {
		return t
	}
	return fn(t)
}

// Progress returns eased progress of an animation that has run for elapsed
// out of duration seconds
func Progress(name string, elapsed, duration float64) float64 {
	if duration <= 0 {
		return 1.0
	}
	return Ease(name, elapsed/duration)
}

// Lerp performs linear interpolation between a and b
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func easeInOutQuad(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	return 1 - pow(-2*t+2, 2)/2
}

func easeInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - pow(-2*t+2, 3)/2
}

func easeOutBounce(t float64) float64 {
	const n1, d1 = 7.5625, 2.75
	switch {
	case t < 1/d1:
		return n1 * t * t
	case t < 2/d1:
		t -= 1.5 / d1
		return n1*t*t + 0.75
	case t < 2.5/d1:
		t -= 2.25 / d1
		return n1*t*t + 0.9375
	default:
		t -= 2.625 / d1
		return n1*t*t + 0.984375
	}
}

func clamp(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// pow calculates x^n
func pow(x float64, n int) float64 {
	result := 1.0
	for i := 0; i < n; i++ {
		result *= x
	}
	return result
}
