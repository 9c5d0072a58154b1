package action

import (
	"fmt"
	"strings"
)

// Easing shapes wipe and reveal progress.
type Easing string

const (
	EasingLinear        Easing = "linear"
	EasingEaseInQuad    Easing = "ease_in_quad"
	EasingEaseOutQuad   Easing = "ease_out_quad"
	EasingEaseInOutQuad Easing = "ease_in_out_quad"
	EasingEaseInCubic   Easing = "ease_in_cubic"
)

var easings = []Easing{
	EasingLinear, EasingEaseInQuad, EasingEaseOutQuad, EasingEaseInOutQuad, EasingEaseInCubic,
}

// ParseEasing resolves an easing name. An empty name is linear.
func ParseEasing(s string) (Easing, error) {
	n := Easing(strings.ToLower(strings.TrimSpace(s)))
	if n == "" {
		return EasingLinear, nil
	}
	for _, e := range easings {
		if e == n {
			return e, nil
		}
	}
	return "", fmt.Errorf("unknown easing %q", s)
}

// Apply maps t in [0,1] through the curve. Inputs outside [0,1] are clamped
// and unknown curves behave as linear. Every curve fixes 0 and 1.
func (e Easing) Apply(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	switch e {
	case EasingEaseInQuad:
		return t * t
	case EasingEaseOutQuad:
		return t * (2 - t)
	case EasingEaseInOutQuad:
		if t < 0.5 {
			return 2 * t * t
		}
		return -1 + (4-2*t)*t
	case EasingEaseInCubic:
		return t * t * t
	default:
		return t
	}
}
