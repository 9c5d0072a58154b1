package action

import (
	"fmt"
	"strings"

	"github.com/roach88/ledforge/internal/pixel"
)

// Direction of scroll, wipe, reveal and bounce motion.
type Direction string

const (
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
	DirectionUp    Direction = "up"
	DirectionDown  Direction = "down"
)

// ParseDirection resolves a direction name. An empty name is right.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case "":
		return DirectionRight, nil
	case DirectionLeft, DirectionRight, DirectionUp, DirectionDown:
		return d, nil
	default:
		return "", fmt.Errorf("unknown direction %q", s)
	}
}

// Axis selects the mirror line.
type Axis string

const (
	AxisHorizontal Axis = "horizontal" // mirror left-right
	AxisVertical   Axis = "vertical"   // mirror top-bottom
)

// ParseAxis resolves an axis name. An empty name is horizontal.
func ParseAxis(s string) (Axis, error) {
	switch a := Axis(strings.ToLower(strings.TrimSpace(s))); a {
	case "":
		return AxisHorizontal, nil
	case AxisHorizontal, AxisVertical:
		return a, nil
	default:
		return "", fmt.Errorf("unknown axis %q", s)
	}
}

// Params configures one action. It is a value and is never mutated while an
// action runs.
type Params struct {
	Direction Direction
	Speed     float64
	Distance  int
	Axis      Axis
	// Color is the wipe fill. Nil means white.
	Color  *pixel.Pixel
	Easing Easing
}

// DefaultParams returns right, speed 1, distance 1, horizontal, linear.
func DefaultParams() Params {
	return Params{
		Direction: DirectionRight,
		Speed:     1,
		Distance:  1,
		Axis:      AxisHorizontal,
		Easing:    EasingLinear,
	}
}

// withDefaults fills zero-valued enum fields. Speed and Distance are kept as
// given since zero is meaningful for both.
func (p Params) withDefaults() Params {
	if p.Direction == "" {
		p.Direction = DirectionRight
	}
	if p.Axis == "" {
		p.Axis = AxisHorizontal
	}
	if p.Easing == "" {
		p.Easing = EasingLinear
	}
	return p
}

func (p Params) fill() pixel.Pixel {
	if p.Color == nil {
		return pixel.White
	}
	return *p.Color
}

// ParamsFromMap decodes loosely typed parameters, as produced by YAML or CUE
// decoding, over DefaultParams. Unknown keys are ignored. Colors may be
// "#rrggbb" strings or [r, g, b] lists.
func ParamsFromMap(m map[string]any) (Params, error) {
	p := DefaultParams()
	for key, raw := range m {
		var err error
		switch strings.ToLower(key) {
		case "direction":
			var s string
			if s, err = asString(key, raw); err == nil {
				p.Direction, err = ParseDirection(s)
			}
		case "axis":
			var s string
			if s, err = asString(key, raw); err == nil {
				p.Axis, err = ParseAxis(s)
			}
		case "easing":
			var s string
			if s, err = asString(key, raw); err == nil {
				p.Easing, err = ParseEasing(s)
			}
		case "speed":
			p.Speed, err = asFloat(key, raw)
		case "distance":
			var f float64
			if f, err = asFloat(key, raw); err == nil {
				p.Distance = int(f)
			}
		case "color":
			var c pixel.Pixel
			if c, err = asColor(raw); err == nil {
				p.Color = &c
			}
		}
		if err != nil {
			return Params{}, err
		}
	}
	return p, nil
}

func asString(key string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("param %s: want string, got %T", key, v)
	}
	return s, nil
}

func asFloat(key string, v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("param %s: want number, got %T", key, v)
	}
}

func asColor(v any) (pixel.Pixel, error) {
	switch c := v.(type) {
	case string:
		return pixel.ParseHex(c)
	case []any:
		if len(c) != 3 {
			return pixel.Pixel{}, fmt.Errorf("param color: want 3 channels, got %d", len(c))
		}
		var ch [3]uint8
		for i, raw := range c {
			f, err := asFloat("color", raw)
			if err != nil {
				return pixel.Pixel{}, err
			}
			if f < 0 || f > 255 {
				return pixel.Pixel{}, fmt.Errorf("param color: channel %v out of range", f)
			}
			ch[i] = uint8(f)
		}
		return pixel.Pixel{R: ch[0], G: ch[1], B: ch[2]}, nil
	default:
		return pixel.Pixel{}, fmt.Errorf("param color: want string or list, got %T", v)
	}
}
