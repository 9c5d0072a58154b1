package layer

import (
	"fmt"
	"math"
	"strings"

	"github.com/roach88/ledforge/internal/pixel"
)

// BlendMode selects the per-channel combining function applied before the
// opacity lerp.
type BlendMode string

// Separable blend modes. B is the accumulated backdrop, S the layer pixel,
// both normalized to [0,1].
const (
	BlendNormal     BlendMode = "normal"      // S
	BlendAdd        BlendMode = "add"         // min(1, B+S)
	BlendSubtract   BlendMode = "subtract"    // max(0, B-S)
	BlendMultiply   BlendMode = "multiply"    // B*S
	BlendScreen     BlendMode = "screen"      // 1 - (1-B)*(1-S)
	BlendOverlay    BlendMode = "overlay"     // HardLight with swapped layers
	BlendDifference BlendMode = "difference"  // |B-S|
	BlendDarken     BlendMode = "darken"      // min(B, S)
	BlendLighten    BlendMode = "lighten"     // max(B, S)
	BlendColorDodge BlendMode = "color_dodge" // B / (1-S)
	BlendColorBurn  BlendMode = "color_burn"  // 1 - (1-B)/S
)

// BlendModes lists every supported mode in a stable order.
var BlendModes = []BlendMode{
	BlendNormal, BlendAdd, BlendSubtract, BlendMultiply, BlendScreen, BlendOverlay,
	BlendDifference, BlendDarken, BlendLighten, BlendColorDodge, BlendColorBurn,
}

// dodgeEpsilon keeps dodge and burn finite at S=1 and S=0.
const dodgeEpsilon = 0.001

// ParseBlendMode resolves a mode name, case-insensitively. An empty name is
// normal.
func ParseBlendMode(name string) (BlendMode, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return BlendNormal, nil
	}
	for _, m := range BlendModes {
		if string(m) == n {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown blend mode %q", name)
}

// Blend composites top over base. The mode function runs first and the
// result is lerped from base by opacity, which is clamped to [0,1].
// A zero opacity returns base unchanged.
func Blend(base, top pixel.Pixel, mode BlendMode, opacity float64) pixel.Pixel {
	if opacity <= 0 {
		return base
	}
	if opacity > 1 {
		opacity = 1
	}
	return pixel.Pixel{
		R: blendChannel(base.R, top.R, mode, opacity),
		G: blendChannel(base.G, top.G, mode, opacity),
		B: blendChannel(base.B, top.B, mode, opacity),
	}
}

func blendChannel(b, s uint8, mode BlendMode, opacity float64) uint8 {
	bn := float64(b) / 255
	sn := float64(s) / 255

	var r float64
	switch mode {
	case BlendAdd:
		r = math.Min(1, bn+sn)
	case BlendSubtract:
		r = math.Max(0, bn-sn)
	case BlendMultiply:
		r = bn * sn
	case BlendScreen:
		r = 1 - (1-bn)*(1-sn)
	case BlendOverlay:
		if bn < 0.5 {
			r = 2 * bn * sn
		} else {
			r = 1 - 2*(1-bn)*(1-sn)
		}
	case BlendDifference:
		r = math.Abs(bn - sn)
	case BlendDarken:
		r = math.Min(bn, sn)
	case BlendLighten:
		r = math.Max(bn, sn)
	case BlendColorDodge:
		r = math.Min(1, bn/(1-sn+dodgeEpsilon))
	case BlendColorBurn:
		r = 1 - math.Min(1, (1-bn)/(sn+dodgeEpsilon))
	default:
		r = sn
	}

	// Lerp in the 0-255 domain so exact inputs stay exact.
	out := float64(b) + (r*255-float64(b))*opacity
	return clampByte(out)
}

func clampByte(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
