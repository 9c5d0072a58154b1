package layer

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/ledforge/internal/pixel"
)

// Alpha values for per-pixel coverage.
const (
	Transparent uint8 = 0
	Opaque      uint8 = 255
)

// BaseLayerName names the layer derived lazily from a frame's pixels.
const BaseLayerName = "Layer 1"

// Layer is one stackable pixel buffer scoped to a single frame.
//
// Alpha holds per-pixel coverage: a freshly added layer is transparent black
// so it does not hide what is below it until painted. Opacity scales the
// whole layer on top of that.
type Layer struct {
	// ID identifies the layer within its compositor. It survives moves and
	// removals of other layers, unlike the stack index.
	ID uint64

	Name      string
	Pixels    pixel.Buffer
	Alpha     []uint8
	Visible   bool
	Opacity   float64
	BlendMode BlendMode
}

// newLayer builds a visible, fully opaque, normal-blend layer with n
// transparent black pixels.
func newLayer(name string, n int) *Layer {
	return &Layer{
		Name:      normalizeName(name),
		Pixels:    pixel.NewBuffer(n),
		Alpha:     make([]uint8, n),
		Visible:   true,
		Opacity:   1,
		BlendMode: BlendNormal,
	}
}

// baseLayer wraps existing frame pixels in a fully covered layer.
func baseLayer(pixels pixel.Buffer) *Layer {
	l := newLayer(BaseLayerName, len(pixels))
	copy(l.Pixels, pixels)
	for i := range l.Alpha {
		l.Alpha[i] = Opaque
	}
	return l
}

// Clone returns a deep copy. Pixel and alpha arrays are never shared.
func (l Layer) Clone() Layer {
	out := l
	out.Pixels = l.Pixels.Clone()
	out.Alpha = append([]uint8(nil), l.Alpha...)
	return out
}

// Covered reports whether the pixel at i has any coverage.
func (l *Layer) Covered(i int) bool {
	return i >= 0 && i < len(l.Alpha) && l.Alpha[i] != Transparent
}

// normalizeName trims and NFC-normalizes a layer name so visually identical
// names compare equal.
func normalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// defaultName is used when a caller adds a layer without a name.
func defaultName(index int) string {
	return fmt.Sprintf("Layer %d", index+1)
}

func clampOpacity(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
