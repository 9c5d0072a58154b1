package action

import (
	"math"

	"github.com/roach88/ledforge/internal/pixel"
)

// DefaultGradient is used when Gradient is given no stops.
var DefaultGradient = []pixel.Pixel{{R: 255}, {G: 255}, {B: 255}}

// Gradient fills a width x height buffer with colors interpolated evenly
// along axis: left to right for horizontal, top to bottom for vertical.
// An empty stop list substitutes DefaultGradient.
func Gradient(stops []pixel.Pixel, width, height int, axis Axis) pixel.Buffer {
	if len(stops) == 0 {
		stops = DefaultGradient
	}
	if width <= 0 || height <= 0 {
		return pixel.Buffer{}
	}
	out := make(pixel.Buffer, width*height)
	span := width
	if axis == AxisVertical {
		span = height
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			pos := x
			if axis == AxisVertical {
				pos = y
			}
			t := 0.0
			if span > 1 {
				t = float64(pos) / float64(span-1)
			}
			out[y*width+x] = sampleStops(stops, t)
		}
	}
	return out
}

// sampleStops picks the color at t in [0,1] across evenly spaced stops.
func sampleStops(stops []pixel.Pixel, t float64) pixel.Pixel {
	if len(stops) == 1 {
		return stops[0]
	}
	scaled := t * float64(len(stops)-1)
	i := int(math.Floor(scaled))
	if i >= len(stops)-1 {
		return stops[len(stops)-1]
	}
	f := scaled - float64(i)
	a, b := stops[i], stops[i+1]
	return pixel.Pixel{
		R: lerpByte(a.R, b.R, f),
		G: lerpByte(a.G, b.G, f),
		B: lerpByte(a.B, b.B, f),
	}
}

func lerpByte(a, b uint8, f float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*f))
}
