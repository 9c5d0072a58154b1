package action

import (
	"fmt"
	"math"

	"github.com/roach88/ledforge/internal/pixel"
)

// Result is a transformed buffer with its dimensions. Only the rotate kinds
// report dimensions that differ from the input.
type Result struct {
	Pixels pixel.Buffer
	Width  int
	Height int
}

// Transform applies one kind to one buffer. frameIndex is the frame's
// position within the range being animated and totalFrames the range length.
// The input buffer is never modified.
//
// Every kind returns a buffer of the input's length. Rotation by 90 degrees
// reinterprets it as height x width, which Result reports.
func Transform(kind Kind, pixels pixel.Buffer, width, height, frameIndex, totalFrames int, p Params) (Result, error) {
	if width < 0 || height < 0 || len(pixels) != width*height {
		return Result{}, fmt.Errorf("transform %s: buffer has %d pixels, want %dx%d", kind, len(pixels), width, height)
	}
	if totalFrames < 1 {
		totalFrames = 1
	}
	p = p.withDefaults()

	res := Result{Width: width, Height: height}
	switch kind {
	case KindScroll:
		res.Pixels = scroll(pixels, width, height, p.Direction, scrollDistance(p, frameIndex))
	case KindBounce:
		res.Pixels = scroll(pixels, width, height, p.Direction, bounceDistance(p, frameIndex))
	case KindRotate:
		res.Pixels = rotateCW(pixels, width, height)
		res.Width, res.Height = height, width
	case KindRotateCCW:
		res.Pixels = rotateCCW(pixels, width, height)
		res.Width, res.Height = height, width
	case KindRotate180:
		res.Pixels = rotate180(pixels)
	case KindMirror, KindFlip:
		res.Pixels = mirror(pixels, width, height, p.Axis)
	case KindInvert:
		res.Pixels = invert(pixels)
	case KindWipe:
		res.Pixels = wipe(pixels, width, height, p, progress(p, frameIndex, totalFrames))
	case KindReveal:
		res.Pixels = reveal(pixels, width, height, p, progress(p, frameIndex, totalFrames))
	default:
		return Result{}, &UnknownKindError{Name: string(kind)}
	}
	return res, nil
}

// scrollDistance grows linearly with the frame index so a range animates.
func scrollDistance(p Params, frameIndex int) int {
	if p.Speed <= 0 {
		return 0
	}
	return int(math.Round(float64(p.Distance) * p.Speed * float64(frameIndex+1)))
}

// bounceDistance oscillates as |sin(phase*pi)| over a period of 10/speed
// frames.
func bounceDistance(p Params, frameIndex int) int {
	period := 1
	if p.Speed > 0 {
		period = max(1, int(math.Round(10/p.Speed)))
	}
	phase := float64(mod(frameIndex, period)) / float64(period)
	factor := math.Abs(math.Sin(phase * math.Pi))
	return int(math.Round(float64(p.Distance) * factor))
}

// progress is the eased fraction of a wipe or reveal completed at frameIndex.
func progress(p Params, frameIndex, totalFrames int) float64 {
	if p.Speed <= 0 {
		return 0
	}
	raw := math.Min(1, float64(frameIndex+1)/float64(totalFrames)*p.Speed)
	return p.Easing.Apply(raw)
}

func mod(a, n int) int {
	if n <= 0 {
		return 0
	}
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}

// scroll wraps the buffer toroidally. Moving right or down by d means each
// destination pixel is sourced d pixels back along the axis.
func scroll(src pixel.Buffer, w, h int, dir Direction, d int) pixel.Buffer {
	out := make(pixel.Buffer, len(src))
	if len(src) == 0 {
		return out
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sx, sy := x, y
			switch dir {
			case DirectionRight:
				sx = mod(x-d, w)
			case DirectionLeft:
				sx = mod(x+d, w)
			case DirectionDown:
				sy = mod(y-d, h)
			case DirectionUp:
				sy = mod(y+d, h)
			}
			out[y*w+x] = src[sy*w+sx]
		}
	}
	return out
}

// rotateCW writes (x,y) to (w-1-x)*h + y in an h-wide buffer.
func rotateCW(src pixel.Buffer, w, h int) pixel.Buffer {
	out := make(pixel.Buffer, len(src))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out[(w-1-x)*h+y] = src[y*w+x]
		}
	}
	return out
}

// rotateCCW writes (x,y) to x*h + (h-1-y) in an h-wide buffer.
func rotateCCW(src pixel.Buffer, w, h int) pixel.Buffer {
	out := make(pixel.Buffer, len(src))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out[x*h+(h-1-y)] = src[y*w+x]
		}
	}
	return out
}

func rotate180(src pixel.Buffer) pixel.Buffer {
	out := make(pixel.Buffer, len(src))
	for i, p := range src {
		out[len(src)-1-i] = p
	}
	return out
}

func mirror(src pixel.Buffer, w, h int, axis Axis) pixel.Buffer {
	out := make(pixel.Buffer, len(src))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sx, sy := w-1-x, y
			if axis == AxisVertical {
				sx, sy = x, h-1-y
			}
			out[y*w+x] = src[sy*w+sx]
		}
	}
	return out
}

func invert(src pixel.Buffer) pixel.Buffer {
	out := make(pixel.Buffer, len(src))
	for i, p := range src {
		out[i] = p.Invert()
	}
	return out
}

// swept reports whether (x,y) lies behind the sweep boundary at progress t.
// Right and down sweep from the low edge, left and up from the high edge.
func swept(x, y, w, h int, dir Direction, t float64) bool {
	switch dir {
	case DirectionLeft:
		return x >= boundary(w, 1-t)
	case DirectionDown:
		return y < boundary(h, t)
	case DirectionUp:
		return y >= boundary(h, 1-t)
	default:
		return x < boundary(w, t)
	}
}

// boundary truncates n*f, absorbing float error so exact fractions like
// 1/3 of 9 land on 3.
func boundary(n int, f float64) int {
	return int(math.Floor(float64(n)*f + 1e-9))
}

// wipe overwrites swept pixels with the fill color.
func wipe(src pixel.Buffer, w, h int, p Params, t float64) pixel.Buffer {
	out := src.Clone()
	fill := p.fill()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if swept(x, y, w, h, p.Direction, t) {
				out[y*w+x] = fill
			}
		}
	}
	return out
}

// reveal starts from black and shows the original behind the boundary.
func reveal(src pixel.Buffer, w, h int, p Params, t float64) pixel.Buffer {
	out := make(pixel.Buffer, len(src))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if swept(x, y, w, h, p.Direction, t) {
				out[y*w+x] = src[y*w+x]
			}
		}
	}
	return out
}
