package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/ledforge/internal/pixel"
)

// Numbered returns a w x h buffer in which every pixel is distinct, so any
// misplaced pixel shows up in an equality check.
func Numbered(w, h int) pixel.Buffer {
	b := make(pixel.Buffer, w*h)
	for i := range b {
		b[i] = pixel.Pixel{R: uint8(i), G: uint8(i >> 8), B: uint8(255 - i%256)}
	}
	return b
}

// BlankPattern builds an n-frame all-black pattern or fails the test.
func BlankPattern(t *testing.T, w, h, n int) *pixel.Pattern {
	t.Helper()
	p, err := pixel.NewBlankPattern(w, h, n, pixel.DefaultDurationMS)
	require.NoError(t, err)
	return p
}

// NumberedPattern builds an n-frame pattern whose frames are Numbered
// buffers offset by the frame index, so frames differ from each other.
func NumberedPattern(t *testing.T, w, h, n int) *pixel.Pattern {
	t.Helper()
	frames := make([]pixel.Frame, n)
	for i := range frames {
		b := Numbered(w, h)
		for j := range b {
			b[j].G += uint8(i * 17)
		}
		frames[i] = pixel.Frame{Pixels: b, DurationMS: pixel.DefaultDurationMS}
	}
	p, err := pixel.NewPattern(w, h, frames)
	require.NoError(t, err)
	return p
}
