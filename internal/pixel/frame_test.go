package pixel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFrame_Valid(t *testing.T) {
	src := Filled(4, White)
	f, err := NewFrame(src, 50, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, uint32(50), f.DurationMS)
	assert.True(t, f.Pixels.Equal(src))

	// Constructor owns its copy.
	src[0] = Black
	assert.Equal(t, White, f.Pixels[0])
}

func TestNewFrame_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		pixels   Buffer
		duration uint32
		w, h     int
		code     ConstructionErrorCode
	}{
		{"too few pixels", NewBuffer(3), 10, 2, 2, ErrCodePixelCountMismatch},
		{"too many pixels", NewBuffer(5), 10, 2, 2, ErrCodePixelCountMismatch},
		{"zero duration", NewBuffer(4), 0, 2, 2, ErrCodeInvalidDuration},
		{"zero width", NewBuffer(0), 10, 0, 2, ErrCodeInvalidDimensions},
		{"negative height", NewBuffer(0), 10, 2, -1, ErrCodeInvalidDimensions},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFrame(tt.pixels, tt.duration, tt.w, tt.h)
			require.Error(t, err)
			var ce *ConstructionError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.code, ce.Code)
			assert.True(t, IsConstructionError(err))
		})
	}
}

func TestNewPattern_ReportsOffendingFrame(t *testing.T) {
	frames := []Frame{
		{Pixels: NewBuffer(4), DurationMS: 10},
		{Pixels: NewBuffer(3), DurationMS: 10},
	}
	_, err := NewPattern(2, 2, frames)
	require.Error(t, err)
	assert.True(t, IsPixelCountMismatch(err))

	var ce *ConstructionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 1, ce.Frame)
	assert.Contains(t, err.Error(), "frame=1")
}

func TestNewPattern_DeepCopiesFrames(t *testing.T) {
	frames := []Frame{{Pixels: NewBuffer(4), DurationMS: 10}}
	p, err := NewPattern(2, 2, frames)
	require.NoError(t, err)

	frames[0].Pixels[0] = White
	assert.Equal(t, Black, p.Frames[0].Pixels[0])
}

func TestNewBlankPattern(t *testing.T) {
	p, err := NewBlankPattern(3, 2, 4, DefaultDurationMS)
	require.NoError(t, err)
	assert.Equal(t, 4, p.FrameCount())
	assert.Equal(t, 6, p.PixelCount())
	assert.Equal(t, uint64(400), p.TotalDurationMS())
	for _, f := range p.Frames {
		assert.Len(t, f.Pixels, 6)
	}
}

func TestPattern_ClampFrame(t *testing.T) {
	p, err := NewBlankPattern(2, 2, 3, 10)
	require.NoError(t, err)

	tests := []struct {
		in, want int
	}{
		{-5, 0}, {0, 0}, {2, 2}, {3, 2}, {99, 2},
	}
	for _, tt := range tests {
		got, ok := p.ClampFrame(tt.in)
		assert.True(t, ok)
		assert.Equal(t, tt.want, got, "ClampFrame(%d)", tt.in)
	}

	empty, err := NewBlankPattern(2, 2, 0, 10)
	require.NoError(t, err)
	_, ok := empty.ClampFrame(0)
	assert.False(t, ok)
}

func TestPattern_Clone(t *testing.T) {
	p, err := NewBlankPattern(2, 2, 2, 10)
	require.NoError(t, err)

	c := p.Clone()
	c.Frames[1].Pixels[3] = White
	c.Frames[1].DurationMS = 99

	assert.Equal(t, Black, p.Frames[1].Pixels[3])
	assert.Equal(t, uint32(10), p.Frames[1].DurationMS)
}

func TestPattern_Digest(t *testing.T) {
	a, err := NewBlankPattern(2, 2, 2, DefaultDurationMS)
	require.NoError(t, err)
	b := a.Clone()
	assert.Equal(t, a.Digest(), b.Digest())

	b.Frames[1].DurationMS = 50
	assert.NotEqual(t, a.Digest(), b.Digest())

	c := a.Clone()
	c.Frames[0].Pixels[3] = White
	assert.NotEqual(t, a.Digest(), c.Digest())

	// Same pixel count, different shape.
	d, err := NewBlankPattern(4, 1, 2, DefaultDurationMS)
	require.NoError(t, err)
	assert.NotEqual(t, a.Digest(), d.Digest())
}
