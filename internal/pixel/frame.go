package pixel

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DefaultDurationMS is the display time given to frames created without an
// explicit duration.
const DefaultDurationMS = 100

// Frame is one still image in an animation.
type Frame struct {
	Pixels     Buffer
	DurationMS uint32
}

// NewFrame validates and builds a frame for a width x height matrix.
// The pixel buffer is cloned.
func NewFrame(pixels Buffer, durationMS uint32, width, height int) (Frame, error) {
	if width <= 0 || height <= 0 {
		return Frame{}, &ConstructionError{
			Code:    ErrCodeInvalidDimensions,
			Message: fmt.Sprintf("dimensions %dx%d must be positive", width, height),
			Frame:   -1,
		}
	}
	if err := checkFrame(pixels, durationMS, width*height, -1); err != nil {
		return Frame{}, err
	}
	return Frame{Pixels: pixels.Clone(), DurationMS: durationMS}, nil
}

// Clone returns a deep copy.
func (f Frame) Clone() Frame {
	return Frame{Pixels: f.Pixels.Clone(), DurationMS: f.DurationMS}
}

func checkFrame(pixels Buffer, durationMS uint32, want, index int) error {
	if len(pixels) != want {
		return &ConstructionError{
			Code:    ErrCodePixelCountMismatch,
			Message: fmt.Sprintf("frame has %d pixels, expected %d", len(pixels), want),
			Frame:   index,
		}
	}
	if durationMS < 1 {
		return &ConstructionError{
			Code:    ErrCodeInvalidDuration,
			Message: "frame duration must be at least 1ms",
			Frame:   index,
		}
	}
	return nil
}

// Pattern is an ordered sequence of equally sized frames.
type Pattern struct {
	Width  int
	Height int
	Frames []Frame
}

// NewPattern validates every frame against width x height and returns a
// pattern owning deep copies of them.
func NewPattern(width, height int, frames []Frame) (*Pattern, error) {
	p := &Pattern{Width: width, Height: height, Frames: make([]Frame, len(frames))}
	for i, f := range frames {
		p.Frames[i] = f.Clone()
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// NewBlankPattern builds a pattern of n all-black frames.
func NewBlankPattern(width, height, n int, durationMS uint32) (*Pattern, error) {
	if n < 0 {
		n = 0
	}
	frames := make([]Frame, n)
	for i := range frames {
		frames[i] = Frame{Pixels: NewBuffer(width * height), DurationMS: durationMS}
	}
	return NewPattern(width, height, frames)
}

// Validate re-checks the dimension, length and duration invariants.
// Deserialized patterns are run through this before use.
func (p *Pattern) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return &ConstructionError{
			Code:    ErrCodeInvalidDimensions,
			Message: fmt.Sprintf("dimensions %dx%d must be positive", p.Width, p.Height),
			Frame:   -1,
		}
	}
	for i, f := range p.Frames {
		if err := checkFrame(f.Pixels, f.DurationMS, p.PixelCount(), i); err != nil {
			return err
		}
	}
	return nil
}

// PixelCount returns width*height.
func (p *Pattern) PixelCount() int {
	return p.Width * p.Height
}

// FrameCount returns the number of frames.
func (p *Pattern) FrameCount() int {
	return len(p.Frames)
}

// ClampFrame maps any index to the nearest valid frame index.
// Returns false when the pattern has no frames.
func (p *Pattern) ClampFrame(index int) (int, bool) {
	n := len(p.Frames)
	if n == 0 {
		return 0, false
	}
	if index < 0 {
		return 0, true
	}
	if index >= n {
		return n - 1, true
	}
	return index, true
}

// Clone returns a deep copy of the pattern.
func (p *Pattern) Clone() *Pattern {
	out := &Pattern{Width: p.Width, Height: p.Height, Frames: make([]Frame, len(p.Frames))}
	for i, f := range p.Frames {
		out.Frames[i] = f.Clone()
	}
	return out
}

// TotalDurationMS sums the durations of all frames.
func (p *Pattern) TotalDurationMS() uint64 {
	var total uint64
	for _, f := range p.Frames {
		total += uint64(f.DurationMS)
	}
	return total
}

// DomainPattern separates pattern digests from frame digests.
const DomainPattern = "ledforge/pattern/v1"

// Digest returns a SHA-256 hex digest over the dimensions and every frame's
// duration and pixels, in order.
// Format: SHA256(DomainPattern + 0x00 + "WxH" + per frame: 0x00 + duration + frame digest)
func (p *Pattern) Digest() string {
	h := sha256.New()
	h.Write([]byte(DomainPattern))
	h.Write([]byte{0x00})
	fmt.Fprintf(h, "%dx%d", p.Width, p.Height)
	for _, f := range p.Frames {
		h.Write([]byte{0x00})
		fmt.Fprintf(h, "%d:%s", f.DurationMS, f.Pixels.Digest())
	}
	return hex.EncodeToString(h.Sum(nil))
}
