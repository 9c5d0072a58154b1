package pixel

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Pixel is one RGB LED value.
type Pixel struct {
	R, G, B uint8
}

// Common colors.
var (
	Black = Pixel{0, 0, 0}
	White = Pixel{255, 255, 255}
)

// Invert returns the per-channel complement 255-c.
func (p Pixel) Invert() Pixel {
	return Pixel{R: 255 - p.R, G: 255 - p.G, B: 255 - p.B}
}

// String renders the pixel as #rrggbb.
func (p Pixel) String() string {
	return fmt.Sprintf("#%02x%02x%02x", p.R, p.G, p.B)
}

// ParseHex parses "#rrggbb" or "rrggbb".
func ParseHex(s string) (Pixel, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return Pixel{}, fmt.Errorf("color %q: want 6 hex digits", s)
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Pixel{}, fmt.Errorf("color %q: %w", s, err)
	}
	return Pixel{R: raw[0], G: raw[1], B: raw[2]}, nil
}

// Buffer is a flat row-major pixel array, index y*width+x.
type Buffer []Pixel

// NewBuffer allocates an all-black buffer of n pixels.
func NewBuffer(n int) Buffer {
	if n < 0 {
		n = 0
	}
	return make(Buffer, n)
}

// Filled allocates a buffer of n pixels set to c.
func Filled(n int, c Pixel) Buffer {
	b := NewBuffer(n)
	for i := range b {
		b[i] = c
	}
	return b
}

// Clone returns an independent copy. A nil buffer clones to nil.
func (b Buffer) Clone() Buffer {
	if b == nil {
		return nil
	}
	out := make(Buffer, len(b))
	copy(out, b)
	return out
}

// Equal reports element-wise equality.
func (b Buffer) Equal(other Buffer) bool {
	if len(b) != len(other) {
		return false
	}
	for i := range b {
		if b[i] != other[i] {
			return false
		}
	}
	return true
}

// Bytes packs the buffer as consecutive R,G,B bytes.
func (b Buffer) Bytes() []byte {
	out := make([]byte, 0, len(b)*3)
	for _, p := range b {
		out = append(out, p.R, p.G, p.B)
	}
	return out
}

// BufferFromBytes unpacks R,G,B triples produced by Bytes.
func BufferFromBytes(data []byte) (Buffer, error) {
	if len(data)%3 != 0 {
		return nil, &ConstructionError{
			Code:    ErrCodePixelCountMismatch,
			Message: fmt.Sprintf("raw pixel data length %d is not a multiple of 3", len(data)),
			Frame:   -1,
		}
	}
	out := make(Buffer, len(data)/3)
	for i := range out {
		out[i] = Pixel{R: data[i*3], G: data[i*3+1], B: data[i*3+2]}
	}
	return out, nil
}

// DomainFrame separates buffer digests from any other hash in the system.
const DomainFrame = "ledforge/frame/v1"

// Digest returns a stable SHA-256 hex digest of the buffer contents.
// Format: SHA256(DomainFrame + 0x00 + rgb bytes)
func (b Buffer) Digest() string {
	h := sha256.New()
	h.Write([]byte(DomainFrame))
	h.Write([]byte{0x00})
	h.Write(b.Bytes())
	return hex.EncodeToString(h.Sum(nil))
}
